package domain

import "errors"

// Error kinds. Every error returned by the core services matches exactly one
// of these through errors.Is, which is what the transport uses to pick a
// status code.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrPersistence    = errors.New("persistence error")
	ErrDependency     = errors.New("dependency error")
	ErrConfiguration  = errors.New("configuration error")
)

// ErrUserNotFound is returned by stores when a lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned by stores when an insert hits the unique email index.
var ErrUserExists = errors.New("user already exists")

// Error carries a kind, a human-readable message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Validation builds an ErrValidation error.
func Validation(msg string) error { return newError(ErrValidation, msg, nil) }

// Conflict builds an ErrConflict error.
func Conflict(msg string) error { return newError(ErrConflict, msg, nil) }

// Authentication builds an ErrAuthentication error.
func Authentication(msg string) error { return newError(ErrAuthentication, msg, nil) }

// Configuration builds an ErrConfiguration error.
func Configuration(msg string) error { return newError(ErrConfiguration, msg, nil) }

// Persistence builds an ErrPersistence error wrapping cause.
func Persistence(msg string, cause error) error { return newError(ErrPersistence, msg, cause) }

// Dependency builds an ErrDependency error wrapping cause.
func Dependency(msg string, cause error) error { return newError(ErrDependency, msg, cause) }

// Message returns the human-readable message of a domain error, falling back
// to err.Error() for anything else.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// KindOf returns a short label for the kind of err, suitable for metrics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrDependency):
		return "dependency"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "error"
	}
}
