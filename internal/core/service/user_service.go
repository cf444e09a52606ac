package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/workforce/login-service/internal/core/domain"
	"github.com/workforce/login-service/internal/core/ports"
	"github.com/workforce/login-service/internal/core/saga"
	"github.com/workforce/login-service/internal/pkg/metrics"
)

const (
	defaultEmployeeTimeout     = 10 * time.Second
	defaultCompensationTimeout = 10 * time.Second

	stepInsertUser     = "insert_user"
	stepCreateEmployee = "create_employee"
)

var tracer = otel.Tracer("github.com/workforce/login-service/internal/core/service")

// Deps groups the collaborators of UserService. Journal may be nil.
type Deps struct {
	Users     ports.UserStore
	Roles     ports.RoleStore
	AuditLogs ports.AuditLogStore
	Employees ports.EmployeeClient
	Hasher    ports.PasswordHasher
	Tokens    ports.TokenIssuer
	Journal   ports.CompensationJournal
}

// Options tunes UserService behaviour. Zero values select defaults.
type Options struct {
	// EmployeeTimeout bounds every call to the employee service.
	EmployeeTimeout time.Duration
	// CompensationTimeout bounds each compensating action of the registration saga.
	CompensationTimeout time.Duration
	// AuditStrict makes a failed audit insert fail the login.
	AuditStrict bool
	// Now overrides time.Now, for tests.
	Now func() time.Time
}

// UserService implements registration, login and the user listing.
type UserService struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

// NewUserService returns a UserService. Journal is optional.
func NewUserService(deps Deps, opts Options, log zerolog.Logger) *UserService {
	if opts.EmployeeTimeout <= 0 {
		opts.EmployeeTimeout = defaultEmployeeTimeout
	}
	if opts.CompensationTimeout <= 0 {
		opts.CompensationTimeout = defaultCompensationTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &UserService{deps: deps, opts: opts, log: log}
}

// RegisterUser validates the input, inserts the user and asks the employee
// service to create the matching employee. If the employee cannot be created
// the user row is deleted again and a dependency error is returned.
func (s *UserService) RegisterUser(ctx context.Context, in ports.RegisterUserInput) (err error) {
	ctx, span := tracer.Start(ctx, "UserService.RegisterUser")
	defer func() {
		endSpan(span, err)
		metrics.RegistrationsTotal.WithLabelValues(domain.KindOf(err)).Inc()
	}()

	if in.SuperiorID != nil && *in.SuperiorID < 1 {
		return domain.Validation("invalid superior id format")
	}

	email := domain.NormalizeEmail(in.Email)

	// Pre-check only; the store's unique index is what actually prevents duplicates.
	existing, err := s.deps.Users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return domain.Conflict("email already registered")
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return domain.Persistence("could not look up user", err)
	}

	ok, err := s.deps.Roles.Exists(ctx, in.RoleID)
	if err != nil {
		return domain.Persistence("could not check role", err)
	}
	if !ok {
		return domain.Validation("invalid role")
	}

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return configurationFault("could not hash password", err)
	}

	user := &domain.User{Email: email, PasswordHash: hash, RoleID: in.RoleID}

	err = saga.New("register_user", s.log).
		WithCompensationTimeout(s.opts.CompensationTimeout).
		Step(stepInsertUser,
			func(ctx context.Context) error { return s.insertUser(ctx, user) },
			func(ctx context.Context) error { return s.deleteUser(ctx, user) },
		).
		Step(stepCreateEmployee,
			func(ctx context.Context) error { return s.createEmployee(ctx, user, in) },
			nil,
		).
		OnCompensationFailure(func(ctx context.Context, step string, cause, cerr error) {
			s.recordOrphan(ctx, user, step, cause, cerr)
		}).
		Run(ctx)
	if err != nil {
		var se *saga.Error
		if !errors.As(err, &se) {
			return err
		}
		if se.Step != stepInsertUser {
			result := "ok"
			if len(se.Compensations) > 0 {
				result = "failed"
			}
			metrics.CompensationsTotal.WithLabelValues(result).Inc()
		}
		return se.Err
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.log.Info().
		Int64("user_id", user.ID).
		Int64("role_id", user.RoleID).
		Msg("user registered")
	return nil
}

func (s *UserService) insertUser(ctx context.Context, user *domain.User) error {
	n, err := s.deps.Users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return domain.Conflict("email already registered")
		}
		return domain.Persistence("could not register user", err)
	}
	if n == 0 {
		return domain.Persistence("could not register user", nil)
	}
	return nil
}

func (s *UserService) deleteUser(ctx context.Context, user *domain.User) error {
	n, err := s.deps.Users.Delete(ctx, user)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", user.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("delete user %d: no rows affected", user.ID)
	}
	return nil
}

func (s *UserService) createEmployee(ctx context.Context, user *domain.User, in ports.RegisterUserInput) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.EmployeeTimeout)
	defer cancel()

	req := domain.EmployeeRequest{
		UserID:       user.ID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DepartmentID: in.DepartmentID,
		PositionID:   in.PositionID,
		SuperiorID:   in.SuperiorID,
		IsApprover:   in.IsApprover,
	}
	if err := s.deps.Employees.Create(ctx, req); err != nil {
		return domain.Dependency("could not create employee", err)
	}
	return nil
}

// recordOrphan makes a failed compensation visible to operators. It never
// changes the error returned to the caller.
func (s *UserService) recordOrphan(ctx context.Context, user *domain.User, step string, cause, cerr error) {
	s.log.Error().
		Err(cerr).
		AnErr("cause", cause).
		Int64("user_id", user.ID).
		Str("step", step).
		Msg("registration left inconsistent state")

	if s.deps.Journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CompensationTimeout)
	defer cancel()

	rec := domain.OrphanRecord{
		UserID:            user.ID,
		Email:             user.Email,
		Step:              step,
		Cause:             cause.Error(),
		CompensationError: cerr.Error(),
		OccurredAt:        s.opts.Now().UTC(),
	}
	if err := s.deps.Journal.Record(ctx, rec); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to journal orphan")
	}
}

// Login authenticates email/password, fetches the employee profile, records
// an audit entry and returns a signed session token.
func (s *UserService) Login(ctx context.Context, email, password string) (tok domain.SessionToken, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer func() {
		endSpan(span, err)
		metrics.LoginsTotal.WithLabelValues(domain.KindOf(err)).Inc()
	}()

	user, err := s.deps.Users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.SessionToken{}, domain.Authentication("user does not match")
		}
		return domain.SessionToken{}, domain.Persistence("could not look up user", err)
	}

	ok, err := s.deps.Hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return domain.SessionToken{}, configurationFault("could not verify password", err)
	}
	if !ok {
		return domain.SessionToken{}, domain.Authentication("incorrect password")
	}

	employee, err := s.fetchEmployee(ctx, user.ID)
	if err != nil {
		return domain.SessionToken{}, domain.Dependency("could not fetch employee", err)
	}

	if err := s.recordLogin(ctx, user.ID); err != nil {
		metrics.AuditFailuresTotal.Inc()
		if s.opts.AuditStrict {
			return domain.SessionToken{}, domain.Dependency("could not record login", err)
		}
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("login audit failed, continuing")
	}

	tok, err = s.deps.Tokens.Issue(user, employee)
	if err != nil {
		return domain.SessionToken{}, configurationFault("could not issue token", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return tok, nil
}

func (s *UserService) fetchEmployee(ctx context.Context, userID int64) (*domain.EmployeeProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.EmployeeTimeout)
	defer cancel()

	employee, err := s.deps.Employees.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("employee for user %d not found", userID)
	}
	return employee, nil
}

func (s *UserService) recordLogin(ctx context.Context, userID int64) error {
	entry := &domain.AuditLogEntry{UserID: userID, Date: s.opts.Now().UTC()}
	n, err := s.deps.AuditLogs.Insert(ctx, entry)
	if err != nil {
		return err
	}
	if n == 0 {
		// Rows affected is informational only.
		metrics.AuditFailuresTotal.Inc()
		s.log.Warn().Int64("user_id", userID).Msg("login audit affected no rows")
	}
	return nil
}

// GetAllUsers lists every user with its role description.
func (s *UserService) GetAllUsers(ctx context.Context) ([]ports.UserSummary, error) {
	users, err := s.deps.Users.ListAll(ctx)
	if err != nil {
		return nil, domain.Persistence("could not list users", err)
	}

	out := make([]ports.UserSummary, len(users))
	for i, u := range users {
		out[i] = ports.UserSummary{ID: u.ID, Email: u.Email, Role: u.RoleDescription()}
	}
	return out, nil
}

// configurationFault passes typed domain errors through and classifies any
// other hasher or issuer failure as a configuration error.
func configurationFault(msg string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return &domain.Error{Kind: domain.ErrConfiguration, Message: msg, Cause: err}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.KindOf(err))
	}
	span.End()
}
