// Package saga runs an ordered list of forward actions, each optionally paired
// with a compensating action. When a forward action fails, the compensations
// of every step that already completed run in reverse order, once each.
package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultCompensationTimeout = 10 * time.Second

// Action is a single forward or compensating operation.
type Action func(ctx context.Context) error

type step struct {
	name string
	do   Action
	undo Action
}

// CompensationFailure records an undo that returned an error.
type CompensationFailure struct {
	Step string
	Err  error
}

// Error is returned by Run when a forward step fails. It unwraps to the
// forward error; compensation failures are attached but never replace it.
type Error struct {
	Step          string
	Err           error
	Compensations []CompensationFailure
}

func (e *Error) Error() string {
	if len(e.Compensations) == 0 {
		return fmt.Sprintf("saga step %q: %v", e.Step, e.Err)
	}
	failed := make([]string, 0, len(e.Compensations))
	for _, c := range e.Compensations {
		failed = append(failed, c.Step)
	}
	return fmt.Sprintf("saga step %q: %v (compensation failed: %s)", e.Step, e.Err, strings.Join(failed, ", "))
}

func (e *Error) Unwrap() error { return e.Err }

// Saga is built with New and Step, then executed once with Run.
type Saga struct {
	name                string
	steps               []step
	log                 zerolog.Logger
	compensationTimeout time.Duration
	onCompensationFail  func(ctx context.Context, step string, cause, err error)
}

// New creates an empty saga.
func New(name string, log zerolog.Logger) *Saga {
	return &Saga{
		name:                name,
		log:                 log,
		compensationTimeout: defaultCompensationTimeout,
	}
}

// Step appends a forward action and its compensation. undo may be nil for
// steps that leave nothing to roll back.
func (s *Saga) Step(name string, do, undo Action) *Saga {
	s.steps = append(s.steps, step{name: name, do: do, undo: undo})
	return s
}

// WithCompensationTimeout bounds each compensating action.
func (s *Saga) WithCompensationTimeout(d time.Duration) *Saga {
	if d > 0 {
		s.compensationTimeout = d
	}
	return s
}

// OnCompensationFailure registers a hook invoked for every undo that fails.
// cause is the forward error that triggered the rollback.
func (s *Saga) OnCompensationFailure(fn func(ctx context.Context, step string, cause, err error)) *Saga {
	s.onCompensationFail = fn
	return s
}

// Run executes the steps in order. On the first failure it compensates the
// completed steps in reverse and returns an *Error.
func (s *Saga) Run(ctx context.Context) error {
	for i, st := range s.steps {
		err := st.do(ctx)
		if err == nil {
			continue
		}

		s.log.Warn().Err(err).
			Str("saga", s.name).
			Str("step", st.name).
			Msg("saga step failed, compensating")

		return &Error{
			Step:          st.name,
			Err:           err,
			Compensations: s.compensate(ctx, i, err),
		}
	}
	return nil
}

// compensate undoes steps [0, failed) in reverse. Compensations run on a
// context detached from the caller's cancellation so a timed-out request
// still rolls back.
func (s *Saga) compensate(ctx context.Context, failed int, cause error) []CompensationFailure {
	var failures []CompensationFailure
	base := context.WithoutCancel(ctx)

	for i := failed - 1; i >= 0; i-- {
		st := s.steps[i]
		if st.undo == nil {
			continue
		}

		undoCtx, cancel := context.WithTimeout(base, s.compensationTimeout)
		err := st.undo(undoCtx)
		cancel()

		if err == nil {
			s.log.Info().Str("saga", s.name).Str("step", st.name).Msg("step compensated")
			continue
		}

		s.log.Error().Err(err).
			Str("saga", s.name).
			Str("step", st.name).
			AnErr("cause", cause).
			Msg("compensation failed")
		failures = append(failures, CompensationFailure{Step: st.name, Err: err})
		if s.onCompensationFail != nil {
			s.onCompensationFail(base, st.name, cause, err)
		}
	}
	return failures
}

// CompensationFailed reports whether err is a saga error with at least one
// failed compensation.
func CompensationFailed(err error) bool {
	var se *Error
	return errors.As(err, &se) && len(se.Compensations) > 0
}
