// Package saga runs a fixed sequence of steps and, when one fails, undoes
// the completed ones in reverse order.
//
// A step's Undo is evaluated at rollback time, so it can look at what the
// step actually did (for example whether a row was created or reused) and
// return nil when there is nothing to revert. Compensations that fail are
// never dropped: they are logged with alert=true, counted, and handed to the
// Escalate hook, which typically enqueues them for retry.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iliyamo/salon-booking/internal/observability/metrics"
	"github.com/iliyamo/salon-booking/internal/observability/tracing"
)

// Terminal states.
const (
	StateStarted        = "Started"
	StateDone           = "Done"
	StateRolledBack     = "RolledBack"
	StateRollbackFailed = "RollbackFailed"
)

// Compensation is an idempotent undo action. Action and Target identify it
// well enough to be replayed later by a different process.
type Compensation struct {
	Action string
	Target string
	Run    func(ctx context.Context) error
}

// Step is one unit of work. Name is the state reached once Do succeeds.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func() *Compensation
}

// EscalateFunc receives every compensation that failed during rollback.
type EscalateFunc func(ctx context.Context, sagaID, step string, c Compensation, err error)

// Saga is single-use; build a new one per workflow run.
type Saga struct {
	id       string
	name     string
	steps    []Step
	state    string
	log      zerolog.Logger
	escalate EscalateFunc
}

// Option customizes a Saga.
type Option func(*Saga)

func WithLogger(l zerolog.Logger) Option { return func(s *Saga) { s.log = l } }

func WithEscalation(fn EscalateFunc) Option { return func(s *Saga) { s.escalate = fn } }

func New(name string, steps []Step, opts ...Option) *Saga {
	s := &Saga{
		id:    uuid.NewString(),
		name:  name,
		steps: steps,
		state: StateStarted,
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("saga", name).Str("saga_id", s.id).Logger()
	return s
}

func (s *Saga) ID() string    { return s.id }
func (s *Saga) State() string { return s.state }

// CompensationError describes one undo that could not be applied.
type CompensationError struct {
	Step   string
	Action string
	Target string
	Err    error
}

// Error is returned by Run when a step fails. It unwraps to the step error.
type Error struct {
	Step   string
	Err    error
	Failed []CompensationError
}

func (e *Error) Error() string {
	if len(e.Failed) == 0 {
		return fmt.Sprintf("step %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %s: %v (%d compensation(s) failed)", e.Step, e.Err, len(e.Failed))
}

func (e *Error) Unwrap() error { return e.Err }

// RolledBackCleanly reports whether every compensation succeeded.
func (e *Error) RolledBackCleanly() bool { return len(e.Failed) == 0 }

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}

// Run executes the steps strictly in order. On the first failure it rolls
// back completed steps and returns *Error.
func (s *Saga) Run(ctx context.Context) error {
	tracer := tracing.Tracer()
	ctx, span := tracer.Start(ctx, "saga."+s.name)
	span.SetAttributes(attribute.String("saga.id", s.id))
	defer span.End()

	for i, step := range s.steps {
		stepCtx, stepSpan := tracer.Start(ctx, "saga."+s.name+"."+step.Name)
		err := step.Do(stepCtx)
		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
		}
		stepSpan.End()

		if err != nil {
			s.log.Warn().Err(err).Str("step", step.Name).Msg("saga step failed, rolling back")
			failed := s.rollback(ctx, s.steps[:i])
			span.SetStatus(codes.Error, err.Error())
			return &Error{Step: step.Name, Err: err, Failed: failed}
		}
		s.state = step.Name
		s.log.Debug().Str("state", s.state).Msg("saga step completed")
	}
	s.state = StateDone
	return nil
}

// rollback undoes completed steps in reverse order. It detaches from the
// caller's cancellation so a timed-out request still gets cleaned up.
func (s *Saga) rollback(ctx context.Context, completed []Step) []CompensationError {
	ctx = context.WithoutCancel(ctx)
	var failed []CompensationError
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		c := step.Undo()
		if c == nil {
			continue
		}
		err := c.Run(ctx)
		if err == nil {
			metrics.ObserveCompensation(step.Name, "ok")
			s.log.Info().Str("step", step.Name).Str("action", c.Action).Str("target", c.Target).Msg("compensation applied")
			continue
		}

		metrics.ObserveCompensation(step.Name, "failed")
		metrics.ObserveRollbackFailure(step.Name)
		s.log.Error().Bool("alert", true).Err(err).
			Str("step", step.Name).Str("action", c.Action).Str("target", c.Target).
			Msg("compensation failed")
		failed = append(failed, CompensationError{Step: step.Name, Action: c.Action, Target: c.Target, Err: err})
		if s.escalate != nil {
			s.escalate(ctx, s.id, step.Name, *c, err)
		}
	}
	if len(failed) > 0 {
		s.state = StateRollbackFailed
	} else {
		s.state = StateRolledBack
	}
	return failed
}
