// Package executor implements the Plan Executor (C10): it sequentially
// invokes a ResolvedPlan's bound action handlers, threads a shared Context
// through the steps, and emits REQUESTED/STARTED/SUCCEEDED/FAILED
// instrumentation events for each invocation.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/instrumentation"
	"goa.design/convo/runtime/plan"
	"goa.design/convo/runtime/planresolve"
	"goa.design/convo/telemetry"
)

// StepOutcome records what happened when one step was (or was not)
// executed.
type StepOutcome struct {
	// Description is the step's human-readable summary, copied from the
	// plan for convenience.
	Description string
	// ActionID is the step's action id. Steps after a failed step get an
	// outcome with Executed false.
	ActionID catalog.Ident
	// Succeeded reports whether the handler returned without error. Only
	// meaningful when Executed is true.
	Succeeded bool
	// Executed reports whether the handler was actually invoked.
	Executed bool
	// Result is the handler's return value on success.
	Result any
	// FailureReason is the captured cause message on failure.
	FailureReason string
	// DurationMs is the wall-clock handler invocation time in milliseconds,
	// set only when Executed is true.
	DurationMs int64
}

// ExecutionResult is the outcome of one Execute call.
type ExecutionResult struct {
	Success           bool
	Context           *Context
	StepOutcomes      []StepOutcome
	NotExecutedReason string
}

// Option configures optional hooks and collaborators for Execute.
type Option func(*settings)

type settings struct {
	emitter       *instrumentation.Emitter
	correlationID string
	onPending     func(reason string)
	onError       func(reason string)
	now           func() int64
	ctx           context.Context
	metrics       telemetry.Metrics
	tracer        telemetry.Tracer
}

// WithEmitter routes lifecycle events to emitter under correlationID.
func WithEmitter(emitter *instrumentation.Emitter, correlationID string) Option {
	return func(s *settings) {
		s.emitter = emitter
		s.correlationID = correlationID
	}
}

// WithOnPending registers a hook invoked when the plan cannot execute
// because it is still PENDING.
func WithOnPending(hook func(reason string)) Option {
	return func(s *settings) { s.onPending = hook }
}

// WithOnError registers a hook invoked when the plan cannot execute because
// it carries an ErrorStep.
func WithOnError(hook func(reason string)) Option {
	return func(s *settings) { s.onError = hook }
}

// withClock overrides the millisecond clock used for event timestamps and
// duration measurement; tests use this to produce deterministic output.
func withClock(now func() int64) Option {
	return func(s *settings) { s.now = now }
}

// WithContext sets the parent context spans are started from. Defaults to
// context.Background() when not supplied.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithMetrics records a counter and a duration histogram per action
// invocation, tagged with the action id and outcome.
func WithMetrics(metrics telemetry.Metrics) Option {
	return func(s *settings) { s.metrics = metrics }
}

// WithTracer starts one span per action invocation, named after the action
// id, recording the handler error (if any) on the span.
func WithTracer(tracer telemetry.Tracer) Option {
	return func(s *settings) { s.tracer = tracer }
}

// Execute runs rp's ActionSteps in declaration order against a fresh
// Context (or execCtx if non-nil, to let a caller seed values or reuse one
// across related executions). PENDING and ERROR plans are not executed;
// Execute reports why via NotExecutedReason and invokes the matching hook.
func Execute(rp *planresolve.ResolvedPlan, cat *catalog.Catalog, execCtx *Context, opts ...Option) ExecutionResult {
	s := &settings{now: defaultClock, ctx: context.Background()}
	for _, o := range opts {
		o(s)
	}
	if execCtx == nil {
		execCtx = NewContext()
	}

	switch rp.Status() {
	case plan.StatusPending:
		reason := "awaiting: " + strings.Join(pendingNames(rp), ", ")
		if s.onPending != nil {
			s.onPending(reason)
		}
		return ExecutionResult{Context: execCtx, NotExecutedReason: reason}
	case plan.StatusError:
		reason := firstErrorReason(rp)
		if s.onError != nil {
			s.onError(reason)
		}
		return ExecutionResult{Context: execCtx, NotExecutedReason: reason}
	}

	result := ExecutionResult{Success: true, Context: execCtx}
	for i, step := range rp.Steps {
		as, ok := step.Step.(plan.ActionStep)
		if !ok || step.Binding == nil {
			continue
		}
		desc, _ := cat.ByID(as.ActionID)

		correlationID := s.correlationID
		start := s.now()
		if s.emitter != nil {
			s.emitter.RequestedThenStarted(instrumentation.KindAction, string(as.ActionID), correlationID, start, nil)
		}

		var span telemetry.Span
		if s.tracer != nil {
			_, span = s.tracer.Start(s.ctx, "executor.action."+string(as.ActionID))
		}

		value, err := step.Binding.Handler(execCtx, step.Binding.OrderedArgs)
		elapsed := s.now() - start

		if err != nil {
			if span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.End()
			}
			if s.metrics != nil {
				s.metrics.IncCounter("executor.step.total", 1, "action", string(as.ActionID), "outcome", "failed")
				s.metrics.RecordTimer("executor.step.duration", time.Duration(elapsed)*time.Millisecond, "action", string(as.ActionID), "outcome", "failed")
			}
			outcome := StepOutcome{
				Description:   as.StepDescription,
				ActionID:      as.ActionID,
				Executed:      true,
				Succeeded:     false,
				FailureReason: err.Error(),
				DurationMs:    elapsed,
			}
			result.StepOutcomes = append(result.StepOutcomes, outcome)
			if s.emitter != nil {
				s.emitter.Terminal(instrumentation.Failed, instrumentation.KindAction, string(as.ActionID), correlationID, s.now(), elapsed, nil)
			}
			result.Success = false
			for _, later := range rp.Steps[i+1:] {
				if next, ok := later.Step.(plan.ActionStep); ok {
					result.StepOutcomes = append(result.StepOutcomes, StepOutcome{
						Description: next.StepDescription,
						ActionID:    next.ActionID,
					})
				}
			}
			return result
		}

		if span != nil {
			span.End()
		}
		if s.metrics != nil {
			s.metrics.IncCounter("executor.step.total", 1, "action", string(as.ActionID), "outcome", "succeeded")
			s.metrics.RecordTimer("executor.step.duration", time.Duration(elapsed)*time.Millisecond, "action", string(as.ActionID), "outcome", "succeeded")
		}

		if desc != nil && desc.ContextKey != "" {
			execCtx.Set(desc.ContextKey, value)
		}
		result.StepOutcomes = append(result.StepOutcomes, StepOutcome{
			Description: as.StepDescription,
			ActionID:    as.ActionID,
			Executed:    true,
			Succeeded:   true,
			Result:      value,
			DurationMs:  elapsed,
		})
		if s.emitter != nil {
			s.emitter.Terminal(instrumentation.Succeeded, instrumentation.KindAction, string(as.ActionID), correlationID, s.now(), elapsed, nil)
		}
	}
	return result
}

func pendingNames(rp *planresolve.ResolvedPlan) []string {
	var names []string
	for _, step := range rp.Steps {
		if ps, ok := step.Step.(plan.PendingActionStep); ok {
			for _, p := range ps.PendingParams {
				names = append(names, p.Name)
			}
		}
	}
	return names
}

func firstErrorReason(rp *planresolve.ResolvedPlan) string {
	for _, step := range rp.Steps {
		if es, ok := step.Step.(plan.ErrorStep); ok {
			return es.Reason
		}
	}
	return fmt.Sprintf("plan status %s with no error step", rp.Status())
}

func defaultClock() int64 { return time.Now().UnixMilli() }
