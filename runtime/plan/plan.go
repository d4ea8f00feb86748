// Package plan defines the Plan intermediate representation: an assistant
// message plus an ordered sequence of steps, each one of three variants
// (Action, Pending, Error). Status is always derived from step contents,
// never stored, so a Plan cannot drift out of sync with its own steps.
package plan

import "goa.design/convo/runtime/catalog"

// Status is the derived overall state of a Plan.
type Status string

const (
	// StatusReady means every step is an ActionStep: the plan can be
	// resolved and executed without further user input.
	StatusReady Status = "READY"
	// StatusPending means at least one step still needs parameters from
	// the user before it can run.
	StatusPending Status = "PENDING"
	// StatusError means the plan is empty, or contains a step the planner
	// or verifier could not make sense of.
	StatusError Status = "ERROR"
)

type (
	// PendingParam names one parameter still required to complete a step,
	// paired with the message shown to the user to request it.
	PendingParam struct {
		Name    string
		Message string
	}

	// Step is implemented by the three step variants. A private method
	// keeps the variant set closed to this package, matching spec.md's
	// "Polymorphism over step variants" design note: tagged variants with
	// a single status() derivation, no inheritance hierarchy.
	Step interface {
		isStep()
		// Description returns the step's human-readable summary, common to
		// all three variants.
		Description() string
	}

	// ActionStep is a step whose required parameters are all present and
	// ready to resolve against the catalog.
	ActionStep struct {
		StepDescription string
		ActionID        catalog.Ident
		ArgumentsByName *OrderedMap
	}

	// PendingActionStep is a step still missing one or more required
	// parameters. ProvidedParams and PendingParams partition the action's
	// full declared parameter set; a name appears in exactly one of them.
	PendingActionStep struct {
		StepDescription string
		ActionID        catalog.Ident
		ProvidedParams  *OrderedMap
		PendingParams   []PendingParam
	}

	// ErrorStep is a planner refusal, an unknown action id, or any
	// structural violation the verifier could not otherwise reconcile.
	ErrorStep struct {
		Reason string
	}
)

func (ActionStep) isStep()        {}
func (PendingActionStep) isStep() {}
func (ErrorStep) isStep()         {}

// Description implements Step.
func (s ActionStep) Description() string { return s.StepDescription }

// Description implements Step.
func (s PendingActionStep) Description() string { return s.StepDescription }

// Description implements Step.
func (s ErrorStep) Description() string { return s.Reason }

// Plan is an immutable assistant message plus an ordered list of steps.
// Construct with New, which defensively copies Steps so later mutation of
// the caller's slice cannot affect the Plan.
type Plan struct {
	AssistantMessage string
	Steps            []Step
}

// New returns a Plan with a defensively copied Steps slice.
func New(assistantMessage string, steps []Step) *Plan {
	return &Plan{
		AssistantMessage: assistantMessage,
		Steps:            append([]Step(nil), steps...),
	}
}

// Empty returns a Plan with no steps and the given assistant message. Its
// Status is always StatusError per the "steps empty ⇒ ERROR" rule.
func Empty(assistantMessage string) *Plan {
	return New(assistantMessage, nil)
}

// Status derives the overall plan status from its steps:
//   - no steps                 -> ERROR
//   - any PendingActionStep    -> PENDING
//   - any ErrorStep (no pending) -> ERROR
//   - otherwise                -> READY
func (p *Plan) Status() Status {
	if p == nil || len(p.Steps) == 0 {
		return StatusError
	}
	hasPending := false
	hasError := false
	for _, s := range p.Steps {
		switch s.(type) {
		case PendingActionStep:
			hasPending = true
		case ErrorStep:
			hasError = true
		}
	}
	switch {
	case hasPending:
		return StatusPending
	case hasError:
		return StatusError
	default:
		return StatusReady
	}
}

// PendingParams returns the union, in step order, of every
// PendingActionStep's PendingParams. Per the spec's Open Question (a),
// entries are concatenated as encountered and are not deduplicated across
// steps; callers that need deduplicated names should do so explicitly.
func (p *Plan) PendingParams() []PendingParam {
	if p == nil {
		return nil
	}
	var out []PendingParam
	for _, s := range p.Steps {
		if ps, ok := s.(PendingActionStep); ok {
			out = append(out, ps.PendingParams...)
		}
	}
	return out
}
