// Package planverify implements the Plan Verifier (C4): a pure structural
// check of a parsed Plan against the action catalog. Violations rewrite the
// offending step into an ErrorStep rather than rejecting the whole plan, so
// one malformed step never aborts the rest of an otherwise-valid plan.
package planverify

import (
	"fmt"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/plan"
)

// Verify checks every ActionStep and PendingActionStep in p against cat:
//   - the action id must be registered;
//   - ProvidedParams/ArgumentsByName keys must be a subset of the action's
//     declared parameters;
//   - the union of provided and pending names must equal the full declared
//     set — any declared name present in neither is treated as pending,
//     using the parameter's own description as the prompt.
//
// Verify returns a new Plan; it never mutates p.
func Verify(p *plan.Plan, cat *catalog.Catalog) *plan.Plan {
	if p == nil {
		return p
	}
	steps := make([]plan.Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = verifyStep(s, cat)
	}
	return plan.New(p.AssistantMessage, steps)
}

func verifyStep(s plan.Step, cat *catalog.Catalog) plan.Step {
	switch v := s.(type) {
	case plan.ActionStep:
		return verifyActionStep(v, cat)
	case plan.PendingActionStep:
		return verifyPendingStep(v, cat)
	default:
		return s
	}
}

func verifyActionStep(s plan.ActionStep, cat *catalog.Catalog) plan.Step {
	desc, ok := cat.ByID(s.ActionID)
	if !ok {
		return plan.ErrorStep{Reason: fmt.Sprintf("unknown action: %s", s.ActionID)}
	}
	declared := declaredSet(desc.Params)
	for _, k := range s.ArgumentsByName.Keys() {
		if _, ok := declared[k]; !ok {
			return plan.ErrorStep{Reason: fmt.Sprintf("unexpected parameter %q for action %s", k, s.ActionID)}
		}
	}
	var missing []plan.PendingParam
	for _, p := range desc.Params {
		if _, ok := s.ArgumentsByName.Get(p.Name); !ok {
			missing = append(missing, pendingFor(p))
		}
	}
	if len(missing) > 0 {
		return plan.PendingActionStep{
			StepDescription: s.StepDescription,
			ActionID:        s.ActionID,
			ProvidedParams:  s.ArgumentsByName.Clone(),
			PendingParams:   missing,
		}
	}
	return s
}

func verifyPendingStep(s plan.PendingActionStep, cat *catalog.Catalog) plan.Step {
	desc, ok := cat.ByID(s.ActionID)
	if !ok {
		return plan.ErrorStep{Reason: fmt.Sprintf("unknown action: %s", s.ActionID)}
	}
	declared := declaredSet(desc.Params)
	for _, k := range s.ProvidedParams.Keys() {
		if _, ok := declared[k]; !ok {
			return plan.ErrorStep{Reason: fmt.Sprintf("unexpected parameter %q for action %s", k, s.ActionID)}
		}
	}

	pendingNames := make(map[string]bool, len(s.PendingParams))
	for _, pp := range s.PendingParams {
		pendingNames[pp.Name] = true
	}

	var pending []plan.PendingParam
	for _, pp := range s.PendingParams {
		if _, provided := s.ProvidedParams.Get(pp.Name); provided {
			continue
		}
		pending = append(pending, pp)
	}
	for _, p := range desc.Params {
		if _, provided := s.ProvidedParams.Get(p.Name); provided {
			continue
		}
		if pendingNames[p.Name] {
			continue
		}
		pending = append(pending, pendingFor(p))
	}

	if len(pending) == 0 {
		return plan.ActionStep{
			StepDescription: s.StepDescription,
			ActionID:        s.ActionID,
			ArgumentsByName: reorder(s.ProvidedParams, desc.Params),
		}
	}
	return plan.PendingActionStep{
		StepDescription: s.StepDescription,
		ActionID:        s.ActionID,
		ProvidedParams:  s.ProvidedParams.Clone(),
		PendingParams:   pending,
	}
}

func declaredSet(params []catalog.ParamDescriptor) map[string]struct{} {
	out := make(map[string]struct{}, len(params))
	for _, p := range params {
		out[p.Name] = struct{}{}
	}
	return out
}

func pendingFor(p catalog.ParamDescriptor) plan.PendingParam {
	msg := p.Description
	if msg == "" {
		msg = fmt.Sprintf("Provide %s", p.Name)
	}
	return plan.PendingParam{Name: p.Name, Message: msg}
}

// reorder rebuilds m with keys in declared parameter order, so an
// ActionStep's ArgumentsByName always iterates in the catalog's
// authoritative order regardless of the order the planner emitted them.
func reorder(m *plan.OrderedMap, params []catalog.ParamDescriptor) *plan.OrderedMap {
	out := plan.NewOrderedMap()
	for _, p := range params {
		if v, ok := m.Get(p.Name); ok {
			out.Set(p.Name, v)
		}
	}
	return out
}
