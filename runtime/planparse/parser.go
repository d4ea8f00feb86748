package planparse

import (
	"fmt"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/plan"
)

// Parse converts a raw model response into a plan.Plan. It never returns a
// Go error: on any detection or decode failure it returns a Plan carrying a
// single ErrorStep whose reason begins "Failed to parse plan:" and includes
// a truncated excerpt of the raw response, preserving conversational
// continuity (spec §4.3).
func Parse(raw string, cat *catalog.Catalog) *plan.Plan {
	content, isJSON := detectFormat(raw)
	if content == "" {
		return failedToParse(raw, "empty response")
	}
	if isJSON {
		p, err := parseJSON(content, cat)
		if err != nil {
			return failedToParse(raw, err.Error())
		}
		return p
	}
	p, err := parseSExpr(content, cat)
	if err != nil {
		return failedToParse(raw, err.Error())
	}
	return p
}

func failedToParse(raw, diagnostic string) *plan.Plan {
	reason := fmt.Sprintf("Failed to parse plan: %s (%s)", diagnostic, excerpt(raw))
	return plan.New("", []plan.Step{plan.ErrorStep{Reason: reason}})
}

// buildStep resolves one decoded step (actionID, description, and a raw
// parameter map keyed by declared parameter name) into a plan.Step. Extra
// keys in parameters that are not in the action's declared parameter list
// are silently ignored per spec §4.3 step 4; the verifier, not the parser,
// is responsible for any further structural checks.
func buildStep(cat *catalog.Catalog, actionID, description string, parameters map[string]any) plan.Step {
	id := catalog.Ident(actionID)
	desc, ok := cat.ByID(id)
	if !ok {
		return plan.ErrorStep{Reason: fmt.Sprintf("unknown action: %s", actionID)}
	}

	provided := plan.NewOrderedMap()
	var pending []plan.PendingParam
	for _, p := range desc.Params {
		v, present := parameters[p.Name]
		if !present || v == nil {
			msg := p.Description
			if msg == "" {
				msg = fmt.Sprintf("Provide %s", p.Name)
			}
			pending = append(pending, plan.PendingParam{Name: p.Name, Message: msg})
			continue
		}
		provided.Set(p.Name, v)
	}

	if len(pending) == 0 {
		return plan.ActionStep{
			StepDescription: description,
			ActionID:        id,
			ArgumentsByName: provided,
		}
	}
	return plan.PendingActionStep{
		StepDescription: description,
		ActionID:        id,
		ProvidedParams:  provided,
		PendingParams:   pending,
	}
}
