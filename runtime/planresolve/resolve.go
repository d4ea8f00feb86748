// Package planresolve implements the Plan Resolver (C5): it binds a
// verified Plan to invocable handlers, coercing each declared parameter's
// raw value to its catalog type. Coercion of complex parameters delegates
// to a typefactory.Registry keyed by NestedSchemaTag, keeping this package
// free of any domain-specific payload types.
package planresolve

import (
	"fmt"
	"regexp"
	"strconv"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/catalog/typefactory"
	"goa.design/convo/runtime/plan"
)

// Binding pairs a resolved ActionStep with its invocable handler and
// type-coerced, positionally ordered arguments.
type Binding struct {
	Handler     catalog.Handler
	OrderedArgs []any
}

// ResolvedStep is a plan.Step plus, for ActionStep-derived entries, its
// Binding. Pending and Error steps carry a nil Binding.
type ResolvedStep struct {
	plan.Step
	Binding *Binding
}

// ResolvedPlan mirrors Plan but each step that made it through resolution as
// ready-to-run carries a Binding.
type ResolvedPlan struct {
	AssistantMessage string
	Steps            []ResolvedStep
}

// Status derives the overall resolved-plan status the same way plan.Plan
// does, recomputed here because coercion failures can demote a step from
// ActionStep to ErrorStep during Resolve.
func (p *ResolvedPlan) Status() plan.Status {
	if p == nil || len(p.Steps) == 0 {
		return plan.StatusError
	}
	hasPending, hasError := false, false
	for _, s := range p.Steps {
		switch s.Step.(type) {
		case plan.PendingActionStep:
			hasPending = true
		case plan.ErrorStep:
			hasError = true
		}
	}
	switch {
	case hasPending:
		return plan.StatusPending
	case hasError:
		return plan.StatusError
	default:
		return plan.StatusReady
	}
}

// Resolve binds every ActionStep in p to its handler and coerced arguments.
// Pending and Error steps pass through unchanged. p is assumed to already
// have passed planverify.Verify; Resolve does not re-check parameter
// presence, only type coercion.
func Resolve(p *plan.Plan, cat *catalog.Catalog, types *typefactory.Registry) *ResolvedPlan {
	if p == nil {
		return nil
	}
	out := &ResolvedPlan{AssistantMessage: p.AssistantMessage}
	for _, s := range p.Steps {
		out.Steps = append(out.Steps, resolveStep(s, cat, types))
	}
	return out
}

func resolveStep(s plan.Step, cat *catalog.Catalog, types *typefactory.Registry) ResolvedStep {
	as, ok := s.(plan.ActionStep)
	if !ok {
		return ResolvedStep{Step: s}
	}

	desc, ok := cat.ByID(as.ActionID)
	if !ok {
		return ResolvedStep{Step: plan.ErrorStep{Reason: fmt.Sprintf("unknown action: %s", as.ActionID)}}
	}

	args := make([]any, 0, len(desc.Params))
	for _, p := range desc.Params {
		raw, _ := as.ArgumentsByName.Get(p.Name)
		coerced, err := coerce(raw, p, types)
		if err != nil {
			return ResolvedStep{Step: plan.ErrorStep{Reason: fmt.Sprintf("invalid value for %s: %v", p.Name, err)}}
		}
		args = append(args, coerced)
	}

	return ResolvedStep{
		Step: as,
		Binding: &Binding{
			Handler:     desc.Handler,
			OrderedArgs: args,
		},
	}
}

func coerce(raw any, p catalog.ParamDescriptor, types *typefactory.Registry) (any, error) {
	switch p.Type {
	case catalog.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for %s", p.Name)
		}
		if p.AllowedPattern != "" {
			ok, err := matchPattern(p.AllowedPattern, s)
			if err != nil || !ok {
				return nil, fmt.Errorf("value %q does not match pattern for %s", s, p.Name)
			}
		}
		return s, nil
	case catalog.TypeInt:
		return coerceInt(raw, p)
	case catalog.TypeFloat:
		return coerceFloat(raw, p)
	case catalog.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool for %s", p.Name)
		}
		return b, nil
	case catalog.TypeComplex:
		factory, ok := types.Lookup(p.NestedSchemaTag)
		if !ok {
			return nil, fmt.Errorf("no type factory registered for tag %q (param %s)", p.NestedSchemaTag, p.Name)
		}
		return factory(raw)
	default:
		return nil, fmt.Errorf("unknown type tag %q for %s", p.Type, p.Name)
	}
}

func coerceInt(raw any, p catalog.ParamDescriptor) (any, error) {
	var s string
	switch v := raw.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
		if p.AllowedPattern != "" {
			ok, err := matchPattern(p.AllowedPattern, s)
			if err != nil || !ok {
				return nil, fmt.Errorf("value %v does not match pattern for %s", raw, p.Name)
			}
		}
		return int64(v), nil
	case string:
		s = v
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected int for %s: %w", p.Name, err)
		}
		if p.AllowedPattern != "" {
			ok, err := matchPattern(p.AllowedPattern, s)
			if err != nil || !ok {
				return nil, fmt.Errorf("value %q does not match pattern for %s", s, p.Name)
			}
		}
		return n, nil
	default:
		return nil, fmt.Errorf("expected int for %s", p.Name)
	}
}

func coerceFloat(raw any, p catalog.ParamDescriptor) (any, error) {
	switch v := raw.(type) {
	case float64:
		if p.AllowedPattern != "" {
			s := strconv.FormatFloat(v, 'f', -1, 64)
			ok, err := matchPattern(p.AllowedPattern, s)
			if err != nil || !ok {
				return nil, fmt.Errorf("value %v does not match pattern for %s", raw, p.Name)
			}
		}
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("expected float for %s: %w", p.Name, err)
		}
		if p.AllowedPattern != "" {
			ok, err := matchPattern(p.AllowedPattern, v)
			if err != nil || !ok {
				return nil, fmt.Errorf("value %q does not match pattern for %s", v, p.Name)
			}
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected float for %s", p.Name)
	}
}

func matchPattern(pattern, value string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}
