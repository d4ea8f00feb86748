package planverify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/plan"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	require.NoError(t, cat.Register(catalog.ActionDescriptor{
		ID: "send_email",
		Params: []catalog.ParamDescriptor{
			{Name: "to", Description: "recipient"},
			{Name: "subject", Description: "subject line"},
		},
	}))
	return cat
}

func TestVerifyUnknownActionBecomesErrorStep(t *testing.T) {
	cat := testCatalog(t)
	args := plan.NewOrderedMap()
	p := plan.New("", []plan.Step{
		plan.ActionStep{ActionID: "missing_action", ArgumentsByName: args},
	})
	out := Verify(p, cat)
	step := out.Steps[0].(plan.ErrorStep)
	require.Contains(t, step.Reason, "unknown action")
}

func TestVerifyCompleteActionStepPassesThrough(t *testing.T) {
	cat := testCatalog(t)
	args := plan.NewOrderedMap()
	args.Set("to", "a@example.com")
	args.Set("subject", "hi")
	p := plan.New("", []plan.Step{
		plan.ActionStep{ActionID: "send_email", ArgumentsByName: args},
	})
	out := Verify(p, cat)
	require.Equal(t, plan.StatusReady, out.Status())
}

func TestVerifyActionStepMissingParamBecomesPending(t *testing.T) {
	cat := testCatalog(t)
	args := plan.NewOrderedMap()
	args.Set("to", "a@example.com")
	p := plan.New("", []plan.Step{
		plan.ActionStep{ActionID: "send_email", ArgumentsByName: args},
	})
	out := Verify(p, cat)
	step := out.Steps[0].(plan.PendingActionStep)
	require.Len(t, step.PendingParams, 1)
	require.Equal(t, "subject", step.PendingParams[0].Name)
}

func TestVerifyUnexpectedParamBecomesErrorStep(t *testing.T) {
	cat := testCatalog(t)
	args := plan.NewOrderedMap()
	args.Set("to", "a@example.com")
	args.Set("carbon_copy", "b@example.com")
	p := plan.New("", []plan.Step{
		plan.ActionStep{ActionID: "send_email", ArgumentsByName: args},
	})
	out := Verify(p, cat)
	step := out.Steps[0].(plan.ErrorStep)
	require.Contains(t, step.Reason, "unexpected parameter")
}

func TestVerifyPendingStepResolvesToActionStepWhenComplete(t *testing.T) {
	cat := testCatalog(t)
	provided := plan.NewOrderedMap()
	provided.Set("to", "a@example.com")
	p := plan.New("", []plan.Step{
		plan.PendingActionStep{
			ActionID:       "send_email",
			ProvidedParams: provided,
			PendingParams:  []plan.PendingParam{{Name: "subject", Message: "subject?"}},
		},
	})
	out := Verify(p, cat)
	// subject still missing in ProvidedParams so this stays pending in this test;
	// add it to confirm promotion to ActionStep.
	provided.Set("subject", "hi")
	p2 := plan.New("", []plan.Step{
		plan.PendingActionStep{
			ActionID:       "send_email",
			ProvidedParams: provided,
			PendingParams:  []plan.PendingParam{{Name: "subject", Message: "subject?"}},
		},
	})
	out2 := Verify(p2, cat)
	require.Equal(t, plan.StatusPending, out.Status())
	require.Equal(t, plan.StatusReady, out2.Status())
}

func TestVerifyPendingStepReordersArgumentsToDeclaredOrder(t *testing.T) {
	cat := testCatalog(t)
	provided := plan.NewOrderedMap()
	provided.Set("subject", "hi")
	provided.Set("to", "a@example.com")
	p := plan.New("", []plan.Step{
		plan.PendingActionStep{ActionID: "send_email", ProvidedParams: provided},
	})
	out := Verify(p, cat)
	step := out.Steps[0].(plan.ActionStep)
	require.Equal(t, []string{"to", "subject"}, step.ArgumentsByName.Keys())
}

func TestVerifyDoesNotMutateInputPlan(t *testing.T) {
	cat := testCatalog(t)
	args := plan.NewOrderedMap()
	args.Set("to", "a@example.com")
	p := plan.New("", []plan.Step{
		plan.ActionStep{ActionID: "send_email", ArgumentsByName: args},
	})
	_ = Verify(p, cat)
	require.Equal(t, plan.StatusReady, p.Status())
	_, ok := p.Steps[0].(plan.ActionStep)
	require.True(t, ok)
}
