package planparse

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
		ID:          "lookup_user",
		Description: "looks up a user",
		Params: []catalog.ParamDescriptor{
			{Name: "id", Type: catalog.TypeString, Description: "user id"},
		},
	}))
	require.NoError(t, cat.Register(catalog.ActionDescriptor{
		ID:          "send_email",
		Description: "sends an email",
		Params: []catalog.ParamDescriptor{
			{Name: "to", Type: catalog.TypeString, Description: "recipient"},
			{Name: "subject", Type: catalog.TypeString, Description: "subject line"},
		},
	}))
	return cat
}

func TestParseJSONReadyPlan(t *testing.T) {
	cat := testCatalog(t)
	raw := `{"message":"looking that up","steps":[{"actionId":"lookup_user","description":"find the user","parameters":{"id":"42"}}]}`
	p := Parse(raw, cat)
	require.Equal(t, plan.StatusReady, p.Status())
	require.Equal(t, "looking that up", p.AssistantMessage)
	step := p.Steps[0].(plan.ActionStep)
	v, ok := step.ArgumentsByName.Get("id")
	require.True(t, ok)
	require.Equal(t, "42", v)
}

func TestParseJSONMissingParamYieldsPending(t *testing.T) {
	cat := testCatalog(t)
	raw := `{"message":"need more","steps":[{"actionId":"send_email","description":"send it","parameters":{"to":"a@example.com"}}]}`
	p := Parse(raw, cat)
	require.Equal(t, plan.StatusPending, p.Status())
	step := p.Steps[0].(plan.PendingActionStep)
	require.Len(t, step.PendingParams, 1)
	require.Equal(t, "subject", step.PendingParams[0].Name)
}

func TestParseJSONUnknownActionYieldsErrorStep(t *testing.T) {
	cat := testCatalog(t)
	raw := `{"message":"?","steps":[{"actionId":"delete_everything","description":"nope","parameters":{}}]}`
	p := Parse(raw, cat)
	step := p.Steps[0].(plan.ErrorStep)
	require.Contains(t, step.Reason, "unknown action")
}

func TestParseStripsCodeFence(t *testing.T) {
	cat := testCatalog(t)
	raw := "```json\n{\"message\":\"ok\",\"steps\":[]}\n```"
	p := Parse(raw, cat)
	require.Equal(t, "ok", p.AssistantMessage)
}

func TestParseMalformedJSONYieldsFailedToParse(t *testing.T) {
	cat := testCatalog(t)
	p := Parse(`{"message": "oops"`, cat)
	require.Equal(t, plan.StatusError, p.Status())
	step := p.Steps[0].(plan.ErrorStep)
	require.Contains(t, step.Reason, "Failed to parse plan")
}

func TestParseEmptyResponseYieldsFailedToParse(t *testing.T) {
	cat := testCatalog(t)
	p := Parse("   ", cat)
	step := p.Steps[0].(plan.ErrorStep)
	require.Contains(t, step.Reason, "empty response")
}

func TestParseSExprReadyPlan(t *testing.T) {
	cat := testCatalog(t)
	raw := `(P "looking that up" (PS lookup_user (PA id "42")))`
	p := Parse(raw, cat)
	require.Equal(t, plan.StatusReady, p.Status())
	step := p.Steps[0].(plan.ActionStep)
	v, ok := step.ArgumentsByName.Get("id")
	require.True(t, ok)
	require.Equal(t, "42", v)
}

func TestParseSExprExplicitPendingMessage(t *testing.T) {
	cat := testCatalog(t)
	raw := `(P "need info" (PS send_email (PA to "a@example.com") (PENDING subject "what's the subject?")))`
	p := Parse(raw, cat)
	step := p.Steps[0].(plan.PendingActionStep)
	require.Len(t, step.PendingParams, 1)
	require.Equal(t, "what's the subject?", step.PendingParams[0].Message)
}

func TestParseSExprErrorForm(t *testing.T) {
	cat := testCatalog(t)
	raw := `(P "can't help" (ERROR "ambiguous request"))`
	p := Parse(raw, cat)
	step := p.Steps[0].(plan.ErrorStep)
	require.Equal(t, "ambiguous request", step.Reason)
}

func TestParseSExprMalformedFallsBackToErrorStep(t *testing.T) {
	cat := testCatalog(t)
	p := Parse(`(P "unterminated"`, cat)
	require.Equal(t, plan.StatusError, p.Status())
	step := p.Steps[0].(plan.ErrorStep)
	require.Contains(t, step.Reason, "Failed to parse plan")
}

func TestParseSExprNumericLiteral(t *testing.T) {
	cat := testCatalog(t)
	raw := `(P "ok" (PS lookup_user (PA id 42)))`
	p := Parse(raw, cat)
	step := p.Steps[0].(plan.ActionStep)
	v, _ := step.ArgumentsByName.Get("id")
	require.Equal(t, float64(42), v)
}
