package retryprompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReturnsFalseWhenNoPendingParams(t *testing.T) {
	_, ok := Build(Input{OriginalInstruction: "book a flight"})
	require.False(t, ok)
}

func TestBuildIncludesOriginalInstructionAndPendingNames(t *testing.T) {
	out, ok := Build(Input{
		OriginalInstruction: "book a flight",
		PendingParams:       []PendingParam{{Name: "date", Message: "when do you want to fly?"}},
		LatestUserMessage:   "next friday",
	})
	require.True(t, ok)
	require.Contains(t, out, "book a flight")
	require.Contains(t, out, "date (when do you want to fly?)")
	require.Contains(t, out, `"next friday"`)
}

func TestBuildListsProvidedParamsSortedByName(t *testing.T) {
	out, ok := Build(Input{
		ProvidedParams: map[string]any{"zone": "PST", "destination": "SFO"},
		PendingParams:  []PendingParam{{Name: "date", Message: "when?"}},
	})
	require.True(t, ok)
	require.Contains(t, out, "Already provided: destination=SFO, zone=PST")
}

func TestBuildOmitsProvidedLineWhenEmpty(t *testing.T) {
	out, ok := Build(Input{
		PendingParams: []PendingParam{{Name: "date", Message: "when?"}},
	})
	require.True(t, ok)
	require.NotContains(t, out, "Already provided")
}

func TestBuildEndsWithDirective(t *testing.T) {
	out, _ := Build(Input{PendingParams: []PendingParam{{Name: "date", Message: "when?"}}})
	require.Contains(t, out, "do not invent actions or parameters")
}
