// Package retryprompt builds the retry addendum the conversation manager
// appends to the next turn's system prompt when a prior plan left
// parameters pending (C9).
package retryprompt

import (
	"fmt"
	"sort"
	"strings"
)

const directive = "Use the latest reply only to satisfy pending items; otherwise emit PENDING; do not invent actions or parameters; output a single structured plan only."

// PendingParam is the minimal shape retryprompt needs from a pending
// parameter, mirroring plan.PendingParam without importing the plan
// package (this package only ever renders text).
type PendingParam struct {
	Name    string
	Message string
}

// Input carries everything Build needs from the current Conversation State.
type Input struct {
	OriginalInstruction string
	ProvidedParams      map[string]any
	PendingParams       []PendingParam
	LatestUserMessage   string
}

// Build returns the retry addendum for in, or ("", false) when
// in.PendingParams is empty (nothing to retry).
func Build(in Input) (string, bool) {
	if len(in.PendingParams) == 0 {
		return "", false
	}
	var b strings.Builder
	b.WriteString("Retrying planning.")
	if strings.TrimSpace(in.OriginalInstruction) != "" {
		b.WriteString("\n")
		b.WriteString(in.OriginalInstruction)
	}
	if provided := joinProvided(in.ProvidedParams); provided != "" {
		b.WriteString("\nAlready provided: ")
		b.WriteString(provided)
	}
	b.WriteString("\nPending: ")
	b.WriteString(joinPending(in.PendingParams))
	b.WriteString(fmt.Sprintf("\n%q", in.LatestUserMessage))
	b.WriteString("\n")
	b.WriteString(directive)
	return b.String(), true
}

func joinProvided(provided map[string]any) string {
	if len(provided) == 0 {
		return ""
	}
	keys := make([]string, 0, len(provided))
	for k := range provided {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, provided[k]))
	}
	return strings.Join(parts, ", ")
}

func joinPending(pending []PendingParam) string {
	parts := make([]string, 0, len(pending))
	for _, p := range pending {
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Name, p.Message))
	}
	return strings.Join(parts, "; ")
}
