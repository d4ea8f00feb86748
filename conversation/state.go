// Package conversation implements the Conversation State (C6) and
// Conversation Manager (C7): the immutable per-session record carried
// across turns, and the orchestrator that loads it, drives one planning
// turn, merges newly provided parameters, and persists the result.
package conversation

import (
	"context"
	"strings"

	"goa.design/convo/runtime/plan"
	"goa.design/convo/runtime/workingcontext"
)

// State is an immutable record of everything the engine needs to remember
// between turns. Construct with Initial on the first turn; every
// subsequent turn produces a new State via Manager.Converse — State values
// are never mutated in place.
//
// Invariants (spec §3):
//  1. a key appears in ProvidedParams or in one of PendingParams[*].Name,
//     never both, within a single State;
//  2. ProvidedParams values are non-nil and their keys non-blank;
//  3. len(TurnHistory) <= the configured MaxHistorySize (oldest evicted
//     first).
type State struct {
	// OriginalInstruction is the user's first message in this
	// conversation, preserved across every subsequent turn.
	OriginalInstruction string
	// PendingParams lists parameters still required to complete the plan
	// from the most recent turn.
	PendingParams []plan.PendingParam
	// ProvidedParams accumulates parameter values supplied across turns,
	// keyed by parameter name.
	ProvidedParams map[string]any
	// LatestUserMessage is the most recent raw message from the user.
	LatestUserMessage string
	// WorkingContext is the current domain artifact, if any.
	WorkingContext *workingcontext.WorkingContext
	// TurnHistory is a bounded trail of past WorkingContext snapshots.
	TurnHistory []workingcontext.WorkingContext
}

// Initial constructs the first State of a conversation from the user's
// opening instruction.
func Initial(instruction string) *State {
	return &State{
		OriginalInstruction: instruction,
		LatestUserMessage:   instruction,
		ProvidedParams:      map[string]any{},
	}
}

// Empty returns a State with no instruction, parameters, or history, used
// as the result of Manager.Expire.
func Empty() *State {
	return &State{ProvidedParams: map[string]any{}}
}

// clone returns a defensive deep copy of s so callers can never observe
// mutation of a State they were handed.
func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	cp := &State{
		OriginalInstruction: s.OriginalInstruction,
		LatestUserMessage:   s.LatestUserMessage,
		PendingParams:       append([]plan.PendingParam(nil), s.PendingParams...),
		ProvidedParams:      make(map[string]any, len(s.ProvidedParams)),
	}
	for k, v := range s.ProvidedParams {
		cp.ProvidedParams[k] = v
	}
	if s.WorkingContext != nil {
		wc := *s.WorkingContext
		cp.WorkingContext = &wc
	}
	cp.TurnHistory = append([]workingcontext.WorkingContext(nil), s.TurnHistory...)
	return cp
}

// mergeProvided returns the union of prior (P) and newly (N) provided
// parameters with N winning on key conflict, dropping blank keys and nil
// values from both sides (spec §8 invariant 6, "merge monotonicity"). No
// previously provided key is dropped unless N supplies a blank/nil override
// for it — in which case the stale value is evicted rather than silently
// kept.
func mergeProvided(prior map[string]any, newly map[string]any) map[string]any {
	out := make(map[string]any, len(prior)+len(newly))
	for k, v := range prior {
		if isBlankKeyOrNilValue(k, v) {
			continue
		}
		out[k] = v
	}
	for k, v := range newly {
		if isBlankKeyOrNilValue(k, v) {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func isBlankKeyOrNilValue(k string, v any) bool {
	return strings.TrimSpace(k) == "" || v == nil
}

// trimHistory returns history truncated to at most max entries, evicting
// the oldest first.
func trimHistory(history []workingcontext.WorkingContext, max int) []workingcontext.WorkingContext {
	if max <= 0 || len(history) <= max {
		return append([]workingcontext.WorkingContext(nil), history...)
	}
	return append([]workingcontext.WorkingContext(nil), history[len(history)-max:]...)
}

// Store persists Conversation State keyed by a caller-provided session id.
// Implementations must make Save observable by the next Load for the same
// id (spec §6); the memory, mongo, and redis packages under store/ provide
// concrete implementations.
type Store interface {
	// Load returns the stored State for sessionID, or (nil, nil) if none
	// exists yet.
	Load(ctx context.Context, sessionID string) (*State, error)
	// Save persists state under sessionID, replacing any prior value.
	Save(ctx context.Context, sessionID string, state *State) error
}
