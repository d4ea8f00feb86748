// Package memory provides an in-process conversation.Store backed by a
// guarded map. It is meant for tests and single-process deployments: state
// does not survive a restart and is not shared across hosts.
package memory

import (
	"context"
	"sync"

	"goa.design/convo/conversation"
	"goa.design/convo/runtime/plan"
	"goa.design/convo/runtime/workingcontext"
)

// Store implements conversation.Store over a map guarded by a mutex.
type Store struct {
	mu    sync.RWMutex
	saved map[string]*conversation.State
}

// New returns an empty Store.
func New() *Store {
	return &Store{saved: make(map[string]*conversation.State)}
}

// Load implements conversation.Store.
func (s *Store) Load(_ context.Context, sessionID string) (*conversation.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.saved[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneState(state), nil
}

// Save implements conversation.Store.
func (s *Store) Save(_ context.Context, sessionID string, state *conversation.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[sessionID] = cloneState(state)
	return nil
}

// cloneState returns a defensive deep copy so neither the store nor a
// caller can observe the other's later mutation of slices and maps.
func cloneState(state *conversation.State) *conversation.State {
	if state == nil {
		return nil
	}
	cp := &conversation.State{
		OriginalInstruction: state.OriginalInstruction,
		LatestUserMessage:   state.LatestUserMessage,
		PendingParams:       append([]plan.PendingParam(nil), state.PendingParams...),
		ProvidedParams:      make(map[string]any, len(state.ProvidedParams)),
		TurnHistory:         append([]workingcontext.WorkingContext(nil), state.TurnHistory...),
	}
	for k, v := range state.ProvidedParams {
		cp.ProvidedParams[k] = v
	}
	if state.WorkingContext != nil {
		wc := *state.WorkingContext
		cp.WorkingContext = &wc
	}
	return cp
}
