// Package instrumentation implements the Instrumentation Emitter (C11): it
// produces REQUESTED/STARTED/SUCCEEDED/FAILED lifecycle events for action
// invocations, keyed by a caller-supplied correlation id, and fans them out
// to listeners registered against that id.
package instrumentation

import (
	"sync"
)

// EventType is one of the four lifecycle phases an invocation passes
// through.
type EventType string

const (
	Requested EventType = "REQUESTED"
	Started   EventType = "STARTED"
	Succeeded EventType = "SUCCEEDED"
	Failed    EventType = "FAILED"
)

// Kind classifies what kind of invocation produced an event. ACTION covers
// the Plan Executor's handler invocations; TOOL is reserved for a host that
// wants to instrument sub-invocations a handler makes on its own behalf.
type Kind string

const (
	KindAction Kind = "ACTION"
	KindTool   Kind = "TOOL"
)

// Event is one lifecycle record. DurationMs is populated only on SUCCEEDED
// and FAILED events.
type Event struct {
	Type          EventType
	Kind          Kind
	Name          string
	CorrelationID string
	Timestamp     int64
	DurationMs    *int64
	Attributes    map[string]string
}

// Listener receives events for the correlation id it was registered under.
type Listener func(Event)

// Subscription unregisters its listener when closed. Close is idempotent.
type Subscription interface {
	Close()
}

// Emitter fans out events to listeners registered per correlation id. An
// Emitter instance is meant for exactly one plan execution: it is not
// designed for concurrent use by multiple executions (spec §5, "single-
// threaded w.r.t. one execution; concurrent executors each use their own
// emitter instance").
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]*subscription
	started   map[string]bool
}

type subscription struct {
	emitter       *Emitter
	correlationID string
	listener      Listener
	closed        bool
}

// New returns an empty Emitter.
func New() *Emitter {
	return &Emitter{
		listeners: make(map[string][]*subscription),
		started:   make(map[string]bool),
	}
}

// Of registers listener to receive every event emitted for correlationID.
func (e *Emitter) Of(correlationID string, listener Listener) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := &subscription{emitter: e, correlationID: correlationID, listener: listener}
	e.listeners[correlationID] = append(e.listeners[correlationID], sub)
	return sub
}

func (s *subscription) Close() {
	s.emitter.mu.Lock()
	defer s.emitter.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	subs := s.emitter.listeners[s.correlationID]
	for i, other := range subs {
		if other == s {
			s.emitter.listeners[s.correlationID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Emit publishes evt synchronously to every listener registered for
// evt.CorrelationID. A slow listener blocks the caller; hosts that need
// async delivery should hand off inside their own listener (spec §5).
func (e *Emitter) Emit(evt Event) {
	e.mu.Lock()
	subs := append([]*subscription(nil), e.listeners[evt.CorrelationID]...)
	e.mu.Unlock()
	for _, sub := range subs {
		sub.listener(evt)
	}
}

// RequestedThenStarted emits REQUESTED immediately followed by STARTED for
// one invocation, preserving the ordering guarantee that at least one
// REQUESTED precedes any STARTED for the same invocation.
func (e *Emitter) RequestedThenStarted(kind Kind, name, correlationID string, timestamp int64, attrs map[string]string) {
	e.Emit(Event{Type: Requested, Kind: kind, Name: name, CorrelationID: correlationID, Timestamp: timestamp, Attributes: attrs})
	e.Emit(Event{Type: Started, Kind: kind, Name: name, CorrelationID: correlationID, Timestamp: timestamp, Attributes: attrs})
}

// Terminal emits exactly one terminal event (SUCCEEDED or FAILED) for an
// invocation.
func (e *Emitter) Terminal(outcome EventType, kind Kind, name, correlationID string, timestamp int64, durationMs int64, attrs map[string]string) {
	d := durationMs
	e.Emit(Event{Type: outcome, Kind: kind, Name: name, CorrelationID: correlationID, Timestamp: timestamp, DurationMs: &d, Attributes: attrs})
}
