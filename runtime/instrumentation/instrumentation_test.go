package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitDeliversOnlyToMatchingCorrelationID(t *testing.T) {
	e := New()
	var gotA, gotB []Event
	e.Of("corr-a", func(ev Event) { gotA = append(gotA, ev) })
	e.Of("corr-b", func(ev Event) { gotB = append(gotB, ev) })

	e.Emit(Event{Type: Requested, CorrelationID: "corr-a"})

	require.Len(t, gotA, 1)
	require.Empty(t, gotB)
}

func TestRequestedThenStartedOrdering(t *testing.T) {
	e := New()
	var types []EventType
	e.Of("corr", func(ev Event) { types = append(types, ev.Type) })

	e.RequestedThenStarted(KindAction, "send_email", "corr", 100, nil)

	require.Equal(t, []EventType{Requested, Started}, types)
}

func TestTerminalSetsDuration(t *testing.T) {
	e := New()
	var got Event
	e.Of("corr", func(ev Event) { got = ev })

	e.Terminal(Succeeded, KindAction, "send_email", "corr", 200, 42, nil)

	require.Equal(t, Succeeded, got.Type)
	require.NotNil(t, got.DurationMs)
	require.Equal(t, int64(42), *got.DurationMs)
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	e := New()
	var count int
	sub := e.Of("corr", func(Event) { count++ })

	e.Emit(Event{CorrelationID: "corr"})
	sub.Close()
	e.Emit(Event{CorrelationID: "corr"})

	require.Equal(t, 1, count)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	e := New()
	sub := e.Of("corr", func(Event) {})
	sub.Close()
	require.NotPanics(t, func() { sub.Close() })
}

func TestMultipleListenersOnSameCorrelationIDAllReceive(t *testing.T) {
	e := New()
	var a, b int
	e.Of("corr", func(Event) { a++ })
	e.Of("corr", func(Event) { b++ })

	e.Emit(Event{CorrelationID: "corr"})

	require.Equal(t, 1, a)
	require.Equal(t, 1, b)
}

func TestEmitWithNoListenersDoesNotPanic(t *testing.T) {
	e := New()
	require.NotPanics(t, func() { e.Emit(Event{CorrelationID: "nobody-listening"}) })
}
