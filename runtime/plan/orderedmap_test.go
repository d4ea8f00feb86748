package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedMapSetThenGet(t *testing.T) {
	m := NewOrderedMap()
	m.Set("to", "a@example.com")
	v, ok := m.Get("to")
	require.True(t, ok)
	require.Equal(t, "a@example.com", v)
}

func TestOrderedMapGetMissingReturnsFalse(t *testing.T) {
	m := NewOrderedMap()
	_, ok := m.Get("missing")
	require.False(t, ok)
}

func TestOrderedMapKeysPreserveInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("subject", "hi")
	m.Set("to", "a@example.com")
	m.Set("subject", "updated")
	require.Equal(t, []string{"subject", "to"}, m.Keys())
	v, _ := m.Get("subject")
	require.Equal(t, "updated", v)
}

func TestOrderedMapLen(t *testing.T) {
	m := NewOrderedMap()
	require.Equal(t, 0, m.Len())
	m.Set("a", 1)
	m.Set("b", 2)
	require.Equal(t, 2, m.Len())
}

func TestOrderedMapCloneIsIndependent(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", 1)
	cp := m.Clone()
	cp.Set("b", 2)
	require.Equal(t, []string{"a"}, m.Keys())
	require.Equal(t, []string{"a", "b"}, cp.Keys())
}

func TestOrderedMapNilReceiverIsSafe(t *testing.T) {
	var m *OrderedMap
	require.Equal(t, 0, m.Len())
	require.Nil(t, m.Keys())
	require.Nil(t, m.Clone())
	require.Nil(t, m.ToMap())
	_, ok := m.Get("a")
	require.False(t, ok)
}

func TestOrderedMapToMapSnapshot(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", 1)
	m.Set("b", 2)
	require.Equal(t, map[string]any{"a": 1, "b": 2}, m.ToMap())
}
