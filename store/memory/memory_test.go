package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/convo/conversation"
)

func TestStoreLoadMissingReturnsNil(t *testing.T) {
	s := New()
	state, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, state)
}

func TestStoreSaveThenLoadRoundTrips(t *testing.T) {
	s := New()
	in := conversation.Initial("book a flight")
	in.ProvidedParams["destination"] = "LAX"

	require.NoError(t, s.Save(context.Background(), "sess-1", in))

	out, err := s.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, in.OriginalInstruction, out.OriginalInstruction)
	require.Equal(t, in.ProvidedParams, out.ProvidedParams)
}

func TestStoreSaveClonesSoCallerMutationIsNotObserved(t *testing.T) {
	s := New()
	in := conversation.Initial("book a flight")
	in.ProvidedParams["destination"] = "LAX"
	require.NoError(t, s.Save(context.Background(), "sess-1", in))

	in.ProvidedParams["destination"] = "SFO"

	out, err := s.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, "LAX", out.ProvidedParams["destination"])
}

func TestStoreLoadClonesSoCallerMutationIsNotObserved(t *testing.T) {
	s := New()
	in := conversation.Initial("book a flight")
	in.ProvidedParams["destination"] = "LAX"
	require.NoError(t, s.Save(context.Background(), "sess-1", in))

	out, err := s.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	out.ProvidedParams["destination"] = "SFO"

	out2, err := s.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, "LAX", out2.ProvidedParams["destination"])
}
