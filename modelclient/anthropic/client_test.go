package anthropic

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"
)

type stubMessages struct {
	resp *sdk.Message
	err  error
	seen sdk.MessageNewParams
}

func (s *stubMessages) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.seen = body
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func textMessage(text string) *sdk.Message {
	return &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: text}},
	}
}

func TestCompleteReturnsConcatenatedText(t *testing.T) {
	stub := &stubMessages{resp: textMessage("here is the plan")}
	c, err := New(stub, Options{Model: "claude-test"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), []string{"be terse"}, "book a flight")
	require.NoError(t, err)
	require.Equal(t, "here is the plan", out)
	require.Len(t, stub.seen.System, 1)
	require.Equal(t, "be terse", stub.seen.System[0].Text)
}

func TestCompleteRejectsBlankUserMessage(t *testing.T) {
	stub := &stubMessages{resp: textMessage("x")}
	c, err := New(stub, Options{Model: "claude-test"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), nil, "   ")
	require.Error(t, err)
}

func TestCompleteWrapsUnderlyingError(t *testing.T) {
	stub := &stubMessages{err: errors.New("boom")}
	c, err := New(stub, Options{Model: "claude-test"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), nil, "hi")
	require.Error(t, err)
}

func TestNewRequiresClientAndModel(t *testing.T) {
	_, err := New(nil, Options{Model: "x"})
	require.Error(t, err)

	_, err = New(&stubMessages{}, Options{})
	require.Error(t, err)
}
