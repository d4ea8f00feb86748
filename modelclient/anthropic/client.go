// Package anthropic provides a conversation.ModelClient backed by the
// Anthropic Claude Messages API. It issues one non-streaming completion per
// turn and returns the concatenated text of the response (spec §5: "one
// call per turn, no retries inside the system").
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesClient captures the subset of the Anthropic SDK client this
// adapter uses, satisfied by *sdk.MessageService so callers can pass either
// a real client or a test double.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the Anthropic-backed model client.
type Options struct {
	// Model is the Claude model identifier to use for every completion.
	Model string
	// MaxTokens caps the completion length. Defaults to 4096.
	MaxTokens int
	// Temperature is passed through when greater than zero.
	Temperature float64
}

// Client implements conversation.ModelClient on top of Anthropic Claude
// Messages.
type Client struct {
	msg    MessagesClient
	model  string
	maxTok int
	temp   float64
}

// New builds a Client from an Anthropic Messages client and options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{msg: msg, model: opts.Model, maxTok: maxTokens, temp: opts.Temperature}, nil
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP
// client, reading connection defaults from the environment.
func NewFromAPIKey(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, Options{Model: model})
}

// Complete implements conversation.ModelClient. systemMessages become
// Claude system blocks; userMessage is sent as the sole user turn, since
// the conversation package threads all prior history through
// userMessage/retry addenda rather than a multi-turn message list (spec
// §4.6: the model is given the full planning context in one message).
func (c *Client) Complete(ctx context.Context, systemMessages []string, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", errors.New("anthropic: user message is required")
	}
	params := sdk.MessageNewParams{
		MaxTokens: int64(c.maxTok),
		Model:     sdk.Model(c.model),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(userMessage))},
	}
	for _, s := range systemMessages {
		if strings.TrimSpace(s) == "" {
			continue
		}
		params.System = append(params.System, sdk.TextBlockParam{Text: s})
	}
	if c.temp > 0 {
		params.Temperature = sdk.Float(c.temp)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	return extractText(msg), nil
}

func extractText(msg *sdk.Message) string {
	if msg == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
