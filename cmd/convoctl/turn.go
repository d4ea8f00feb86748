package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"goa.design/convo/conversation"
	anthropicmodel "goa.design/convo/modelclient/anthropic"
	"goa.design/convo/telemetry"
)

// echoModel is a conversation.ModelClient that fabricates a trivial
// zero-step plan acknowledging the user's message. It stands in for a real
// model when ANTHROPIC_API_KEY is unset, so `turn` stays usable as an
// offline wiring smoke test.
type echoModel struct{}

func (echoModel) Complete(_ context.Context, _ []string, userMessage string) (string, error) {
	out, err := json.Marshal(map[string]any{
		"message": "acknowledged: " + userMessage,
		"steps":   []any{},
	})
	return string(out), err
}

func newTurnCmd() *cobra.Command {
	var statePath string
	var model string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "turn <message>",
		Short: "drive one conversational turn against the demo catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var client conversation.ModelClient = echoModel{}
			if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
				c, err := anthropicmodel.NewFromAPIKey(apiKey, model)
				if err != nil {
					return fmt.Errorf("build anthropic client: %w", err)
				}
				client = c
			}

			opts := []conversation.Option{
				conversation.WithBlobMode(nil),
				conversation.WithMetrics(telemetry.NewOTelMetrics()),
				conversation.WithTracer(telemetry.NewOTelTracer()),
			}
			if verbose {
				zl := zerolog.New(cmd.OutOrStderr()).With().Timestamp().Logger()
				opts = append(opts, conversation.WithLogger(telemetry.NewZerologLogger(zl)))
			}
			mgr := conversation.NewManager(demoCatalog(), client, opts...)

			var priorBlob []byte
			if statePath != "" {
				if data, err := os.ReadFile(statePath); err == nil {
					priorBlob = data
				}
			}

			result, err := mgr.ConverseBlob(cmd.Context(), args[0], priorBlob)
			if err != nil {
				return fmt.Errorf("turn: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Plan.AssistantMessage)
			fmt.Fprintln(cmd.OutOrStdout(), "status:", result.Plan.Status())
			if len(result.PendingParams) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "pending:", result.PendingParams)
			}

			if statePath != "" {
				if err := os.WriteFile(statePath, result.Blob, 0o600); err != nil {
					return fmt.Errorf("write state: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "path to a state blob file to load and update")
	cmd.Flags().StringVar(&model, "model", "claude-sonnet-4-5", "Anthropic model id, used when ANTHROPIC_API_KEY is set")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log turn lifecycle events to stderr")
	return cmd
}
