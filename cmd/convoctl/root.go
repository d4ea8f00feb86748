// Command convoctl is an operator CLI for the conversation engine: it can
// print the built-in demo action catalog, replay a persisted state blob for
// debugging, and drive one smoke-test conversational turn.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "convoctl",
		Short:         "Operator CLI for the conversation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newTurnCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "convoctl:", err)
		os.Exit(1)
	}
}
