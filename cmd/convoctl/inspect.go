package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"goa.design/convo/runtime/blobstore"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <blob-file>",
		Short: "pretty-print a persisted state blob without verifying its integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read blob: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(blobstore.ReadableJSON(blob)))
			return nil
		},
	}
}
