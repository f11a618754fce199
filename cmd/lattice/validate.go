package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph-file>",
	Short: "Check a graph for consistency",
	Long:  `Reports dangling edges, duplicate ids, cycles and node types without an executor.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.Validate(cfg, args[0]); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
