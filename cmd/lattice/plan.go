package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

var planCmd = &cobra.Command{
	Use:   "plan <graph-file>",
	Short: "Print the execution order of a graph",
	Long:  `Prints the parallel groups of a graph: every node in a group can run once all earlier groups are settled.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.Plan(args[0], asJSON, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().Bool("json", false, "Print the plan as JSON")
}
