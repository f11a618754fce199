package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <graph-file>",
	Short: "Export the graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the graph. With --run, node
statuses of a stored run are overlaid (requires a persistent store such as
LATTICE_REDIS_ADDR).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")
		return cli.Graph(cmd.Context(), cfg, args[0], runID, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Overlay the node statuses of this run id")
}
