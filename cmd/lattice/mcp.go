package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP Server, exposing run_graph, plan_graph,
cancel_run and get_run as tools and graphs and runs as resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := serveOptions(cmd)
		opts.Transport, _ = cmd.Flags().GetString("transport")
		return cli.ServeMCP(cmd.Context(), cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addServeFlags(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
}
