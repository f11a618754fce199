package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Exposes the engine over HTTP: synchronous and asynchronous runs,
cancellation, server-sent run events, planning and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Serve(cmd.Context(), cfg, serveOptions(cmd))
	},
}

func serveOptions(cmd *cobra.Command) cli.ServeOptions {
	opts := cli.ServeOptions{Out: cmd.OutOrStdout()}
	opts.Addr, _ = cmd.Flags().GetString("addr")
	opts.GraphDir, _ = cmd.Flags().GetString("dir")
	opts.Parallelism, _ = cmd.Flags().GetInt("parallel")
	opts.NodeTimeout, _ = cmd.Flags().GetDuration("node-timeout")
	return opts
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().String("dir", "", "Directory of graph files addressable by id")
	cmd.Flags().IntP("parallel", "p", 0, "Maximum nodes executed concurrently per run (0 means unbounded)")
	cmd.Flags().Duration("node-timeout", 0, "Default timeout for nodes that do not set one")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}
