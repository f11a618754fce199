package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run <graph-file>",
	Short: "Execute a graph file",
	Long: `Loads a YAML or JSON graph, executes it and prints a per-node report.
Initial variables come from --vars (a JSON object) and repeated --var key=value
flags. The command exits non-zero when the run fails or is cancelled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{GraphPath: args[0], Out: cmd.OutOrStdout()}
		opts.Vars, _ = cmd.Flags().GetStringArray("var")
		opts.VarsJSON, _ = cmd.Flags().GetString("vars")
		opts.Parallelism, _ = cmd.Flags().GetInt("parallel")
		opts.Timeout, _ = cmd.Flags().GetDuration("timeout")
		opts.NodeTimeout, _ = cmd.Flags().GetDuration("node-timeout")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")

		_, err := cli.Run(cmd.Context(), cfg, opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArray("var", nil, "Initial variable as key=value (repeatable)")
	runCmd.Flags().String("vars", "", "Initial variables as a JSON object")
	runCmd.Flags().IntP("parallel", "p", 0, "Maximum nodes executed concurrently (0 means unbounded)")
	runCmd.Flags().Duration("timeout", 0, "Cancel the run after this duration")
	runCmd.Flags().Duration("node-timeout", 0, "Default timeout for nodes that do not set one")
	runCmd.Flags().Bool("json", false, "Print the run record as JSON")
	runCmd.Flags().Bool("plain", false, "Print the report as plain markdown")
}
