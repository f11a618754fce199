package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/cli"
)

// cfg is loaded once before any subcommand runs.
var cfg cli.Config

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice executes workflow graphs",
	Long: `Lattice runs directed acyclic graphs of input, transform, condition,
capability and output nodes, in dependency order and in parallel where the
graph allows it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var err error
		cfg, err = cli.LoadConfig(envFile)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrRunNotSucceeded) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file to load before reading LATTICE_* variables")
}
