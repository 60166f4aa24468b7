// Package cli wires the run surface: one cobra command per stage plus the
// status server. Commands exit non-zero on any failed endpoint.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "schoolsync",
	Short:         "Incremental sync engine for the school data warehouse",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config/config.yaml", "path to the tunables file")
}

// Execute runs the CLI and exits 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
