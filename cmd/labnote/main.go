package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "labnote",
		Short: "Lab notebook for numerical experiments",
		Long: `labnote saves experiment runs as self-describing directories.

Each run directory holds a human-readable params.txt, a serialized data
file that is the single source of truth, and one chart per page. Charts
can be regenerated from the data file at any time with 'labnote replot'.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newReplotCmd(),
		newShowCmd(),
		newRunsCmd(),
		newPruneCmd(),
		newConfigCmd(),
	)

	return rootCmd
}
