// Command arthik fetches Indian financial news from prose and feed providers,
// classifies it, and serves or publishes the results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "arthik",
		Short:         "Financial news harvester for Indian markets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml, json or toml)")

	root.AddCommand(
		newServeCmd(&configFile),
		newFetchCmd(&configFile),
		newStatusCmd(&configFile),
		newConfigureCmd(&configFile),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arthik %s (%s)\n", version, commit)
		},
	}
}
