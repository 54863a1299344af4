package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const envFileFlag = "env-file"

// NewRootCmd creates the root command for the harvester.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Incremental research report harvester",
		Long: `harvester crawls a paginated research-report listing, downloads every new
report, relays it to the configured FTP endpoint and records its metadata in the
configured sinks. Processed record ids are persisted so re-runs only handle new
reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String(envFileFlag, "", "env file loaded before environment variables (default configs/.env)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewWatchCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		os.Exit(1)
	}
}
