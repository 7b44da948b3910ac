package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	jsonLogs   bool
)

// RootCmd is the pairhub command.
var RootCmd = &cobra.Command{
	Use:   "pairhub",
	Short: "Device pair and conversation summary service",
	Long: `pairhub keeps a stable identity for every pair of devices, stages
submitted conversations in memory and stores their rolling summaries.`,
	SilenceUsage: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (environment variables still win)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(workerCmd)
	RootCmd.AddCommand(migrateCmd)
	RootCmd.AddCommand(pairsCmd)
}
