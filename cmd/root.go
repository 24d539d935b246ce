package cmd

import (
	"github.com/spf13/cobra"
)

const serviceName = "flowendpoint"

// Version is overridden at build time with -ldflags.
var Version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Flow endpoint - screen-flow data exchange server",
	Long: `flowendpoint answers the data exchange requests of the appointment and
travel screen flows and prefetches flight listings for travel requests.

Configuration is read from flow-config.yaml (optional) and the environment.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", DefaultConfigFile, "Path to the YAML config file")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
}
