// Package commands implements the finbot CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finbot",
		Short: "Fin - personal assistant backend for WhatsApp",
		Long: `Fin is a WhatsApp personal assistant that manages your Google
Calendar, tracks habits, and checks in through the day.

Examples:
  finbot serve
  finbot setup
  finbot cron run --hour 0`,
		Version: version,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSetupCmd(),
		newCronCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
