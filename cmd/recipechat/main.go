// Command recipechat runs the recipe chat backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "recipechat",
		Short: "Recipe chatbot backend",
		Long: `recipechat serves a conversational recipe assistant over HTTP.

Each chat turn sends the full conversation to the configured completion provider and
stores the updated conversation under the caller's user id.

Configuration is read from an optional YAML file and RECIPECHAT_* environment variables.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newHistoryCmd(&configPath),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
