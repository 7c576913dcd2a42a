package cmd

import (
	"github.com/spf13/cobra"

	"audio-diary/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(reindex(config))
	return rootCmd
}
