package main

import (
	"os"

	"github.com/go-kratos/aikit"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "aikit",
	Short:         "Context-scoped capabilities for LLM conversations",
	Long:          `aikit talks to a model with only the Sola capability groups a conversation needs.`,
	Version:       aikit.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.AddCommand(chatCmd, manifestCmd, groupsCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		newLogger("info", "console").Error().Err(err).Msg("aikit failed")
		os.Exit(1)
	}
}
