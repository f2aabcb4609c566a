package cmd

import (
	"fmt"
	"os"

	"podcastr/config"
	"podcastr/logger"
	"podcastr/server"

	"github.com/spf13/cobra"
)

// cfg 在 PersistentPreRunE 中加载，所有子命令共用
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "podcastr",
	Short: "Podcastr is a podcast listening web front end.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		logger.InitLogger(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogFile,
			Compress:   true,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("Starting Podcastr server...")
		return server.Start(cfg)
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
