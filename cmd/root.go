package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattislub/Timed-Audio-Queue/config"
	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/server"
)

var rootCmd = &cobra.Command{
	Use:   "timed-audio-queue",
	Short: "Timed Audio Queue records short clips and replays each one six times on a schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(loadConfig())
	},
}

// loadConfig loads configuration and initializes the global logger; every
// subcommand goes through it.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxMB,
		MaxAge:     cfg.LogMaxAge,
		Compress:   true,
	})
	return cfg
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
