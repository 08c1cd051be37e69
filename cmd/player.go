package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattislub/Timed-Audio-Queue/config"
	"github.com/mattislub/Timed-Audio-Queue/core/audio"
	"github.com/mattislub/Timed-Audio-Queue/core/engine"
	"github.com/mattislub/Timed-Audio-Queue/core/feed"
	"github.com/mattislub/Timed-Audio-Queue/logger"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Run the headless playback agent",
	Long: `Polls the recordings API and replays every clip according to the repeat
slot configuration, one clip at a time, through ffplay. Reads the slot
settings from a local JSON file and re-applies them on change.`,
	Run: func(cmd *cobra.Command, args []string) {
		runPlayer(loadConfig())
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
}

func runPlayer(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := feed.NewClient(cfg.ServerURL)
	if cfg.PlayerUsername != "" {
		if err := client.Login(ctx, cfg.PlayerUsername, cfg.PlayerPassword); err != nil {
			logger.Fatal("player login failed", logger.ErrorField(err))
		}
		logger.Info("player logged in", logger.String("username", cfg.PlayerUsername))
	}

	eng := engine.New(engine.Config{
		Player: audio.NewFFplayPlayer(cfg.FFplayPath),
		TTL:    cfg.RecordingTTL,
	})
	eng.Start()
	defer eng.Close()

	poller := feed.NewPoller(client, eng, cfg.PollInterval)
	watcher := feed.NewConfigWatcher(cfg.RepeatConfigPath, eng)
	listener := feed.NewChangeListener(cfg.ServerURL, poller)

	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("config watcher stopped", logger.ErrorField(err))
		}
	}()
	go listener.Run(ctx)
	go reportFailedEntries(ctx, eng)

	logger.Info("playback agent started",
		logger.String("server", cfg.ServerURL),
		logger.Duration("pollInterval", cfg.PollInterval))
	poller.Run(ctx)
	logger.Info("playback agent stopped")
}

// reportFailedEntries surfaces entries stuck in the error state so an
// operator can retry them through the engine API.
func reportFailedEntries(ctx context.Context, eng *engine.Engine) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, entry := range eng.Entries() {
				if entry.Status == engine.StatusError {
					logger.Warn("playback entry failed",
						logger.String("entryId", entry.ID),
						logger.String("recordingId", entry.RecordingID),
						logger.Int("slot", entry.SlotNumber),
						logger.String("error", entry.ErrorMessage))
				}
			}
		}
	}
}
