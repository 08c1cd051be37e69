package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mattislub/Timed-Audio-Queue/core/engine"
	"github.com/mattislub/Timed-Audio-Queue/logger"
)

// ConfigWatcher keeps the engine's repeat configuration in sync with a
// JSON file on disk. The file holds an array of slot settings; a missing
// or unreadable file leaves the engine on its defaults.
type ConfigWatcher struct {
	path   string
	engine *engine.Engine
}

// NewConfigWatcher creates a watcher over the given file path.
func NewConfigWatcher(path string, eng *engine.Engine) *ConfigWatcher {
	return &ConfigWatcher{path: path, engine: eng}
}

// Run loads the file once, then applies it again on every change until
// ctx is cancelled. The parent directory is watched rather than the file
// itself, since editors replace files on save.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	if err := w.load(); err != nil {
		logger.Warn("initial repeat config load failed, using defaults",
			logger.String("path", w.path), logger.ErrorField(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target, err := filepath.Abs(w.path)
	if err != nil {
		target = w.path
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				name = event.Name
			}
			if name != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.load(); err != nil {
				logger.Warn("repeat config reload failed",
					logger.String("path", w.path), logger.ErrorField(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", logger.ErrorField(err))
		}
	}
}

func (w *ConfigWatcher) load() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read repeat config: %w", err)
	}
	var settings []engine.SlotSetting
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse repeat config: %w", err)
	}
	w.engine.SetRepeatConfig(settings)
	logger.Info("repeat config applied", logger.String("path", w.path), logger.Int("slots", len(settings)))
	return nil
}
