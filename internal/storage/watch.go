package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"gymtimer/internal/ui/preferences"
)

const settingsDebounce = 250 * time.Millisecond

// WatchSettings reloads the settings file whenever it changes and passes
// the result to onChange. It blocks until ctx is done.
func WatchSettings(ctx context.Context, path string, log zerolog.Logger, onChange func(preferences.Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	reload := func() {
		settings, err := LoadSettings(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("settings reload failed; keeping previous")
			return
		}
		log.Info().Str("path", path).Msg("settings reloaded")
		onChange(settings)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Msg("settings change detected; scheduling reload")
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(settingsDebounce, func() {
				if ctx.Err() == nil {
					reload()
				}
			})
			timerMu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
