package preferences

import (
	"gymtimer/internal/core/model"
)

// Settings defines user preferences persisted in settings.yaml.
type Settings struct {
	Workout model.Config

	LogLevel      string
	StorageDriver string
	StoragePath   string
	AudioPlayer   string
	WakeLock      bool
}

// DefaultSettings returns default settings for gymtimer.
func DefaultSettings() Settings {
	return Settings{
		Workout:       model.DefaultConfig(),
		LogLevel:      "info",
		StorageDriver: "file",
		WakeLock:      true,
	}
}
