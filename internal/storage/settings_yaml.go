package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gymtimer/internal/ui/preferences"
)

const (
	settingsFileName = "settings.yaml"
	routinesFileName = "routines.json"
	routinesDBName   = "routines.db"
)

type yamlWorkout struct {
	Work      *int     `yaml:"work,omitempty"`
	Rest      *int     `yaml:"rest,omitempty"`
	Rounds    *int     `yaml:"rounds,omitempty"`
	Cycles    *int     `yaml:"cycles,omitempty"`
	CycleRest *int     `yaml:"cycle_rest,omitempty"`
	Prepare   *int     `yaml:"prepare,omitempty"`
	Volume    *float64 `yaml:"volume,omitempty"`
	Name      string   `yaml:"name,omitempty"`
}

type yamlStorage struct {
	Driver string `yaml:"driver,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

type yamlSettings struct {
	Workout     yamlWorkout `yaml:"workout"`
	LogLevel    string      `yaml:"log_level,omitempty"`
	Storage     yamlStorage `yaml:"storage"`
	AudioPlayer string      `yaml:"audio_player,omitempty"`
	WakeLock    *bool       `yaml:"wake_lock,omitempty"`
}

// SettingsPath returns the default settings file location for appName.
func SettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// DefaultStoragePath returns where driver keeps routines next to the settings file.
func DefaultStoragePath(settingsPath, driver string) string {
	name := routinesFileName
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(driver)), "sqlite") {
		name = routinesDBName
	}
	return filepath.Join(filepath.Dir(settingsPath), name)
}

// LoadSettings reads user preferences from YAML.
// If the file does not exist, default settings are returned.
func LoadSettings(path string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(path string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	workout := settings.Workout
	wakeLock := settings.WakeLock
	fileData := yamlSettings{
		Workout: yamlWorkout{
			Work:      &workout.Work,
			Rest:      &workout.Rest,
			Rounds:    &workout.Rounds,
			Cycles:    &workout.Cycles,
			CycleRest: &workout.CycleRest,
			Prepare:   &workout.Prepare,
			Volume:    &workout.Volume,
			Name:      workout.Name,
		},
		LogLevel: settings.LogLevel,
		Storage: yamlStorage{
			Driver: settings.StorageDriver,
			Path:   settings.StoragePath,
		},
		AudioPlayer: settings.AudioPlayer,
		WakeLock:    &wakeLock,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	workout := &settings.Workout
	if value := fileData.Workout.Work; value != nil && *value > 0 {
		workout.Work = *value
	}
	if value := fileData.Workout.Rest; value != nil && *value >= 0 {
		workout.Rest = *value
	}
	if value := fileData.Workout.Rounds; value != nil && *value >= 1 {
		workout.Rounds = *value
	}
	if value := fileData.Workout.Cycles; value != nil && *value >= 1 {
		workout.Cycles = *value
	}
	if value := fileData.Workout.CycleRest; value != nil && *value >= 0 {
		workout.CycleRest = *value
	}
	if value := fileData.Workout.Prepare; value != nil && *value >= 0 {
		workout.Prepare = *value
	}
	if value := fileData.Workout.Volume; value != nil && *value >= 0 && *value <= 1 {
		workout.Volume = *value
	}
	if name := strings.TrimSpace(fileData.Workout.Name); name != "" {
		workout.Name = name
	}

	if level := strings.TrimSpace(fileData.LogLevel); level != "" {
		settings.LogLevel = level
	}
	if driver := strings.TrimSpace(fileData.Storage.Driver); driver != "" {
		settings.StorageDriver = driver
	}
	settings.StoragePath = strings.TrimSpace(fileData.Storage.Path)
	settings.AudioPlayer = strings.TrimSpace(fileData.AudioPlayer)
	if fileData.WakeLock != nil {
		settings.WakeLock = *fileData.WakeLock
	}
}
