package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gymtimer/internal/audio"
	"gymtimer/internal/core/model"
	"gymtimer/internal/core/timekeeper"
	"gymtimer/internal/logging"
	"gymtimer/internal/platform"
	"gymtimer/internal/storage"
	"gymtimer/internal/ui/preferences"
)

const (
	appName = "gymtimer"
	appID   = "com.gymtimer.app"
)

var (
	configPath    string
	logLevel      string
	storageDriver string
	storagePath   string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Interval timer for work/rest workouts",
	Long: `gymtimer walks you through PREP, WORK, REST and CYCLE REST phases with
audio cues and keeps your routines locally.

With no arguments it opens the desktop window and tray icon. Use
"gymtimer run" for the terminal timer.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "routine storage: file, sqlite, fyne, memory")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "routine storage location")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(routinesCmd)
}

// environment is what every command needs before it can build a TimeKeeper.
type environment struct {
	settingsPath string
	settings     preferences.Settings
	log          zerolog.Logger
	logCloser    io.Closer
}

// loadEnvironment reads settings, applies global flags and builds the logger.
// A non-empty logFile sends logs there instead of stderr.
func loadEnvironment(logFile string) (*environment, error) {
	path, err := resolveSettingsPath()
	if err != nil {
		return nil, err
	}

	settings, loadErr := storage.LoadSettings(path)
	var seedErr error
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		seedErr = storage.SaveSettings(path, settings)
	}
	applyGlobalFlags(&settings)

	log, closer, err := logging.New(logging.Config{Level: settings.LogLevel, File: logFile}, os.Stderr)
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		log.Warn().Err(loadErr).Str("path", path).Msg("settings unreadable; using defaults")
	}
	if seedErr != nil {
		log.Warn().Err(seedErr).Str("path", path).Msg("could not write default settings")
	}
	return &environment{settingsPath: path, settings: settings, log: log, logCloser: closer}, nil
}

func applyGlobalFlags(settings *preferences.Settings) {
	if value := strings.TrimSpace(logLevel); value != "" {
		settings.LogLevel = value
	}
	if value := strings.TrimSpace(storageDriver); value != "" {
		settings.StorageDriver = value
	}
	if value := strings.TrimSpace(storagePath); value != "" {
		settings.StoragePath = value
	}
}

func (env *environment) Close() {
	_ = env.logCloser.Close()
}

// openKV opens the routine store. prefsKV backs the "fyne" driver when the
// desktop app is running.
func (env *environment) openKV(prefsKV storage.KV) (storage.KV, error) {
	driver := strings.ToLower(strings.TrimSpace(env.settings.StorageDriver))
	if driver == "fyne" {
		if prefsKV != nil {
			return prefsKV, nil
		}
		env.log.Warn().Msg("fyne storage needs the desktop app; using file storage")
		driver = "file"
	}
	path := env.settings.StoragePath
	if path == "" {
		path = storage.DefaultStoragePath(env.settingsPath, driver)
	}
	kv, err := storage.Open(storage.Config{Driver: driver, Path: path}, env.log)
	if err != nil {
		return nil, fmt.Errorf("open routine storage: %w", err)
	}
	return kv, nil
}

// session owns a TimeKeeper and the collaborators it was built with.
type session struct {
	keeper   *timekeeper.TimeKeeper
	kv       storage.KV
	player   *audio.Player
	wakeLock timekeeper.WakeLock
}

func (env *environment) newSession(ctx context.Context, kv storage.KV, config model.Config) *session {
	player := audio.NewPlayer(audio.Config{Command: env.settings.AudioPlayer}, env.log)
	wakeLock := platform.NewWakeLock(appName, env.settings.WakeLock)
	logger := env.log

	keeper := timekeeper.New(config, timekeeper.Options{
		Sink:     player,
		WakeLock: wakeLock,
		Store:    storage.NewRoutineStore(kv, env.log),
		Logger:   &logger,
	})
	if err := keeper.LoadRoutines(ctx); err != nil {
		env.log.Warn().Err(err).Msg("saved routines unavailable")
	}
	return &session{keeper: keeper, kv: kv, player: player, wakeLock: wakeLock}
}

// watchSettings applies log level changes and, while idle, a new default workout.
func (env *environment) watchSettings(ctx context.Context, keeper *timekeeper.TimeKeeper) {
	previous := env.settings
	err := storage.WatchSettings(ctx, env.settingsPath, env.log, func(settings preferences.Settings) {
		applyGlobalFlags(&settings)
		if settings.LogLevel != previous.LogLevel {
			logging.SetLevel(settings.LogLevel)
			env.log.Info().Str("level", settings.LogLevel).Msg("log level changed")
		}
		if settings.Workout != previous.Workout {
			snapshot := keeper.Snapshot()
			if !snapshot.State.Active && snapshot.State.IsInitial(snapshot.Config) {
				if err := keeper.SetConfig(settings.Workout); err != nil {
					env.log.Debug().Err(err).Msg("default workout not applied")
				}
			}
		}
		previous = settings
	})
	if err != nil {
		env.log.Warn().Err(err).Msg("settings watcher stopped")
	}
}

func (run *session) Close() {
	run.keeper.Close()
	if closer, ok := run.wakeLock.(io.Closer); ok {
		_ = closer.Close()
	}
	_ = run.player.Close()
	_ = run.kv.Close()
}
