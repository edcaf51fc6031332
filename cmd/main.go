package main

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"

	"gymtimer/internal/platform"
	"gymtimer/internal/storage"
	"gymtimer/internal/ui/preferences"
	"gymtimer/internal/ui/timerview"
	"gymtimer/internal/ui/tray"
	"gymtimer/resources"
)

func main() {
	Execute()
}

func runGUI(ctx context.Context) error {
	env, err := loadEnvironment("")
	if err != nil {
		return err
	}
	defer env.Close()

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			env.log.Info().Msg("already running; raising existing window")
			return platform.ShowRunningInstance(appName)
		}
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.MustIcon(resources.AppIcon))

	kv, err := env.openKV(preferences.NewKV(fyneApp.Preferences()))
	if err != nil {
		return err
	}
	run := env.newSession(ctx, kv, env.settings.Workout)
	defer run.Close()
	keeper := run.keeper

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go env.watchSettings(ctx, keeper)

	timerWindow := timerview.New(fyneApp, "gymtimer", keeper, env.log)
	prefsWindow := preferences.New(fyneApp, env.settings, func(updated preferences.Settings) {
		if err := storage.SaveSettings(env.settingsPath, updated); err != nil {
			env.log.Error().Err(err).Msg("save settings failed")
		}
	})

	go guard.Serve(env.log, func() {
		fyne.Do(timerWindow.Show)
	})

	fyneApp.Lifecycle().SetOnEnteredForeground(keeper.VisibilityRegained)

	var trayManager *tray.Manager
	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager = tray.New(desktopApp, tray.Icons{
			Active: resources.MustIcon(resources.ActiveIcon),
			Idle:   resources.MustIcon(resources.AppIcon),
		}, tray.Callbacks{
			OnShow:        timerWindow.Show,
			OnPreferences: prefsWindow.Show,
			OnToggle:      keeper.Toggle,
			OnReset:       keeper.Reset,
			OnQuit:        fyneApp.Quit,
		})
		timerWindow.Window().SetCloseIntercept(timerWindow.Window().Hide)
	} else {
		env.log.Info().Msg("system tray unsupported on this platform")
		timerWindow.Window().SetMaster()
	}

	go timerWindow.Watch(keeper.Subscribe(16))
	if trayManager != nil {
		trayEvents := keeper.Subscribe(16)
		go func() {
			for event := range trayEvents {
				snapshot := event.Snapshot
				fyne.Do(func() {
					trayManager.Update(snapshot.Config, snapshot.State)
				})
			}
		}()
	}

	env.log.Info().Str("settings", env.settingsPath).Msg("gymtimer started")
	timerWindow.Show()
	fyneApp.Run()
	return nil
}
