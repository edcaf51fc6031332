package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"gymtimer/internal/core/model"
	"gymtimer/internal/core/timekeeper"
	"gymtimer/internal/storage"
	"gymtimer/internal/ui/terminal"
)

var (
	runRoutine      string
	runLogFile      string
	runAutostart    bool
	runExitWhenDone bool
)

// configFlags maps run flags to the config fields they edit.
var configFlags = []struct {
	name  string
	field model.Field
	usage string
}{
	{"work", model.FieldWork, "work phase length in seconds"},
	{"rest", model.FieldRest, "rest phase length in seconds"},
	{"rounds", model.FieldRounds, "work/rest rounds per cycle"},
	{"cycles", model.FieldCycles, "number of cycles"},
	{"cycle-rest", model.FieldCycleRest, "rest between cycles in seconds"},
	{"prepare", model.FieldPrepare, "countdown before the first round in seconds"},
	{"volume", model.FieldVolume, "cue volume from 0 to 1"},
	{"name", model.FieldName, "workout name"},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workout in the terminal",
	Long: `Run a workout in the terminal.

The workout starts from the default in settings.yaml, then the saved routine
given by --routine, then any config flags. Keys: space start/pause, r reset,
q quit.`,
	Args: cobra.NoArgs,
	RunE: runTerminal,
}

func init() {
	for _, flag := range configFlags {
		runCmd.Flags().String(flag.name, "", flag.usage)
	}
	runCmd.Flags().StringVar(&runRoutine, "routine", "", "saved routine to load, by id or name")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "log file (default: gymtimer.log next to settings)")
	runCmd.Flags().BoolVar(&runAutostart, "start", true, "start the workout immediately")
	runCmd.Flags().BoolVar(&runExitWhenDone, "exit-when-done", false, "quit once the workout completes")
}

func runTerminal(cmd *cobra.Command, args []string) error {
	logFile := runLogFile
	if logFile == "" {
		settingsPath, err := resolveSettingsPath()
		if err != nil {
			return err
		}
		logFile = filepath.Join(filepath.Dir(settingsPath), appName+".log")
	}

	env, err := loadEnvironment(logFile)
	if err != nil {
		return err
	}
	defer env.Close()

	kv, err := env.openKV(nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	run := env.newSession(ctx, kv, env.settings.Workout)
	defer run.Close()
	keeper := run.keeper

	if runRoutine != "" {
		routine, err := findRoutine(keeper.Routines(), runRoutine)
		if err != nil {
			return err
		}
		if err := keeper.LoadRoutine(routine.ID); err != nil {
			return fmt.Errorf("load routine %d: %w", routine.ID, err)
		}
	}
	if err := applyConfigFlags(cmd, keeper); err != nil {
		return err
	}

	go env.watchSettings(ctx, keeper)

	events := keeper.Subscribe(16)
	if runAutostart {
		keeper.Start()
	}

	ui := terminal.New(keeper, events)
	ui.ExitWhenDone = runExitWhenDone
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}

	snapshot := keeper.Snapshot()
	env.log.Info().
		Str("phase", string(snapshot.State.Phase)).
		Int("round", snapshot.State.Round).
		Int("cycle", snapshot.State.Cycle).
		Msg("terminal session ended")
	return nil
}

// configEditor is the part of the TimeKeeper run flags edit.
type configEditor interface {
	UpdateConfig(field model.Field, raw string) error
}

func applyConfigFlags(cmd *cobra.Command, editor configEditor) error {
	for _, flag := range configFlags {
		if !cmd.Flags().Changed(flag.name) {
			continue
		}
		value, err := cmd.Flags().GetString(flag.name)
		if err != nil {
			return err
		}
		if err := editor.UpdateConfig(flag.field, value); err != nil {
			return fmt.Errorf("--%s: %w", flag.name, err)
		}
	}
	return nil
}

// findRoutine resolves ref as a routine id, then as a case-insensitive name.
// The most recently saved routine wins when names repeat.
func findRoutine(routines []model.Routine, ref string) (model.Routine, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, routine := range routines {
			if routine.ID == id {
				return routine, nil
			}
		}
	}
	for i := len(routines) - 1; i >= 0; i-- {
		if strings.EqualFold(routines[i].Name, ref) {
			return routines[i], nil
		}
	}
	return model.Routine{}, fmt.Errorf("routine %q: %w", ref, timekeeper.ErrRoutineNotFound)
}

func resolveSettingsPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return storage.SettingsPath(appName)
}
