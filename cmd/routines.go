package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gymtimer/internal/core/model"
	"gymtimer/internal/ui/view"
)

var routinesJSON bool

var routinesCmd = &cobra.Command{
	Use:   "routines",
	Short: "Manage saved routines",
}

var routinesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved routines",
	Args:  cobra.NoArgs,
	RunE:  runRoutinesList,
}

var routinesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved routine",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoutinesDelete,
}

func init() {
	routinesListCmd.Flags().BoolVar(&routinesJSON, "json", false, "print the stored JSON array")
	routinesCmd.AddCommand(routinesListCmd)
	routinesCmd.AddCommand(routinesDeleteCmd)
}

func runRoutinesList(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment("")
	if err != nil {
		return err
	}
	defer env.Close()
	kv, err := env.openKV(nil)
	if err != nil {
		return err
	}
	run := env.newSession(cmd.Context(), kv, env.settings.Workout)
	defer run.Close()

	return printRoutines(cmd, run.keeper.Routines(), routinesJSON)
}

func runRoutinesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse routine id %q: %w", args[0], err)
	}

	env, err := loadEnvironment("")
	if err != nil {
		return err
	}
	defer env.Close()
	kv, err := env.openKV(nil)
	if err != nil {
		return err
	}
	run := env.newSession(cmd.Context(), kv, env.settings.Workout)
	defer run.Close()

	if err := run.keeper.DeleteRoutine(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted routine %d\n", id)
	return nil
}

func printRoutines(cmd *cobra.Command, routines []model.Routine, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		if routines == nil {
			routines = []model.Routine{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(routines)
	}
	if len(routines) == 0 {
		fmt.Fprintln(out, "No saved routines.")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tDETAILS\tSAVED")
	for _, routine := range routines {
		saved := time.UnixMilli(routine.ID).Local().Format("2006-01-02 15:04")
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", routine.ID, routine.Name, view.RoutineDetails(routine.Config), saved)
	}
	return writer.Flush()
}
