package view

import (
	"fmt"
	"math"

	"gymtimer/internal/core/model"
)

var fieldLabels = map[model.Field]string{
	model.FieldWork:      "Work (sec)",
	model.FieldRest:      "Rest (sec)",
	model.FieldRounds:    "Rounds",
	model.FieldCycles:    "Cycles",
	model.FieldCycleRest: "Cycle Rest (s)",
	model.FieldPrepare:   "Prepare (s)",
	model.FieldName:      "Routine Name",
}

// FieldLabel returns the settings form caption for field.
func FieldLabel(field model.Field) string {
	if field == model.FieldVolume {
		return "Volume"
	}
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return string(field)
}

// VolumeLabel shows volume as a whole percentage.
func VolumeLabel(volume float64) string {
	return fmt.Sprintf("Volume (%d%%)", percent(volume))
}

// RoutineDetails summarizes a saved routine under its name.
func RoutineDetails(config model.Config) string {
	return fmt.Sprintf("%d x %d/%ds • Vol %d%%", config.Rounds, config.Work, config.Rest, percent(config.Volume))
}

func percent(volume float64) int {
	return int(math.Round(volume * 100))
}
