package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField indicates an edit for a field Config does not have.
var ErrUnknownField = errors.New("unknown config field")

// Field names an editable Config value.
type Field string

const (
	FieldWork      Field = "work"
	FieldRest      Field = "rest"
	FieldRounds    Field = "rounds"
	FieldCycles    Field = "cycles"
	FieldCycleRest Field = "cycleRest"
	FieldPrepare   Field = "prepare"
	FieldVolume    Field = "volume"
	FieldName      Field = "name"
)

// Fields lists editable fields in form order.
var Fields = []Field{FieldWork, FieldRest, FieldRounds, FieldCycles, FieldCycleRest, FieldPrepare, FieldVolume, FieldName}

// Config describes a workout. Durations are whole seconds.
type Config struct {
	Work      int     `json:"work" yaml:"work"`
	Rest      int     `json:"rest" yaml:"rest"`
	Rounds    int     `json:"rounds" yaml:"rounds"`
	Cycles    int     `json:"cycles" yaml:"cycles"`
	CycleRest int     `json:"cycleRest" yaml:"cycle_rest"`
	Prepare   int     `json:"prepare" yaml:"prepare"`
	Volume    float64 `json:"volume" yaml:"volume"`
	Name      string  `json:"name" yaml:"name"`
}

// DefaultConfig returns the stock Tabata-style workout.
func DefaultConfig() Config {
	return Config{
		Work:      20,
		Rest:      10,
		Rounds:    8,
		Cycles:    1,
		CycleRest: 60,
		Prepare:   10,
		Volume:    0.5,
		Name:      "My Workout",
	}
}

// Apply returns a copy of config with field set from raw user input.
// Invalid numbers never fail: integers fall back to 0, volume keeps its old value.
func (config Config) Apply(field Field, raw string) (Config, error) {
	switch field {
	case FieldName:
		config.Name = raw
	case FieldVolume:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			config.Volume = parsed
		}
		config.Volume = clampVolume(config.Volume)
	case FieldWork:
		config.Work = coerceInt(raw)
	case FieldRest:
		config.Rest = coerceInt(raw)
	case FieldRounds:
		config.Rounds = coerceInt(raw)
	case FieldCycles:
		config.Cycles = coerceInt(raw)
	case FieldCycleRest:
		config.CycleRest = coerceInt(raw)
	case FieldPrepare:
		config.Prepare = coerceInt(raw)
	default:
		return config, fmt.Errorf("apply %q: %w", field, ErrUnknownField)
	}
	return config, nil
}

// Value renders a field for an input widget.
func (config Config) Value(field Field) string {
	switch field {
	case FieldName:
		return config.Name
	case FieldVolume:
		return strconv.FormatFloat(config.Volume, 'f', -1, 64)
	case FieldWork:
		return strconv.Itoa(config.Work)
	case FieldRest:
		return strconv.Itoa(config.Rest)
	case FieldRounds:
		return strconv.Itoa(config.Rounds)
	case FieldCycles:
		return strconv.Itoa(config.Cycles)
	case FieldCycleRest:
		return strconv.Itoa(config.CycleRest)
	case FieldPrepare:
		return strconv.Itoa(config.Prepare)
	}
	return ""
}

// Normalized fills the values a saved routine must not carry as zero.
// Zero rest, cycle rest, prepare and volume are kept as saved.
func (config Config) Normalized() Config {
	if config.Work <= 0 {
		config.Work = 1
	}
	if config.Rounds <= 0 {
		config.Rounds = 1
	}
	if config.Cycles <= 0 {
		config.Cycles = 1
	}
	if config.Rest < 0 {
		config.Rest = 0
	}
	if config.CycleRest < 0 {
		config.CycleRest = 0
	}
	if config.Prepare < 0 {
		config.Prepare = 0
	}
	config.Volume = clampVolume(config.Volume)
	return config
}

// DurationOf returns the configured length of phase in seconds.
func (config Config) DurationOf(phase Phase) int {
	switch phase {
	case PhasePrep:
		return config.Prepare
	case PhaseWork:
		return config.Work
	case PhaseRest:
		return config.Rest
	case PhaseCycleRest:
		return config.CycleRest
	}
	return 0
}

func coerceInt(raw string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
