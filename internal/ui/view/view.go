// Package view turns a workout config and run state into display values
// shared by the desktop and terminal front ends.
package view

import (
	"fmt"
	"image/color"
	"math"

	"gymtimer/internal/core/model"
)

// Ring glow radii.
const (
	GlowNormal = 8
	GlowUrgent = 15
	GlowPrep   = 10
)

// urgentSeconds is the remaining time at or below which the ring glows harder.
const urgentSeconds = 5

var (
	// PrepColor strokes the ring during PREP.
	PrepColor = color.NRGBA{R: 0xFD, G: 0xC8, B: 0x30, A: 0xFF}
	// PrepGlowColor is the halo colour during PREP.
	PrepGlowColor = color.NRGBA{R: 0xF3, G: 0x73, B: 0x35, A: 0xFF}
	// TrackColor is the unfilled part of the ring.
	TrackColor = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0x0D}
)

// Model is everything a front end draws for one frame.
type Model struct {
	Title        string
	Time         string
	PhaseLabel   string
	Phase        model.Phase
	Progress     float64
	RingColor    color.NRGBA
	GlowColor    color.NRGBA
	Glow         int
	Counters     []string
	ToggleLabel  string
	ResetVisible bool
	Active       bool
}

// Build derives the display model for config and state.
func Build(config model.Config, state model.RunState) Model {
	progress := state.Progress()
	ring := RingColor(state.Phase, progress)
	glowColor := ring
	if state.Phase == model.PhasePrep {
		glowColor = PrepGlowColor
	}
	return Model{
		Title:        config.Name,
		Time:         FormatTime(state.TimeLeft),
		PhaseLabel:   state.Phase.Label(),
		Phase:        state.Phase,
		Progress:     progress,
		RingColor:    ring,
		GlowColor:    glowColor,
		Glow:         GlowRadius(state.Phase, state.TimeLeft),
		Counters:     Counters(config, state),
		ToggleLabel:  ToggleLabel(state),
		ResetVisible: !state.Active,
		Active:       state.Active,
	}
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// RingHue maps remaining progress to a hue from red (0) to green (140).
func RingHue(progress float64) int {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return int(math.Floor(progress * 140))
}

// RingColor returns the ring stroke colour.
func RingColor(phase model.Phase, progress float64) color.NRGBA {
	if phase == model.PhasePrep {
		return PrepColor
	}
	return HSL(float64(RingHue(progress)), 0.9, 0.6)
}

// GlowRadius returns the halo size around the ring.
func GlowRadius(phase model.Phase, timeLeft int) int {
	if phase == model.PhasePrep {
		return GlowPrep
	}
	if timeLeft <= urgentSeconds {
		return GlowUrgent
	}
	return GlowNormal
}

// Counters returns the round and cycle lines, or nil in PREP and DONE.
func Counters(config model.Config, state model.RunState) []string {
	if state.Phase == model.PhasePrep || state.Phase == model.PhaseDone {
		return nil
	}
	return []string{
		fmt.Sprintf("ROUND %d/%s", state.Round, countOrDash(config.Rounds)),
		fmt.Sprintf("CYCLE %d/%s", state.Cycle, countOrDash(config.Cycles)),
	}
}

// ToggleLabel returns the start/pause button caption.
func ToggleLabel(state model.RunState) string {
	switch {
	case state.Active:
		return "PAUSE"
	case state.Phase == model.PhaseDone:
		return "RESTART"
	default:
		return "START"
	}
}

// Status is a one-line summary for the tray and window title.
func Status(config model.Config, state model.RunState) string {
	status := fmt.Sprintf("%s %s", state.Phase.Label(), FormatTime(state.TimeLeft))
	if counters := Counters(config, state); counters != nil {
		status = fmt.Sprintf("%s · %s", status, counters[0])
	}
	if !state.Active && state.Phase != model.PhaseDone {
		status += " (paused)"
	}
	return status
}

// HSL converts hue in degrees, saturation and lightness in [0,1] to a colour.
func HSL(hue, saturation, lightness float64) color.NRGBA {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	chroma := (1 - math.Abs(2*lightness-1)) * saturation
	x := chroma * (1 - math.Abs(math.Mod(hue/60, 2)-1))
	m := lightness - chroma/2

	var r, g, b float64
	switch {
	case hue < 60:
		r, g, b = chroma, x, 0
	case hue < 120:
		r, g, b = x, chroma, 0
	case hue < 180:
		r, g, b = 0, chroma, x
	case hue < 240:
		r, g, b = 0, x, chroma
	case hue < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return color.NRGBA{
		R: channel(r + m),
		G: channel(g + m),
		B: channel(b + m),
		A: 0xFF,
	}
}

// Hex formats c as #rrggbb.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func channel(value float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, value)) * 255))
}

func countOrDash(value int) string {
	if value <= 0 {
		return "-"
	}
	return fmt.Sprint(value)
}
