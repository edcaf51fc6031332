package tones

import (
	"time"

	"gymtimer/internal/core/model"
)

// Waveform is the oscillator shape of a tone.
type Waveform string

const (
	Sine     Waveform = "sine"
	Triangle Waveform = "triangle"
	Square   Waveform = "square"
)

// MuteThreshold is the volume at or below which no tone is emitted.
const MuteThreshold = 0.01

// Tone is a single oscillator request.
type Tone struct {
	Frequency float64
	Waveform  Waveform
	Duration  time.Duration
	Delay     time.Duration
	Volume    float64
}

// Sink plays tones.
type Sink interface {
	EmitTone(tone Tone)
}

// Resumer is implemented by sinks that must be woken before a run.
type Resumer interface {
	Resume() error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Tone)

// EmitTone calls fn.
func (fn SinkFunc) EmitTone(tone Tone) { fn(tone) }

var countdownBeep = []Tone{
	{Frequency: 880, Waveform: Square, Duration: 50 * time.Millisecond},
}

var phaseTones = map[model.Phase][]Tone{
	model.PhaseWork: {
		{Frequency: 880, Waveform: Sine, Duration: 100 * time.Millisecond},
		{Frequency: 1760, Waveform: Sine, Duration: 200 * time.Millisecond, Delay: 100 * time.Millisecond},
	},
	model.PhaseRest: {
		{Frequency: 440, Waveform: Triangle, Duration: 300 * time.Millisecond},
	},
	model.PhaseCycleRest: {
		{Frequency: 330, Waveform: Triangle, Duration: 500 * time.Millisecond},
		{Frequency: 220, Waveform: Triangle, Duration: 500 * time.Millisecond, Delay: 100 * time.Millisecond},
	},
	model.PhaseDone: {
		{Frequency: 523.25, Waveform: Sine, Duration: 100 * time.Millisecond},
		{Frequency: 659.25, Waveform: Sine, Duration: 100 * time.Millisecond, Delay: 150 * time.Millisecond},
		{Frequency: 783.99, Waveform: Sine, Duration: 400 * time.Millisecond, Delay: 300 * time.Millisecond},
	},
	model.PhasePrep: {
		{Frequency: 660, Waveform: Sine, Duration: 50 * time.Millisecond},
	},
}

// Sequence returns the tones announcing phase, without volume applied.
func Sequence(phase model.Phase) []Tone {
	return append([]Tone(nil), phaseTones[phase]...)
}

// CountdownSequence returns the tones of one countdown beep.
func CountdownSequence() []Tone {
	return append([]Tone(nil), countdownBeep...)
}

// Scheduler turns phase and countdown cues into tones for a sink.
type Scheduler struct {
	sink   Sink
	volume func() float64
}

// NewScheduler creates a scheduler reading the current volume from volume.
func NewScheduler(sink Sink, volume func() float64) *Scheduler {
	return &Scheduler{sink: sink, volume: volume}
}

// PlayPhaseSound announces entry into phase.
func (scheduler *Scheduler) PlayPhaseSound(phase model.Phase) int {
	return scheduler.emit(phaseTones[phase])
}

// PlayCountdownBeep emits one countdown beep.
func (scheduler *Scheduler) PlayCountdownBeep() int {
	return scheduler.emit(countdownBeep)
}

// Resume wakes the sink if it supports it.
func (scheduler *Scheduler) Resume() error {
	if resumer, ok := scheduler.sink.(Resumer); ok {
		return resumer.Resume()
	}
	return nil
}

func (scheduler *Scheduler) emit(sequence []Tone) int {
	if scheduler == nil || scheduler.sink == nil || scheduler.volume == nil {
		return 0
	}
	volume := scheduler.volume()
	if volume <= MuteThreshold {
		return 0
	}
	for _, tone := range sequence {
		tone.Volume = volume
		scheduler.sink.EmitTone(tone)
	}
	return len(sequence)
}
