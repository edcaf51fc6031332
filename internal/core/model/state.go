package model

// Phase is one segment of a workout.
type Phase string

const (
	PhasePrep      Phase = "PREP"
	PhaseWork      Phase = "WORK"
	PhaseRest      Phase = "REST"
	PhaseCycleRest Phase = "CYCLE_REST"
	PhaseDone      Phase = "DONE"
)

// Label returns the text shown under the timer.
func (phase Phase) Label() string {
	switch phase {
	case PhasePrep:
		return "GET READY"
	case PhaseCycleRest:
		return "CYCLE REST"
	case PhaseDone:
		return "COMPLETE"
	}
	return string(phase)
}

// RunState is the live position within a workout.
type RunState struct {
	Phase     Phase `json:"phase"`
	Round     int   `json:"round"`
	Cycle     int   `json:"cycle"`
	TimeLeft  int   `json:"timeLeft"`
	TotalTime int   `json:"totalTime"`
	Active    bool  `json:"isActive"`
}

// InitialState returns the idle state a workout starts from.
func InitialState(config Config) RunState {
	return RunState{
		Phase:     PhaseWork,
		Round:     1,
		Cycle:     1,
		TimeLeft:  config.Work,
		TotalTime: config.Work,
	}
}

// IsInitial reports whether state has not been started since the last reset.
func (state RunState) IsInitial(config Config) bool {
	return state.Phase == PhaseWork &&
		state.Round == 1 &&
		state.Cycle == 1 &&
		state.TimeLeft == config.Work &&
		state.TimeLeft == state.TotalTime
}

// Editable reports whether field may be edited in state. A running workout
// only lets work change, and only while WORK is the current phase.
func (state RunState) Editable(field Field) bool {
	return !state.Active || (field == FieldWork && state.Phase == PhaseWork)
}

// Progress returns the remaining fraction of the current phase.
func (state RunState) Progress() float64 {
	if state.TotalTime <= 0 {
		return 0
	}
	progress := float64(state.TimeLeft) / float64(state.TotalTime)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// Routine is a saved, named Config.
type Routine struct {
	Config
	ID int64 `json:"id"`
}
