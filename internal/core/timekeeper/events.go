package timekeeper

import (
	"time"

	"gymtimer/internal/core/model"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventProgress      EventType = "progress"
	EventConfigChange  EventType = "config_change"
	EventRoutineChange EventType = "routines_change"
)

// Snapshot is a read-only copy of everything a front end renders.
type Snapshot struct {
	Config   model.Config
	State    model.RunState
	Routines []model.Routine
}

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	At       time.Time
}
