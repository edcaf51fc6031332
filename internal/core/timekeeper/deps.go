package timekeeper

import (
	"context"
	"errors"
	"time"

	"gymtimer/internal/core/model"
)

// ErrWakeLockUnsupported indicates the host cannot keep the display awake.
var ErrWakeLockUnsupported = errors.New("wake lock unsupported")

// Cancel stops a scheduled callback. Calling it more than once is allowed.
type Cancel func()

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	ScheduleAfter(delay time.Duration, fn func()) Cancel
}

// Clock reports wall-clock time.
type Clock interface {
	Now() time.Time
}

// WakeLock keeps the host from suspending while a run is active.
type WakeLock interface {
	Acquire() error
	Release() error
	// Held reports whether the host still honours the lock.
	Held() bool
}

// RoutineStore persists the saved routine collection.
type RoutineStore interface {
	Load(ctx context.Context) ([]model.Routine, error)
	Save(ctx context.Context, routines []model.Routine) error
}

type systemScheduler struct{}

// SystemScheduler schedules callbacks with time.AfterFunc.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

func (systemScheduler) ScheduleAfter(delay time.Duration, fn func()) Cancel {
	timer := time.AfterFunc(delay, fn)
	return func() {
		timer.Stop()
	}
}

type systemClock struct{}

// SystemClock returns the real clock.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
