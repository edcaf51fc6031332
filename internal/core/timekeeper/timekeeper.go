package timekeeper

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gymtimer/internal/core/model"
	"gymtimer/internal/core/tones"
)

var (
	// ErrConfigLocked indicates a config edit that is not allowed during a run.
	ErrConfigLocked = errors.New("config locked while running")
	// ErrRoutineNotFound indicates an unknown routine id.
	ErrRoutineNotFound = errors.New("routine not found")
	// ErrClosed indicates the TimeKeeper has been closed.
	ErrClosed = errors.New("timekeeper closed")
)

// Countdown beeps fire while the value shown after the decrement is 3, 2 or 1.
const (
	countdownFrom  = 4
	countdownUntil = 1
)

// Options contains collaborators and runtime options for TimeKeeper.
type Options struct {
	TickInterval time.Duration
	Scheduler    Scheduler
	Clock        Clock
	Sink         tones.Sink
	WakeLock     WakeLock
	Store        RoutineStore
	Logger       *zerolog.Logger
}

// TimeKeeper is the interval state machine. It owns the workout config and
// run state and is the only place either is mutated.
type TimeKeeper struct {
	mu       sync.Mutex
	config   model.Config
	state    model.RunState
	routines []model.Routine
	options  Options
	tones    *tones.Scheduler
	log      zerolog.Logger

	cancelTick Cancel
	generation uint64
	armedAt    time.Time
	armedDelay time.Duration

	lockHeld bool
	events   []chan Event
	closed   bool
}

// New creates a TimeKeeper in the initial WORK state for config.
func New(config model.Config, options Options) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Scheduler == nil {
		options.Scheduler = SystemScheduler()
	}
	if options.Clock == nil {
		options.Clock = SystemClock()
	}
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = options.Logger.With().Str("component", "timekeeper").Logger()
	}

	keeper := &TimeKeeper{
		config:  config,
		state:   model.InitialState(config),
		options: options,
		log:     logger,
	}
	// The volume callback runs only from methods holding keeper.mu.
	keeper.tones = tones.NewScheduler(options.Sink, func() float64 {
		return keeper.config.Volume
	})
	return keeper
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		close(ch)
		return ch
	}
	keeper.events = append(keeper.events, ch)
	return ch
}

// Snapshot returns the current config, run state and routines.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.snapshotLocked()
}

// Toggle implements the start/pause button: it pauses an active run,
// resets a finished one and starts anything else.
func (keeper *TimeKeeper) Toggle() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	switch {
	case keeper.closed:
	case keeper.state.Active:
		keeper.pauseLocked()
	default:
		keeper.startLocked()
	}
}

// Start begins or resumes the run. Starting a finished run only resets it.
func (keeper *TimeKeeper) Start() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	keeper.startLocked()
}

// Pause freezes the run without changing its position.
func (keeper *TimeKeeper) Pause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	keeper.pauseLocked()
}

// Reset stops the run and returns to the first WORK phase.
func (keeper *TimeKeeper) Reset() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	keeper.resetLocked()
}

// UpdateConfig applies a single field edit from user input. During a run
// the config is frozen except for work while the WORK phase is running.
func (keeper *TimeKeeper) UpdateConfig(field model.Field, raw string) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}

	if !keeper.state.Editable(field) {
		return fmt.Errorf("update %s: %w", field, ErrConfigLocked)
	}

	updated, err := keeper.config.Apply(field, raw)
	if err != nil {
		return err
	}
	keeper.config = updated

	if !keeper.state.Active && field == model.FieldWork && keeper.state.Phase == model.PhaseWork {
		keeper.state.TimeLeft = updated.Work
		keeper.state.TotalTime = updated.Work
	}

	keeper.emitLocked(EventConfigChange)
	return nil
}

// SetConfig replaces the whole config and resets the run. It is refused
// while a run is active.
func (keeper *TimeKeeper) SetConfig(config model.Config) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	if keeper.state.Active {
		return fmt.Errorf("set config: %w", ErrConfigLocked)
	}
	keeper.config = config
	keeper.emitLocked(EventConfigChange)
	keeper.resetLocked()
	return nil
}

// VisibilityRegained re-acquires the wake lock if the host dropped it
// while a run is active.
func (keeper *TimeKeeper) VisibilityRegained() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed || !keeper.state.Active || keeper.options.WakeLock == nil {
		return
	}
	if keeper.lockHeld && keeper.options.WakeLock.Held() {
		return
	}
	keeper.log.Debug().Msg("wake lock lost; re-acquiring")
	keeper.lockHeld = false
	keeper.acquireWakeLockLocked()
}

// Close cancels the pending tick, releases the wake lock and closes observers.
func (keeper *TimeKeeper) Close() {
	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.cancelTickLocked()
	keeper.state.Active = false
	keeper.releaseWakeLockLocked()
	keeper.closed = true
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (keeper *TimeKeeper) startLocked() {
	if keeper.state.Phase == model.PhaseDone {
		keeper.resetLocked()
		return
	}
	if keeper.state.Active {
		return
	}

	if keeper.state.IsInitial(keeper.config) && keeper.config.Prepare > 0 {
		keeper.state.Phase = model.PhasePrep
		keeper.state.TotalTime = keeper.config.Prepare
		keeper.state.TimeLeft = keeper.config.Prepare
		keeper.tones.PlayPhaseSound(model.PhasePrep)
	}

	keeper.state.Active = true
	keeper.acquireWakeLockLocked()
	if err := keeper.tones.Resume(); err != nil {
		keeper.log.Debug().Err(err).Msg("audio resume failed")
	}
	keeper.log.Info().
		Str("phase", string(keeper.state.Phase)).
		Int("round", keeper.state.Round).
		Int("cycle", keeper.state.Cycle).
		Int("time_left", keeper.state.TimeLeft).
		Msg("run started")
	keeper.emitLocked(EventStateChange)

	keeper.drainExhaustedLocked()
	if keeper.state.Active {
		keeper.armLocked(keeper.options.TickInterval)
	}
}

func (keeper *TimeKeeper) pauseLocked() {
	if !keeper.state.Active {
		return
	}
	keeper.cancelTickLocked()
	keeper.state.Active = false
	keeper.releaseWakeLockLocked()
	keeper.log.Info().Int("time_left", keeper.state.TimeLeft).Msg("run paused")
	keeper.emitLocked(EventStateChange)
}

func (keeper *TimeKeeper) resetLocked() {
	keeper.cancelTickLocked()
	keeper.state = model.InitialState(keeper.config)
	keeper.releaseWakeLockLocked()
	keeper.emitLocked(EventStateChange)
}

func (keeper *TimeKeeper) armLocked(delay time.Duration) {
	keeper.cancelTickLocked()
	generation := keeper.generation
	keeper.armedAt = keeper.options.Clock.Now()
	keeper.armedDelay = delay
	keeper.cancelTick = keeper.options.Scheduler.ScheduleAfter(delay, func() {
		keeper.fire(generation)
	})
}

func (keeper *TimeKeeper) cancelTickLocked() {
	keeper.generation++
	if keeper.cancelTick != nil {
		keeper.cancelTick()
		keeper.cancelTick = nil
	}
}

func (keeper *TimeKeeper) fire(generation uint64) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed || generation != keeper.generation || !keeper.state.Active {
		return
	}
	keeper.cancelTick = nil

	next := keeper.nextDelayLocked(keeper.options.Clock.Now())
	keeper.tickLocked()
	if keeper.state.Active {
		keeper.armLocked(next)
	}
}

// nextDelayLocked shortens the next tick by however late this one fired.
// A fire delayed by a long suspension yields a zero delay once; the tick
// after that is measured from the new anchor, so seconds are never replayed.
func (keeper *TimeKeeper) nextDelayLocked(now time.Time) time.Duration {
	interval := keeper.options.TickInterval
	overshoot := now.Sub(keeper.armedAt) - keeper.armedDelay
	next := interval - overshoot
	if next < 0 {
		next = 0
	}
	if next > interval {
		next = interval
	}
	if overshoot > interval {
		keeper.log.Debug().Dur("late_by", overshoot).Msg("tick delayed; re-anchoring")
	}
	return next
}

func (keeper *TimeKeeper) tickLocked() {
	if keeper.state.TimeLeft > 0 {
		if keeper.state.TimeLeft <= countdownFrom && keeper.state.TimeLeft > countdownUntil {
			keeper.tones.PlayCountdownBeep()
		}
		keeper.state.TimeLeft--
		keeper.emitLocked(EventProgress)
	}
	keeper.drainExhaustedLocked()
}

// drainExhaustedLocked applies transitions until the run is in a phase with
// time left or has finished. Zero-length phases pass straight through.
func (keeper *TimeKeeper) drainExhaustedLocked() {
	for keeper.state.Active && keeper.state.TimeLeft <= 0 {
		keeper.onTimeExhaustedLocked()
	}
}

func (keeper *TimeKeeper) onTimeExhaustedLocked() {
	switch keeper.state.Phase {
	case model.PhasePrep:
		keeper.enterPhaseLocked(model.PhaseWork)
	case model.PhaseWork:
		switch {
		case keeper.state.Round < keeper.config.Rounds:
			keeper.enterPhaseLocked(model.PhaseRest)
		case keeper.state.Cycle < keeper.config.Cycles:
			keeper.enterPhaseLocked(model.PhaseCycleRest)
		default:
			keeper.finishLocked()
		}
	case model.PhaseRest:
		keeper.state.Round++
		keeper.enterPhaseLocked(model.PhaseWork)
	case model.PhaseCycleRest:
		keeper.state.Cycle++
		keeper.state.Round = 1
		keeper.enterPhaseLocked(model.PhaseWork)
	default:
		keeper.state.Active = false
	}
}

func (keeper *TimeKeeper) enterPhaseLocked(phase model.Phase) {
	duration := keeper.config.DurationOf(phase)
	keeper.state.Phase = phase
	keeper.state.TotalTime = duration
	keeper.state.TimeLeft = duration
	keeper.tones.PlayPhaseSound(phase)
	keeper.log.Debug().
		Str("phase", string(phase)).
		Int("round", keeper.state.Round).
		Int("cycle", keeper.state.Cycle).
		Int("duration", duration).
		Msg("phase entered")
	keeper.emitLocked(EventStateChange)
}

func (keeper *TimeKeeper) finishLocked() {
	keeper.cancelTickLocked()
	keeper.state.Phase = model.PhaseDone
	keeper.state.TimeLeft = 0
	keeper.state.Active = false
	keeper.releaseWakeLockLocked()
	keeper.tones.PlayPhaseSound(model.PhaseDone)
	keeper.log.Info().
		Int("rounds", keeper.config.Rounds).
		Int("cycles", keeper.config.Cycles).
		Msg("workout complete")
	keeper.emitLocked(EventStateChange)
}

func (keeper *TimeKeeper) acquireWakeLockLocked() {
	if keeper.lockHeld || keeper.options.WakeLock == nil {
		return
	}
	if err := keeper.options.WakeLock.Acquire(); err != nil {
		if !errors.Is(err, ErrWakeLockUnsupported) {
			keeper.log.Warn().Err(err).Msg("wake lock acquire failed")
		}
		return
	}
	keeper.lockHeld = true
}

func (keeper *TimeKeeper) releaseWakeLockLocked() {
	if !keeper.lockHeld {
		return
	}
	keeper.lockHeld = false
	if err := keeper.options.WakeLock.Release(); err != nil {
		keeper.log.Warn().Err(err).Msg("wake lock release failed")
	}
}

func (keeper *TimeKeeper) snapshotLocked() Snapshot {
	return Snapshot{
		Config:   keeper.config,
		State:    keeper.state,
		Routines: append([]model.Routine(nil), keeper.routines...),
	}
}

func (keeper *TimeKeeper) emitLocked(eventType EventType) {
	if len(keeper.events) == 0 {
		return
	}
	event := Event{
		Type:     eventType,
		Snapshot: keeper.snapshotLocked(),
		At:       keeper.options.Clock.Now(),
	}
	for _, ch := range keeper.events {
		select {
		case ch <- event:
			continue
		default:
		}
		// Full buffer: drop the oldest event so the latest state is always queued.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
