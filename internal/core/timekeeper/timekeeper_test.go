package timekeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymtimer/internal/core/model"
	"gymtimer/internal/core/tones"
)

type fakeClock struct {
	now time.Time
}

func (clock *fakeClock) Now() time.Time { return clock.now }

func (clock *fakeClock) Advance(delta time.Duration) { clock.now = clock.now.Add(delta) }

type scheduledTask struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

type fakeScheduler struct {
	tasks []*scheduledTask
}

func (scheduler *fakeScheduler) ScheduleAfter(delay time.Duration, fn func()) Cancel {
	task := &scheduledTask{delay: delay, fn: fn}
	scheduler.tasks = append(scheduler.tasks, task)
	return func() { task.cancelled = true }
}

func (scheduler *fakeScheduler) pending() *scheduledTask {
	var found *scheduledTask
	for _, task := range scheduler.tasks {
		if !task.cancelled && !task.fired {
			found = task
		}
	}
	return found
}

func (scheduler *fakeScheduler) pendingCount() int {
	count := 0
	for _, task := range scheduler.tasks {
		if !task.cancelled && !task.fired {
			count++
		}
	}
	return count
}

type fakeWakeLock struct {
	acquired int
	released int
	held     bool
	err      error
}

func (lock *fakeWakeLock) Acquire() error {
	if lock.err != nil {
		return lock.err
	}
	lock.acquired++
	lock.held = true
	return nil
}

func (lock *fakeWakeLock) Release() error {
	lock.released++
	lock.held = false
	return nil
}

func (lock *fakeWakeLock) Held() bool { return lock.held }

type recordingSink struct {
	tones   []tones.Tone
	resumed int
}

func (sink *recordingSink) EmitTone(tone tones.Tone) { sink.tones = append(sink.tones, tone) }

func (sink *recordingSink) Resume() error {
	sink.resumed++
	return nil
}

func (sink *recordingSink) count(waveform tones.Waveform, frequency float64) int {
	count := 0
	for _, tone := range sink.tones {
		if tone.Waveform == waveform && tone.Frequency == frequency {
			count++
		}
	}
	return count
}

type memoryStore struct {
	routines []model.Routine
	saves    int
	err      error
}

func (store *memoryStore) Load(context.Context) ([]model.Routine, error) {
	return append([]model.Routine(nil), store.routines...), nil
}

func (store *memoryStore) Save(_ context.Context, routines []model.Routine) error {
	if store.err != nil {
		return store.err
	}
	store.saves++
	store.routines = append([]model.Routine(nil), routines...)
	return nil
}

type harness struct {
	keeper    *TimeKeeper
	scheduler *fakeScheduler
	clock     *fakeClock
	lock      *fakeWakeLock
	sink      *recordingSink
	store     *memoryStore
	events    <-chan Event
}

func newHarness(t *testing.T, config model.Config) *harness {
	t.Helper()
	h := &harness{
		scheduler: &fakeScheduler{},
		clock:     &fakeClock{now: time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)},
		lock:      &fakeWakeLock{},
		sink:      &recordingSink{},
		store:     &memoryStore{},
	}
	h.keeper = New(config, Options{
		Scheduler: h.scheduler,
		Clock:     h.clock,
		Sink:      h.sink,
		WakeLock:  h.lock,
		Store:     h.store,
	})
	h.events = h.keeper.Subscribe(100000)
	t.Cleanup(h.keeper.Close)
	return h
}

// step fires the pending tick on time and reports whether one existed.
func (h *harness) step() bool {
	task := h.scheduler.pending()
	if task == nil {
		return false
	}
	h.clock.Advance(task.delay)
	task.fired = true
	task.fn()
	return true
}

func (h *harness) runToEnd(t *testing.T) int {
	t.Helper()
	ticks := 0
	for h.keeper.Snapshot().State.Active {
		if !h.step() {
			t.Fatal("active run has no pending tick")
		}
		ticks++
		if ticks > 100000 {
			t.Fatal("run did not finish")
		}
	}
	return ticks
}

// phaseTrace returns state_change events with consecutive duplicates removed.
func (h *harness) phaseTrace() []model.RunState {
	var trace []model.RunState
	for {
		select {
		case event := <-h.events:
			if event.Type != EventStateChange {
				continue
			}
			state := event.Snapshot.State
			if len(trace) > 0 && trace[len(trace)-1].Phase == state.Phase {
				continue
			}
			trace = append(trace, state)
		default:
			return trace
		}
	}
}

func phases(trace []model.RunState) []model.Phase {
	out := make([]model.Phase, len(trace))
	for i, state := range trace {
		out[i] = state.Phase
	}
	return out
}

func equalPhases(a, b []model.Phase) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartWithoutPrepareEntersWork(t *testing.T) {
	config := model.Config{Work: 30, Rest: 10, Rounds: 2, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)

	h.keeper.Start()
	state := h.keeper.Snapshot().State
	if state.Phase != model.PhaseWork || state.TimeLeft != 30 || state.TotalTime != 30 || !state.Active {
		t.Fatalf("state after start = %+v", state)
	}
	if h.sink.resumed != 1 {
		t.Errorf("audio resumed %d times, want 1", h.sink.resumed)
	}
	if h.scheduler.pending() == nil || h.scheduler.pending().delay != time.Second {
		t.Fatal("expected a one second tick to be armed")
	}
}

func TestFirstStartWithPrepareEntersPrep(t *testing.T) {
	config := model.Config{Work: 20, Rest: 10, Rounds: 1, Cycles: 1, Prepare: 3, Volume: 0.5}
	h := newHarness(t, config)

	h.keeper.Start()
	state := h.keeper.Snapshot().State
	if state.Phase != model.PhasePrep || state.TimeLeft != 3 || state.TotalTime != 3 {
		t.Fatalf("state after start = %+v", state)
	}
	if h.sink.count(tones.Sine, 660) != 1 {
		t.Errorf("expected the PREP tone once, tones = %+v", h.sink.tones)
	}

	h.keeper.Pause()
	h.keeper.Start()
	if got := h.keeper.Snapshot().State; got.Phase != model.PhasePrep || got.TimeLeft != 3 {
		t.Errorf("resume should stay in PREP, got %+v", got)
	}
	if h.sink.count(tones.Sine, 660) != 1 {
		t.Error("resume must not replay the PREP tone")
	}

	for i := 0; i < 3; i++ {
		h.step()
	}
	if got := h.keeper.Snapshot().State; got.Phase != model.PhaseWork || got.TimeLeft != 20 {
		t.Errorf("after prep state = %+v", got)
	}
}

func TestExampleWorkRestWork(t *testing.T) {
	config := model.Config{Work: 20, Rest: 10, Rounds: 2, Cycles: 1, CycleRest: 60, Prepare: 0, Volume: 0.5}
	h := newHarness(t, config)

	h.keeper.Start()
	ticks := h.runToEnd(t)
	if ticks != 50 {
		t.Errorf("ticks = %d, want 50", ticks)
	}

	want := []model.Phase{model.PhaseWork, model.PhaseRest, model.PhaseWork, model.PhaseDone}
	if got := phases(h.phaseTrace()); !equalPhases(got, want) {
		t.Errorf("phases = %v, want %v", got, want)
	}

	state := h.keeper.Snapshot().State
	if state.Active || state.Phase != model.PhaseDone {
		t.Errorf("final state = %+v", state)
	}
	if h.scheduler.pendingCount() != 0 {
		t.Errorf("pending ticks after DONE = %d", h.scheduler.pendingCount())
	}
}

func TestExampleCycleRest(t *testing.T) {
	config := model.Config{Work: 5, Rest: 5, Rounds: 1, Cycles: 2, CycleRest: 15, Prepare: 0, Volume: 0.5}
	h := newHarness(t, config)

	h.keeper.Start()
	ticks := h.runToEnd(t)
	if ticks != 25 {
		t.Errorf("ticks = %d, want 25", ticks)
	}

	trace := h.phaseTrace()
	want := []model.Phase{model.PhaseWork, model.PhaseCycleRest, model.PhaseWork, model.PhaseDone}
	if got := phases(trace); !equalPhases(got, want) {
		t.Fatalf("phases = %v, want %v", got, want)
	}
	if trace[2].Round != 1 || trace[2].Cycle != 2 {
		t.Errorf("after cycle rest round=%d cycle=%d, want 1/2", trace[2].Round, trace[2].Cycle)
	}
}

func TestWorkPhaseCountAndCounters(t *testing.T) {
	configs := []model.Config{
		{Work: 3, Rest: 2, Rounds: 1, Cycles: 1, CycleRest: 4},
		{Work: 3, Rest: 2, Rounds: 4, Cycles: 1, CycleRest: 4},
		{Work: 2, Rest: 1, Rounds: 3, Cycles: 3, CycleRest: 5, Prepare: 2},
		{Work: 1, Rest: 0, Rounds: 2, Cycles: 2, CycleRest: 0},
		{Work: 4, Rest: 0, Rounds: 5, Cycles: 1, CycleRest: 7, Prepare: 1},
	}

	for _, config := range configs {
		config.Volume = 0.5
		h := newHarness(t, config)
		h.keeper.Start()
		ticks := h.runToEnd(t)

		wantTicks := config.Rounds*config.Cycles*config.Work +
			(config.Rounds-1)*config.Cycles*config.Rest +
			(config.Cycles-1)*config.CycleRest +
			config.Prepare
		if ticks != wantTicks {
			t.Errorf("%+v: ticks = %d, want %d", config, ticks, wantTicks)
		}

		trace := h.phaseTrace()
		works, dones := 0, 0
		for i, state := range trace {
			switch state.Phase {
			case model.PhaseWork:
				works++
			case model.PhaseDone:
				dones++
				if i != len(trace)-1 {
					t.Errorf("%+v: DONE is not last", config)
				}
			}
			if i == 0 {
				continue
			}
			prev := trace[i-1]
			if state.Round != prev.Round {
				switch {
				case prev.Phase == model.PhaseRest && state.Phase == model.PhaseWork && state.Round == prev.Round+1:
				case prev.Phase == model.PhaseCycleRest && state.Phase == model.PhaseWork && state.Round == 1:
				default:
					t.Errorf("%+v: round changed %d->%d on %s->%s", config, prev.Round, state.Round, prev.Phase, state.Phase)
				}
			}
		}
		if works != config.Rounds*config.Cycles {
			t.Errorf("%+v: WORK phases = %d, want %d", config, works, config.Rounds*config.Cycles)
		}
		if dones != 1 {
			t.Errorf("%+v: DONE reached %d times", config, dones)
		}
	}
}

func TestCountdownBeepWindow(t *testing.T) {
	config := model.Config{Work: 6, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()

	var beepsAt []int
	for h.keeper.Snapshot().State.Active {
		before := h.sink.count(tones.Square, 880)
		shown := h.keeper.Snapshot().State.TimeLeft - 1
		h.step()
		if h.sink.count(tones.Square, 880) > before {
			beepsAt = append(beepsAt, shown)
		}
	}

	want := []int{3, 2, 1}
	if len(beepsAt) != len(want) {
		t.Fatalf("beeps shown at %v, want %v", beepsAt, want)
	}
	for i := range want {
		if beepsAt[i] != want[i] {
			t.Errorf("beeps shown at %v, want %v", beepsAt, want)
		}
	}
}

func TestPhaseSoundsOnTransitions(t *testing.T) {
	config := model.Config{Work: 1, Rest: 1, Rounds: 2, Cycles: 2, CycleRest: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()
	h.runToEnd(t)

	// WORK -> REST -> WORK -> CYCLE_REST -> WORK -> REST -> WORK -> DONE
	if got := h.sink.count(tones.Triangle, 440); got != 2 {
		t.Errorf("REST tones = %d, want 2", got)
	}
	if got := h.sink.count(tones.Triangle, 330); got != 1 {
		t.Errorf("CYCLE_REST tones = %d, want 1", got)
	}
	if got := h.sink.count(tones.Sine, 1760); got != 3 {
		t.Errorf("WORK tones = %d, want 3", got)
	}
	if got := h.sink.count(tones.Sine, 783.99); got != 1 {
		t.Errorf("DONE tones = %d, want 1", got)
	}
}

func TestMutedRunEmitsNothing(t *testing.T) {
	config := model.Config{Work: 5, Rest: 2, Rounds: 2, Cycles: 1, Prepare: 2, Volume: 0.5}
	h := newHarness(t, config)
	if err := h.keeper.UpdateConfig(model.FieldVolume, "0"); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	h.keeper.Start()
	h.runToEnd(t)
	if len(h.sink.tones) != 0 {
		t.Errorf("muted run emitted %d tones", len(h.sink.tones))
	}
}

func TestPauseCancelsPendingTick(t *testing.T) {
	config := model.Config{Work: 10, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()
	h.step()

	task := h.scheduler.pending()
	h.keeper.Pause()
	if !task.cancelled {
		t.Fatal("pause did not cancel the pending tick")
	}

	task.fn()
	state := h.keeper.Snapshot().State
	if state.TimeLeft != 9 || state.Active {
		t.Errorf("stale tick changed state: %+v", state)
	}

	h.keeper.Start()
	h.keeper.Reset()
	h.keeper.Start()
	stale := h.scheduler.tasks[len(h.scheduler.tasks)-2]
	stale.fn()
	if got := h.keeper.Snapshot().State.TimeLeft; got != 10 {
		t.Errorf("tick armed before reset decremented the new run: time left %d", got)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	config := model.Config{Work: 8, Rest: 4, Rounds: 3, Cycles: 2, CycleRest: 6, Prepare: 2, Volume: 0.5}
	h := newHarness(t, config)

	h.keeper.Start()
	for i := 0; i < 17; i++ {
		h.step()
	}
	h.keeper.Pause()
	h.keeper.Start()
	h.step()
	h.keeper.Reset()

	want := model.RunState{Phase: model.PhaseWork, Round: 1, Cycle: 1, TimeLeft: 8, TotalTime: 8}
	if got := h.keeper.Snapshot().State; got != want {
		t.Errorf("after reset = %+v, want %+v", got, want)
	}
	if h.scheduler.pendingCount() != 0 {
		t.Error("reset left a tick pending")
	}
}

func TestStartWhileDoneOnlyResets(t *testing.T) {
	config := model.Config{Work: 2, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()
	h.runToEnd(t)

	h.keeper.Start()
	want := model.InitialState(config)
	if got := h.keeper.Snapshot().State; got != want {
		t.Errorf("start while DONE = %+v, want %+v", got, want)
	}
	if h.scheduler.pendingCount() != 0 {
		t.Error("start while DONE must not arm a tick")
	}

	h.keeper.Toggle()
	if !h.keeper.Snapshot().State.Active {
		t.Error("second toggle should start the run")
	}
	h.keeper.Toggle()
	if h.keeper.Snapshot().State.Active {
		t.Error("third toggle should pause the run")
	}
}

func TestDriftCorrection(t *testing.T) {
	config := model.Config{Work: 100, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()

	task := h.scheduler.pending()
	h.clock.Advance(1300 * time.Millisecond)
	task.fired = true
	task.fn()
	if next := h.scheduler.pending().delay; next != 700*time.Millisecond {
		t.Errorf("delay after late tick = %v, want 700ms", next)
	}

	task = h.scheduler.pending()
	h.clock.Advance(60 * time.Second)
	task.fired = true
	task.fn()
	if next := h.scheduler.pending().delay; next != 0 {
		t.Errorf("delay after suspension = %v, want 0", next)
	}
	if got := h.keeper.Snapshot().State.TimeLeft; got != 98 {
		t.Errorf("time left after suspension = %d, want 98", got)
	}

	task = h.scheduler.pending()
	task.fired = true
	task.fn()
	if next := h.scheduler.pending().delay; next != time.Second {
		t.Errorf("delay after re-anchor = %v, want 1s", next)
	}

	task = h.scheduler.pending()
	h.clock.Advance(900 * time.Millisecond)
	task.fired = true
	task.fn()
	if next := h.scheduler.pending().delay; next != time.Second {
		t.Errorf("early tick delay = %v, want 1s", next)
	}
	if got := h.keeper.Snapshot().State.TimeLeft; got != 96 {
		t.Errorf("time left = %d, want 96", got)
	}
}

func TestWakeLockLifecycle(t *testing.T) {
	config := model.Config{Work: 2, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)

	h.keeper.Start()
	h.keeper.Start()
	if h.lock.acquired != 1 {
		t.Fatalf("acquired = %d, want 1", h.lock.acquired)
	}

	h.keeper.Pause()
	h.keeper.Pause()
	if h.lock.released != 1 {
		t.Fatalf("released = %d, want 1", h.lock.released)
	}

	h.keeper.Start()
	h.lock.held = false
	h.keeper.VisibilityRegained()
	if h.lock.acquired != 3 {
		t.Errorf("acquired after visibility regain = %d, want 3", h.lock.acquired)
	}
	h.keeper.VisibilityRegained()
	if h.lock.acquired != 3 {
		t.Error("held lock must not be re-acquired")
	}

	h.runToEnd(t)
	if h.lock.released != 2 {
		t.Errorf("released after DONE = %d, want 2", h.lock.released)
	}

	h.keeper.Reset()
	h.keeper.VisibilityRegained()
	if h.lock.released != 2 || h.lock.acquired != 3 {
		t.Errorf("idle reset touched the lock: %+v", h.lock)
	}
}

func TestWakeLockUnsupportedDegrades(t *testing.T) {
	config := model.Config{Work: 2, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.lock.err = ErrWakeLockUnsupported

	h.keeper.Start()
	if !h.keeper.Snapshot().State.Active {
		t.Fatal("run should start without a wake lock")
	}
	h.runToEnd(t)
	if h.lock.released != 0 {
		t.Errorf("released a lock that was never acquired")
	}
}

func TestUpdateConfig(t *testing.T) {
	config := model.DefaultConfig()
	h := newHarness(t, config)

	if err := h.keeper.UpdateConfig(model.FieldWork, "45"); err != nil {
		t.Fatalf("UpdateConfig(work): %v", err)
	}
	state := h.keeper.Snapshot().State
	if state.TimeLeft != 45 || state.TotalTime != 45 {
		t.Errorf("live update state = %+v", state)
	}

	if err := h.keeper.UpdateConfig(model.FieldRest, "nope"); err != nil {
		t.Fatalf("UpdateConfig(rest): %v", err)
	}
	if got := h.keeper.Snapshot().Config.Rest; got != 0 {
		t.Errorf("rest = %d, want 0", got)
	}

	if err := h.keeper.UpdateConfig(model.Field("tempo"), "1"); !errors.Is(err, model.ErrUnknownField) {
		t.Errorf("unknown field err = %v", err)
	}

	h.keeper.Start()
	if err := h.keeper.UpdateConfig(model.FieldRounds, "3"); !errors.Is(err, ErrConfigLocked) {
		t.Errorf("rounds during run err = %v, want ErrConfigLocked", err)
	}
	if got := h.keeper.Snapshot().Config.Rounds; got != config.Rounds {
		t.Errorf("rounds changed during run: %d", got)
	}

	if err := h.keeper.UpdateConfig(model.FieldWork, "60"); !errors.Is(err, ErrConfigLocked) {
		t.Errorf("work during PREP err = %v, want ErrConfigLocked", err)
	}
}

func TestActiveRunOnlyAcceptsWorkDuringWork(t *testing.T) {
	config := model.Config{Work: 2, Rest: 5, Rounds: 2, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()

	before := h.keeper.Snapshot().State
	if err := h.keeper.UpdateConfig(model.FieldWork, "60"); err != nil {
		t.Fatalf("UpdateConfig(work) during WORK: %v", err)
	}
	after := h.keeper.Snapshot()
	if after.Config.Work != 60 || after.State != before {
		t.Errorf("work edit during WORK: config=%d state=%+v before=%+v", after.Config.Work, after.State, before)
	}

	for _, field := range []model.Field{model.FieldVolume, model.FieldName, model.FieldRest} {
		if err := h.keeper.UpdateConfig(field, "0"); !errors.Is(err, ErrConfigLocked) {
			t.Errorf("%s during WORK err = %v, want ErrConfigLocked", field, err)
		}
	}
	if got := h.keeper.Snapshot().Config; got.Volume != 0.5 || got.Name != "" || got.Rest != 5 {
		t.Errorf("locked edits changed config: %+v", got)
	}

	h.step()
	h.step()
	state := h.keeper.Snapshot().State
	if state.Phase != model.PhaseRest || !state.Active {
		t.Fatalf("expected an active REST, got %+v", state)
	}
	if err := h.keeper.UpdateConfig(model.FieldWork, "30"); !errors.Is(err, ErrConfigLocked) {
		t.Errorf("work during REST err = %v, want ErrConfigLocked", err)
	}
	if got := h.keeper.Snapshot().Config.Work; got != 60 {
		t.Errorf("work = %d after locked edit, want 60", got)
	}

	h.keeper.Pause()
	if err := h.keeper.UpdateConfig(model.FieldVolume, "0"); err != nil {
		t.Errorf("volume while paused: %v", err)
	}
}

func TestUpdateWorkOutsideWorkPhaseKeepsTimer(t *testing.T) {
	config := model.Config{Work: 2, Rest: 5, Rounds: 2, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()
	h.step()
	h.step()
	h.keeper.Pause()

	if err := h.keeper.UpdateConfig(model.FieldWork, "30"); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	state := h.keeper.Snapshot().State
	if state.Phase != model.PhaseRest || state.TimeLeft != 5 {
		t.Errorf("paused REST changed by work edit: %+v", state)
	}
}

func TestZeroWorkRunsThrough(t *testing.T) {
	config := model.Config{Work: 5, Rest: 0, Rounds: 2, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	if err := h.keeper.UpdateConfig(model.FieldWork, "0"); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	h.keeper.Start()

	state := h.keeper.Snapshot().State
	if state.Phase != model.PhaseDone || state.Active {
		t.Errorf("zero-length workout should finish on start, got %+v", state)
	}
	if h.scheduler.pendingCount() != 0 {
		t.Error("finished run left a tick pending")
	}
}

func TestSetConfig(t *testing.T) {
	h := newHarness(t, model.DefaultConfig())
	next := model.Config{Work: 40, Rest: 20, Rounds: 3, Cycles: 1, Volume: 0.3, Name: "Bike"}
	if err := h.keeper.SetConfig(next); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	snapshot := h.keeper.Snapshot()
	if snapshot.Config != next || snapshot.State != model.InitialState(next) {
		t.Errorf("snapshot = %+v", snapshot)
	}

	h.keeper.Start()
	if err := h.keeper.SetConfig(model.DefaultConfig()); !errors.Is(err, ErrConfigLocked) {
		t.Errorf("SetConfig during run err = %v", err)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	config := model.Config{Work: 5, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()
	task := h.scheduler.pending()

	h.keeper.Close()
	if !task.cancelled {
		t.Error("close did not cancel the pending tick")
	}
	if h.lock.released != 1 {
		t.Errorf("released = %d, want 1", h.lock.released)
	}
	task.fn()
	for range h.events {
	}
	if _, ok := <-h.keeper.Subscribe(1); ok {
		t.Error("subscribe after close should return a closed channel")
	}
	if err := h.keeper.UpdateConfig(model.FieldWork, "3"); !errors.Is(err, ErrClosed) {
		t.Errorf("UpdateConfig after close = %v", err)
	}
}

func TestSlowSubscriberKeepsLatestEvent(t *testing.T) {
	config := model.Config{Work: 0, Rest: 0, Rounds: 10, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	slow := h.keeper.Subscribe(2)
	h.keeper.Start()

	var last Event
	for drained := false; !drained; {
		select {
		case event := <-slow:
			last = event
		default:
			drained = true
		}
	}
	if last.Snapshot.State.Phase != model.PhaseDone || last.Snapshot.State.Active {
		t.Errorf("last queued state = %+v, want inactive DONE", last.Snapshot.State)
	}
}

func TestEventsCarrySnapshots(t *testing.T) {
	config := model.Config{Work: 2, Rounds: 1, Cycles: 1, Volume: 0.5}
	h := newHarness(t, config)
	h.keeper.Start()
	h.step()

	var progress []Event
	for {
		select {
		case event := <-h.events:
			if event.Type == EventProgress {
				progress = append(progress, event)
			}
			continue
		default:
		}
		break
	}
	if len(progress) != 1 || progress[0].Snapshot.State.TimeLeft != 1 {
		t.Fatalf("progress events = %+v", progress)
	}
	if !progress[0].At.Equal(h.clock.now) {
		t.Errorf("event time = %v, want %v", progress[0].At, h.clock.now)
	}
}
