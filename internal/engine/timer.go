package engine

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/sweeney/interval-timer/internal/logic"
	"github.com/sweeney/interval-timer/internal/workout"
)

// Options configures an engine.
type Options struct {
	Now    Clock       // defaults to time.Now
	Logger *log.Logger // defaults to a discarding logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}

// TimerState is a read-only view of a workout run for display.
type TimerState struct {
	Status  logic.Status
	Workout workout.Workout
	Running bool
	Paused  bool
}

// CurrentRound returns the round the run is on, or false when there is none.
func (s TimerState) CurrentRound() (workout.Round, bool) {
	i := s.Status.CurrentRoundIndex
	if i < 0 || i >= len(s.Workout.Rounds) {
		return workout.Round{}, false
	}
	return s.Workout.Rounds[i], true
}

// Timer runs one workout at a time. Its status only changes inside Poll and
// the control methods, all under the same lock, so a Timer may be shared
// between a Scheduler goroutine and readers.
type Timer struct {
	mu      sync.Mutex
	opts    Options
	workout workout.Workout
	status  logic.Status
	running bool
	paused  bool
	clock   stopwatch
	events  queue[logic.Event]
	nextID  uint64
}

// NewTimer creates an idle workout timer.
func NewTimer(opts Options) *Timer {
	return &Timer{
		opts:   opts.withDefaults(),
		status: logic.InitialStatus(),
	}
}

// Start validates w and begins a run from the prepare phase. The workout is
// snapshotted; later changes to w do not affect the run. A run already in
// progress is replaced.
func (t *Timer) Start(w workout.Workout) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("start workout %q: %w", w.Name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.opts.Now()
	t.workout = w.Clone()
	t.status = logic.InitialStatus()
	t.running = true
	t.paused = false
	t.events.clear()
	t.clock.reset()
	t.clock.observe(now)
	t.pushLocked(logic.Event{
		Phase:      t.status.Phase,
		Set:        t.status.CurrentSet,
		RoundIndex: t.status.CurrentRoundIndex,
		OccurredAt: now,
	})

	t.opts.Logger.Printf("timer: started %q (%d sets, %d rounds, %ds)",
		w.Name, w.Sets, len(w.Rounds), w.TotalDuration())
	return nil
}

// Pause freezes the countdown. Time up to the pause is accounted first.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || t.paused {
		return
	}
	t.pollLocked(t.opts.Now())
	t.paused = true
	t.clock.reset()
	t.opts.Logger.Printf("timer: paused in %s with %ds left", t.status.Phase, t.status.TimeLeftInPhase)
}

// Resume continues a paused run. Time spent paused is never charged.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || !t.paused {
		return
	}
	t.paused = false
	t.clock.observe(t.opts.Now())
	t.opts.Logger.Printf("timer: resumed in %s with %ds left", t.status.Phase, t.status.TimeLeftInPhase)
}

// Stop ends the run, discards queued events and resets the status to the
// prepare phase. Polls after Stop have no effect.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasRunning := t.running
	t.running = false
	t.paused = false
	t.status = logic.InitialStatus()
	t.events.clear()
	t.clock.reset()
	if wasRunning {
		t.opts.Logger.Printf("timer: stopped")
	}
}

// Reset is an alias for Stop.
func (t *Timer) Reset() {
	t.Stop()
}

// Poll advances the run by the real time elapsed since the previous poll and
// queues an event for every phase boundary crossed. It returns the number of
// events queued.
func (t *Timer) Poll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pollLocked(t.opts.Now())
}

// Suspend is called when the host goes to the background. It accounts the
// time up to now; polling continues, and a throttled poller simply sees a
// larger gap on its next poll.
func (t *Timer) Suspend() {
	t.Poll()
}

// Foreground is called when the host returns to the foreground. It polls
// immediately so the catch-up happens without waiting for the next tick.
func (t *Timer) Foreground() int {
	return t.Poll()
}

func (t *Timer) pollLocked(now time.Time) int {
	if !t.running || t.paused {
		return 0
	}
	elapsed := t.clock.observe(now)
	if elapsed <= 0 {
		return 0
	}

	status, events := logic.Advance(t.status, t.workout, elapsed, now)
	completed := status.WorkoutCompleted && !t.status.WorkoutCompleted
	t.status = status
	t.pushLocked(events...)
	if completed {
		t.opts.Logger.Printf("timer: %q complete", t.workout.Name)
	}
	return len(events)
}

func (t *Timer) pushLocked(events ...logic.Event) {
	for i := range events {
		t.nextID++
		events[i].ID = t.nextID
	}
	t.events.push(events...)
}

// DrainEvents returns the events queued since the previous drain, oldest
// first, and clears the queue.
func (t *Timer) DrainEvents() []logic.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events.drain()
}

// Drain is DrainEvents plus whether the run was paused, read under the same
// lock so a concurrent Pause can't land between the two.
func (t *Timer) Drain() (events []logic.Event, paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events.drain(), t.paused
}

// Status returns a copy of the current countdown status.
func (t *Timer) Status() logic.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// State returns a read-only view of the run for display.
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerState{
		Status:  t.status,
		Workout: t.workout.Clone(),
		Running: t.running,
		Paused:  t.paused,
	}
}

// Paused reports whether the run is paused.
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Running reports whether a run has been started and not stopped.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Workout returns the snapshot of the workout being run.
func (t *Timer) Workout() workout.Workout {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workout.Clone()
}
