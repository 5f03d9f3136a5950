package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/interval-timer/internal/ambient"
	"github.com/sweeney/interval-timer/internal/cues"
	"github.com/sweeney/interval-timer/internal/engine"
	"github.com/sweeney/interval-timer/internal/gpio"
	"github.com/sweeney/interval-timer/internal/logic"
	"github.com/sweeney/interval-timer/internal/mqtt"
	"github.com/sweeney/interval-timer/internal/status"
	"github.com/sweeney/interval-timer/internal/store"
	"github.com/sweeney/interval-timer/internal/workout"
)

var discard = log.New(io.Discard, "", 0)

// manualClock only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- runLoop tests ---

// runRunLoop drives runLoop with the given heartbeats and then a final
// signal, returning the error.
func runRunLoop(t *testing.T, pub mqtt.Publisher, tracker *status.Tracker, foreground func(), heartbeats int, signals ...os.Signal) error {
	t.Helper()
	hb := make(chan time.Time)
	sig := make(chan os.Signal)
	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	var connStatus mqtt.ConnectionStatus
	if fake, ok := pub.(*mqtt.FakePublisher); ok {
		connStatus = fake
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(pub, connStatus, tracker, foreground, now, hb, sig, discard)
	}()

	for i := 0; i < heartbeats; i++ {
		hb <- now()
	}
	for _, s := range signals {
		sig <- s
	}

	return <-errCh
}

func newTestTracker() *status.Tracker {
	return status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{PollMs: 250})
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	err := runRunLoop(t, pub, newTestTracker(), func() {}, 0, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := pub.SystemEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(events))
	}
	ev := events[0]
	if ev.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", ev.Event)
	}
	if ev.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", ev.Reason)
	}
	if !ev.Retained {
		t.Error("expected SHUTDOWN to be retained")
	}
	if !strings.Contains(string(ev.RawPayload), `"reason":"SIGTERM"`) {
		t.Errorf("payload missing reason: %s", ev.RawPayload)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	if err := runRunLoop(t, pub, newTestTracker(), func() {}, 0, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := pub.SystemEvents()
	if len(events) != 1 || events[0].Reason != "SIGINT" {
		t.Fatalf("expected one SHUTDOWN with reason SIGINT, got %+v", events)
	}
}

func TestRunLoopSIGCONTCatchesUp(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	calls := 0

	err := runRunLoop(t, pub, newTestTracker(), func() { calls++ }, 0, syscall.SIGCONT, syscall.SIGCONT, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if calls != 2 {
		t.Errorf("expected 2 foreground calls, got %d", calls)
	}
	if n := len(pub.SystemEvents()); n != 1 {
		t.Errorf("SIGCONT must not publish; expected 1 system event, got %d", n)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.SetConnected(true)
	tracker := newTestTracker()

	if err := runRunLoop(t, pub, tracker, func() {}, 2, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := pub.SystemEvents()
	if len(events) != 3 {
		t.Fatalf("expected 2 heartbeats and a shutdown, got %d events", len(events))
	}
	for i, ev := range events[:2] {
		if ev.Event != "HEARTBEAT" {
			t.Errorf("event %d: expected HEARTBEAT, got %q", i, ev.Event)
		}
		if ev.Retained {
			t.Errorf("event %d: heartbeat should not be retained", i)
		}
		if !strings.Contains(string(ev.RawPayload), `"event":"HEARTBEAT"`) {
			t.Errorf("event %d: payload missing event: %s", i, ev.RawPayload)
		}
	}
	if !tracker.Snapshot().MQTTConnected {
		t.Error("heartbeat should refresh the MQTT connection status")
	}
}

func TestRunLoopPublishError(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishSystemError = errors.New("broker down")

	if err := runRunLoop(t, pub, newTestTracker(), func() {}, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("publish errors must not stop the loop, got %v", err)
	}
}

func TestRunLoopWithoutBroker(t *testing.T) {
	if err := runRunLoop(t, nil, newTestTracker(), func() {}, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

// --- workout selection ---

const workoutsYAML = `workouts:
  - name: Tabata
    sets: 2
    set_rest: 60
    rounds:
      - {exercise: Squats, work: 20, rest: 10}
  - name: Core
    rounds:
      - {exercise: Plank, work: 45, rest: 15}
`

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeWorkouts(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workouts.yaml")
	if err := os.WriteFile(path, []byte(workoutsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportWorkoutsTwiceKeepsOneCopy(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	path := writeWorkouts(t)

	for i := 0; i < 2; i++ {
		n, err := importWorkouts(ctx, db, path)
		if err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
		if n != 2 {
			t.Errorf("import %d: expected 2 workouts, got %d", i, n)
		}
	}

	all, err := db.ListWorkouts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 stored workouts, got %d", len(all))
	}
}

func TestImportWorkoutsMissingFile(t *testing.T) {
	db := openTestStore(t)
	if _, err := importWorkouts(context.Background(), db, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSelectWorkout(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	if _, err := importWorkouts(ctx, db, writeWorkouts(t)); err != nil {
		t.Fatal(err)
	}

	w, err := selectWorkout(ctx, db, "tabata")
	if err != nil {
		t.Fatalf("select by name: %v", err)
	}
	if w.Name != "Tabata" {
		t.Errorf("expected Tabata, got %q", w.Name)
	}

	byID, err := selectWorkout(ctx, db, w.ID)
	if err != nil || byID.Name != "Tabata" {
		t.Errorf("select by id: got %q, %v", byID.Name, err)
	}

	if _, err := selectWorkout(ctx, db, "last"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound before any run, got %v", err)
	}
	if err := db.SetLastWorkout(ctx, w.ID); err != nil {
		t.Fatal(err)
	}
	last, err := selectWorkout(ctx, db, "last")
	if err != nil || last.ID != w.ID {
		t.Errorf("select last: got %q, %v", last.ID, err)
	}

	if _, err := selectWorkout(ctx, db, "Yoga"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown workout, got %v", err)
	}
}

// --- daemon wiring ---

type daemonFixture struct {
	d       *daemon
	clock   *manualClock
	pub     *mqtt.FakePublisher
	buzzer  *gpio.FakeBuzzer
	sensor  *gpio.FakeSensor
	tracker *status.Tracker
	openErr error
}

func newDaemonFixture(t *testing.T, protCfg logic.ProtectionConfig) *daemonFixture {
	t.Helper()
	f := &daemonFixture{
		clock:   newManualClock(),
		pub:     mqtt.NewFakePublisher(),
		buzzer:  gpio.NewFakeBuzzer(),
		sensor:  gpio.NewFakeSensor(true),
		tracker: newTestTracker(),
	}
	sampler := ambient.NewSampler(func() (gpio.SoundSensor, error) {
		if f.openErr != nil {
			return nil, f.openErr
		}
		return f.sensor, nil
	}, ambient.Options{Ticks: make(chan time.Time)})
	t.Cleanup(sampler.Stop)

	f.d = newDaemon(daemonOptions{
		Timer:      engine.NewTimer(engine.Options{Now: f.clock.Now}),
		Protection: engine.NewProtection(engine.Options{Now: f.clock.Now}),
		ProtCfg:    protCfg,
		Outputs: cues.Outputs{
			Toner:     f.buzzer,
			Announcer: f.pub,
			Notifier:  f.pub,
			Events:    f.pub,
		},
		Runner:     cues.Inline{Logger: discard},
		Tracker:    f.tracker,
		MQTTStatus: f.pub,
		Sampler:    sampler,
		Logger:     discard,
	})
	return f
}

func TestDaemonWorkoutCues(t *testing.T) {
	f := newDaemonFixture(t, logic.DefaultProtectionConfig())
	w := workout.New("Tabata", 1, 0, workout.NewRound("Squats", 20, 10))

	if err := f.d.timer.Start(w); err != nil {
		t.Fatal(err)
	}
	f.d.workoutSched.PollNow()

	if got := f.pub.Announcements(); len(got) != 1 || got[0] != "PREPARE" {
		t.Errorf("expected [PREPARE], got %v", got)
	}
	tones := f.buzzer.Tones()
	if len(tones) != 1 || tones[0].FreqHz != 440 {
		t.Errorf("expected one 440Hz tone, got %+v", tones)
	}

	f.clock.Advance(5 * time.Second)
	f.d.workoutSched.PollNow()

	if got := f.pub.Announcements(); len(got) != 2 || got[1] != "Squats" {
		t.Errorf("expected WORK announcement, got %v", got)
	}
	snap := f.tracker.Snapshot()
	if snap.Timer.Status.Phase != logic.PhaseWork || snap.Timer.Status.TimeLeftInPhase != 20 {
		t.Errorf("tracker not updated: %+v", snap.Timer.Status)
	}
}

func TestDaemonPauseDropsCues(t *testing.T) {
	f := newDaemonFixture(t, logic.DefaultProtectionConfig())
	w := workout.New("Tabata", 1, 0, workout.NewRound("Squats", 20, 10))
	if err := f.d.timer.Start(w); err != nil {
		t.Fatal(err)
	}
	f.d.workoutSched.PollNow()

	f.d.Pause()
	f.d.workoutSched.PollNow()
	f.clock.Advance(time.Minute)
	f.d.workoutSched.PollNow()

	if !f.tracker.Snapshot().Timer.Paused {
		t.Error("tracker should show the run paused")
	}
	if n := len(f.pub.Announcements()); n != 1 {
		t.Errorf("expected no cues while paused, got %d announcements", n)
	}

	f.d.Resume()
	f.clock.Advance(5 * time.Second)
	f.d.workoutSched.PollNow()
	if n := len(f.pub.Announcements()); n != 2 {
		t.Errorf("expected WORK after resume, got %d announcements", n)
	}

	f.d.Stop()
	f.d.workoutSched.PollNow()
	if f.tracker.Snapshot().Timer.Running {
		t.Error("tracker should show the run stopped")
	}
}

func TestDaemonProtectionSamplesWhileListening(t *testing.T) {
	cfg := logic.ProtectionConfig{ListenTime: 60, EarRestTime: 30, ExtendedBreakTime: 120, Cycles: 2}
	f := newDaemonFixture(t, cfg)

	if err := f.d.StartProtection(); err != nil {
		t.Fatal(err)
	}
	f.d.protectionSched.PollNow()

	snap := f.tracker.Snapshot()
	if !snap.Protection.Active || snap.Protection.Phase != logic.PhaseListen {
		t.Fatalf("expected active listen phase, got %+v", snap.Protection)
	}
	if !snap.Sampling {
		t.Error("sensor should be sampling during listen")
	}
	if got := f.pub.Announcements(); len(got) != 1 || got[0] != "LISTEN" {
		t.Errorf("expected [LISTEN], got %v", got)
	}

	f.clock.Advance(60 * time.Second)
	f.d.protectionSched.PollNow()

	snap = f.tracker.Snapshot()
	if snap.Protection.Phase != logic.PhaseEarRest {
		t.Fatalf("expected ear rest, got %s", snap.Protection.Phase)
	}
	if snap.Sampling {
		t.Error("sensor should be released outside listen")
	}
	if !f.sensor.Closed() {
		t.Error("sensor should be closed")
	}

	f.d.StopProtection()
	f.d.protectionSched.PollNow()
	if f.tracker.Snapshot().Protection.Active {
		t.Error("protection should be inactive after stop")
	}
}

func TestDaemonRetriesSensorDuringListen(t *testing.T) {
	cfg := logic.ProtectionConfig{ListenTime: 60, EarRestTime: 30, ExtendedBreakTime: 120, Cycles: 2}
	f := newDaemonFixture(t, cfg)
	f.openErr = errors.New("device busy")

	if err := f.d.StartProtection(); err != nil {
		t.Fatal(err)
	}
	f.d.protectionSched.PollNow()
	if f.tracker.Snapshot().Sampling {
		t.Fatal("sensor should not be sampling while it can't be opened")
	}

	f.openErr = nil
	f.clock.Advance(time.Second)
	f.d.protectionSched.PollNow()
	if !f.tracker.Snapshot().Sampling {
		t.Error("sensor should be acquired on a later poll in the same listen phase")
	}
}

func TestDaemonStartProtectionInvalidConfig(t *testing.T) {
	f := newDaemonFixture(t, logic.ProtectionConfig{Cycles: 0})

	err := f.d.StartProtection()
	if !errors.Is(err, engine.ErrInvalidProtectionConfig) {
		t.Fatalf("expected ErrInvalidProtectionConfig, got %v", err)
	}
}

func TestDaemonForegroundCatchesUp(t *testing.T) {
	f := newDaemonFixture(t, logic.DefaultProtectionConfig())
	w := workout.New("Tabata", 1, 0, workout.NewRound("Squats", 20, 10))
	if err := f.d.timer.Start(w); err != nil {
		t.Fatal(err)
	}
	f.d.workoutSched.PollNow()

	// Host was asleep long enough to finish the whole run.
	f.clock.Advance(time.Hour)
	f.d.foreground()

	if !f.d.timer.Status().WorkoutCompleted {
		t.Fatal("expected workout completed after catch-up")
	}
	// The queued transitions are replayed on the next poll.
	f.d.workoutSched.PollNow()
	got := f.pub.Announcements()
	if got[len(got)-1] != "FINISHED" {
		t.Errorf("expected completion announcement last, got %v", got)
	}
}
