package cues

import (
	"fmt"
	"log"

	"github.com/sweeney/interval-timer/internal/logic"
	"github.com/sweeney/interval-timer/internal/workout"
)

// WorkoutSource is the part of engine.Timer the workout cues read.
type WorkoutSource interface {
	Drain() (events []logic.Event, paused bool)
	Status() logic.Status
	Workout() workout.Workout
	Running() bool
	Paused() bool
}

// Per-phase tone frequencies.
var phaseFreq = map[logic.Phase]float64{
	logic.PhasePrepare: 440,
	logic.PhaseWork:    880,
	logic.PhaseRest:    660,
	logic.PhaseSetRest: 587,
}

// WorkoutCues replays workout transition events as cues. Dispatch is meant
// to be the Scheduler's after hook.
type WorkoutCues struct {
	src    WorkoutSource
	send   sender
	logger *log.Logger
	beeps  countdown
}

// NewWorkoutCues creates a dispatcher for src.
func NewWorkoutCues(src WorkoutSource, out Outputs, run Runner, logger *log.Logger) *WorkoutCues {
	return &WorkoutCues{
		src:    src,
		send:   sender{out: out, run: run},
		logger: discardLogger(logger),
	}
}

// Dispatch drains the queue and replays the events in order. Events drained
// while the run is paused are discarded.
func (c *WorkoutCues) Dispatch() {
	events, paused := c.src.Drain()
	if paused {
		if len(events) > 0 {
			c.logger.Printf("cues: discarded %d events while paused", len(events))
		}
		return
	}

	var w workout.Workout
	if len(events) > 0 {
		w = c.src.Workout()
	}
	for _, e := range events {
		c.replay(e, w)
	}

	c.countdown()
}

func (c *WorkoutCues) replay(e logic.Event, w workout.Workout) {
	text := Announcement(e, w)
	c.send.workoutEvent(e, text)

	boundary := &cue{name: string(e.Phase)}
	if e.Phase == logic.PhaseFinished {
		c.send.melody(boundary, CompletionMelody, CompletionStep)
		c.send.announce(boundary, text)
	} else {
		c.send.tone(boundary, phaseFreq[e.Phase], ToneLength)
		c.send.announce(boundary, text)
		c.send.notify(boundary, w.Name, fmt.Sprintf("%s (set %d of %d)", text, e.Set, w.Sets))
	}
	c.send.play(boundary)
}

func (c *WorkoutCues) countdown() {
	if !c.src.Running() || c.src.Paused() {
		return
	}
	s := c.src.Status()
	if s.WorkoutCompleted {
		return
	}
	key := fmt.Sprintf("%s/%d/%d/%d", s.Phase, s.CurrentSet, s.CurrentRoundIndex, s.TimeLeftInPhase)
	if c.beeps.due(key, s.TimeLeftInPhase, s.TotalPhaseTime) {
		c.send.beep()
	}
}

// Announcement returns the text announced when e's phase begins.
func Announcement(e logic.Event, w workout.Workout) string {
	switch e.Phase {
	case logic.PhasePrepare:
		return "PREPARE"
	case logic.PhaseWork:
		if e.RoundIndex >= 0 && e.RoundIndex < len(w.Rounds) {
			return w.Rounds[e.RoundIndex].ExerciseName
		}
		return "WORK"
	case logic.PhaseRest:
		return "REST"
	case logic.PhaseSetRest:
		return "SET REST"
	case logic.PhaseFinished:
		return "FINISHED"
	}
	return string(e.Phase)
}
