// Package workout defines interval workout plans: sets of ordered rounds,
// each with its own work and rest durations.
package workout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validation errors returned by Validate.
var (
	ErrNoRounds     = errors.New("workout has no rounds")
	ErrInvalidSets  = errors.New("workout sets must be at least 1")
	ErrNegativeTime = errors.New("durations must not be negative")
)

// Round is one exercise with its own work and rest time, in whole seconds.
type Round struct {
	ID           string `json:"id" yaml:"id"`
	ExerciseName string `json:"exercise_name" yaml:"exercise"`
	WorkTime     int    `json:"work_time" yaml:"work"`
	RestTime     int    `json:"rest_time" yaml:"rest"`
}

// Workout is a plan of Sets passes through Rounds, with SetRestTime seconds
// between consecutive sets.
type Workout struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Sets        int     `json:"sets" yaml:"sets"`
	SetRestTime int     `json:"set_rest_time" yaml:"set_rest"`
	Rounds      []Round `json:"rounds" yaml:"rounds"`
}

// PrepareTime is the countdown in seconds before the first work phase.
const PrepareTime = 5

// New creates a workout with a fresh ID. Rounds without an ID get one.
func New(name string, sets, setRestTime int, rounds ...Round) Workout {
	w := Workout{
		ID:          uuid.NewString(),
		Name:        name,
		Sets:        sets,
		SetRestTime: setRestTime,
		Rounds:      rounds,
	}
	w.AssignIDs()
	return w
}

// NewRound creates a round with a fresh ID.
func NewRound(exercise string, work, rest int) Round {
	return Round{
		ID:           uuid.NewString(),
		ExerciseName: exercise,
		WorkTime:     work,
		RestTime:     rest,
	}
}

// AssignIDs fills in missing workout and round IDs.
func (w *Workout) AssignIDs() {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	for i := range w.Rounds {
		if w.Rounds[i].ID == "" {
			w.Rounds[i].ID = uuid.NewString()
		}
	}
}

// Validate checks the invariants a workout must hold before it can be run.
func (w Workout) Validate() error {
	if len(w.Rounds) == 0 {
		return ErrNoRounds
	}
	if w.Sets < 1 {
		return fmt.Errorf("sets=%d: %w", w.Sets, ErrInvalidSets)
	}
	if w.SetRestTime < 0 {
		return fmt.Errorf("set rest %d: %w", w.SetRestTime, ErrNegativeTime)
	}
	for i, r := range w.Rounds {
		if r.WorkTime < 0 || r.RestTime < 0 {
			return fmt.Errorf("round %d (%s): %w", i, r.ExerciseName, ErrNegativeTime)
		}
	}
	return nil
}

// Clone returns a deep copy, so a running timer is unaffected by later edits.
func (w Workout) Clone() Workout {
	c := w
	c.Rounds = append([]Round(nil), w.Rounds...)
	return c
}

// IsFinalRound reports whether roundIndex is the last exercise of the last set.
func (w Workout) IsFinalRound(set, roundIndex int) bool {
	return set >= w.Sets && roundIndex >= len(w.Rounds)-1
}

// TotalDuration returns the full length of a run in seconds, including the
// prepare countdown.
func (w Workout) TotalDuration() int {
	perSet := 0
	for _, r := range w.Rounds {
		perSet += r.WorkTime + r.RestTime
	}
	if w.Sets < 1 {
		return PrepareTime
	}
	return PrepareTime + w.Sets*perSet + (w.Sets-1)*w.SetRestTime
}
