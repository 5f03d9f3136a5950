// Package logic contains the pure phase-sequencing rules for interval workouts
// and the listening-protection cycle.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/interval-timer/internal/workout"
)

// Phase is one labeled interval of a workout run.
type Phase string

const (
	PhasePrepare  Phase = "prepare"
	PhaseWork     Phase = "work"
	PhaseRest     Phase = "rest"
	PhaseSetRest  Phase = "set_rest"
	PhaseFinished Phase = "finished"
)

// PrepareTime is the countdown in seconds before the first work phase.
const PrepareTime = workout.PrepareTime

// Status is the countdown state of a workout run.
type Status struct {
	Phase             Phase
	CurrentSet        int // 1-based
	CurrentRoundIndex int // index into Workout.Rounds
	TimeLeftInPhase   int // seconds
	TotalPhaseTime    int // seconds
	WorkoutCompleted  bool
}

// InitialStatus returns the status of a run that has just started.
func InitialStatus() Status {
	return Status{
		Phase:           PhasePrepare,
		CurrentSet:      1,
		TimeLeftInPhase: PrepareTime,
		TotalPhaseTime:  PrepareTime,
	}
}

// Event records one phase boundary crossing of a workout run.
type Event struct {
	ID         uint64 // assigned by the owning engine, strictly increasing
	Phase      Phase  // phase that was entered
	Set        int
	RoundIndex int
	OccurredAt time.Time
}

// ProtectionPhase is a phase of the listening-protection cycle.
type ProtectionPhase string

const (
	PhaseListen        ProtectionPhase = "listen"
	PhaseEarRest       ProtectionPhase = "ear_rest"
	PhaseExtendedBreak ProtectionPhase = "extended_break"
)

// Default protection cycle durations in seconds.
const (
	DefaultListenTime        = 3600
	DefaultEarRestTime       = 900
	DefaultExtendedBreakTime = 3600
	DefaultProtectionCycles  = 3
)

// ProtectionConfig holds the protection cycle durations (seconds) and the
// number of listen cycles before an extended break.
type ProtectionConfig struct {
	ListenTime        int
	EarRestTime       int
	ExtendedBreakTime int
	Cycles            int
}

// DefaultProtectionConfig returns the standard one-hour listening schedule.
func DefaultProtectionConfig() ProtectionConfig {
	return ProtectionConfig{
		ListenTime:        DefaultListenTime,
		EarRestTime:       DefaultEarRestTime,
		ExtendedBreakTime: DefaultExtendedBreakTime,
		Cycles:            DefaultProtectionCycles,
	}
}

// ProtectionState is the countdown state of the listening-protection cycle.
type ProtectionState struct {
	Active     bool
	Phase      ProtectionPhase
	TimeLeft   int // seconds
	CycleCount int // 1-based
}

// ProtectionEvent records one protection phase boundary crossing.
type ProtectionEvent struct {
	ID         uint64
	Phase      ProtectionPhase // phase that was entered
	CycleCount int
	OccurredAt time.Time
}
