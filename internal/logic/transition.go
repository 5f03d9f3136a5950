package logic

import "github.com/sweeney/interval-timer/internal/workout"

// Transition returns the status that follows s once its phase has expired.
// Callers must only call it when s.TimeLeftInPhase == 0.
//
// The boolean is false when no transition exists (the run is finished or the
// status does not fit the workout); the returned status is then s unchanged.
func Transition(s Status, w workout.Workout) (Status, bool) {
	if len(w.Rounds) == 0 || s.CurrentRoundIndex < 0 || s.CurrentRoundIndex >= len(w.Rounds) {
		return s, false
	}

	switch s.Phase {
	case PhasePrepare:
		return enterWork(s, s.CurrentSet, 0, w), true

	case PhaseWork:
		round := w.Rounds[s.CurrentRoundIndex]
		if round.RestTime > 0 {
			return enter(s, PhaseRest, round.RestTime), true
		}
		return afterRound(s, w), true

	case PhaseRest:
		return afterRound(s, w), true

	case PhaseSetRest:
		next := s.CurrentSet + 1
		if next > w.Sets {
			return finish(s), true
		}
		return enterWork(s, next, 0, w), true
	}

	return s, false
}

// afterRound picks the phase that follows the last phase of the current round.
func afterRound(s Status, w workout.Workout) Status {
	if w.IsFinalRound(s.CurrentSet, s.CurrentRoundIndex) {
		return finish(s)
	}
	if s.CurrentRoundIndex < len(w.Rounds)-1 {
		return enterWork(s, s.CurrentSet, s.CurrentRoundIndex+1, w)
	}
	return enter(s, PhaseSetRest, w.SetRestTime)
}

func enterWork(s Status, set, roundIndex int, w workout.Workout) Status {
	s.CurrentSet = set
	s.CurrentRoundIndex = roundIndex
	return enter(s, PhaseWork, w.Rounds[roundIndex].WorkTime)
}

func enter(s Status, phase Phase, seconds int) Status {
	s.Phase = phase
	s.TimeLeftInPhase = seconds
	s.TotalPhaseTime = seconds
	s.WorkoutCompleted = false
	return s
}

func finish(s Status) Status {
	s = enter(s, PhaseFinished, 0)
	s.WorkoutCompleted = true
	return s
}
