package logic

import (
	"time"

	"github.com/sweeney/interval-timer/internal/workout"
)

// Advance fast-forwards s by elapsed seconds of real time, crossing as many
// phase boundaries as the elapsed span covers. Each crossing yields one event
// (with ID zero) stamped at the instant the boundary was reached, assuming the
// span ended at now. Zero-length phases are crossed without consuming time.
// A negative elapsed value is treated as zero.
func Advance(s Status, w workout.Workout, elapsed int, now time.Time) (Status, []Event) {
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := elapsed
	cursor := now.Add(-time.Duration(elapsed) * time.Second)

	var events []Event
	for !s.WorkoutCompleted {
		if s.TimeLeftInPhase <= 0 {
			next, ok := Transition(s, w)
			if !ok {
				break
			}
			s = next
			events = append(events, Event{
				Phase:      s.Phase,
				Set:        s.CurrentSet,
				RoundIndex: s.CurrentRoundIndex,
				OccurredAt: cursor,
			})
			continue
		}

		if remaining < s.TimeLeftInPhase {
			s.TimeLeftInPhase -= remaining
			break
		}

		cursor = cursor.Add(time.Duration(s.TimeLeftInPhase) * time.Second)
		remaining -= s.TimeLeftInPhase
		s.TimeLeftInPhase = 0
	}
	return s, events
}
