// Package engine runs the workout timer and the listening-protection cycle
// against real elapsed time. Each engine instance owns its own state; engines
// are driven by a Scheduler and publish phase boundaries to an event queue
// that consumers drain.
package engine

import "time"

// Clock returns the current instant.
type Clock func() time.Time

// DefaultPollInterval is how often a Scheduler polls its engine. Correctness
// does not depend on it; it only bounds display latency.
const DefaultPollInterval = 250 * time.Millisecond

// stopwatch converts successive observations of the clock into whole elapsed
// seconds, carrying the sub-second remainder into the next observation.
// Not safe for concurrent use; engines guard it with their own mutex.
type stopwatch struct {
	last     time.Time
	leftover time.Duration
}

// observe returns the whole seconds elapsed since the previous observation.
// The first observation after a reset only records the baseline. A clock that
// went backwards yields zero and re-baselines.
func (sw *stopwatch) observe(now time.Time) int {
	// Wall time, so that a host sleep is charged as elapsed time.
	now = now.Round(0)
	if sw.last.IsZero() {
		sw.last = now
		sw.leftover = 0
		return 0
	}

	delta := now.Sub(sw.last) + sw.leftover
	sw.last = now
	if delta < 0 {
		sw.leftover = 0
		return 0
	}

	seconds := int(delta / time.Second)
	sw.leftover = delta - time.Duration(seconds)*time.Second
	return seconds
}

// reset forgets the baseline and any carried remainder.
func (sw *stopwatch) reset() {
	sw.last = time.Time{}
	sw.leftover = 0
}
