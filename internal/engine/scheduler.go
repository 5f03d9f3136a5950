package engine

import (
	"context"
	"time"
)

// Poller is an engine that can be advanced to the current time.
type Poller interface {
	Poll() int
}

// Scheduler polls one engine on every tick and on demand. After each poll it
// calls the optional after hook, which is where queued events get drained.
type Scheduler struct {
	poller Poller
	after  func()
	wake   chan struct{}
}

// NewScheduler creates a Scheduler for poller. after may be nil.
func NewScheduler(poller Poller, after func()) *Scheduler {
	return &Scheduler{
		poller: poller,
		after:  after,
		wake:   make(chan struct{}, 1),
	}
}

// Run polls on every value received from tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.PollNow()
		case <-s.wake:
			s.PollNow()
		}
	}
}

// Wake requests one immediate out-of-cadence poll, e.g. when the host comes
// back to the foreground. Requests made while one is pending are merged.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// PollNow polls the engine and runs the after hook on the caller's goroutine.
func (s *Scheduler) PollNow() {
	s.poller.Poll()
	if s.after != nil {
		s.after()
	}
}
