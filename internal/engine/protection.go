package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/interval-timer/internal/logic"
)

// ErrInvalidProtectionConfig is returned for negative durations or fewer
// than one cycle.
var ErrInvalidProtectionConfig = errors.New("invalid protection cycle config")

// Protection runs the listening-protection cycle. It is clocked on its own
// and independent of any workout run.
type Protection struct {
	mu     sync.Mutex
	opts   Options
	cfg    logic.ProtectionConfig
	state  logic.ProtectionState
	clock  stopwatch
	events queue[logic.ProtectionEvent]
	nextID uint64
}

// NewProtection creates an inactive protection cycle with default durations.
func NewProtection(opts Options) *Protection {
	cfg := logic.DefaultProtectionConfig()
	return &Protection{
		opts:  opts.withDefaults(),
		cfg:   cfg,
		state: logic.StoppedProtection(cfg),
	}
}

// StartProtectionCycle (re)starts the cycle at the first listen phase. The
// listen phase must last at least a second.
func (p *Protection) StartProtectionCycle(cfg logic.ProtectionConfig) error {
	if cfg.Cycles < 1 || cfg.ListenTime < 1 || cfg.EarRestTime < 0 || cfg.ExtendedBreakTime < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidProtectionConfig, cfg)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.opts.Now()
	p.cfg = cfg
	p.state = logic.StartProtection(cfg)
	p.events.clear()
	p.clock.reset()
	p.clock.observe(now)
	p.pushLocked(logic.ProtectionEvent{
		Phase:      p.state.Phase,
		CycleCount: p.state.CycleCount,
		OccurredAt: now,
	})
	p.opts.Logger.Printf("protection: started (listen %ds, ear rest %ds, extended break %ds every %d cycles)",
		cfg.ListenTime, cfg.EarRestTime, cfg.ExtendedBreakTime, cfg.Cycles)
	return nil
}

// StopProtectionCycle returns the cycle to its inactive defaults and
// discards queued events.
func (p *Protection) StopProtectionCycle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasActive := p.state.Active
	p.state = logic.StoppedProtection(p.cfg)
	p.events.clear()
	p.clock.reset()
	if wasActive {
		p.opts.Logger.Printf("protection: stopped")
	}
}

// Poll advances the cycle by the real time elapsed since the previous poll.
// It returns the number of events queued.
func (p *Protection) Poll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pollLocked(p.opts.Now())
}

// Suspend accounts the time up to now before the host goes to the background.
func (p *Protection) Suspend() {
	p.Poll()
}

// Foreground is called when the host returns to the foreground. It polls
// immediately so the catch-up happens without waiting for the next tick.
func (p *Protection) Foreground() int {
	return p.Poll()
}

func (p *Protection) pollLocked(now time.Time) int {
	if !p.state.Active {
		return 0
	}
	elapsed := p.clock.observe(now)
	if elapsed <= 0 {
		return 0
	}

	state, events := logic.AdvanceProtection(p.state, p.cfg, elapsed, now)
	p.state = state
	p.pushLocked(events...)
	return len(events)
}

func (p *Protection) pushLocked(events ...logic.ProtectionEvent) {
	for i := range events {
		p.nextID++
		events[i].ID = p.nextID
	}
	p.events.push(events...)
}

// DrainEvents returns the events queued since the previous drain, oldest
// first, and clears the queue.
func (p *Protection) DrainEvents() []logic.ProtectionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events.drain()
}

// ProtectionState returns a copy of the current cycle state.
func (p *Protection) ProtectionState() logic.ProtectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Config returns the durations the cycle is running with.
func (p *Protection) Config() logic.ProtectionConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}
