package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/interval-timer/internal/logic"
)

func newTestProtection(t *testing.T) (*Protection, *manualClock) {
	t.Helper()
	clock := newManualClock()
	return NewProtection(Options{Now: clock.Now}), clock
}

func TestProtectionStartStop(t *testing.T) {
	p, _ := newTestProtection(t)
	assert.False(t, p.ProtectionState().Active)

	require.NoError(t, p.StartProtectionCycle(logic.DefaultProtectionConfig()))
	assert.Equal(t, logic.ProtectionState{Active: true, Phase: logic.PhaseListen, TimeLeft: 3600, CycleCount: 1}, p.ProtectionState())

	events := p.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, logic.PhaseListen, events[0].Phase)

	p.StopProtectionCycle()
	assert.False(t, p.ProtectionState().Active)
	assert.Equal(t, 1, p.ProtectionState().CycleCount)
}

func TestProtectionRejectsInvalidConfig(t *testing.T) {
	p, _ := newTestProtection(t)

	err := p.StartProtectionCycle(logic.ProtectionConfig{ListenTime: 10, Cycles: 0})
	assert.ErrorIs(t, err, ErrInvalidProtectionConfig)

	err = p.StartProtectionCycle(logic.ProtectionConfig{ListenTime: -1, Cycles: 1})
	assert.ErrorIs(t, err, ErrInvalidProtectionConfig)
	assert.False(t, p.ProtectionState().Active)
}

func TestProtectionRejectsZeroListen(t *testing.T) {
	p, clock := newTestProtection(t)

	err := p.StartProtectionCycle(logic.ProtectionConfig{Cycles: 3})
	assert.ErrorIs(t, err, ErrInvalidProtectionConfig)
	err = p.StartProtectionCycle(logic.ProtectionConfig{EarRestTime: 5, ExtendedBreakTime: 5, Cycles: 3})
	assert.ErrorIs(t, err, ErrInvalidProtectionConfig)

	clock.Advance(5 * time.Second)
	assert.Equal(t, 0, p.Poll())
	assert.Empty(t, p.DrainEvents())
}

func TestProtectionFullCycle(t *testing.T) {
	p, clock := newTestProtection(t)
	require.NoError(t, p.StartProtectionCycle(logic.DefaultProtectionConfig()))
	p.DrainEvents()

	var phases []logic.ProtectionPhase
	var cycles []int
	// 3 listens, 2 ear rests, 1 extended break, polled each minute.
	for i := 0; i < (3*3600+2*900+3600)/60; i++ {
		clock.Advance(time.Minute)
		p.Poll()
		for _, e := range p.DrainEvents() {
			phases = append(phases, e.Phase)
			cycles = append(cycles, e.CycleCount)
		}
	}

	assert.Equal(t, []logic.ProtectionPhase{
		logic.PhaseEarRest, logic.PhaseListen,
		logic.PhaseEarRest, logic.PhaseListen,
		logic.PhaseExtendedBreak, logic.PhaseListen,
	}, phases)
	assert.Equal(t, []int{2, 2, 3, 3, 3, 1}, cycles)
}

func TestProtectionBackgroundGap(t *testing.T) {
	p, clock := newTestProtection(t)
	require.NoError(t, p.StartProtectionCycle(logic.DefaultProtectionConfig()))
	p.DrainEvents()

	clock.Advance(3700 * time.Second)
	assert.Equal(t, 1, p.Poll())

	state := p.ProtectionState()
	assert.Equal(t, logic.PhaseEarRest, state.Phase)
	assert.Equal(t, 800, state.TimeLeft)
	assert.Len(t, p.DrainEvents(), 1)
}

func TestProtectionStopHaltsPolls(t *testing.T) {
	p, clock := newTestProtection(t)
	require.NoError(t, p.StartProtectionCycle(logic.DefaultProtectionConfig()))
	clock.Advance(3700 * time.Second)
	p.Poll()

	p.StopProtectionCycle()
	assert.Empty(t, p.DrainEvents())
	clock.Advance(10 * time.Hour)
	assert.Equal(t, 0, p.Poll())
}

func TestProtectionIndependentOfTimer(t *testing.T) {
	clock := newManualClock()
	timer := NewTimer(Options{Now: clock.Now})
	p := NewProtection(Options{Now: clock.Now})
	require.NoError(t, timer.Start(twoByTwo()))
	require.NoError(t, p.StartProtectionCycle(logic.DefaultProtectionConfig()))

	timer.Pause()
	clock.Advance(10 * time.Second)
	p.Poll()
	timer.Poll()

	assert.Equal(t, 3590, p.ProtectionState().TimeLeft)
	assert.Equal(t, 5, timer.Status().TimeLeftInPhase)
}
