package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/interval-timer/internal/engine"
	"github.com/sweeney/interval-timer/internal/logic"
	"github.com/sweeney/interval-timer/internal/status"
	"github.com/sweeney/interval-timer/internal/workout"
)

type fakeSource struct {
	snap  status.Snapshot
	reads int
}

func (f *fakeSource) Snapshot() status.Snapshot {
	f.reads++
	return f.snap
}

type fakeController struct {
	calls []string
	err   error
}

func (f *fakeController) Pause() { f.calls = append(f.calls, "pause") }
func (f *fakeController) Resume() { f.calls = append(f.calls, "resume") }
func (f *fakeController) Stop() { f.calls = append(f.calls, "stop") }
func (f *fakeController) StopProtection() { f.calls = append(f.calls, "protection-stop") }
func (f *fakeController) StartProtection() error {
	f.calls = append(f.calls, "protection-start")
	return f.err
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runningSnapshot() status.Snapshot {
	return status.Snapshot{
		Timer: engine.TimerState{
			Status: logic.Status{Phase: logic.PhaseWork, CurrentSet: 1, CurrentRoundIndex: 0, TimeLeftInPhase: 42, TotalPhaseTime: 45},
			Workout: workout.New("Leg day", 3, 60,
				workout.NewRound("Squats", 45, 15),
				workout.NewRound("Lunges", 45, 15),
			),
			Running: true,
		},
	}
}

func TestTickRefreshesSnapshot(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src, nil)
	assert.Contains(t, m.View(), "No workout running")

	src.snap = runningSnapshot()
	m.Update(MsgTick{})

	view := m.View()
	assert.Contains(t, view, "Leg day")
	assert.Contains(t, view, "00:42")
	assert.Contains(t, view, "WORK")
	assert.Contains(t, view, "Squats")
	assert.Contains(t, view, "set 1/3 • round 1/2")
}

func TestPauseToggles(t *testing.T) {
	src := &fakeSource{snap: runningSnapshot()}
	ctrl := &fakeController{}
	m := NewModel(src, ctrl)

	m.Update(key("p"))
	src.snap.Timer.Paused = true
	m.Update(MsgTick{})
	m.Update(key("p"))

	assert.Equal(t, []string{"pause", "resume"}, ctrl.calls)
}

func TestControlKeys(t *testing.T) {
	src := &fakeSource{snap: runningSnapshot()}
	ctrl := &fakeController{}
	m := NewModel(src, ctrl)

	m.Update(key("r"))
	m.Update(key("s"))
	m.Update(key("l"))
	src.snap.Protection.Active = true
	m.Update(MsgTick{})
	m.Update(key("l"))
	m.Update(key("x"))

	assert.Equal(t, []string{"resume", "stop", "protection-start", "protection-stop"}, ctrl.calls)
}

func TestProtectionStartError(t *testing.T) {
	src := &fakeSource{}
	ctrl := &fakeController{err: errors.New("invalid protection cycle config")}
	m := NewModel(src, ctrl)

	m.Update(key("l"))
	assert.Contains(t, m.View(), "invalid protection cycle config")

	m.Update(key("s"))
	assert.NotContains(t, m.View(), "invalid protection cycle config", "error clears on the next action")
}

func TestQuit(t *testing.T) {
	m := NewModel(&fakeSource{}, nil)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
}

func TestReadOnlyIgnoresControlKeys(t *testing.T) {
	m := NewModel(&fakeSource{snap: runningSnapshot()}, nil)

	_, cmd := m.Update(key("s"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "q quit")
	assert.NotContains(t, m.View(), "s stop")
}

func TestProtectionView(t *testing.T) {
	cfg := logic.DefaultProtectionConfig()
	snap := status.Snapshot{
		Protection:       logic.ProtectionState{Active: true, Phase: logic.PhaseEarRest, TimeLeft: 800, CycleCount: 2},
		ProtectionConfig: cfg,
		Sampling:         true,
		AmbientLevel:     0.3,
	}
	m := NewModel(&fakeSource{snap: snap}, nil)

	view := m.View()
	assert.Contains(t, view, "EAR REST")
	assert.Contains(t, view, "13:20")
	assert.Contains(t, view, "cycle 2/3")
	assert.Contains(t, view, "sound 30%")
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00", formatSeconds(-4))
	assert.Equal(t, "00:05", formatSeconds(5))
	assert.Equal(t, "15:00", formatSeconds(900))
	assert.Equal(t, "1:00:00", formatSeconds(3600))
}
