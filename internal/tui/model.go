// Package tui is a terminal readout of the daemon with keyboard control.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/interval-timer/internal/status"
)

// MsgTick asks the model to refresh from its source.
type MsgTick struct{}

// Source provides the state shown on screen.
type Source interface {
	Snapshot() status.Snapshot
}

// Controller receives the keyboard actions.
type Controller interface {
	Pause()
	Resume()
	Stop()
	StartProtection() error
	StopProtection()
}

// Model is the bubbletea model for the readout.
type Model struct {
	src     Source
	control Controller
	snap    status.Snapshot
	Err     error
}

// NewModel creates a Model reading from src. control may be nil for a
// read-only readout.
func NewModel(src Source, control Controller) *Model {
	return &Model{src: src, control: control, snap: src.Snapshot()}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		m.snap = m.src.Snapshot()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	if m.control == nil {
		return m, nil
	}

	m.Err = nil
	switch msg.String() {
	case "p", " ":
		if m.snap.Timer.Paused {
			m.control.Resume()
		} else {
			m.control.Pause()
		}
	case "r":
		m.control.Resume()
	case "s":
		m.control.Stop()
	case "l":
		if m.snap.Protection.Active {
			m.control.StopProtection()
		} else {
			m.Err = m.control.StartProtection()
		}
	default:
		return m, nil
	}
	m.snap = m.src.Snapshot()
	return m, nil
}
