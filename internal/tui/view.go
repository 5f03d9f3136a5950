package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/interval-timer/internal/logic"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	countdownStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var phaseColor = map[logic.Phase]lipgloss.Color{
	logic.PhasePrepare:  lipgloss.Color("214"),
	logic.PhaseWork:     lipgloss.Color("196"),
	logic.PhaseRest:     lipgloss.Color("82"),
	logic.PhaseSetRest:  lipgloss.Color("69"),
	logic.PhaseFinished: lipgloss.Color("241"),
}

func formatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func (m *Model) View() string {
	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.workoutView()),
		boxStyle.Render(m.protectionView()),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Interval Timer"))
	b.WriteString("\n\n")
	b.WriteString(boxes)
	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString(errorStyle.Render(m.Err.Error()))
		b.WriteString("\n")
	}
	if m.control != nil {
		b.WriteString(helpStyle.Render("p pause/resume • r resume • s stop • l protection • q quit"))
	} else {
		b.WriteString(helpStyle.Render("q quit"))
	}
	return b.String()
}

func (m *Model) workoutView() string {
	ts := m.snap.Timer
	if !ts.Running {
		return labelStyle.Render("No workout running")
	}

	s := ts.Status
	style := countdownStyle.Foreground(phaseColor[s.Phase])
	lines := []string{
		titleStyle.Render(ts.Workout.Name),
		style.Render(formatSeconds(s.TimeLeftInPhase)),
		strings.ToUpper(strings.ReplaceAll(string(s.Phase), "_", " ")),
	}
	if r, ok := ts.CurrentRound(); ok && s.Phase == logic.PhaseWork {
		lines = append(lines, r.ExerciseName)
	}
	if !s.WorkoutCompleted {
		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("set %d/%d • round %d/%d",
				s.CurrentSet, ts.Workout.Sets, s.CurrentRoundIndex+1, len(ts.Workout.Rounds))))
	}
	if ts.Paused {
		lines = append(lines, labelStyle.Render("paused"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) protectionView() string {
	p := m.snap.Protection
	if !p.Active {
		return labelStyle.Render("Protection off")
	}
	lines := []string{
		titleStyle.Render("Protection"),
		countdownStyle.Render(formatSeconds(p.TimeLeft)),
		strings.ToUpper(strings.ReplaceAll(string(p.Phase), "_", " ")),
		labelStyle.Render(fmt.Sprintf("cycle %d/%d", p.CycleCount, m.snap.ProtectionConfig.Cycles)),
	}
	if m.snap.Sampling {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("sound %.0f%%", m.snap.AmbientLevel*100)))
	}
	return strings.Join(lines, "\n")
}
