package timers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	timerdto "timekit/internal/modules/timer/dto"
	"timekit/internal/platform/durfmt"
	"timekit/internal/ui/theme"
)

// LoadedMsg carries a fresh projection of every stored timer.
type LoadedMsg struct {
	Timers []timerdto.TimerOutput
	Err    error
}

// Model renders the timer table. It holds no engine state of its own; the
// app model feeds it a LoadedMsg on every tick.
type Model struct {
	timers []timerdto.TimerOutput
	cursor int
	bar    progress.Model
	err    error
	width  int
	height int
}

func New() Model {
	bar := progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage())
	return Model{bar: bar}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, msg.Width/3)
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.timers = msg.Timers
		}
		m.clampCursor()
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.cursor--
		case "down", "j":
			m.cursor++
		}
		m.clampCursor()
	}
	return m, nil
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.timers) {
		m.cursor = len(m.timers) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Selected returns the highlighted timer.
func (m Model) Selected() (timerdto.TimerOutput, bool) {
	if len(m.timers) == 0 {
		return timerdto.TimerOutput{}, false
	}
	return m.timers[m.cursor], true
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Timers") + "\n\n")
	if m.err != nil {
		sb.WriteString(theme.Hot.Render("error: "+m.err.Error()) + "\n")
	}
	if len(m.timers) == 0 {
		sb.WriteString(theme.Muted.Render("no timers yet; press : and try \"countdown tea 3m\"") + "\n")
		return sb.String()
	}
	for i, t := range m.timers {
		style := theme.Pane
		if i == m.cursor {
			style = theme.PaneActive
		}
		sb.WriteString(style.Width(max(20, m.width-4)).Render(m.renderTimer(t)) + "\n")
	}
	return sb.String()
}

func (m Model) renderTimer(t timerdto.TimerOutput) string {
	header := fmt.Sprintf("%s  %s  %s",
		theme.Big.Render(t.Key),
		theme.Status(t.Status).Render(t.Status),
		theme.Muted.Render(t.Widget),
	)
	phase := t.PhaseKind
	if t.PhaseCount > 1 {
		phase = fmt.Sprintf("%s (%d/%d)", t.PhaseKind, t.PhaseIndex+1, t.PhaseCount)
	}
	var clock string
	if t.Bounded {
		clock = durfmt.Countdown(t.RemainingMs)
	} else {
		clock = durfmt.Clock(t.ElapsedMs, true)
	}
	line := fmt.Sprintf("%s  %s", theme.Big.Render(clock), phase)
	if t.SessionCycles > 0 || t.CompletedSessions > 0 {
		line += theme.Muted.Render(fmt.Sprintf("  cycle %d  sessions %d", t.SessionCycles+1, t.CompletedSessions))
	}
	rows := []string{header, line}
	if t.Bounded && t.DurationMs > 0 {
		rows = append(rows, m.bar.ViewAs(float64(t.ElapsedMs)/float64(t.DurationMs)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
