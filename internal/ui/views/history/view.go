package history

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	historydto "timekit/internal/modules/history/dto"
	"timekit/internal/ui/theme"
)

type LoadedMsg struct {
	Entries []historydto.EntryOutput
	Err     error
}

type Model struct {
	entries []historydto.EntryOutput
	err     error
	now     func() time.Time
	height  int
}

func New(now func() time.Time) Model { return Model{now: now} }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("History") + "\n\n")
	if m.err != nil {
		sb.WriteString(theme.Hot.Render("error: "+m.err.Error()) + "\n")
	}
	if len(m.entries) == 0 && m.err == nil {
		sb.WriteString(theme.Muted.Render("nothing recorded yet") + "\n")
	}
	limit := len(m.entries)
	if m.height > 4 && limit > m.height-4 {
		limit = m.height - 4
	}
	for _, e := range m.entries[:limit] {
		what := e.PhaseKind
		if e.Type == "session" {
			what = "session finished"
		}
		if e.Skipped {
			what += " (skipped)"
		}
		sb.WriteString(fmt.Sprintf("%s %-12s %-26s %s\n",
			theme.Muted.Render(fmt.Sprintf("%-14s", humanize.RelTime(e.At, m.now(), "ago", "from now"))),
			e.Key,
			what,
			e.Elapsed.Round(time.Second),
		))
	}
	return sb.String()
}
