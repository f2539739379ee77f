package worldclock

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	widgetdto "timekit/internal/modules/widget/dto"
	"timekit/internal/ui/theme"
)

type LoadedMsg struct {
	Zones []widgetdto.ZoneOutput
	Err   error
}

type Model struct {
	zones []widgetdto.ZoneOutput
	err   error
}

func New() Model { return Model{} }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(LoadedMsg); ok {
		m.err = msg.Err
		if msg.Err == nil {
			m.zones = msg.Zones
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("World clock") + "\n\n")
	if m.err != nil {
		sb.WriteString(theme.Hot.Render("error: "+m.err.Error()) + "\n")
	}
	for _, z := range m.zones {
		sb.WriteString(fmt.Sprintf("%-24s %s  %s\n",
			z.Zone,
			theme.Big.Render(z.Local.Format("Mon 15:04:05")),
			theme.Muted.Render(fmt.Sprintf("%s %s", z.Abbrev, formatOffset(z.Offset.Minutes()))),
		))
	}
	return sb.String()
}

func formatOffset(minutes float64) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	m := int(minutes)
	return fmt.Sprintf("UTC%s%02d:%02d", sign, m/60, m%60)
}
