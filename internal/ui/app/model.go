package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	historydto "timekit/internal/modules/history/dto"
	timerdto "timekit/internal/modules/timer/dto"
	widgetdto "timekit/internal/modules/widget/dto"
	apperrors "timekit/internal/platform/errors"
	"timekit/internal/ui/components"
	"timekit/internal/ui/theme"
	historyview "timekit/internal/ui/views/history"
	timersview "timekit/internal/ui/views/timers"
	worldview "timekit/internal/ui/views/worldclock"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type timerPort interface {
	Start(ctx context.Context, key string, cfg *timerdto.ConfigInput) (timerdto.TimerOutput, error)
	Pause(ctx context.Context, key string) (timerdto.TimerOutput, error)
	Resume(ctx context.Context, key string) (timerdto.TimerOutput, error)
	Reset(ctx context.Context, key string) (timerdto.TimerOutput, error)
	Skip(ctx context.Context, key string) (timerdto.TimerOutput, error)
	Refresh(ctx context.Context, key string) (timerdto.TimerOutput, error)
	List(ctx context.Context) ([]timerdto.TimerOutput, error)
	Delete(ctx context.Context, key string) error
}

type widgetPort interface {
	StartPreset(ctx context.Context, name, key string) (timerdto.TimerOutput, error)
	StartCountdown(ctx context.Context, key string, d time.Duration) (timerdto.TimerOutput, error)
	StartStopwatch(ctx context.Context, key string) (timerdto.TimerOutput, error)
	StartPomodoro(ctx context.Context, key string) (timerdto.TimerOutput, error)
	StartCouples(ctx context.Context, key string) (timerdto.TimerOutput, error)
	WorldClock(ctx context.Context, zones []string) ([]widgetdto.ZoneOutput, error)
}

type historyPort interface {
	List(ctx context.Context, key string, limit int) ([]historydto.EntryOutput, error)
}

// Options are the collaborators the dashboard drives.
type Options struct {
	Timers   timerPort
	Widgets  widgetPort
	History  historyPort
	Interval time.Duration
	Now      func() time.Time
	// Changed delivers timer keys whose records were rewritten by another
	// process. Nil disables live reload.
	Changed <-chan []string
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimers tabID = iota
	tabWorld
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Timers", "World", "History"}

// ─── async messages ───────────────────────────────────────────────────────────

type tickMsg time.Time

type actionDoneMsg struct {
	verb string
	out  timerdto.TimerOutput
	err  error
}

type deletedMsg struct {
	key string
	err error
}

type keysChangedMsg struct {
	keys []string
}

type reloadedMsg struct {
	keys []string
	err  error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Skip    key.Binding
	Reset   key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause/resume")),
		Skip:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip phase")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Skip, k.Reset, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab},
		{k.Toggle, k.Skip, k.Reset},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It drives a tick at the configured
// interval and re-reads every timer on each tick; the engine derives the
// display from the wall clock, so missed ticks only delay a redraw.
type Model struct {
	opts Options

	timersView  timersview.Model
	worldView   worldview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = 250 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		opts:        opts,
		timersView:  timersview.New(),
		worldView:   worldview.New(),
		historyView: historyview.New(opts.Now),
		activeTab:   tabTimers,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTimersCmd(), m.tickCmd(), m.waitForChangeCmd())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette takes all key input while open; ticks keep flowing.
	if _, isKey := msg.(tea.KeyMsg); isKey && m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.loadActiveTabCmd())

	case timersview.LoadedMsg:
		m.timersView, _ = m.timersView.Update(msg)
		return m, nil

	case worldview.LoadedMsg:
		m.worldView, _ = m.worldView.Update(msg)
		return m, nil

	case historyview.LoadedMsg:
		m.historyView, _ = m.historyView.Update(msg)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.verb + " failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("%s %s: %s", msg.verb, msg.out.Key, msg.out.Status)
		}
		return m, m.loadTimersCmd()

	case deletedMsg:
		if msg.err != nil {
			m.status = "rm failed: " + msg.err.Error()
		} else {
			m.status = "removed " + msg.key
		}
		return m, m.loadTimersCmd()

	case keysChangedMsg:
		return m, tea.Batch(m.reloadCmd(msg.keys), m.waitForChangeCmd())

	case reloadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
		} else if len(msg.keys) > 0 {
			m.status = "reloaded " + strings.Join(msg.keys, ", ")
		}
		return m, m.loadTimersCmd()

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, m.loadActiveTabCmd()
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, m.loadActiveTabCmd()
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		}
		if m.activeTab == tabTimers {
			return m.handleTimerKey(msg)
		}
	}
	return m, nil
}

func (m Model) handleTimerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, ok := m.timersView.Selected()
	switch msg.String() {
	case " ":
		if !ok {
			return m, nil
		}
		switch selected.Status {
		case "RUNNING":
			return m, m.actionCmd("pause", selected.Key, m.opts.Timers.Pause)
		case "PAUSED":
			return m, m.actionCmd("resume", selected.Key, m.opts.Timers.Resume)
		default:
			return m, m.actionCmd("start", selected.Key, func(ctx context.Context, key string) (timerdto.TimerOutput, error) {
				return m.opts.Timers.Start(ctx, key, nil)
			})
		}
	case "n":
		if ok {
			return m, m.actionCmd("skip", selected.Key, m.opts.Timers.Skip)
		}
	case "r":
		if ok {
			return m, m.actionCmd("reset", selected.Key, m.opts.Timers.Reset)
		}
	default:
		var cmd tea.Cmd
		m.timersView, cmd = m.timersView.Update(msg)
		return m, cmd
	}
	return m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).MaxHeight(contentH).Render(m.activeView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabTimers:
		return m.timersView.View()
	case tabWorld:
		return m.worldView.View()
	case tabHistory:
		return m.historyView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "timekit  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("space:start/pause  n:skip  r:reset  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	optional := func(i int, fallback string) string {
		if len(parts) > i {
			return parts[i]
		}
		return fallback
	}
	w := m.opts.Widgets

	switch parts[0] {
	case "countdown":
		if len(parts) < 3 {
			m.status = "usage: countdown <key> <duration>"
			return m, nil
		}
		d, err := time.ParseDuration(parts[2])
		if err != nil {
			m.status = "invalid duration: " + parts[2]
			return m, nil
		}
		return m, m.actionCmd("start", parts[1], func(ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return w.StartCountdown(ctx, key, d)
		})
	case "stopwatch":
		return m, m.actionCmd("start", optional(1, "stopwatch"), w.StartStopwatch)
	case "pomodoro":
		return m, m.actionCmd("start", optional(1, "pomodoro"), w.StartPomodoro)
	case "couples":
		return m, m.actionCmd("start", optional(1, "couples"), w.StartCouples)
	case "preset":
		if len(parts) < 2 {
			m.status = "usage: preset <name> [key]"
			return m, nil
		}
		name := parts[1]
		return m, m.actionCmd("start", optional(2, ""), func(ctx context.Context, key string) (timerdto.TimerOutput, error) {
			return w.StartPreset(ctx, name, key)
		})
	case "rm":
		if len(parts) < 2 {
			m.status = "usage: rm <key>"
			return m, nil
		}
		return m, m.deleteCmd(parts[1])
	case "zones":
		m.activeTab = tabWorld
		return m, m.loadZonesCmd(parts[1:])
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timersView, _ = m.timersView.Update(sz)
	m.worldView, _ = m.worldView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) loadActiveTabCmd() tea.Cmd {
	switch m.activeTab {
	case tabWorld:
		return m.loadZonesCmd(nil)
	case tabHistory:
		return m.loadHistoryCmd()
	default:
		return m.loadTimersCmd()
	}
}

func (m Model) loadTimersCmd() tea.Cmd {
	return func() tea.Msg {
		timers, err := m.opts.Timers.List(context.Background())
		return timersview.LoadedMsg{Timers: timers, Err: err}
	}
}

func (m Model) loadZonesCmd(zones []string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.opts.Widgets.WorldClock(context.Background(), zones)
		return worldview.LoadedMsg{Zones: out, Err: err}
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		if m.opts.History == nil {
			return historyview.LoadedMsg{}
		}
		entries, err := m.opts.History.List(context.Background(), "", 0)
		return historyview.LoadedMsg{Entries: entries, Err: err}
	}
}

func (m Model) actionCmd(verb, key string, fn func(ctx context.Context, key string) (timerdto.TimerOutput, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn(context.Background(), key)
		return actionDoneMsg{verb: verb, out: out, err: err}
	}
}

func (m Model) deleteCmd(key string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{key: key, err: m.opts.Timers.Delete(context.Background(), key)}
	}
}

func (m Model) waitForChangeCmd() tea.Cmd {
	if m.opts.Changed == nil {
		return nil
	}
	ch := m.opts.Changed
	return func() tea.Msg {
		keys, ok := <-ch
		if !ok {
			return nil
		}
		return keysChangedMsg{keys: keys}
	}
}

func (m Model) reloadCmd(keys []string) tea.Cmd {
	return func() tea.Msg {
		var reloaded []string
		for _, key := range keys {
			if _, err := m.opts.Timers.Refresh(context.Background(), key); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				return reloadedMsg{keys: reloaded, err: err}
			}
			reloaded = append(reloaded, key)
		}
		return reloadedMsg{keys: reloaded}
	}
}
