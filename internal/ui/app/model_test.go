package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	historydto "timekit/internal/modules/history/dto"
	timerdto "timekit/internal/modules/timer/dto"
	widgetdto "timekit/internal/modules/widget/dto"
	"timekit/internal/ui/app"
	timersview "timekit/internal/ui/views/timers"
)

type fakeTimers struct {
	calls []string
}

func (f *fakeTimers) record(verb, key, status string) (timerdto.TimerOutput, error) {
	f.calls = append(f.calls, verb+":"+key)
	return timerdto.TimerOutput{Key: key, Status: status}, nil
}

func (f *fakeTimers) Start(_ context.Context, key string, _ *timerdto.ConfigInput) (timerdto.TimerOutput, error) {
	return f.record("start", key, "RUNNING")
}
func (f *fakeTimers) Pause(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return f.record("pause", key, "PAUSED")
}
func (f *fakeTimers) Resume(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return f.record("resume", key, "RUNNING")
}
func (f *fakeTimers) Reset(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return f.record("reset", key, "IDLE")
}
func (f *fakeTimers) Skip(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return f.record("skip", key, "RUNNING")
}
func (f *fakeTimers) Refresh(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return f.record("refresh", key, "RUNNING")
}
func (f *fakeTimers) List(context.Context) ([]timerdto.TimerOutput, error) { return nil, nil }
func (f *fakeTimers) Delete(_ context.Context, key string) error {
	_, err := f.record("delete", key, "")
	return err
}

type fakeWidgets struct {
	countdown time.Duration
}

func (f *fakeWidgets) StartPreset(_ context.Context, name, key string) (timerdto.TimerOutput, error) {
	return timerdto.TimerOutput{Key: key}, nil
}
func (f *fakeWidgets) StartCountdown(_ context.Context, key string, d time.Duration) (timerdto.TimerOutput, error) {
	f.countdown = d
	return timerdto.TimerOutput{Key: key, Status: "RUNNING"}, nil
}
func (f *fakeWidgets) StartStopwatch(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return timerdto.TimerOutput{Key: key}, nil
}
func (f *fakeWidgets) StartPomodoro(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return timerdto.TimerOutput{Key: key}, nil
}
func (f *fakeWidgets) StartCouples(_ context.Context, key string) (timerdto.TimerOutput, error) {
	return timerdto.TimerOutput{Key: key}, nil
}
func (f *fakeWidgets) WorldClock(context.Context, []string) ([]widgetdto.ZoneOutput, error) {
	return nil, nil
}

type noHistory struct{}

func (noHistory) List(context.Context, string, int) ([]historydto.EntryOutput, error) { return nil, nil }

func press(t *testing.T, m tea.Model, msg tea.KeyMsg) tea.Model {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd != nil {
		cmd()
	}
	return next
}

func TestSpaceTogglesByStatus(t *testing.T) {
	t.Parallel()
	timers := &fakeTimers{}
	var m tea.Model = app.NewModel(app.Options{Timers: timers, Widgets: &fakeWidgets{}, History: noHistory{}})
	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

	for _, status := range []string{"RUNNING", "PAUSED", "IDLE", "FINISHED"} {
		m, _ = m.Update(timersview.LoadedMsg{Timers: []timerdto.TimerOutput{{Key: "tea", Status: status}}})
		m = press(t, m, space)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})

	want := []string{"pause:tea", "resume:tea", "start:tea", "start:tea", "skip:tea", "reset:tea"}
	if fmt.Sprint(timers.calls) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, timers.calls)
	}
}

func TestKeysIgnoredWithoutTimers(t *testing.T) {
	t.Parallel()
	timers := &fakeTimers{}
	var m tea.Model = app.NewModel(app.Options{Timers: timers, Widgets: &fakeWidgets{}})
	press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if len(timers.calls) != 0 {
		t.Fatalf("expected no calls, got %v", timers.calls)
	}
}
