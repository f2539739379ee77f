package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	timeradapter "timekit/internal/modules/timer/adapter/out"
	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
	"timekit/internal/modules/timer/service"
	"timekit/internal/modules/timer/usecase"
	apperrors "timekit/internal/platform/errors"
	"timekit/internal/platform/event"
	"timekit/internal/platform/logging"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeID struct{}

func (fakeID) New() string { return "sess-1" }

func newUsecase(clk *fakeClock, dir string) timerin.Usecase {
	svc := service.NewTimerService(clk, fakeID{}, timeradapter.NewFileStateStore(dir), event.NewBus(logging.Discard()), logging.Discard())
	return usecase.NewInteractor(svc)
}

func countdownInput(key string, d time.Duration) timerdto.StartInput {
	return timerdto.StartInput{Key: key, Config: &timerdto.ConfigInput{
		Widget: "countdown",
		Phases: []timerdto.PhaseInput{{Kind: "countdown", Duration: d, OnExpire: "stop"}},
	}}
}

func TestStartPauseResumeAcrossInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	clk := &fakeClock{now: t0}
	uc := newUsecase(clk, dir)

	out, err := uc.Start(ctx, countdownInput("tea", 3*time.Minute))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if out.Status != "RUNNING" || out.RemainingMs != 180_000 || out.SessionID != "sess-1" {
		t.Fatalf("unexpected start output %+v", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "tea.json")); err != nil {
		t.Fatalf("expected record on disk: %v", err)
	}

	clk.now = t0.Add(90 * time.Second)
	other := newUsecase(clk, dir)
	status, err := other.Status(ctx, "tea")
	if err != nil {
		t.Fatalf("status from second instance: %v", err)
	}
	if status.RemainingMs != 90_000 {
		t.Fatalf("expected 90s remaining after 90s away, got %d", status.RemainingMs)
	}

	paused, err := other.Pause(ctx, "tea")
	if err != nil || paused.Status != "PAUSED" {
		t.Fatalf("pause: %+v %v", paused, err)
	}
	clk.now = t0.Add(10 * time.Minute)
	refreshed, err := uc.Refresh(ctx, "tea")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Status != "PAUSED" || refreshed.RemainingMs != 90_000 {
		t.Fatalf("expected first instance to pick up pause, got %+v", refreshed)
	}
	resumed, err := uc.Resume(ctx, "tea")
	if err != nil || resumed.Status != "RUNNING" {
		t.Fatalf("resume: %+v %v", resumed, err)
	}
}

func TestStartRejectsActiveSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newUsecase(&fakeClock{now: t0}, t.TempDir())
	if _, err := uc.Start(ctx, countdownInput("tea", time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Start(ctx, countdownInput("tea", time.Minute)); !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected active session error, got %v", err)
	}
}

func TestStartValidatesInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newUsecase(&fakeClock{now: t0}, t.TempDir())

	if _, err := uc.Start(ctx, countdownInput("Bad Key", time.Minute)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid key, got %v", err)
	}
	if _, err := uc.Start(ctx, countdownInput("tea", -time.Second)); !errors.Is(err, apperrors.ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
	if _, err := uc.Start(ctx, timerdto.StartInput{Key: "ghost"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected unknown timer, got %v", err)
	}
	if _, err := uc.Pause(ctx, "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected unknown timer, got %v", err)
	}
}

func TestRestartReusesStoredConfiguration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{now: t0}
	dir := t.TempDir()
	uc := newUsecase(clk, dir)
	if _, err := uc.Start(ctx, countdownInput("egg", 5*time.Second)); err != nil {
		t.Fatal(err)
	}
	clk.now = t0.Add(time.Minute)
	done, err := uc.Status(ctx, "egg")
	if err != nil || done.Status != "FINISHED" || done.CompletedSessions != 1 {
		t.Fatalf("expected finished egg timer, got %+v %v", done, err)
	}

	again, err := newUsecase(clk, dir).Start(ctx, timerdto.StartInput{Key: "egg"})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if again.Status != "RUNNING" || again.DurationMs != 5_000 || again.CompletedSessions != 1 {
		t.Fatalf("unexpected restart output %+v", again)
	}
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	clk := &fakeClock{now: t0}
	uc := newUsecase(clk, dir)
	for _, key := range []string{"b-timer", "a-timer"} {
		if _, err := uc.Start(ctx, countdownInput(key, time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "a-timer" || list[1].Key != "b-timer" {
		t.Fatalf("unexpected listing %+v", list)
	}

	if err := uc.Delete(ctx, "a-timer"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := uc.Status(ctx, "a-timer"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected deleted timer to be gone, got %v", err)
	}
}

func TestPomodoroWithLongBreakVariant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{now: t0}
	uc := newUsecase(clk, t.TempDir())
	_, err := uc.Start(ctx, timerdto.StartInput{Key: "focus", Config: &timerdto.ConfigInput{
		Widget: "pomodoro",
		Phases: []timerdto.PhaseInput{
			{Kind: "work", Duration: 25 * time.Minute, OnExpire: "advance"},
			{Kind: "short_break", Duration: 5 * time.Minute, OnExpire: "repeat_cycle",
				Variant: &timerdto.VariantInput{Kind: "long_break", Duration: 15 * time.Minute, Every: 2}},
		},
	}})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	clk.now = t0.Add(30*time.Minute + 25*time.Minute + time.Minute)
	out, err := uc.Status(ctx, "focus")
	if err != nil {
		t.Fatal(err)
	}
	if out.PhaseKind != "long_break" || out.CompletedCycles != 1 || out.RemainingMs != 14*60_000 {
		t.Fatalf("expected long break on second cycle, got %+v", out)
	}
}

func TestConfigureLeavesTimerIdle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	clk := &fakeClock{now: t0}
	uc := newUsecase(clk, dir)

	out, err := uc.Configure(ctx, countdownInput("black", 5*time.Minute))
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if out.Status != "IDLE" || out.DurationMs != 300_000 {
		t.Fatalf("unexpected configure output %+v", out)
	}
	clk.now = t0.Add(time.Hour)
	status, err := newUsecase(clk, dir).Status(ctx, "black")
	if err != nil || status.Status != "IDLE" || status.RemainingMs != 300_000 {
		t.Fatalf("expected stored idle timer, got %+v %v", status, err)
	}
	if _, err := uc.Start(ctx, timerdto.StartInput{Key: "black"}); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Configure(ctx, countdownInput("black", time.Minute)); !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected active session error, got %v", err)
	}
}

func TestLongLivedInteractorHonorsChangesFromAnotherProcess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	clk := &fakeClock{now: t0}
	server := newUsecase(clk, dir)
	if _, err := server.Start(ctx, countdownInput("tea", 10*time.Second)); err != nil {
		t.Fatal(err)
	}

	clk.now = t0.Add(2 * time.Second)
	if _, err := newUsecase(clk, dir).Pause(ctx, "tea"); err != nil {
		t.Fatalf("pause from second instance: %v", err)
	}

	clk.now = t0.Add(time.Minute)
	list, err := server.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != "PAUSED" || list[0].RemainingMs != 8_000 {
		t.Fatalf("expected list to see the pause, got %+v", list)
	}
	fresh, err := newUsecase(clk, dir).Status(ctx, "tea")
	if err != nil || fresh.Status != "PAUSED" || fresh.RemainingMs != 8_000 {
		t.Fatalf("expected stored pause to survive, got %+v %v", fresh, err)
	}

	if err := newUsecase(clk, dir).Delete(ctx, "tea"); err != nil {
		t.Fatal(err)
	}
	if _, err := server.Status(ctx, "tea"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected removal elsewhere to be seen, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tea.json")); !os.IsNotExist(err) {
		t.Fatalf("expected record to stay removed, got %v", err)
	}
}
