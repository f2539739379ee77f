package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	timeradapter "timekit/internal/modules/timer/adapter/out"
	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
	timerservice "timekit/internal/modules/timer/service"
	timerusecase "timekit/internal/modules/timer/usecase"
	"timekit/internal/modules/widget/domain"
	"timekit/internal/modules/widget/service"
	apperrors "timekit/internal/platform/errors"
	"timekit/internal/platform/logging"
)

var t0 = time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

type fakeID struct{}

func (fakeID) New() string { return "game-1" }

func newTimers(t *testing.T, clk *fakeClock) timerin.Usecase {
	t.Helper()
	svc := timerservice.NewTimerService(clk, fakeID{}, timeradapter.NewFileStateStore(t.TempDir()), nil, logging.Discard())
	return timerusecase.NewInteractor(svc)
}

func TestChessClockAlternates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{now: t0}
	chess := service.NewChessClock(newTimers(t, clk), 5*time.Minute)

	st, err := chess.Start(ctx, domain.White)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.Turn != "white" || st.Black.Status != "IDLE" || st.Black.RemainingMs != 300_000 {
		t.Fatalf("unexpected start status %+v", st)
	}

	clk.advance(20 * time.Second)
	st, err = chess.Switch(ctx)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if st.Turn != "black" || st.White.Status != "PAUSED" || st.White.RemainingMs != 280_000 {
		t.Fatalf("unexpected status after white moved %+v", st)
	}

	clk.advance(45 * time.Second)
	st, err = chess.Switch(ctx)
	if err != nil {
		t.Fatalf("switch back: %v", err)
	}
	if st.Turn != "white" || st.Black.RemainingMs != 255_000 || st.White.RemainingMs != 280_000 {
		t.Fatalf("unexpected status after black moved %+v", st)
	}
}

func TestChessClockFlagFalls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{now: t0}
	chess := service.NewChessClock(newTimers(t, clk), time.Minute)
	if _, err := chess.Start(ctx, domain.Black); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.advance(2 * time.Minute)
	st, err := chess.Switch(ctx)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected flag error, got %v", err)
	}
	if st.Flagged != "black" || st.Black.RemainingMs != 0 {
		t.Fatalf("expected black flagged, got %+v", st)
	}

	st, err = chess.Reset(ctx)
	if err != nil || st.Flagged != "" || st.Black.Status != "IDLE" {
		t.Fatalf("expected reset clocks, got %+v %v", st, err)
	}
}

func TestChessClockRestartKeepsSidesSeparate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{now: t0}
	chess := service.NewChessClock(newTimers(t, clk), 3*time.Minute)
	if _, err := chess.Start(ctx, domain.White); err != nil {
		t.Fatal(err)
	}
	clk.advance(time.Minute)
	st, err := chess.Start(ctx, domain.Black)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if st.Turn != "black" || st.White.Status != "IDLE" || st.White.RemainingMs != 180_000 {
		t.Fatalf("restart should reset both sides, got %+v", st)
	}
	if _, err := service.NewChessClock(newTimers(t, clk), 0).Start(ctx, domain.White); !errors.Is(err, apperrors.ErrInvalidConfiguration) {
		t.Fatalf("expected zero budget to fail, got %v", err)
	}
}

func TestMetronomeKindRoundTrip(t *testing.T) {
	t.Parallel()
	m, _ := domain.NewMetronome(96, 3)
	cfg := service.MetronomeConfig(m)
	got, ok := service.ParseMetronomeKind(cfg.Phases[0].Kind)
	if !ok || got != m {
		t.Fatalf("expected %+v, got %+v", m, got)
	}
	if _, ok := service.ParseMetronomeKind("stopwatch"); ok {
		t.Fatalf("unrelated kinds must not parse")
	}
}

func TestChessClockStatusIsStableWithBothSidesRunning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{now: t0}
	timers := newTimers(t, clk)
	chess := service.NewChessClock(timers, time.Minute)
	if _, err := chess.Start(ctx, domain.Black); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := timers.Start(ctx, timerdto.StartInput{Key: domain.White.Key()}); err != nil {
		t.Fatalf("start white directly: %v", err)
	}
	for n := 0; n < 20; n++ {
		st, err := chess.Status(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if st.Turn != "white" {
			t.Fatalf("expected white reported first, got %q", st.Turn)
		}
	}
}
