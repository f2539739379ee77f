package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"timekit/internal/modules/history/domain"
	"timekit/internal/modules/history/dto"
	"timekit/internal/modules/history/usecase"
	apperrors "timekit/internal/platform/errors"
)

type stubStore struct {
	lastKey   string
	lastLimit int
}

func (s *stubStore) Append(context.Context, domain.Entry) error { return nil }

func (s *stubStore) List(_ context.Context, key string, limit int) ([]domain.Entry, error) {
	s.lastKey, s.lastLimit = key, limit
	return []domain.Entry{{Type: domain.EntryPhase, Key: key, PhaseKind: "work", ElapsedMs: 90_000}}, nil
}

func (s *stubStore) Totals(context.Context, time.Time) ([]domain.Stat, error) {
	return []domain.Stat{{PhaseKind: "work", Count: 3, TotalMs: 4_500_000}}, nil
}

func TestListDefaultsLimitAndConvertsDurations(t *testing.T) {
	t.Parallel()
	store := &stubStore{}
	uc := usecase.NewInteractor(store)
	out, err := uc.List(context.Background(), dto.ListInput{Key: "focus"})
	if err != nil {
		t.Fatal(err)
	}
	if store.lastLimit != 50 || store.lastKey != "focus" {
		t.Fatalf("expected default limit 50 for focus, got %d %q", store.lastLimit, store.lastKey)
	}
	if len(out) != 1 || out[0].Elapsed != 90*time.Second {
		t.Fatalf("unexpected output %+v", out)
	}
	if _, err := uc.List(context.Background(), dto.ListInput{Limit: -1}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	out, err := usecase.NewInteractor(&stubStore{}).Stats(context.Background(), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Total != 75*time.Minute || out[0].Count != 3 {
		t.Fatalf("unexpected stats %+v", out)
	}
}
