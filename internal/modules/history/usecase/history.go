package usecase

import (
	"context"
	"fmt"
	"time"

	"timekit/internal/modules/history/dto"
	historyin "timekit/internal/modules/history/port/in"
	historyout "timekit/internal/modules/history/port/out"
	apperrors "timekit/internal/platform/errors"
)

const defaultLimit = 50

type Interactor struct {
	store historyout.EntryStore
}

func NewInteractor(store historyout.EntryStore) historyin.Usecase {
	return &Interactor{store: store}
}

func (i *Interactor) List(ctx context.Context, input dto.ListInput) ([]dto.EntryOutput, error) {
	if input.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative: %w", apperrors.ErrInvalidInput)
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	entries, err := i.store.List(ctx, input.Key, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EntryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.EntryOutput{
			Type:      e.Type,
			Key:       e.Key,
			SessionID: e.SessionID,
			Widget:    e.Widget,
			PhaseKind: e.PhaseKind,
			Elapsed:   time.Duration(e.ElapsedMs) * time.Millisecond,
			Skipped:   e.Skipped,
			At:        e.At,
		})
	}
	return out, nil
}

func (i *Interactor) Stats(ctx context.Context, since time.Time) ([]dto.StatOutput, error) {
	stats, err := i.store.Totals(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StatOutput, 0, len(stats))
	for _, s := range stats {
		out = append(out, dto.StatOutput{PhaseKind: s.PhaseKind, Count: s.Count, Total: time.Duration(s.TotalMs) * time.Millisecond})
	}
	return out, nil
}
