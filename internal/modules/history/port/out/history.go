package out

import (
	"context"
	"time"

	"timekit/internal/modules/history/domain"
)

type EntryStore interface {
	Append(ctx context.Context, entry domain.Entry) error
	List(ctx context.Context, key string, limit int) ([]domain.Entry, error)
	Totals(ctx context.Context, since time.Time) ([]domain.Stat, error)
}
