package in

import (
	"context"
	"time"

	"timekit/internal/modules/history/dto"
)

type Usecase interface {
	List(ctx context.Context, input dto.ListInput) ([]dto.EntryOutput, error)
	Stats(ctx context.Context, since time.Time) ([]dto.StatOutput, error)
}
