package in

import (
	"context"

	"timekit/internal/modules/timer/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.TimerOutput, error)
	Configure(ctx context.Context, input dto.StartInput) (dto.TimerOutput, error)
	Pause(ctx context.Context, key string) (dto.TimerOutput, error)
	Resume(ctx context.Context, key string) (dto.TimerOutput, error)
	Reset(ctx context.Context, key string) (dto.TimerOutput, error)
	Skip(ctx context.Context, key string) (dto.TimerOutput, error)
	Status(ctx context.Context, key string) (dto.TimerOutput, error)
	List(ctx context.Context) ([]dto.TimerOutput, error)
	Refresh(ctx context.Context, key string) (dto.TimerOutput, error)
	Delete(ctx context.Context, key string) error
}
