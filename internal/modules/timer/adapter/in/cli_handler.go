package in

import (
	"context"

	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
)

type CLIHandler struct {
	usecase timerin.Usecase
}

func NewCLIHandler(usecase timerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, key string, cfg *timerdto.ConfigInput) (timerdto.TimerOutput, error) {
	return h.usecase.Start(ctx, timerdto.StartInput{Key: key, Config: cfg})
}

func (h CLIHandler) Configure(ctx context.Context, key string, cfg *timerdto.ConfigInput) (timerdto.TimerOutput, error) {
	return h.usecase.Configure(ctx, timerdto.StartInput{Key: key, Config: cfg})
}

func (h CLIHandler) Pause(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.Pause(ctx, key)
}

func (h CLIHandler) Resume(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.Resume(ctx, key)
}

func (h CLIHandler) Reset(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.Reset(ctx, key)
}

func (h CLIHandler) Skip(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.Skip(ctx, key)
}

func (h CLIHandler) Status(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.Status(ctx, key)
}

func (h CLIHandler) List(ctx context.Context) ([]timerdto.TimerOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Delete(ctx context.Context, key string) error {
	return h.usecase.Delete(ctx, key)
}

func (h CLIHandler) Refresh(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.Refresh(ctx, key)
}
