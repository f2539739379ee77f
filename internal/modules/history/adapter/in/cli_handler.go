package in

import (
	"context"
	"time"

	"timekit/internal/modules/history/dto"
	historyin "timekit/internal/modules/history/port/in"
)

type CLIHandler struct {
	usecase historyin.Usecase
}

func NewCLIHandler(usecase historyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, key string, limit int) ([]dto.EntryOutput, error) {
	return h.usecase.List(ctx, dto.ListInput{Key: key, Limit: limit})
}

func (h CLIHandler) Stats(ctx context.Context, since time.Time) ([]dto.StatOutput, error) {
	return h.usecase.Stats(ctx, since)
}
