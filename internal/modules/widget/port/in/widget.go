package in

import (
	"context"
	"time"

	timerdto "timekit/internal/modules/timer/dto"
	"timekit/internal/modules/widget/dto"
)

type Usecase interface {
	Presets(ctx context.Context) ([]dto.PresetOutput, error)
	StartPreset(ctx context.Context, name, key string) (timerdto.TimerOutput, error)
	StartCountdown(ctx context.Context, key string, d time.Duration) (timerdto.TimerOutput, error)
	StartStopwatch(ctx context.Context, key string) (timerdto.TimerOutput, error)
	StartPomodoro(ctx context.Context, key string) (timerdto.TimerOutput, error)
	StartCouples(ctx context.Context, key string) (timerdto.TimerOutput, error)

	ChessStart(ctx context.Context, side string) (dto.ChessOutput, error)
	ChessSwitch(ctx context.Context) (dto.ChessOutput, error)
	ChessStatus(ctx context.Context) (dto.ChessOutput, error)
	ChessReset(ctx context.Context) (dto.ChessOutput, error)

	SetAlarm(ctx context.Context, input dto.AlarmInput) (dto.AlarmOutput, error)
	MetronomeStart(ctx context.Context, input dto.MetronomeInput) (dto.BeatOutput, error)
	MetronomeBeat(ctx context.Context) (dto.BeatOutput, error)
	WorldClock(ctx context.Context, zones []string) ([]dto.ZoneOutput, error)
	ZoneOffset(ctx context.Context, from, to string) (time.Duration, error)
}
