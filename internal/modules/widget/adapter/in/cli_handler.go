package in

import (
	"context"
	"time"

	timerdto "timekit/internal/modules/timer/dto"
	"timekit/internal/modules/widget/dto"
	widgetin "timekit/internal/modules/widget/port/in"
)

type CLIHandler struct {
	usecase widgetin.Usecase
}

func NewCLIHandler(usecase widgetin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Presets(ctx context.Context) ([]dto.PresetOutput, error) {
	return h.usecase.Presets(ctx)
}

func (h CLIHandler) StartPreset(ctx context.Context, name, key string) (timerdto.TimerOutput, error) {
	return h.usecase.StartPreset(ctx, name, key)
}

func (h CLIHandler) StartCountdown(ctx context.Context, key string, d time.Duration) (timerdto.TimerOutput, error) {
	return h.usecase.StartCountdown(ctx, key, d)
}

func (h CLIHandler) StartStopwatch(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.StartStopwatch(ctx, key)
}

func (h CLIHandler) StartPomodoro(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.StartPomodoro(ctx, key)
}

func (h CLIHandler) StartCouples(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return h.usecase.StartCouples(ctx, key)
}

func (h CLIHandler) ChessStart(ctx context.Context, side string) (dto.ChessOutput, error) {
	return h.usecase.ChessStart(ctx, side)
}

func (h CLIHandler) ChessSwitch(ctx context.Context) (dto.ChessOutput, error) {
	return h.usecase.ChessSwitch(ctx)
}

func (h CLIHandler) ChessStatus(ctx context.Context) (dto.ChessOutput, error) {
	return h.usecase.ChessStatus(ctx)
}

func (h CLIHandler) ChessReset(ctx context.Context) (dto.ChessOutput, error) {
	return h.usecase.ChessReset(ctx)
}

func (h CLIHandler) SetAlarm(ctx context.Context, at, zone string, weekdays []string) (dto.AlarmOutput, error) {
	return h.usecase.SetAlarm(ctx, dto.AlarmInput{Time: at, Zone: zone, Weekdays: weekdays})
}

func (h CLIHandler) MetronomeStart(ctx context.Context, bpm, beatsPerBar int) (dto.BeatOutput, error) {
	return h.usecase.MetronomeStart(ctx, dto.MetronomeInput{BPM: bpm, BeatsPerBar: beatsPerBar})
}

func (h CLIHandler) MetronomeBeat(ctx context.Context) (dto.BeatOutput, error) {
	return h.usecase.MetronomeBeat(ctx)
}

func (h CLIHandler) WorldClock(ctx context.Context, zones []string) ([]dto.ZoneOutput, error) {
	return h.usecase.WorldClock(ctx, zones)
}

func (h CLIHandler) ZoneOffset(ctx context.Context, from, to string) (time.Duration, error) {
	return h.usecase.ZoneOffset(ctx, from, to)
}
