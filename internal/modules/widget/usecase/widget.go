package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
	"timekit/internal/modules/widget/domain"
	"timekit/internal/modules/widget/dto"
	widgetin "timekit/internal/modules/widget/port/in"
	widgetout "timekit/internal/modules/widget/port/out"
	"timekit/internal/modules/widget/service"
	"timekit/internal/platform/clock"
	apperrors "timekit/internal/platform/errors"
	"timekit/internal/platform/slug"
)

const metronomeKey = "metronome"

type Interactor struct {
	timers   timerin.Usecase
	presets  widgetout.PresetStore
	chess    *service.ChessClock
	settings domain.Settings
	clock    clock.Clock
}

func NewInteractor(timers timerin.Usecase, presets widgetout.PresetStore, settings domain.Settings, clk clock.Clock) widgetin.Usecase {
	return &Interactor{
		timers:   timers,
		presets:  presets,
		chess:    service.NewChessClock(timers, settings.ChessBudget),
		settings: settings,
		clock:    clk,
	}
}

func (i *Interactor) builtins() []domain.Preset {
	out := []domain.Preset{domain.Stopwatch()}
	if p, err := domain.Pomodoro(i.settings.Pomodoro); err == nil {
		out = append(out, p)
	}
	if p, err := domain.Couples(i.settings.Couples); err == nil {
		out = append(out, p)
	}
	return out
}

func (i *Interactor) allPresets(ctx context.Context) ([]domain.Preset, error) {
	presets := i.builtins()
	if i.presets == nil {
		return presets, nil
	}
	user, err := i.presets.List(ctx)
	if err != nil {
		return nil, err
	}
	// user presets shadow built-ins of the same name
	byName := map[string]int{}
	for idx, p := range presets {
		byName[p.Name] = idx
	}
	for _, p := range user {
		if idx, ok := byName[p.Name]; ok {
			presets[idx] = p
			continue
		}
		presets = append(presets, p)
	}
	return presets, nil
}

func (i *Interactor) Presets(ctx context.Context) ([]dto.PresetOutput, error) {
	presets, err := i.allPresets(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(presets, func(a, b int) bool { return presets[a].Name < presets[b].Name })
	out := make([]dto.PresetOutput, 0, len(presets))
	for _, p := range presets {
		item := dto.PresetOutput{
			Name:        p.Name,
			Widget:      p.Widget,
			Description: p.Description,
			Repeat:      p.Repeat,
			Builtin:     p.Builtin,
			Total:       p.Total(),
		}
		for _, ph := range p.Phases {
			item.Phases = append(item.Phases, dto.PhaseOutput{Kind: ph.Kind, Duration: ph.Duration, OnExpire: ph.OnExpire})
		}
		out = append(out, item)
	}
	return out, nil
}

func (i *Interactor) StartPreset(ctx context.Context, name, key string) (timerdto.TimerOutput, error) {
	presets, err := i.allPresets(ctx)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	for _, p := range presets {
		if p.Name == name {
			return i.start(ctx, key, p)
		}
	}
	return timerdto.TimerOutput{}, fmt.Errorf("preset %q: %w", name, apperrors.ErrNotFound)
}

func (i *Interactor) StartCountdown(ctx context.Context, key string, d time.Duration) (timerdto.TimerOutput, error) {
	p, err := domain.Countdown(d)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	return i.start(ctx, key, p)
}

func (i *Interactor) StartStopwatch(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return i.start(ctx, key, domain.Stopwatch())
}

func (i *Interactor) StartPomodoro(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	p, err := domain.Pomodoro(i.settings.Pomodoro)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	return i.start(ctx, key, p)
}

func (i *Interactor) StartCouples(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	p, err := domain.Couples(i.settings.Couples)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	return i.start(ctx, key, p)
}

func (i *Interactor) start(ctx context.Context, key string, p domain.Preset) (timerdto.TimerOutput, error) {
	if key == "" {
		key = slug.Make(p.Name)
	}
	cfg := service.ConfigFor(p)
	return i.timers.Start(ctx, timerdto.StartInput{Key: key, Config: &cfg})
}

func (i *Interactor) ChessStart(ctx context.Context, side string) (dto.ChessOutput, error) {
	first, err := domain.ParseSide(side)
	if err != nil {
		return dto.ChessOutput{}, err
	}
	return i.chess.Start(ctx, first)
}

func (i *Interactor) ChessSwitch(ctx context.Context) (dto.ChessOutput, error) {
	return i.chess.Switch(ctx)
}

func (i *Interactor) ChessStatus(ctx context.Context) (dto.ChessOutput, error) {
	return i.chess.Status(ctx)
}

func (i *Interactor) ChessReset(ctx context.Context) (dto.ChessOutput, error) {
	return i.chess.Reset(ctx)
}

// SetAlarm arms (or re-arms) a countdown that expires at the next
// occurrence of the alarm time.
func (i *Interactor) SetAlarm(ctx context.Context, input dto.AlarmInput) (dto.AlarmOutput, error) {
	alarm, err := domain.ParseAlarm(input.Time, input.Zone, input.Weekdays)
	if err != nil {
		return dto.AlarmOutput{}, err
	}
	now := i.clock.Now()
	at := alarm.Next(now)
	key := alarm.Key()
	if err := i.clear(ctx, key); err != nil {
		return dto.AlarmOutput{}, err
	}
	wait := at.Sub(now).Truncate(time.Millisecond)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	cfg := timerdto.ConfigInput{
		Widget: domain.WidgetAlarm,
		Phases: []timerdto.PhaseInput{{Kind: "alarm", Duration: wait, OnExpire: "stop"}},
	}
	out, err := i.timers.Start(ctx, timerdto.StartInput{Key: key, Config: &cfg})
	if err != nil {
		return dto.AlarmOutput{}, err
	}
	return dto.AlarmOutput{Key: key, At: at, Timer: out}, nil
}

func (i *Interactor) MetronomeStart(ctx context.Context, input dto.MetronomeInput) (dto.BeatOutput, error) {
	bpm, beats := input.BPM, input.BeatsPerBar
	if bpm == 0 {
		bpm = i.settings.Metronome.BPM
	}
	if beats == 0 {
		beats = i.settings.Metronome.BeatsPerBar
	}
	m, err := domain.NewMetronome(bpm, beats)
	if err != nil {
		return dto.BeatOutput{}, err
	}
	if err := i.clear(ctx, metronomeKey); err != nil {
		return dto.BeatOutput{}, err
	}
	cfg := service.MetronomeConfig(m)
	out, err := i.timers.Start(ctx, timerdto.StartInput{Key: metronomeKey, Config: &cfg})
	if err != nil {
		return dto.BeatOutput{}, err
	}
	return beatOutput(m, out), nil
}

func (i *Interactor) MetronomeBeat(ctx context.Context) (dto.BeatOutput, error) {
	out, err := i.timers.Status(ctx, metronomeKey)
	if err != nil {
		return dto.BeatOutput{}, err
	}
	m, ok := service.ParseMetronomeKind(out.PhaseKind)
	if !ok {
		return dto.BeatOutput{}, fmt.Errorf("timer %q is not a metronome: %w", metronomeKey, apperrors.ErrInvalidInput)
	}
	return beatOutput(m, out), nil
}

func beatOutput(m domain.Metronome, out timerdto.TimerOutput) dto.BeatOutput {
	b := m.BeatAt(time.Duration(out.ElapsedMs) * time.Millisecond)
	return dto.BeatOutput{
		BPM:         m.BPM,
		BeatsPerBar: m.BeatsPerBar,
		Count:       b.Count,
		Bar:         b.Bar,
		BeatInBar:   b.BeatInBar,
		Accent:      b.Accent,
		UntilNext:   b.UntilNext,
		Timer:       out,
	}
}

func (i *Interactor) WorldClock(_ context.Context, zones []string) ([]dto.ZoneOutput, error) {
	if len(zones) == 0 {
		zones = i.settings.Zones
	}
	if len(zones) == 0 {
		zones = []string{"UTC"}
	}
	now := i.clock.Now()
	out := make([]dto.ZoneOutput, 0, len(zones))
	for _, name := range zones {
		z, err := domain.LookupZone(name, now)
		if err != nil {
			return nil, err
		}
		out = append(out, dto.ZoneOutput{Zone: z.Zone, Abbrev: z.Abbrev, Local: z.Local, Offset: z.Offset})
	}
	return out, nil
}

func (i *Interactor) ZoneOffset(_ context.Context, from, to string) (time.Duration, error) {
	return domain.OffsetBetween(from, to, i.clock.Now())
}

// clear resets key so it can be started again; an unknown key is fine.
func (i *Interactor) clear(ctx context.Context, key string) error {
	_, err := i.timers.Reset(ctx, key)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}
