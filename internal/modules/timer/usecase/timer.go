package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"timekit/internal/modules/timer/domain"
	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
	"timekit/internal/modules/timer/service"
	"timekit/internal/platform/clock"
	apperrors "timekit/internal/platform/errors"
)

type Interactor struct {
	svc *service.TimerService

	mu          sync.Mutex
	controllers map[string]*service.Controller
}

func NewInteractor(svc *service.TimerService) timerin.Usecase {
	return &Interactor{svc: svc, controllers: map[string]*service.Controller{}}
}

func (i *Interactor) Start(ctx context.Context, input timerdto.StartInput) (timerdto.TimerOutput, error) {
	if err := domain.ValidateKey(input.Key); err != nil {
		return timerdto.TimerOutput{}, err
	}
	var cfg domain.Configuration
	if input.Config != nil {
		converted, err := ToConfiguration(*input.Config)
		if err != nil {
			return timerdto.TimerOutput{}, err
		}
		cfg = converted
	}

	c, err := i.controller(ctx, input.Key, cfg)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	switch c.Snapshot().Status {
	case domain.StatusRunning, domain.StatusPaused:
		return timerdto.TimerOutput{}, fmt.Errorf("timer %q: %w", input.Key, apperrors.ErrActiveSessionExists)
	}
	if input.Config != nil {
		if err := c.Configure(ctx, cfg); err != nil {
			return timerdto.TimerOutput{}, err
		}
	}
	if err := c.Start(ctx); err != nil {
		return timerdto.TimerOutput{}, err
	}
	return toOutput(c.Key(), c.Snapshot()), nil
}

// Configure stores a configuration without starting it, leaving the timer
// IDLE. It fails while a session is active.
func (i *Interactor) Configure(ctx context.Context, input timerdto.StartInput) (timerdto.TimerOutput, error) {
	if err := domain.ValidateKey(input.Key); err != nil {
		return timerdto.TimerOutput{}, err
	}
	if input.Config == nil {
		return timerdto.TimerOutput{}, fmt.Errorf("configuration is required: %w", apperrors.ErrInvalidInput)
	}
	cfg, err := ToConfiguration(*input.Config)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	c, err := i.controller(ctx, input.Key, cfg)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	if c.Snapshot().Status == domain.StatusFinished {
		if err := c.Reset(ctx); err != nil {
			return timerdto.TimerOutput{}, err
		}
	}
	if err := c.Configure(ctx, cfg); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			return timerdto.TimerOutput{}, fmt.Errorf("timer %q: %w", input.Key, apperrors.ErrActiveSessionExists)
		}
		return timerdto.TimerOutput{}, err
	}
	return toOutput(c.Key(), c.Snapshot()), nil
}

func (i *Interactor) Pause(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return i.act(ctx, key, (*service.Controller).Pause)
}

func (i *Interactor) Resume(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return i.act(ctx, key, (*service.Controller).Resume)
}

func (i *Interactor) Reset(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return i.act(ctx, key, (*service.Controller).Reset)
}

func (i *Interactor) Skip(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	return i.act(ctx, key, (*service.Controller).Skip)
}

func (i *Interactor) Status(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	if err := domain.ValidateKey(key); err != nil {
		return timerdto.TimerOutput{}, err
	}
	c, err := i.controller(ctx, key, domain.Configuration{})
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	snap, err := c.Tick(ctx, i.svc.Now())
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	return toOutput(key, snap), nil
}

// List ticks every stored timer and returns them ordered by key. Records
// that cannot be used are skipped.
func (i *Interactor) List(ctx context.Context) ([]timerdto.TimerOutput, error) {
	keys, err := i.svc.Keys(ctx)
	if err != nil {
		return nil, err
	}
	now := i.svc.Now()
	out := make([]timerdto.TimerOutput, 0, len(keys))
	for _, key := range keys {
		if domain.ValidateKey(key) != nil {
			continue
		}
		c, err := i.controller(ctx, key, domain.Configuration{})
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidConfiguration) {
				continue
			}
			return nil, err
		}
		snap, err := c.Tick(ctx, now)
		if err != nil {
			return nil, err
		}
		out = append(out, toOutput(key, snap))
	}
	return out, nil
}

// Refresh re-reads the stored record of key, picking up changes made by
// another process.
func (i *Interactor) Refresh(ctx context.Context, key string) (timerdto.TimerOutput, error) {
	if err := domain.ValidateKey(key); err != nil {
		return timerdto.TimerOutput{}, err
	}
	i.mu.Lock()
	c, ok := i.controllers[key]
	i.mu.Unlock()
	if !ok {
		return i.Status(ctx, key)
	}
	snap, err := c.Reload(ctx)
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	return toOutput(key, snap), nil
}

func (i *Interactor) Delete(ctx context.Context, key string) error {
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	if err := i.svc.Delete(ctx, key); err != nil {
		return err
	}
	i.mu.Lock()
	delete(i.controllers, key)
	i.mu.Unlock()
	return nil
}

func (i *Interactor) act(ctx context.Context, key string, action func(*service.Controller, context.Context) error) (timerdto.TimerOutput, error) {
	if err := domain.ValidateKey(key); err != nil {
		return timerdto.TimerOutput{}, err
	}
	c, err := i.controller(ctx, key, domain.Configuration{})
	if err != nil {
		return timerdto.TimerOutput{}, err
	}
	if err := action(c, ctx); err != nil {
		return timerdto.TimerOutput{}, err
	}
	return toOutput(key, c.Snapshot()), nil
}

// controller returns the cached controller for key after bringing it up to
// date with the stored record, so changes made by another process are never
// overwritten by stale state. A record removed elsewhere drops the cache
// entry and key is opened afresh.
func (i *Interactor) controller(ctx context.Context, key string, cfg domain.Configuration) (*service.Controller, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if c, ok := i.controllers[key]; ok {
		err := c.Sync(ctx)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		delete(i.controllers, key)
	}
	c, err := i.svc.Open(ctx, key, cfg)
	if err != nil {
		return nil, err
	}
	i.controllers[key] = c
	return c, nil
}

// ToConfiguration converts user input into a validated configuration.
func ToConfiguration(input timerdto.ConfigInput) (domain.Configuration, error) {
	cfg := domain.Configuration{
		Widget:      input.Widget,
		CycleStart:  input.CycleStart,
		RepeatCount: input.RepeatCount,
	}
	for idx, p := range input.Phases {
		policy, err := domain.ParsePolicy(p.OnExpire)
		if err != nil {
			return domain.Configuration{}, fmt.Errorf("phase %d: %w", idx, err)
		}
		if p.Duration < 0 {
			return domain.Configuration{}, fmt.Errorf("phase %d (%s): negative duration: %w", idx, p.Kind, apperrors.ErrInvalidConfiguration)
		}
		phase := domain.OpenPhase(p.Kind, policy)
		if p.Duration > 0 {
			phase = domain.BoundedPhase(p.Kind, p.Duration.Milliseconds(), policy)
		}
		if v := p.Variant; v != nil {
			phase.Variant = &domain.PhaseVariant{Kind: v.Kind, DurationMs: v.Duration.Milliseconds(), EveryCycles: v.Every}
		}
		cfg.Phases = append(cfg.Phases, phase)
	}
	if err := cfg.Validate(); err != nil {
		return domain.Configuration{}, err
	}
	return cfg, nil
}

func toOutput(key string, s domain.Snapshot) timerdto.TimerOutput {
	return timerdto.TimerOutput{
		Key:                key,
		Status:             string(s.Status),
		SessionID:          s.SessionID,
		Widget:             s.Widget,
		PhaseIndex:         s.PhaseIndex,
		PhaseCount:         s.PhaseCount,
		PhaseKind:          s.PhaseKind,
		ElapsedMs:          s.ElapsedMs,
		RemainingMs:        s.RemainingMs,
		DurationMs:         s.DurationMs,
		Bounded:            s.Bounded,
		SessionRemainingMs: s.SessionRemainingMs,
		SessionBounded:     s.SessionBounded,
		SessionCycles:      s.SessionCycles,
		CompletedCycles:    s.CompletedCycles,
		CompletedSessions:  s.CompletedSessions,
		At:                 clock.FromMillis(s.At),
	}
}
