package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"timekit/internal/modules/timer/domain"
	timerout "timekit/internal/modules/timer/port/out"
	"timekit/internal/platform/clock"
	apperrors "timekit/internal/platform/errors"
	"timekit/internal/platform/event"
	"timekit/internal/platform/id"
)

type TimerService struct {
	clock  clock.Clock
	idGen  id.Generator
	store  timerout.KeyValueStore
	events timerout.EventPublisher
	log    *slog.Logger
}

func NewTimerService(clock clock.Clock, idGen id.Generator, store timerout.KeyValueStore, events timerout.EventPublisher, log *slog.Logger) *TimerService {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TimerService{clock: clock, idGen: idGen, store: store, events: events, log: log}
}

func (s *TimerService) Now() time.Time { return s.clock.Now() }

func (s *TimerService) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list timer keys: %w", err)
	}
	return keys, nil
}

func (s *TimerService) Delete(ctx context.Context, key string) error {
	return NewStateRepository(s.store, key, s.log).Clear(ctx)
}

// Open builds the controller for key. A stored session that has not
// finished is resumed as-is and wins over cfg; otherwise cfg (or the stored
// configuration when cfg is empty) seeds an IDLE state that keeps the
// stored lifetime counters. Expiries that happened while nobody was ticking
// are replayed before Open returns.
func (s *TimerService) Open(ctx context.Context, key string, cfg domain.Configuration) (*Controller, error) {
	repo := NewStateRepository(s.store, key, s.log)
	loaded := repo.Load(ctx)

	var state domain.SessionState
	switch {
	case loaded != nil && loaded.Status != domain.StatusFinished:
		state = *loaded
	default:
		base := cfg
		if len(base.Phases) == 0 && loaded != nil {
			base = loaded.Configuration
		}
		if len(base.Phases) == 0 {
			return nil, fmt.Errorf("timer %q: %w", key, apperrors.ErrNotFound)
		}
		if err := base.Validate(); err != nil {
			return nil, err
		}
		state = domain.NewIdleState(base)
		if loaded != nil {
			state.CompletedCycles = loaded.CompletedCycles
			state.CompletedSessions = loaded.CompletedSessions
		}
	}

	c := &Controller{
		key:    key,
		svc:    s,
		repo:   repo,
		log:    s.log.With("key", key),
		sched:  domain.NewScheduler(state),
		loaded: loaded != nil,
	}
	if loaded != nil && loaded.Status != domain.StatusFinished {
		c.log.Debug("restored session", "status", loaded.Status, "phase_index", loaded.PhaseIndex)
		if _, err := c.Tick(ctx, s.clock.Now()); err != nil {
			return nil, err
		}
		return c, nil
	}
	c.snap = c.sched.Snapshot(clock.Millis(s.clock))
	return c, nil
}

// Controller drives one timer key. Every action persists the resulting
// record before returning.
type Controller struct {
	mu        sync.Mutex
	key       string
	svc       *TimerService
	repo      *StateRepository
	log       *slog.Logger
	sched     *domain.Scheduler
	snap      domain.Snapshot
	loaded    bool
	regressed bool
}

func (c *Controller) Key() string { return c.key }

// Persisted reports whether a record existed when the controller was opened
// or has been written since.
func (c *Controller) Persisted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Controller) Configuration() domain.Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.State().Configuration
}

// Configure swaps the configuration between sessions.
func (c *Controller) Configure(ctx context.Context, cfg domain.Configuration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, c.svc.clock.Now(), func(int64) ([]domain.Transition, error) {
		return nil, c.sched.Configure(cfg)
	})
}

func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.svc.clock.Now()
	err := c.apply(ctx, now, func(ms int64) ([]domain.Transition, error) {
		return nil, c.sched.Start(ms, c.svc.idGen.New())
	})
	if err != nil {
		return err
	}
	c.log.Debug("timer started", "widget", c.sched.State().Configuration.Widget)
	c.publishAction(event.TypeTimerStarted, now)
	return nil
}

// Pause keeps the expiries its catch-up replayed even when the session
// finished before it could be paused.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.svc.clock.Now()
	if err := c.apply(ctx, now, c.sched.Pause); err != nil {
		return err
	}
	c.log.Debug("timer paused", "elapsed_ms", c.sched.State().AccumulatedMs)
	c.publishAction(event.TypeTimerPaused, now)
	return nil
}

func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.svc.clock.Now()
	err := c.apply(ctx, now, func(ms int64) ([]domain.Transition, error) {
		return nil, c.sched.Resume(ms)
	})
	if err != nil {
		return err
	}
	c.log.Debug("timer resumed")
	c.publishAction(event.TypeTimerResumed, now)
	return nil
}

func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.svc.clock.Now()
	before := c.sched.Snapshot(now.UnixMilli())
	err := c.apply(ctx, now, func(int64) ([]domain.Transition, error) {
		c.sched.Reset()
		return nil, nil
	})
	if err != nil {
		return err
	}
	c.log.Debug("timer reset", "from", before.Status)
	c.publish(event.NewTimerActionEvent(event.TypeTimerReset, c.key, before.SessionID, before.Widget, before.PhaseKind, before.ElapsedMs, now))
	return nil
}

func (c *Controller) Skip(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, c.svc.clock.Now(), func(ms int64) ([]domain.Transition, error) {
		return c.sched.Skip(ms), nil
	})
}

// Tick recomputes the projection at now. The record is only rewritten when
// a phase boundary was crossed.
func (c *Controller) Tick(ctx context.Context, now time.Time) (domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickLocked(ctx, now)
}

func (c *Controller) tickLocked(ctx context.Context, now time.Time) (domain.Snapshot, error) {
	c.checkRegression(now.UnixMilli())
	prev := c.sched.State()
	transitions := c.sched.Tick(now.UnixMilli())
	if len(transitions) == 0 {
		c.snap = c.sched.Snapshot(now.UnixMilli())
		return c.snap, nil
	}
	if err := c.commit(ctx, now, transitions); err != nil {
		c.sched = domain.NewScheduler(prev)
		c.snap = c.sched.Snapshot(now.UnixMilli())
		return c.snap, err
	}
	return c.snap, nil
}

// Sync installs the stored record when it was rewritten by someone else
// since this controller last read or wrote it. Once the record has been
// removed Sync fails with ErrNotFound.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	loaded, gone := c.repo.Changed(ctx)
	if gone {
		return fmt.Errorf("timer %q: %w", c.key, apperrors.ErrNotFound)
	}
	if loaded == nil {
		return nil
	}
	c.log.Debug("picked up stored change", "status", loaded.Status, "phase_index", loaded.PhaseIndex)
	c.sched = domain.NewScheduler(*loaded)
	c.loaded = true
	c.snap = c.sched.Snapshot(clock.Millis(c.svc.clock))
	return nil
}

// Reload replaces the in-memory state with the stored record, for when
// another process changed it. A missing or unusable record leaves the
// controller untouched.
func (c *Controller) Reload(ctx context.Context) (domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loaded := c.repo.Load(ctx); loaded != nil {
		c.sched = domain.NewScheduler(*loaded)
		c.loaded = true
	}
	return c.tickLocked(ctx, c.svc.clock.Now())
}

// apply runs mutate against the scheduler and persists the result. When
// mutate fails without replaying any expiry nothing is written. When the
// write fails the scheduler goes back to the state it had before mutate.
func (c *Controller) apply(ctx context.Context, now time.Time, mutate func(int64) ([]domain.Transition, error)) error {
	prev := c.sched.State()
	transitions, err := mutate(now.UnixMilli())
	if err != nil && len(transitions) == 0 {
		c.sched = domain.NewScheduler(prev)
		return err
	}
	if cerr := c.commit(ctx, now, transitions); cerr != nil {
		c.sched = domain.NewScheduler(prev)
		c.snap = c.sched.Snapshot(now.UnixMilli())
		return cerr
	}
	return err
}

func (c *Controller) commit(ctx context.Context, now time.Time, transitions []domain.Transition) error {
	state := c.sched.State()
	if err := c.repo.Save(ctx, state); err != nil {
		return err
	}
	c.snap = c.sched.Snapshot(now.UnixMilli())
	c.loaded = true
	for _, tr := range transitions {
		c.log.Info("phase expired",
			"from", tr.FromKind,
			"to", tr.ToKind,
			"policy", tr.Policy,
			"skipped", tr.Skipped,
			"finished", tr.Finished,
		)
		at := clock.FromMillis(tr.At)
		c.publish(event.NewPhaseExpiredEvent(
			c.key, state.SessionID, state.Configuration.Widget,
			tr.FromIndex, tr.FromKind, tr.ToIndex, tr.ToKind, string(tr.Policy),
			tr.ElapsedMs, tr.Skipped, tr.Finished, at,
		))
		if tr.Finished {
			var startedAt time.Time
			if state.SessionStartedAt != nil {
				startedAt = clock.FromMillis(*state.SessionStartedAt)
			}
			c.publish(event.NewSessionFinishedEvent(c.key, state.SessionID, state.Configuration.Widget, startedAt, state.SessionCycles, state.SessionActiveMs, at))
		}
	}
	return nil
}

func (c *Controller) checkRegression(now int64) {
	st := c.sched.State()
	behind := st.StartedAt != nil && *st.StartedAt > now
	if behind && !c.regressed {
		c.log.Warn("clock moved behind session anchor, clamping elapsed", "started_at", *st.StartedAt, "now", now)
	}
	c.regressed = behind
}

func (c *Controller) publishAction(eventType string, now time.Time) {
	c.publish(event.NewTimerActionEvent(eventType, c.key, c.snap.SessionID, c.snap.Widget, c.snap.PhaseKind, c.snap.ElapsedMs, now))
}

func (c *Controller) publish(e event.Event) {
	if c.svc.events != nil {
		c.svc.events.Publish(e)
	}
}
