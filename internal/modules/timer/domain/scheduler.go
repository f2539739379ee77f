package domain

import (
	"fmt"

	apperrors "timekit/internal/platform/errors"
)

// MaxCatchUp bounds how many boundaries one call replays. A longer backlog
// continues on the next tick from the exact boundary where this one stopped.
const MaxCatchUp = 10_000

// Transition describes one phase expiry.
type Transition struct {
	FromIndex      int
	FromKind       string
	ToIndex        int
	ToKind         string
	Policy         ExpiryPolicy
	At             int64
	ElapsedMs      int64
	Skipped        bool
	CycleCompleted bool
	Finished       bool
}

// Scheduler is the phase state machine. Every method takes the caller's
// notion of now; nothing reads the wall clock here.
type Scheduler struct {
	state SessionState
}

func NewScheduler(state SessionState) *Scheduler {
	if state.Version == 0 {
		state.Version = SchemaVersion
	}
	return &Scheduler{state: state}
}

func (s *Scheduler) State() SessionState { return s.state }

func (s *Scheduler) Status() Status { return s.state.Status }

func (s *Scheduler) current() (string, int64, bool) {
	return s.state.Configuration.PhaseAt(s.state.PhaseIndex, s.state.SessionCycles)
}

func illegal(action string, from Status) error {
	return fmt.Errorf("%s from %s: %w", action, from, apperrors.ErrInvalidTransition)
}

// Configure replaces the configuration between sessions.
func (s *Scheduler) Configure(cfg Configuration) error {
	if s.state.Status != StatusIdle && s.state.Status != StatusFinished {
		return illegal("configure", s.state.Status)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.state.Configuration = cfg
	return nil
}

// Start begins a new session at phase 0. Starting again after FINISHED is
// allowed and keeps the lifetime counters.
func (s *Scheduler) Start(now int64, sessionID string) error {
	if s.state.Status != StatusIdle && s.state.Status != StatusFinished {
		return illegal("start", s.state.Status)
	}
	if err := s.state.Configuration.Validate(); err != nil {
		return err
	}
	st := s.state
	st.Version = SchemaVersion
	st.SessionID = sessionID
	st.Status = StatusRunning
	st.PhaseIndex = 0
	st.StartedAt = ptr(now)
	st.AccumulatedMs = 0
	st.RemainingAtPauseMs = nil
	st.SessionCycles = 0
	st.Schedule = st.Configuration.BuildSchedule()
	st.SessionStartedAt = ptr(now)
	st.SessionActiveMs = 0
	s.state = st
	return nil
}

// Tick replays every boundary crossed up to now. The next phase is anchored
// at the boundary instant, not at now, so late ticks lose no time.
func (s *Scheduler) Tick(now int64) []Transition {
	var out []Transition
	for len(out) < MaxCatchUp && s.state.Status == StatusRunning {
		_, d, bounded := s.current()
		if !bounded {
			break
		}
		elapsed := Elapsed(s.state.StartedAt, s.state.AccumulatedMs, now)
		if elapsed < d {
			break
		}
		boundary := now - (elapsed - d)
		out = append(out, s.expire(boundary, d, false))
	}
	return out
}

func (s *Scheduler) Pause(now int64) ([]Transition, error) {
	out := s.Tick(now)
	if s.state.Status != StatusRunning {
		return out, illegal("pause", s.state.Status)
	}
	s.state.Status = StatusPaused
	s.state.AccumulatedMs = Elapsed(s.state.StartedAt, s.state.AccumulatedMs, now)
	s.state.StartedAt = nil
	if _, d, bounded := s.current(); bounded {
		s.state.RemainingAtPauseMs = ptr(Remaining(d, s.state.AccumulatedMs))
	}
	return out, nil
}

func (s *Scheduler) Resume(now int64) error {
	if s.state.Status != StatusPaused {
		return illegal("resume", s.state.Status)
	}
	s.state.Status = StatusRunning
	s.state.StartedAt = ptr(now)
	s.state.RemainingAtPauseMs = nil
	return nil
}

// Skip expires the current phase immediately with its normal policy. It is
// a no-op while IDLE or FINISHED and keeps a paused session paused.
func (s *Scheduler) Skip(now int64) []Transition {
	out := s.Tick(now)
	if s.state.Status != StatusRunning && s.state.Status != StatusPaused {
		return out
	}
	elapsed := Elapsed(s.state.StartedAt, s.state.AccumulatedMs, now)
	if _, d, bounded := s.current(); bounded && elapsed > d {
		elapsed = d
	}
	return append(out, s.expire(now, elapsed, true))
}

// Reset returns to IDLE at phase 0. Lifetime counters survive.
func (s *Scheduler) Reset() {
	s.state = SessionState{
		Version:           SchemaVersion,
		Status:            StatusIdle,
		Configuration:     s.state.Configuration,
		CompletedCycles:   s.state.CompletedCycles,
		CompletedSessions: s.state.CompletedSessions,
	}
}

func (s *Scheduler) expire(at, elapsed int64, skipped bool) Transition {
	fromKind, _, _ := s.current()
	policy := s.state.Configuration.Phases[s.state.PhaseIndex].OnExpire
	tr := Transition{
		FromIndex: s.state.PhaseIndex,
		FromKind:  fromKind,
		Policy:    policy,
		At:        at,
		ElapsedMs: elapsed,
		Skipped:   skipped,
	}
	s.state.SessionActiveMs += elapsed
	running := s.state.Status == StatusRunning
	switch policy {
	case PolicyAdvance:
		s.enter(s.state.PhaseIndex+1, at, running)
	case PolicyRepeatCycle:
		s.state.SessionCycles++
		s.state.CompletedCycles++
		tr.CycleCompleted = true
		if limit := s.state.Configuration.RepeatCount; limit > 0 && s.state.SessionCycles >= limit {
			s.finish(elapsed)
		} else {
			s.enter(s.state.Configuration.CycleStart, at, running)
		}
	default:
		s.finish(elapsed)
	}
	tr.ToIndex = s.state.PhaseIndex
	tr.ToKind, _, _ = s.current()
	tr.Finished = s.state.Status == StatusFinished
	return tr
}

func (s *Scheduler) enter(index int, at int64, running bool) {
	s.state.PhaseIndex = index
	s.state.AccumulatedMs = 0
	s.state.RemainingAtPauseMs = nil
	if running {
		s.state.StartedAt = ptr(at)
		return
	}
	s.state.StartedAt = nil
	if _, d, bounded := s.current(); bounded {
		s.state.RemainingAtPauseMs = ptr(d)
	}
}

func (s *Scheduler) finish(elapsed int64) {
	s.state.Status = StatusFinished
	s.state.StartedAt = nil
	s.state.AccumulatedMs = elapsed
	s.state.RemainingAtPauseMs = nil
	s.state.CompletedSessions++
}

// Snapshot projects the state at now without mutating it.
func (s *Scheduler) Snapshot(now int64) Snapshot {
	st := s.state
	kind, d, bounded := s.current()
	snap := Snapshot{
		Status:            st.Status,
		SessionID:         st.SessionID,
		Widget:            st.Configuration.Widget,
		PhaseIndex:        st.PhaseIndex,
		PhaseCount:        len(st.Configuration.Phases),
		PhaseKind:         kind,
		Bounded:           bounded,
		SessionCycles:     st.SessionCycles,
		CompletedCycles:   st.CompletedCycles,
		CompletedSessions: st.CompletedSessions,
		At:                now,
	}
	if bounded {
		snap.DurationMs = d
	}
	switch st.Status {
	case StatusRunning:
		snap.ElapsedMs = Elapsed(st.StartedAt, st.AccumulatedMs, now)
	case StatusPaused, StatusFinished:
		snap.ElapsedMs = st.AccumulatedMs
	}
	if bounded {
		switch {
		case st.Status == StatusFinished:
			snap.RemainingMs = 0
		case st.Status == StatusPaused && st.RemainingAtPauseMs != nil:
			snap.RemainingMs = *st.RemainingAtPauseMs
		default:
			snap.RemainingMs = Remaining(d, snap.ElapsedMs)
		}
	}
	schedule := st.Schedule
	if schedule == nil {
		schedule = st.Configuration.BuildSchedule()
	}
	if len(schedule) > 0 && st.PhaseIndex < len(schedule) {
		snap.SessionBounded = true
		if st.Status != StatusFinished {
			snap.SessionRemainingMs = snap.RemainingMs + TotalMs(schedule) - schedule[st.PhaseIndex].EndMs
		}
	}
	return snap
}

func ptr(v int64) *int64 { return &v }
