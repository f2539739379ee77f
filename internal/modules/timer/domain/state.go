package domain

import (
	"fmt"

	apperrors "timekit/internal/platform/errors"
)

const SchemaVersion = 1

type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusRunning  Status = "RUNNING"
	StatusPaused   Status = "PAUSED"
	StatusFinished Status = "FINISHED"
)

// SessionState is the persisted record of one timer key. While RUNNING
// StartedAt anchors elapsed time; while PAUSED the frozen values are
// authoritative and StartedAt is nil.
type SessionState struct {
	Version            int           `json:"version"`
	SessionID          string        `json:"sessionId,omitempty"`
	Status             Status        `json:"phase"`
	PhaseIndex         int           `json:"phaseIndex"`
	StartedAt          *int64        `json:"startedAt"`
	AccumulatedMs      int64         `json:"accumulatedMs"`
	RemainingAtPauseMs *int64        `json:"remainingAtPauseMs,omitempty"`
	Configuration      Configuration `json:"configuration"`
	SessionCycles      int           `json:"sessionCycles"`
	CompletedCycles    int           `json:"completedCycles"`
	CompletedSessions  int           `json:"completedSessions"`
	Schedule           []Boundary    `json:"schedule,omitempty"`
	SessionStartedAt   *int64        `json:"sessionStartedAt,omitempty"`
	SessionActiveMs    int64         `json:"sessionActiveMs,omitempty"`
}

func NewIdleState(cfg Configuration) SessionState {
	return SessionState{Version: SchemaVersion, Status: StatusIdle, Configuration: cfg}
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrPersistenceCorrupt)
}

// Validate checks a decoded record before it is trusted.
func (s SessionState) Validate() error {
	if s.Version != SchemaVersion {
		return corrupt("schema version %d, want %d", s.Version, SchemaVersion)
	}
	if err := s.Configuration.Validate(); err != nil {
		return corrupt("configuration: %v", err)
	}
	if s.PhaseIndex < 0 || s.PhaseIndex >= len(s.Configuration.Phases) {
		return corrupt("phase index %d out of range", s.PhaseIndex)
	}
	if s.AccumulatedMs < 0 || s.SessionActiveMs < 0 || s.SessionCycles < 0 || s.CompletedCycles < 0 || s.CompletedSessions < 0 {
		return corrupt("negative accumulation or counter")
	}
	switch s.Status {
	case StatusRunning:
		if s.StartedAt == nil {
			return corrupt("running without start anchor")
		}
	case StatusPaused:
		if s.StartedAt != nil {
			return corrupt("paused with start anchor")
		}
		if s.RemainingAtPauseMs != nil {
			_, d, bounded := s.Configuration.PhaseAt(s.PhaseIndex, s.SessionCycles)
			if *s.RemainingAtPauseMs < 0 || (bounded && *s.RemainingAtPauseMs > d) {
				return corrupt("remaining at pause %d outside phase", *s.RemainingAtPauseMs)
			}
		}
	case StatusIdle:
		if s.StartedAt != nil || s.PhaseIndex != 0 || s.AccumulatedMs != 0 {
			return corrupt("idle record carries progress")
		}
	case StatusFinished:
		if s.StartedAt != nil {
			return corrupt("finished with start anchor")
		}
	default:
		return corrupt("unknown status %q", s.Status)
	}
	return nil
}
