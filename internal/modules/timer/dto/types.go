package dto

import "time"

type VariantInput struct {
	Kind     string
	Duration time.Duration
	Every    int
}

// PhaseInput describes one phase. A zero Duration means open-ended.
type PhaseInput struct {
	Kind     string
	Duration time.Duration
	OnExpire string
	Variant  *VariantInput
}

type ConfigInput struct {
	Widget      string
	Phases      []PhaseInput
	CycleStart  int
	RepeatCount int
}

// StartInput starts a session on Key. A nil Config reuses the stored
// configuration.
type StartInput struct {
	Key    string
	Config *ConfigInput
}

type TimerOutput struct {
	Key                string    `json:"key"`
	Status             string    `json:"status"`
	SessionID          string    `json:"sessionId,omitempty"`
	Widget             string    `json:"widget"`
	PhaseIndex         int       `json:"phaseIndex"`
	PhaseCount         int       `json:"phaseCount"`
	PhaseKind          string    `json:"phaseKind"`
	ElapsedMs          int64     `json:"elapsedMs"`
	RemainingMs        int64     `json:"remainingMs"`
	DurationMs         int64     `json:"durationMs"`
	Bounded            bool      `json:"bounded"`
	SessionRemainingMs int64     `json:"sessionRemainingMs"`
	SessionBounded     bool      `json:"sessionBounded"`
	SessionCycles      int       `json:"sessionCycles"`
	CompletedCycles    int       `json:"completedCycles"`
	CompletedSessions  int       `json:"completedSessions"`
	At                 time.Time `json:"at"`
}
