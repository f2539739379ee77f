package domain

import "time"

const (
	EntryPhase   = "phase"
	EntrySession = "session"
)

// Entry is one line of timer history: a phase that ended (naturally or by
// skip) or a session that finished.
type Entry struct {
	ID        string
	Type      string
	Key       string
	SessionID string
	Widget    string
	PhaseKind string
	ElapsedMs int64
	Skipped   bool
	At        time.Time
}

// Stat aggregates time spent per phase kind.
type Stat struct {
	PhaseKind string
	Count     int
	TotalMs   int64
}
