package domain

// Snapshot is the read-only projection consumers render. RemainingMs and
// DurationMs are meaningful only when Bounded; SessionRemainingMs only
// when SessionBounded.
type Snapshot struct {
	Status             Status
	SessionID          string
	Widget             string
	PhaseIndex         int
	PhaseCount         int
	PhaseKind          string
	ElapsedMs          int64
	RemainingMs        int64
	DurationMs         int64
	Bounded            bool
	SessionRemainingMs int64
	SessionBounded     bool
	SessionCycles      int
	CompletedCycles    int
	CompletedSessions  int
	At                 int64
}
