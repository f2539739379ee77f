package dto

import "time"

type ListInput struct {
	Key   string
	Limit int
}

type EntryOutput struct {
	Type      string
	Key       string
	SessionID string
	Widget    string
	PhaseKind string
	Elapsed   time.Duration
	Skipped   bool
	At        time.Time
}

type StatOutput struct {
	PhaseKind string
	Count     int
	Total     time.Duration
}
