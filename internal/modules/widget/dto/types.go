package dto

import (
	"time"

	timerdto "timekit/internal/modules/timer/dto"
)

type PhaseOutput struct {
	Kind     string
	Duration time.Duration
	OnExpire string
}

type PresetOutput struct {
	Name        string
	Widget      string
	Description string
	Phases      []PhaseOutput
	Repeat      int
	Builtin     bool
	Total       time.Duration
}

type ChessOutput struct {
	White   timerdto.TimerOutput
	Black   timerdto.TimerOutput
	Turn    string
	Flagged string
}

type AlarmInput struct {
	Time     string
	Zone     string
	Weekdays []string
}

type AlarmOutput struct {
	Key   string
	At    time.Time
	Timer timerdto.TimerOutput
}

// MetronomeInput uses the configured defaults for zero fields.
type MetronomeInput struct {
	BPM         int
	BeatsPerBar int
}

type BeatOutput struct {
	BPM         int
	BeatsPerBar int
	Count       int64
	Bar         int64
	BeatInBar   int
	Accent      bool
	UntilNext   time.Duration
	Timer       timerdto.TimerOutput
}

type ZoneOutput struct {
	Zone   string
	Abbrev string
	Local  time.Time
	Offset time.Duration
}
