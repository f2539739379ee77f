package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "timekit/internal/platform/errors"
)

const (
	WidgetCountdown = "countdown"
	WidgetStopwatch = "stopwatch"
	WidgetPomodoro  = "pomodoro"
	WidgetCouples   = "couples"
	WidgetChess     = "chess"
	WidgetMetronome = "metronome"
	WidgetAlarm     = "alarm"
)

type PresetVariant struct {
	Kind     string
	Duration time.Duration
	Every    int
}

// PresetPhase mirrors a timer phase. A zero Duration is open-ended.
type PresetPhase struct {
	Kind     string
	Duration time.Duration
	OnExpire string
	Variant  *PresetVariant
}

// Preset is a named, reusable timer configuration.
type Preset struct {
	Name        string
	Widget      string
	Description string
	Phases      []PresetPhase
	CycleStart  int
	Repeat      int
	Builtin     bool
}

func (p Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preset name is required: %w", apperrors.ErrInvalidInput)
	}
	if len(p.Phases) == 0 {
		return fmt.Errorf("preset %q has no phases: %w", p.Name, apperrors.ErrInvalidConfiguration)
	}
	for i, ph := range p.Phases {
		if strings.TrimSpace(ph.Kind) == "" {
			return fmt.Errorf("preset %q phase %d: kind is required: %w", p.Name, i, apperrors.ErrInvalidConfiguration)
		}
		if ph.Duration < 0 {
			return fmt.Errorf("preset %q phase %d: negative duration: %w", p.Name, i, apperrors.ErrInvalidConfiguration)
		}
	}
	return nil
}

// Total sums bounded phases once through, ignoring repeats.
func (p Preset) Total() time.Duration {
	var total time.Duration
	for _, ph := range p.Phases {
		total += ph.Duration
	}
	return total
}

func Countdown(d time.Duration) (Preset, error) {
	if d <= 0 {
		return Preset{}, fmt.Errorf("countdown duration must be positive: %w", apperrors.ErrInvalidInput)
	}
	return Preset{
		Name:    WidgetCountdown,
		Widget:  WidgetCountdown,
		Phases:  []PresetPhase{{Kind: "countdown", Duration: d, OnExpire: "stop"}},
		Builtin: true,
	}, nil
}

func Stopwatch() Preset {
	return Preset{
		Name:        WidgetStopwatch,
		Widget:      WidgetStopwatch,
		Description: "count up until stopped",
		Phases:      []PresetPhase{{Kind: "stopwatch", OnExpire: "stop"}},
		Builtin:     true,
	}
}

type PomodoroSettings struct {
	Work           time.Duration
	ShortBreak     time.Duration
	LongBreak      time.Duration
	LongBreakEvery int
	Rounds         int
}

// Pomodoro alternates work and short breaks; every LongBreakEvery-th break
// is a long one. Rounds of zero repeats until reset.
func Pomodoro(s PomodoroSettings) (Preset, error) {
	if s.Work <= 0 || s.ShortBreak <= 0 {
		return Preset{}, fmt.Errorf("pomodoro work and break must be positive: %w", apperrors.ErrInvalidInput)
	}
	if s.Rounds < 0 {
		return Preset{}, fmt.Errorf("pomodoro rounds must be non-negative: %w", apperrors.ErrInvalidInput)
	}
	brk := PresetPhase{Kind: "short_break", Duration: s.ShortBreak, OnExpire: "repeatCycle"}
	if s.LongBreak > 0 && s.LongBreakEvery > 0 {
		brk.Variant = &PresetVariant{Kind: "long_break", Duration: s.LongBreak, Every: s.LongBreakEvery}
	}
	return Preset{
		Name:        WidgetPomodoro,
		Widget:      WidgetPomodoro,
		Description: fmt.Sprintf("%s work / %s break", s.Work, s.ShortBreak),
		Phases: []PresetPhase{
			{Kind: "work", Duration: s.Work, OnExpire: "advance"},
			brk,
		},
		Repeat:  s.Rounds,
		Builtin: true,
	}, nil
}

type CouplesSettings struct {
	Prep       time.Duration
	Slot       time.Duration
	Transition time.Duration
	Closing    time.Duration
	Cooldown   time.Duration
}

// Couples is the five-phase linear session.
func Couples(s CouplesSettings) (Preset, error) {
	phases := []PresetPhase{
		{Kind: "prep", Duration: s.Prep, OnExpire: "advance"},
		{Kind: "slot", Duration: s.Slot, OnExpire: "advance"},
		{Kind: "transition", Duration: s.Transition, OnExpire: "advance"},
		{Kind: "closing", Duration: s.Closing, OnExpire: "advance"},
		{Kind: "cooldown", Duration: s.Cooldown, OnExpire: "stop"},
	}
	for _, p := range phases {
		if p.Duration <= 0 {
			return Preset{}, fmt.Errorf("couples %s must be positive: %w", p.Kind, apperrors.ErrInvalidInput)
		}
	}
	return Preset{
		Name:        WidgetCouples,
		Widget:      WidgetCouples,
		Description: "prep, slot, transition, closing, cooldown",
		Phases:      phases,
		Builtin:     true,
	}, nil
}
