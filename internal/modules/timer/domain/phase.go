package domain

import (
	"fmt"
	"strings"

	apperrors "timekit/internal/platform/errors"
)

// MaxPhases bounds the phase list of a single configuration.
const MaxPhases = 16

type ExpiryPolicy string

const (
	PolicyAdvance     ExpiryPolicy = "advance"
	PolicyRepeatCycle ExpiryPolicy = "repeatCycle"
	PolicyStop        ExpiryPolicy = "stop"
)

// ParsePolicy accepts the wire names plus the snake_case spelling used in
// YAML preset files.
func ParsePolicy(raw string) (ExpiryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "advance", "next":
		return PolicyAdvance, nil
	case "repeatcycle", "repeat_cycle", "repeat":
		return PolicyRepeatCycle, nil
	case "stop", "":
		return PolicyStop, nil
	}
	return "", fmt.Errorf("unknown expiry policy %q: %w", raw, apperrors.ErrInvalidConfiguration)
}

// Phase is one segment of a session. A nil DurationMs marks an open-ended
// phase that only ends when skipped.
type Phase struct {
	Kind       string        `json:"kind"`
	DurationMs *int64        `json:"durationMs"`
	OnExpire   ExpiryPolicy  `json:"onExpire"`
	Variant    *PhaseVariant `json:"variant,omitempty"`
}

// PhaseVariant replaces a phase's kind and duration on every EveryCycles-th
// cycle of a session, e.g. the long break of a pomodoro.
type PhaseVariant struct {
	Kind        string `json:"kind"`
	DurationMs  int64  `json:"durationMs"`
	EveryCycles int    `json:"everyCycles"`
}

func BoundedPhase(kind string, durationMs int64, policy ExpiryPolicy) Phase {
	return Phase{Kind: kind, DurationMs: &durationMs, OnExpire: policy}
}

func OpenPhase(kind string, policy ExpiryPolicy) Phase {
	return Phase{Kind: kind, OnExpire: policy}
}

type Configuration struct {
	Widget      string  `json:"widget"`
	Phases      []Phase `json:"phases"`
	CycleStart  int     `json:"cycleStart"`
	RepeatCount int     `json:"repeatCount"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperrors.ErrInvalidConfiguration)
}

func (c Configuration) Validate() error {
	n := len(c.Phases)
	if n == 0 {
		return invalid("at least one phase is required")
	}
	if n > MaxPhases {
		return invalid("at most %d phases are supported, got %d", MaxPhases, n)
	}
	if c.CycleStart < 0 || c.CycleStart >= n {
		return invalid("cycle start %d out of range", c.CycleStart)
	}
	if c.RepeatCount < 0 {
		return invalid("repeat count must be non-negative")
	}
	for i, p := range c.Phases {
		if strings.TrimSpace(p.Kind) == "" {
			return invalid("phase %d: kind is required", i)
		}
		if p.DurationMs != nil && *p.DurationMs <= 0 {
			return invalid("phase %d (%s): duration must be positive", i, p.Kind)
		}
		switch p.OnExpire {
		case PolicyAdvance:
			if i == n-1 {
				return invalid("phase %d (%s): last phase cannot advance", i, p.Kind)
			}
		case PolicyRepeatCycle:
			if i < c.CycleStart {
				return invalid("phase %d (%s): repeats before cycle start %d", i, p.Kind, c.CycleStart)
			}
		case PolicyStop:
		default:
			return invalid("phase %d (%s): unknown expiry policy %q", i, p.Kind, p.OnExpire)
		}
		if v := p.Variant; v != nil {
			if p.DurationMs == nil {
				return invalid("phase %d (%s): open-ended phase cannot have a variant", i, p.Kind)
			}
			if strings.TrimSpace(v.Kind) == "" || v.DurationMs <= 0 || v.EveryCycles < 1 {
				return invalid("phase %d (%s): variant needs kind, positive duration and cycle interval", i, p.Kind)
			}
		}
	}
	return nil
}

// PhaseAt resolves the kind and duration of phase index during the given
// session cycle (0-based count of cycles already completed).
func (c Configuration) PhaseAt(index, cycle int) (kind string, durationMs int64, bounded bool) {
	p := c.Phases[index]
	if p.DurationMs == nil {
		return p.Kind, 0, false
	}
	if v := p.Variant; v != nil && (cycle+1)%v.EveryCycles == 0 {
		return v.Kind, v.DurationMs, true
	}
	return p.Kind, *p.DurationMs, true
}

// Finite reports whether the session has a known total length: every
// reachable phase is bounded and nothing repeats.
func (c Configuration) Finite() bool {
	for _, p := range c.Phases {
		if p.DurationMs == nil || p.OnExpire == PolicyRepeatCycle {
			return false
		}
		if p.OnExpire == PolicyStop {
			return true
		}
	}
	return true
}

// Boundary is a materialized phase slot relative to session start.
type Boundary struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	StartMs int64  `json:"startMs"`
	EndMs   int64  `json:"endMs"`
}

// BuildSchedule lays out phase boundaries for finite configurations, up to
// and including the first stopping phase. It returns nil otherwise.
func (c Configuration) BuildSchedule() []Boundary {
	if !c.Finite() {
		return nil
	}
	out := make([]Boundary, 0, len(c.Phases))
	var offset int64
	for i, p := range c.Phases {
		kind, d, _ := c.PhaseAt(i, 0)
		out = append(out, Boundary{Index: i, Kind: kind, StartMs: offset, EndMs: offset + d})
		offset += d
		if p.OnExpire == PolicyStop {
			break
		}
	}
	return out
}

// TotalMs is the length of a finite session, or 0 when unknown.
func TotalMs(schedule []Boundary) int64 {
	if len(schedule) == 0 {
		return 0
	}
	return schedule[len(schedule)-1].EndMs
}
