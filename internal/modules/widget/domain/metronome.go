package domain

import (
	"fmt"
	"time"

	apperrors "timekit/internal/platform/errors"
)

const (
	MinBPM         = 1
	MaxBPM         = 400
	MaxBeatsPerBar = 16
)

type Metronome struct {
	BPM         int
	BeatsPerBar int
}

func NewMetronome(bpm, beatsPerBar int) (Metronome, error) {
	if bpm < MinBPM || bpm > MaxBPM {
		return Metronome{}, fmt.Errorf("bpm must be within %d-%d, got %d: %w", MinBPM, MaxBPM, bpm, apperrors.ErrInvalidInput)
	}
	if beatsPerBar < 1 || beatsPerBar > MaxBeatsPerBar {
		return Metronome{}, fmt.Errorf("beats per bar must be within 1-%d, got %d: %w", MaxBeatsPerBar, beatsPerBar, apperrors.ErrInvalidInput)
	}
	return Metronome{BPM: bpm, BeatsPerBar: beatsPerBar}, nil
}

func (m Metronome) Interval() time.Duration {
	return time.Minute / time.Duration(m.BPM)
}

type Beat struct {
	Count     int64
	Bar       int64
	BeatInBar int
	Accent    bool
	UntilNext time.Duration
}

// BeatAt derives the beat position from elapsed time alone, so a late
// caller never accumulates drift.
func (m Metronome) BeatAt(elapsed time.Duration) Beat {
	if elapsed < 0 {
		elapsed = 0
	}
	interval := m.Interval()
	count := int64(elapsed / interval)
	inBar := int(count%int64(m.BeatsPerBar)) + 1
	return Beat{
		Count:     count + 1,
		Bar:       count/int64(m.BeatsPerBar) + 1,
		BeatInBar: inBar,
		Accent:    inBar == 1,
		UntilNext: interval - elapsed%interval,
	}
}
