package service

import (
	"fmt"

	timerdto "timekit/internal/modules/timer/dto"
	"timekit/internal/modules/widget/domain"
)

// ConfigFor turns a preset into the timer configuration it stands for.
func ConfigFor(p domain.Preset) timerdto.ConfigInput {
	cfg := timerdto.ConfigInput{Widget: p.Widget, CycleStart: p.CycleStart, RepeatCount: p.Repeat}
	for _, ph := range p.Phases {
		in := timerdto.PhaseInput{Kind: ph.Kind, Duration: ph.Duration, OnExpire: ph.OnExpire}
		if v := ph.Variant; v != nil {
			in.Variant = &timerdto.VariantInput{Kind: v.Kind, Duration: v.Duration, Every: v.Every}
		}
		cfg.Phases = append(cfg.Phases, in)
	}
	return cfg
}

// MetronomeConfig is an open-ended phase whose kind records the tempo, so
// the beat can be recovered from the stored timer alone.
func MetronomeConfig(m domain.Metronome) timerdto.ConfigInput {
	return timerdto.ConfigInput{
		Widget: domain.WidgetMetronome,
		Phases: []timerdto.PhaseInput{{Kind: fmt.Sprintf("%dbpm-%d", m.BPM, m.BeatsPerBar), OnExpire: "stop"}},
	}
}

func ParseMetronomeKind(kind string) (domain.Metronome, bool) {
	var bpm, beats int
	if _, err := fmt.Sscanf(kind, "%dbpm-%d", &bpm, &beats); err != nil {
		return domain.Metronome{}, false
	}
	m, err := domain.NewMetronome(bpm, beats)
	return m, err == nil
}
