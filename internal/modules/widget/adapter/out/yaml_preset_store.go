package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timekit/internal/modules/widget/domain"
	widgetout "timekit/internal/modules/widget/port/out"
	apperrors "timekit/internal/platform/errors"
)

type yamlVariant struct {
	Kind     string `yaml:"kind"`
	Duration string `yaml:"duration"`
	Every    int    `yaml:"every"`
}

type yamlPhase struct {
	Kind     string       `yaml:"kind"`
	Duration string       `yaml:"duration"`
	OnExpire string       `yaml:"on_expire"`
	Variant  *yamlVariant `yaml:"variant"`
}

type yamlPreset struct {
	Name        string      `yaml:"name"`
	Widget      string      `yaml:"widget"`
	Description string      `yaml:"description"`
	Repeat      int         `yaml:"repeat"`
	CycleStart  int         `yaml:"cycle_start"`
	Phases      []yamlPhase `yaml:"phases"`
}

type yamlFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

// YAMLPresetStore reads user presets from a YAML file. A missing file is an
// empty list.
type YAMLPresetStore struct {
	path string
}

func NewYAMLPresetStore(path string) widgetout.PresetStore {
	return &YAMLPresetStore{path: path}
}

func (s *YAMLPresetStore) List(_ context.Context) ([]domain.Preset, error) {
	if s.path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	return ParsePresets(raw)
}

func ParsePresets(raw []byte) ([]domain.Preset, error) {
	decoded := yamlFile{}
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode presets: %v: %w", err, apperrors.ErrInvalidConfiguration)
	}
	out := make([]domain.Preset, 0, len(decoded.Presets))
	seen := map[string]bool{}
	for _, yp := range decoded.Presets {
		p := domain.Preset{
			Name:        strings.TrimSpace(yp.Name),
			Widget:      yp.Widget,
			Description: yp.Description,
			Repeat:      yp.Repeat,
			CycleStart:  yp.CycleStart,
		}
		if p.Widget == "" {
			p.Widget = p.Name
		}
		for i, ph := range yp.Phases {
			d, err := parseDuration(ph.Duration)
			if err != nil {
				return nil, fmt.Errorf("preset %q phase %d: %w", p.Name, i, err)
			}
			phase := domain.PresetPhase{Kind: ph.Kind, Duration: d, OnExpire: ph.OnExpire}
			if v := ph.Variant; v != nil {
				vd, err := parseDuration(v.Duration)
				if err != nil {
					return nil, fmt.Errorf("preset %q phase %d variant: %w", p.Name, i, err)
				}
				phase.Variant = &domain.PresetVariant{Kind: v.Kind, Duration: vd, Every: v.Every}
			}
			p.Phases = append(p.Phases, phase)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate preset %q: %w", p.Name, apperrors.ErrInvalidConfiguration)
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out, nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", raw, apperrors.ErrInvalidConfiguration)
	}
	return d, nil
}
