package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Store holds the configured presets. Built once at startup, read-only
// afterwards, safe to share across concurrent scans.
type Store struct {
	presets map[string]Preset
}

// presetsFile is the operator-editable overlay format.
type presetsFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// DefaultStore returns a store with only the compiled-in presets.
func DefaultStore() *Store {
	return &Store{presets: builtinPresets()}
}

// Load reads a presets overlay from a YAML file and merges it over the
// built-in presets. A missing file yields the defaults and no error, the way
// the rest of the config surface behaves.
func Load(path string) (*Store, error) {
	store := DefaultStore()
	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read presets file: %w", err)
	}

	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode presets file: %w", err)
	}

	for name, preset := range file.Presets {
		preset.Name = name
		base, ok := store.presets[name]
		if ok {
			preset = mergePreset(base, preset)
		} else {
			applyDefaults(&preset)
		}
		if err := validatePreset(preset); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		store.presets[name] = preset
	}
	return store, nil
}

// Lookup returns the named preset or ErrUnknownPreset.
func (s *Store) Lookup(name string) (Preset, error) {
	if name == "" {
		name = PresetBalanced
	}
	preset, ok := s.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q (have %v)", schema.ErrUnknownPreset, name, s.Names())
	}
	return preset, nil
}

// Names lists the configured preset names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mergePreset overlays the operator values onto a built-in preset: zero
// values in the overlay keep the base value, so a file only has to name the
// knobs it changes.
func mergePreset(base, overlay Preset) Preset {
	out := base
	if overlay.MinThreatVotes != 0 {
		out.MinThreatVotes = overlay.MinThreatVotes
	}
	if overlay.ThreatRatio != 0 {
		out.ThreatRatio = overlay.ThreatRatio
	}
	if overlay.ReviewRatioMin != 0 {
		out.ReviewRatioMin = overlay.ReviewRatioMin
	}
	if len(overlay.Heads) > 0 {
		heads := make(map[schema.HeadName]HeadPolicy, len(base.Heads))
		for name, hp := range base.Heads {
			heads[name] = hp
		}
		for name, hp := range overlay.Heads {
			merged := heads[name]
			if hp.Threshold != 0 {
				merged.Threshold = hp.Threshold
			}
			if hp.UncertainBand != 0 {
				merged.UncertainBand = hp.UncertainBand
			}
			if hp.Weight != 0 {
				merged.Weight = hp.Weight
			}
			heads[name] = merged
		}
		out.Heads = heads
	}
	return out
}

// applyDefaults fills an operator-defined preset that does not extend a
// built-in one.
func applyDefaults(p *Preset) {
	base := builtinPresets()[PresetBalanced]
	if p.MinThreatVotes == 0 {
		p.MinThreatVotes = base.MinThreatVotes
	}
	if p.ThreatRatio == 0 {
		p.ThreatRatio = base.ThreatRatio
	}
	if p.ReviewRatioMin == 0 {
		p.ReviewRatioMin = base.ReviewRatioMin
	}
	if p.Heads == nil {
		p.Heads = make(map[schema.HeadName]HeadPolicy, len(base.Heads))
	}
	for name, hp := range base.Heads {
		got, ok := p.Heads[name]
		if !ok {
			p.Heads[name] = hp
			continue
		}
		if got.Threshold == 0 {
			got.Threshold = hp.Threshold
		}
		if got.UncertainBand == 0 {
			got.UncertainBand = hp.UncertainBand
		}
		if got.Weight == 0 {
			got.Weight = hp.Weight
		}
		p.Heads[name] = got
	}
}
