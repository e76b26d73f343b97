package config

import (
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Preset names shipped with the engine.
const (
	PresetBalanced     = "balanced"
	PresetHighSecurity = "high_security"
	PresetLowFP        = "low_fp"
)

// HeadPolicy holds one head's voting knobs: the THREAT threshold, the width
// of the uncertain band just below it (votes in the band abstain), and the
// static weight the head carries in the aggregate.
type HeadPolicy struct {
	Threshold     float64 `yaml:"threshold"`
	UncertainBand float64 `yaml:"uncertain_band"`
	Weight        float64 `yaml:"weight"`
}

// Preset is a named bundle of thresholds and weights governing voting
// strictness. Presets differ only in values, never in logic. A Preset is an
// immutable value: it is passed into every vote/aggregate/run call and is
// safe to share across concurrent scans.
type Preset struct {
	Name           string                            `yaml:"-"`
	Heads          map[schema.HeadName]HeadPolicy    `yaml:"heads"`
	MinThreatVotes int                               `yaml:"min_threat_votes"`
	ThreatRatio    float64                           `yaml:"threat_ratio"`
	ReviewRatioMin float64                           `yaml:"review_ratio_min"`
}

// Head returns the policy for a head. Presets are validated at load time, so
// every known head has an entry.
func (p Preset) Head(name schema.HeadName) HeadPolicy {
	return p.Heads[name]
}

// TotalWeight sums the weights of all five heads.
func (p Preset) TotalWeight() float64 {
	total := 0.0
	for _, hp := range p.Heads {
		total += hp.Weight
	}
	return total
}

// builtinPresets returns the compiled-in presets. Operators overlay these
// from presets.yaml; the names and knobs stay the same.
func builtinPresets() map[string]Preset {
	balanced := Preset{
		Name: PresetBalanced,
		Heads: map[schema.HeadName]HeadPolicy{
			schema.HeadBinary:    {Threshold: 0.60, UncertainBand: 0.15, Weight: 1.5},
			schema.HeadFamily:    {Threshold: 0.65, UncertainBand: 0.15, Weight: 1.25},
			schema.HeadSeverity:  {Threshold: 0.60, UncertainBand: 0.15, Weight: 1.0},
			schema.HeadTechnique: {Threshold: 0.65, UncertainBand: 0.15, Weight: 0.75},
			schema.HeadHarm:      {Threshold: 0.50, UncertainBand: 0.15, Weight: 1.0},
		},
		MinThreatVotes: 2,
		ThreatRatio:    1.5,
		ReviewRatioMin: 0.8,
	}

	highSecurity := shiftThresholds(balanced, -0.10)
	highSecurity.Name = PresetHighSecurity
	highSecurity.MinThreatVotes = 1
	highSecurity.ThreatRatio = 1.1
	highSecurity.ReviewRatioMin = 0.5

	lowFP := shiftThresholds(balanced, 0.10)
	lowFP.Name = PresetLowFP
	lowFP.MinThreatVotes = 3
	lowFP.ThreatRatio = 2.0
	lowFP.ReviewRatioMin = 1.0

	return map[string]Preset{
		PresetBalanced:     balanced,
		PresetHighSecurity: highSecurity,
		PresetLowFP:        lowFP,
	}
}

func shiftThresholds(base Preset, delta float64) Preset {
	out := base
	out.Heads = make(map[schema.HeadName]HeadPolicy, len(base.Heads))
	for name, hp := range base.Heads {
		hp.Threshold = clamp01(hp.Threshold + delta)
		out.Heads[name] = hp
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
