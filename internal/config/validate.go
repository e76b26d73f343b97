package config

import (
	"errors"
	"fmt"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// validatePreset checks a preset for values the voting engine can actually
// run with. Called at load time so a bad overlay fails startup, never a scan.
func validatePreset(p Preset) error {
	if p.MinThreatVotes < 1 || p.MinThreatVotes > 5 {
		return fmt.Errorf("min_threat_votes must be in 1..5, got %d", p.MinThreatVotes)
	}
	if p.ThreatRatio <= 0 {
		return errors.New("threat_ratio must be positive")
	}
	if p.ReviewRatioMin < 0 {
		return errors.New("review_ratio_min must not be negative")
	}
	if p.ReviewRatioMin >= p.ThreatRatio {
		return fmt.Errorf("review_ratio_min %.3f must be below threat_ratio %.3f",
			p.ReviewRatioMin, p.ThreatRatio)
	}

	for head := range p.Heads {
		// A stray head (operator typo) would otherwise count toward
		// TotalWeight and deflate every confidence under the preset.
		if !head.Known() {
			return fmt.Errorf("unknown head %q (known heads: %v)", head, schema.AllHeadNames())
		}
	}
	for _, head := range schema.AllHeadNames() {
		hp, ok := p.Heads[head]
		if !ok {
			return fmt.Errorf("head %s has no policy", head)
		}
		if hp.Threshold <= 0 || hp.Threshold > 1 {
			return fmt.Errorf("head %s threshold %.3f out of (0,1]", head, hp.Threshold)
		}
		if hp.UncertainBand < 0 || hp.UncertainBand >= hp.Threshold {
			return fmt.Errorf("head %s uncertain_band %.3f must be in [0,threshold)", head, hp.UncertainBand)
		}
		if hp.Weight <= 0 {
			return fmt.Errorf("head %s weight %.3f must be positive", head, hp.Weight)
		}
	}
	return nil
}
