package schema

import (
	"fmt"
	"math"
)

// distributionTolerance bounds how far a single-label head's probabilities
// may drift from summing to one.
const distributionTolerance = 1e-4

// LabelScore pairs one label with its probability. HeadOutput keeps scores
// as an ordered slice so serialization and audit replay are deterministic.
type LabelScore struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// HeadOutput is one classifier head's full output: the probability
// distribution over its label set plus the argmax summary. Immutable once
// produced by the inference engine.
type HeadOutput struct {
	Head           HeadName     `json:"head"`
	Probabilities  []LabelScore `json:"probabilities"`
	PredictedLabel string       `json:"predicted_label"`
	// Confidence is max(probabilities); for the binary head it is the
	// threat probability.
	Confidence float64 `json:"confidence"`
}

// Probability returns the score for a label and whether it is present.
func (h HeadOutput) Probability(label string) (float64, bool) {
	for _, ls := range h.Probabilities {
		if ls.Label == label {
			return ls.Probability, true
		}
	}
	return 0, false
}

// Max returns the highest-probability entry. The distribution must be
// non-empty (Validate enforces that).
func (h HeadOutput) Max() LabelScore {
	best := LabelScore{Probability: -1}
	for _, ls := range h.Probabilities {
		if ls.Probability > best.Probability {
			best = ls
		}
	}
	return best
}

// ThreatProbability returns the binary head's threat score. For other heads
// it falls back to the reported confidence.
func (h HeadOutput) ThreatProbability() float64 {
	if h.Head == HeadBinary {
		if p, ok := h.Probability(LabelThreat); ok {
			return p
		}
	}
	return h.Confidence
}

// Validate checks the head output contract: a known head, a non-empty
// probability map, every probability in [0,1], and for single-label heads a
// distribution summing to one within tolerance. Violations wrap
// ErrInvalidHeadOutput.
func (h HeadOutput) Validate() error {
	if !h.Head.Known() {
		return fmt.Errorf("%w: unknown head %q", ErrInvalidHeadOutput, h.Head)
	}
	if len(h.Probabilities) == 0 {
		return fmt.Errorf("%w: head %s has an empty probability map", ErrInvalidHeadOutput, h.Head)
	}

	sum := 0.0
	for _, ls := range h.Probabilities {
		if ls.Label == "" {
			return fmt.Errorf("%w: head %s has an unnamed label", ErrInvalidHeadOutput, h.Head)
		}
		if math.IsNaN(ls.Probability) || ls.Probability < 0 || ls.Probability > 1 {
			return fmt.Errorf("%w: head %s label %s probability %v out of [0,1]",
				ErrInvalidHeadOutput, h.Head, ls.Label, ls.Probability)
		}
		sum += ls.Probability
	}

	// Harm probabilities are independent per-label and carry no sum
	// constraint.
	if !h.Head.MultiLabel() && math.Abs(sum-1.0) > distributionTolerance {
		return fmt.Errorf("%w: head %s distribution sums to %.6f", ErrInvalidHeadOutput, h.Head, sum)
	}
	return nil
}
