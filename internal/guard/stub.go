package guard

import (
	"context"
	"strings"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// StubEngine is the degraded-mode inference engine used when no model
// bundle is installed. It builds honest low-confidence distributions from
// keyword evidence: deterministic, dependency-free, and clearly flagged so
// callers can apply their own degraded-mode policy. It exists so the
// pipeline, voting, and CLI remain exercisable end to end without weights.
type StubEngine struct{}

// NewStub returns the degraded heuristic engine.
func NewStub() *StubEngine { return &StubEngine{} }

// stubFamilyOrder fixes the cue evaluation order so the picked family does
// not depend on map iteration.
var stubFamilyOrder = []string{
	"prompt_injection",
	"jailbreak",
	"command_injection",
	"pii_exfiltration",
	"encoding_obfuscation",
	"harmful_content",
}

// stubFamilyCues maps family labels to lowercase cue substrings.
var stubFamilyCues = map[string][]string{
	"prompt_injection":     {"ignore previous", "ignore all previous", "system prompt", "new instructions"},
	"jailbreak":            {"jailbreak", "dan mode", "do anything now", "no restrictions", "uncensored"},
	"command_injection":    {"rm -rf", "drop table", "union select", "bash -c"},
	"pii_exfiltration":     {"credit card", "social security", "password list"},
	"encoding_obfuscation": {"base64", "rot13", "decode this"},
	"harmful_content":      {"build a bomb", "make a weapon", "kill"},
}

// Infer scores the text against the cue table and expands the result into
// five well-formed head outputs.
func (s *StubEngine) Infer(ctx context.Context, text string) ([]schema.HeadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lc := strings.ToLower(text)
	topFamily := schema.LabelBenign
	hits := 0
	for _, family := range stubFamilyOrder {
		for _, cue := range stubFamilyCues[family] {
			if strings.Contains(lc, cue) {
				hits++
				if topFamily == schema.LabelBenign {
					topFamily = family
				}
				break
			}
		}
	}

	// Cap the keyword evidence well below certainty; a stub must never
	// look as confident as the real model.
	threatProb := 0.15 + 0.20*float64(hits)
	if threatProb > 0.75 {
		threatProb = 0.75
	}

	outputs := []schema.HeadOutput{
		binaryStub(threatProb),
		categoricalStub(schema.HeadFamily, schema.FamilyLabels, topFamily, threatProb),
		severityStub(hits),
		categoricalStub(schema.HeadTechnique, schema.TechniqueLabels, schema.LabelNone, 0),
		harmStub(lc),
	}
	for _, out := range outputs {
		if err := out.Validate(); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

// Degraded is always true for the stub.
func (s *StubEngine) Degraded() bool { return true }

// Status reports the stub identity.
func (s *StubEngine) Status() Status {
	return Status{ModelID: "stub-heuristic", ModelVersion: "0", Degraded: true}
}

func binaryStub(threatProb float64) schema.HeadOutput {
	out := schema.HeadOutput{
		Head: schema.HeadBinary,
		Probabilities: []schema.LabelScore{
			{Label: schema.LabelBenign, Probability: 1 - threatProb},
			{Label: schema.LabelThreat, Probability: threatProb},
		},
		PredictedLabel: schema.LabelBenign,
		Confidence:     threatProb,
	}
	if threatProb >= 0.5 {
		out.PredictedLabel = schema.LabelThreat
	}
	return out
}

// categoricalStub concentrates mass on the picked label and spreads the
// remainder uniformly so the distribution still sums to one.
func categoricalStub(head schema.HeadName, labels []string, picked string, evidence float64) schema.HeadOutput {
	benign := schema.BenignLabelFor(head)
	topProb := 0.4 + 0.3*evidence
	if picked == benign {
		topProb = 0.8
	}
	rest := (1 - topProb) / float64(len(labels)-1)

	out := schema.HeadOutput{
		Head:           head,
		Probabilities:  make([]schema.LabelScore, len(labels)),
		PredictedLabel: picked,
		Confidence:     topProb,
	}
	for i, label := range labels {
		p := rest
		if label == picked {
			p = topProb
		}
		out.Probabilities[i] = schema.LabelScore{Label: label, Probability: p}
	}
	return out
}

func severityStub(hits int) schema.HeadOutput {
	switch {
	case hits >= 2:
		return categoricalStub(schema.HeadSeverity, schema.SeverityLabels, "moderate", 0.5)
	case hits == 1:
		return categoricalStub(schema.HeadSeverity, schema.SeverityLabels, "moderate", 0.2)
	default:
		return categoricalStub(schema.HeadSeverity, schema.SeverityLabels, schema.LabelNone, 0)
	}
}

func harmStub(lc string) schema.HeadOutput {
	out := schema.HeadOutput{
		Head:          schema.HeadHarm,
		Probabilities: make([]schema.LabelScore, len(schema.HarmLabels)),
	}
	best := -1.0
	for i, label := range schema.HarmLabels {
		p := 0.05
		switch label {
		case "violence":
			if strings.Contains(lc, "kill") || strings.Contains(lc, "attack") {
				p = 0.45
			}
		case "weapons":
			if strings.Contains(lc, "bomb") || strings.Contains(lc, "weapon") {
				p = 0.45
			}
		case "malware":
			if strings.Contains(lc, "ransomware") || strings.Contains(lc, "keylogger") {
				p = 0.45
			}
		}
		out.Probabilities[i] = schema.LabelScore{Label: label, Probability: p}
		if p > best {
			best = p
			out.PredictedLabel = label
		}
	}
	out.Confidence = best
	return out
}
