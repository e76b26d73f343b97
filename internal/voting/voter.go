// Package voting turns five heterogeneous classifier head outputs into one
// auditable SAFE/REVIEW/THREAT decision. Everything in this package is a pure
// function of its inputs: no I/O, no clock, no globals, so identical inputs
// always produce identical results.
package voting

import (
	"fmt"

	"github.com/raxe-ai/raxe-ce-sub006/internal/config"
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Vote normalizes one head output into a SAFE/ABSTAIN/THREAT vote using the
// head's thresholds from the preset. The five label sets differ in
// cardinality and meaning; this is the single place that difference is
// flattened away.
func Vote(out schema.HeadOutput, preset config.Preset) (schema.Vote, error) {
	if err := out.Validate(); err != nil {
		return schema.Vote{}, err
	}

	policy := preset.Head(out.Head)
	vote := schema.Vote{
		Head:          out.Head,
		Label:         out.PredictedLabel,
		Weight:        policy.Weight,
		ThresholdUsed: policy.Threshold,
	}

	switch out.Head {
	case schema.HeadBinary:
		voteBinary(&vote, out, policy)
	case schema.HeadFamily:
		voteCategorical(&vote, out, policy, schema.LabelBenign)
	case schema.HeadSeverity:
		voteCategorical(&vote, out, policy, schema.LabelNone)
	case schema.HeadTechnique:
		voteCategorical(&vote, out, policy, schema.LabelNone)
	case schema.HeadHarm:
		voteHarm(&vote, out, policy)
	default:
		return schema.Vote{}, fmt.Errorf("%w: unknown head %q", schema.ErrInvalidHeadOutput, out.Head)
	}
	return vote, nil
}

// voteBinary votes on the threat probability alone.
func voteBinary(vote *schema.Vote, out schema.HeadOutput, policy config.HeadPolicy) {
	p := out.ThreatProbability()
	switch {
	case p >= policy.Threshold:
		vote.Kind = schema.VoteThreat
		vote.Confidence = p
		vote.Label = schema.LabelThreat
		vote.Rationale = fmt.Sprintf("threat probability %.2f >= %.2f", p, policy.Threshold)
	case p >= policy.Threshold-policy.UncertainBand:
		vote.Kind = schema.VoteAbstain
		vote.Confidence = p
		vote.Rationale = fmt.Sprintf("threat probability %.2f in uncertain band below %.2f", p, policy.Threshold)
	default:
		vote.Kind = schema.VoteSafe
		vote.Confidence = 1 - p
		vote.Label = schema.LabelBenign
		vote.Rationale = fmt.Sprintf("threat probability %.2f below band", p)
	}
}

// voteCategorical handles the single-label heads whose distributions carry a
// dedicated benign-direction label (family, severity, technique).
func voteCategorical(vote *schema.Vote, out schema.HeadOutput, policy config.HeadPolicy, benignLabel string) {
	predicted := out.PredictedLabel
	conf := out.Confidence

	if predicted == benignLabel {
		vote.Kind = schema.VoteSafe
		vote.Confidence = conf
		vote.Rationale = fmt.Sprintf("predicted %s at %.2f", predicted, conf)
		return
	}

	switch {
	case conf >= policy.Threshold:
		vote.Kind = schema.VoteThreat
		vote.Confidence = conf
		vote.Rationale = fmt.Sprintf("predicted %s at %.2f >= %.2f", predicted, conf, policy.Threshold)
	case conf >= policy.Threshold-policy.UncertainBand:
		vote.Kind = schema.VoteAbstain
		vote.Confidence = conf
		vote.Rationale = fmt.Sprintf("predicted %s at %.2f in uncertain band", predicted, conf)
	default:
		// Too weak to count either way; lean on the benign-label mass so
		// a shaky non-benign argmax does not inflate the safe side.
		vote.Kind = schema.VoteSafe
		benignProb, _ := out.Probability(benignLabel)
		vote.Confidence = benignProb
		vote.Rationale = fmt.Sprintf("predicted %s at %.2f below band; %s mass %.2f",
			predicted, conf, benignLabel, benignProb)
	}
}

// voteHarm votes on the strongest independent harm label. A low maximum is
// weak evidence of safety, so the safe confidence is the complement of the
// strongest label rather than any single benign mass.
func voteHarm(vote *schema.Vote, out schema.HeadOutput, policy config.HeadPolicy) {
	top := out.Max()
	vote.Label = top.Label
	switch {
	case top.Probability >= policy.Threshold:
		vote.Kind = schema.VoteThreat
		vote.Confidence = top.Probability
		vote.Rationale = fmt.Sprintf("harm %s at %.2f >= %.2f", top.Label, top.Probability, policy.Threshold)
	case top.Probability >= policy.Threshold-policy.UncertainBand:
		vote.Kind = schema.VoteAbstain
		vote.Confidence = top.Probability
		vote.Rationale = fmt.Sprintf("harm %s at %.2f in uncertain band", top.Label, top.Probability)
	default:
		vote.Kind = schema.VoteSafe
		vote.Confidence = 1 - top.Probability
		vote.Label = schema.LabelNone
		vote.Rationale = fmt.Sprintf("no harm label above %.2f (max %s at %.2f)",
			policy.Threshold-policy.UncertainBand, top.Label, top.Probability)
	}
}

// VoteAll validates and votes every head output. It does not require the
// full head set; Aggregate enforces that.
func VoteAll(outputs []schema.HeadOutput, preset config.Preset) ([]schema.Vote, error) {
	votes := make([]schema.Vote, 0, len(outputs))
	for _, out := range outputs {
		v, err := Vote(out, preset)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, nil
}
