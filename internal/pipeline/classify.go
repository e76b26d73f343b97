package pipeline

import (
	"math"

	"github.com/raxe-ai/raxe-ce-sub006/internal/config"
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
	"github.com/raxe-ai/raxe-ce-sub006/internal/voting"
)

// Classification thresholds on the voting confidence. Fixed: the preset
// tunes voting, not the outcome taxonomy.
const (
	highThreatConfidence   = 0.90
	threatConfidence       = 0.75
	likelyThreatConfidence = 0.60
	reviewConfidence       = 0.40
)

// familyTrustThreshold is the family confidence below which a benign family
// call is not trusted to contradict a THREAT binary vote.
const familyTrustThreshold = 0.60

// Run is the pure decision stage: it consumes already-computed L1 detections
// and L2 head outputs, aggregates the votes, and assembles the ScanResult.
// It performs no I/O and must not invoke rule matching or inference itself;
// that separation keeps the decision logic testable without model weights or
// compiled rule corpora.
//
// With no head outputs (L1-only mode) the result falls back to the highest
// L1 severity mapped onto the same six buckets.
func Run(detections []schema.Detection, outputs []schema.HeadOutput, preset config.Preset) (*schema.ScanResult, error) {
	if len(outputs) == 0 {
		return runL1Only(detections, preset), nil
	}

	votes, err := voting.VoteAll(outputs, preset)
	if err != nil {
		return nil, err
	}
	vr, err := voting.Aggregate(votes, preset)
	if err != nil {
		return nil, err
	}

	res := &schema.ScanResult{
		Detections: detections,
		Voting:     vr,
		PresetUsed: preset.Name,
		RiskScore:  riskScore(vr, preset),
		Quality:    qualitySignals(outputs, vr),
	}
	res.Classification, res.Action = classify(vr, schema.MaxSeverity(detections))
	res.FamilyUncertain, res.DisplayFamily = displayFamily(outputs, vr)
	return res, nil
}

// classify maps (decision, confidence, highest L1 severity) onto the
// six-level taxonomy.
func classify(vr *schema.VotingResult, topSeverity schema.Severity) (schema.Classification, schema.Action) {
	var class schema.Classification
	var action schema.Action

	switch vr.Decision {
	case schema.DecisionSafe:
		class, action = schema.ClassSafe, schema.ActionAllow
	case schema.DecisionThreat:
		switch {
		case vr.Confidence >= highThreatConfidence:
			class, action = schema.ClassHighThreat, schema.ActionBlockAlert
		case vr.Confidence >= threatConfidence:
			class, action = schema.ClassThreat, schema.ActionBlock
		case vr.Confidence >= likelyThreatConfidence:
			class, action = schema.ClassLikelyThreat, schema.ActionBlockWithReview
		case vr.Confidence >= reviewConfidence:
			class, action = schema.ClassReview, schema.ActionManualReview
		default:
			// The engine said threat but nothing backs it strongly;
			// flag as a likely false positive instead of blocking.
			class, action = schema.ClassFPLikely, schema.ActionAllowWithLog
		}
	default: // review
		class, action = schema.ClassReview, schema.ActionManualReview
	}

	// A critical L1 hit never leaves the scan below the review bucket,
	// whatever the ensemble thought.
	if topSeverity == schema.SeverityCritical && classRank(class) < classRank(schema.ClassReview) {
		class, action = schema.ClassReview, schema.ActionManualReview
	}
	return class, action
}

func classRank(c schema.Classification) int {
	switch c {
	case schema.ClassHighThreat:
		return 5
	case schema.ClassThreat:
		return 4
	case schema.ClassLikelyThreat:
		return 3
	case schema.ClassReview:
		return 2
	case schema.ClassFPLikely:
		return 1
	}
	return 0
}

// runL1Only maps the highest rule severity onto the taxonomy when no L2
// engine contributed.
func runL1Only(detections []schema.Detection, preset config.Preset) *schema.ScanResult {
	res := &schema.ScanResult{
		Detections: detections,
		PresetUsed: preset.Name,
	}

	top := schema.MaxSeverity(detections)
	switch top {
	case schema.SeverityCritical:
		res.Classification, res.Action = schema.ClassHighThreat, schema.ActionBlockAlert
		res.RiskScore = 95
	case schema.SeverityHigh:
		res.Classification, res.Action = schema.ClassThreat, schema.ActionBlock
		res.RiskScore = 80
	case schema.SeverityMedium:
		res.Classification, res.Action = schema.ClassLikelyThreat, schema.ActionBlockWithReview
		res.RiskScore = 60
	case schema.SeverityLow:
		res.Classification, res.Action = schema.ClassReview, schema.ActionManualReview
		res.RiskScore = 40
	default:
		if len(detections) > 0 {
			// Hits that carry no severity are informational.
			res.Classification, res.Action = schema.ClassFPLikely, schema.ActionAllowWithLog
			res.RiskScore = 10
		} else {
			res.Classification, res.Action = schema.ClassSafe, schema.ActionAllow
		}
	}
	return res
}

// riskScore is the normalized weighted threat score on a 0-100 scale.
func riskScore(vr *schema.VotingResult, preset config.Preset) float64 {
	total := preset.TotalWeight()
	if total <= 0 {
		return 0
	}
	score := vr.WeightedThreatScore / total * 100
	if score > 100 {
		score = 100
	}
	return score
}

// qualitySignals computes the per-scan drift indicators from the raw
// distributions.
func qualitySignals(outputs []schema.HeadOutput, vr *schema.VotingResult) *schema.QualitySignals {
	var binaryOut, familyOut schema.HeadOutput
	for _, out := range outputs {
		switch out.Head {
		case schema.HeadBinary:
			binaryOut = out
		case schema.HeadFamily:
			familyOut = out
		}
	}

	threatProb := binaryOut.ThreatProbability()
	binaryThreat := vr.Votes[schema.HeadBinary].Kind == schema.VoteThreat
	familyThreat := familyOut.PredictedLabel != schema.LabelBenign

	return &schema.QualitySignals{
		Uncertain:     familyOut.Confidence < 0.5 || threatProb < 0.6,
		HeadAgreement: binaryThreat == familyThreat,
		BinaryMargin:  math.Abs(threatProb - 0.5),
		FamilyEntropy: entropy(familyOut.Probabilities),
	}
}

// entropy is the Shannon entropy of a distribution in nats.
func entropy(dist []schema.LabelScore) float64 {
	sum := 0.0
	for _, ls := range dist {
		if ls.Probability > 0 {
			sum -= ls.Probability * math.Log(ls.Probability)
		}
	}
	return sum
}

// displayFamily guards against a known failure mode: a novel attack the
// binary head catches but the family head cannot place. A benign family call
// below the trust threshold alongside a THREAT binary vote is reported as
// uncategorized rather than misreported as benign.
func displayFamily(outputs []schema.HeadOutput, vr *schema.VotingResult) (bool, string) {
	var familyOut schema.HeadOutput
	for _, out := range outputs {
		if out.Head == schema.HeadFamily {
			familyOut = out
		}
	}

	binaryThreat := vr.Votes[schema.HeadBinary].Kind == schema.VoteThreat
	if binaryThreat && familyOut.PredictedLabel == schema.LabelBenign && familyOut.Confidence < familyTrustThreshold {
		return true, schema.DisplayFamilyUncategorized
	}
	return false, familyOut.PredictedLabel
}
