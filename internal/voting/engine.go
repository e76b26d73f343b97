package voting

import (
	"fmt"

	"github.com/raxe-ai/raxe-ce-sub006/internal/config"
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// highConfidenceOverride is the single-head confidence that, corroborated by
// one more THREAT vote, decides the scan on its own.
const highConfidenceOverride = 0.85

// ratioEpsilon floors the safe score so the weighted ratio is defined when
// no head votes SAFE.
const ratioEpsilon = 1e-6

// Aggregate combines exactly one vote per known head into a VotingResult by
// evaluating the decision-rule cascade in fixed priority order. A missing or
// duplicated head is a hard error: upstream inference failed and must not be
// masked as a benign default.
func Aggregate(votes []schema.Vote, preset config.Preset) (*schema.VotingResult, error) {
	byHead := make(map[schema.HeadName]schema.Vote, len(votes))
	for _, v := range votes {
		if !v.Head.Known() {
			return nil, fmt.Errorf("%w: vote for unknown head %q", schema.ErrInvalidHeadOutput, v.Head)
		}
		if _, dup := byHead[v.Head]; dup {
			return nil, fmt.Errorf("%w: duplicate vote for head %s", schema.ErrInvalidHeadOutput, v.Head)
		}
		byHead[v.Head] = v
	}
	for _, head := range schema.AllHeadNames() {
		if _, ok := byHead[head]; !ok {
			return nil, fmt.Errorf("%w: %s", schema.ErrMissingHeadVote, head)
		}
	}

	res := &schema.VotingResult{
		PresetUsed: preset.Name,
		Votes:      byHead,
	}

	var maxThreatConf float64
	for _, head := range schema.AllHeadNames() {
		v := byHead[head]
		switch v.Kind {
		case schema.VoteThreat:
			res.ThreatVoteCount++
			res.WeightedThreatScore += v.Weight * v.Confidence
			if v.Confidence > maxThreatConf {
				maxThreatConf = v.Confidence
			}
		case schema.VoteSafe:
			res.SafeVoteCount++
			res.WeightedSafeScore += v.Weight * v.Confidence
		default:
			res.AbstainVoteCount++
		}
	}
	res.WeightedRatio = res.WeightedThreatScore / max(res.WeightedSafeScore, ratioEpsilon)

	decision, rule := decide(res, byHead, preset, maxThreatConf)
	res.Decision = decision
	res.DecisionRule = rule
	res.Confidence = finalConfidence(res, preset, maxThreatConf)
	return res, nil
}

// decide runs the rule cascade; first match wins.
func decide(res *schema.VotingResult, votes map[schema.HeadName]schema.Vote, preset config.Preset, maxThreatConf float64) (schema.Decision, string) {
	// Rule 1: one near-certain head plus any corroborating THREAT vote.
	if maxThreatConf >= highConfidenceOverride && res.ThreatVoteCount >= 2 {
		return schema.DecisionThreat, schema.RuleHighConfidenceOverride
	}

	provisional, rule := ratioDecision(res, preset)

	// Rule 2: severity veto. When the severity head sees no danger, a
	// THREAT outcome needs at least 3 of the other 4 heads behind it;
	// anything weaker is capped at review.
	if votes[schema.HeadSeverity].Label == schema.LabelNone &&
		res.ThreatVoteCount < 3 &&
		provisional == schema.DecisionThreat {
		return schema.DecisionReview, schema.RuleSeverityVeto
	}

	return provisional, rule
}

// ratioDecision evaluates rules 3-6: the minimum vote count gate, the
// weighted ratio, the review zone, and the safe default. Boundary values are
// inclusive on the riskier side (ratio exactly at threat_ratio is threat,
// exactly at review_ratio_min is review); values strictly below fall through
// to the safer outcome.
func ratioDecision(res *schema.VotingResult, preset config.Preset) (schema.Decision, string) {
	if res.WeightedRatio >= preset.ThreatRatio {
		if res.ThreatVoteCount < preset.MinThreatVotes {
			// Rule 3: not enough heads behind a threat call.
			return schema.DecisionReview, schema.RuleMinThreatVotes
		}
		return schema.DecisionThreat, schema.RuleWeightedRatio
	}
	if res.WeightedRatio >= preset.ReviewRatioMin {
		return schema.DecisionReview, schema.RuleReviewZone
	}
	return schema.DecisionSafe, schema.RuleSafeDefault
}

// finalConfidence normalizes the winning side's weighted score over the sum
// of all head weights. The high-confidence override is driven by a single
// head, so its confidence floor is that head's own score; without this the
// normalized aggregate could undersell a near-certain single-head detection.
func finalConfidence(res *schema.VotingResult, preset config.Preset, maxThreatConf float64) float64 {
	total := preset.TotalWeight()
	if total <= 0 {
		return 0
	}

	var winning float64
	switch res.Decision {
	case schema.DecisionThreat:
		winning = res.WeightedThreatScore
	case schema.DecisionSafe:
		winning = res.WeightedSafeScore
	default:
		winning = max(res.WeightedThreatScore, res.WeightedSafeScore)
	}

	conf := winning / total
	if res.DecisionRule == schema.RuleHighConfidenceOverride && maxThreatConf > conf {
		conf = maxThreatConf
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
