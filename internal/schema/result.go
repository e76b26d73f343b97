package schema

// Decision is the voting engine's three-way aggregate verdict.
type Decision string

const (
	DecisionSafe   Decision = "safe"
	DecisionReview Decision = "review"
	DecisionThreat Decision = "threat"
)

// Decision-rule names recorded in VotingResult.DecisionRule. Exactly one
// rule fires per scan; the set is fixed so audit tooling can key on it.
const (
	RuleHighConfidenceOverride = "high_confidence_override"
	RuleSeverityVeto           = "severity_veto"
	RuleMinThreatVotes         = "min_threat_votes"
	RuleWeightedRatio          = "weighted_ratio"
	RuleReviewZone             = "review_zone"
	RuleSafeDefault            = "safe_default"
)

// VotingResult is the final aggregate for one scan: the decision, the rule
// that produced it, the weighted scores behind it, and the full per-head
// audit trail. It is a pure function of the five votes plus the preset.
type VotingResult struct {
	Decision            Decision          `json:"decision"`
	Confidence          float64           `json:"confidence"`
	PresetUsed          string            `json:"preset_used"`
	DecisionRule        string            `json:"decision_rule_triggered"`
	ThreatVoteCount     int               `json:"threat_vote_count"`
	SafeVoteCount       int               `json:"safe_vote_count"`
	AbstainVoteCount    int               `json:"abstain_vote_count"`
	WeightedThreatScore float64           `json:"weighted_threat_score"`
	WeightedSafeScore   float64           `json:"weighted_safe_score"`
	WeightedRatio       float64           `json:"weighted_ratio"`
	Votes               map[HeadName]Vote `json:"per_head_votes"`
}

// Classification is the six-level outcome taxonomy.
type Classification string

const (
	ClassHighThreat   Classification = "HIGH_THREAT"
	ClassThreat       Classification = "THREAT"
	ClassLikelyThreat Classification = "LIKELY_THREAT"
	ClassReview       Classification = "REVIEW"
	ClassFPLikely     Classification = "FP_LIKELY"
	ClassSafe         Classification = "SAFE"
)

// Action is the recommended handling for each classification level.
type Action string

const (
	ActionBlockAlert      Action = "BLOCK_ALERT"
	ActionBlock           Action = "BLOCK"
	ActionBlockWithReview Action = "BLOCK_WITH_REVIEW"
	ActionManualReview    Action = "MANUAL_REVIEW"
	ActionAllowWithLog    Action = "ALLOW_WITH_LOG"
	ActionAllow           Action = "ALLOW"
)

// QualitySignals are per-scan drift indicators computed from the raw head
// distributions; they feed monitoring, not the decision itself.
type QualitySignals struct {
	// Uncertain flags scans where the family head is shaky or the binary
	// head sits below its confident-threat region.
	Uncertain bool `json:"uncertain"`
	// HeadAgreement is true when the binary and family heads point the
	// same direction.
	HeadAgreement bool `json:"head_agreement"`
	// BinaryMargin is |threat_probability - 0.5|.
	BinaryMargin float64 `json:"binary_margin"`
	// FamilyEntropy is the Shannon entropy of the family distribution.
	FamilyEntropy float64 `json:"family_entropy"`
}

// ScanResult is the top-level outcome for one request. Scan-scoped; the core
// never persists it. The payload carries only enum labels, floats, and
// identifiers so it can be shipped to telemetry as-is.
type ScanResult struct {
	ScanID          string          `json:"scan_id"`
	Classification  Classification  `json:"classification"`
	Action          Action          `json:"recommended_action"`
	RiskScore       float64         `json:"risk_score"`
	Detections      []Detection     `json:"detections,omitempty"`
	Voting          *VotingResult   `json:"voting,omitempty"`
	Quality         *QualitySignals `json:"quality,omitempty"`
	FamilyUncertain bool            `json:"family_uncertain,omitempty"`
	// DisplayFamily is the family label to show; substituted with
	// "uncategorized_threat" when the family head cannot be trusted.
	DisplayFamily string  `json:"display_family,omitempty"`
	PresetUsed    string  `json:"preset_used"`
	DurationMS    float64 `json:"duration_ms,omitempty"`
	Degraded      bool    `json:"degraded,omitempty"`
}

// HasThreats reports whether the scan found anything beyond SAFE.
func (r *ScanResult) HasThreats() bool {
	return r.Classification != ClassSafe
}
