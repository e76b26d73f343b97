package schema

// VoteKind is the normalized signal one head contributes to the aggregate.
type VoteKind string

const (
	VoteSafe    VoteKind = "safe"
	VoteAbstain VoteKind = "abstain"
	VoteThreat  VoteKind = "threat"
)

// Vote is one head's normalized contribution for one scan. It carries
// everything needed to replay the decision: the confidence that backed the
// vote, the static weight and threshold in force, and a short rationale.
type Vote struct {
	Head          HeadName `json:"head"`
	Kind          VoteKind `json:"vote"`
	Label         string   `json:"label"`
	Confidence    float64  `json:"confidence"`
	Weight        float64  `json:"weight"`
	ThresholdUsed float64  `json:"threshold_used"`
	Rationale     string   `json:"rationale"`
}
