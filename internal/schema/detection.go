package schema

import "strings"

// Family is the rule-corpus family code carried by L1 detections.
type Family string

const (
	FamilyPromptInjection   Family = "PI"
	FamilyJailbreak         Family = "JB"
	FamilyPII               Family = "PII"
	FamilyCommandInjection  Family = "CMD"
	FamilyEncoding          Family = "ENC"
	FamilyHarmfulContent    Family = "HC"
	FamilyRAGPoisoning      Family = "RAG"
	FamilyAgentManipulation Family = "AGENT"
)

// Severity grades a detection. Ordered none < low < medium < high < critical.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the severity ordering (none=0 .. critical=4). Unknown values
// rank below none so malformed input never escalates.
func (s Severity) Rank() int {
	switch Severity(strings.ToLower(string(s))) {
	case SeverityNone:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return -1
}

// Detection is a single L1 rule hit. Produced by the rule engine, consumed
// read-only by the pipeline; it carries rule metadata only, never the matched
// substring or the pattern itself.
type Detection struct {
	RuleID     string   `json:"rule_id"`
	Family     Family   `json:"family"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
	Message    string   `json:"message,omitempty"`
}

// MaxSeverity returns the highest severity across detections, or none when
// the slice is empty.
func MaxSeverity(detections []Detection) Severity {
	max := SeverityNone
	for _, d := range detections {
		if d.Severity.Rank() > max.Rank() {
			max = d.Severity
		}
	}
	return max
}
