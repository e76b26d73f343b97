package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raxe-ai/raxe-ce-sub006/internal/config"
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

func balancedPreset(t *testing.T) config.Preset {
	t.Helper()
	preset, err := config.DefaultStore().Lookup(config.PresetBalanced)
	require.NoError(t, err)
	return preset
}

func binaryOutput(threatProb float64) schema.HeadOutput {
	predicted := schema.LabelBenign
	if threatProb >= 0.5 {
		predicted = schema.LabelThreat
	}
	return schema.HeadOutput{
		Head: schema.HeadBinary,
		Probabilities: []schema.LabelScore{
			{Label: schema.LabelBenign, Probability: 1 - threatProb},
			{Label: schema.LabelThreat, Probability: threatProb},
		},
		PredictedLabel: predicted,
		Confidence:     threatProb,
	}
}

func categoricalOutput(head schema.HeadName, labels []string, predicted string, conf float64) schema.HeadOutput {
	rest := (1 - conf) / float64(len(labels)-1)
	out := schema.HeadOutput{
		Head:           head,
		Probabilities:  make([]schema.LabelScore, len(labels)),
		PredictedLabel: predicted,
		Confidence:     conf,
	}
	for i, label := range labels {
		p := rest
		if label == predicted {
			p = conf
		}
		out.Probabilities[i] = schema.LabelScore{Label: label, Probability: p}
	}
	return out
}

func harmOutput(base float64, overrides map[string]float64) schema.HeadOutput {
	out := schema.HeadOutput{
		Head:          schema.HeadHarm,
		Probabilities: make([]schema.LabelScore, len(schema.HarmLabels)),
	}
	maxLabel, maxProb := "", -1.0
	for i, label := range schema.HarmLabels {
		p := base
		if v, ok := overrides[label]; ok {
			p = v
		}
		out.Probabilities[i] = schema.LabelScore{Label: label, Probability: p}
		if p > maxProb {
			maxLabel, maxProb = label, p
		}
	}
	out.PredictedLabel = maxLabel
	out.Confidence = maxProb
	return out
}

// highConfidenceAttack is a scan where the binary head is near-certain and
// three more heads corroborate.
func highConfidenceAttack() []schema.HeadOutput {
	return []schema.HeadOutput{
		binaryOutput(0.92),
		categoricalOutput(schema.HeadFamily, schema.FamilyLabels, "jailbreak", 0.81),
		categoricalOutput(schema.HeadSeverity, schema.SeverityLabels, "severe", 0.70),
		categoricalOutput(schema.HeadTechnique, schema.TechniqueLabels, "role_or_persona_manipulation", 0.66),
		harmOutput(0.05, nil),
	}
}

func cleanInput() []schema.HeadOutput {
	return []schema.HeadOutput{
		binaryOutput(0.30),
		categoricalOutput(schema.HeadFamily, schema.FamilyLabels, schema.LabelBenign, 0.95),
		categoricalOutput(schema.HeadSeverity, schema.SeverityLabels, schema.LabelNone, 0.90),
		categoricalOutput(schema.HeadTechnique, schema.TechniqueLabels, schema.LabelNone, 0.90),
		harmOutput(0.05, nil),
	}
}

// novelAttack is a scan only the binary head catches: the family head calls
// it benign without conviction and every secondary head shrugs.
func novelAttack() []schema.HeadOutput {
	return []schema.HeadOutput{
		binaryOutput(0.65),
		categoricalOutput(schema.HeadFamily, schema.FamilyLabels, schema.LabelBenign, 0.55),
		categoricalOutput(schema.HeadSeverity, schema.SeverityLabels, schema.LabelNone, 0.35),
		categoricalOutput(schema.HeadTechnique, schema.TechniqueLabels, schema.LabelNone, 0.20),
		harmOutput(0.05, map[string]float64{"violence": 0.40}),
	}
}

func TestRunHighConfidenceAttack(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, highConfidenceAttack(), preset)
	require.NoError(t, err)

	assert.Equal(t, schema.DecisionThreat, res.Voting.Decision)
	assert.Equal(t, schema.RuleHighConfidenceOverride, res.Voting.DecisionRule)
	assert.Equal(t, schema.ClassHighThreat, res.Classification)
	assert.Equal(t, schema.ActionBlockAlert, res.Action)
	assert.True(t, res.HasThreats())
	assert.GreaterOrEqual(t, res.Voting.Confidence, 0.92)

	// threat score 1.5*0.92 + 1.25*0.81 + 1.0*0.70 + 0.75*0.66 over a
	// total weight of 5.5.
	assert.InDelta(t, 65.2, res.RiskScore, 0.1)
}

func TestRunCleanInput(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, cleanInput(), preset)
	require.NoError(t, err)

	assert.Equal(t, schema.DecisionSafe, res.Voting.Decision)
	assert.Equal(t, schema.ClassSafe, res.Classification)
	assert.Equal(t, schema.ActionAllow, res.Action)
	assert.False(t, res.HasThreats())
	assert.False(t, res.FamilyUncertain)
	assert.Equal(t, schema.LabelBenign, res.DisplayFamily)
	assert.Zero(t, res.Voting.ThreatVoteCount)
}

func TestRunNovelAttackFamilyUncertain(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, novelAttack(), preset)
	require.NoError(t, err)

	// The lone binary THREAT cannot carry the ratio past threat_ratio,
	// but it must not be reported as a confident benign either.
	assert.Equal(t, schema.DecisionReview, res.Voting.Decision)
	assert.Equal(t, schema.ClassReview, res.Classification)
	assert.Equal(t, schema.ActionManualReview, res.Action)
	assert.True(t, res.FamilyUncertain)
	assert.Equal(t, schema.DisplayFamilyUncategorized, res.DisplayFamily)
}

func TestRunDisplayFamilyTrustedWhenConfident(t *testing.T) {
	preset := balancedPreset(t)

	outputs := []schema.HeadOutput{
		binaryOutput(0.65),
		categoricalOutput(schema.HeadFamily, schema.FamilyLabels, schema.LabelBenign, 0.85),
		categoricalOutput(schema.HeadSeverity, schema.SeverityLabels, schema.LabelNone, 0.80),
		categoricalOutput(schema.HeadTechnique, schema.TechniqueLabels, schema.LabelNone, 0.80),
		harmOutput(0.05, nil),
	}
	res, err := Run(nil, outputs, preset)
	require.NoError(t, err)

	assert.False(t, res.FamilyUncertain)
	assert.Equal(t, schema.LabelBenign, res.DisplayFamily)
}

func TestRunInvalidOutputFailsClosed(t *testing.T) {
	preset := balancedPreset(t)

	outputs := highConfidenceAttack()
	outputs[0].Probabilities = nil

	res, err := Run(nil, outputs, preset)
	require.ErrorIs(t, err, schema.ErrInvalidHeadOutput)
	assert.Nil(t, res)
}

func TestRunMissingHeadFailsClosed(t *testing.T) {
	preset := balancedPreset(t)

	outputs := highConfidenceAttack()[:4]
	res, err := Run(nil, outputs, preset)
	require.ErrorIs(t, err, schema.ErrMissingHeadVote)
	assert.Nil(t, res)
}

func TestRunCriticalRuleHitFloorsAtReview(t *testing.T) {
	preset := balancedPreset(t)

	detections := []schema.Detection{
		{RuleID: "cmd.shell", Family: schema.FamilyCommandInjection, Severity: schema.SeverityCritical, Confidence: 0.95},
	}
	res, err := Run(detections, cleanInput(), preset)
	require.NoError(t, err)

	// The ensemble says safe, but a critical pattern hit keeps the scan
	// in the review bucket.
	assert.Equal(t, schema.DecisionSafe, res.Voting.Decision)
	assert.Equal(t, schema.ClassReview, res.Classification)
	assert.Equal(t, schema.ActionManualReview, res.Action)
}

func TestRunL1OnlyFallback(t *testing.T) {
	preset := balancedPreset(t)

	cases := []struct {
		name     string
		severity schema.Severity
		class    schema.Classification
		action   schema.Action
	}{
		{"critical", schema.SeverityCritical, schema.ClassHighThreat, schema.ActionBlockAlert},
		{"high", schema.SeverityHigh, schema.ClassThreat, schema.ActionBlock},
		{"medium", schema.SeverityMedium, schema.ClassLikelyThreat, schema.ActionBlockWithReview},
		{"low", schema.SeverityLow, schema.ClassReview, schema.ActionManualReview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detections := []schema.Detection{
				{RuleID: "pi.ignore_previous", Family: schema.FamilyPromptInjection, Severity: tc.severity, Confidence: 0.9},
			}
			res, err := Run(detections, nil, preset)
			require.NoError(t, err)
			assert.Equal(t, tc.class, res.Classification)
			assert.Equal(t, tc.action, res.Action)
			assert.Nil(t, res.Voting)
		})
	}
}

func TestRunL1OnlyNoDetections(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, nil, preset)
	require.NoError(t, err)
	assert.Equal(t, schema.ClassSafe, res.Classification)
	assert.Equal(t, schema.ActionAllow, res.Action)
	assert.Zero(t, res.RiskScore)
	assert.False(t, res.HasThreats())
}

func TestQualitySignals(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, cleanInput(), preset)
	require.NoError(t, err)
	require.NotNil(t, res.Quality)

	// threat_probability 0.30 is below 0.6, so the scan is flagged
	// uncertain even though the family head is confident.
	assert.True(t, res.Quality.Uncertain)
	assert.True(t, res.Quality.HeadAgreement)
	assert.InDelta(t, 0.20, res.Quality.BinaryMargin, 1e-9)
	assert.Greater(t, res.Quality.FamilyEntropy, 0.0)

	res, err = Run(nil, highConfidenceAttack(), preset)
	require.NoError(t, err)
	assert.False(t, res.Quality.Uncertain)
	assert.True(t, res.Quality.HeadAgreement)
	assert.InDelta(t, 0.42, res.Quality.BinaryMargin, 1e-9)
}

func TestQualityHeadDisagreement(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, novelAttack(), preset)
	require.NoError(t, err)

	// Binary votes THREAT while the family head stays benign.
	assert.False(t, res.Quality.HeadAgreement)
}

func TestRunDeterministic(t *testing.T) {
	preset := balancedPreset(t)

	first, err := Run(nil, novelAttack(), preset)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := Run(nil, novelAttack(), preset)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestRiskScoreBounds(t *testing.T) {
	preset := balancedPreset(t)

	res, err := Run(nil, cleanInput(), preset)
	require.NoError(t, err)
	assert.Zero(t, res.RiskScore)

	res, err = Run(nil, highConfidenceAttack(), preset)
	require.NoError(t, err)
	assert.Greater(t, res.RiskScore, 0.0)
	assert.LessOrEqual(t, res.RiskScore, 100.0)
}
