package voting

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

// binaryOutput builds a binary head output with the given threat probability.
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

// categoricalOutput puts conf on the predicted label and spreads the rest
// uniformly over the other labels.
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

// harmOutput sets every harm label to base except the overrides.
func harmOutput(base float64, overrides map[string]float64) schema.HeadOutput {
	out := schema.HeadOutput{
		Head:          schema.HeadHarm,
		Probabilities: make([]schema.LabelScore, len(schema.HarmLabels)),
	}
	best := -1.0
	for i, label := range schema.HarmLabels {
		p := base
		if v, ok := overrides[label]; ok {
			p = v
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

func TestVoteBinary(t *testing.T) {
	preset := balancedPreset(t)

	cases := []struct {
		name       string
		threatProb float64
		want       schema.VoteKind
	}{
		{"above threshold", 0.75, schema.VoteThreat},
		{"at threshold", 0.60, schema.VoteThreat},
		{"in uncertain band", 0.52, schema.VoteAbstain},
		{"at band floor", 0.45, schema.VoteAbstain},
		{"below band", 0.30, schema.VoteSafe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vote, err := Vote(binaryOutput(tc.threatProb), preset)
			require.NoError(t, err)
			assert.Equal(t, tc.want, vote.Kind)
			assert.Equal(t, schema.HeadBinary, vote.Head)
			assert.Equal(t, 0.60, vote.ThresholdUsed)
			assert.Equal(t, 1.5, vote.Weight)
			if tc.want == schema.VoteSafe {
				assert.InDelta(t, 1-tc.threatProb, vote.Confidence, 1e-9)
			}
		})
	}
}

func TestVoteFamily(t *testing.T) {
	preset := balancedPreset(t)

	t.Run("benign prediction is safe at any confidence", func(t *testing.T) {
		vote, err := Vote(categoricalOutput(schema.HeadFamily, schema.FamilyLabels, schema.LabelBenign, 0.95), preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteSafe, vote.Kind)
		assert.InDelta(t, 0.95, vote.Confidence, 1e-9)
	})

	t.Run("confident attack family is threat", func(t *testing.T) {
		vote, err := Vote(categoricalOutput(schema.HeadFamily, schema.FamilyLabels, "jailbreak", 0.81), preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteThreat, vote.Kind)
		assert.Equal(t, "jailbreak", vote.Label)
	})

	t.Run("attack family in band abstains", func(t *testing.T) {
		vote, err := Vote(categoricalOutput(schema.HeadFamily, schema.FamilyLabels, "prompt_injection", 0.55), preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteAbstain, vote.Kind)
	})

	t.Run("weak attack family falls back to benign mass", func(t *testing.T) {
		out := categoricalOutput(schema.HeadFamily, schema.FamilyLabels, "prompt_injection", 0.30)
		vote, err := Vote(out, preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteSafe, vote.Kind)
		benign, _ := out.Probability(schema.LabelBenign)
		assert.InDelta(t, benign, vote.Confidence, 1e-9)
	})
}

func TestVoteSeverity(t *testing.T) {
	preset := balancedPreset(t)

	vote, err := Vote(categoricalOutput(schema.HeadSeverity, schema.SeverityLabels, schema.LabelNone, 0.9), preset)
	require.NoError(t, err)
	assert.Equal(t, schema.VoteSafe, vote.Kind)
	assert.Equal(t, schema.LabelNone, vote.Label)

	vote, err = Vote(categoricalOutput(schema.HeadSeverity, schema.SeverityLabels, "severe", 0.70), preset)
	require.NoError(t, err)
	assert.Equal(t, schema.VoteThreat, vote.Kind)
	assert.Equal(t, "severe", vote.Label)
}

func TestVoteHarm(t *testing.T) {
	preset := balancedPreset(t)

	t.Run("no label active", func(t *testing.T) {
		vote, err := Vote(harmOutput(0.1, nil), preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteSafe, vote.Kind)
		assert.InDelta(t, 0.9, vote.Confidence, 1e-9)
	})

	t.Run("strong label is threat", func(t *testing.T) {
		vote, err := Vote(harmOutput(0.05, map[string]float64{"malware": 0.8}), preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteThreat, vote.Kind)
		assert.Equal(t, "malware", vote.Label)
	})

	t.Run("band abstains", func(t *testing.T) {
		vote, err := Vote(harmOutput(0.05, map[string]float64{"violence": 0.40}), preset)
		require.NoError(t, err)
		assert.Equal(t, schema.VoteAbstain, vote.Kind)
	})
}

func TestVoteInvalidOutput(t *testing.T) {
	preset := balancedPreset(t)

	cases := []struct {
		name string
		out  schema.HeadOutput
	}{
		{"empty probabilities", schema.HeadOutput{Head: schema.HeadBinary}},
		{"unknown head", schema.HeadOutput{
			Head:          schema.HeadName("sentiment"),
			Probabilities: []schema.LabelScore{{Label: "x", Probability: 1}},
		}},
		{"probability out of range", schema.HeadOutput{
			Head: schema.HeadBinary,
			Probabilities: []schema.LabelScore{
				{Label: schema.LabelBenign, Probability: -0.1},
				{Label: schema.LabelThreat, Probability: 1.1},
			},
		}},
		{"distribution does not sum to one", schema.HeadOutput{
			Head: schema.HeadFamily,
			Probabilities: []schema.LabelScore{
				{Label: schema.LabelBenign, Probability: 0.4},
				{Label: "jailbreak", Probability: 0.4},
			},
			PredictedLabel: schema.LabelBenign,
			Confidence:     0.4,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Vote(tc.out, preset)
			assert.ErrorIs(t, err, schema.ErrInvalidHeadOutput)
		})
	}
}

func TestHarmDistributionNeedNotSumToOne(t *testing.T) {
	preset := balancedPreset(t)
	vote, err := Vote(harmOutput(0.9, nil), preset)
	require.NoError(t, err)
	assert.Equal(t, schema.VoteThreat, vote.Kind)
}
