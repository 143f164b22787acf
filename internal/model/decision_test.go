package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/mailguard/internal/classifier"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/features"
	"github.com/mikey/mailguard/internal/textproc"
)

func buildState(t *testing.T) *TrainedState {
	t.Helper()
	samples := []core.Sample{
		{Text: "Free money! Click here to claim your prize!", Label: core.LabelSpam},
		{Text: "Claim your free prize money now", Label: core.LabelSpam},
		{Text: "Cheap medications, no prescription needed", Label: core.LabelSpam},
		{Text: "Meeting scheduled for tomorrow at 2 PM", Label: core.LabelLegitimate},
		{Text: "Team lunch scheduled for Thursday", Label: core.LabelLegitimate},
		{Text: "Project status update for the team", Label: core.LabelLegitimate},
	}

	docs := make([]string, len(samples))
	labels := make([]core.Label, len(samples))
	for i, s := range samples {
		docs[i] = textproc.Normalize(s.Text)
		labels[i] = s.Label
	}

	v := features.NewVectorizer(nil, features.DefaultConfig())
	_, err := v.Fit(docs)
	require.NoError(t, err)
	vecs, err := v.TransformAll(docs)
	require.NoError(t, err)

	nb := classifier.NewMultinomialNB(classifier.DefaultAlpha)
	require.NoError(t, nb.Fit(vecs, labels))

	return NewTrainedState(v, nb, core.TrainingMetrics{TrainingSize: len(samples), FeaturesCount: v.Vocabulary().Size()})
}

func TestLabelFor(t *testing.T) {
	for _, p := range []float64{0, 0.01, 0.25, 0.4999, 0.5} {
		assert.Equal(t, core.LabelLegitimate, LabelFor(p), "p=%v", p)
	}
	for _, p := range []float64{0.5000001, 0.6, 0.99, 1} {
		assert.Equal(t, core.LabelSpam, LabelFor(p), "p=%v", p)
	}
}

func TestThreatFor(t *testing.T) {
	tests := []struct {
		p    float64
		want core.ThreatLevel
	}{
		{0, core.ThreatLow},
		{0.5, core.ThreatLow},
		{0.6, core.ThreatLow},
		{0.6000001, core.ThreatMedium},
		{0.8, core.ThreatMedium},
		{0.8000001, core.ThreatHigh},
		{1, core.ThreatHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThreatFor(tt.p), "p=%v", tt.p)
	}
}

func TestConfidenceFor(t *testing.T) {
	for i := 0; i <= 100; i++ {
		p := float64(i) / 100
		c := ConfidenceFor(p)
		assert.GreaterOrEqual(t, c, 0.5)
		assert.LessOrEqual(t, c, 1.0)
	}
	assert.InDelta(t, 0.99, ConfidenceFor(0.01), 1e-12)
	assert.InDelta(t, 0.9, ConfidenceFor(0.9), 1e-12)
}

func TestKeywords(t *testing.T) {
	term := func(i int) string { return fmt.Sprintf("t%d", i) }

	vec := []float64{0.1, 0, 0.9, 0.3, 0.05, 0.7, 0.2, 0.6, 0.4}
	assert.Equal(t, []string{"t2", "t5", "t7", "t8", "t3"}, Keywords(vec, term))

	assert.Equal(t, []string{"t1"}, Keywords([]float64{0, 0.5, 0}, term))
	assert.Empty(t, Keywords([]float64{0, 0, 0}, term))
	assert.Empty(t, Keywords(nil, term))
}

func TestDecideNotTrained(t *testing.T) {
	_, err := Decide(nil, "subject", "a@b.c", "content")
	assert.True(t, errors.Is(err, core.ErrNotTrained))
}

func TestDecide(t *testing.T) {
	state := buildState(t)

	res, err := state.Classify("Free money now", "promo@spam.example", "click to claim!!")
	require.NoError(t, err)
	assert.Equal(t, core.LabelSpam, res.Classification)
	assert.Greater(t, res.SpamProbability, 0.5)
	assert.InDelta(t, res.SpamProbability, res.Confidence, 1e-12)
	assert.Equal(t, ThreatFor(res.SpamProbability), res.ThreatLevel)
	assert.Equal(t, core.Algorithm, res.Algorithm)
	assert.Equal(t, core.ModelVersion, res.ModelVersion)
	assert.Equal(t, state.ID(), res.ModelID)
	assert.Equal(t, "promo@spam.example", res.Sender)
	assert.NotEmpty(t, res.ProcessingID)
	assert.LessOrEqual(t, len(res.Keywords), 5)
	assert.Contains(t, res.Keywords, "click")

	vocab := state.Vocabulary()
	for _, k := range res.Keywords {
		_, ok := vocab.Index(k)
		assert.True(t, ok, "keyword %q must be a vocabulary term", k)
	}

	res, err = state.Classify("Team meeting", "boss@corp.example", "scheduled for Thursday")
	require.NoError(t, err)
	assert.Equal(t, core.LabelLegitimate, res.Classification)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
}

func TestDecideIgnoresSender(t *testing.T) {
	state := buildState(t)

	a, err := state.Classify("Free prize", "one@example.com", "claim it")
	require.NoError(t, err)
	b, err := state.Classify("Free prize", "other@example.org", "claim it")
	require.NoError(t, err)
	assert.Equal(t, a.SpamProbability, b.SpamProbability)
	assert.Equal(t, a.Keywords, b.Keywords)
}

func TestDecideNoOverlap(t *testing.T) {
	state := buildState(t)

	res, err := state.Classify("zzzz", "", "qqqq wwww")
	require.NoError(t, err)
	assert.Empty(t, res.Keywords)
	assert.InDelta(t, 0.5, res.SpamProbability, 1e-12, "balanced priors with no evidence")
	assert.Equal(t, core.LabelLegitimate, res.Classification)
}
