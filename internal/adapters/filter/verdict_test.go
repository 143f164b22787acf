package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/mailguard/internal/core"
)

func spamResult() *core.ClassificationResult {
	return &core.ClassificationResult{
		Classification:  core.LabelSpam,
		ThreatLevel:     core.ThreatHigh,
		Confidence:      0.93,
		SpamProbability: 0.93,
		Keywords:        []string{"free", "prize"},
	}
}

func legitResult() *core.ClassificationResult {
	return &core.ClassificationResult{
		Classification:  core.LabelLegitimate,
		ThreatLevel:     core.ThreatLow,
		Confidence:      0.88,
		SpamProbability: 0.12,
	}
}

func TestVerdictHeaders(t *testing.T) {
	opts := Options{}.withDefaults()

	assert.Equal(t, []header{
		{"X-Spam-Status", "Yes, probability=0.930, confidence=0.930"},
		{"X-Spam-Score", "0.9300"},
		{"X-Spam-Threat", "high"},
		{"X-Spam-Keywords", "free, prize"},
	}, opts.verdictHeaders(spamResult()))

	assert.Equal(t, []header{
		{"X-Spam-Status", "No, probability=0.120, confidence=0.880"},
		{"X-Spam-Score", "0.1200"},
		{"X-Spam-Threat", "low"},
	}, opts.verdictHeaders(legitResult()))
}

func TestCustomHeaderNames(t *testing.T) {
	opts := Options{SpamHeader: "X-Guard", ScoreHeader: "X-Guard-Score"}.withDefaults()
	headers := opts.verdictHeaders(legitResult())
	assert.Equal(t, "X-Guard", headers[0].name)
	assert.Equal(t, "X-Guard-Score", headers[1].name)
	assert.Equal(t, "X-Spam-Threat", headers[2].name)
}

func TestShouldReject(t *testing.T) {
	assert.False(t, Options{}.shouldReject(spamResult()))
	assert.True(t, Options{BlockSpam: true}.shouldReject(spamResult()))
	assert.False(t, Options{BlockSpam: true}.shouldReject(legitResult()))
}

func TestRewriteSubject(t *testing.T) {
	opts := Options{ModifySubject: true}.withDefaults()

	got, changed := opts.rewriteSubject(spamResult(), "Win big")
	assert.True(t, changed)
	assert.Equal(t, "[**SPAM**] Win big", got)

	got, changed = opts.rewriteSubject(spamResult(), "[**SPAM**] Win big")
	assert.False(t, changed)
	assert.Equal(t, "[**SPAM**] Win big", got)

	_, changed = opts.rewriteSubject(legitResult(), "Lunch")
	assert.False(t, changed)

	_, changed = Options{}.withDefaults().rewriteSubject(spamResult(), "Win big")
	assert.False(t, changed)
}

func TestRejectMessage(t *testing.T) {
	assert.Equal(t, "5.7.1 Rejected as spam (probability: 0.93)", rejectMessage(spamResult()))
}

func TestHeaderValueHelpers(t *testing.T) {
	assert.Equal(t, "line one line two", sanitizeHeaderValue("line one\r\n  line two"))
	assert.Equal(t, "plain", mime2047("plain"))
	assert.Equal(t, "=?utf-8?q?caf=C3=A9?=", mime2047("café"))
}
