package model

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/textproc"
)

const (
	spamThreshold   = 0.5
	highThreshold   = 0.8
	mediumThreshold = 0.6

	keywordCandidates = 10
	maxKeywords       = 5
)

// LabelFor returns spam only when p is strictly above one half
func LabelFor(p float64) core.Label {
	if p > spamThreshold {
		return core.LabelSpam
	}
	return core.LabelLegitimate
}

// ThreatFor buckets the spam probability
func ThreatFor(p float64) core.ThreatLevel {
	switch {
	case p > highThreshold:
		return core.ThreatHigh
	case p > mediumThreshold:
		return core.ThreatMedium
	default:
		return core.ThreatLow
	}
}

// ConfidenceFor is the distance-from-boundary confidence, in [0.5, 1]
func ConfidenceFor(p float64) float64 {
	if p > 1-p {
		return p
	}
	return 1 - p
}

// Keywords returns the terms with the largest positive weights in vec
func Keywords(vec []float64, term func(int) string) []string {
	idx := make([]int, 0, len(vec))
	for i, w := range vec {
		if w > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return vec[idx[a]] > vec[idx[b]] })
	if len(idx) > keywordCandidates {
		idx = idx[:keywordCandidates]
	}
	if len(idx) > maxKeywords {
		idx = idx[:maxKeywords]
	}

	keywords := make([]string, len(idx))
	for i, f := range idx {
		keywords[i] = term(f)
	}
	return keywords
}

// Decide classifies subject and content with a trained state. The sender is
// carried into the result but is not part of the modeled text.
func Decide(state *TrainedState, subject, sender, content string) (*core.ClassificationResult, error) {
	if state == nil {
		return nil, core.NotTrained("model not trained yet")
	}

	start := time.Now()
	text := textproc.Normalize(subject + " " + content)

	vec, err := state.vectorizer.Transform(text)
	if err != nil {
		return nil, err
	}
	dist, err := state.classifier.PredictProba(vec)
	if err != nil {
		return nil, err
	}
	p := dist.Of(core.LabelSpam)
	vocab := state.vectorizer.Vocabulary()

	return &core.ClassificationResult{
		Classification:  LabelFor(p),
		ThreatLevel:     ThreatFor(p),
		Confidence:      ConfidenceFor(p),
		SpamProbability: p,
		Keywords:        Keywords(vec, vocab.Term),
		ProcessingTime:  time.Since(start),
		Algorithm:       core.Algorithm,
		ModelVersion:    core.ModelVersion,
		ModelID:         state.id,
		Sender:          sender,
		ProcessingID:    uuid.NewString(),
		AnalyzedAt:      start,
	}, nil
}
