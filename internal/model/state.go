// Package model holds a fitted pipeline and turns its output into verdicts.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/mikey/mailguard/internal/classifier"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/features"
)

// TrainedState is the immutable result of one training run
type TrainedState struct {
	id         string
	vectorizer *features.Vectorizer
	classifier *classifier.MultinomialNB
	metrics    core.TrainingMetrics
	trainedAt  time.Time
}

// NewTrainedState wraps a fitted vectorizer and classifier
func NewTrainedState(v *features.Vectorizer, c *classifier.MultinomialNB, metrics core.TrainingMetrics) *TrainedState {
	return &TrainedState{
		id:         uuid.NewString(),
		vectorizer: v,
		classifier: c,
		metrics:    metrics,
		trainedAt:  time.Now(),
	}
}

// ID identifies the training run
func (s *TrainedState) ID() string { return s.id }

// Metrics returns the held-out evaluation
func (s *TrainedState) Metrics() core.TrainingMetrics { return s.metrics }

// TrainedAt returns when the state was built
func (s *TrainedState) TrainedAt() time.Time { return s.trainedAt }

// Vocabulary returns the fitted vocabulary
func (s *TrainedState) Vocabulary() *features.Vocabulary { return s.vectorizer.Vocabulary() }

// Classify applies the decision layer with this state
func (s *TrainedState) Classify(subject, sender, content string) (*core.ClassificationResult, error) {
	return Decide(s, subject, sender, content)
}
