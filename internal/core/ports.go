package core

import (
	"context"
	"time"
)

// CorpusSource yields labeled samples for training
type CorpusSource interface {
	// Name identifies the source in logs
	Name() string

	// Samples returns every usable sample
	Samples(ctx context.Context) ([]Sample, error)
}

// CorpusStore is a writable corpus, used for feedback
type CorpusStore interface {
	CorpusSource

	// Add appends a labeled sample
	Add(ctx context.Context, sample Sample) error

	// Count returns the number of stored samples
	Count(ctx context.Context) (int, error)

	// Close releases the underlying connection
	Close() error
}

// TrainedModel is a fitted pipeline that can classify text
type TrainedModel interface {
	// ID identifies the training run that produced the model
	ID() string

	// Metrics returns the held-out evaluation of the run
	Metrics() TrainingMetrics

	// TrainedAt returns when the run finished
	TrainedAt() time.Time

	// Classify applies the decision layer to a message
	Classify(subject, sender, content string) (*ClassificationResult, error)
}

// Trainer runs one full training pass
type Trainer interface {
	Train(ctx context.Context) (TrainedModel, error)
}

// MetricsRecorder receives operational measurements
type MetricsRecorder interface {
	ObserveClassification(result *ClassificationResult)
	ObserveTraining(metrics *TrainingMetrics, duration time.Duration, err error)
}
