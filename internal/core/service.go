package core

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type trainedSlot struct {
	model TrainedModel
}

// SpamFilterService owns the trained model and serves classifications.
// Readers load the current model through an atomic pointer; training runs
// are serialized and publish a complete model or nothing.
type SpamFilterService struct {
	trainer  Trainer
	recorder MetricsRecorder
	logger   *zap.Logger

	current atomic.Pointer[trainedSlot]
	trainMu sync.Mutex
	runs    atomic.Int64
}

// NewSpamFilterService creates a new spam filter service. recorder may be nil.
func NewSpamFilterService(trainer Trainer, recorder MetricsRecorder, logger *zap.Logger) *SpamFilterService {
	return &SpamFilterService{
		trainer:  trainer,
		recorder: recorder,
		logger:   logger,
	}
}

// Train runs a full training pass and replaces the model on success.
// On failure the previous model stays in place.
func (s *SpamFilterService) Train(ctx context.Context) (*TrainingMetrics, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()
	return s.trainLocked(ctx)
}

func (s *SpamFilterService) trainLocked(ctx context.Context) (*TrainingMetrics, error) {
	s.logger.Info("Starting model training")
	start := time.Now()
	s.runs.Add(1)

	model, err := s.trainer.Train(ctx)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("Model training failed", zap.Error(err), zap.Duration("duration", duration))
		if s.recorder != nil {
			s.recorder.ObserveTraining(nil, duration, err)
		}
		return nil, err
	}

	s.current.Store(&trainedSlot{model: model})

	metrics := model.Metrics()
	s.logger.Info("Model trained successfully",
		zap.String("model_id", model.ID()),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("precision", metrics.Precision),
		zap.Float64("recall", metrics.Recall),
		zap.Float64("f1_score", metrics.F1Score),
		zap.Int("training_size", metrics.TrainingSize),
		zap.Int("features", metrics.FeaturesCount),
		zap.Duration("duration", duration))
	if s.recorder != nil {
		s.recorder.ObserveTraining(&metrics, duration, nil)
	}
	return &metrics, nil
}

// EnsureTrained trains once if no model exists yet. Concurrent callers
// wait for the same run instead of starting their own.
func (s *SpamFilterService) EnsureTrained(ctx context.Context) error {
	if s.current.Load() != nil {
		return nil
	}
	s.trainMu.Lock()
	defer s.trainMu.Unlock()
	if s.current.Load() != nil {
		return nil
	}
	s.logger.Info("Model not trained, training now")
	_, err := s.trainLocked(ctx)
	return err
}

// Classify classifies an email with the current model. It fails with
// NotTrained when no training run has completed.
func (s *SpamFilterService) Classify(ctx context.Context, email *Email) (*ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slot := s.current.Load()
	if slot == nil {
		return nil, NotTrained("model not trained yet")
	}

	result, err := slot.model.Classify(email.Subject, email.From, email.Body)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.ObserveClassification(result)
	}

	s.logger.Debug("Classified email",
		zap.String("sender", email.From),
		zap.String("classification", string(result.Classification)),
		zap.Float64("spam_probability", result.SpamProbability),
		zap.String("threat_level", string(result.ThreatLevel)),
		zap.String("processing_id", result.ProcessingID))
	return result, nil
}

// AnalyzeEmail validates the request, trains on first use and classifies
func (s *SpamFilterService) AnalyzeEmail(ctx context.Context, email *Email) (*ClassificationResult, error) {
	if email == nil || (strings.TrimSpace(email.Subject) == "" && strings.TrimSpace(email.Body) == "") {
		return nil, MalformedInput("either subject or content must be provided")
	}
	if err := s.EnsureTrained(ctx); err != nil {
		return nil, err
	}
	return s.Classify(ctx, email)
}

// ModelInfo reports metadata about the current model
func (s *SpamFilterService) ModelInfo() ModelInfo {
	info := ModelInfo{
		Algorithm: Algorithm,
		Version:   ModelVersion,
	}
	slot := s.current.Load()
	if slot == nil {
		return info
	}
	metrics := slot.model.Metrics()
	info.IsTrained = true
	info.TrainingAccuracy = metrics.Accuracy
	info.TrainingSize = metrics.TrainingSize
	info.FeaturesCount = metrics.FeaturesCount
	info.ModelID = slot.model.ID()
	info.TrainedAt = slot.model.TrainedAt()
	return info
}

// IsTrained reports whether a model is loaded
func (s *SpamFilterService) IsTrained() bool {
	return s.current.Load() != nil
}

// TrainingRuns returns how many training passes have been started
func (s *SpamFilterService) TrainingRuns() int64 {
	return s.runs.Load()
}
