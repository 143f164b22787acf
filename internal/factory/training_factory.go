package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/features"
	"github.com/mikey/mailguard/internal/training"
)

// TrainingFactory creates training orchestrators
type TrainingFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTrainingFactory creates a new training factory
func NewTrainingFactory(cfg *config.Config, logger *zap.Logger) *TrainingFactory {
	return &TrainingFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// TrainingConfig maps the configured training parameters
func (f *TrainingFactory) TrainingConfig() (training.Config, error) {
	tc := f.cfg.GetTraining()
	if tc.TestSize <= 0 || tc.TestSize >= 1 {
		return training.Config{}, fmt.Errorf("training.test_size must be in (0, 1), got %v", tc.TestSize)
	}
	if tc.MaxDF <= 0 || tc.MaxDF > 1 {
		return training.Config{}, fmt.Errorf("training.max_df must be in (0, 1], got %v", tc.MaxDF)
	}
	if tc.Alpha <= 0 {
		return training.Config{}, fmt.Errorf("training.alpha must be positive, got %v", tc.Alpha)
	}
	return training.Config{
		TestSize: tc.TestSize,
		Seed:     tc.Seed,
		Alpha:    tc.Alpha,
		Features: features.Config{
			MaxFeatures: tc.MaxFeatures,
			MaxDF:       tc.MaxDF,
			MinDF:       tc.MinDF,
			SublinearTF: tc.SublinearTF,
		},
	}, nil
}

// CreateTrainer creates a trainer over the given corpus source
func (f *TrainingFactory) CreateTrainer(source core.CorpusSource) (core.Trainer, error) {
	cfg, err := f.TrainingConfig()
	if err != nil {
		return nil, err
	}
	return training.NewOrchestrator(source, cfg, f.logger), nil
}
