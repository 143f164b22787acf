// Package training assembles a corpus and fits the classification pipeline.
package training

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/classifier"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/features"
	"github.com/mikey/mailguard/internal/model"
	"github.com/mikey/mailguard/internal/textproc"
)

// Config controls a training run
type Config struct {
	TestSize float64
	Seed     int64
	Alpha    float64
	Features features.Config
}

// DefaultConfig holds out 20% with seed 42 and smoothing 0.1
func DefaultConfig() Config {
	return Config{
		TestSize: 0.2,
		Seed:     42,
		Alpha:    classifier.DefaultAlpha,
		Features: features.DefaultConfig(),
	}
}

// Orchestrator runs complete training passes over a corpus source
type Orchestrator struct {
	source core.CorpusSource
	cfg    Config
	logger *zap.Logger
}

// NewOrchestrator creates a new training orchestrator
func NewOrchestrator(source core.CorpusSource, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		source: source,
		cfg:    cfg,
		logger: logger,
	}
}

// Train loads the corpus, fits a fresh vectorizer and classifier on the
// training split and evaluates them on the held-out split.
func (o *Orchestrator) Train(ctx context.Context) (core.TrainedModel, error) {
	state, err := o.Fit(ctx)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Fit is Train with the concrete state type
func (o *Orchestrator) Fit(ctx context.Context) (*model.TrainedState, error) {
	raw, err := o.source.Samples(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, len(raw))
	labels := make([]core.Label, 0, len(raw))
	dropped := 0
	for _, s := range raw {
		if strings.TrimSpace(s.Text) == "" || !s.Label.Valid() {
			dropped++
			continue
		}
		docs = append(docs, textproc.Normalize(s.Text))
		labels = append(labels, s.Label)
	}
	o.logger.Info("Assembled training corpus",
		zap.String("source", o.source.Name()),
		zap.Int("samples", len(docs)),
		zap.Int("dropped", dropped))

	trainIdx, testIdx, err := StratifiedSplit(labels, o.cfg.TestSize, o.cfg.Seed)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainDocs, trainLabels := pick(docs, labels, trainIdx)
	testDocs, testLabels := pick(docs, labels, testIdx)

	vectorizer := features.NewVectorizer(textproc.DefaultAnalyzer(), o.cfg.Features)
	vocab, err := vectorizer.Fit(trainDocs)
	if err != nil {
		return nil, err
	}
	trainVecs, err := vectorizer.TransformAll(trainDocs)
	if err != nil {
		return nil, err
	}

	nb := classifier.NewMultinomialNB(o.cfg.Alpha)
	if err := nb.Fit(trainVecs, trainLabels); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predicted := make([]core.Label, len(testDocs))
	for i, doc := range testDocs {
		vec, err := vectorizer.Transform(doc)
		if err != nil {
			return nil, err
		}
		if predicted[i], err = nb.Predict(vec); err != nil {
			return nil, err
		}
	}

	metrics := Evaluate(testLabels, predicted)
	metrics.TrainingSize = len(docs)
	metrics.FeaturesCount = vocab.Size()

	o.logger.Debug("Evaluated held-out split",
		zap.Int("train", len(trainDocs)),
		zap.Int("test", len(testDocs)),
		zap.Float64("accuracy", metrics.Accuracy))

	return model.NewTrainedState(vectorizer, nb, metrics), nil
}

func pick(docs []string, labels []core.Label, idx []int) ([]string, []core.Label) {
	d := make([]string, len(idx))
	l := make([]core.Label, len(idx))
	for i, j := range idx {
		d[i] = docs[j]
		l[i] = labels[j]
	}
	return d, l
}
