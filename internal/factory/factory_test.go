package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/corpus"
	"github.com/mikey/mailguard/internal/adapters/filter"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"github.com/mikey/mailguard/internal/training"
	"github.com/mikey/mailguard/internal/whitelist"
)

func newConfig(overrides map[string]any) *config.Config {
	cfg := config.NewFromViper(config.NewEmptyViper())
	for k, v := range overrides {
		cfg.Set(k, v)
	}
	return cfg
}

func TestCreateFeedbackStore(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	store, err := NewCorpusFactory(newConfig(nil), logger).CreateFeedbackStore(ctx)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewCorpusFactory(newConfig(map[string]any{"feedback.type": "memory"}), logger).CreateFeedbackStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &corpus.MemoryStore{}, store)
	require.NoError(t, store.Close())

	path := filepath.Join(t.TempDir(), "nested", "feedback.db")
	store, err = NewCorpusFactory(newConfig(map[string]any{
		"feedback.type":        "sqlite",
		"feedback.sqlite_path": path,
	}), logger).CreateFeedbackStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &corpus.SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = NewCorpusFactory(newConfig(map[string]any{"feedback.type": "tape"}), logger).CreateFeedbackStore(ctx)
	assert.ErrorContains(t, err, "unsupported feedback store type")

	_, err = NewCorpusFactory(newConfig(map[string]any{"feedback.retention": "later"}), logger).CreateFeedbackStore(ctx)
	assert.Error(t, err)
}

func TestCreateCorpusSource(t *testing.T) {
	logger := zap.NewNop()

	source, err := NewCorpusFactory(newConfig(nil), logger).CreateCorpusSource(nil)
	require.NoError(t, err)
	assert.IsType(t, &corpus.EmbeddedSource{}, source)

	feedback := corpus.NewMemoryStore(logger, 0, 0)
	defer feedback.Close()
	source, err = NewCorpusFactory(newConfig(nil), logger).CreateCorpusSource(feedback)
	require.NoError(t, err)
	assert.IsType(t, &corpus.MultiSource{}, source)

	source, err = NewCorpusFactory(newConfig(map[string]any{
		"corpus.type":  "csv",
		"corpus.paths": []string{"/data/a.csv"},
	}), logger).CreateCorpusSource(nil)
	require.NoError(t, err)
	assert.IsType(t, &corpus.CSVSource{}, source)

	source, err = NewCorpusFactory(newConfig(map[string]any{
		"corpus.type":             "yaml",
		"corpus.paths":            []string{"/data/a.yaml"},
		"corpus.include_embedded": true,
	}), logger).CreateCorpusSource(nil)
	require.NoError(t, err)
	assert.IsType(t, &corpus.MultiSource{}, source)

	_, err = NewCorpusFactory(newConfig(map[string]any{"corpus.type": "csv"}), logger).CreateCorpusSource(nil)
	assert.ErrorContains(t, err, "requires corpus.paths")

	_, err = NewCorpusFactory(newConfig(map[string]any{"corpus.type": "parquet"}), logger).CreateCorpusSource(nil)
	assert.ErrorContains(t, err, "unsupported corpus type")
}

func TestCreateWatcher(t *testing.T) {
	logger := zap.NewNop()
	noop := func(context.Context) error { return nil }

	w, err := NewCorpusFactory(newConfig(map[string]any{"corpus.watch": true}), logger).CreateWatcher(noop)
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = NewCorpusFactory(newConfig(map[string]any{
		"corpus.watch":    true,
		"corpus.paths":    []string{filepath.Join(t.TempDir(), "spam.csv")},
		"corpus.debounce": "10ms",
	}), logger).CreateWatcher(noop)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.NoError(t, w.Stop())
}

func TestTrainingConfig(t *testing.T) {
	logger := zap.NewNop()

	cfg, err := NewTrainingFactory(newConfig(nil), logger).TrainingConfig()
	require.NoError(t, err)
	assert.Equal(t, training.DefaultConfig(), cfg)

	for key, value := range map[string]any{
		"training.test_size": 1.0,
		"training.max_df":    0.0,
		"training.alpha":     -1.0,
	} {
		_, err := NewTrainingFactory(newConfig(map[string]any{key: value}), logger).TrainingConfig()
		assert.Error(t, err, key)
	}
}

func TestCreateTrainer(t *testing.T) {
	trainer, err := NewTrainingFactory(newConfig(nil), zap.NewNop()).CreateTrainer(corpus.NewEmbeddedSource())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	model, err := trainer.Train(ctx)
	require.NoError(t, err)
	assert.Positive(t, model.Metrics().FeaturesCount)
}

func TestCreateEmailFilter(t *testing.T) {
	logger := zap.NewNop()
	service := core.NewSpamFilterService(nil, nil, logger)
	processor := NewTextProcessorFactory(newConfig(nil), logger).CreateTextProcessor()
	assert.Equal(t, 65536, processor.MaxBodySize())

	build := func(filterType string) (any, error) {
		cfg := newConfig(map[string]any{"server.filter_type": filterType})
		return NewFilterFactory(cfg, logger, service, whitelist.NewChecker(nil, logger), processor).CreateEmailFilter()
	}

	f, err := build("none")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = build("postfix")
	require.NoError(t, err)
	assert.IsType(t, &filter.PostfixFilter{}, f)

	f, err = build("milter")
	require.NoError(t, err)
	assert.IsType(t, &filter.MilterFilter{}, f)

	f, err = build("cli")
	require.NoError(t, err)
	assert.IsType(t, &filter.CliFilter{}, f)

	_, err = build("carrier-pigeon")
	assert.ErrorContains(t, err, "unsupported filter type")
}

func TestFilterOptions(t *testing.T) {
	cfg := newConfig(map[string]any{
		"server.block_spam":     true,
		"server.modify_subject": true,
		"server.headers.spam":   "X-Guard",
	})
	opts := NewFilterFactory(cfg, zap.NewNop(), nil, nil, nil).FilterOptions()
	assert.True(t, opts.BlockSpam)
	assert.True(t, opts.ModifySubject)
	assert.Equal(t, "X-Guard", opts.SpamHeader)
	assert.Equal(t, "[**SPAM**] ", opts.SubjectPrefix)
}
