package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/adapters/corpus"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
)

// CorpusFactory creates corpus sources and feedback stores based on configuration
type CorpusFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCorpusFactory creates a new corpus factory
func NewCorpusFactory(cfg *config.Config, logger *zap.Logger) *CorpusFactory {
	return &CorpusFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateFeedbackStore creates the feedback store. It returns nil when
// feedback is disabled.
func (f *CorpusFactory) CreateFeedbackStore(ctx context.Context) (core.CorpusStore, error) {
	feedbackCfg, err := f.cfg.GetFeedback()
	if err != nil {
		return nil, fmt.Errorf("invalid feedback configuration: %w", err)
	}

	switch feedbackCfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return corpus.NewMemoryStore(f.logger, feedbackCfg.Retention, feedbackCfg.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(feedbackCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return corpus.NewSQLiteStore(feedbackCfg.SQLitePath, f.logger, feedbackCfg.Retention, feedbackCfg.CleanupFrequency)
	case "mysql":
		return corpus.NewMySQLStore(feedbackCfg.MySQLDSN, f.logger, feedbackCfg.Retention, feedbackCfg.CleanupFrequency)
	case "postgres":
		return corpus.NewPostgresStore(ctx, feedbackCfg.PostgresDSN, feedbackCfg.PostgresMaxConns, f.logger, feedbackCfg.Retention, feedbackCfg.CleanupFrequency)
	case "redis":
		return corpus.NewRedisStore(ctx, feedbackCfg.RedisURL, feedbackCfg.RedisKey, f.logger, feedbackCfg.Retention, feedbackCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported feedback store type: %s", feedbackCfg.Type)
	}
}

// CreateCorpusSource creates the training corpus. The feedback store, when
// not nil, is merged into it.
func (f *CorpusFactory) CreateCorpusSource(feedback core.CorpusStore) (core.CorpusSource, error) {
	corpusCfg := f.cfg.GetCorpus()

	var sources []core.CorpusSource
	switch corpusCfg.Type {
	case "", "embedded":
		sources = append(sources, corpus.NewEmbeddedSource())
	case "csv", "yaml":
		if len(corpusCfg.Paths) == 0 {
			return nil, fmt.Errorf("corpus type %s requires corpus.paths", corpusCfg.Type)
		}
		if corpusCfg.IncludeEmbedded {
			sources = append(sources, corpus.NewEmbeddedSource())
		}
		if corpusCfg.Type == "csv" {
			sources = append(sources, corpus.NewCSVSource(f.logger, corpusCfg.Paths...))
		} else {
			sources = append(sources, corpus.NewYAMLSource(f.logger, corpusCfg.Paths...))
		}
	default:
		return nil, fmt.Errorf("unsupported corpus type: %s", corpusCfg.Type)
	}

	if feedback != nil {
		sources = append(sources, feedback)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return corpus.NewMultiSource(sources...), nil
}

// CreateWatcher creates a dataset watcher that calls onChange after the
// corpus files settle. It returns nil when watching is disabled or there
// are no files to watch.
func (f *CorpusFactory) CreateWatcher(onChange func(ctx context.Context) error) (*corpus.Watcher, error) {
	watcherCfg, err := f.cfg.GetWatcher()
	if err != nil {
		return nil, fmt.Errorf("invalid watcher configuration: %w", err)
	}
	paths := f.cfg.GetCorpus().Paths
	if !watcherCfg.Enabled || len(paths) == 0 {
		return nil, nil
	}
	return corpus.NewWatcher(f.logger, watcherCfg.Debounce, onChange, paths...), nil
}
