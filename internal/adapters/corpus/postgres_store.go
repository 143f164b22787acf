package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

// PostgresStore keeps feedback samples in PostgreSQL
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	task   *retentionTask
}

// NewPostgresStore connects a pool to the database and creates the samples table
func NewPostgresStore(ctx context.Context, connString string, maxConns int32, logger *zap.Logger, retention, cleanupFreq time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS feedback_samples (
			id BIGSERIAL PRIMARY KEY,
			text TEXT NOT NULL,
			label TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback_samples(created_at)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger,
		task:   newRetentionTask(logger, retention, cleanupFreq),
	}
	s.task.start(s.Cleanup)
	return s, nil
}

// Name implements core.CorpusSource
func (s *PostgresStore) Name() string {
	return "feedback:postgres"
}

// Samples implements core.CorpusSource
func (s *PostgresStore) Samples(ctx context.Context) ([]core.Sample, error) {
	rows, err := s.pool.Query(ctx, `SELECT text, label FROM feedback_samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []core.Sample
	for rows.Next() {
		var text, rawLabel string
		if err := rows.Scan(&text, &rawLabel); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		label, err := core.ParseLabel(rawLabel)
		if err != nil {
			s.logger.Warn("Skipping stored sample", zap.Error(err))
			continue
		}
		samples = append(samples, core.Sample{Text: text, Label: label})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return samples, nil
}

// Add implements core.CorpusStore
func (s *PostgresStore) Add(ctx context.Context, sample core.Sample) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback_samples (text, label, created_at) VALUES ($1, $2, $3)
	`, sample.Text, string(sample.Label), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Count implements core.CorpusStore
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feedback_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return int(n), nil
}

// Cleanup removes samples older than the retention window
func (s *PostgresStore) Cleanup(ctx context.Context) error {
	cutoff, ok := s.task.cutoff()
	if !ok {
		return nil
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM feedback_samples WHERE created_at < $1`, cutoff.UTC())
	if err != nil {
		return fmt.Errorf("failed to prune samples: %w", err)
	}
	s.logger.Debug("Pruned feedback samples", zap.Int64("expired_count", tag.RowsAffected()))
	return nil
}

// Close stops the cleanup task and closes the pool
func (s *PostgresStore) Close() error {
	s.task.stop()
	s.pool.Close()
	return nil
}
