package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

// SQLiteStore keeps feedback samples in a SQLite database
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	task   *retentionTask
}

// NewSQLiteStore opens the database and creates the samples table
func NewSQLiteStore(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			label TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback_samples(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		task:   newRetentionTask(logger, retention, cleanupFreq),
	}
	s.task.start(s.Cleanup)
	return s, nil
}

// Name implements core.CorpusSource
func (s *SQLiteStore) Name() string {
	return "feedback:sqlite"
}

// Samples implements core.CorpusSource
func (s *SQLiteStore) Samples(ctx context.Context) ([]core.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, label FROM feedback_samples ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	return scanSamples(rows, s.logger)
}

// Add implements core.CorpusStore
func (s *SQLiteStore) Add(ctx context.Context, sample core.Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_samples (text, label, created_at) VALUES (?, ?, ?)
	`, sample.Text, string(sample.Label), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Count implements core.CorpusStore
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

// Cleanup removes samples older than the retention window
func (s *SQLiteStore) Cleanup(ctx context.Context) error {
	cutoff, ok := s.task.cutoff()
	if !ok {
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM feedback_samples WHERE created_at < ?
	`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to prune samples: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Pruned feedback samples", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Close stops the cleanup task and closes the database
func (s *SQLiteStore) Close() error {
	s.task.stop()
	return s.db.Close()
}

// scanSamples reads (text, label) rows, skipping rows with unknown labels
func scanSamples(rows *sql.Rows, logger *zap.Logger) ([]core.Sample, error) {
	var samples []core.Sample
	for rows.Next() {
		var text, rawLabel string
		if err := rows.Scan(&text, &rawLabel); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		label, err := core.ParseLabel(rawLabel)
		if err != nil {
			logger.Warn("Skipping stored sample", zap.Error(err))
			continue
		}
		samples = append(samples, core.Sample{Text: text, Label: label})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return samples, nil
}
