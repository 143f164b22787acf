package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

// MySQLStore keeps feedback samples in MySQL
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
	task   *retentionTask
}

// NewMySQLStore connects to MySQL and creates the samples table
func NewMySQLStore(dsn string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS feedback_samples (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			text TEXT NOT NULL,
			label VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_feedback_created_at (created_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	s := &MySQLStore{
		db:     db,
		logger: logger,
		task:   newRetentionTask(logger, retention, cleanupFreq),
	}
	s.task.start(s.Cleanup)
	return s, nil
}

// Name implements core.CorpusSource
func (s *MySQLStore) Name() string {
	return "feedback:mysql"
}

// Samples implements core.CorpusSource
func (s *MySQLStore) Samples(ctx context.Context) ([]core.Sample, error) {
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
func (s *MySQLStore) Add(ctx context.Context, sample core.Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_samples (text, label, created_at) VALUES (?, ?, ?)
	`, sample.Text, string(sample.Label), time.Now().UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Count implements core.CorpusStore
func (s *MySQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

// Cleanup removes samples older than the retention window
func (s *MySQLStore) Cleanup(ctx context.Context) error {
	cutoff, ok := s.task.cutoff()
	if !ok {
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM feedback_samples WHERE created_at < ?
	`, cutoff.UTC().Format("2006-01-02 15:04:05"))
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
func (s *MySQLStore) Close() error {
	s.task.stop()
	return s.db.Close()
}
