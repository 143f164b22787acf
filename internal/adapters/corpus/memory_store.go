package corpus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mailguard/internal/core"
)

type memoryEntry struct {
	sample  core.Sample
	addedAt time.Time
}

// MemoryStore is an in-memory feedback store
type MemoryStore struct {
	entries []memoryEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	task    *retentionTask
}

// NewMemoryStore creates a new in-memory store. A zero retention keeps
// samples forever.
func NewMemoryStore(logger *zap.Logger, retention, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		logger: logger,
		task:   newRetentionTask(logger, retention, cleanupFreq),
	}
	s.task.start(s.Cleanup)
	return s
}

// Name implements core.CorpusSource
func (s *MemoryStore) Name() string {
	return "feedback:memory"
}

// Samples implements core.CorpusSource
func (s *MemoryStore) Samples(ctx context.Context) ([]core.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Sample, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.sample
	}
	return out, nil
}

// Add implements core.CorpusStore
func (s *MemoryStore) Add(ctx context.Context, sample core.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, memoryEntry{sample: sample, addedAt: time.Now()})
	return nil
}

// Count implements core.CorpusStore
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Cleanup removes samples older than the retention window
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	cutoff, ok := s.task.cutoff()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.addedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	expired := len(s.entries) - len(kept)
	s.entries = kept

	s.logger.Debug("Pruned feedback samples", zap.Int("expired_count", expired))
	return nil
}

// Close stops the background cleanup task
func (s *MemoryStore) Close() error {
	s.task.stop()
	return nil
}
