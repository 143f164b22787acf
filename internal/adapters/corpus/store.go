// Package corpus provides training corpus sources and feedback stores.
package corpus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// retentionTask periodically prunes samples older than a retention window
type retentionTask struct {
	logger    *zap.Logger
	retention time.Duration
	freq      time.Duration
	stopCh    chan struct{}
}

func newRetentionTask(logger *zap.Logger, retention, freq time.Duration) *retentionTask {
	return &retentionTask{
		logger:    logger,
		retention: retention,
		freq:      freq,
		stopCh:    make(chan struct{}),
	}
}

// cutoff returns the oldest timestamp to keep, or false when pruning is off
func (t *retentionTask) cutoff() (time.Time, bool) {
	if t.retention <= 0 {
		return time.Time{}, false
	}
	return time.Now().Add(-t.retention), true
}

// start runs cleanup on every tick until stop is called
func (t *retentionTask) start(cleanup func(ctx context.Context) error) {
	if t.retention <= 0 || t.freq <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(t.freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cleanup(context.Background()); err != nil {
					t.logger.Error("Failed to prune feedback samples", zap.Error(err))
				}
			case <-t.stopCh:
				return
			}
		}
	}()
}

func (t *retentionTask) stop() {
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
}
