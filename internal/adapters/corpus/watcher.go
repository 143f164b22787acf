package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher triggers a callback when any of the watched corpus files change.
// Bursts of events are collapsed into one call after the debounce delay.
type Watcher struct {
	paths    map[string]bool
	debounce time.Duration
	onChange func(ctx context.Context) error
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher over the given files
func NewWatcher(logger *zap.Logger, debounce time.Duration, onChange func(ctx context.Context) error, paths ...string) *Watcher {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[filepath.Clean(p)] = true
	}
	return &Watcher{
		paths:    set,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Start begins watching. Directories containing the files are watched so
// that editors which replace files on save are still noticed.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for p := range w.paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.watcher = fw
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})
	go w.eventLoop()

	w.logger.Info("Watching corpus files", zap.Int("files", len(w.paths)))
	return nil
}

// Stop stops watching and cancels any pending callback
func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	w.cancel()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	err := w.watcher.Close()
	<-w.done
	w.watcher = nil
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) eventLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.paths[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Corpus watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	if w.ctx.Err() != nil {
		return
	}
	w.logger.Info("Corpus changed, retraining")
	if err := w.onChange(w.ctx); err != nil {
		w.logger.Error("Retraining after corpus change failed", zap.Error(err))
	}
}
