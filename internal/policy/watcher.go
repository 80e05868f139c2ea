package policy

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads a policy file into a live Table. A reload that
// fails to parse or validate is logged and discarded; the previous table
// stays in effect, so a bad edit can never take the engine down.
//
// Reloads are deferred, not gated: events mark the file dirty and the
// load runs once the burst settles, so a truncate-then-write save always
// lands with its final content.
type Watcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	table     *Table
	path      string
	debounce  time.Duration
	pending   bool
	lastEvent time.Time
	logger    *zap.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool
}

// NewWatcher creates a watcher for the given policy file feeding the
// given table. Call Start to begin watching.
func NewWatcher(path string, table *Table, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:  fsw,
		table:    table,
		path:     path,
		debounce: 500 * time.Millisecond, // editors fire bursts of writes
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine. Non-blocking;
// idempotent while running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors replace files on save
	// and a file watch dies with the old inode.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	settle := time.NewTicker(100 * time.Millisecond)
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.lastEvent = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("policy watcher error", zap.Error(err))
		case <-settle.C:
			w.mu.Lock()
			ready := w.pending && time.Since(w.lastEvent) >= w.debounce
			if ready {
				w.pending = false
			}
			w.mu.Unlock()
			if ready {
				w.reload()
			}
		}
	}
}

// reload re-reads the policy file and swaps it in if valid. Runs only
// after the event burst has settled, so it always sees the save's final
// content.
func (w *Watcher) reload() {
	fresh, err := LoadTable(w.path)
	if err != nil {
		w.logger.Warn("policy reload rejected, keeping previous table",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}

	fresh.mu.RLock()
	purposes := clonePurposes(fresh.purposes)
	fresh.mu.RUnlock()

	if err := w.table.Replace(purposes); err != nil {
		w.logger.Warn("policy reload rejected, keeping previous table",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}
	w.logger.Info("policy table reloaded",
		zap.String("path", w.path),
		zap.Strings("purposes", w.table.Purposes()))
}
