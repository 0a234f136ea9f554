package services

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/ports/driving"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driving.WatchService = (*Watcher)(nil)

// DefaultDebounce is how long the watcher waits for changes to settle
// before re-ingesting.
const DefaultDebounce = 2 * time.Second

// Watcher re-runs incremental ingestion when files in a folder change.
// A changed or removed file has its chunks deleted first so that the next
// ingestion loads the new content.
type Watcher struct {
	files      driven.FileWatcher
	ingestion  driving.IngestionService
	extensions []string
	debounce   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(
	files driven.FileWatcher,
	ingestion driving.IngestionService,
	extensions []string,
	debounce time.Duration,
) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		files:      files,
		ingestion:  ingestion,
		extensions: AllowedExtensions(extensions),
		debounce:   debounce,
	}
}

// Run blocks until ctx is done, Stop is called or the file watch ends.
func (w *Watcher) Run(ctx context.Context, req domain.IngestRequest, report func(domain.WatchRun)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return domain.ErrInvalidOperation
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	stopCh, done := w.stopCh, w.done
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		close(done)
		w.mu.Unlock()
	}()

	events, err := w.files.Watch(ctx, req.Folder, w.extensions)
	if err != nil {
		return err
	}

	logger.Section("Watch")
	logger.Info("Watching %s for changes", req.Folder)
	w.runOnce(ctx, req, nil, report)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("File %s: %s", ev.Op, ev.Path)
			pending[filepath.Base(ev.Path)] = true
			timer.Reset(w.debounce)
		case <-timer.C:
			w.runOnce(ctx, req, pending, report)
			pending = make(map[string]bool)
		}
	}
}

// Stop ends a Run in progress. It is a no-op when nothing is running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	stopCh, done := w.stopCh, w.done
	w.running = false
	w.mu.Unlock()

	close(stopCh)
	<-done
}

// runOnce removes the chunks of changed files and re-ingests the folder.
func (w *Watcher) runOnce(ctx context.Context, req domain.IngestRequest, changed map[string]bool, report func(domain.WatchRun)) {
	run := domain.WatchRun{StartedAt: time.Now()}

	names := make([]string, 0, len(changed))
	for name := range changed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n, err := w.ingestion.RemoveDocument(ctx, req.Collection, name)
		switch {
		case err == nil:
			logger.Info("Removed %d chunks of %s", n, name)
			run.Removed = append(run.Removed, name)
		case errors.Is(err, domain.ErrNotFound):
			// New file, nothing stored yet.
		default:
			logger.Warn("remove %s: %v", name, err)
		}
	}

	run.Result, run.Err = w.ingestion.Ingest(ctx, req)
	if run.Err != nil {
		logger.Warn("watch ingest: %v", run.Err)
		run.Result = domain.IngestResult{}
	}
	run.EndedAt = time.Now()

	if report != nil {
		report(run)
	}
}
