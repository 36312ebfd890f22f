package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mcpdeck/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// ChangeOperation describes what happened to the watched file.
type ChangeOperation string

const (
	OperationCreate ChangeOperation = "create"
	OperationUpdate ChangeOperation = "update"
	OperationDelete ChangeOperation = "delete"
)

// ChangeEvent is emitted once per debounced burst of filesystem events.
type ChangeEvent struct {
	Path      string
	Operation ChangeOperation
	Timestamp time.Time
}

const defaultDebounce = 300 * time.Millisecond

// ConfigWatcher watches a single file for changes made by anyone: mcpdeck
// itself, the host application, or a text editor.
//
// The parent directory is watched rather than the file so that atomic
// replace-by-rename writes are seen. Events for other files in the directory
// (backups, temp files, locks) are ignored.
type ConfigWatcher struct {
	mu sync.Mutex

	path             string
	debounceInterval time.Duration
	watcher          *fsnotify.Watcher
	pending          *pendingChange
	stopCh           chan struct{}
	running          bool
}

type pendingChange struct {
	event ChangeEvent
	timer *time.Timer
}

// New creates a watcher for path. A zero debounce selects the default.
func New(path string, debounce time.Duration) *ConfigWatcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &ConfigWatcher{
		path:             filepath.Clean(path),
		debounceInterval: debounce,
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching and calls onChange from a background goroutine for
// every debounced change until ctx is done or Stop is called.
func (w *ConfigWatcher) Start(ctx context.Context, onChange func(ChangeEvent)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.running = true
	w.stopCh = make(chan struct{})
	go w.processEvents(ctx, fw, w.stopCh, onChange)

	logging.Info("ConfigWatcher", "Watching %s for changes", w.path)
	return nil
}

func (w *ConfigWatcher) processEvents(ctx context.Context, fw *fsnotify.Watcher, stopCh chan struct{}, onChange func(ChangeEvent)) {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-stopCh:
			w.cancelPending()
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event, onChange)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *ConfigWatcher) handleFsEvent(event fsnotify.Event, onChange func(ChangeEvent)) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		operation = OperationCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		operation = OperationUpdate
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		operation = OperationDelete
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		// The replacement arrives as a Create.
		operation = OperationDelete
	default:
		return
	}

	w.debounce(ChangeEvent{Path: w.path, Operation: operation, Timestamp: time.Now()}, onChange)
}

// debounce collapses a burst of events into one callback.
func (w *ConfigWatcher) debounce(event ChangeEvent, onChange func(ChangeEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.timer.Stop()
		event.Operation = mergeOperations(w.pending.event.Operation, event.Operation)
	}

	pc := &pendingChange{event: event}
	pc.timer = time.AfterFunc(w.debounceInterval, func() {
		w.mu.Lock()
		if w.pending != pc {
			w.mu.Unlock()
			return
		}
		w.pending = nil
		w.mu.Unlock()

		logging.Debug("ConfigWatcher", "Change detected: %s %s", pc.event.Operation, pc.event.Path)
		onChange(pc.event)
	})
	w.pending = pc
}

// mergeOperations folds a new operation into a pending one. A delete
// followed by a create is an atomic replace and reported as an update.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	switch {
	case old == OperationDelete && new == OperationCreate:
		return OperationUpdate
	case old == OperationCreate && new == OperationUpdate:
		return OperationCreate
	case old == OperationUpdate && new == OperationCreate:
		return OperationUpdate
	default:
		return new
	}
}

func (w *ConfigWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.timer.Stop()
		w.pending = nil
	}
}

// Stop stops watching. Pending changes are discarded.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("ConfigWatcher", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info("ConfigWatcher", "Stopped watching %s", w.path)
	return nil
}
