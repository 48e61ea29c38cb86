package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is the default quiet window before a change is reported.
const DefaultDebounceWindow = 200 * time.Millisecond

const eventChannelBuffer = 16

// Watcher reports changes of a single file. It watches the parent directory so that
// editors replacing the file through a rename are still observed.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	window    time.Duration
	debouncer *Debouncer
	target    string
	events    chan ports.WatchEvent

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		logger:    logger,
		window:    DefaultDebounceWindow,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		done:      make(chan struct{}),
	}, nil
}

// WithWindow overrides the debounce window.
func (w *Watcher) WithWindow(window time.Duration) *Watcher {
	w.window = window
	return w
}

// Start begins watching path.
func (w *Watcher) Start(ctx context.Context, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWatcherFailed.Error()), "path", path)
	}
	w.target = target

	if err := w.fsWatcher.Add(filepath.Dir(target)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWatcherFailed.Error()), "path", target)
	}

	w.debouncer = NewDebouncer(w.window, w.emit)
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	err := w.fsWatcher.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	return nil
}

// Events returns an iterator of debounced changes of the watched file.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if _, ok := convertOp(event.Op); ok {
				w.debouncer.Add(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(zerr.With(zerr.Wrap(err, domain.ErrWatcherFailed.Error()), "path", w.target))
		}
	}
}

func (w *Watcher) emit(_ []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- ports.WatchEvent{Path: w.target, Operation: ports.OpWrite}:
	default:
		// A reload is already pending.
	}
}

func (w *Watcher) shutdown() {
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	w.mu.Lock()
	w.closed = true
	close(w.events)
	w.mu.Unlock()
	close(w.done)
}

// convertOp maps an fsnotify operation to a watch operation.
func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}
