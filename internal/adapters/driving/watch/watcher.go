package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/logger"
)

// DefaultDebounce is how long a dump file must stay quiet before it is
// imported.
const DefaultDebounce = 2 * time.Second

// Importer runs one synchronisation pass to completion.
type Importer interface {
	Import(ctx context.Context, kind domain.Kind, path string, progress func(int)) (*domain.ImportResult, error)
}

// Event reports the outcome of one triggered import.
type Event struct {
	Kind   domain.Kind
	Path   string
	Result *domain.ImportResult
	Err    error
}

// Watcher imports dump files dropped into a directory. Each kind has its
// own debounce timer, so a burst of writes to parts.xml yields one pass.
type Watcher struct {
	dir      string
	importer Importer
	debounce time.Duration
	onEvent  func(Event)

	mu      sync.Mutex
	timers  map[domain.Kind]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithEventHandler registers a callback for import outcomes. It is called
// from import goroutines and must be safe for concurrent use.
func WithEventHandler(fn func(Event)) Option {
	return func(w *Watcher) {
		w.onEvent = fn
	}
}

// New creates a watcher for dir.
func New(dir string, importer Importer, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		importer: importer,
		debounce: DefaultDebounce,
		onEvent:  func(Event) {},
		timers:   make(map[domain.Kind]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// KindForFile maps a dump filename to its table. Matching ignores case
// and directory.
func KindForFile(path string) (domain.Kind, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, kind := range domain.Kinds() {
		if name == kind.DefaultFile() {
			return kind, true
		}
	}
	return "", false
}

// Run watches until ctx is cancelled, then waits for running imports.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for catalog dumps", w.dir)

	defer w.wg.Wait()
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			kind, known := KindForFile(event.Name)
			if !known {
				logger.Debug("Ignoring %s", event.Name)
				continue
			}
			w.schedule(ctx, kind, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// schedule (re)arms the debounce timer for kind.
func (w *Watcher) schedule(ctx context.Context, kind domain.Kind, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.timers[kind]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.timers[kind] == timer {
			delete(w.timers, kind)
		}
		if w.stopped || ctx.Err() != nil {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.importFile(ctx, kind, path)
	})
	w.timers[kind] = timer
}

func (w *Watcher) importFile(ctx context.Context, kind domain.Kind, path string) {
	logger.Info("Importing %s from %s", kind, path)

	result, err := w.importer.Import(ctx, kind, path, nil)
	if errors.Is(err, domain.ErrSyncInProgress) {
		logger.Info("%s pass already running, retrying %s later", kind, path)
		w.schedule(ctx, kind, path)
		return
	}
	if err != nil {
		logger.Error("Import %s: %v", path, err)
	}

	w.onEvent(Event{Kind: kind, Path: path, Result: result, Err: err})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for kind, t := range w.timers {
		t.Stop()
		delete(w.timers, kind)
	}
}
