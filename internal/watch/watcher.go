// Package watch monitors a project directory for Markdown file changes and
// hands coalesced batches to the sync engine (spec.md §4.8). Grounded on the
// teacher's internal/jobs.Worker functional-options shape for its
// constructor, and on the pack's fsnotify-based file watcher
// (untoldecay-BeadsLog's cmd/bd/daemon_watcher.go) for the event-loop and
// debounce-timer idiom.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-memory/internal/logging"
	syncengine "github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

const (
	defaultChangeDebounce = 1 * time.Second
	defaultEventLogSize   = 500
)

// Watcher monitors a project directory for Markdown file changes, coalesces
// bursts into one sync pass via a debounce timer (default 1s, spec.md
// §4.8), and feeds every changed path into the sync engine's Dataview
// refresher, which runs its own longer (5s) debounce on top.
type Watcher struct {
	service   *syncengine.Service
	projectID string
	root      string

	fsWatcher      *fsnotify.Watcher
	changeDebounce time.Duration
	eventLog       *EventLog
	logger         interfaces.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	startedAt time.Time
	pid       int

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithChangeDebounce overrides the default 1s change-dispatch debounce.
func WithChangeDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.changeDebounce = d
		}
	}
}

// WithEventLogSize overrides the default bounded event log capacity.
func WithEventLogSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.eventLog = NewEventLog(n)
		}
	}
}

// WithLoggerProvider scopes the watcher's logger under the watch module
// name.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(w *Watcher) {
		w.logger = logging.WatchLogger(provider)
	}
}

// NewWatcher builds a Watcher over an fsnotify source rooted at root,
// handing coalesced changes to service for projectID. Each instance
// captures its own start time and PID at construction time, never at
// package init, so two projects' watchers never share state (spec.md
// §4.8).
func NewWatcher(service *syncengine.Service, projectID, root string, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		service:        service,
		projectID:      projectID,
		root:           root,
		fsWatcher:      fsWatcher,
		changeDebounce: defaultChangeDebounce,
		eventLog:       NewEventLog(defaultEventLogSize),
		logger:         logging.NoOp(),
		pending:        make(map[string]bool),
		startedAt:      time.Now(),
		pid:            os.Getpid(),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// StartedAt reports when this watcher instance was constructed.
func (w *Watcher) StartedAt() time.Time { return w.startedAt }

// PID reports the process id this watcher instance was constructed under.
func (w *Watcher) PID() int { return w.pid }

// RecentEvents returns a snapshot of the rolling event log.
func (w *Watcher) RecentEvents() []Event { return w.eventLog.Recent() }

// Start begins watching in the background until ctx is done or Close is
// called. Start must be called at most once per Watcher.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Close stops the watcher's event loop and releases its fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent records markdown file events for dispatch and, for directory
// creations, extends the watch to the new subtree (fsnotify has no
// recursive mode, so a freshly created directory must be added explicitly
// to see files placed in it afterward).
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch.add_subtree_failed", "path", event.Name, "error", err)
			}
			return
		}
	}

	if filepath.Ext(event.Name) != ".md" {
		return
	}

	kind := EventWrite
	switch {
	case event.Has(fsnotify.Create):
		kind = EventCreate
	case event.Has(fsnotify.Remove):
		kind = EventRemove
	case event.Has(fsnotify.Rename):
		kind = EventRename
	}
	w.eventLog.Record(Event{Path: event.Name, Kind: kind, At: time.Now()})

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	w.scheduleDispatch(filepath.ToSlash(rel))
}

func (w *Watcher) scheduleDispatch(relPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[relPath] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.changeDebounce, w.dispatch)
}

// dispatch runs one sync pass over every path accumulated since the last
// fire, then feeds each changed path into the Dataview refresher's own
// (longer) debounce window.
func (w *Watcher) dispatch() {
	w.mu.Lock()
	changed := w.pending
	w.pending = make(map[string]bool)
	w.mu.Unlock()
	if len(changed) == 0 {
		return
	}

	report, err := w.service.Sync(context.Background(), w.projectID, w.root)
	if err != nil {
		w.logger.Error("watch.sync_failed", "project", w.projectID, "error", err)
		return
	}
	for path := range changed {
		w.service.Refresher().OnFileChanged(w.projectID, w.root, path)
	}
	w.logger.Info("watch.dispatch",
		"project", w.projectID, "new", len(report.New), "modified", len(report.Modified),
		"deleted", len(report.Deleted), "moved", len(report.Moved))
}

// handleError logs a watcher error and, for the transient races spec.md
// §4.8 names (permission errors during a rename-then-recreate, a path
// disappearing between events), re-scans the whole tree to re-establish any
// watches that were lost.
func (w *Watcher) handleError(err error) {
	w.logger.Warn("watch.error", "error", err)
	if errors.Is(err, os.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		if rescanErr := w.addTree(w.root); rescanErr != nil {
			w.logger.Error("watch.rescan_failed", "error", rescanErr)
		}
	}
}

// addTree walks root and every subdirectory, adding each to the fsnotify
// watcher. A directory that has since disappeared or become unreadable is
// skipped rather than failing the whole walk.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}
