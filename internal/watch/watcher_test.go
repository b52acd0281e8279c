package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-memory/internal/graph"
	"github.com/goliatone/go-memory/internal/resolver"
	"github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/internal/watch"
	"github.com/goliatone/go-memory/pkg/testsupport"
)

func newTestWatcher(t *testing.T, root string, opts ...watch.Option) (*watch.Watcher, *graph.Store) {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)

	store := graph.NewStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	res := resolver.New(store)
	service := sync.NewService(store, res)

	w, err := watch.NewWatcher(service, "main", root, opts...)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, store
}

func waitForEntity(t *testing.T, store *graph.Store, relPath string, deadline time.Duration) *graph.Entity {
	t.Helper()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(deadline)
	for {
		entity, err := store.GetByFilePath(context.Background(), "main", relPath)
		if err == nil {
			return entity
		}
		select {
		case <-tick.C:
			continue
		case <-timeout:
			t.Fatalf("timed out waiting for %s to sync", relPath)
		}
	}
}

func TestWatcherSyncsNewFileAfterDebounce(t *testing.T) {
	root := t.TempDir()
	w, store := newTestWatcher(t, root, watch.WithChangeDebounce(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if err := os.WriteFile(filepath.Join(root, "note.md"), []byte("# Fresh Note\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	entity := waitForEntity(t, store, "note.md", 2*time.Second)
	if entity.Title != "Fresh Note" {
		t.Fatalf("unexpected title %q", entity.Title)
	}
}

func TestWatcherSeesFilesInDirectoryCreatedAfterStart(t *testing.T) {
	root := t.TempDir()
	w, store := newTestWatcher(t, root, watch.WithChangeDebounce(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	nested := filepath.Join(root, "projects")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give fsnotify a moment to pick up the new directory and add a watch to
	// it before a file is created inside, mirroring the real race a caller
	// creating a directory then immediately writing into it would hit.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(nested, "alpha.md"), []byte("# Alpha\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	entity := waitForEntity(t, store, "projects/alpha.md", 2*time.Second)
	if entity.Title != "Alpha" {
		t.Fatalf("unexpected title %q", entity.Title)
	}
}

func TestEventLogRecordsRecentEventsBounded(t *testing.T) {
	log := watch.NewEventLog(3)
	for i := 0; i < 5; i++ {
		log.Record(watch.Event{Path: "a.md", Kind: watch.EventWrite, At: time.Now()})
	}
	recent := log.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected log bounded to 3 entries, got %d", len(recent))
	}
}

func TestWatcherStartedAtAndPIDAreFreshPerInstance(t *testing.T) {
	root := t.TempDir()
	before := time.Now()
	w, _ := newTestWatcher(t, root)
	if w.StartedAt().Before(before) {
		t.Fatal("expected StartedAt to be captured at construction time")
	}
	if w.PID() != os.Getpid() {
		t.Fatalf("expected PID %d, got %d", os.Getpid(), w.PID())
	}
}
