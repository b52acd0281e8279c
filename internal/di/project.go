package di

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-memory/internal/graph"
	"github.com/goliatone/go-memory/internal/resolver"
	"github.com/goliatone/go-memory/internal/runtimeconfig"
	"github.com/goliatone/go-memory/internal/searchindex"
	"github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/internal/watch"
)

// CategoryProjectOpenFailed groups the per-project database/lock wiring
// failures openProject and EnsureWatcher surface.
const CategoryProjectOpenFailed goerrors.Category = "di_project_open_failed"

const textCodeProjectOpenFailed = "PROJECT_OPEN_FAILED"

// storeDirName is the hidden directory, relative to a project's root path,
// that holds its SQLite database and single-writer lock file. Named after
// the engine rather than reusing SyncConfig.IgnoreFileName's ".bmignore"
// convention, since the two serve different purposes (ignore rules live at
// the project root so editors/VCS can see them; the store directory is
// engine-private state).
const storeDirName = ".basic-memory"

// Project bundles one project's live wiring: its database connection, its
// advisory lock guarding that database across process restarts, and the
// graph/search/sync/watch services built over it.
type Project struct {
	Config   runtimeconfig.ProjectConfig
	DB       *bun.DB
	lock     *flock.Flock
	Store    *graph.Store
	Resolver *resolver.Resolver
	Search   *searchindex.Index
	Sync     *sync.Service
	Watcher  *watch.Watcher
}

// Close releases the project's database connection and advisory lock. The
// watcher, if started, must be closed by the caller before Close (the
// container does this in Container.Close).
func (p *Project) Close() error {
	var dbErr, lockErr error
	if p.DB != nil {
		dbErr = p.DB.Close()
	}
	if p.lock != nil {
		lockErr = p.lock.Unlock()
	}
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

// openProject opens (creating if absent) the SQLite database backing cfg's
// project, guards it with a single-writer advisory flock per SPEC_FULL.md's
// concurrency model, migrates the graph and search schemas, and wires the
// graph store, resolver, and search index over the connection.
func (c *Container) openProject(ctx context.Context, cfg runtimeconfig.ProjectConfig) (*Project, error) {
	storeDir := filepath.Join(cfg.Path, storeDirName)
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return nil, goerrors.Wrap(err, CategoryProjectOpenFailed, "di: create project store directory").
			WithTextCode(textCodeProjectOpenFailed)
	}

	lockPath := filepath.Join(storeDir, "memory.db.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, goerrors.Wrap(err, CategoryProjectOpenFailed, "di: acquire project lock").
			WithTextCode(textCodeProjectOpenFailed)
	}
	if !locked {
		return nil, goerrors.Wrap(
			fmt.Errorf("project %q is already open in another process", cfg.Name),
			CategoryProjectOpenFailed, "di: project already locked",
		).WithTextCode(textCodeProjectOpenFailed)
	}

	dbPath := filepath.Join(storeDir, "memory.db")
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, goerrors.Wrap(err, CategoryProjectOpenFailed, "di: open sqlite database").
			WithTextCode(textCodeProjectOpenFailed)
	}
	sqlDB.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())

	var store *graph.Store
	if c.cacheService != nil && c.keySerializer != nil {
		store = graph.NewStoreWithCache(bunDB, c.cacheService, c.keySerializer)
	} else {
		store = graph.NewStore(bunDB)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = bunDB.Close()
		_ = lock.Unlock()
		return nil, goerrors.Wrap(err, CategoryProjectOpenFailed, "di: migrate graph store").
			WithTextCode(textCodeProjectOpenFailed)
	}

	linkResolver := resolver.New(store)

	searchIndex := searchindex.New(bunDB, newEmbeddingAdapter(c.embeddingProvider))
	if err := searchIndex.CreateSchema(ctx); err != nil {
		_ = bunDB.Close()
		_ = lock.Unlock()
		return nil, goerrors.Wrap(err, CategoryProjectOpenFailed, "di: create search schema").
			WithTextCode(textCodeProjectOpenFailed)
	}

	syncService := sync.NewService(store, linkResolver,
		sync.WithSearchIndex(searchIndex),
		sync.WithLoggerProvider(c.loggerProvider),
	)

	return &Project{
		Config:   cfg,
		DB:       bunDB,
		lock:     lock,
		Store:    store,
		Resolver: linkResolver,
		Search:   searchIndex,
		Sync:     syncService,
	}, nil
}

// EnsureWatcher starts (idempotently) a filesystem watcher over p's root
// directory, wired to p.Sync, and records it on p.Watcher. Callers that
// never ask for a watcher keep the zero-cost default of no background
// goroutine.
func (c *Container) EnsureWatcher(ctx context.Context, p *Project) (*watch.Watcher, error) {
	if p.Watcher != nil {
		return p.Watcher, nil
	}
	w, err := watch.NewWatcher(p.Sync, p.Config.Name, p.Config.Path,
		watch.WithChangeDebounce(c.Config.Sync.ChangeDebounce),
		watch.WithEventLogSize(c.Config.Sync.EventLogSize),
		watch.WithLoggerProvider(c.loggerProvider),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, CategoryProjectOpenFailed, "di: start project watcher").
			WithTextCode(textCodeProjectOpenFailed)
	}
	w.Start(ctx)
	p.Watcher = w
	return w, nil
}
