package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-memory/internal/commands"
	"github.com/goliatone/go-memory/internal/graph"
	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/internal/resolver"
	"github.com/goliatone/go-memory/internal/searchindex"
	"github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/pkg/testsupport"
)

func newTestSyncService(t *testing.T) (*sync.Service, *searchindex.Index) {
	t.Helper()

	graphSQL, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new graph db: %v", err)
	}
	t.Cleanup(func() { _ = graphSQL.Close() })
	graphDB := bun.NewDB(graphSQL, sqlitedialect.New())
	graphDB.SetMaxOpenConns(1)

	store := graph.NewStore(graphDB)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate graph: %v", err)
	}

	searchSQL, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new search db: %v", err)
	}
	t.Cleanup(func() { _ = searchSQL.Close() })
	searchDB := bun.NewDB(searchSQL, sqlitedialect.New())
	searchDB.SetMaxOpenConns(1)

	index := searchindex.New(searchDB, nil)
	if err := index.CreateSchema(context.Background()); err != nil {
		t.Fatalf("create search schema: %v", err)
	}

	res := resolver.New(store)
	service := sync.NewService(store, res, sync.WithSearchIndex(index))
	return service, index
}

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestSyncProjectCommandValidateRequiresProjectIDAndRoot(t *testing.T) {
	cmd := commands.SyncProjectCommand{}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when project_id and root missing")
	}

	cmd = commands.SyncProjectCommand{ProjectID: "main", Root: "."}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error when fields provided: %v", err)
	}
}

func TestSyncProjectHandlerInvokesServiceAndIndexesNote(t *testing.T) {
	service, index := newTestSyncService(t)
	handler := commands.NewSyncProjectHandler(service, logging.NoOp())

	root := t.TempDir()
	writeNote(t, root, "ada.md", "---\ntype: person\n---\n# Ada Lovelace\n\n- [role] mathematician\n")

	err := handler.Execute(context.Background(), commands.SyncProjectCommand{
		ProjectID: "main",
		Root:      root,
	})
	if err != nil {
		t.Fatalf("execute sync project: %v", err)
	}

	results, err := index.Search(context.Background(), "main", "Lovelace", searchindex.SearchOptions{Mode: searchindex.ModeFTS})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected note indexed after sync, got %d results", len(results))
	}
}

func TestSyncProjectHandlerRejectsInvalidCommand(t *testing.T) {
	service, _ := newTestSyncService(t)
	handler := commands.NewSyncProjectHandler(service, logging.NoOp())

	if err := handler.Execute(context.Background(), commands.SyncProjectCommand{}); err == nil {
		t.Fatal("expected validation error for empty command")
	}
}

func TestSyncProjectHandlerContextCancellation(t *testing.T) {
	service, _ := newTestSyncService(t)
	handler := commands.NewSyncProjectHandler(service, logging.NoOp())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, commands.SyncProjectCommand{ProjectID: "main", Root: t.TempDir()})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}
