package commands_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-memory/internal/commands"
	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/internal/searchindex"
)

func TestSearchNotesCommandValidate(t *testing.T) {
	cmd := commands.SearchNotesCommand{}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when project_id missing")
	}

	cmd = commands.SearchNotesCommand{ProjectID: "main", Mode: "bogus"}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error for invalid mode")
	}

	cmd = commands.SearchNotesCommand{ProjectID: "main", Mode: searchindex.ModeFTS}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error for valid command: %v", err)
	}
}

func TestSearchNotesHandlerReturnsMatchedRows(t *testing.T) {
	service, index := newTestSyncService(t)
	syncHandler := commands.NewSyncProjectHandler(service, logging.NoOp())
	searchHandler := commands.NewSearchNotesHandler(index, logging.NoOp())

	root := t.TempDir()
	writeNote(t, root, "ada.md", "---\ntype: person\n---\n# Ada Lovelace\n\n- [role] mathematician\n")

	if err := syncHandler.Execute(context.Background(), commands.SyncProjectCommand{ProjectID: "main", Root: root}); err != nil {
		t.Fatalf("sync project: %v", err)
	}

	err := searchHandler.Execute(context.Background(), commands.SearchNotesCommand{
		ProjectID: "main",
		Query:     "Lovelace",
		Mode:      searchindex.ModeFTS,
	})
	if err != nil {
		t.Fatalf("execute search notes: %v", err)
	}

	result := searchHandler.Result()
	if len(result.Rows) != 1 {
		t.Fatalf("expected one matched row, got %d", len(result.Rows))
	}
}

func TestSearchNotesHandlerRejectsInvalidCommand(t *testing.T) {
	_, index := newTestSyncService(t)
	handler := commands.NewSearchNotesHandler(index, logging.NoOp())

	if err := handler.Execute(context.Background(), commands.SearchNotesCommand{Mode: "bogus"}); err == nil {
		t.Fatal("expected validation error")
	}
}
