package dataview_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-memory/internal/dataview"
)

func notesFixture() []dataview.Note {
	return []dataview.Note{
		{"title": "Project Alpha", "path": "1. projects/alpha.md", "status": "active", "priority": 2.0},
		{"title": "Project Beta", "path": "1. projects/beta.md", "status": "done", "priority": 1.0},
		{"title": "Reading Notes", "path": "2. notes/reading.md", "status": "active", "priority": 3.0},
	}
}

func execute(t *testing.T, source string, notes []dataview.Note) (string, []string) {
	t.Helper()
	tokens, err := dataview.Tokenize(source)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	q, err := dataview.Parse(tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ex := dataview.NewExecutor(notes)
	markdown, titles, err := ex.Execute(q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return markdown, titles
}

func TestExecuteListFiltersByFromAndWhere(t *testing.T) {
	markdown, titles := execute(t, `LIST FROM "1. projects" WHERE status = "active"`, notesFixture())
	if len(titles) != 1 || titles[0] != "Project Alpha" {
		t.Fatalf("expected only Project Alpha to match, got %#v", titles)
	}
	if !strings.Contains(markdown, "[[Project Alpha]]") {
		t.Fatalf("expected rendered link, got %q", markdown)
	}
}

func TestExecuteTableProjectsFieldsWithAlias(t *testing.T) {
	markdown, titles := execute(t, `TABLE status, priority AS pri FROM "1. projects"`, notesFixture())
	if len(titles) != 2 {
		t.Fatalf("expected 2 matching projects, got %d", len(titles))
	}
	if !strings.Contains(markdown, "| file.link | title | status | pri |") {
		t.Fatalf("expected header with alias, got %q", markdown)
	}
}

func TestExecuteSortAscendingThenLimit(t *testing.T) {
	_, titles := execute(t, `LIST SORT priority ASC LIMIT 1`, notesFixture())
	if len(titles) != 1 || titles[0] != "Project Beta" {
		t.Fatalf("expected lowest-priority note first, got %#v", titles)
	}
}

func TestExecuteTaskCollectsFromMatchingNotes(t *testing.T) {
	notes := []dataview.Note{
		{"title": "Todo", "path": "x.md", "content": "- [ ] one\n- [x] two\n"},
		{"title": "Empty", "path": "y.md", "content": "no tasks here"},
	}
	markdown, titles := execute(t, `TASK`, notes)
	if len(titles) != 1 || titles[0] != "Todo" {
		t.Fatalf("expected only Todo to contribute tasks, got %#v", titles)
	}
	if !strings.Contains(markdown, "- [ ] one") || !strings.Contains(markdown, "- [x] two") {
		t.Fatalf("expected both tasks rendered, got %q", markdown)
	}
}

func TestExecuteWhereEvaluationErrorSkipsNote(t *testing.T) {
	notes := []dataview.Note{
		{"title": "A", "path": "a.md", "tags": 5},
		{"title": "B", "path": "b.md", "tags": []any{"x"}},
	}
	_, titles := execute(t, `LIST WHERE length(tags) = 1`, notes)
	if len(titles) != 1 || titles[0] != "B" {
		t.Fatalf("expected note with non-list tags to be skipped, got %#v", titles)
	}
}

func TestExecuteHandlesNestedFileShape(t *testing.T) {
	notes := []dataview.Note{
		{"title": "Nested", "file": map[string]any{"path": "1. projects/nested.md"}, "status": "active"},
	}
	_, titles := execute(t, `LIST FROM "1. projects" WHERE status = "active"`, notes)
	if len(titles) != 1 || titles[0] != "Nested" {
		t.Fatalf("expected nested file.path shape to resolve, got %#v", titles)
	}
}
