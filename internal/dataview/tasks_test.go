package dataview_test

import (
	"testing"

	"github.com/goliatone/go-memory/internal/dataview"
)

func TestExtractTasksBasic(t *testing.T) {
	content := "- [ ] buy milk\n- [x] write report\n* [X] ship it\n"
	tasks := dataview.ExtractTasks(content)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d: %#v", len(tasks), tasks)
	}
	if tasks[0].Completed || tasks[0].Text != "buy milk" || tasks[0].LineNumber != 1 {
		t.Fatalf("unexpected first task: %#v", tasks[0])
	}
	if !tasks[1].Completed || tasks[1].Text != "write report" || tasks[1].LineNumber != 2 {
		t.Fatalf("unexpected second task: %#v", tasks[1])
	}
	if !tasks[2].Completed {
		t.Fatalf("expected uppercase X to mark task completed: %#v", tasks[2])
	}
}

func TestExtractTasksIndentation(t *testing.T) {
	content := "- [ ] top\n  - [ ] nested two spaces\n    - [ ] nested four spaces\n"
	tasks := dataview.ExtractTasks(content)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Indentation != 0 || tasks[1].Indentation != 2 || tasks[2].Indentation != 4 {
		t.Fatalf("expected raw leading-space indentation, got %d %d %d", tasks[0].Indentation, tasks[1].Indentation, tasks[2].Indentation)
	}
}

func TestExtractTasksIgnoresMalformedSyntax(t *testing.T) {
	content := "- [] missing space\n- [ no closing bracket\n- [ ] valid task\n"
	tasks := dataview.ExtractTasks(content)
	if len(tasks) != 1 {
		t.Fatalf("expected only the well-formed task to match, got %d: %#v", len(tasks), tasks)
	}
	if tasks[0].Text != "valid task" {
		t.Fatalf("unexpected match: %#v", tasks[0])
	}
}

func TestExtractTasksFromNoteMissingContent(t *testing.T) {
	note := dataview.Note{"title": "Empty"}
	if tasks := dataview.ExtractTasksFromNote(note); tasks != nil {
		t.Fatalf("expected nil tasks for note without content, got %#v", tasks)
	}
}

func TestExtractTasksFromNotePreservesLinksAndTags(t *testing.T) {
	note := dataview.Note{"content": "- [ ] follow up with [[Ada Lovelace]] about #priority"}
	tasks := dataview.ExtractTasksFromNote(note)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Text != "follow up with [[Ada Lovelace]] about #priority" {
		t.Fatalf("expected verbatim link/tag text, got %q", tasks[0].Text)
	}
}
