package dataview

import (
	"regexp"
	"strings"
)

// Task is one checklist item extracted from a note's Markdown body, grounded
// on tests/dataview/test_task_extractor.py's exact fixtures (indentation is
// the raw leading-space count, not a normalized nesting level; line numbers
// are 1-indexed; only "- "/"* " bullets with a well-formed "[ ]"/"[x]"/"[X]"
// box are matched).
type Task struct {
	Text        string
	Completed   bool
	LineNumber  int
	Indentation int
}

var taskLinePattern = regexp.MustCompile(`^( *)[-*] \[([ xX])\] (.*)$`)

// ExtractTasks scans content line by line for task checklist items.
func ExtractTasks(content string) []Task {
	var tasks []Task
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		m := taskLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tasks = append(tasks, Task{
			Text:        m[3],
			Completed:   m[2] == "x" || m[2] == "X",
			LineNumber:  i + 1,
			Indentation: len(m[1]),
		})
	}
	return tasks
}

// ExtractTasksFromNote reads the note's content field and delegates to
// ExtractTasks, returning nil when the note has no content.
func ExtractTasksFromNote(note Note) []Task {
	content := note.content()
	if content == "" {
		return nil
	}
	return ExtractTasks(content)
}
