package dataview

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTable renders result rows as a Markdown pipe table, grounded on
// tests/dataview/test_result_formatter.py's ResultFormatter.format_table
// fixtures: "_No results_" for an empty set, "✓"/"✗" for booleans,
// comma-joined lists, and blank cells for missing/nil values.
func FormatTable(results []map[string]any, fields []string) string {
	if len(results) == 0 {
		return "_No results_"
	}
	var sb strings.Builder
	sb.WriteString("| ")
	sb.WriteString(strings.Join(fields, " | "))
	sb.WriteString(" |\n|")
	for range fields {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range results {
		sb.WriteString("| ")
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = formatCell(row[f])
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString(" |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatList renders one bullet per result using the given field, falling
// back to "title" and then "Untitled" when the field is missing.
func FormatList(results []map[string]any, field string) string {
	if field == "" {
		field = "file.link"
	}
	if len(results) == 0 {
		return "_No results_"
	}
	lines := make([]string, 0, len(results))
	for _, row := range results {
		v, ok := row[field]
		if !ok || v == nil {
			v, ok = row["title"]
		}
		if !ok || v == nil {
			v = "Untitled"
		}
		lines = append(lines, fmt.Sprintf("- %v", v))
	}
	return strings.Join(lines, "\n")
}

// FormatTaskList renders tasks as nested Markdown checklist items, indenting
// each by its raw leading-space count.
func FormatTaskList(tasks []Task) string {
	if len(tasks) == 0 {
		return "_No tasks_"
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		box := " "
		if t.Completed {
			box = "x"
		}
		lines = append(lines, fmt.Sprintf("%s- [%s] %s", strings.Repeat(" ", t.Indentation), box, t.Text))
	}
	return strings.Join(lines, "\n")
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "✓"
		}
		return "✗"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
