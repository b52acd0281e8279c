package dataview

import (
	"sort"
	"strings"
)

// Executor runs parsed queries against an in-memory note collection,
// porting executor/executor.py's DataviewExecutor.
type Executor struct {
	notes []Note
}

func NewExecutor(notes []Note) *Executor {
	return &Executor{notes: notes}
}

// Execute renders a query to Markdown and reports which notes it matched, so
// callers can persist those matches as dataview_link relations.
func (ex *Executor) Execute(q *Query) (markdown string, discoveredTitles []string, err error) {
	notes := ex.notes
	if q.HasFrom {
		notes = filterByFrom(notes, q.FromSource)
	}
	if q.Where != nil {
		notes, err = filterByWhere(notes, q.Where)
		if err != nil {
			return "", nil, err
		}
	}

	switch q.Type {
	case QueryTypeTable:
		return ex.executeTable(q, notes)
	case QueryTypeTask:
		return ex.executeTask(q, notes)
	default:
		return ex.executeList(q, notes)
	}
}

func filterByFrom(notes []Note, fromSource string) []Note {
	var out []Note
	for _, n := range notes {
		path := n.path()
		if path == "" {
			continue
		}
		if path == fromSource || strings.Contains(path, fromSource) {
			out = append(out, n)
		}
	}
	return out
}

func filterByWhere(notes []Note, where *WhereClause) ([]Note, error) {
	var out []Note
	for _, n := range notes {
		eval := newEvaluator(n)
		result, err := eval.evaluate(where.Expression)
		if err != nil {
			// Matches the original's behavior of silently skipping a note
			// whose expression fails to evaluate rather than aborting the
			// whole query.
			continue
		}
		if truthy(result) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (ex *Executor) executeTable(q *Query, notes []Note) (string, []string, error) {
	fieldNames := make([]string, 0, len(q.Fields)+2)
	fieldNames = append(fieldNames, "file.link", "title")
	for _, f := range q.Fields {
		fieldNames = append(fieldNames, fieldName(f))
	}

	rows := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		eval := newEvaluator(n)
		row := baseRow(n, eval)
		for _, f := range q.Fields {
			value, err := eval.evaluate(f.Expression)
			if err != nil {
				value = nil
			}
			row[fieldName(f)] = value
		}
		rows = append(rows, row)
	}

	rows = applySort(rows, q.SortClauses)
	rows = applyLimit(rows, q.Limit)

	return FormatTable(rows, fieldNames), titlesFromRows(rows), nil
}

func (ex *Executor) executeList(q *Query, notes []Note) (string, []string, error) {
	rows := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, baseRow(n, newEvaluator(n)))
	}
	rows = applySort(rows, q.SortClauses)
	rows = applyLimit(rows, q.Limit)
	return FormatList(rows, "file.link"), titlesFromRows(rows), nil
}

// baseRow seeds a result row with the note's flattened fields (so SORT/WHERE
// can reference fields the output doesn't project) plus the two columns
// every query type always includes: the rendered wikilink and the title.
func baseRow(n Note, eval *evaluator) map[string]any {
	row := make(map[string]any, len(eval.flat)+2)
	for k, v := range eval.flat {
		row[k] = v
	}
	row["file.link"] = "[[" + n.title() + "]]"
	row["title"] = n.title()
	return row
}

func (ex *Executor) executeTask(q *Query, notes []Note) (string, []string, error) {
	var tasks []Task
	var titles []string
	seen := make(map[string]bool, len(notes))
	for _, n := range notes {
		noteTasks := ExtractTasksFromNote(n)
		if len(noteTasks) > 0 && !seen[n.title()] {
			titles = append(titles, n.title())
			seen[n.title()] = true
		}
		tasks = append(tasks, noteTasks...)
	}
	if q.Limit != nil && *q.Limit < len(tasks) {
		tasks = tasks[:*q.Limit]
	}
	return FormatTaskList(tasks), titles, nil
}

func fieldName(f Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	if fn, ok := f.Expression.(*FieldNode); ok {
		return fn.FieldName
	}
	return "unknown"
}

// applySort applies sort clauses in reverse order so the first clause is the
// primary (stable-sort) key, with missing values always sorted last
// regardless of direction — matching executor.py's _apply_sort/sort_key.
func applySort(rows []map[string]any, clauses []SortClause) []map[string]any {
	for i := len(clauses) - 1; i >= 0; i-- {
		clause := clauses[i]
		sort.SliceStable(rows, func(a, b int) bool {
			va, vb := rows[a][clause.Field], rows[b][clause.Field]
			aMissing, bMissing := va == nil, vb == nil
			if aMissing != bMissing {
				return bMissing
			}
			if aMissing && bMissing {
				return false
			}
			if clause.Direction == SortDescending {
				return valueLess(vb, va)
			}
			return valueLess(va, vb)
		})
	}
	return rows
}

func valueLess(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af < bf
	}
	return stringValue(a) < stringValue(b)
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// applyLimit truncates rows after sorting, so callers that also derive
// discovered titles from the surviving rows (titlesFromRows) see the actual
// sorted-then-limited result set rather than a stale pre-sort ordering.
func applyLimit(rows []map[string]any, limit *int) []map[string]any {
	if limit != nil && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

// titlesFromRows re-derives the discovered-link title list from the final
// row set, so it always reflects whatever sorting and limiting did to rows
// rather than an independently-tracked slice that could drift out of sync.
func titlesFromRows(rows []map[string]any) []string {
	titles := make([]string, 0, len(rows))
	for _, row := range rows {
		if t, ok := row["title"].(string); ok {
			titles = append(titles, t)
		}
	}
	return titles
}
