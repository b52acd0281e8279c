package dataview

import (
	"fmt"
	"time"
)

// DiscoveredLink is one note the executor matched while answering a query,
// a candidate dataview_link relation target.
type DiscoveredLink struct {
	Target string
}

// QueryResult reports the outcome of rendering one detected Block, per the
// process_note(content, notes_provider) integration contract: stateless,
// never panics, and always produces one result per detected block even when
// parsing or execution fails.
type QueryResult struct {
	QueryID         string
	LineNumber      int
	QueryType       QueryType
	Status          string
	ResultCount     int
	ResultMarkdown  string
	DiscoveredLinks []DiscoveredLink
	Error           string
	ExecutionTimeMs int64
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// NotesProvider supplies the full note corpus to evaluate queries against.
// A nil provider behaves as an empty corpus rather than a crash, matching
// the stateless contract.
type NotesProvider func() []Note

// ProcessNote detects every Dataview block in content and executes each one
// against the corpus notesProvider returns, producing one QueryResult per
// block in document order. It never returns an error itself: per-block
// failures are reported in that block's QueryResult.Status/Error instead.
func ProcessNote(content string, notesProvider NotesProvider) []QueryResult {
	blocks := DetectQueries(content)
	var notes []Note
	if notesProvider != nil {
		notes = notesProvider()
	}
	executor := NewExecutor(notes)

	results := make([]QueryResult, 0, len(blocks))
	for i, block := range blocks {
		start := time.Now()
		result := QueryResult{
			QueryID:    fmt.Sprintf("q%d", i+1),
			LineNumber: block.StartLine + 1,
		}

		tokens, err := Tokenize(block.Query)
		if err != nil {
			result.Status = StatusError
			result.Error = err.Error()
			result.ExecutionTimeMs = time.Since(start).Milliseconds()
			results = append(results, result)
			continue
		}

		query, err := Parse(tokens)
		if err != nil {
			result.Status = StatusError
			result.Error = err.Error()
			result.ExecutionTimeMs = time.Since(start).Milliseconds()
			results = append(results, result)
			continue
		}
		result.QueryType = query.Type

		markdown, titles, err := executor.Execute(query)
		if err != nil {
			result.Status = StatusError
			result.Error = wrapExecutionError(query.Type, err).Error()
			result.ExecutionTimeMs = time.Since(start).Milliseconds()
			results = append(results, result)
			continue
		}

		links := make([]DiscoveredLink, len(titles))
		for j, t := range titles {
			links[j] = DiscoveredLink{Target: t}
		}

		result.Status = StatusSuccess
		result.ResultMarkdown = markdown
		result.ResultCount = len(titles)
		result.DiscoveredLinks = links
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		results = append(results, result)
	}
	return results
}
