package commands

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/internal/searchindex"
	"github.com/goliatone/go-memory/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const searchNotesMessageType = "memory.search.notes"

// SearchNotesCommand requests a search over one project's index (spec.md
// §4.5): full-text by default, or vector/hybrid when Mode selects it.
type SearchNotesCommand struct {
	ProjectID string                     `json:"project_id"`
	Query     string                     `json:"query"`
	Mode      searchindex.Mode           `json:"mode,omitempty"`
	Filters   searchindex.Filters        `json:"filters,omitempty"`
	Limit     int                        `json:"limit,omitempty"`
	Offset    int                        `json:"offset,omitempty"`
	Weights   *searchindex.HybridWeights `json:"weights,omitempty"`
}

// Type implements command.Message.
func (SearchNotesCommand) Type() string { return searchNotesMessageType }

// Validate ensures the project id is present and, when set, Mode is one of
// the three retrieval strategies Search understands.
func (cmd SearchNotesCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(cmd.ProjectID) == "" {
		errs["project_id"] = validation.NewError("memory.search.notes.project_id_required", "project_id is required")
	}
	switch cmd.Mode {
	case "", searchindex.ModeFTS, searchindex.ModeVector, searchindex.ModeHybrid:
	default:
		errs["mode"] = validation.NewError("memory.search.notes.mode_invalid", "mode must be fts, vector, or hybrid")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SearchResult is the handler's return value: the result set plus the
// result count already surfaced as a logged field.
type SearchResult struct {
	Rows []searchindex.IndexedRow
}

// SearchNotesHandler runs a SearchNotesCommand against a project's search index.
type SearchNotesHandler struct {
	index   *searchindex.Index
	logger  interfaces.Logger
	timeout time.Duration
	last    SearchResult
}

// SearchNotesOption customises the handler.
type SearchNotesOption func(*SearchNotesHandler)

// SearchNotesWithTimeout overrides the default execution timeout.
func SearchNotesWithTimeout(timeout time.Duration) SearchNotesOption {
	return func(h *SearchNotesHandler) { h.timeout = timeout }
}

// NewSearchNotesHandler constructs a handler wired to the provided search index.
func NewSearchNotesHandler(index *searchindex.Index, logger interfaces.Logger, opts ...SearchNotesOption) *SearchNotesHandler {
	h := &SearchNotesHandler{
		index:   index,
		logger:  EnsureLogger(logger),
		timeout: DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Execute satisfies command.Commander[SearchNotesCommand].Execute. The
// matched rows are retained on the handler (Result) for callers that invoke
// it directly rather than through a fire-and-forget command bus.
func (h *SearchNotesHandler) Execute(ctx context.Context, msg SearchNotesCommand) error {
	if err := WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return WrapContextError(err)
	}

	rows, err := h.index.Search(ctx, msg.ProjectID, msg.Query, searchindex.SearchOptions{
		Mode:    msg.Mode,
		Filters: msg.Filters,
		Limit:   msg.Limit,
		Offset:  msg.Offset,
		Weights: msg.Weights,
	})
	if err != nil {
		return WrapExecuteError(err)
	}
	h.last = SearchResult{Rows: rows}

	logging.WithFields(h.logger, map[string]any{
		"operation":  "search.notes",
		"project_id": msg.ProjectID,
		"mode":       msg.Mode,
		"results":    len(rows),
	}).Info("search.command.notes.completed")
	return nil
}

// Result returns the rows matched by the most recent Execute call.
func (h *SearchNotesHandler) Result() SearchResult { return h.last }
