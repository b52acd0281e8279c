package commands

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-memory/internal/dataview"
	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const dataviewQueryMessageType = "memory.dataview.query"

// DataviewQueryCommand requests ad-hoc evaluation of a single embedded
// Dataview query string against a project's current note corpus (spec.md
// §5), outside of the debounced refresh the watcher and sync.Service drive.
type DataviewQueryCommand struct {
	ProjectID string `json:"project_id"`
	Root      string `json:"root"`
	Query     string `json:"query"`
}

// Type implements command.Message.
func (DataviewQueryCommand) Type() string { return dataviewQueryMessageType }

// Validate ensures the project id, root, and query text are present.
func (cmd DataviewQueryCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(cmd.ProjectID) == "" {
		errs["project_id"] = validation.NewError("memory.dataview.query.project_id_required", "project_id is required")
	}
	if strings.TrimSpace(cmd.Root) == "" {
		errs["root"] = validation.NewError("memory.dataview.query.root_required", "root is required")
	}
	if strings.TrimSpace(cmd.Query) == "" {
		errs["query"] = validation.NewError("memory.dataview.query.query_required", "query is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DataviewQueryResult is the handler's return value: the rendered Markdown
// and the notes the query matched.
type DataviewQueryResult struct {
	Markdown string
	Matched  []string
}

// DataviewQueryHandler tokenizes, parses, and executes a DataviewQueryCommand
// against the project's note corpus, reusing the same sync.Service notes
// provider the Dataview refresh manager uses so ad-hoc queries and the
// background refresh see an identical corpus.
type DataviewQueryHandler struct {
	service *sync.Service
	logger  interfaces.Logger
	timeout time.Duration
	last    DataviewQueryResult
}

// DataviewQueryOption customises the handler.
type DataviewQueryOption func(*DataviewQueryHandler)

// DataviewQueryWithTimeout overrides the default execution timeout.
func DataviewQueryWithTimeout(timeout time.Duration) DataviewQueryOption {
	return func(h *DataviewQueryHandler) { h.timeout = timeout }
}

// NewDataviewQueryHandler constructs a handler wired to the provided sync service.
func NewDataviewQueryHandler(service *sync.Service, logger interfaces.Logger, opts ...DataviewQueryOption) *DataviewQueryHandler {
	h := &DataviewQueryHandler{
		service: service,
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

// Execute satisfies command.Commander[DataviewQueryCommand].Execute.
func (h *DataviewQueryHandler) Execute(ctx context.Context, msg DataviewQueryCommand) error {
	if err := WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return WrapContextError(err)
	}

	tokens, err := dataview.Tokenize(msg.Query)
	if err != nil {
		return WrapExecuteError(err)
	}
	query, err := dataview.Parse(tokens)
	if err != nil {
		return WrapExecuteError(err)
	}

	notesProvider := h.service.NotesProvider(ctx, msg.ProjectID, msg.Root)
	executor := dataview.NewExecutor(notesProvider())
	markdown, matched, err := executor.Execute(query)
	if err != nil {
		return WrapExecuteError(err)
	}
	h.last = DataviewQueryResult{Markdown: markdown, Matched: matched}

	logging.WithFields(h.logger, map[string]any{
		"operation":  "dataview.query",
		"project_id": msg.ProjectID,
		"matched":    len(matched),
	}).Info("dataview.command.query.completed")
	return nil
}

// Result returns the outcome of the most recent Execute call.
func (h *DataviewQueryHandler) Result() DataviewQueryResult { return h.last }
