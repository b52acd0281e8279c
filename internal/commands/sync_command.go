package commands

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const syncProjectMessageType = "memory.sync.project"

// SyncProjectCommand requests a full reconciliation pass of one project's
// root directory against the graph store and search index (spec.md §4.7).
type SyncProjectCommand struct {
	ProjectID string `json:"project_id"`
	Root      string `json:"root"`
}

// Type implements command.Message.
func (SyncProjectCommand) Type() string { return syncProjectMessageType }

// Validate ensures both the project id and root path are present before
// handlers execute.
func (cmd SyncProjectCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(cmd.ProjectID) == "" {
		errs["project_id"] = validation.NewError("memory.sync.project.project_id_required", "project_id is required")
	}
	if strings.TrimSpace(cmd.Root) == "" {
		errs["root"] = validation.NewError("memory.sync.project.root_required", "root is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SyncProjectHandler runs a SyncProjectCommand against a project's
// sync.Service, then, when the pass wrote anything, force-refreshes the
// Dataview relations of every Dataview-bearing note in the project
// (synchronously, unlike the watcher's debounced impact-scoped refresh).
type SyncProjectHandler struct {
	service *sync.Service
	logger  interfaces.Logger
	timeout time.Duration
}

// SyncProjectOption customises the handler.
type SyncProjectOption func(*SyncProjectHandler)

// SyncProjectWithTimeout overrides the default execution timeout.
func SyncProjectWithTimeout(timeout time.Duration) SyncProjectOption {
	return func(h *SyncProjectHandler) { h.timeout = timeout }
}

// NewSyncProjectHandler constructs a handler wired to the provided sync service.
func NewSyncProjectHandler(service *sync.Service, logger interfaces.Logger, opts ...SyncProjectOption) *SyncProjectHandler {
	h := &SyncProjectHandler{
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

// Execute satisfies command.Commander[SyncProjectCommand].Execute.
func (h *SyncProjectHandler) Execute(ctx context.Context, msg SyncProjectCommand) error {
	if err := WrapValidationError(command.ValidateMessage(msg)); err != nil {
		return err
	}
	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return WrapContextError(err)
	}

	report, err := h.service.Sync(ctx, msg.ProjectID, msg.Root)
	if err != nil {
		return WrapExecuteError(err)
	}

	if report.TotalSynced() > 0 {
		if err := h.service.Refresher().ForceRefreshAll(ctx, msg.ProjectID, msg.Root); err != nil {
			return WrapExecuteError(err)
		}
	}

	logging.WithFields(h.logger, map[string]any{
		"operation":  "sync.project",
		"project_id": msg.ProjectID,
		"new":        len(report.New),
		"modified":   len(report.Modified),
		"deleted":    len(report.Deleted),
		"moved":      len(report.Moved),
		"errors":     len(report.Errors),
	}).Info("sync.command.project.completed")
	return nil
}
