package commands

import (
	"errors"

	"github.com/goliatone/go-memory/internal/searchindex"
	"github.com/goliatone/go-memory/internal/sync"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers into a go-command dispatcher.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the command handlers RegisterCommands produces, so a
// caller (the root facade's CommandHandlers) can both register them with a
// dispatcher and invoke them directly.
type HandlerSet struct {
	Sync     *SyncProjectHandler
	Search   *SearchNotesHandler
	Dataview *DataviewQueryHandler
}

// Handlers returns the set as the []any shape go-command registries and the
// root facade's CommandHandlers method expect.
func (hs *HandlerSet) Handlers() []any {
	if hs == nil {
		return nil
	}
	return []any{hs.Sync, hs.Search, hs.Dataview}
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	syncOpts     []SyncProjectOption
	searchOpts   []SearchNotesOption
	dataviewOpts []DataviewQueryOption
}

// WithSyncHandlerOptions forwards options to the SyncProjectHandler constructor.
func WithSyncHandlerOptions(opts ...SyncProjectOption) Option {
	return func(cfg *options) { cfg.syncOpts = append(cfg.syncOpts, opts...) }
}

// WithSearchHandlerOptions forwards options to the SearchNotesHandler constructor.
func WithSearchHandlerOptions(opts ...SearchNotesOption) Option {
	return func(cfg *options) { cfg.searchOpts = append(cfg.searchOpts, opts...) }
}

// WithDataviewHandlerOptions forwards options to the DataviewQueryHandler constructor.
func WithDataviewHandlerOptions(opts ...DataviewQueryOption) Option {
	return func(cfg *options) { cfg.dataviewOpts = append(cfg.dataviewOpts, opts...) }
}

// RegisterCommands builds the engine's sync, search, and dataview-query
// command handlers and registers them with reg. A HandlerSet containing the
// constructed handlers is returned so callers can invoke them directly in
// addition to (or instead of) dispatching through reg.
func RegisterCommands(reg CommandRegistry, syncService *sync.Service, index *searchindex.Index, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if syncService == nil {
		return nil, errors.New("command registration: sync service is nil")
	}
	if index == nil {
		return nil, errors.New("command registration: search index is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	syncHandler := NewSyncProjectHandler(syncService, CommandLogger(provider, "sync"), cfg.syncOpts...)
	searchHandler := NewSearchNotesHandler(index, CommandLogger(provider, "search"), cfg.searchOpts...)
	dataviewHandler := NewDataviewQueryHandler(syncService, CommandLogger(provider, "dataview"), cfg.dataviewOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(syncHandler); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(searchHandler); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(dataviewHandler); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{
		Sync:     syncHandler,
		Search:   searchHandler,
		Dataview: dataviewHandler,
	}, nil
}
