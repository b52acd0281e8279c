// Package memory is the root façade over the engine's dependency-injection
// container, mirroring the teacher's cms.go Module.
package memory

import (
	"context"

	"github.com/goliatone/go-memory/internal/commands"
	"github.com/goliatone/go-memory/internal/di"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

// Option re-exports di.Option so callers never need to import internal/di directly.
type Option = di.Option

var (
	WithLoggerProvider    = di.WithLoggerProvider
	WithCache             = di.WithCache
	WithEmbeddingProvider = di.WithEmbeddingProvider
	WithCommandRegistry   = di.WithCommandRegistry
)

// Project exposes one project's live wiring: its graph store, resolver,
// search index, sync service, and (once started) its filesystem watcher.
type Project = di.Project

// Engine is the top-level runtime façade over the knowledge-graph engine.
type Engine struct {
	container *di.Container
}

// New constructs an Engine from cfg and optional DI overrides.
func New(cfg Config, opts ...Option) (*Engine, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (e *Engine) Container() *di.Container {
	return e.container
}

// Project returns the named project's live wiring, opening its database and
// acquiring its advisory lock on first use.
func (e *Engine) Project(ctx context.Context, name string) (*Project, error) {
	return e.container.EnsureProject(ctx, name)
}

// DefaultProject opens (if necessary) and returns the config-designated
// default project.
func (e *Engine) DefaultProject(ctx context.Context) (*Project, error) {
	return e.container.DefaultProject(ctx)
}

// Watch starts a filesystem watcher over p, feeding changes into p's sync
// service. Calling it more than once for the same project is a no-op.
func (e *Engine) Watch(ctx context.Context, p *Project) error {
	_, err := e.container.EnsureWatcher(ctx, p)
	return err
}

// Handlers returns the engine's sync/search/dataview-query command
// handlers as a typed set, for callers that want to invoke them directly.
func (e *Engine) Handlers() *commands.HandlerSet {
	return e.container.Handlers()
}

// CommandHandlers returns the registered command handlers as the []any
// shape a go-command dispatcher expects, allowing callers to wire them into
// custom dispatchers when automatic registration is disabled.
func (e *Engine) CommandHandlers() []any {
	if e == nil || e.container == nil {
		return nil
	}
	return e.container.CommandHandlers()
}

// LoggerProvider returns the engine's logger provider.
func (e *Engine) LoggerProvider() interfaces.LoggerProvider {
	return e.container.LoggerProvider()
}

// Close releases every opened project's watcher, database connection, and
// advisory lock.
func (e *Engine) Close() error {
	return e.container.Close()
}
