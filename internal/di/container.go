// Package di wires the engine's packages into one Container, constructed
// once from runtimeconfig.Config plus functional Options and exposing typed
// getters, mirroring the teacher's internal/di.Container.
package di

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-memory/internal/commands"
	"github.com/goliatone/go-memory/internal/logging/gologger"
	"github.com/goliatone/go-memory/internal/runtimeconfig"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

// Container wires every project's graph store, resolver, search index, and
// sync service, plus the shared logger provider, cache, embedding provider,
// and command handler set built over them.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider    interfaces.LoggerProvider
	cacheService      cache.CacheService
	keySerializer     cache.KeySerializer
	embeddingProvider interfaces.EmbeddingProvider

	mu       sync.Mutex
	projects map[string]*Project

	commandRegistry commands.CommandRegistry
	handlers        *commands.HandlerSet
}

// Option configures a Container during NewContainer.
type Option func(*Container)

// WithLoggerProvider injects a pre-built logger provider, bypassing the
// Config.Logging-driven gologger.Provider NewContainer builds by default.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) { c.loggerProvider = provider }
}

// WithCache injects a pre-built cache service and key serializer, bypassing
// the Config.Cache-driven defaults NewContainer builds when Cache.Enabled.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithEmbeddingProvider injects the embedding provider used for semantic
// search. A nil provider (the default) disables vector and hybrid search.
func WithEmbeddingProvider(provider interfaces.EmbeddingProvider) Option {
	return func(c *Container) { c.embeddingProvider = provider }
}

// WithCommandRegistry registers the container's sync/search/dataview
// command handlers with reg in addition to building them. A nil registry
// (the default) still builds the HandlerSet, just without registering it.
func WithCommandRegistry(reg commands.CommandRegistry) Option {
	return func(c *Container) { c.commandRegistry = reg }
}

// NewContainer validates cfg, seeds the logger provider and cache defaults,
// applies opts, and builds the command handler set, which opens the default
// project's database connection and advisory lock. Every other configured
// project is opened the first time EnsureProject is called for it, since
// opening every configured project eagerly would acquire every project's
// advisory lock even for projects the caller never touches.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		projects: make(map[string]*Project, len(cfg.Projects)),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.loggerProvider == nil {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     append([]string{}, cfg.Logging.Focus...),
		})
		if err != nil {
			return nil, err
		}
		c.loggerProvider = provider
	}

	c.configureCacheDefaults()

	ctx := context.Background()
	handlerSet, err := c.buildCommandHandlers(ctx)
	if err != nil {
		return nil, err
	}
	c.handlers = handlerSet

	return c, nil
}

// configureCacheDefaults builds a cache service and key serializer from
// Config.Cache when the caller hasn't already injected one via WithCache,
// mirroring the teacher's configureCacheDefaults.
func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}
	if c.cacheService != nil {
		return
	}

	ttl := c.Config.Cache.DefaultTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	cfg := cache.DefaultConfig()
	cfg.TTL = ttl
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return
	}
	c.cacheService = service
	c.keySerializer = cache.NewDefaultKeySerializer()
}

// buildCommandHandlers opens the default project (the first project a
// sync/search/dataview command will usually target) so the command
// handlers have a live sync.Service and searchindex.Index to wire against,
// then registers them with commandRegistry if one was supplied.
func (c *Container) buildCommandHandlers(ctx context.Context) (*commands.HandlerSet, error) {
	defaultCfg, ok := c.Config.ResolveDefaultProject()
	if !ok {
		return nil, fmt.Errorf("di: no default project configured")
	}
	project, err := c.EnsureProject(ctx, defaultCfg.Name)
	if err != nil {
		return nil, err
	}
	return commands.RegisterCommands(c.commandRegistry, project.Sync, project.Search, c.loggerProvider)
}

// EnsureProject returns the named project's live wiring, opening its
// database and acquiring its advisory lock on first use.
func (c *Container) EnsureProject(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.projects[name]; ok {
		return p, nil
	}

	cfg, ok := c.Config.Projects[name]
	if !ok {
		return nil, fmt.Errorf("di: unknown project %q", name)
	}

	project, err := c.openProject(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.projects[name] = project
	return project, nil
}

// Project returns the named project's live wiring if it has already been
// opened by EnsureProject, without opening it.
func (c *Container) Project(name string) (*Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.projects[strings.TrimSpace(name)]
	return p, ok
}

// DefaultProject opens (if necessary) and returns the config-designated
// default project.
func (c *Container) DefaultProject(ctx context.Context) (*Project, error) {
	cfg, ok := c.Config.ResolveDefaultProject()
	if !ok {
		return nil, fmt.Errorf("di: no default project configured")
	}
	return c.EnsureProject(ctx, cfg.Name)
}

// LoggerProvider returns the container's logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// CommandHandlers returns the registered sync/search/dataview command
// handlers as the []any shape a go-command dispatcher expects. This is
// authored directly against commands.HandlerSet rather than ported from
// the teacher, whose own Container.CommandHandlers is referenced by cms.go
// but not defined anywhere in the teacher's internal/di package as
// distilled into the retrieval pack.
func (c *Container) CommandHandlers() []any {
	return c.handlers.Handlers()
}

// Handlers returns the typed command handler set, for callers (tests, the
// root facade) that want to invoke Sync/Search/Dataview directly rather
// than through a go-command dispatcher.
func (c *Container) Handlers() *commands.HandlerSet {
	return c.handlers
}

// Close releases every opened project's watcher, database connection, and
// advisory lock.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, p := range c.projects {
		if p.Watcher != nil {
			if err := p.Watcher.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
