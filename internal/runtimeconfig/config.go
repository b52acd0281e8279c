// Package runtimeconfig defines the closed configuration structs for the
// memory engine and their validation rules.
package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// ErrProjectsRequired indicates the config declares no projects.
var ErrProjectsRequired = errors.New("memory config: at least one project is required")

// ErrProjectNameInvalid indicates a project name fails the naming pattern.
var ErrProjectNameInvalid = errors.New("memory config: project name is invalid")

// ErrProjectPathRequired indicates a project is missing its root path.
var ErrProjectPathRequired = errors.New("memory config: project path is required")

// ErrProjectModeInvalid indicates an unsupported project mode.
var ErrProjectModeInvalid = errors.New("memory config: project mode is invalid")

// ErrMultipleDefaultProjects indicates more than one project marked is_default.
var ErrMultipleDefaultProjects = errors.New("memory config: only one project may be marked default")

// ErrDefaultProjectUnknown indicates default_project references an undeclared project.
var ErrDefaultProjectUnknown = errors.New("memory config: default_project references an unknown project")

// ErrSemanticProviderRequired indicates semantic search is enabled without a provider.
var ErrSemanticProviderRequired = errors.New("memory config: semantic_embedding_provider is required when semantic search is enabled")

// ErrSemanticDimensionsInvalid indicates a non-positive embedding dimension.
var ErrSemanticDimensionsInvalid = errors.New("memory config: semantic_embedding_dimensions must be positive when semantic search is enabled")

// ErrSyncDebounceInvalid indicates a non-positive debounce window.
var ErrSyncDebounceInvalid = errors.New("memory config: sync debounce windows must be positive")

// ErrLoggingLevelInvalid indicates an unsupported logging level.
var ErrLoggingLevelInvalid = errors.New("memory config: logging level is invalid")

// ErrLoggingFormatInvalid indicates an unsupported logging format.
var ErrLoggingFormatInvalid = errors.New("memory config: logging format is invalid")

// EnvDefaultProjectOverride names the environment variable that overrides DefaultProject.
const EnvDefaultProjectOverride = "BASIC_MEMORY_MCP_PROJECT"

var projectNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ProjectMode describes whether a project's derived store is purely local or
// additionally mirrored by an (out-of-scope) cloud sync tool. The mode is
// opaque to the core; it is only validated here and threaded through.
type ProjectMode string

const (
	ProjectModeLocal ProjectMode = "local"
	ProjectModeCloud ProjectMode = "cloud"
)

// ProjectConfig describes a single project root and its sync mode.
type ProjectConfig struct {
	Name      string
	Path      string
	Mode      ProjectMode
	IsDefault bool
}

// LoggingConfig captures provider-specific options for runtime logging,
// mirroring the teacher's logging configuration shape.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// SyncConfig captures the debounce windows the watch service and the
// Dataview refresh manager use to coalesce filesystem events.
type SyncConfig struct {
	ChangeDebounce       time.Duration
	DataviewRefreshDelay time.Duration
	IgnoreFileName       string
	WorkerPoolSize       int
	EmbeddingPoolSize    int
	EventLogSize         int
}

// CacheConfig controls the read-through cache the DI container places in
// front of the graph store's entity repository (spec.md §4.4 resolver
// lookups), mirroring the teacher's Cache config shape.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// Config aggregates every project and engine-wide default. It is a closed
// struct: no dynamic option maps, per the "Dynamic parameters" design note.
type Config struct {
	Projects                    map[string]ProjectConfig
	DefaultProject              string
	DatabaseURL                 string
	SemanticSearchEnabled       bool
	SemanticEmbeddingProvider   string
	SemanticEmbeddingDimensions int
	TelemetryEnabled            bool
	Logging                     LoggingConfig
	Sync                        SyncConfig
	Cache                       CacheConfig
}

// DefaultConfig returns opinionated defaults for a single local "main" project
// rooted at the current working directory.
func DefaultConfig() Config {
	return Config{
		Projects: map[string]ProjectConfig{
			"main": {
				Name:      "main",
				Path:      ".",
				Mode:      ProjectModeLocal,
				IsDefault: true,
			},
		},
		DefaultProject:        "main",
		SemanticSearchEnabled: false,
		TelemetryEnabled:      false,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Sync: SyncConfig{
			ChangeDebounce:       time.Second,
			DataviewRefreshDelay: 5 * time.Second,
			IgnoreFileName:       ".bmignore",
			WorkerPoolSize:       4,
			EmbeddingPoolSize:    2,
			EventLogSize:         500,
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 5 * time.Minute,
		},
	}
}

// ApplyEnvOverrides copies environment-variable overrides onto the config.
// BASIC_MEMORY_MCP_PROJECT, when set, overrides DefaultProject.
func (cfg Config) ApplyEnvOverrides() Config {
	if project := strings.TrimSpace(os.Getenv(EnvDefaultProjectOverride)); project != "" {
		cfg.DefaultProject = project
	}
	return cfg
}

// Validate performs cross-field consistency checks, following the teacher's
// hand-rolled sentinel-error idiom rather than a generic validation library
// (the teacher reserves ozzo-validation for command message payloads, not
// for this closed config struct).
func (cfg Config) Validate() error {
	if len(cfg.Projects) == 0 {
		return ErrProjectsRequired
	}

	var defaultSeen bool
	var defaultDeclared string
	for name, project := range cfg.Projects {
		trimmedName := strings.TrimSpace(name)
		if trimmedName == "" || !projectNamePattern.MatchString(trimmedName) {
			return fmt.Errorf("%w: %s", ErrProjectNameInvalid, name)
		}
		if strings.TrimSpace(project.Path) == "" {
			return fmt.Errorf("%w: %s", ErrProjectPathRequired, name)
		}
		switch project.Mode {
		case ProjectModeLocal, ProjectModeCloud, "":
		default:
			return fmt.Errorf("%w: %s", ErrProjectModeInvalid, project.Mode)
		}
		if project.IsDefault {
			if defaultSeen {
				return ErrMultipleDefaultProjects
			}
			defaultSeen = true
			defaultDeclared = name
		}
	}

	defaultProject := strings.TrimSpace(cfg.DefaultProject)
	if defaultProject == "" {
		defaultProject = defaultDeclared
	}
	if defaultProject != "" {
		if _, ok := cfg.Projects[defaultProject]; !ok {
			return fmt.Errorf("%w: %s", ErrDefaultProjectUnknown, defaultProject)
		}
	}

	if cfg.SemanticSearchEnabled {
		if strings.TrimSpace(cfg.SemanticEmbeddingProvider) == "" {
			return ErrSemanticProviderRequired
		}
		if cfg.SemanticEmbeddingDimensions <= 0 {
			return ErrSemanticDimensionsInvalid
		}
	}

	if cfg.Sync.ChangeDebounce <= 0 || cfg.Sync.DataviewRefreshDelay <= 0 {
		return ErrSyncDebounceInvalid
	}

	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}

	return nil
}

// ResolveDefaultProject returns the project designated as default, honoring
// the BASIC_MEMORY_MCP_PROJECT environment override applied by
// ApplyEnvOverrides.
func (cfg Config) ResolveDefaultProject() (ProjectConfig, bool) {
	name := strings.TrimSpace(cfg.DefaultProject)
	if name == "" {
		for projectName, project := range cfg.Projects {
			if project.IsDefault {
				name = projectName
				break
			}
		}
	}
	project, ok := cfg.Projects[name]
	return project, ok
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
