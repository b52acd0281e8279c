package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-memory/pkg/interfaces"
)

const (
	rootModule     = "memory"
	graphModule    = "memory.graph"
	syncModule     = "memory.sync"
	watchModule    = "memory.watch"
	dataviewModule = "memory.dataview"
	searchModule   = "memory.search"
	schemaModule   = "memory.schema"
)

const (
	fieldProject   = "project"
	fieldFilePath  = "file_path"
	fieldSyncPhase = "sync_phase"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// GraphLogger returns the logger namespace reserved for the graph store.
func GraphLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, graphModule)
}

// SyncLogger returns the logger namespace reserved for the sync engine.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// WatchLogger returns the logger namespace reserved for the watch service.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// DataviewLogger returns the logger namespace reserved for the Dataview engine.
func DataviewLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, dataviewModule)
}

// SearchLogger returns the logger namespace reserved for the search index.
func SearchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, searchModule)
}

// SchemaLogger returns the logger namespace reserved for the schema engine.
func SchemaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schemaModule)
}

// WithSyncContext enriches the provided logger with common sync fields such
// as project, file path, and sync phase. Empty values are ignored.
func WithSyncContext(logger interfaces.Logger, project, path, phase string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(project); trimmed != "" {
		fields[fieldProject] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldFilePath] = trimmed
	}
	if trimmed := strings.TrimSpace(phase); trimmed != "" {
		fields[fieldSyncPhase] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
