package commands

import (
	"strings"

	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

const commandModuleRoot = "memory.commands"

// CommandLogger returns a module-scoped logger for command handlers,
// enriching it with consistent structured fields so sync, search, and
// dataview-query executions are distinguishable in aggregate logs.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
