package memory

import "github.com/goliatone/go-memory/internal/runtimeconfig"

var (
	ErrProjectsRequired          = runtimeconfig.ErrProjectsRequired
	ErrProjectNameInvalid        = runtimeconfig.ErrProjectNameInvalid
	ErrProjectPathRequired       = runtimeconfig.ErrProjectPathRequired
	ErrProjectModeInvalid        = runtimeconfig.ErrProjectModeInvalid
	ErrMultipleDefaultProjects   = runtimeconfig.ErrMultipleDefaultProjects
	ErrDefaultProjectUnknown     = runtimeconfig.ErrDefaultProjectUnknown
	ErrSemanticProviderRequired  = runtimeconfig.ErrSemanticProviderRequired
	ErrSemanticDimensionsInvalid = runtimeconfig.ErrSemanticDimensionsInvalid
	ErrSyncDebounceInvalid       = runtimeconfig.ErrSyncDebounceInvalid
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	ProjectConfig = runtimeconfig.ProjectConfig
	ProjectMode   = runtimeconfig.ProjectMode
	LoggingConfig = runtimeconfig.LoggingConfig
	SyncConfig    = runtimeconfig.SyncConfig
	CacheConfig   = runtimeconfig.CacheConfig
)

const (
	ProjectModeLocal = runtimeconfig.ProjectModeLocal
	ProjectModeCloud = runtimeconfig.ProjectModeCloud
)

// DefaultConfig returns opinionated defaults for a single local "main"
// project rooted at the current working directory.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
