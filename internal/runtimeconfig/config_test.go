package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-memory/internal/runtimeconfig"
)

func TestConfigValidate_AcceptsDefaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresAtLeastOneProject(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Projects = nil

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrProjectsRequired) {
		t.Fatalf("expected ErrProjectsRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidProjectName(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Projects["Bad Name"] = runtimeconfig.ProjectConfig{Name: "Bad Name", Path: "."}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrProjectNameInvalid) {
		t.Fatalf("expected ErrProjectNameInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresProjectPath(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Projects["main"] = runtimeconfig.ProjectConfig{Name: "main", Path: " "}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrProjectPathRequired) {
		t.Fatalf("expected ErrProjectPathRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidProjectMode(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Projects["main"] = runtimeconfig.ProjectConfig{Name: "main", Path: ".", Mode: "hybrid"}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrProjectModeInvalid) {
		t.Fatalf("expected ErrProjectModeInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsMultipleDefaultProjects(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Projects["second"] = runtimeconfig.ProjectConfig{Name: "second", Path: "./second", IsDefault: true}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrMultipleDefaultProjects) {
		t.Fatalf("expected ErrMultipleDefaultProjects, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownDefaultProject(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultProject = "missing"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultProjectUnknown) {
		t.Fatalf("expected ErrDefaultProjectUnknown, got %v", err)
	}
}

func TestConfigValidate_RequiresEmbeddingProviderWhenSemanticSearchEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.SemanticSearchEnabled = true

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSemanticProviderRequired) {
		t.Fatalf("expected ErrSemanticProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RequiresPositiveEmbeddingDimensions(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.SemanticSearchEnabled = true
	cfg.SemanticEmbeddingProvider = "openai"
	cfg.SemanticEmbeddingDimensions = 0

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSemanticDimensionsInvalid) {
		t.Fatalf("expected ErrSemanticDimensionsInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNonPositiveDebounceWindows(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Sync.ChangeDebounce = 0

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSyncDebounceInvalid) {
		t.Fatalf("expected ErrSyncDebounceInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigApplyEnvOverrides_OverridesDefaultProject(t *testing.T) {
	t.Setenv(runtimeconfig.EnvDefaultProjectOverride, "secondary")

	cfg := runtimeconfig.DefaultConfig()
	cfg.Projects["secondary"] = runtimeconfig.ProjectConfig{Name: "secondary", Path: "./secondary"}
	cfg = cfg.ApplyEnvOverrides()

	if cfg.DefaultProject != "secondary" {
		t.Fatalf("expected default project override to apply, got %q", cfg.DefaultProject)
	}
}

func TestDefaultConfig_EnablesCacheWithPositiveTTL(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if !cfg.Cache.Enabled {
		t.Fatal("expected cache enabled by default")
	}
	if cfg.Cache.DefaultTTL <= 0 {
		t.Fatalf("expected a positive default cache TTL, got %v", cfg.Cache.DefaultTTL)
	}
}

func TestConfigResolveDefaultProject_FallsBackToIsDefaultFlag(t *testing.T) {
	cfg := runtimeconfig.Config{
		Projects: map[string]runtimeconfig.ProjectConfig{
			"main": {Name: "main", Path: ".", IsDefault: true},
		},
		Sync: runtimeconfig.SyncConfig{
			ChangeDebounce:       time.Second,
			DataviewRefreshDelay: 5 * time.Second,
		},
	}

	project, ok := cfg.ResolveDefaultProject()
	if !ok {
		t.Fatalf("expected default project to resolve")
	}
	if project.Name != "main" {
		t.Fatalf("expected main project, got %q", project.Name)
	}
}
