package di_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-memory/internal/di"
	"github.com/goliatone/go-memory/internal/runtimeconfig"
)

func TestOpenProjectTwiceFromSeparateContainersFailsLock(t *testing.T) {
	cfg := newTestConfig(t)

	first, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new first container: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	second, err := di.NewContainer(cfg)
	if err == nil {
		t.Cleanup(func() { _ = second.Close() })
		t.Fatal("expected second container to fail acquiring the default project's lock")
	}
}

func TestEnsureWatcherIsIdempotent(t *testing.T) {
	cfg := newTestConfig(t)
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	project, err := container.DefaultProject(context.Background())
	if err != nil {
		t.Fatalf("default project: %v", err)
	}

	w1, err := container.EnsureWatcher(context.Background(), project)
	if err != nil {
		t.Fatalf("ensure watcher: %v", err)
	}
	t.Cleanup(func() { _ = w1.Close() })

	w2, err := container.EnsureWatcher(context.Background(), project)
	if err != nil {
		t.Fatalf("ensure watcher again: %v", err)
	}
	if w1 != w2 {
		t.Fatal("expected EnsureWatcher to return the already-started watcher")
	}
}

func TestProjectCloseReleasesLockForNextOpen(t *testing.T) {
	cfg := newTestConfig(t)

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Fatalf("close container: %v", err)
	}

	reopened, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("expected lock released after close, got: %v", err)
	}
	_ = reopened.Close()
}

func TestNewContainerHonorsInjectedOptions(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Projects["main"] = runtimeconfig.ProjectConfig{
		Name:      "main",
		Path:      cfg.Projects["main"].Path,
		Mode:      runtimeconfig.ProjectModeLocal,
		IsDefault: true,
	}

	var registered []any
	reg := registryFunc(func(handler any) error {
		registered = append(registered, handler)
		return nil
	})

	container, err := di.NewContainer(cfg, di.WithCommandRegistry(reg))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if len(registered) != 3 {
		t.Fatalf("expected 3 handlers registered via injected registry, got %d", len(registered))
	}
}

type registryFunc func(handler any) error

func (f registryFunc) RegisterCommand(handler any) error { return f(handler) }
