package commands_test

import (
	"testing"

	"github.com/goliatone/go-memory/internal/commands"
)

type fakeRegistry struct {
	registered []any
	err        error
}

func (r *fakeRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return r.err
	}
	r.registered = append(r.registered, handler)
	return nil
}

func TestRegisterCommandsBuildsAndRegistersHandlers(t *testing.T) {
	service, index := newTestSyncService(t)
	reg := &fakeRegistry{}

	set, err := commands.RegisterCommands(reg, service, index, nil)
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if set.Sync == nil || set.Search == nil || set.Dataview == nil {
		t.Fatalf("expected all three handlers built, got %+v", set)
	}
	if len(reg.registered) != 3 {
		t.Fatalf("expected 3 handlers registered, got %d", len(reg.registered))
	}

	handlers := set.Handlers()
	if len(handlers) != 3 {
		t.Fatalf("expected Handlers() to return 3 entries, got %d", len(handlers))
	}
}

func TestRegisterCommandsRequiresSyncServiceAndIndex(t *testing.T) {
	_, index := newTestSyncService(t)

	if _, err := commands.RegisterCommands(nil, nil, index, nil); err == nil {
		t.Fatal("expected error when sync service is nil")
	}

	service, _ := newTestSyncService(t)
	if _, err := commands.RegisterCommands(nil, service, nil, nil); err == nil {
		t.Fatal("expected error when search index is nil")
	}
}

func TestNilHandlerSetHandlersReturnsNil(t *testing.T) {
	var set *commands.HandlerSet
	if handlers := set.Handlers(); handlers != nil {
		t.Fatalf("expected nil handlers for nil set, got %+v", handlers)
	}
}
