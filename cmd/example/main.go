package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	memory "github.com/goliatone/go-memory"
	"github.com/goliatone/go-memory/internal/commands"
	"github.com/goliatone/go-memory/internal/searchindex"
)

func main() {
	ctx := context.Background()

	root, err := os.MkdirTemp("", "go-memory-example-*")
	if err != nil {
		log.Fatalf("create scratch project: %v", err)
	}
	defer os.RemoveAll(root)

	if err := seedNotes(root); err != nil {
		log.Fatalf("seed notes: %v", err)
	}

	cfg := memory.DefaultConfig()
	cfg.Projects["main"] = memory.ProjectConfig{
		Name:      "main",
		Path:      root,
		Mode:      memory.ProjectModeLocal,
		IsDefault: true,
	}
	cfg.DefaultProject = "main"

	engine, err := memory.New(cfg)
	if err != nil {
		log.Fatalf("initialise engine: %v", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Printf("close engine: %v", err)
		}
	}()

	handlers := engine.Handlers()

	syncCmd := commands.SyncProjectCommand{ProjectID: "main", Root: root}
	if err := handlers.Sync.Execute(ctx, syncCmd); err != nil {
		log.Fatalf("sync project: %v", err)
	}

	searchCmd := commands.SearchNotesCommand{
		ProjectID: "main",
		Query:     "coffee",
		Mode:      searchindex.ModeFTS,
		Limit:     10,
	}
	if err := handlers.Search.Execute(ctx, searchCmd); err != nil {
		log.Fatalf("search notes: %v", err)
	}

	dataviewCmd := commands.DataviewQueryCommand{
		ProjectID: "main",
		Root:      root,
		Query:     `TABLE status FROM "recipes" WHERE status = "draft"`,
	}
	if err := handlers.Dataview.Execute(ctx, dataviewCmd); err != nil {
		log.Fatalf("run dataview query: %v", err)
	}

	payload := map[string]any{
		"search":   handlers.Search.Result(),
		"dataview": handlers.Dataview.Result(),
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func seedNotes(root string) error {
	recipesDir := filepath.Join(root, "recipes")
	if err := os.MkdirAll(recipesDir, 0o755); err != nil {
		return err
	}

	cold := `---
title: Cold Brew Coffee
type: recipe
status: draft
tags: [coffee, drinks]
---

# Cold Brew Coffee

Steep coarsely ground coffee in cold water overnight.

## Observations
- [idea] Try a 1:8 ratio next time #brewing
- relates_to [[French Press]]
`
	press := `---
title: French Press
type: recipe
status: published
tags: [coffee, drinks]
---

# French Press

A classic immersion brewing method.

## Observations
- [fact] Steep time is usually four minutes #brewing
`
	if err := os.WriteFile(filepath.Join(recipesDir, "cold-brew-coffee.md"), []byte(cold), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(recipesDir, "french-press.md"), []byte(press), 0o644); err != nil {
		return err
	}
	return nil
}
