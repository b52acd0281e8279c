package sync

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-memory/internal/dataview"
	"github.com/goliatone/go-memory/internal/graph"
)

// defaultDebounce matches spec.md §4.7's 5-second Dataview impact refresh
// window (distinct from the watcher's shorter change-dispatch debounce).
const defaultDebounce = 5 * time.Second

// fromClausePattern matches FROM "path" or FROM 'path', case-insensitive,
// ported from DataviewRefreshManager._extract_from_clauses.
var fromClausePattern = regexp.MustCompile(`(?i)FROM\s+["']([^"']+)["']`)

type dataviewEntityInfo struct {
	entity      *graph.Entity
	fromClauses []string
}

// DataviewRefresher re-materializes dataview_link relations for notes
// containing Dataview queries. It debounces bursts of file changes into a
// single impact-scoped refresh pass, ported from DataviewRefreshManager:
// queries with no FROM clause are always impacted; queries whose FROM
// clause overlaps a changed path or folder are impacted; everything else is
// left alone.
type DataviewRefresher struct {
	service  *Service
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	cacheMu    sync.Mutex
	cacheValid bool
	cache      map[string]*dataviewEntityInfo
}

// NewDataviewRefresher builds a refresher bound to service. debounce <= 0
// falls back to defaultDebounce.
func NewDataviewRefresher(service *Service, debounce time.Duration) *DataviewRefresher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &DataviewRefresher{
		service:  service,
		debounce: debounce,
		pending:  make(map[string]bool),
	}
}

// InvalidateCache drops the cached entity/from-clause index, forcing the
// next refresh to re-scan every entity's content for Dataview blocks.
func (r *DataviewRefresher) InvalidateCache() {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	r.cacheValid = false
	r.cache = nil
}

// OnFileChanged records a changed path and (re)starts the debounce timer.
// When the timer fires without being reset again first, every path
// accumulated since the last fire is passed to RefreshImpacted. Errors from
// the debounced refresh are swallowed — same as the original's
// fire-and-forget asyncio task — since there is no caller left to report to
// by the time the timer fires.
func (r *DataviewRefresher) OnFileChanged(projectID, root, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[path] = true
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		changed := r.pending
		r.pending = make(map[string]bool)
		r.mu.Unlock()
		if len(changed) == 0 {
			return
		}
		_ = r.RefreshImpacted(context.Background(), projectID, root, changed)
	})
}

// dataviewEntities returns the cached entity_id -> {path, from_clauses}
// index, rebuilding it by reading every project entity's file content when
// the cache has been invalidated.
func (r *DataviewRefresher) dataviewEntities(ctx context.Context, projectID, root string) (map[string]*dataviewEntityInfo, error) {
	r.cacheMu.Lock()
	if r.cacheValid && r.cache != nil {
		defer r.cacheMu.Unlock()
		return r.cache, nil
	}
	r.cacheMu.Unlock()

	entities, err := r.service.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	built := make(map[string]*dataviewEntityInfo)
	for _, entity := range entities {
		content, err := os.ReadFile(filepath.Join(root, entity.FilePath))
		if err != nil {
			continue
		}
		if !dataview.HasDataviewQueries(string(content)) {
			continue
		}
		built[entity.ID.String()] = &dataviewEntityInfo{
			entity:      entity,
			fromClauses: extractFromClauses(string(content)),
		}
	}

	r.cacheMu.Lock()
	r.cache = built
	r.cacheValid = true
	r.cacheMu.Unlock()
	return built, nil
}

// extractFromClauses finds every FROM "path" / FROM 'path' literal in
// content, deduplicated.
func extractFromClauses(content string) []string {
	matches := fromClausePattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		clause := m[1]
		if seen[clause] {
			continue
		}
		seen[clause] = true
		out = append(out, clause)
	}
	return out
}

// findImpacted returns the ids of dataviewEntities impacted by the given
// changed paths: an entity with no FROM clause queries everything and is
// always impacted; otherwise it's impacted when any of its FROM clauses
// overlaps a changed path or that path's containing folder.
func findImpacted(dataviewEntities map[string]*dataviewEntityInfo, changedPaths map[string]bool) []string {
	changedFolders := make(map[string]bool, len(changedPaths))
	for path := range changedPaths {
		changedFolders[filepath.Dir(path)] = true
	}

	var impacted []string
	for id, info := range dataviewEntities {
		if len(info.fromClauses) == 0 {
			impacted = append(impacted, id)
			continue
		}
		if isImpacted(info.fromClauses, changedPaths, changedFolders) {
			impacted = append(impacted, id)
		}
	}
	return impacted
}

func isImpacted(fromClauses []string, changedPaths, changedFolders map[string]bool) bool {
	for _, clause := range fromClauses {
		for folder := range changedFolders {
			if strings.Contains(clause, folder) || strings.Contains(folder, clause) {
				return true
			}
		}
		for path := range changedPaths {
			if strings.Contains(path, clause) {
				return true
			}
		}
	}
	return false
}

// RefreshImpacted refreshes the Dataview relations of every entity impacted
// by changedPaths, tolerating per-entity failures (e.g. a file deleted out
// from under the refresh).
func (r *DataviewRefresher) RefreshImpacted(ctx context.Context, projectID, root string, changedPaths map[string]bool) error {
	entities, err := r.dataviewEntities(ctx, projectID, root)
	if err != nil {
		return err
	}
	impacted := findImpacted(entities, changedPaths)
	for _, id := range impacted {
		r.refreshEntity(ctx, projectID, root, entities[id].entity)
	}
	return nil
}

// ForceRefreshAll invalidates the cache and refreshes every entity carrying
// a Dataview query, for initial or full sync (spec.md §4.7).
func (r *DataviewRefresher) ForceRefreshAll(ctx context.Context, projectID, root string) error {
	r.InvalidateCache()
	entities, err := r.dataviewEntities(ctx, projectID, root)
	if err != nil {
		return err
	}
	for _, info := range entities {
		r.refreshEntity(ctx, projectID, root, info.entity)
	}
	return nil
}

// refreshEntity re-executes entity's Dataview blocks against the project's
// current note corpus and replaces its dataview_link relations with the
// notes each block matched. Failures are logged, not propagated, matching
// _refresh_entities's per-entity try/except.
func (r *DataviewRefresher) refreshEntity(ctx context.Context, projectID, root string, entity *graph.Entity) {
	content, err := os.ReadFile(filepath.Join(root, entity.FilePath))
	if err != nil {
		r.service.logger.Warn("dataview.refresh.read_failed", "file_path", entity.FilePath, "error", err)
		return
	}

	notesProvider := r.service.notesProvider(ctx, projectID, root)
	results := dataview.ProcessNote(string(content), notesProvider)

	targets := make(map[string]bool)
	for _, result := range results {
		if result.Status != dataview.StatusSuccess {
			continue
		}
		for _, link := range result.DiscoveredLinks {
			targets[link.Target] = true
		}
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}

	if err := r.service.store.ReplaceDataviewRelations(ctx, entity.ID, names); err != nil {
		r.service.logger.Error("dataview.refresh.replace_failed", "permalink", entity.Permalink, "error", err)
		return
	}
	if _, err := r.service.store.ResolveUnresolvedRelations(ctx, projectID, r.service.resolver); err != nil {
		r.service.logger.Error("dataview.refresh.resolve_failed", "permalink", entity.Permalink, "error", err)
	}
}

// NotesProvider exposes the project's note corpus so callers outside this
// package (the dataview-query command) can run an ad-hoc query through
// dataview.ProcessNote/Executor against the same corpus the refresher uses.
func (s *Service) NotesProvider(ctx context.Context, projectID, root string) dataview.NotesProvider {
	return s.notesProvider(ctx, projectID, root)
}

// notesProvider builds a dataview.NotesProvider backed by the project's
// current entities, reading each one's file content from disk since graph
// entities don't persist a note's body.
func (s *Service) notesProvider(ctx context.Context, projectID, root string) dataview.NotesProvider {
	return func() []dataview.Note {
		entities, err := s.store.ListByProject(ctx, projectID)
		if err != nil {
			return nil
		}
		notes := make([]dataview.Note, 0, len(entities))
		for _, e := range entities {
			content, err := os.ReadFile(filepath.Join(root, e.FilePath))
			body := ""
			if err == nil {
				body = string(content)
			}
			notes = append(notes, entityToNote(e, body))
		}
		return notes
	}
}

// entityToNote converts a graph entity into the shape the Dataview executor
// expects: a flat "path"/"title"/"type" record, a nested "file.path" alias
// for FROM-clause matching, and the entity's frontmatter metadata promoted
// to top-level fields so WHERE/SORT can reference them directly.
func entityToNote(e *graph.Entity, content string) dataview.Note {
	note := dataview.Note{
		"path":    e.FilePath,
		"title":   e.Title,
		"type":    e.EntityType,
		"content": content,
		"file": map[string]any{
			"path": e.FilePath,
		},
	}
	for k, v := range e.EntityMetadata {
		if _, exists := note[k]; !exists {
			note[k] = v
		}
	}
	return note
}
