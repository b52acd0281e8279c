package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-memory/internal/fsio"
	"github.com/goliatone/go-memory/internal/graph"
	"github.com/goliatone/go-memory/internal/logging"
	"github.com/goliatone/go-memory/internal/markdown"
	"github.com/goliatone/go-memory/internal/searchindex"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

// CategorySyncFailed groups per-file errors tolerated during a Sync pass.
const CategorySyncFailed goerrors.Category = "sync_file_failed"

const textCodeSyncFailed = "SYNC_FILE_FAILED"

// FileError pairs a path with the error a sync pass hit processing it. Sync
// collects these rather than aborting, matching original_source's
// scan_directory/find_changes per-file tolerance.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Report summarizes one Sync pass (spec.md §4.7).
type Report struct {
	New      []string
	Modified []string
	Deleted  []string
	Moved    []Move
	Errors   []FileError
}

// Service reconciles a project directory against the graph store and search
// index, grounded on the teacher's jobs.Worker (functional options, a
// per-item try/continue processing loop).
type Service struct {
	store     *graph.Store
	resolver  graph.LinkResolver
	search    *searchindex.Index
	refresher *DataviewRefresher
	logger    interfaces.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSearchIndex attaches a search index to keep in lockstep with the graph
// store. A nil index (the default) makes Sync skip search indexing.
func WithSearchIndex(index *searchindex.Index) Option {
	return func(s *Service) { s.search = index }
}

// WithLoggerProvider scopes the service's logger under the sync module name.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(s *Service) { s.logger = logging.SyncLogger(provider) }
}

// NewService builds a Service over store and resolver, together with its
// Dataview refresh manager (reachable via Refresher).
func NewService(store *graph.Store, resolver graph.LinkResolver, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refresher = NewDataviewRefresher(s, defaultDebounce)
	return s
}

// Refresher exposes the service's Dataview refresh manager, e.g. for the
// watcher to call OnFileChanged after a debounced filesystem event.
func (s *Service) Refresher() *DataviewRefresher {
	return s.refresher
}

// Sync reconciles root against the graph store's recorded state for
// projectID: deletes first, then moves, then new files, then modified files,
// tolerating per-file failures (spec.md §4.7). It does not refresh Dataview
// relations itself; call Refresher().ForceRefreshAll after a Sync that may
// have touched Dataview-bearing notes, or rely on the watcher's debounced
// RefreshImpacted for incremental updates.
func (s *Service) Sync(ctx context.Context, projectID, root string) (*Report, error) {
	scan, err := ScanDirectory(root)
	if err != nil {
		return nil, goerrors.Wrap(err, CategorySyncFailed, "sync: scan directory").WithTextCode(textCodeSyncFailed)
	}

	entities, err := s.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, goerrors.Wrap(err, CategorySyncFailed, "sync: list project entities").WithTextCode(textCodeSyncFailed)
	}
	dbRecords := GetDBState(entities)

	changes := FindChanges(scan, dbRecords)
	moves := DetectMoves(changes, dbRecords, scan)
	changes = excludeMoved(changes, moves)

	report := &Report{Moved: moves}

	for path, scanErr := range scan.Errors {
		report.Errors = append(report.Errors, FileError{Path: path, Err: scanErr})
	}

	for _, path := range changes.Deleted {
		if err := s.deleteFile(ctx, projectID, path); err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Err: err})
			continue
		}
		report.Deleted = append(report.Deleted, path)
	}

	for _, move := range moves {
		if err := s.moveFile(ctx, projectID, root, move); err != nil {
			report.Errors = append(report.Errors, FileError{Path: move.To, Err: err})
		}
	}

	for _, path := range changes.New {
		if err := s.syncFile(ctx, projectID, root, path); err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Err: err})
			continue
		}
		report.New = append(report.New, path)
	}

	for _, path := range changes.Modified {
		if err := s.syncFile(ctx, projectID, root, path); err != nil {
			report.Errors = append(report.Errors, FileError{Path: path, Err: err})
			continue
		}
		report.Modified = append(report.Modified, path)
	}

	if report.TotalSynced() > 0 {
		if _, err := s.store.ResolveUnresolvedRelations(ctx, projectID, s.resolver); err != nil {
			report.Errors = append(report.Errors, FileError{Path: "", Err: err})
		}
	}

	// A new, deleted or moved file can add, drop or relocate a
	// Dataview-bearing entity, so the refresher rebuilds its entity cache on
	// next use.
	if len(report.New)+len(report.Deleted)+len(report.Moved) > 0 {
		s.refresher.InvalidateCache()
	}

	s.logger.Info("sync.complete",
		"new", len(report.New), "modified", len(report.Modified),
		"deleted", len(report.Deleted), "moved", len(report.Moved), "errors", len(report.Errors))

	return report, nil
}

// TotalSynced reports how many files were actually written: new, modified,
// or moved. A sync pass with no writes skips the relation-resolution pass.
func (r *Report) TotalSynced() int {
	if r == nil {
		return 0
	}
	return len(r.New) + len(r.Modified) + len(r.Moved)
}

func excludeMoved(changes *Changes, moves []Move) *Changes {
	if len(moves) == 0 {
		return changes
	}
	fromSet := make(map[string]bool, len(moves))
	toSet := make(map[string]bool, len(moves))
	for _, m := range moves {
		fromSet[m.From] = true
		toSet[m.To] = true
	}
	return &Changes{
		New:      filterOut(changes.New, toSet),
		Modified: changes.Modified,
		Deleted:  filterOut(changes.Deleted, fromSet),
	}
}

func filterOut(paths []string, exclude map[string]bool) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !exclude[p] {
			out = append(out, p)
		}
	}
	return out
}

// syncFile reads, parses, and upserts one file's entity, child rows, and
// search index entry. Grounded on the teacher's markdown.Loader scan plus
// content.BunContentRepository's upsert-then-replace-children shape.
func (s *Service) syncFile(ctx context.Context, projectID, root, relPath string) error {
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: read file").WithTextCode(textCodeSyncFailed)
	}
	checksum := fsio.Checksum(data)

	parsed, err := markdown.Parse(data, relPath)
	if err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: parse file").WithTextCode(textCodeSyncFailed)
	}

	entity, _, err := s.store.UpsertEntityFromParse(ctx, projectID, parsed, relPath, checksum)
	if err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: upsert entity").WithTextCode(textCodeSyncFailed)
	}

	observations, relations, err := s.store.ReplaceChildRows(ctx, entity.ID, parsed.Observations, parsed.Relations)
	if err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: replace child rows").WithTextCode(textCodeSyncFailed)
	}

	return s.indexEntity(ctx, entity, parsed.Body, observations, relations)
}

func (s *Service) deleteFile(ctx context.Context, projectID, relPath string) error {
	entity, err := s.store.GetByFilePath(ctx, projectID, relPath)
	if err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: find entity to delete").WithTextCode(textCodeSyncFailed)
	}
	if err := s.store.DeleteEntity(ctx, entity.ID); err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: delete entity").WithTextCode(textCodeSyncFailed)
	}
	if s.search == nil {
		return nil
	}
	if err := s.search.DeleteByPermalink(ctx, projectID, entity.Permalink); err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: delete search row").WithTextCode(textCodeSyncFailed)
	}
	return nil
}

// moveFile renames the entity's file_path in place, then re-reads and
// re-parses the file at its new location so observations, relations, and the
// search row reflect any edits made as part of the move.
func (s *Service) moveFile(ctx context.Context, projectID, root string, move Move) error {
	if _, err := s.store.RenameFilePath(ctx, projectID, move.From, move.To); err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: rename file path").WithTextCode(textCodeSyncFailed)
	}
	return s.syncFile(ctx, projectID, root, move.To)
}

// composeSourceText builds the index row's searchable body per spec.md §4.5:
// title, permalink, and the item's category/relation_type/entity_type, followed
// by a content snippet. This keeps observations and relations retrievable by
// the context surrounding them rather than just their bare content.
func composeSourceText(title, permalink, label, snippet string) string {
	parts := make([]string, 0, 4)
	if title != "" {
		parts = append(parts, title)
	}
	if permalink != "" {
		parts = append(parts, permalink)
	}
	if label != "" {
		parts = append(parts, label)
	}
	if snippet != "" {
		parts = append(parts, snippet)
	}
	return strings.Join(parts, "\n")
}

// indexEntity mirrors one synced file into the search index: one row for the
// entity itself, plus one row per observation and per relation it owns
// (spec.md §3, §4.5), so each is retrievable by its own surrounding context
// rather than only as part of the entity's body.
func (s *Service) indexEntity(ctx context.Context, entity *graph.Entity, body string, observations []*graph.Observation, relations []*graph.Relation) error {
	if s.search == nil {
		return nil
	}

	// ReplaceChildRows assigns fresh ids to every observation and relation on
	// each sync, so the rows indexed under their previous ids would otherwise
	// be orphaned. Clearing everything under this permalink first keeps the
	// fan-out below idempotent across repeated syncs of the same file.
	if err := s.search.DeleteByPermalink(ctx, entity.ProjectID, entity.Permalink); err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: clear stale search rows").WithTextCode(textCodeSyncFailed)
	}

	entityText := composeSourceText(entity.Title, entity.Permalink, entity.EntityType, body)
	entityRow := searchindex.IndexedRow{
		ID:         entity.ID.String(),
		ProjectID:  entity.ProjectID,
		Type:       searchindex.ItemTypeEntity,
		Title:      entity.Title,
		Content:    entityText,
		Permalink:  entity.Permalink,
		FilePath:   entity.FilePath,
		EntityType: entity.EntityType,
		Metadata:   entity.EntityMetadata,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
	}
	if err := s.search.IndexRow(ctx, entityRow); err != nil {
		return goerrors.Wrap(err, CategorySyncFailed, "sync: index search row").WithTextCode(textCodeSyncFailed)
	}

	for _, obs := range observations {
		obsRow := searchindex.IndexedRow{
			ID:         obs.ID.String(),
			ProjectID:  entity.ProjectID,
			Type:       searchindex.ItemTypeObservation,
			Title:      entity.Title,
			Content:    composeSourceText(entity.Title, entity.Permalink, obs.Category, obs.Content),
			Permalink:  entity.Permalink,
			FilePath:   entity.FilePath,
			EntityType: entity.EntityType,
			EntityID:   entity.ID.String(),
			Category:   obs.Category,
			CreatedAt:  entity.CreatedAt,
			UpdatedAt:  entity.UpdatedAt,
		}
		if err := s.search.IndexRow(ctx, obsRow); err != nil {
			return goerrors.Wrap(err, CategorySyncFailed, "sync: index observation row").WithTextCode(textCodeSyncFailed)
		}
	}

	for _, rel := range relations {
		var toID string
		if rel.ToID != nil {
			toID = rel.ToID.String()
		}
		relRow := searchindex.IndexedRow{
			ID:           rel.ID.String(),
			ProjectID:    entity.ProjectID,
			Type:         searchindex.ItemTypeRelation,
			Title:        rel.ToName,
			Content:      composeSourceText(entity.Title, entity.Permalink, rel.RelationType, rel.Context),
			Permalink:    entity.Permalink,
			FilePath:     entity.FilePath,
			FromID:       rel.FromID.String(),
			ToID:         toID,
			RelationType: rel.RelationType,
			CreatedAt:    entity.CreatedAt,
			UpdatedAt:    entity.UpdatedAt,
		}
		if err := s.search.IndexRow(ctx, relRow); err != nil {
			return goerrors.Wrap(err, CategorySyncFailed, "sync: index relation row").WithTextCode(textCodeSyncFailed)
		}
	}

	if err := s.search.IndexChunks(ctx, entity.ProjectID, entity.ID.String(), entityText); err != nil {
		if !errors.Is(err, searchindex.ErrSemanticSearchDisabled) {
			return goerrors.Wrap(err, CategorySyncFailed, "sync: index vector chunks").WithTextCode(textCodeSyncFailed)
		}
	}
	return nil
}

// GetDBState reduces the project's entities to the (path, checksum) shape
// FindChanges compares against, skipping rows with no recorded checksum or
// file path, matching original_source's get_db_state.
func GetDBState(entities []*graph.Entity) map[string]FileState {
	out := make(map[string]FileState, len(entities))
	for _, e := range entities {
		if e.FilePath == "" || e.Checksum == "" {
			continue
		}
		out[e.FilePath] = FileState{Path: e.FilePath, Checksum: e.Checksum}
	}
	return out
}
