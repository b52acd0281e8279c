package graph

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-memory/internal/markdown"
)

// LinkResolver resolves a wikilink target string to an entity ID within a
// project, matching internal/resolver's contract (spec.md §4.4). Declared
// here, rather than imported, to avoid a dependency cycle: resolver will
// depend on graph's read methods, not the reverse.
type LinkResolver interface {
	Resolve(ctx context.Context, projectID, text string) (*uuid.UUID, error)
}

// Store is the graph store's typed-repository facade (spec.md §4.3),
// exposing CRUD plus the non-trivial operations: upsert_entity_from_parse,
// replace_child_rows, resolve_unresolved_relations, delete_entity. Grounded
// on the teacher's BunContentRepository (RunInTx-wrapped multi-table
// writes) and BunEnvironmentRepository (simple typed-repository CRUD).
type Store struct {
	db           *bun.DB
	entities     repository.Repository[*Entity]
	observations repository.Repository[*Observation]
	relations    repository.Repository[*Relation]
}

// NewStore constructs a Store. db must already have the entities,
// observations, and relations tables created (see Migrate).
func NewStore(db *bun.DB) *Store {
	return &Store{
		db:           db,
		entities:     NewEntityRepository(db),
		observations: NewObservationRepository(db),
		relations:    NewRelationRepository(db),
	}
}

// NewStoreWithCache constructs a Store whose entity repository is wrapped in
// a read-through cache, matching the teacher's
// NewBunContentRepositoryWithCache idiom. This is the repository resolver's
// ListByProject calls read through most heavily (spec.md §4.4), so only the
// entity repository is cached; observations and relations are read via
// ReplaceChildRows in the same request that writes them and gain nothing
// from caching.
func NewStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *Store {
	entities := NewEntityRepository(db)
	if cacheService != nil && keySerializer != nil {
		entities = repositorycache.New(entities, cacheService, keySerializer)
	}
	return &Store{
		db:           db,
		entities:     entities,
		observations: NewObservationRepository(db),
		relations:    NewRelationRepository(db),
	}
}

// DB exposes the underlying bun.DB for callers (tests, the sync engine)
// that need raw queries beyond the Store's typed operations.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Migrate creates the graph store's tables if they do not already exist,
// matching the teacher's test-time `bunDB.NewCreateTable().Model(...)
// .IfNotExists().Exec(ctx)` idiom, promoted here to a reusable method since
// there is no CMS-style external migrations runner in this domain.
func (s *Store) Migrate(ctx context.Context) error {
	models := []any{
		(*Entity)(nil),
		(*Observation)(nil),
		(*Relation)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("graph: create table for %T: %w", model, err)
		}
	}
	return nil
}

// GetByID returns an entity by primary key.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Entity, error) {
	record, err := s.entities.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "entity", id.String())
	}
	return record, nil
}

// GetByFilePath returns the entity at (projectID, filePath), or a
// NotFoundError if none exists yet.
func (s *Store) GetByFilePath(ctx context.Context, projectID, filePath string) (*Entity, error) {
	records, _, err := s.entities.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.project_id = ?", projectID).
				Where("?TableAlias.file_path = ?", filePath)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "entity", Key: filePath}
	}
	return records[0], nil
}

// ListByProject returns every entity in a project, ordered by file path.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]*Entity, error) {
	records, _, err := s.entities.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.project_id = ?", projectID).
				OrderExpr("?TableAlias.file_path ASC")
		}),
	)
	return records, err
}

// RenameFilePath updates an entity's file_path after the sync engine detects
// a file move (a deleted path and a new path sharing the same checksum in
// one scan), preserving the entity's id, observations, and relations rather
// than deleting and recreating it.
func (s *Store) RenameFilePath(ctx context.Context, projectID, oldFilePath, newFilePath string) (*Entity, error) {
	entity, err := s.GetByFilePath(ctx, projectID, oldFilePath)
	if err != nil {
		return nil, err
	}
	entity.FilePath = newFilePath
	entity.UpdatedAt = time.Now().UTC()
	updated, err := s.entities.Update(ctx, entity,
		repository.UpdateByID(entity.ID.String()),
		repository.UpdateColumns("file_path", "updated_at"),
	)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpsertEntityFromParse enforces (project, file_path) and (project,
// permalink) uniqueness (spec.md §4.3): a file_path collision updates the
// existing row; a permalink collision with a *different* file_path
// disambiguates the new file's permalink by suffixing "-2", "-3", ….
func (s *Store) UpsertEntityFromParse(ctx context.Context, projectID string, parsed *markdown.ParsedNote, filePath, checksum string) (*Entity, bool, error) {
	now := time.Now().UTC()

	existingByPath, err := s.GetByFilePath(ctx, projectID, filePath)
	if err != nil {
		if _, isNotFound := err.(*NotFoundError); !isNotFound {
			return nil, false, err
		}
		existingByPath = nil
	}

	permalink := parsed.Permalink
	if existingByPath == nil {
		permalink, err = s.disambiguatePermalink(ctx, projectID, permalink, "")
		if err != nil {
			return nil, false, err
		}
	}

	entity := &Entity{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Title:          parsed.Title,
		EntityType:     parsed.EntityType,
		ContentType:    "text/markdown",
		FilePath:       filePath,
		Permalink:      permalink,
		Checksum:       checksum,
		EntityMetadata: stripReservedFrontMatterKeys(parsed.FrontMatter),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if existingByPath == nil {
		created, err := s.entities.Create(ctx, entity)
		if err != nil {
			return nil, false, err
		}
		return created, true, nil
	}

	entity.ID = existingByPath.ID
	entity.CreatedAt = existingByPath.CreatedAt
	if existingByPath.Permalink != permalink {
		// Take the new permalink, re-deriving uniqueness against rows other
		// than this entity and suffixing it if another file already holds it.
		entity.Permalink, err = s.disambiguatePermalink(ctx, projectID, permalink, existingByPath.FilePath)
		if err != nil {
			return nil, false, err
		}
	}

	updated, err := s.entities.Update(ctx, entity,
		repository.UpdateByID(entity.ID.String()),
		repository.UpdateColumns(
			"title",
			"entity_type",
			"content_type",
			"permalink",
			"checksum",
			"entity_metadata",
			"updated_at",
		),
	)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

// reservedFrontMatterKeys are promoted to dedicated Entity columns
// (EntityType, Permalink) and so are excluded from entity_metadata
// (spec.md §3: "entity_metadata — the YAML frontmatter dict minus reserved
// keys").
var reservedFrontMatterKeys = map[string]bool{
	"type":      true,
	"permalink": true,
}

func stripReservedFrontMatterKeys(fm map[string]any) map[string]any {
	out := make(map[string]any, len(fm))
	for k, v := range fm {
		if reservedFrontMatterKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}

// disambiguatePermalink returns permalink unchanged if it is free within the
// project (ignoring the row whose file_path is excludeFilePath), otherwise
// suffixes "-2", "-3", … until a free permalink is found.
func (s *Store) disambiguatePermalink(ctx context.Context, projectID, permalink, excludeFilePath string) (string, error) {
	base := permalink
	for suffix := 1; ; suffix++ {
		candidate := base
		if suffix > 1 {
			candidate = fmt.Sprintf("%s-%d", base, suffix)
		}

		records, _, err := s.entities.List(ctx,
			repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
				q = q.Where("?TableAlias.project_id = ?", projectID).
					Where("?TableAlias.permalink = ?", candidate)
				if excludeFilePath != "" {
					q = q.Where("?TableAlias.file_path != ?", excludeFilePath)
				}
				return q
			}),
			repository.SelectPaginate(1, 0),
		)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return candidate, nil
		}
	}
}

// ReplaceChildRows atomically deletes all observations and all non-dataview
// relations whose from_id = entityID, then inserts the new ones, returning
// the inserted rows (with their generated ids) so callers can mirror them
// into the search index. Derived dataview_link relations are preserved,
// since they are owned by the Dataview refresh path (spec.md §4.3).
func (s *Store) ReplaceChildRows(ctx context.Context, entityID uuid.UUID, observations []markdown.Observation, relations []markdown.Relation) ([]*Observation, []*Relation, error) {
	var insertedObservations []*Observation
	var insertedRelations []*Relation

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Observation)(nil)).
			Where("?TableAlias.entity_id = ?", entityID).
			Exec(ctx); err != nil {
			return fmt.Errorf("graph: delete observations: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*Relation)(nil)).
			Where("?TableAlias.from_id = ?", entityID).
			Where("?TableAlias.relation_type != ?", DataviewRelationType).
			Exec(ctx); err != nil {
			return fmt.Errorf("graph: delete relations: %w", err)
		}

		if len(observations) > 0 {
			toInsert := make([]*Observation, 0, len(observations))
			for _, obs := range observations {
				toInsert = append(toInsert, &Observation{
					ID:       uuid.New(),
					EntityID: entityID,
					Category: obs.Category,
					Content:  obs.Content,
					Tags:     obs.Tags,
					Context:  obs.Context,
				})
			}
			if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
				return fmt.Errorf("graph: insert observations: %w", err)
			}
			insertedObservations = toInsert
		}

		if len(relations) > 0 {
			toInsert := make([]*Relation, 0, len(relations))
			for _, rel := range relations {
				toInsert = append(toInsert, &Relation{
					ID:           uuid.New(),
					FromID:       entityID,
					ToName:       rel.Target,
					RelationType: rel.RelationType,
					Context:      rel.Context,
				})
			}
			if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
				return fmt.Errorf("graph: insert relations: %w", err)
			}
			insertedRelations = toInsert
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return insertedObservations, insertedRelations, nil
}

// ReplaceDataviewRelations atomically replaces entityID's dataview_link
// relations with one row per target, leaving every other relation type
// untouched. This is the write side of ReplaceChildRows's preservation rule:
// only the Dataview refresh path owns these rows (spec.md §4.3, §4.7).
func (s *Store) ReplaceDataviewRelations(ctx context.Context, entityID uuid.UUID, targets []string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Relation)(nil)).
			Where("?TableAlias.from_id = ?", entityID).
			Where("?TableAlias.relation_type = ?", DataviewRelationType).
			Exec(ctx); err != nil {
			return fmt.Errorf("graph: delete dataview relations: %w", err)
		}

		if len(targets) == 0 {
			return nil
		}

		toInsert := make([]*Relation, 0, len(targets))
		for _, target := range targets {
			toInsert = append(toInsert, &Relation{
				ID:           uuid.New(),
				FromID:       entityID,
				ToName:       target,
				RelationType: DataviewRelationType,
			})
		}
		if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
			return fmt.Errorf("graph: insert dataview relations: %w", err)
		}
		return nil
	})
}

// ResolveUnresolvedRelations runs the link resolver over every relation
// with to_id IS NULL in the project and updates matches in place (spec.md
// §4.3). Returns the count of relations newly resolved.
func (s *Store) ResolveUnresolvedRelations(ctx context.Context, projectID string, resolver LinkResolver) (int, error) {
	var unresolved []*Relation
	err := s.db.NewSelect().
		Model(&unresolved).
		Join("JOIN entities AS e ON e.id = ?TableAlias.from_id").
		Where("e.project_id = ?", projectID).
		Where("?TableAlias.to_id IS NULL").
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("graph: list unresolved relations: %w", err)
	}

	resolvedCount := 0
	for _, rel := range unresolved {
		toID, err := resolver.Resolve(ctx, projectID, rel.ToName)
		if err != nil {
			return resolvedCount, fmt.Errorf("graph: resolve %q: %w", rel.ToName, err)
		}
		if toID == nil {
			continue
		}
		rel.ToID = toID
		if _, err := s.relations.Update(ctx, rel,
			repository.UpdateByID(rel.ID.String()),
			repository.UpdateColumns("to_id"),
		); err != nil {
			return resolvedCount, fmt.Errorf("graph: update resolved relation: %w", err)
		}
		resolvedCount++
	}
	return resolvedCount, nil
}

// DeleteEntity cascades to the entity's observations and outgoing
// relations. Incoming relations are not cascaded — instead their to_id is
// nulled while to_name is retained, so that re-creating the file re-resolves
// them (spec.md §4.3).
func (s *Store) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Observation)(nil)).
			Where("?TableAlias.entity_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("graph: delete observations: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*Relation)(nil)).
			Where("?TableAlias.from_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("graph: delete outgoing relations: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*Relation)(nil)).
			Set("to_id = NULL").
			Where("?TableAlias.to_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("graph: null incoming relations: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*Entity)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("graph: delete entity: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("graph: delete entity rows affected: %w", err)
		}
		if affected == 0 {
			return &NotFoundError{Resource: "entity", Key: id.String()}
		}
		return nil
	})
}
