// Package graph implements the engine's graph store: the transactional,
// per-project record keeper over entities, observations, and relations
// (spec.md §3, §4.3). Grounded on the teacher's internal/content and
// internal/environments bun-backed repositories, generalized from CMS
// content records to knowledge-graph entities.
package graph

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entity is one Markdown file on disk (spec.md §3 "Entity").
type Entity struct {
	bun.BaseModel `bun:"table:entities,alias:e"`

	ID             uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	ProjectID      string         `bun:"project_id,notnull" json:"project_id"`
	Title          string         `bun:"title,notnull" json:"title"`
	EntityType     string         `bun:"entity_type,notnull" json:"entity_type"`
	ContentType    string         `bun:"content_type,notnull,default:'text/markdown'" json:"content_type"`
	FilePath       string         `bun:"file_path,notnull" json:"file_path"`
	Permalink      string         `bun:"permalink,notnull" json:"permalink"`
	Checksum       string         `bun:"checksum,notnull" json:"checksum"`
	EntityMetadata map[string]any `bun:"entity_metadata,type:jsonb" json:"entity_metadata"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Observation is a typed bullet attached to an entity (spec.md §3
// "Observation").
type Observation struct {
	bun.BaseModel `bun:"table:observations,alias:o"`

	ID       uuid.UUID `bun:",pk,type:uuid" json:"id"`
	EntityID uuid.UUID `bun:"entity_id,notnull,type:uuid" json:"entity_id"`
	Category string    `bun:"category,notnull" json:"category"`
	Content  string    `bun:"content,notnull" json:"content"`
	Tags     []string  `bun:"tags,type:jsonb" json:"tags"`
	Context  string    `bun:"context" json:"context,omitempty"`
}

// Relation is a directed, typed edge between entities (spec.md §3
// "Relation"). ToID is nullable while the target is unresolved; ToName
// retains the original wikilink text so the resolver can retry later.
type Relation struct {
	bun.BaseModel `bun:"table:relations,alias:r"`

	ID           uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	FromID       uuid.UUID  `bun:"from_id,notnull,type:uuid" json:"from_id"`
	ToID         *uuid.UUID `bun:"to_id,type:uuid" json:"to_id,omitempty"`
	ToName       string     `bun:"to_name,notnull" json:"to_name"`
	RelationType string     `bun:"relation_type,notnull" json:"relation_type"`
	Context      string     `bun:"context" json:"context,omitempty"`
}

// DataviewRelationType marks relations materialized by the Dataview refresh
// path (spec.md §4.3): these survive replace_child_rows because they are
// owned by the sync engine's refresh manager, not the authoring path.
const DataviewRelationType = "dataview_link"

// IsUnresolved reports whether the relation still only has a wikilink text
// target, pending resolution.
func (r *Relation) IsUnresolved() bool {
	return r.ToID == nil
}
