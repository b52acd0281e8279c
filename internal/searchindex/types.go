// Package searchindex implements the FTS5 full-text index plus an optional
// vector/hybrid retrieval layer over graph rows.
package searchindex

import "time"

// ItemType discriminates what kind of graph row a search_index entry mirrors.
type ItemType string

const (
	ItemTypeEntity      ItemType = "entity"
	ItemTypeObservation ItemType = "observation"
	ItemTypeRelation    ItemType = "relation"
)

// Mode selects which retrieval strategy Search runs.
type Mode string

const (
	ModeFTS    Mode = "fts"
	ModeVector Mode = "vector"
	ModeHybrid Mode = "hybrid"
)

// IndexedRow mirrors one graph row (entity, observation, or relation) in the
// search index, matching the column set of search_index.
type IndexedRow struct {
	ID           string
	ProjectID    string
	Type         ItemType
	Title        string
	Content      string
	Permalink    string
	FilePath     string
	EntityType   string
	Metadata     map[string]any
	EntityID     string
	Category     string
	FromID       string
	ToID         string
	RelationType string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Score is populated on rows returned from Search; it is ignored on IndexRow.
	Score float64
}

// Filters narrows a Search call beyond the free-text query.
type Filters struct {
	Types       []ItemType
	EntityTypes []string
	AfterDate   *time.Time
}

// HybridWeights controls how ModeHybrid fuses FTS rank-reciprocal and cosine
// similarity scores.
type HybridWeights struct {
	FTS    float64
	Vector float64
}

// DefaultHybridWeights gives FTS and vector scores equal weight, per spec.md §4.5.
var DefaultHybridWeights = HybridWeights{FTS: 0.5, Vector: 0.5}

// SearchOptions configures a Search call.
type SearchOptions struct {
	Mode    Mode
	Filters Filters
	Limit   int
	Offset  int
	Weights *HybridWeights
}
