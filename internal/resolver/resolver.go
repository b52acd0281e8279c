// Package resolver maps wikilink targets (title, path, or permalink,
// possibly with wildcards) to entity ids for the graph store.
package resolver

import (
	"context"
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/goliatone/go-memory/internal/graph"
)

// Resolver implements graph.LinkResolver against a Store's entity table.
type Resolver struct {
	store *graph.Store
}

// New builds a Resolver backed by store.
func New(store *graph.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps text to an entity id, or nil if no unambiguous match exists.
// It never returns an error for an unresolved lookup; the returned error is
// reserved for failures reading the entity table itself.
func (r *Resolver) Resolve(ctx context.Context, projectID, text string) (*uuid.UUID, error) {
	idx, err := r.buildIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return idx.resolve(text), nil
}

// ResolveMany resolves every text in one index pass instead of one query per text.
func (r *Resolver) ResolveMany(ctx context.Context, projectID string, texts []string) (map[string]*uuid.UUID, error) {
	idx, err := r.buildIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*uuid.UUID, len(texts))
	for _, text := range texts {
		out[text] = idx.resolve(text)
	}
	return out, nil
}

type entityIndex struct {
	byPermalink map[string]uuid.UUID
	byTitle     map[string][]uuid.UUID
	byPath      map[string]uuid.UUID
	entities    []*graph.Entity
}

func (r *Resolver) buildIndex(ctx context.Context, projectID string) (*entityIndex, error) {
	entities, err := r.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	idx := &entityIndex{
		byPermalink: make(map[string]uuid.UUID, len(entities)),
		byTitle:     make(map[string][]uuid.UUID, len(entities)),
		byPath:      make(map[string]uuid.UUID, len(entities)),
		entities:    entities,
	}
	for _, e := range entities {
		idx.byPermalink[e.Permalink] = e.ID
		idx.byTitle[e.Title] = append(idx.byTitle[e.Title], e.ID)
		idx.byPath[e.FilePath] = e.ID
	}
	return idx, nil
}

// resolve tries the permalink/title/path/wildcard strategies against text,
// then retries all of them with hyphen/underscore swapped.
func (idx *entityIndex) resolve(text string) *uuid.UUID {
	if text == "" {
		return nil
	}
	if id, matched := idx.tryCandidate(text); matched {
		return id
	}
	normalized := swapHyphenUnderscore(text)
	if normalized != text {
		if id, matched := idx.tryCandidate(normalized); matched {
			return id
		}
	}
	return nil
}

// tryCandidate runs strategies 1-4 in order. matched is true once a strategy
// claims the candidate, even when the claim resolves to an ambiguous nil, so
// the caller does not fall through to a weaker strategy on a stale basis.
func (idx *entityIndex) tryCandidate(candidate string) (id *uuid.UUID, matched bool) {
	if permalinkID, ok := idx.byPermalink[candidate]; ok {
		return &permalinkID, true
	}

	if titleIDs, ok := idx.byTitle[candidate]; ok {
		if len(titleIDs) == 1 {
			return &titleIDs[0], true
		}
		return nil, true
	}

	for _, pathVariant := range pathVariants(candidate) {
		if pathID, ok := idx.byPath[pathVariant]; ok {
			return &pathID, true
		}
	}

	if strings.Contains(candidate, "*") {
		return idx.wildcardMatch(candidate), true
	}

	return nil, false
}

func (idx *entityIndex) wildcardMatch(pattern string) *uuid.UUID {
	compiled, err := glob.Compile(pattern)
	if err != nil {
		return nil
	}

	var match *uuid.UUID
	for _, e := range idx.entities {
		if !compiled.Match(e.Permalink) {
			continue
		}
		if match != nil {
			return nil
		}
		id := e.ID
		match = &id
	}
	return match
}

func pathVariants(candidate string) []string {
	if strings.HasSuffix(candidate, ".md") {
		return []string{candidate, strings.TrimSuffix(candidate, ".md")}
	}
	return []string{candidate, candidate + ".md"}
}

func swapHyphenUnderscore(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-':
			return '_'
		case '_':
			return '-'
		default:
			return r
		}
	}, s)
}
