// Package memoryurl parses and validates the memory:// addressing scheme
// (spec.md §6): memory://[project/]path-or-permalink-or-pattern, where "*"
// matches any single path segment and a relation-traversal path takes the
// form source/rel-type/target.
package memoryurl

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	slug "github.com/goliatone/go-slug"
)

// Categories follow the teacher's go-repository-bun idiom of declaring
// package-scoped goerrors.Category constants.
const CategoryMemoryURLInvalid goerrors.Category = "memory_url_invalid"

const textCodeMemoryURLInvalid = "MEMORY_URL_INVALID"

const scheme = "memory://"

// ErrInvalidMemoryURL is the sentinel goerrors.Wrap carries for every
// memory:// URL that fails to parse.
var ErrInvalidMemoryURL = fmt.Errorf("memoryurl: invalid memory:// URL")

// Wildcard is the path segment that matches any single segment.
const Wildcard = "*"

// URL is a parsed memory:// address: an optional project scope plus a
// forward-slash-separated path, which may contain "*" wildcard segments.
type URL struct {
	Project  string
	Path     string
	Segments []string
}

// ParseError reports why a memory:// string failed to parse, with the
// offending raw value attached for error messages.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("memoryurl: %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidMemoryURL }

// Parse decodes a memory:// URL. The scheme prefix is required; the
// remainder must use forward slashes only, must not contain a double slash
// or whitespace, and every non-wildcard segment must be a valid slug.
// Parse does not split off a project scope: the whole remainder becomes
// Path and Project is left empty (WithProject sets it).
func Parse(raw string) (*URL, error) {
	if !strings.HasPrefix(raw, scheme) {
		return nil, wrapParseError(raw, fmt.Sprintf("must start with %q", scheme))
	}
	rest := strings.TrimPrefix(raw, scheme)
	if rest == "" {
		return nil, wrapParseError(raw, "empty path")
	}
	if strings.ContainsAny(rest, " \t\n\r") {
		return nil, wrapParseError(raw, "must not contain whitespace")
	}
	if strings.Contains(rest, "//") {
		return nil, wrapParseError(raw, "must not contain a double slash")
	}
	if strings.HasPrefix(rest, "/") || strings.HasSuffix(rest, "/") {
		return nil, wrapParseError(raw, "must not start or end with a slash")
	}

	segments := strings.Split(rest, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, wrapParseError(raw, "empty path segment")
		}
		if seg == Wildcard {
			continue
		}
		if !slug.IsValid(seg) {
			return nil, wrapParseError(raw, fmt.Sprintf("invalid path segment %q", seg))
		}
	}

	return &URL{
		Path:     rest,
		Segments: segments,
	}, nil
}

// WithProject parses a memory:// URL scoped to an explicit project,
// treating the raw string as project-relative (no project segment in the
// path itself).
func WithProject(project, raw string) (*URL, error) {
	u, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	u.Project = project
	return u, nil
}

// IsWildcardPattern reports whether any segment of the URL is a "*"
// wildcard, meaning the address names a pattern rather than a single path.
func (u *URL) IsWildcardPattern() bool {
	for _, seg := range u.Segments {
		if seg == Wildcard {
			return true
		}
	}
	return false
}

// Matches reports whether path (a forward-slash-separated note path or
// permalink, without the memory:// prefix) satisfies u's pattern: equal
// segment count, with every non-wildcard segment matching literally.
func (u *URL) Matches(path string) bool {
	candidate := strings.Split(path, "/")
	if len(candidate) != len(u.Segments) {
		return false
	}
	for i, seg := range u.Segments {
		if seg == Wildcard {
			continue
		}
		if seg != candidate[i] {
			return false
		}
	}
	return true
}

// RelationTraversal is a parsed source/rel-type/target memory:// path: a
// specific entity, a relation type, and a target pattern (often "*" to
// enumerate everything linked from source by that relation).
type RelationTraversal struct {
	Source       string
	RelationType string
	Target       string
}

// AsRelationTraversal interprets a 3-segment URL as a relation-traversal
// path (spec.md's source/rel-type/target form). It returns false if the
// URL doesn't have exactly 3 segments.
func (u *URL) AsRelationTraversal() (RelationTraversal, bool) {
	if len(u.Segments) != 3 {
		return RelationTraversal{}, false
	}
	return RelationTraversal{
		Source:       u.Segments[0],
		RelationType: normalizeRelationType(u.Segments[1]),
		Target:       u.Segments[2],
	}, true
}

// normalizeRelationType treats hyphen and underscore as equivalent in a
// relation-type path segment, matching spec.md's "hyphen/underscore
// equivalent" note on the relation-traversal form.
func normalizeRelationType(relType string) string {
	return strings.ReplaceAll(relType, "-", "_")
}

func wrapParseError(raw, reason string) error {
	return goerrors.Wrap(&ParseError{Raw: raw, Reason: reason}, CategoryMemoryURLInvalid, "memoryurl: parse failed").
		WithTextCode(textCodeMemoryURLInvalid)
}
