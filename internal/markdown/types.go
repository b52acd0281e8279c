// Package markdown implements the engine's Markdown parser: frontmatter
// extraction, title/entity-type/permalink derivation, and observation and
// relation scanning. Grounded on the teacher's internal/markdown package
// (adrg/frontmatter for the YAML envelope, yuin/goldmark for structural
// parsing) generalized from a fixed CMS field set to the open-ended
// knowledge-graph note schema.
package markdown

// Observation is a single structured fact extracted from a note body, in
// the form "- [CATEGORY] content #tag (context)".
type Observation struct {
	Category string
	Content  string
	Tags     []string
	Context  string
}

// Relation is a directed edge to another note, named either explicitly
// ("- relation_type [[TARGET]] (context)") or discovered implicitly from an
// inline "[[TARGET]]" wikilink (relation type "links_to").
type Relation struct {
	RelationType string
	Target       string
	Context      string
}

// ParsedNote is the pure value produced by Parse: no side effects, no
// database access, just the structured view of one Markdown file.
type ParsedNote struct {
	FrontMatter  map[string]any
	Body         string
	Observations []Observation
	Relations    []Relation
	Tags         []string
	Title        string
	EntityType   string
	Permalink    string
}
