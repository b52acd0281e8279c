// Package schema implements the engine's Picoschema engine (spec.md §4.9):
// parsing a schema note's frontmatter into a typed definition, inferring a
// schema from usage, validating notes against a declared schema, and
// diffing declared schema against current usage. Grounded on
// original_source's basic_memory/schema/{parser,inference}.py, with the
// validator and diff modules (present only as tests in original_source)
// reconstructed to match their ported test expectations, and the validation
// backend reusing the teacher's internal/validation/schema.go compilation
// pattern (santhosh-tekuri/jsonschema/v5).
package schema

// SchemaField is a single field in a Picoschema definition: either an
// observation category or a relation type on the entity type the schema
// describes.
type SchemaField struct {
	Name        string
	Type        string // string, integer, number, boolean, any, enum, object, or an EntityName
	Required    bool
	IsArray     bool
	IsEnum      bool
	EnumValues  []string
	Description string
	IsEntityRef bool // type is a capitalized entity name, not a scalar
	Children    []SchemaField
}

// SchemaDefinition is a complete schema parsed from a schema note's
// frontmatter.
type SchemaDefinition struct {
	Entity           string
	Version          int
	Fields           []SchemaField
	ValidationMode   string // "warn" (default) | "strict" | "off"
	FrontmatterFields []SchemaField
}

const (
	ModeWarn   = "warn"
	ModeStrict = "strict"
	ModeOff    = "off"
)

// scalarTypes are the Picoschema built-in types that are never treated as
// entity references, regardless of capitalization.
var scalarTypes = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
	"boolean": true,
	"any":     true,
}
