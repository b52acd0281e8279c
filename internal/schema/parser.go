package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// CategorySchemaInvalid groups errors raised while parsing a schema note's
// frontmatter into a SchemaDefinition.
const CategorySchemaInvalid goerrors.Category = "schema_invalid"

const textCodeSchemaInvalid = "SCHEMA_INVALID"

// ErrMissingEntity and ErrMissingSchema are the sentinels
// goerrors.Wrap carries for the two ways a schema note's frontmatter can
// fail to parse.
var (
	ErrMissingEntity = errors.New("schema: frontmatter missing required 'entity' field")
	ErrMissingSchema = errors.New("schema: frontmatter missing required 'schema' object")
)

// ParsePicoschema parses a Picoschema YAML dict (already decoded into a
// plain map by markdown.ParseFrontMatter) into a list of SchemaField.
// Go maps don't preserve declaration order the way a Python dict does, so
// fields are returned sorted by name for deterministic output rather than
// in frontmatter order.
func ParsePicoschema(fields map[string]any) []SchemaField {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]SchemaField, 0, len(keys))
	for _, key := range keys {
		out = append(out, parseField(key, fields[key]))
	}
	return out
}

func parseField(key string, value any) SchemaField {
	name, required, isArray, isEnum, isObject := parseFieldKey(key)

	if isEnum {
		return SchemaField{
			Name:       name,
			Type:       "enum",
			Required:   required,
			IsEnum:     true,
			EnumValues: toStringSlice(value),
		}
	}

	if nested, ok := value.(map[string]any); ok && (isObject || !isEnum) {
		return SchemaField{
			Name:     name,
			Type:     "object",
			Required: required,
			Children: ParsePicoschema(nested),
		}
	}

	typeStr, description := parseTypeAndDescription(fmt.Sprint(value))
	return SchemaField{
		Name:        name,
		Type:        typeStr,
		Required:    required,
		IsArray:     isArray,
		Description: description,
		IsEntityRef: isEntityRefType(typeStr),
	}
}

// parseFieldKey splits a Picoschema field key of the form
// name[?][(array|enum|object)] into its name and modifier components.
func parseFieldKey(key string) (name string, required, isArray, isEnum, isObject bool) {
	required = true

	switch {
	case strings.HasSuffix(key, "(array)"):
		isArray = true
		key = strings.TrimSuffix(key, "(array)")
	case strings.HasSuffix(key, "(enum)"):
		isEnum = true
		key = strings.TrimSuffix(key, "(enum)")
	case strings.HasSuffix(key, "(object)"):
		isObject = true
		key = strings.TrimSuffix(key, "(object)")
	}

	if strings.HasSuffix(key, "?") {
		required = false
		key = strings.TrimSuffix(key, "?")
	}

	return key, required, isArray, isEnum, isObject
}

// parseTypeAndDescription splits "Type, description text" into its type and
// optional description.
func parseTypeAndDescription(value string) (typeStr string, description string) {
	if idx := strings.Index(value, ","); idx >= 0 {
		return strings.TrimSpace(value[:idx]), strings.TrimSpace(value[idx+1:])
	}
	return strings.TrimSpace(value), ""
}

// isEntityRefType reports whether a type string names an entity reference:
// a capitalized identifier that isn't one of the built-in scalar types.
func isEntityRefType(typeStr string) bool {
	if scalarTypes[typeStr] {
		return false
	}
	if typeStr == "" {
		return false
	}
	first := typeStr[0]
	return first >= 'A' && first <= 'Z'
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	default:
		return []string{fmt.Sprint(value)}
	}
}

// ParseSchemaNote parses a full schema note's frontmatter (entity_type:
// "schema") into a SchemaDefinition. frontmatter must declare "entity" and
// "schema"; "version" defaults to 1 and "settings.validation" defaults to
// ModeWarn.
func ParseSchemaNote(frontmatter map[string]any) (*SchemaDefinition, error) {
	entity, _ := frontmatter["entity"].(string)
	if entity == "" {
		return nil, goerrors.Wrap(ErrMissingEntity, CategorySchemaInvalid, "schema: frontmatter missing required 'entity' field").
			WithTextCode(textCodeSchemaInvalid)
	}

	schemaDict, ok := frontmatter["schema"].(map[string]any)
	if !ok || len(schemaDict) == 0 {
		return nil, goerrors.Wrap(ErrMissingSchema, CategorySchemaInvalid, "schema: frontmatter missing required 'schema' object").
			WithTextCode(textCodeSchemaInvalid)
	}

	version := 1
	if v, ok := frontmatter["version"]; ok {
		version = toInt(v, version)
	}

	validationMode := ModeWarn
	var frontmatterFields []SchemaField
	if settings, ok := frontmatter["settings"].(map[string]any); ok {
		if mode, ok := settings["validation"].(string); ok && mode != "" {
			validationMode = mode
		}
		if fm, ok := settings["frontmatter"].(map[string]any); ok {
			frontmatterFields = ParsePicoschema(fm)
		}
	}

	return &SchemaDefinition{
		Entity:            entity,
		Version:           version,
		Fields:            ParsePicoschema(schemaDict),
		ValidationMode:    validationMode,
		FrontmatterFields: frontmatterFields,
	}, nil
}

func toInt(value any, fallback int) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
