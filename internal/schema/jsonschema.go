package schema

import (
	"bytes"
	"encoding/json"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationIssue captures a single JSON-Schema validation failure location
// and message, mirroring the teacher's validation package shape.
type ValidationIssue struct {
	Location string
	Message  string
}

// ToJSONSchema compiles a SchemaDefinition's frontmatter fields into a JSON
// Schema document, for validating the structural (non-observation,
// non-relation) frontmatter keys a schema note declares under
// settings.frontmatter.
func ToJSONSchema(def *SchemaDefinition) map[string]any {
	properties, required := fieldsToProperties(def.FrontmatterFields)
	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldsToProperties(fields []SchemaField) (map[string]any, []string) {
	properties := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		properties[f.Name] = fieldToJSONSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return properties, required
}

func fieldToJSONSchema(f SchemaField) map[string]any {
	var prop map[string]any

	switch {
	case f.IsEnum:
		values := make([]any, len(f.EnumValues))
		for i, v := range f.EnumValues {
			values[i] = v
		}
		prop = map[string]any{"enum": values}
	case f.Type == "object":
		childProps, childRequired := fieldsToProperties(f.Children)
		prop = map[string]any{
			"type":       "object",
			"properties": childProps,
		}
		if len(childRequired) > 0 {
			prop["required"] = childRequired
		}
	default:
		prop = map[string]any{"type": picoscalarToJSONType(f.Type)}
	}

	if f.IsArray {
		return map[string]any{"type": "array", "items": prop}
	}
	return prop
}

// picoscalarToJSONType maps a Picoschema scalar type to its JSON Schema
// equivalent. Entity-reference types (capitalized, non-scalar) serialize as
// plain strings in frontmatter, the same as enum values do.
func picoscalarToJSONType(typeStr string) string {
	switch typeStr {
	case "string", "integer", "number", "boolean":
		return typeStr
	case "any":
		return ""
	default:
		return "string"
	}
}

// CompileFrontmatterSchema compiles def's frontmatter fields into a usable
// jsonschema.Schema, the same santhosh-tekuri/jsonschema/v5 Draft2020
// compilation path the teacher's validation package uses for payload
// schemas.
func CompileFrontmatterSchema(def *SchemaDefinition) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(ToJSONSchema(def))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// ValidateFrontmatter validates a note's raw frontmatter map against def's
// declared frontmatter fields and returns any structural issues found.
func ValidateFrontmatter(def *SchemaDefinition, frontmatter map[string]any) ([]ValidationIssue, error) {
	compiled, err := CompileFrontmatterSchema(def)
	if err != nil {
		return nil, err
	}
	if frontmatter == nil {
		frontmatter = map[string]any{}
	}
	if err := compiled.Validate(frontmatter); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return collectValidationIssues(validationErr), nil
		}
		return []ValidationIssue{{Message: err.Error()}}, nil
	}
	return nil, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
