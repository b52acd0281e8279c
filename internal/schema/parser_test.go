package schema_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-memory/internal/schema"
)

func TestParsePicoschemaScalarAndOptional(t *testing.T) {
	fields := schema.ParsePicoschema(map[string]any{
		"name":    "string, the person's full name",
		"bio?":    "string",
		"age(array)": "integer",
	})

	byName := map[string]schema.SchemaField{}
	for _, f := range fields {
		byName[f.Name] = f
	}

	name := byName["name"]
	if name.Type != "string" || !name.Required || name.Description != "the person's full name" {
		t.Fatalf("unexpected name field: %+v", name)
	}

	bio := byName["bio"]
	if bio.Required {
		t.Fatalf("expected bio to be optional, got %+v", bio)
	}

	age := byName["age"]
	if !age.IsArray {
		t.Fatalf("expected age to be an array field, got %+v", age)
	}
}

func TestParsePicoschemaEnumField(t *testing.T) {
	fields := schema.ParsePicoschema(map[string]any{
		"status(enum)": []any{"active", "inactive"},
	})
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	f := fields[0]
	if !f.IsEnum || len(f.EnumValues) != 2 || f.EnumValues[0] != "active" {
		t.Fatalf("unexpected enum field: %+v", f)
	}
}

func TestParsePicoschemaEntityReference(t *testing.T) {
	fields := schema.ParsePicoschema(map[string]any{
		"works_at": "Organization, the company they work for",
	})
	f := fields[0]
	if !f.IsEntityRef || f.Type != "Organization" {
		t.Fatalf("expected entity ref to Organization, got %+v", f)
	}
}

func TestParsePicoschemaNestedObject(t *testing.T) {
	fields := schema.ParsePicoschema(map[string]any{
		"address(object)": map[string]any{
			"city": "string",
		},
	})
	f := fields[0]
	if f.Type != "object" || len(f.Children) != 1 || f.Children[0].Name != "city" {
		t.Fatalf("unexpected nested object field: %+v", f)
	}
}

func TestParseSchemaNoteRequiresEntityAndSchema(t *testing.T) {
	_, err := schema.ParseSchemaNote(map[string]any{})
	if !errors.Is(err, schema.ErrMissingEntity) {
		t.Fatalf("expected ErrMissingEntity, got %v", err)
	}

	_, err = schema.ParseSchemaNote(map[string]any{"entity": "Person"})
	if !errors.Is(err, schema.ErrMissingSchema) {
		t.Fatalf("expected ErrMissingSchema, got %v", err)
	}
}

func TestParseSchemaNoteDefaultsVersionAndMode(t *testing.T) {
	def, err := schema.ParseSchemaNote(map[string]any{
		"entity": "Person",
		"schema": map[string]any{"name": "string"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Version != 1 {
		t.Fatalf("expected default version 1, got %d", def.Version)
	}
	if def.ValidationMode != schema.ModeWarn {
		t.Fatalf("expected default mode warn, got %q", def.ValidationMode)
	}
}

func TestParseSchemaNoteHonorsSettings(t *testing.T) {
	def, err := schema.ParseSchemaNote(map[string]any{
		"entity":  "Person",
		"version": 2,
		"schema":  map[string]any{"name": "string"},
		"settings": map[string]any{
			"validation":  "strict",
			"frontmatter": map[string]any{"tags(array)": "string"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Version != 2 || def.ValidationMode != schema.ModeStrict {
		t.Fatalf("unexpected def: %+v", def)
	}
	if len(def.FrontmatterFields) != 1 || def.FrontmatterFields[0].Name != "tags" {
		t.Fatalf("expected one frontmatter field 'tags', got %+v", def.FrontmatterFields)
	}
}
