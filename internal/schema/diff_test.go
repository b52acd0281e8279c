package schema_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-memory/internal/schema"
)

func note(id string, observations, relations []schema.Tuple) schema.NoteData {
	return schema.NoteData{Identifier: id, Observations: observations, Relations: relations}
}

func TestDiffSchemaPerfectMatchHasNoDrift(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false), scalarField("role", true, false)}, "")
	notes := []schema.NoteData{
		note("n0", []schema.Tuple{{Name: "name", Value: "Alice"}, {Name: "role", Value: "Eng"}}, nil),
		note("n1", []schema.Tuple{{Name: "name", Value: "Bob"}, {Name: "role", Value: "PM"}}, nil),
	}
	drift := schema.DiffSchema(def, notes)

	if len(drift.NewFields) != 0 || len(drift.DroppedFields) != 0 || len(drift.CardinalityChanges) != 0 {
		t.Fatalf("expected no drift, got %+v", drift)
	}
}

func TestDiffSchemaEmptyNotesReturnsEmptyDrift(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false)}, "")
	drift := schema.DiffSchema(def, nil)
	if len(drift.NewFields) != 0 || len(drift.DroppedFields) != 0 || len(drift.CardinalityChanges) != 0 {
		t.Fatalf("expected empty drift, got %+v", drift)
	}
}

func TestDiffSchemaDetectsNewField(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 4; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}, {Name: "role", Value: "R"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)

	if len(drift.NewFields) != 1 || drift.NewFields[0].Name != "role" {
		t.Fatalf("expected new field 'role', got %+v", drift.NewFields)
	}
}

func TestDiffSchemaNewFieldBelowThresholdNotReported(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 10; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	notes[0] = note("n0", []schema.Tuple{{Name: "name", Value: "P0"}, {Name: "rare", Value: "x"}}, nil)
	drift := schema.DiffSchema(def, notes)

	for _, f := range drift.NewFields {
		if f.Name == "rare" {
			t.Fatalf("expected 'rare' (10%%) to stay below the new-field threshold")
		}
	}
}

func TestDiffSchemaDetectsNewRelation(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 4; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, []schema.Tuple{{Name: "works_at", Value: "Org"}}))
	}
	drift := schema.DiffSchema(def, notes)

	found := false
	for _, f := range drift.NewFields {
		if f.Name == "works_at" && f.Source == "relation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected works_at relation as new field, got %+v", drift.NewFields)
	}
}

func TestDiffSchemaDroppedFieldNeverSeen(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false), scalarField("legacy_id", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 5; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)

	found := false
	for _, f := range drift.DroppedFields {
		if f.Name == "legacy_id" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected legacy_id dropped, got %+v", drift.DroppedFields)
	}
}

func TestDiffSchemaDroppedFieldBelowThreshold(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false), scalarField("fax", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 20; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	notes[0] = note("n0", []schema.Tuple{{Name: "name", Value: "P0"}, {Name: "fax", Value: "555-1234"}}, nil)
	drift := schema.DiffSchema(def, notes)

	found := false
	for _, f := range drift.DroppedFields {
		if f.Name == "fax" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fax (1/20=5%% < 10%%) dropped, got %+v", drift.DroppedFields)
	}
}

func TestDiffSchemaFieldAboveThresholdNotDropped(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 5; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)
	if len(drift.DroppedFields) != 0 {
		t.Fatalf("expected nothing dropped, got %+v", drift.DroppedFields)
	}
}

func TestDiffSchemaDroppedEntityRefFieldHasRelationSource(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false), entityRefField("works_at", true)}, "")
	var notes []schema.NoteData
	for i := 0; i < 5; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)

	var match *schema.DriftField
	for i, f := range drift.DroppedFields {
		if f.Name == "works_at" {
			match = &drift.DroppedFields[i]
		}
	}
	if match == nil || match.Source != "relation" {
		t.Fatalf("expected works_at dropped with relation source, got %+v", drift.DroppedFields)
	}
}

func TestDiffSchemaCardinalitySchemaSingleUsageArray(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("tag", true, false)}, "")
	notes := []schema.NoteData{
		note("n0", []schema.Tuple{{Name: "tag", Value: "python"}, {Name: "tag", Value: "mcp"}}, nil),
		note("n1", []schema.Tuple{{Name: "tag", Value: "schema"}, {Name: "tag", Value: "validation"}}, nil),
		note("n2", []schema.Tuple{{Name: "tag", Value: "ai"}, {Name: "tag", Value: "llm"}}, nil),
	}
	drift := schema.DiffSchema(def, notes)

	if len(drift.CardinalityChanges) != 1 {
		t.Fatalf("expected one cardinality change, got %v", drift.CardinalityChanges)
	}
	msg := drift.CardinalityChanges[0]
	if !strings.Contains(msg, "tag") || !strings.Contains(msg, "array") {
		t.Fatalf("expected cardinality message to mention tag and array, got %q", msg)
	}
}

func TestDiffSchemaCardinalitySchemaArrayUsageSingle(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, true)}, "")
	var notes []schema.NoteData
	for i := 0; i < 5; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)

	if len(drift.CardinalityChanges) != 1 {
		t.Fatalf("expected one cardinality change, got %v", drift.CardinalityChanges)
	}
	msg := drift.CardinalityChanges[0]
	if !strings.Contains(msg, "name") || !strings.Contains(msg, "single-value") {
		t.Fatalf("expected cardinality message to mention name and single-value, got %q", msg)
	}
}

func TestDiffSchemaNoCardinalityChangeWhenMatching(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("name", true, false)}, "")
	var notes []schema.NoteData
	for i := 0; i < 5; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)
	if len(drift.CardinalityChanges) != 0 {
		t.Fatalf("expected no cardinality changes, got %v", drift.CardinalityChanges)
	}
}

func TestDiffSchemaCardinalityNotReportedForAbsentField(t *testing.T) {
	def := makeSchema([]schema.SchemaField{scalarField("ghost", true, true)}, "")
	var notes []schema.NoteData
	for i := 0; i < 5; i++ {
		notes = append(notes, note("n", []schema.Tuple{{Name: "name", Value: "P"}}, nil))
	}
	drift := schema.DiffSchema(def, notes)

	if len(drift.CardinalityChanges) != 0 {
		t.Fatalf("expected no cardinality change for an absent field, got %v", drift.CardinalityChanges)
	}
	found := false
	for _, f := range drift.DroppedFields {
		if f.Name == "ghost" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ghost to be reported dropped, got %+v", drift.DroppedFields)
	}
}
