package schema

import (
	"fmt"
	"sort"
)

const (
	defaultNewFieldThreshold     = 0.25
	defaultDroppedFieldThreshold = 0.10
)

// DriftField names one field a schema diff flagged as new or dropped.
type DriftField struct {
	Name       string
	Source     string // "observation" | "relation"
	Percentage float64
}

// SchemaDrift is the result of comparing a declared schema against current
// note usage: fields notes use that the schema doesn't declare, fields the
// schema declares that notes have stopped using, and fields whose observed
// cardinality (single vs array) no longer matches what the schema declares.
type SchemaDrift struct {
	NewFields          []DriftField
	DroppedFields      []DriftField
	CardinalityChanges []string
}

// DiffOption configures DiffSchema's thresholds.
type DiffOption func(*diffConfig)

type diffConfig struct {
	newFieldThreshold     float64
	droppedFieldThreshold float64
}

// WithNewFieldThreshold overrides the default 0.25 frequency a field must
// reach in usage before it's reported as new.
func WithNewFieldThreshold(v float64) DiffOption {
	return func(c *diffConfig) { c.newFieldThreshold = v }
}

// WithDroppedFieldThreshold overrides the default 0.10 frequency below which
// a declared schema field is reported as dropped.
func WithDroppedFieldThreshold(v float64) DiffOption {
	return func(c *diffConfig) { c.droppedFieldThreshold = v }
}

// DiffSchema compares def against current usage in notes and reports drift:
// fields notes use often that def doesn't declare, declared fields notes
// have stopped using, and cardinality mismatches on fields both sides agree
// exist (spec.md §4.9).
func DiffSchema(def *SchemaDefinition, notes []NoteData, opts ...DiffOption) *SchemaDrift {
	cfg := diffConfig{
		newFieldThreshold:     defaultNewFieldThreshold,
		droppedFieldThreshold: defaultDroppedFieldThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	drift := &SchemaDrift{}
	if len(notes) == 0 {
		return drift
	}

	total := len(notes)
	obsFreq := indexByName(analyzeObservations(notes, total, defaultMaxSampleValues))
	relFreq := indexByName(analyzeRelations(notes, total, defaultMaxSampleValues))

	schemaObs := make(map[string]SchemaField)
	schemaRel := make(map[string]SchemaField)
	for _, f := range def.Fields {
		if f.IsEntityRef {
			schemaRel[f.Name] = f
		} else {
			schemaObs[f.Name] = f
		}
	}

	// New fields: present in usage at or above threshold but undeclared.
	for _, name := range sortedKeys(obsFreq) {
		if _, declared := schemaObs[name]; declared {
			continue
		}
		freq := obsFreq[name]
		if freq.Percentage >= cfg.newFieldThreshold {
			drift.NewFields = append(drift.NewFields, DriftField{Name: name, Source: "observation", Percentage: freq.Percentage})
		}
	}
	for _, name := range sortedKeys(relFreq) {
		if _, declared := schemaRel[name]; declared {
			continue
		}
		freq := relFreq[name]
		if freq.Percentage >= cfg.newFieldThreshold {
			drift.NewFields = append(drift.NewFields, DriftField{Name: name, Source: "relation", Percentage: freq.Percentage})
		}
	}

	// Dropped fields: declared but absent from usage, or below threshold.
	for _, f := range def.Fields {
		source := "observation"
		freqIndex := obsFreq
		if f.IsEntityRef {
			source = "relation"
			freqIndex = relFreq
		}

		freq, present := freqIndex[f.Name]
		if !present {
			drift.DroppedFields = append(drift.DroppedFields, DriftField{Name: f.Name, Source: source})
			continue
		}
		if freq.Percentage < cfg.droppedFieldThreshold {
			drift.DroppedFields = append(drift.DroppedFields, DriftField{Name: f.Name, Source: source, Percentage: freq.Percentage})
			continue
		}

		// Cardinality check only applies to fields present in both schema
		// and usage.
		if f.IsArray && !freq.IsArray {
			drift.CardinalityChanges = append(drift.CardinalityChanges,
				fmt.Sprintf("field %q declared as array but usage is typically single-value", f.Name))
		} else if !f.IsArray && freq.IsArray {
			drift.CardinalityChanges = append(drift.CardinalityChanges,
				fmt.Sprintf("field %q declared as single-value but usage is typically array", f.Name))
		}
	}

	return drift
}

func indexByName(frequencies []FieldFrequency) map[string]FieldFrequency {
	out := make(map[string]FieldFrequency, len(frequencies))
	for _, f := range frequencies {
		out[f.Name] = f
	}
	return out
}

func sortedKeys(m map[string]FieldFrequency) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
