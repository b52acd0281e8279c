package schema

import "fmt"

// Field result statuses.
const (
	StatusPresent      = "present"
	StatusMissing      = "missing"
	StatusEnumMismatch = "enum_mismatch"
)

// FieldResult is the validation outcome for a single schema field against
// one note's observations/relations.
type FieldResult struct {
	Name    string
	Status  string
	Values  []string
	Message string
}

// ValidationReport is the result of validating one note against a
// SchemaDefinition.
type ValidationReport struct {
	NoteIdentifier      string
	SchemaEntity        string
	Passed              bool
	FieldResults        []FieldResult
	Warnings            []string
	Errors              []string
	UnmatchedObservations map[string]int
	UnmatchedRelations    map[string]int
}

// ValidateNote checks a note's observations and relations against schema,
// in the mode schema declares (warn never fails; strict fails on a missing
// required field or an enum mismatch; optional-missing is always silent).
// observations and relations are (name, value) pairs in note order.
func ValidateNote(noteIdentifier string, def *SchemaDefinition, observations, relations []Tuple) *ValidationReport {
	report := &ValidationReport{
		NoteIdentifier:        noteIdentifier,
		SchemaEntity:          def.Entity,
		Passed:                true,
		UnmatchedObservations: make(map[string]int),
		UnmatchedRelations:    make(map[string]int),
	}

	strict := def.ValidationMode == ModeStrict

	matchedObs := make(map[string]bool)
	matchedRels := make(map[string]bool)

	for _, f := range def.Fields {
		var values []string
		if f.IsEntityRef {
			matchedRels[f.Name] = true
			for _, rel := range relations {
				if rel.Name == f.Name {
					values = append(values, rel.Value)
				}
			}
		} else {
			matchedObs[f.Name] = true
			for _, obs := range observations {
				if obs.Name == f.Name {
					values = append(values, obs.Value)
				}
			}
		}

		fr := FieldResult{Name: f.Name, Values: values}

		switch {
		case len(values) == 0:
			fr.Status = StatusMissing
			if f.Required {
				msg := fmt.Sprintf("required field %q is missing", f.Name)
				if strict {
					report.Passed = false
					report.Errors = append(report.Errors, msg)
				} else {
					report.Warnings = append(report.Warnings, msg)
				}
			}
		case f.IsEnum && !enumContains(f.EnumValues, values[0]):
			fr.Status = StatusEnumMismatch
			msg := fmt.Sprintf("field %q has value %q not in allowed enum values", f.Name, values[0])
			fr.Message = msg
			if strict {
				report.Passed = false
				report.Errors = append(report.Errors, msg)
			} else {
				report.Warnings = append(report.Warnings, msg)
			}
		default:
			fr.Status = StatusPresent
		}

		report.FieldResults = append(report.FieldResults, fr)
	}

	for _, obs := range observations {
		if !matchedObs[obs.Name] {
			report.UnmatchedObservations[obs.Name]++
		}
	}
	for _, rel := range relations {
		if !matchedRels[rel.Name] {
			report.UnmatchedRelations[rel.Name]++
		}
	}

	return report
}

func enumContains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
