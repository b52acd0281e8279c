package schema

import "sort"

// NoteData is the minimal note representation schema inference needs:
// decoupled from internal/graph's ORM-backed Entity/Observation/Relation
// types so inference can run over any data source, not just the store.
type NoteData struct {
	Identifier   string
	Observations []Tuple // (category, content)
	Relations    []Tuple // (relationType, targetName)
	EntityType   string  // target entity type, for relation target inference
}

// Tuple is a (name, value) pair; used for both observations and relations
// to avoid pulling graph's Observation/Relation structs into this package.
type Tuple struct {
	Name  string
	Value string
}

// FieldFrequency is the frequency analysis for a single field (observation
// category or relation type) across the notes analyzed.
type FieldFrequency struct {
	Name         string
	Source       string // "observation" | "relation"
	Count        int
	Total        int
	Percentage   float64
	SampleValues []string
	IsArray      bool
	TargetType   string // relations only: the most common target entity type
}

// InferenceResult is the complete output of InferSchema: per-field frequency
// analysis plus a ready-to-use Picoschema dict bucketed by threshold.
type InferenceResult struct {
	EntityType        string
	NotesAnalyzed     int
	FieldFrequencies  []FieldFrequency
	SuggestedSchema   map[string]any
	SuggestedRequired []string
	SuggestedOptional []string
	Excluded          []string
}

const (
	defaultRequiredThreshold = 0.95
	defaultOptionalThreshold = 0.25
	defaultMaxSampleValues   = 5
)

// InferenceOption configures InferSchema's thresholds.
type InferenceOption func(*inferenceConfig)

type inferenceConfig struct {
	requiredThreshold float64
	optionalThreshold float64
	maxSampleValues   int
}

// WithRequiredThreshold overrides the default 0.95 required-field frequency
// threshold.
func WithRequiredThreshold(v float64) InferenceOption {
	return func(c *inferenceConfig) { c.requiredThreshold = v }
}

// WithOptionalThreshold overrides the default 0.25 optional-field frequency
// threshold.
func WithOptionalThreshold(v float64) InferenceOption {
	return func(c *inferenceConfig) { c.optionalThreshold = v }
}

// WithMaxSampleValues overrides the default cap of 5 sample values collected
// per field.
func WithMaxSampleValues(n int) InferenceOption {
	return func(c *inferenceConfig) { c.maxSampleValues = n }
}

// InferSchema analyzes notes of a given entity type and suggests a
// Picoschema definition: fields present in >=95% of notes become required,
// >=25% become optional, and fields below that are excluded but still
// reported (spec.md §4.9).
func InferSchema(entityType string, notes []NoteData, opts ...InferenceOption) *InferenceResult {
	cfg := inferenceConfig{
		requiredThreshold: defaultRequiredThreshold,
		optionalThreshold: defaultOptionalThreshold,
		maxSampleValues:   defaultMaxSampleValues,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	total := len(notes)
	if total == 0 {
		return &InferenceResult{
			EntityType:      entityType,
			SuggestedSchema: map[string]any{},
		}
	}

	frequencies := append(
		analyzeObservations(notes, total, cfg.maxSampleValues),
		analyzeRelations(notes, total, cfg.maxSampleValues)...,
	)

	result := &InferenceResult{
		EntityType:       entityType,
		NotesAnalyzed:    total,
		FieldFrequencies: frequencies,
		SuggestedSchema:  buildPicoschemaDict(frequencies, cfg.requiredThreshold, cfg.optionalThreshold),
	}
	for _, freq := range frequencies {
		switch {
		case freq.Percentage >= cfg.requiredThreshold:
			result.SuggestedRequired = append(result.SuggestedRequired, freq.Name)
		case freq.Percentage >= cfg.optionalThreshold:
			result.SuggestedOptional = append(result.SuggestedOptional, freq.Name)
		default:
			result.Excluded = append(result.Excluded, freq.Name)
		}
	}
	return result
}

// orderedCounter counts occurrences while preserving first-seen order, since
// Go maps (unlike Python's Counter.most_common on equal counts) have no
// iteration order to fall back on.
type orderedCounter struct {
	order  []string
	counts map[string]int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: make(map[string]int)}
}

func (c *orderedCounter) add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// mostCommon returns keys sorted by descending count, breaking ties by
// first-seen order.
func (c *orderedCounter) mostCommon() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	return keys
}

// analyzeObservations counts observation category frequencies across notes.
// A category counts once per note (presence), not per occurrence; a
// category seen more than once in over half the notes it appears in is
// flagged as an array field.
func analyzeObservations(notes []NoteData, total, maxSampleValues int) []FieldFrequency {
	noteCount := newOrderedCounter()
	multiCount := newOrderedCounter()
	samples := make(map[string][]string)

	for _, note := range notes {
		noteCategories := make(map[string][]string)
		var order []string
		for _, obs := range note.Observations {
			if _, ok := noteCategories[obs.Name]; !ok {
				order = append(order, obs.Name)
			}
			noteCategories[obs.Name] = append(noteCategories[obs.Name], obs.Value)
		}

		for _, category := range order {
			values := noteCategories[category]
			noteCount.add(category, 1)
			if len(values) > 1 {
				multiCount.add(category, 1)
			}
			sampleSet := samples[category]
			for _, v := range values {
				if !contains(sampleSet, v) && len(sampleSet) < maxSampleValues {
					sampleSet = append(sampleSet, v)
				}
			}
			samples[category] = sampleSet
		}
	}

	var frequencies []FieldFrequency
	for _, category := range noteCount.mostCommon() {
		count := noteCount.counts[category]
		multi := multiCount.counts[category]
		frequencies = append(frequencies, FieldFrequency{
			Name:         category,
			Source:       "observation",
			Count:        count,
			Total:        total,
			Percentage:   float64(count) / float64(total),
			SampleValues: samples[category],
			IsArray:      float64(multi) > float64(count)/2,
		})
	}
	return frequencies
}

// analyzeRelations counts relation type frequencies across notes, following
// the same presence-per-note and array-detection logic as observations, and
// additionally infers each relation's most common target entity type.
func analyzeRelations(notes []NoteData, total, maxSampleValues int) []FieldFrequency {
	relCount := newOrderedCounter()
	multiCount := newOrderedCounter()
	samples := make(map[string][]string)
	targetCounters := make(map[string]*orderedCounter)

	for _, note := range notes {
		noteRels := make(map[string][]string)
		var order []string
		for _, rel := range note.Relations {
			if _, ok := noteRels[rel.Name]; !ok {
				order = append(order, rel.Name)
			}
			noteRels[rel.Name] = append(noteRels[rel.Name], rel.Value)
		}

		for _, relType := range order {
			targets := noteRels[relType]
			relCount.add(relType, 1)
			if len(targets) > 1 {
				multiCount.add(relType, 1)
			}
			sampleSet := samples[relType]
			for _, t := range targets {
				if !contains(sampleSet, t) && len(sampleSet) < maxSampleValues {
					sampleSet = append(sampleSet, t)
				}
			}
			samples[relType] = sampleSet

			if note.EntityType != "" {
				tc, ok := targetCounters[relType]
				if !ok {
					tc = newOrderedCounter()
					targetCounters[relType] = tc
				}
				tc.add(note.EntityType, 1)
			}
		}
	}

	var frequencies []FieldFrequency
	for _, relType := range relCount.mostCommon() {
		count := relCount.counts[relType]
		multi := multiCount.counts[relType]

		var targetType string
		if tc, ok := targetCounters[relType]; ok {
			common := tc.mostCommon()
			if len(common) > 0 {
				targetType = common[0]
			}
		}

		frequencies = append(frequencies, FieldFrequency{
			Name:         relType,
			Source:       "relation",
			Count:        count,
			Total:        total,
			Percentage:   float64(count) / float64(total),
			SampleValues: samples[relType],
			IsArray:      float64(multi) > float64(count)/2,
			TargetType:   targetType,
		})
	}
	return frequencies
}

// buildPicoschemaDict builds a Picoschema YAML-shaped dict from field
// frequencies, including only fields at or above the optional threshold.
func buildPicoschemaDict(frequencies []FieldFrequency, requiredThreshold, optionalThreshold float64) map[string]any {
	out := make(map[string]any)
	for _, freq := range frequencies {
		if freq.Percentage < optionalThreshold {
			continue
		}
		isRequired := freq.Percentage >= requiredThreshold

		key := freq.Name
		if !isRequired {
			key += "?"
		}
		if freq.IsArray {
			key += "(array)"
		}

		if freq.Source == "relation" {
			target := freq.TargetType
			if target == "" {
				target = "string"
			} else {
				target = capitalize(target)
			}
			out[key] = target
		} else {
			out[key] = "string"
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
