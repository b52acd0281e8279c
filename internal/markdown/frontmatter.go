package markdown

import (
	"bytes"
	"fmt"
	"time"

	"github.com/adrg/frontmatter"
)

// ParseFrontMatter splits source into its YAML frontmatter (decoded into a
// generic map, since the knowledge-graph schema is open-ended rather than a
// fixed CMS field set) and the remaining Markdown body. A note with no
// frontmatter delimiters returns an empty map and the whole source as body.
func ParseFrontMatter(source []byte) (map[string]any, []byte, error) {
	raw := map[string]any{}

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	if raw == nil {
		raw = map[string]any{}
	}

	return coerceFrontMatterMap(raw), body, nil
}

// coerceFrontMatterMap walks a decoded frontmatter map and rewrites any
// date/time scalar into its ISO-8601 string form, recursing into nested
// maps and lists so order and structure are otherwise preserved untouched.
func coerceFrontMatterMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = coerceFrontMatterValue(value)
	}
	return out
}

func coerceFrontMatterValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return formatISO8601(v)
	case map[string]any:
		return coerceFrontMatterMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = coerceFrontMatterValue(item)
		}
		return out
	default:
		return value
	}
}

func formatISO8601(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
