package markdown

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	observationPattern      = regexp.MustCompile(`(?i)^-\s*\[([A-Za-z0-9_]+)\]\s*(.*)$`)
	explicitRelationPattern = regexp.MustCompile(`^-\s*([A-Za-z0-9_-]+)\s+\[\[([^\]]+)\]\]\s*(?:\(([^)]*)\))?\s*$`)
	wikilinkPattern         = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	trailingContextPattern  = regexp.MustCompile(`\s*\(([^)]*)\)\s*$`)
	tagPattern              = regexp.MustCompile(`#([A-Za-z0-9_/-]+)`)
)

// Parse implements the engine's Markdown-to-graph contract: parse(text, path)
// → frontmatter, body, observations, relations, tags, title, entity_type,
// permalink. It is a pure function; the sync engine is responsible for all
// side effects (writes, resolution, indexing).
//
// Grounded on the teacher's two-pass internal/markdown design
// (frontmatter.go peels off YAML via adrg/frontmatter, parser_goldmark.go
// walks the body with goldmark) generalized from HTML rendering to
// structural scanning: headings for title detection, fenced code blocks to
// exclude from relation/observation scanning, and line-based regular
// expressions (matching original_source's markdown_processor.py style) for
// observations, explicit relations, and inline wikilinks.
func Parse(source []byte, path string) (*ParsedNote, error) {
	frontMatter, bodyBytes, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("markdown parse %s: %w", path, err)
	}
	body := string(bodyBytes)

	fencedLines, err := fencedCodeLines(body)
	if err != nil {
		return nil, fmt.Errorf("markdown parse %s: %w", path, err)
	}

	title := firstH1Title(body, fencedLines)
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	entityType := "note"
	if raw, ok := frontMatter["type"]; ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			entityType = toSnakeCase(s)
		}
	}

	permalink := derivePermalink(frontMatter, path)

	observations, relations, tags := scanBody(body, fencedLines)

	return &ParsedNote{
		FrontMatter:  frontMatter,
		Body:         body,
		Observations: observations,
		Relations:    relations,
		Tags:         tags,
		Title:        title,
		EntityType:   entityType,
		Permalink:    permalink,
	}, nil
}

// fencedCodeLines returns the set of 0-indexed line numbers that fall inside
// a fenced code block (``` or ~~~), walked via goldmark's block parser so
// nested/odd fencing is handled the same way the renderer would see it.
func fencedCodeLines(body string) (map[int]bool, error) {
	src := []byte(body)
	reader := text.NewReader(src)
	doc := goldmark.New().Parser().Parse(reader)

	lines := map[int]bool{}
	lineStarts := computeLineStarts(src)

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		segs := fence.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			start := offsetToLine(lineStarts, seg.Start)
			stop := offsetToLine(lineStarts, seg.Stop)
			for ln := start; ln <= stop; ln++ {
				lines[ln] = true
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// firstH1Title walks the goldmark AST for the first level-1 heading outside
// any fenced code block and returns its rendered text.
func firstH1Title(body string, fencedLines map[int]bool) string {
	src := []byte(body)
	reader := text.NewReader(src)
	doc := goldmark.New().Parser().Parse(reader)
	lineStarts := computeLineStarts(src)

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || title != "" {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 1 {
			return ast.WalkContinue, nil
		}
		lines := heading.Lines()
		if lines.Len() > 0 && fencedLines[offsetToLine(lineStarts, lines.At(0).Start)] {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(headingText(heading, src))
		return ast.WalkContinue, nil
	})
	return title
}

func headingText(heading *ast.Heading, src []byte) string {
	var b strings.Builder
	for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			b.Write(textNode.Segment.Value(src))
		}
	}
	return b.String()
}

func computeLineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetToLine(lineStarts []int, offset int) int {
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// scanBody line-scans the body (skipping fenced code block lines) for
// observations, explicit relations, and inline wikilinks.
func scanBody(body string, fencedLines map[int]bool) ([]Observation, []Relation, []string) {
	var observations []Observation
	var relations []Relation
	seenTags := map[string]bool{}
	var tags []string

	addTag := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seenTags[tag] {
			return
		}
		seenTags[tag] = true
		tags = append(tags, tag)
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if fencedLines[i] {
			continue
		}
		trimmed := strings.TrimRight(line, "\r")

		if m := explicitRelationPattern.FindStringSubmatch(trimmed); m != nil {
			relations = append(relations, Relation{
				RelationType: normalizeRelationType(m[1]),
				Target:       strings.TrimSpace(m[2]),
				Context:      strings.TrimSpace(m[3]),
			})
			continue
		}

		if m := observationPattern.FindStringSubmatch(trimmed); m != nil {
			rest := m[2]

			context := ""
			if cm := trailingContextPattern.FindStringSubmatch(rest); cm != nil {
				context = strings.TrimSpace(cm[1])
				rest = trailingContextPattern.ReplaceAllString(rest, "")
			}

			var obsTags []string
			content := tagPattern.ReplaceAllStringFunc(rest, func(tag string) string {
				name := strings.TrimPrefix(tag, "#")
				obsTags = append(obsTags, name)
				addTag(name)
				return ""
			})

			observations = append(observations, Observation{
				Category: strings.ToLower(m[1]),
				Content:  strings.TrimSpace(content),
				Tags:     obsTags,
				Context:  context,
			})
			continue
		}

		for _, wm := range wikilinkPattern.FindAllStringSubmatch(trimmed, -1) {
			relations = append(relations, Relation{
				RelationType: "links_to",
				Target:       strings.TrimSpace(wm[1]),
			})
		}

		for _, tm := range tagPattern.FindAllStringSubmatch(trimmed, -1) {
			addTag(tm[1])
		}
	}

	return observations, relations, tags
}

// normalizeRelationType makes underscores and hyphens equivalent, matching
// on their canonical underscore form.
func normalizeRelationType(relationType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(relationType)), "-", "_")
}

// derivePermalink prefers an explicit frontmatter permalink; otherwise it
// slugifies the file path (sans extension) segment by segment.
func derivePermalink(frontMatter map[string]any, path string) string {
	if raw, ok := frontMatter["permalink"]; ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}

	withoutExt := strings.TrimSuffix(filepath.ToSlash(path), filepath.Ext(path))
	segments := strings.Split(withoutExt, "/")
	for i, seg := range segments {
		segments[i] = slugify(seg)
	}
	return strings.Join(segments, "/")
}

var nonAlphanumericRun = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a path segment and replaces runs of non-alphanumeric
// characters with a single hyphen, trimming leading/trailing hyphens.
func slugify(segment string) string {
	lowered := strings.ToLower(segment)
	replaced := nonAlphanumericRun.ReplaceAllString(lowered, "-")
	return strings.Trim(replaced, "-")
}

var snakeCaseBoundary = regexp.MustCompile(`[\s-]+`)

// toSnakeCase normalizes a frontmatter `type:` value (which may use spaces
// or hyphens) into snake_case.
func toSnakeCase(value string) string {
	replaced := snakeCaseBoundary.ReplaceAllString(strings.TrimSpace(value), "_")
	return strings.ToLower(replaced)
}
