package searchindex

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrSemanticSearchDisabled is returned by NullProvider, and by Search when
// vector mode is requested without a real embedding provider configured
// (hybrid mode falls back to FTS instead).
var ErrSemanticSearchDisabled = errors.New("searchindex: semantic search disabled")

// EmbeddingProvider embeds text into a fixed-dimension vector. Dimension is
// provider-specific but fixed per project, per spec.md §4.5.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// NullProvider is the default EmbeddingProvider: vector mode is disabled
// until a caller wires a real provider.
type NullProvider struct{}

func (NullProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrSemanticSearchDisabled
}

func (NullProvider) Dimension() int { return 0 }

const chunkCharBudget = 1500

// chunkBody splits markdown by heading, then by paragraph, respecting a
// character budget per chunk and falling back to a sliding window for any
// paragraph that alone exceeds the budget, per spec.md §4.5.
func chunkBody(body string) []string {
	var chunks []string
	for _, section := range splitOnHeadings(body) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		chunks = append(chunks, chunkSection(section)...)
	}
	return chunks
}

func splitOnHeadings(body string) []string {
	lines := strings.Split(body, "\n")
	var sections []string
	var current strings.Builder
	for _, line := range lines {
		if isHeadingLine(line) && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func isHeadingLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "#")
}

func chunkSection(section string) []string {
	paragraphs := strings.Split(section, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(paragraph) > chunkCharBudget {
			flush()
			chunks = append(chunks, slidingWindow(paragraph, chunkCharBudget)...)
			continue
		}
		if current.Len()+len(paragraph)+2 > chunkCharBudget {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()
	return chunks
}

func slidingWindow(text string, budget int) []string {
	var windows []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
	}
	return windows
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
