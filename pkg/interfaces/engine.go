package interfaces

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time, following the teacher's jobs worker's
// WithClock option pattern. No engine component takes a Clock; sync and
// watch read time.Now directly.
type Clock interface {
	Now() time.Time
}

// EmbeddingProvider produces vector embeddings for a batch of texts. A
// NullProvider implementation disables semantic search entirely.
type EmbeddingProvider interface {
	// Embed returns one embedding vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions reports the fixed vector width this provider produces.
	Dimensions() int
	// Name identifies the provider for configuration and diagnostics.
	Name() string
}
