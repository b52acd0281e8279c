package di

import (
	"context"

	"github.com/goliatone/go-memory/internal/searchindex"
	"github.com/goliatone/go-memory/pkg/interfaces"
)

// embeddingAdapter narrows the public-facing interfaces.EmbeddingProvider
// (Embed/Dimensions/Name, the contract a host application implements to
// plug in a real embedding model) down to the two-method shape
// searchindex.Index expects (Embed/Dimension). The two interfaces
// deliberately diverge: interfaces.EmbeddingProvider also names the
// provider for configuration diagnostics, which searchindex has no use for.
type embeddingAdapter struct {
	provider interfaces.EmbeddingProvider
}

// newEmbeddingAdapter wraps provider for use with searchindex.New. A nil
// provider yields a nil adapter so callers fall back to searchindex's own
// NullProvider default.
func newEmbeddingAdapter(provider interfaces.EmbeddingProvider) searchindex.EmbeddingProvider {
	if provider == nil {
		return nil
	}
	return &embeddingAdapter{provider: provider}
}

func (a *embeddingAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return a.provider.Embed(ctx, texts)
}

func (a *embeddingAdapter) Dimension() int {
	return a.provider.Dimensions()
}
