package retrieval

import (
	"context"
	"errors"
	"fmt"

	"carekorea/internal/domain"
)

// VectorProvider embeds the keyword and searches the snippet store.
type VectorProvider struct {
	embedder Embedder
	snippets domain.SnippetRepository
}

func NewVectorProvider(embedder Embedder, snippets domain.SnippetRepository) (*VectorProvider, error) {
	if embedder == nil || snippets == nil {
		return nil, errors.New("retrieval: embedder and snippet repository are required")
	}
	return &VectorProvider{embedder: embedder, snippets: snippets}, nil
}

func (p *VectorProvider) Fetch(ctx context.Context, q Query) ([]domain.Snippet, error) {
	q = q.normalized()
	if q.KeywordText == "" {
		return nil, nil
	}
	vec, err := p.embedder.Embed(ctx, q.KeywordText)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	out, err := p.snippets.Nearest(ctx, vec, q.Locale, q.Category, q.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	return out, nil
}

var _ Provider = (*VectorProvider)(nil)
