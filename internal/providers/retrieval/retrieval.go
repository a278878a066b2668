// Package retrieval fetches prior high-performing content used to ground prompts.
package retrieval

import (
	"context"
	"strings"

	"carekorea/internal/domain"
)

// Query selects snippets for one keyword.
type Query struct {
	KeywordText string
	Locale      domain.Locale
	Category    string
	TopK        int
}

func (q Query) normalized() Query {
	q.KeywordText = strings.TrimSpace(q.KeywordText)
	q.Category = strings.TrimSpace(q.Category)
	if q.TopK <= 0 {
		q.TopK = 3
	}
	return q
}

// Provider returns snippets ordered by relevance. An empty result is not an error.
type Provider interface {
	Fetch(ctx context.Context, q Query) ([]domain.Snippet, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Disabled never returns context.
type Disabled struct{}

func (Disabled) Fetch(context.Context, Query) ([]domain.Snippet, error) { return nil, nil }

var _ Provider = Disabled{}
