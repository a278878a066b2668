package retrieval

import (
	"context"
	"strconv"
	"strings"

	"carekorea/internal/cache"
	"carekorea/internal/domain"
)

// Cached memoizes another provider. Errors are not cached.
type Cached struct {
	next  Provider
	cache *cache.TTL[string, []domain.Snippet]
}

func NewCached(next Provider, c *cache.TTL[string, []domain.Snippet]) *Cached {
	return &Cached{next: next, cache: c}
}

func (c *Cached) Fetch(ctx context.Context, q Query) ([]domain.Snippet, error) {
	q = q.normalized()
	key := cacheKey(q)
	if hit, ok := c.cache.Get(key); ok {
		return hit, nil
	}
	out, err := c.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, out)
	return out, nil
}

func cacheKey(q Query) string {
	return strings.Join([]string{
		strings.ToLower(q.KeywordText),
		string(q.Locale),
		strings.ToLower(q.Category),
		strconv.Itoa(q.TopK),
	}, "\x1f")
}

var _ Provider = (*Cached)(nil)
