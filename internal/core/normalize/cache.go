package normalize

import (
	"sentimentd/internal/platform/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Func is anything that normalizes text
type Func interface {
	Normalize(text string) string
}

// Cached memoizes a pure normalizer in a bounded LRU
type Cached struct {
	inner Func
	cache *lru.Cache[string, string]
}

// NewCached wraps inner; size <= 0 returns inner untouched
func NewCached(inner Func, size int) (Func, error) {
	if size <= 0 {
		return inner, nil
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

// Normalize returns the cached output or computes and stores it
func (c *Cached) Normalize(text string) string {
	if out, ok := c.cache.Get(text); ok {
		metrics.NormalizeCacheTotal.WithLabelValues("hit").Inc()
		return out
	}
	metrics.NormalizeCacheTotal.WithLabelValues("miss").Inc()
	out := c.inner.Normalize(text)
	c.cache.Add(text, out)
	return out
}

// Len reports how many entries are cached
func (c *Cached) Len() int { return c.cache.Len() }
