package learnlog

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/daviddao/reslot/pkg/model"
)

// DefaultCacheSize bounds the number of owners whose summary is cached.
const DefaultCacheSize = 256

// Cached memoizes LoadContext per owner in front of another Log. Recording
// an entry for an owner drops that owner's cached summary. Failures are not
// cached. The cache belongs to whoever constructs it; there is no shared
// package-level instance.
type Cached struct {
	inner Log
	cache *lru.Cache[string, string]
}

// NewCached wraps inner with an LRU of size entries (DefaultCacheSize when
// size <= 0).
func NewCached(inner Log, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// LoadContext returns the cached summary or asks the inner log.
func (c *Cached) LoadContext(ctx context.Context, ownerID string) (string, error) {
	if s, ok := c.cache.Get(ownerID); ok {
		return s, nil
	}
	s, err := c.inner.LoadContext(ctx, ownerID)
	if err != nil {
		return s, err
	}
	c.cache.Add(ownerID, s)
	return s, nil
}

// Record forwards to the inner log and invalidates the owner's summary.
func (c *Cached) Record(ctx context.Context, e model.LogEntry) error {
	defer c.cache.Remove(e.OwnerID)
	return c.inner.Record(ctx, e)
}

// Statistics is not cached.
func (c *Cached) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	return c.inner.Statistics(ctx, ownerID)
}

// Len reports how many owners currently have a cached summary.
func (c *Cached) Len() int { return c.cache.Len() }

var _ Log = (*Cached)(nil)
