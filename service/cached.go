package service

import (
	"context"

	"github.com/openobs/validator/cache"
)

// CachedRangeResolver wraps a ConceptRangeResolver with an LRU cache.
// Only successful lookups are cached; a dictionary that cannot explain a
// concept stays a hard failure on every call.
type CachedRangeResolver struct {
	next  ConceptRangeResolver
	cache *cache.Cache[int, *NumericRange]
}

// NewCachedRangeResolver wraps next with a cache of the given capacity.
func NewCachedRangeResolver(next ConceptRangeResolver, capacity int) *CachedRangeResolver {
	return &CachedRangeResolver{
		next:  next,
		cache: cache.New[int, *NumericRange](capacity),
	}
}

// ResolveNumericRange returns the cached range when present, otherwise
// delegates and caches the result.
func (c *CachedRangeResolver) ResolveNumericRange(ctx context.Context, conceptID int) (*NumericRange, error) {
	if r, ok := c.cache.Get(conceptID); ok {
		return r, nil
	}

	r, err := c.next.ResolveNumericRange(ctx, conceptID)
	if err != nil {
		return nil, err
	}

	c.cache.Set(conceptID, r)
	return r, nil
}

// Stats exposes the underlying cache statistics.
func (c *CachedRangeResolver) Stats() cache.Stats {
	return c.cache.Stats()
}
