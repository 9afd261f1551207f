package market

import (
	"context"
	"time"

	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
)

const (
	DefaultCacheTTL  = 400 * time.Millisecond
	DefaultCacheSize = 4096
)

type tickArrayKey struct {
	poolID     string
	aroundTick int32
}

// CachedProvider adds a read-through tick array cache in front of another
// provider. Pool reads always go to the inner provider so settlement sees fresh state.
type CachedProvider struct {
	inner SnapshotProvider
	cache *BoundedLRUCache[tickArrayKey, []domain.TickArray]
}

func NewCachedProvider(inner SnapshotProvider, size int, ttl time.Duration) *CachedProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		inner: inner,
		cache: NewBoundedLRUCache[tickArrayKey, []domain.TickArray](size, ttl),
	}
}

func (c *CachedProvider) ListPoolsForPair(ctx context.Context, mintA, mintB string) ([]domain.PoolSnapshot, error) {
	return c.inner.ListPoolsForPair(ctx, mintA, mintB)
}

func (c *CachedProvider) FetchTickArrays(ctx context.Context, poolID string, aroundTick int32) ([]domain.TickArray, error) {
	key := tickArrayKey{poolID: poolID, aroundTick: aroundTick}
	if arrays, ok := c.cache.Get(key); ok {
		metrics.TickArrayCacheHits.Inc()
		return arrays, nil
	}
	metrics.TickArrayCacheMisses.Inc()

	arrays, err := c.inner.FetchTickArrays(ctx, poolID, aroundTick)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, arrays)
	metrics.TickArrayCacheSize.Set(float64(c.cache.Size()))
	return arrays, nil
}

func (c *CachedProvider) GetPool(ctx context.Context, poolID string) (*domain.PoolSnapshot, error) {
	return c.inner.GetPool(ctx, poolID)
}

// Unwrap returns the provider behind the cache.
func (c *CachedProvider) Unwrap() SnapshotProvider {
	return c.inner
}

// Uncached strips every caching layer from p so reads hit the source.
func Uncached(p SnapshotProvider) SnapshotProvider {
	for {
		u, ok := p.(interface{ Unwrap() SnapshotProvider })
		if !ok {
			return p
		}
		p = u.Unwrap()
	}
}
