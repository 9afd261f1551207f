package market

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/domain"
)

type countingProvider struct {
	SnapshotProvider
	fetches atomic.Int32
	fail    bool
}

func (c *countingProvider) FetchTickArrays(ctx context.Context, poolID string, aroundTick int32) ([]domain.TickArray, error) {
	c.fetches.Add(1)
	if c.fail {
		return nil, errors.New("upstream down")
	}
	return c.SnapshotProvider.FetchTickArrays(ctx, poolID, aroundTick)
}

func TestCachedProviderReadThrough(t *testing.T) {
	reg := NewRegistry(1)
	require.NoError(t, reg.Upsert(testPool("pool-a", 10), testArrays()...))
	inner := &countingProvider{SnapshotProvider: reg}
	cp := NewCachedProvider(inner, 8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		arrays, err := cp.FetchTickArrays(ctx, "pool-a", 0)
		require.NoError(t, err)
		assert.Len(t, arrays, 3)
	}
	assert.Equal(t, int32(1), inner.fetches.Load())

	_, err := cp.FetchTickArrays(ctx, "pool-a", -1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.fetches.Load())

	pool, err := cp.GetPool(ctx, "pool-a")
	require.NoError(t, err)
	assert.Equal(t, "pool-a", pool.ID)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &countingProvider{SnapshotProvider: NewRegistry(1), fail: true}
	cp := NewCachedProvider(inner, 8, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cp.FetchTickArrays(context.Background(), "pool-a", 0)
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), inner.fetches.Load())
}

func TestUncached(t *testing.T) {
	reg := NewRegistry(1)
	tests := []struct {
		name     string
		provider SnapshotProvider
	}{
		{"plain", reg},
		{"cached", NewCachedProvider(reg, 8, time.Minute)},
		{"nested", NewCachedProvider(NewCachedProvider(reg, 8, time.Minute), 8, time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, reg, Uncached(tt.provider))
		})
	}
}

func TestBoundedLRUCacheEvictsAndExpires(t *testing.T) {
	c := NewBoundedLRUCache[string, int](2, time.Second)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())

	now = now.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry expires at its deadline")
	assert.Equal(t, 1, c.Size())

	c.Set("c", 4)
	now = now.Add(500 * time.Millisecond)
	v, ok = c.Get("c")
	assert.True(t, ok, "Set refreshes the deadline")
	assert.Equal(t, 4, v)

	c.Delete("c")
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func BenchmarkCachedProviderHit(b *testing.B) {
	reg := NewRegistry(1)
	require.NoError(b, reg.Upsert(testPool("pool-a", 10), testArrays()...))
	cp := NewCachedProvider(reg, 64, time.Hour)
	ctx := context.Background()
	_, _ = cp.FetchTickArrays(ctx, "pool-a", 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cp.FetchTickArrays(ctx, "pool-a", 0)
	}
}
