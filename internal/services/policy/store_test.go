package policy

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/domain"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(NewRedisClient(RedisOptions{Addr: mr.Addr()}), DefaultSlippageBps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func stores(t *testing.T) map[string]Store {
	mem, err := NewMemoryStore(DefaultSlippageBps)
	require.NoError(t, err)
	rs, _ := newRedisStore(t)
	return map[string]Store{"memory": mem, "redis": rs}
}

func TestStoreDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.GetPolicy(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, DefaultSlippageBps, p.Bps)

			require.NoError(t, s.SetPolicy(ctx, "alice", domain.SlippagePolicy{Bps: 75}))
			p, err = s.GetPolicy(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, uint16(75), p.Bps)

			// Zero is a real choice, not "unset".
			require.NoError(t, s.SetPolicy(ctx, "alice", domain.SlippagePolicy{Bps: 0}))
			p, err = s.GetPolicy(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, uint16(0), p.Bps)

			other, err := s.GetPolicy(ctx, "bob")
			require.NoError(t, err)
			assert.Equal(t, DefaultSlippageBps, other.Bps)
		})
	}
}

func TestStoreRejectsInvalidPolicies(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SetPolicy(ctx, "alice", domain.SlippagePolicy{Bps: 501})
			assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)

			require.NoError(t, s.SetPolicy(ctx, "alice", domain.SlippagePolicy{Bps: 500}))

			err = s.SetPolicy(ctx, "", domain.SlippagePolicy{Bps: 10})
			assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)

			_, err = s.GetPolicy(ctx, "")
			assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)
		})
	}
}

func TestNewStoresRejectBadDefault(t *testing.T) {
	_, err := NewMemoryStore(900)
	assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)

	mr := miniredis.RunT(t)
	_, err = NewRedisStore(NewRedisClient(RedisOptions{Addr: mr.Addr()}), 900)
	assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)
}

func TestRedisStoreRejectsTamperedValue(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(keyPrefix+"mallory", `{"bps":9000}`))

	_, err := store.GetPolicy(context.Background(), "mallory")
	assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)

	require.NoError(t, mr.Set(keyPrefix+"garbage", `not json`))
	_, err = store.GetPolicy(context.Background(), "garbage")
	assert.Error(t, err)
}

func TestRedisStoreSurfacesConnectionErrors(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Ping(context.Background()))
	mr.Close()

	_, err := store.GetPolicy(context.Background(), "alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidSlippageConfig)
}
