package market

import (
	"context"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/domain"
)

const (
	usdc = "USDC"
	usdt = "USDT"
)

func testPool(id string, spacing uint16) domain.PoolSnapshot {
	return domain.PoolSnapshot{
		ID:           id,
		MintA:        domain.Mint{Address: usdc, Decimals: 6},
		MintB:        domain.Mint{Address: usdt, Decimals: 6},
		CurrentTick:  0,
		TickSpacing:  spacing,
		SqrtPriceX64: new(uint256.Int).Lsh(uint256.NewInt(1), 64),
		Liquidity:    uint256.NewInt(5_000_000_000_000),
		FeeRateBps:   30,
		SwapEnabled:  true,
	}
}

func tickArray(start int32, ticks ...int64) domain.TickArray {
	ta := domain.TickArray{StartTickIndex: start}
	for i := 0; i+1 < len(ticks); i += 2 {
		net := big.NewInt(ticks[i+1])
		ta.Ticks = append(ta.Ticks, domain.Tick{
			Index:          int32(ticks[i]),
			LiquidityNet:   net,
			LiquidityGross: uint256.MustFromBig(new(big.Int).Abs(net)),
			Initialized:    true,
		})
	}
	return ta
}

func testArrays() []domain.TickArray {
	return []domain.TickArray{
		tickArray(-1200, -1190, 1_000_000_000_000),
		tickArray(-600, -300, 4_000_000_000_000),
		tickArray(0, 300, -4_000_000_000_000),
		tickArray(600, 1190, -1_000_000_000_000),
	}
}

func starts(arrays []domain.TickArray) []int32 {
	out := make([]int32, len(arrays))
	for i, ta := range arrays {
		out[i] = ta.StartTickIndex
	}
	return out
}

func TestRegistryListPoolsForPair(t *testing.T) {
	reg := NewRegistry(1)
	require.NoError(t, reg.Upsert(testPool("pool-b", 10)))
	require.NoError(t, reg.Upsert(testPool("pool-a", 10)))
	other := testPool("pool-c", 10)
	other.MintB = domain.Mint{Address: "SOL", Decimals: 9}
	require.NoError(t, reg.Upsert(other))

	ctx := context.Background()
	pools, err := reg.ListPoolsForPair(ctx, usdt, usdc)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, "pool-a", pools[0].ID)
	assert.Equal(t, "pool-b", pools[1].ID)

	pools, err = reg.ListPoolsForPair(ctx, usdc, "BONK")
	require.NoError(t, err)
	assert.Empty(t, pools)

	assert.Equal(t, 3, reg.Len())
	assert.Len(t, reg.Pools(), 3)
}

func TestRegistryFetchTickArraysWindow(t *testing.T) {
	reg := NewRegistry(1)
	require.NoError(t, reg.Upsert(testPool("pool-a", 10), testArrays()...))

	tests := []struct {
		name       string
		aroundTick int32
		want       []int32
	}{
		{"at zero", 0, []int32{-600, 0, 600}},
		{"just below zero", -1, []int32{-1200, -600, 0}},
		{"far below", -1700, []int32{-1200}},
		{"far above", 5000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arrays, err := reg.FetchTickArrays(context.Background(), "pool-a", tt.aroundTick)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, arrays)
				return
			}
			assert.Equal(t, tt.want, starts(arrays))
		})
	}
}

func TestRegistryUpsert(t *testing.T) {
	reg := NewRegistry(0)
	ctx := context.Background()

	bad := testPool("", 10)
	assert.ErrorIs(t, reg.Upsert(bad), domain.ErrInvalidSnapshot)

	misaligned := tickArray(10, 20, 1)
	assert.ErrorIs(t, reg.Upsert(testPool("pool-a", 10), misaligned), domain.ErrInvalidSnapshot)

	require.NoError(t, reg.Upsert(testPool("pool-a", 10), testArrays()[:2]...))
	require.NoError(t, reg.Upsert(testPool("pool-a", 10), testArrays()[2:]...))
	arrays, err := reg.FetchTickArrays(ctx, "pool-a", 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1200, -600, 0, 600}, starts(arrays))

	// A new spacing invalidates every array held for the pool.
	require.NoError(t, reg.Upsert(testPool("pool-a", 20)))
	arrays, err = reg.FetchTickArrays(ctx, "pool-a", 0)
	require.NoError(t, err)
	assert.Empty(t, arrays)

	reg.Remove("pool-a")
	_, err = reg.GetPool(ctx, "pool-a")
	assert.ErrorIs(t, err, domain.ErrPoolNotFound)
	_, err = reg.FetchTickArrays(ctx, "pool-a", 0)
	assert.ErrorIs(t, err, domain.ErrPoolNotFound)
}

func TestRegistryHonoursContext(t *testing.T) {
	reg := NewRegistry(1)
	require.NoError(t, reg.Upsert(testPool("pool-a", 10)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.ListPoolsForPair(ctx, usdc, usdt)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = reg.GetPool(ctx, "pool-a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShardedPoolMapSpreadsKeys(t *testing.T) {
	m := NewShardedPoolMap()
	for i := 0; i < 256; i++ {
		id := "pool-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		m.update(id, func(e *poolEntry) { e.pool.ID = id })
	}
	assert.Equal(t, 256, m.Len())

	used := 0
	for i := range m.shards {
		if len(m.shards[i].pools) > 0 {
			used++
		}
	}
	assert.Greater(t, used, numShards/2)

	visited := 0
	m.Range(func(string, *poolEntry) bool {
		visited++
		return visited < 10
	})
	assert.Equal(t, 10, visited)
}
