package settlement

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/clmm"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/services/market"
)

func pool() domain.PoolSnapshot {
	return domain.PoolSnapshot{
		ID:           "pool-a",
		MintA:        domain.Mint{Address: "USDC", Decimals: 6},
		MintB:        domain.Mint{Address: "USDT", Decimals: 6},
		CurrentTick:  0,
		TickSpacing:  10,
		SqrtPriceX64: new(uint256.Int).Lsh(uint256.NewInt(1), 64),
		Liquidity:    uint256.NewInt(5_000_000_000_000),
		FeeRateBps:   30,
		SwapEnabled:  true,
		Slot:         100,
	}
}

func tick(index int32, net int64) domain.Tick {
	n := big.NewInt(net)
	return domain.Tick{
		Index:          index,
		LiquidityNet:   n,
		LiquidityGross: uint256.MustFromBig(new(big.Int).Abs(n)),
		Initialized:    true,
	}
}

func arrays() []domain.TickArray {
	return []domain.TickArray{
		{StartTickIndex: -1200, Ticks: []domain.Tick{tick(-1190, 1_000_000_000_000)}},
		{StartTickIndex: -600, Ticks: []domain.Tick{tick(-300, 4_000_000_000_000)}},
		{StartTickIndex: 0, Ticks: []domain.Tick{tick(300, -4_000_000_000_000)}},
		{StartTickIndex: 600, Ticks: []domain.Tick{tick(1190, -1_000_000_000_000)}},
	}
}

func setup(t *testing.T, fresh domain.PoolSnapshot) (*SimulatedExecutor, *market.Registry) {
	t.Helper()
	reg := market.NewRegistry(2)
	require.NoError(t, reg.Upsert(fresh, arrays()...))
	return NewSimulatedExecutor(reg, DefaultMaxDriftBps), reg
}

func envelope(mode domain.SwapMode, amount, threshold uint64) *domain.ExecutionEnvelope {
	return &domain.ExecutionEnvelope{
		PoolID:            "pool-a",
		Direction:         domain.SwapDirection{Mode: mode, AToB: true},
		Amount:            amount,
		ThresholdAmount:   threshold,
		SqrtPriceLimitX64: new(uint256.Int),
		Snapshot:          pool(),
	}
}

func TestExecuteWithinThreshold(t *testing.T) {
	exec, _ := setup(t, pool())
	ctx := context.Background()

	res, err := exec.Execute(ctx, envelope(domain.ExactIn, 1_000_000_000, 996_801_237))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), res.AmountIn)
	assert.Equal(t, uint64(996_801_237), res.AmountOut)
	assert.Equal(t, uint64(3_000_000), res.FeePaid)
	assert.Equal(t, uint64(100), res.Slot)

	res, err = exec.Execute(ctx, envelope(domain.ExactOut, 1_000_000_000, 1_003_209_671))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_003_209_671), res.AmountIn)
	assert.Equal(t, uint64(1_000_000_000), res.AmountOut)
}

func TestExecuteRevertsPastThreshold(t *testing.T) {
	exec, _ := setup(t, pool())
	ctx := context.Background()

	_, err := exec.Execute(ctx, envelope(domain.ExactIn, 1_000_000_000, 996_801_238))
	assert.ErrorIs(t, err, domain.ErrExecutionReverted)

	_, err = exec.Execute(ctx, envelope(domain.ExactOut, 1_000_000_000, 1_003_209_670))
	assert.ErrorIs(t, err, domain.ErrExecutionReverted)

	limited := envelope(domain.ExactIn, 1_000_000_000, 1)
	limited.SqrtPriceLimitX64, err = clmm.TickToSqrtPriceX64(-2)
	require.NoError(t, err)
	_, err = exec.Execute(ctx, limited)
	assert.ErrorIs(t, err, domain.ErrExecutionReverted)

	_, err = exec.Execute(ctx, envelope(domain.ExactIn, 1_000_000_000_000, 1))
	assert.ErrorIs(t, err, domain.ErrExecutionReverted, "pool runs dry")
}

func TestExecuteDetectsStaleSnapshots(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *domain.PoolSnapshot)
	}{
		{"disabled", func(p *domain.PoolSnapshot) { p.SwapEnabled = false }},
		{"older slot", func(p *domain.PoolSnapshot) { p.Slot = 99 }},
		{"fee changed", func(p *domain.PoolSnapshot) { p.FeeRateBps = 5 }},
		{"price drifted", func(p *domain.PoolSnapshot) {
			p.CurrentTick = -300
			p.SqrtPriceX64, _ = clmm.TickToSqrtPriceX64(-300)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh := pool()
			tt.mutate(&fresh)
			exec, _ := setup(t, fresh)
			_, err := exec.Execute(ctx, envelope(domain.ExactIn, 1_000_000_000, 1))
			assert.ErrorIs(t, err, domain.ErrStaleSnapshot)
		})
	}

	exec, reg := setup(t, pool())
	reg.Remove("pool-a")
	_, err := exec.Execute(ctx, envelope(domain.ExactIn, 1_000_000_000, 1))
	assert.ErrorIs(t, err, domain.ErrStaleSnapshot)

	noSnapshot := envelope(domain.ExactIn, 1_000_000_000, 1)
	noSnapshot.Snapshot = domain.PoolSnapshot{}
	exec, _ = setup(t, pool())
	_, err = exec.Execute(ctx, noSnapshot)
	assert.ErrorIs(t, err, domain.ErrStaleSnapshot)
}

func TestExecuteToleratesSmallDrift(t *testing.T) {
	fresh := pool()
	fresh.CurrentTick = -4
	fresh.SqrtPriceX64, _ = clmm.TickToSqrtPriceX64(-4)
	fresh.Slot = 101
	exec, _ := setup(t, fresh)

	res, err := exec.Execute(context.Background(), envelope(domain.ExactIn, 1_000_000_000, 990_000_000))
	require.NoError(t, err)
	assert.Less(t, res.AmountOut, uint64(996_801_237), "worse price after the move")
	assert.Equal(t, uint64(101), res.Slot)
}

func TestExecuteReadsTickArraysPastCache(t *testing.T) {
	ctx := context.Background()
	reg := market.NewRegistry(2)
	require.NoError(t, reg.Upsert(pool(), arrays()...))
	cached := market.NewCachedProvider(reg, 16, time.Hour)
	_, err := cached.FetchTickArrays(ctx, "pool-a", 0)
	require.NoError(t, err)

	// Liquidity at the current tick drops after the cache was filled.
	require.NoError(t, reg.Upsert(pool(), domain.TickArray{
		StartTickIndex: 0,
		Ticks:          []domain.Tick{tick(0, 1_000_000_000_000), tick(300, -4_000_000_000_000)},
	}))

	exec := NewSimulatedExecutor(cached, DefaultMaxDriftBps)
	_, err = exec.Execute(ctx, envelope(domain.ExactIn, 1_000_000_000, 996_801_237))
	assert.ErrorIs(t, err, domain.ErrExecutionReverted)
}

func TestExecuteRejectsEmptyEnvelope(t *testing.T) {
	exec, _ := setup(t, pool())
	_, err := exec.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrZeroSwapAmount)
	_, err = exec.Execute(context.Background(), envelope(domain.ExactIn, 0, 0))
	assert.ErrorIs(t, err, domain.ErrZeroSwapAmount)
}

func TestDriftBps(t *testing.T) {
	tests := []struct {
		before, after uint64
		want          uint64
	}{
		{10_000, 10_000, 0},
		{10_000, 10_100, 100},
		{10_000, 9_999, 1},
		{3, 4, 3334},
	}
	for _, tt := range tests {
		got, err := DriftBps(uint256.NewInt(tt.before), uint256.NewInt(tt.after))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d -> %d", tt.before, tt.after)
	}
}
