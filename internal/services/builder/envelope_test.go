package builder

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/domain"
)

func selection(mode domain.SwapMode, amountIn, amountOut uint64) *domain.RouteSelection {
	return &domain.RouteSelection{
		Pool:      domain.PoolSnapshot{ID: "pool-a"},
		Direction: domain.SwapDirection{Mode: mode, AToB: true},
		Quote: domain.Quote{
			AmountIn:  amountIn,
			AmountOut: amountOut,
			Complete:  true,
		},
	}
}

func TestBuildEnvelopeZeroSlippageMatchesQuote(t *testing.T) {
	env, err := BuildEnvelope(selection(domain.ExactIn, 1_000_000_000, 130_000_000), domain.SlippagePolicy{Bps: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), env.Amount)
	assert.Equal(t, uint64(130_000_000), env.ThresholdAmount)
	assert.True(t, env.SqrtPriceLimitX64.IsZero())

	env, err = BuildEnvelope(selection(domain.ExactOut, 123_457, 100_000), domain.SlippagePolicy{Bps: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), env.Amount)
	assert.Equal(t, uint64(123_457), env.ThresholdAmount)
}

func TestBuildEnvelopeExactOutRoundsUp(t *testing.T) {
	env, err := BuildEnvelope(selection(domain.ExactOut, 123_457, 100_000), domain.SlippagePolicy{Bps: 500}, nil)
	require.NoError(t, err)

	// ceil(123457 * 1.05) = ceil(129629.85)
	assert.Equal(t, uint64(129_630), env.ThresholdAmount)
	assert.GreaterOrEqual(t, env.ThresholdAmount, uint64(123_457))
	assert.Equal(t, domain.ExactOut, env.Direction.Mode)
}

func TestBuildEnvelopeExactInRoundsDown(t *testing.T) {
	env, err := BuildEnvelope(selection(domain.ExactIn, 1_000, 999), domain.SlippagePolicy{Bps: 30}, nil)
	require.NoError(t, err)

	// floor(999 * 0.997) = floor(996.003)
	assert.Equal(t, uint64(996), env.ThresholdAmount)
	assert.LessOrEqual(t, env.ThresholdAmount, uint64(999))
}

func TestBuildEnvelopeRejectsWideSlippage(t *testing.T) {
	_, err := BuildEnvelope(selection(domain.ExactIn, 1_000, 999), domain.SlippagePolicy{Bps: 501}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidSlippageConfig)
}

func TestBuildEnvelopeZeroAmounts(t *testing.T) {
	_, err := BuildEnvelope(selection(domain.ExactIn, 0, 999), domain.SlippagePolicy{Bps: 50}, nil)
	assert.ErrorIs(t, err, domain.ErrZeroSwapAmount)

	_, err = BuildEnvelope(selection(domain.ExactIn, 1_000, 0), domain.SlippagePolicy{Bps: 50}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidExpectedAmount)

	_, err = BuildEnvelope(selection(domain.ExactOut, 1_000, 0), domain.SlippagePolicy{Bps: 50}, nil)
	assert.ErrorIs(t, err, domain.ErrZeroSwapAmount)
}

func TestBuildEnvelopeForwardsPriceLimit(t *testing.T) {
	limit := uint256.NewInt(4_295_048_017)
	env, err := BuildEnvelope(selection(domain.ExactIn, 1_000, 999), domain.SlippagePolicy{Bps: 50}, limit)
	require.NoError(t, err)

	assert.True(t, env.SqrtPriceLimitX64.Eq(limit))
	// The envelope owns its copy.
	limit.SetUint64(1)
	assert.Equal(t, uint64(4_295_048_017), env.SqrtPriceLimitX64.Uint64())
	assert.Equal(t, "pool-a", env.PoolID)
}

func TestThresholdOverflow(t *testing.T) {
	q := &domain.Quote{AmountIn: math.MaxUint64, AmountOut: 1}
	_, err := Threshold(domain.ExactOut, q, 500)
	assert.ErrorIs(t, err, domain.ErrMathOverflow)

	// ExactIn can never grow the amount.
	q = &domain.Quote{AmountIn: 1, AmountOut: math.MaxUint64}
	v, err := Threshold(domain.ExactIn, q, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)
}
