package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/clmm"
	"github.com/hxuan190/clmm-router/internal/common"
	"github.com/hxuan190/clmm-router/internal/domain"
	"github.com/hxuan190/clmm-router/internal/metrics"
	"github.com/hxuan190/clmm-router/internal/services/market"
	"github.com/hxuan190/clmm-router/internal/services/quoter"
)

// DefaultMaxDriftBps is the sqrt price move tolerated between routing and settlement.
const DefaultMaxDriftBps uint32 = 100

// Executor settles an envelope. It reports ErrExecutionReverted when the
// outcome breaks the envelope's bounds and ErrStaleSnapshot when the pool no
// longer resembles the routed snapshot.
type Executor interface {
	Execute(ctx context.Context, env *domain.ExecutionEnvelope) (*domain.SettlementResult, error)
}

// SimulatedExecutor settles against fresh provider state by re-running the
// quote simulator. Pool state is read, never written. Cached providers are
// unwrapped so tick arrays come from the source, not the quote cache.
type SimulatedExecutor struct {
	provider    market.SnapshotProvider
	maxDriftBps uint32
	log         *common.ServiceLogger
}

func NewSimulatedExecutor(provider market.SnapshotProvider, maxDriftBps uint32) *SimulatedExecutor {
	e := &SimulatedExecutor{provider: market.Uncached(provider), maxDriftBps: maxDriftBps}
	e.log = common.NewServiceLogger(e)
	return e
}

func (e *SimulatedExecutor) ID() string {
	return "settlement"
}

func (e *SimulatedExecutor) Execute(ctx context.Context, env *domain.ExecutionEnvelope) (*domain.SettlementResult, error) {
	res, err := e.execute(ctx, env)
	metrics.SettlementRequests.WithLabelValues(status(err)).Inc()
	if err != nil {
		e.log.Warn().Err(err).Str("pool", poolID(env)).Msg("[settlement] swap rejected")
		return nil, err
	}
	e.log.Info().
		Str("pool", res.PoolID).
		Str("direction", env.Direction.String()).
		Uint64("amount_in", res.AmountIn).
		Uint64("amount_out", res.AmountOut).
		Uint64("fee", res.FeePaid).
		Uint64("threshold", env.ThresholdAmount).
		Uint64("slot", res.Slot).
		Msg("[settlement] swap executed")
	return res, nil
}

func (e *SimulatedExecutor) execute(ctx context.Context, env *domain.ExecutionEnvelope) (*domain.SettlementResult, error) {
	if env == nil || env.Amount == 0 {
		return nil, domain.ErrZeroSwapAmount
	}
	fresh, err := e.provider.GetPool(ctx, env.PoolID)
	if errors.Is(err, domain.ErrPoolNotFound) {
		return nil, fmt.Errorf("%w: pool %s no longer listed", domain.ErrStaleSnapshot, env.PoolID)
	}
	if err != nil {
		return nil, fmt.Errorf("reload pool %s: %w", env.PoolID, err)
	}
	if err := e.checkFresh(&env.Snapshot, fresh); err != nil {
		return nil, err
	}

	arrays, err := e.provider.FetchTickArrays(ctx, fresh.ID, fresh.CurrentTick)
	if err != nil {
		return nil, fmt.Errorf("reload tick arrays %s: %w", fresh.ID, err)
	}
	q, err := quoter.Simulate(quoter.SimulationInput{
		Pool:              fresh,
		TickArrays:        arrays,
		Direction:         env.Direction,
		Amount:            env.Amount,
		SqrtPriceLimitX64: env.SqrtPriceLimitX64,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExecutionReverted, err)
	}
	if !q.Complete {
		return nil, fmt.Errorf("%w: price limit reached after %d of %d", domain.ErrExecutionReverted, specified(env.Direction.Mode, q), env.Amount)
	}

	if env.Direction.Mode == domain.ExactOut {
		if q.AmountIn > env.ThresholdAmount {
			return nil, fmt.Errorf("%w: input %d above max %d", domain.ErrExecutionReverted, q.AmountIn, env.ThresholdAmount)
		}
	} else if q.AmountOut < env.ThresholdAmount {
		return nil, fmt.Errorf("%w: output %d below min %d", domain.ErrExecutionReverted, q.AmountOut, env.ThresholdAmount)
	}

	return &domain.SettlementResult{
		PoolID:    fresh.ID,
		AmountIn:  q.AmountIn,
		AmountOut: q.AmountOut,
		FeePaid:   q.FeePaid,
		Slot:      fresh.Slot,
	}, nil
}

// checkFresh rejects a pool that went away, was disabled, was read at an older
// slot, or whose sqrt price moved more than maxDriftBps since routing.
func (e *SimulatedExecutor) checkFresh(routed, fresh *domain.PoolSnapshot) error {
	if !fresh.SwapEnabled {
		return fmt.Errorf("%w: pool %s swaps disabled", domain.ErrStaleSnapshot, fresh.ID)
	}
	if routed.SqrtPriceX64 == nil || routed.SqrtPriceX64.IsZero() {
		return fmt.Errorf("%w: envelope carries no routed snapshot", domain.ErrStaleSnapshot)
	}
	if routed.Slot != 0 && fresh.Slot != 0 && fresh.Slot < routed.Slot {
		return fmt.Errorf("%w: pool %s read at slot %d, routed at %d", domain.ErrStaleSnapshot, fresh.ID, fresh.Slot, routed.Slot)
	}
	if routed.TickSpacing != fresh.TickSpacing || routed.FeeRateBps != fresh.FeeRateBps {
		return fmt.Errorf("%w: pool %s parameters changed", domain.ErrStaleSnapshot, fresh.ID)
	}
	drift, err := DriftBps(routed.SqrtPriceX64, fresh.SqrtPriceX64)
	if err != nil {
		return err
	}
	if drift > uint64(e.maxDriftBps) {
		return fmt.Errorf("%w: pool %s sqrt price drifted %d bps", domain.ErrStaleSnapshot, fresh.ID, drift)
	}
	return nil
}

var u256Bps = uint256.NewInt(10000)

// DriftBps is |after - before| / before in basis points, rounded up.
func DriftBps(before, after *uint256.Int) (uint64, error) {
	diff := new(uint256.Int)
	if after.Gt(before) {
		diff.Sub(after, before)
	} else {
		diff.Sub(before, after)
	}
	v, err := clmm.MulDivRoundingUp(diff, u256Bps, before)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return ^uint64(0), nil
	}
	return v.Uint64(), nil
}

func specified(mode domain.SwapMode, q *domain.Quote) uint64 {
	if mode == domain.ExactOut {
		return q.AmountOut
	}
	return q.AmountIn
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStaleSnapshot):
		return "stale"
	case errors.Is(err, domain.ErrExecutionReverted):
		return "reverted"
	default:
		return "error"
	}
}

func poolID(env *domain.ExecutionEnvelope) string {
	if env == nil {
		return ""
	}
	return env.PoolID
}
