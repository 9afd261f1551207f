package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MaxSlippageBps is the widest tolerance an account may configure.
const MaxSlippageBps uint16 = 500

type SlippagePolicy struct {
	Bps uint16 `json:"bps"`
}

func (p SlippagePolicy) Validate() error {
	if p.Bps > MaxSlippageBps {
		return fmt.Errorf("%w: %d bps exceeds %d", ErrInvalidSlippageConfig, p.Bps, MaxSlippageBps)
	}
	return nil
}

// ExecutionEnvelope is everything the settlement layer needs to execute a routed swap.
// Amount is the fixed side of the request; ThresholdAmount is min-out for ExactIn and
// max-in for ExactOut.
type ExecutionEnvelope struct {
	PoolID          string        `json:"poolId"`
	Direction       SwapDirection `json:"direction"`
	Amount          uint64        `json:"amount"`
	ThresholdAmount uint64        `json:"thresholdAmount"`
	// SqrtPriceLimitX64 of zero means unbounded.
	SqrtPriceLimitX64 *uint256.Int `json:"sqrtPriceLimitX64"`
	// Snapshot is the pool state the envelope was derived from.
	Snapshot PoolSnapshot `json:"-"`
}

type SettlementResult struct {
	PoolID    string `json:"poolId"`
	AmountIn  uint64 `json:"amountIn"`
	AmountOut uint64 `json:"amountOut"`
	FeePaid   uint64 `json:"feePaid"`
	Slot      uint64 `json:"slot,omitempty"`
}
