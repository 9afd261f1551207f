package domain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

type SwapMode int

const (
	ExactIn SwapMode = iota
	ExactOut
)

func (m SwapMode) String() string {
	switch m {
	case ExactIn:
		return "exact_in"
	case ExactOut:
		return "exact_out"
	default:
		return fmt.Sprintf("swap_mode(%d)", int(m))
	}
}

// ParseSwapMode accepts the spellings used by the API and the CLI.
func ParseSwapMode(s string) (SwapMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exactin", "exact_in", "in":
		return ExactIn, nil
	case "exactout", "exact_out", "out":
		return ExactOut, nil
	default:
		return ExactIn, fmt.Errorf("unknown swap mode %q", s)
	}
}

func (m SwapMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *SwapMode) UnmarshalText(b []byte) error {
	v, err := ParseSwapMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// SwapDirection fixes both which amount is specified and which way price moves.
// AToB sells token A for token B and moves the price down.
type SwapDirection struct {
	Mode SwapMode `json:"mode"`
	AToB bool     `json:"aToB"`
}

func (d SwapDirection) String() string {
	side := "b_to_a"
	if d.AToB {
		side = "a_to_b"
	}
	return d.Mode.String() + "/" + side
}

type Quote struct {
	AmountIn       uint64       `json:"amountIn"`
	AmountOut      uint64       `json:"amountOut"`
	FeePaid        uint64       `json:"feePaid"`
	SqrtPriceAfter *uint256.Int `json:"sqrtPriceAfter"`
	TickAfter      int32        `json:"tickAfter"`
	PriceImpactBps uint16       `json:"priceImpactBps"`
	// CrossedTickArrayStarts lists each tick array touched, in traversal order, without repeats.
	CrossedTickArrayStarts []int32 `json:"crossedTickArrayStarts"`
	// Complete is false when liquidity or tick data ran out before the request was satisfied.
	Complete bool `json:"complete"`
}

// ExclusionReason is a stable label for why a pool did not compete in a route.
type ExclusionReason string

const (
	ExclusionSwapDisabled         ExclusionReason = "swap_disabled"
	ExclusionMissingTickArrays    ExclusionReason = "missing_tick_arrays"
	ExclusionPairMismatch         ExclusionReason = "pair_mismatch"
	ExclusionDuplicate            ExclusionReason = "duplicate"
	ExclusionInvalidSnapshot      ExclusionReason = "invalid_snapshot"
	ExclusionFetchFailed          ExclusionReason = "fetch_failed"
	ExclusionInsufficientTickData ExclusionReason = "insufficient_tick_data"
	ExclusionZeroLiquidity        ExclusionReason = "zero_liquidity"
	ExclusionMathOverflow         ExclusionReason = "math_overflow"
	ExclusionIncomplete           ExclusionReason = "incomplete"
	ExclusionSimulationFailed     ExclusionReason = "simulation_failed"
)

type PoolExclusion struct {
	PoolID string          `json:"poolId"`
	Reason ExclusionReason `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}

// RouteSelection is the winning pool of a routing request plus diagnostics.
type RouteSelection struct {
	Pool                 PoolSnapshot  `json:"pool"`
	Quote                Quote         `json:"quote"`
	Direction            SwapDirection `json:"direction"`
	AmountSpecified      uint64        `json:"amountSpecified"`
	CandidatesConsidered int           `json:"candidatesConsidered"`
	// Ranked holds the pool ids of every surviving quote, best first.
	Ranked     []string        `json:"ranked"`
	Exclusions []PoolExclusion `json:"exclusions"`
}
