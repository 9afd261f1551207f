package domain

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// TickArraySize is the number of tick slots in one tick array.
const TickArraySize = 60

const (
	MinTick int32 = -443636
	MaxTick int32 = 443636

	// MaxFeeRateBps caps the pool fee; a 100% fee would leave nothing to swap.
	MaxFeeRateBps uint32 = 10000
)

var (
	MinSqrtPriceX64 = uint256.NewInt(4295048016)
	MaxSqrtPriceX64 = uint256.MustFromDecimal("79226673521066979257578248091")
)

type Mint struct {
	Address  string `json:"address" yaml:"address"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// PoolSnapshot is a point-in-time read of a concentrated-liquidity pool.
// It is never mutated once handed to the router.
type PoolSnapshot struct {
	ID           string       `json:"id"`
	MintA        Mint         `json:"mintA"`
	MintB        Mint         `json:"mintB"`
	VaultA       string       `json:"vaultA"`
	VaultB       string       `json:"vaultB"`
	CurrentTick  int32        `json:"currentTick"`
	TickSpacing  uint16       `json:"tickSpacing"`
	SqrtPriceX64 *uint256.Int `json:"sqrtPriceX64"`
	Liquidity    *uint256.Int `json:"liquidity"`
	FeeRateBps   uint32       `json:"feeRateBps"`
	SwapEnabled  bool         `json:"swapEnabled"`
	// Slot is the source's sequence number for the read, zero when unknown.
	Slot uint64 `json:"slot,omitempty"`
}

// HasPair reports whether the pool trades exactly the two given mints, in either order.
func (p *PoolSnapshot) HasPair(mintX, mintY string) bool {
	return (p.MintA.Address == mintX && p.MintB.Address == mintY) ||
		(p.MintA.Address == mintY && p.MintB.Address == mintX)
}

// Orientation returns aToB for a swap selling inputMint into the pool.
func (p *PoolSnapshot) Orientation(inputMint, outputMint string) (aToB bool, ok bool) {
	switch {
	case p.MintA.Address == inputMint && p.MintB.Address == outputMint:
		return true, true
	case p.MintB.Address == inputMint && p.MintA.Address == outputMint:
		return false, true
	default:
		return false, false
	}
}

func (p *PoolSnapshot) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil pool", ErrInvalidSnapshot)
	}
	if p.ID == "" {
		return fmt.Errorf("%w: empty pool id", ErrInvalidSnapshot)
	}
	if p.MintA.Address == "" || p.MintB.Address == "" {
		return fmt.Errorf("%w: pool %s has an empty mint", ErrInvalidSnapshot, p.ID)
	}
	if p.MintA.Address == p.MintB.Address {
		return fmt.Errorf("%w: pool %s mints are identical", ErrInvalidSnapshot, p.ID)
	}
	if p.TickSpacing == 0 {
		return fmt.Errorf("%w: pool %s tick spacing is zero", ErrInvalidSnapshot, p.ID)
	}
	if p.CurrentTick < MinTick || p.CurrentTick > MaxTick {
		return fmt.Errorf("%w: pool %s tick %d out of range", ErrInvalidSnapshot, p.ID, p.CurrentTick)
	}
	if p.SqrtPriceX64 == nil || p.SqrtPriceX64.Lt(MinSqrtPriceX64) || p.SqrtPriceX64.Gt(MaxSqrtPriceX64) {
		return fmt.Errorf("%w: pool %s sqrt price out of range", ErrInvalidSnapshot, p.ID)
	}
	if p.Liquidity == nil || p.Liquidity.BitLen() > 128 {
		return fmt.Errorf("%w: pool %s liquidity missing or wider than u128", ErrInvalidSnapshot, p.ID)
	}
	if p.FeeRateBps >= MaxFeeRateBps {
		return fmt.Errorf("%w: pool %s fee rate %d bps", ErrInvalidSnapshot, p.ID, p.FeeRateBps)
	}
	return nil
}

type Tick struct {
	Index          int32        `json:"index"`
	LiquidityNet   *big.Int     `json:"liquidityNet"`
	LiquidityGross *uint256.Int `json:"liquidityGross"`
	Initialized    bool         `json:"initialized"`
}

// TickArray is a fixed window of TickArraySize tick slots starting at StartTickIndex.
// Ticks holds the slots the source reported, ordered by index; absent slots are uninitialized.
type TickArray struct {
	StartTickIndex int32  `json:"startTickIndex"`
	Ticks          []Tick `json:"ticks"`
}

// TicksInArray is the tick-index width covered by one array.
func TicksInArray(tickSpacing uint16) int32 {
	return int32(tickSpacing) * TickArraySize
}

// EndTickIndex is the first tick index past this array.
func (ta *TickArray) EndTickIndex(tickSpacing uint16) int32 {
	return ta.StartTickIndex + TicksInArray(tickSpacing)
}

func (ta *TickArray) Validate(tickSpacing uint16) error {
	if tickSpacing == 0 {
		return fmt.Errorf("%w: tick spacing is zero", ErrInvalidSnapshot)
	}
	width := TicksInArray(tickSpacing)
	if ta.StartTickIndex%width != 0 {
		return fmt.Errorf("%w: tick array start %d not aligned to %d", ErrInvalidSnapshot, ta.StartTickIndex, width)
	}
	end := ta.StartTickIndex + width
	prev := ta.StartTickIndex - 1
	for _, t := range ta.Ticks {
		if t.Index < ta.StartTickIndex || t.Index >= end {
			return fmt.Errorf("%w: tick %d outside array [%d,%d)", ErrInvalidSnapshot, t.Index, ta.StartTickIndex, end)
		}
		if (t.Index-ta.StartTickIndex)%int32(tickSpacing) != 0 {
			return fmt.Errorf("%w: tick %d not a multiple of spacing %d", ErrInvalidSnapshot, t.Index, tickSpacing)
		}
		if t.Index <= prev {
			return fmt.Errorf("%w: ticks in array %d not strictly increasing", ErrInvalidSnapshot, ta.StartTickIndex)
		}
		prev = t.Index
		if !t.Initialized {
			continue
		}
		if t.LiquidityNet == nil || t.LiquidityGross == nil {
			return fmt.Errorf("%w: initialized tick %d missing liquidity", ErrInvalidSnapshot, t.Index)
		}
		if t.LiquidityGross.IsZero() || t.LiquidityGross.BitLen() > 128 {
			return fmt.Errorf("%w: tick %d gross liquidity invalid", ErrInvalidSnapshot, t.Index)
		}
		if t.LiquidityNet.BitLen() > 128 {
			return fmt.Errorf("%w: tick %d net liquidity wider than i128", ErrInvalidSnapshot, t.Index)
		}
	}
	return nil
}
