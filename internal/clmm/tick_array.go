package clmm

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/holiman/uint256"

	"github.com/hxuan190/clmm-router/internal/domain"
)

// TickArrayStartIndex returns the aligned start of the array holding tick.
func TickArrayStartIndex(tick int32, tickSpacing uint16) int32 {
	width := domain.TicksInArray(tickSpacing)
	start := tick / width
	if tick < 0 && tick%width != 0 {
		start--
	}
	return start * width
}

// TickArraySequence is the contiguous run of supplied tick arrays around the
// current tick. Ticks outside it are unknown.
type TickArraySequence struct {
	arrays      []domain.TickArray
	tickSpacing uint16
}

// NewTickArraySequence sorts and validates the supplied arrays and keeps the
// contiguous run that contains currentTick.
func NewTickArraySequence(arrays []domain.TickArray, tickSpacing uint16, currentTick int32) (*TickArraySequence, error) {
	if tickSpacing == 0 {
		return nil, fmt.Errorf("%w: tick spacing is zero", domain.ErrInvalidSnapshot)
	}
	sorted := make([]domain.TickArray, len(arrays))
	copy(sorted, arrays)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTickIndex < sorted[j].StartTickIndex
	})
	for i := range sorted {
		if err := sorted[i].Validate(tickSpacing); err != nil {
			return nil, err
		}
		if i > 0 && sorted[i].StartTickIndex == sorted[i-1].StartTickIndex {
			return nil, fmt.Errorf("%w: duplicate tick array %d", domain.ErrInvalidSnapshot, sorted[i].StartTickIndex)
		}
	}

	width := domain.TicksInArray(tickSpacing)
	home := TickArrayStartIndex(currentTick, tickSpacing)
	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].StartTickIndex >= home
	})
	if idx == len(sorted) || sorted[idx].StartTickIndex != home {
		return nil, fmt.Errorf("%w: no tick array contains current tick %d", domain.ErrInsufficientTickData, currentTick)
	}
	lo, hi := idx, idx
	for lo > 0 && sorted[lo-1].StartTickIndex == sorted[lo].StartTickIndex-width {
		lo--
	}
	for hi+1 < len(sorted) && sorted[hi+1].StartTickIndex == sorted[hi].StartTickIndex+width {
		hi++
	}
	return &TickArraySequence{arrays: sorted[lo : hi+1], tickSpacing: tickSpacing}, nil
}

// Lower is the first covered tick index.
func (s *TickArraySequence) Lower() int32 {
	return s.arrays[0].StartTickIndex
}

// Upper is the first tick index past the covered range.
func (s *TickArraySequence) Upper() int32 {
	return s.arrays[len(s.arrays)-1].EndTickIndex(s.tickSpacing)
}

func (s *TickArraySequence) Covers(tick int32) bool {
	return tick >= s.Lower() && tick < s.Upper()
}

// Starts lists the covered array starts in ascending order.
func (s *TickArraySequence) Starts() []int32 {
	out := make([]int32, len(s.arrays))
	for i := range s.arrays {
		out[i] = s.arrays[i].StartTickIndex
	}
	return out
}

func (s *TickArraySequence) indexOf(tick int32) int {
	return int((TickArrayStartIndex(tick, s.tickSpacing) - s.Lower()) / domain.TicksInArray(s.tickSpacing))
}

// NextInitializedTick finds the next boundary the price meets when moving from tick.
// Moving down (aToB) it is the greatest initialized tick <= tick; moving up it is the
// smallest initialized tick > tick. When the covered range holds no such tick, the
// edge of the coverage comes back as an uninitialized boundary. A tick already
// outside the coverage yields ErrInsufficientTickData.
func (s *TickArraySequence) NextInitializedTick(tick int32, aToB bool) (domain.Tick, error) {
	if aToB {
		if tick < s.Lower() {
			return domain.Tick{}, fmt.Errorf("%w: tick %d below covered range", domain.ErrInsufficientTickData, tick)
		}
		i := len(s.arrays) - 1
		if s.Covers(tick) {
			i = s.indexOf(tick)
		}
		for ; i >= 0; i-- {
			ticks := s.arrays[i].Ticks
			for j := len(ticks) - 1; j >= 0; j-- {
				if ticks[j].Initialized && ticks[j].Index <= tick {
					return ticks[j], nil
				}
			}
		}
		return domain.Tick{Index: clampTick(s.Lower())}, nil
	}

	if tick >= s.Upper() {
		return domain.Tick{}, fmt.Errorf("%w: tick %d above covered range", domain.ErrInsufficientTickData, tick)
	}
	i := 0
	if s.Covers(tick) {
		i = s.indexOf(tick)
	}
	for ; i < len(s.arrays); i++ {
		for _, t := range s.arrays[i].Ticks {
			if t.Initialized && t.Index > tick {
				return t, nil
			}
		}
	}
	return domain.Tick{Index: clampTick(s.Upper())}, nil
}

func clampTick(t int32) int32 {
	if t < MinTick {
		return MinTick
	}
	if t > MaxTick {
		return MaxTick
	}
	return t
}

// CrossTick applies a tick's liquidityNet when the price crosses it. Moving down
// the net is subtracted, moving up it is added.
func CrossTick(liquidity *uint256.Int, liquidityNet *big.Int, aToB bool) (*uint256.Int, error) {
	if liquidityNet == nil || liquidityNet.Sign() == 0 {
		return new(uint256.Int).Set(liquidity), nil
	}
	delta, overflow := uint256.FromBig(new(big.Int).Abs(liquidityNet))
	if overflow {
		return nil, domain.ErrMathOverflow
	}
	negative := liquidityNet.Sign() < 0
	if aToB {
		negative = !negative
	}
	return AddLiquidityDelta(liquidity, delta, negative)
}
