package clmm

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clmm-router/internal/domain"
)

func initTick(index int32, net int64) domain.Tick {
	gross := net
	if gross < 0 {
		gross = -gross
	}
	return domain.Tick{
		Index:          index,
		LiquidityNet:   big.NewInt(net),
		LiquidityGross: uint256.NewInt(uint64(gross)),
		Initialized:    true,
	}
}

func TestTickArrayStartIndex(t *testing.T) {
	cases := []struct {
		tick    int32
		spacing uint16
		want    int32
	}{
		{0, 10, 0},
		{599, 10, 0},
		{600, 10, 600},
		{-1, 10, -600},
		{-600, 10, -600},
		{-601, 10, -1200},
		{MinTick, 1, -443640},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TickArrayStartIndex(tc.tick, tc.spacing), "tick %d spacing %d", tc.tick, tc.spacing)
	}
}

func TestTickArraySequenceKeepsContiguousRun(t *testing.T) {
	arrays := []domain.TickArray{
		{StartTickIndex: 1800},
		{StartTickIndex: 0},
		{StartTickIndex: -600},
		{StartTickIndex: 600},
	}
	seq, err := NewTickArraySequence(arrays, 10, 5)
	require.NoError(t, err)

	// 1800 is separated from the run by the missing 1200 array.
	assert.Equal(t, []int32{-600, 0, 600}, seq.Starts())
	assert.Equal(t, int32(-600), seq.Lower())
	assert.Equal(t, int32(1200), seq.Upper())
	assert.True(t, seq.Covers(1199))
	assert.False(t, seq.Covers(1200))
}

func TestTickArraySequenceRequiresHomeArray(t *testing.T) {
	_, err := NewTickArraySequence([]domain.TickArray{{StartTickIndex: 600}}, 10, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientTickData)
}

func TestTickArraySequenceRejectsMalformedArrays(t *testing.T) {
	_, err := NewTickArraySequence([]domain.TickArray{{StartTickIndex: 0}, {StartTickIndex: 0}}, 10, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	_, err = NewTickArraySequence([]domain.TickArray{{StartTickIndex: 10}}, 10, 15)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	outside := domain.TickArray{StartTickIndex: 0, Ticks: []domain.Tick{initTick(600, 1)}}
	_, err = NewTickArraySequence([]domain.TickArray{outside}, 10, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	unordered := domain.TickArray{StartTickIndex: 0, Ticks: []domain.Tick{initTick(20, 1), initTick(10, 1)}}
	_, err = NewTickArraySequence([]domain.TickArray{unordered}, 10, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestNextInitializedTick(t *testing.T) {
	arrays := []domain.TickArray{
		{StartTickIndex: -600, Ticks: []domain.Tick{initTick(-300, 40)}},
		{StartTickIndex: 0, Ticks: []domain.Tick{initTick(0, 5), initTick(300, -40)}},
	}
	seq, err := NewTickArraySequence(arrays, 10, 120)
	require.NoError(t, err)

	down, err := seq.NextInitializedTick(120, true)
	require.NoError(t, err)
	assert.Equal(t, int32(0), down.Index)
	assert.True(t, down.Initialized)

	// A tick sitting on an initialized boundary is found when moving down.
	down, err = seq.NextInitializedTick(0, true)
	require.NoError(t, err)
	assert.Equal(t, int32(0), down.Index)

	down, err = seq.NextInitializedTick(-1, true)
	require.NoError(t, err)
	assert.Equal(t, int32(-300), down.Index)

	edge, err := seq.NextInitializedTick(-301, true)
	require.NoError(t, err)
	assert.Equal(t, int32(-600), edge.Index)
	assert.False(t, edge.Initialized)

	_, err = seq.NextInitializedTick(-601, true)
	assert.ErrorIs(t, err, domain.ErrInsufficientTickData)

	up, err := seq.NextInitializedTick(120, false)
	require.NoError(t, err)
	assert.Equal(t, int32(300), up.Index)

	edge, err = seq.NextInitializedTick(300, false)
	require.NoError(t, err)
	assert.Equal(t, int32(600), edge.Index)
	assert.False(t, edge.Initialized)

	edge, err = seq.NextInitializedTick(599, false)
	require.NoError(t, err)
	assert.Equal(t, int32(600), edge.Index)
	assert.False(t, edge.Initialized)

	_, err = seq.NextInitializedTick(600, false)
	assert.ErrorIs(t, err, domain.ErrInsufficientTickData)
}
