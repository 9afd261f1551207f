package market

import (
	"context"

	"github.com/hxuan190/clmm-router/internal/domain"
)

// SnapshotProvider is the read side of the pool index. Every result is a
// point-in-time read; staleness is the provider's concern.
type SnapshotProvider interface {
	// ListPoolsForPair returns every pool trading the two mints, in either orientation.
	ListPoolsForPair(ctx context.Context, mintA, mintB string) ([]domain.PoolSnapshot, error)

	// FetchTickArrays returns the tick arrays around aroundTick, always including
	// the array that contains it when the pool has one.
	FetchTickArrays(ctx context.Context, poolID string, aroundTick int32) ([]domain.TickArray, error)

	// GetPool re-reads a single pool. Missing pools yield domain.ErrPoolNotFound.
	GetPool(ctx context.Context, poolID string) (*domain.PoolSnapshot, error)
}
