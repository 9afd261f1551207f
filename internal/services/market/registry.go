package market

import (
	"context"
	"fmt"
	"sort"

	"github.com/hxuan190/clmm-router/internal/clmm"
	"github.com/hxuan190/clmm-router/internal/domain"
)

// DefaultArraysPerSide is how many tick arrays on each side of the current one
// a fetch returns.
const DefaultArraysPerSide = 3

// Registry is an in-memory SnapshotProvider. Snapshots it returns share their
// big-number storage with the registry and must be treated as read-only.
type Registry struct {
	pools         *ShardedPoolMap
	arraysPerSide int32
}

func NewRegistry(arraysPerSide int) *Registry {
	if arraysPerSide <= 0 {
		arraysPerSide = DefaultArraysPerSide
	}
	return &Registry{
		pools:         NewShardedPoolMap(),
		arraysPerSide: int32(arraysPerSide),
	}
}

// Upsert stores a validated pool and merges the given tick arrays into the ones
// already held for it. A tick spacing change discards the old arrays.
func (r *Registry) Upsert(pool domain.PoolSnapshot, arrays ...domain.TickArray) error {
	if err := pool.Validate(); err != nil {
		return err
	}
	for i := range arrays {
		if err := arrays[i].Validate(pool.TickSpacing); err != nil {
			return fmt.Errorf("pool %s: %w", pool.ID, err)
		}
	}
	r.pools.update(pool.ID, func(e *poolEntry) {
		if e.pool.TickSpacing != pool.TickSpacing {
			e.arrays = make(map[int32]domain.TickArray, len(arrays))
		}
		e.pool = pool
		for _, ta := range arrays {
			e.arrays[ta.StartTickIndex] = ta
		}
	})
	return nil
}

func (r *Registry) Remove(poolID string) {
	r.pools.Delete(poolID)
}

func (r *Registry) Len() int {
	return r.pools.Len()
}

// Pools returns every indexed pool ordered by id.
func (r *Registry) Pools() []domain.PoolSnapshot {
	out := make([]domain.PoolSnapshot, 0, r.pools.Len())
	r.pools.Range(func(_ string, e *poolEntry) bool {
		out = append(out, e.pool)
		return true
	})
	sortPools(out)
	return out
}

func (r *Registry) ListPoolsForPair(ctx context.Context, mintA, mintB string) ([]domain.PoolSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.PoolSnapshot
	r.pools.Range(func(_ string, e *poolEntry) bool {
		if e.pool.HasPair(mintA, mintB) {
			out = append(out, e.pool)
		}
		return true
	})
	sortPools(out)
	return out, nil
}

func (r *Registry) FetchTickArrays(ctx context.Context, poolID string, aroundTick int32) ([]domain.TickArray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.TickArray
	found := r.pools.view(poolID, func(e *poolEntry) {
		width := domain.TicksInArray(e.pool.TickSpacing)
		home := clmm.TickArrayStartIndex(aroundTick, e.pool.TickSpacing)
		lo, hi := home-r.arraysPerSide*width, home+r.arraysPerSide*width
		for start, ta := range e.arrays {
			if start >= lo && start <= hi {
				out = append(out, ta)
			}
		}
	})
	if !found {
		return nil, fmt.Errorf("%w: %s", domain.ErrPoolNotFound, poolID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTickIndex < out[j].StartTickIndex })
	return out, nil
}

func (r *Registry) GetPool(ctx context.Context, poolID string) (*domain.PoolSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p domain.PoolSnapshot
	if !r.pools.view(poolID, func(e *poolEntry) { p = e.pool }) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPoolNotFound, poolID)
	}
	return &p, nil
}

func sortPools(pools []domain.PoolSnapshot) {
	sort.Slice(pools, func(i, j int) bool { return pools[i].ID < pools[j].ID })
}
