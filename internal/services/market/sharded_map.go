package market

import (
	"hash/fnv"
	"sync"

	"github.com/hxuan190/clmm-router/internal/domain"
)

const numShards = 16

// poolEntry is one indexed pool with the tick arrays held for it, keyed by start index.
type poolEntry struct {
	pool   domain.PoolSnapshot
	arrays map[int32]domain.TickArray
}

// ShardedPoolMap spreads pool entries over independently locked shards so
// writers for one pool do not block readers of another.
type ShardedPoolMap struct {
	shards [numShards]poolShard
}

type poolShard struct {
	mu    sync.RWMutex
	pools map[string]*poolEntry
}

func NewShardedPoolMap() *ShardedPoolMap {
	m := &ShardedPoolMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].pools = make(map[string]*poolEntry)
	}
	return m
}

func (m *ShardedPoolMap) getShard(poolID string) *poolShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(poolID))
	return &m.shards[h.Sum32()%numShards]
}

// view runs f under the shard's read lock. f must not retain the entry.
func (m *ShardedPoolMap) view(poolID string, f func(e *poolEntry)) bool {
	shard := m.getShard(poolID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	e, ok := shard.pools[poolID]
	if ok {
		f(e)
	}
	return ok
}

// update runs f under the shard's write lock, creating the entry on first use.
func (m *ShardedPoolMap) update(poolID string, f func(e *poolEntry)) {
	shard := m.getShard(poolID)
	shard.mu.Lock()
	e, ok := shard.pools[poolID]
	if !ok {
		e = &poolEntry{arrays: make(map[int32]domain.TickArray)}
		shard.pools[poolID] = e
	}
	f(e)
	shard.mu.Unlock()
}

func (m *ShardedPoolMap) Delete(poolID string) {
	shard := m.getShard(poolID)
	shard.mu.Lock()
	delete(shard.pools, poolID)
	shard.mu.Unlock()
}

func (m *ShardedPoolMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].pools)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range visits every entry shard by shard until f returns false.
func (m *ShardedPoolMap) Range(f func(poolID string, e *poolEntry) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].pools {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}
