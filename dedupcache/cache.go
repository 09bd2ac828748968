// Package dedupcache implements the in-process content_hash -> node_id
// mapping consulted before every insert (spec.md §4.4). It is bounded, LRU,
// and internally synchronized with bucketed locking: each of 256 shards
// (selected by the top byte of the content hash, following the teacher's
// bucketteer prefix-sharding idea) owns an independent LRU and mutex, so
// concurrent workers rarely contend on the same shard.
package dedupcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AHartTN/hypersphere/internal/model"
)

const shardCount = 256

// Cache is a sharded, bounded, LRU content_hash -> node_id cache. It is a
// hint: the store's content_hash unique constraint is the source of truth,
// per spec.md §4.4, so a miss here never implies absence in the store.
type Cache struct {
	shards [shardCount]*shard
}

type shard struct {
	mu  sync.Mutex
	lru *lru.Cache[model.ContentHash, int64]
}

// New returns a Cache with capacity entries spread evenly across shards.
// Each shard holds capacity/shardCount entries, rounded down, but never
// fewer than one.
func New(capacity int) (*Cache, error) {
	perShard := capacity / shardCount
	if perShard < 1 {
		perShard = 1
	}
	c := &Cache{}
	for i := range c.shards {
		l, err := lru.New[model.ContentHash, int64](perShard)
		if err != nil {
			return nil, err
		}
		c.shards[i] = &shard{lru: l}
	}
	return c, nil
}

func (c *Cache) shard(h model.ContentHash) *shard {
	return c.shards[h[0]]
}

// Get returns the cached node id for hash, if present.
func (c *Cache) Get(hash model.ContentHash) (int64, bool) {
	s := c.shard(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Get(hash)
}

// Put records that hash resolves to id, evicting the shard's least recently
// used entry if the shard is at capacity.
func (c *Cache) Put(hash model.ContentHash, id int64) {
	s := c.shard(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(hash, id)
}

// Len returns the total number of entries currently cached across all
// shards. Intended for metrics, not for correctness-sensitive logic.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.lru.Len()
		s.mu.Unlock()
	}
	return total
}
