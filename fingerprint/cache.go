package fingerprint

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/e7canasta/pixelmirror/tile"
)

// shardCount is the number of lock-sharded buckets backing Cache. The
// fingerprint cache is a total map over a bounded, small key space (one
// entry per grid cell, at most a few thousand for any realistic screen),
// so a fixed shard count is simpler than the cache library's CPU-scaled
// sizing and still removes single-mutex contention under the worker pool
// of spec §5.
const shardCount = 16

type shard struct {
	mu      sync.RWMutex
	digests map[tile.Coord]Digest
}

// Cache is a total mapping from every grid cell to either absent or a
// digest (spec §3). It is owned exclusively by the sender pipeline; the
// only external mutation surface is Commit/Invalidate.
type Cache struct {
	shards [shardCount]*shard
}

// New creates an empty, invalidated Cache.
func New() *Cache {
	c := &Cache{}
	for i := range c.shards {
		c.shards[i] = &shard{digests: make(map[tile.Coord]Digest)}
	}
	return c
}

// Lookup returns the cached digest for a cell, or ok=false if absent.
func (c *Cache) Lookup(coord tile.Coord) (Digest, bool) {
	s := c.shardFor(coord)
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.digests[coord]
	return d, ok
}

// Commit records the digest most recently transmitted for a cell. Callers
// must only call Commit for tiles that were actually emitted on the wire
// (spec §3's cache-consistency invariant): a tile skipped by the planner
// must not have its cache entry refreshed.
func (c *Cache) Commit(coord tile.Coord, d Digest) {
	s := c.shardFor(coord)
	s.mu.Lock()
	s.digests[coord] = d
	s.mu.Unlock()
}

// Invalidate clears every entry, forcing the next Plan to behave as if
// this were the first frame of the session (spec §4.2: connection start,
// explicit Resync, or a codec failure all invalidate the cache).
func (c *Cache) Invalidate() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.digests = make(map[tile.Coord]Digest)
		s.mu.Unlock()
	}
}

// Len reports the number of cells currently cached, for tests and stats.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.digests)
		s.mu.RUnlock()
	}
	return n
}

func (c *Cache) shardFor(coord tile.Coord) *shard {
	var key [8]byte
	binary.BigEndian.PutUint32(key[0:4], uint32(coord.TX))
	binary.BigEndian.PutUint32(key[4:8], uint32(coord.TY))
	h := xxhash.Sum64(key[:])
	return c.shards[h&uint64(shardCount-1)]
}
