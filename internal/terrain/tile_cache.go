package terrain

import (
	"container/list"
	"errors"
	"sync"

	"terragen/internal/profiling"
)

// TileCache maps tile keys to finished payloads under a byte budget with
// least-recently-used eviction. Concurrent requests for the same key share a
// single computation: the first caller computes, everyone else waits on the
// entry's ready channel and receives the same payload. The map lock is never
// held across a computation, so distinct keys compute in parallel.

// CacheStats is a snapshot of cache activity counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	SizeBytes int64
}

type cacheEntry struct {
	key     TileKey
	payload *TilePayload
	err     error
	size    int64
	ready   chan struct{} // closed once payload/err is set
	pins    int           // callers currently waiting on or reading the entry
	elem    *list.Element // nil until admitted to the LRU order
}

// TileCache is safe for concurrent use.
type TileCache struct {
	mu      sync.Mutex
	budget  int64
	size    int64
	entries map[TileKey]*cacheEntry
	order   *list.List // front = most recently used

	hits      uint64
	misses    uint64
	evictions uint64

	// onCompute, when set, observes every actual invocation of a compute
	// function. Test instrumentation only.
	onCompute func(TileKey)
}

// NewTileCache returns a cache bounded by the given budget in bytes.
func NewTileCache(budget int64) *TileCache {
	return &TileCache{
		budget:  budget,
		entries: make(map[TileKey]*cacheEntry),
		order:   list.New(),
	}
}

// GetOrCompute returns the cached payload for key, computing it with fn on a
// miss. Under concurrent access exactly one caller invokes fn per key; the
// rest block until that computation finishes and receive the same result.
// Failed computations are not cached. A payload that cannot fit the budget
// even after evicting every unpinned entry fails with ErrCacheExhausted.
func (c *TileCache) GetOrCompute(key TileKey, fn func() (*TilePayload, error)) (*TilePayload, error) {
	defer profiling.Track("terrain.TileCache.GetOrCompute")()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.pins++
		c.mu.Unlock()

		<-e.ready

		c.mu.Lock()
		e.pins--
		// Joining an in-flight computation only counts as a hit once it
		// actually produced a payload.
		if e.err == nil {
			c.hits++
		} else {
			c.misses++
		}
		if e.elem != nil {
			c.order.MoveToFront(e.elem)
		}
		payload, err := e.payload, e.err
		c.mu.Unlock()
		return payload, err
	}

	e := &cacheEntry{key: key, ready: make(chan struct{}), pins: 1}
	c.entries[key] = e
	c.misses++
	hook := c.onCompute
	c.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	payload, err := fn()

	c.mu.Lock()
	defer c.mu.Unlock()
	e.pins--

	if err == nil && payload == nil {
		err = &TileError{Coord: key.Coord, Err: errors.New("compute returned no payload")}
	}
	if err == nil {
		e.size = payload.SizeBytes()
		if c.entries[key] == e { // may have been dropped by Clear
			if admitErr := c.admitLocked(e); admitErr != nil {
				err = admitErr
				payload = nil
				delete(c.entries, key)
			}
		}
	} else if c.entries[key] == e {
		delete(c.entries, key)
	}

	e.payload = payload
	e.err = err
	close(e.ready)
	return payload, err
}

// admitLocked makes room for e under the budget and links it into the LRU
// order. Pinned entries are never evicted.
func (c *TileCache) admitLocked(e *cacheEntry) error {
	for c.size+e.size > c.budget {
		if !c.evictOneLocked() {
			return ErrCacheExhausted
		}
	}
	e.elem = c.order.PushFront(e)
	c.size += e.size
	return nil
}

// evictOneLocked drops the least-recently-used unpinned entry. Reports
// whether anything was evicted.
func (c *TileCache) evictOneLocked() bool {
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		e := elem.Value.(*cacheEntry)
		if e.pins > 0 {
			continue
		}
		c.order.Remove(elem)
		delete(c.entries, e.key)
		c.size -= e.size
		c.evictions++
		return true
	}
	return false
}

// Clear drops every finished entry. In-flight computations complete but
// their results are not retained.
func (c *TileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[TileKey]*cacheEntry)
	c.order = list.New()
	c.size = 0
}

// SizeBytes returns the current accounted size of all cached payloads.
func (c *TileCache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns a snapshot of the activity counters.
func (c *TileCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
		SizeBytes: c.size,
	}
}
