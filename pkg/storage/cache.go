package storage

import (
	"container/list"
	"sync"
	"time"

	"github.com/vjranagit/gridmapper/pkg/types"
)

// GridCache implements an LRU cache for parsed import results
type GridCache struct {
	capacity int
	ttl      time.Duration
	mu       sync.RWMutex
	cache    map[string]*cacheEntry
	lru      *list.List
}

// cacheEntry represents a cached import result
type cacheEntry struct {
	key       string
	raw       *types.RawGrid
	timestamp time.Time
	element   *list.Element
}

// NewGridCache creates a new grid cache. A ttl of zero never expires entries.
func NewGridCache(capacity int, ttl time.Duration) *GridCache {
	return &GridCache{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*cacheEntry),
		lru:      list.New(),
	}
}

// Get retrieves a copy of the cached grid stored under key
func (gc *GridCache) Get(key string) (*types.RawGrid, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	entry, exists := gc.cache[key]
	if !exists {
		return nil, false
	}

	if gc.expired(entry) {
		gc.removeLocked(key)
		return nil, false
	}

	gc.lru.MoveToFront(entry.element)

	return cloneGrid(entry.raw), true
}

// Put stores a copy of raw under key
func (gc *GridCache) Put(key string, raw *types.RawGrid) {
	if gc.capacity <= 0 {
		return
	}

	gc.mu.Lock()
	defer gc.mu.Unlock()

	if entry, exists := gc.cache[key]; exists {
		entry.raw = cloneGrid(raw)
		entry.timestamp = time.Now()
		gc.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{
		key:       key,
		raw:       cloneGrid(raw),
		timestamp: time.Now(),
	}
	entry.element = gc.lru.PushFront(entry)
	gc.cache[key] = entry

	// Evict least recently used
	if gc.lru.Len() > gc.capacity {
		oldest := gc.lru.Back()
		if oldest != nil {
			gc.removeLocked(oldest.Value.(*cacheEntry).key)
		}
	}
}

// Remove drops the entry under key
func (gc *GridCache) Remove(key string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.removeLocked(key)
}

// removeLocked removes an entry from the cache (must hold lock)
func (gc *GridCache) removeLocked(key string) {
	if entry, exists := gc.cache[key]; exists {
		gc.lru.Remove(entry.element)
		delete(gc.cache, key)
	}
}

func (gc *GridCache) expired(entry *cacheEntry) bool {
	return gc.ttl > 0 && time.Since(entry.timestamp) > gc.ttl
}

// Clear clears all cache entries
func (gc *GridCache) Clear() {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	gc.cache = make(map[string]*cacheEntry)
	gc.lru = list.New()
}

// Size returns the current cache size
func (gc *GridCache) Size() int {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	return len(gc.cache)
}

// Stats returns cache statistics
func (gc *GridCache) Stats() CacheStats {
	gc.mu.RLock()
	defer gc.mu.RUnlock()

	expired := 0
	for _, entry := range gc.cache {
		if gc.expired(entry) {
			expired++
		}
	}

	return CacheStats{
		Size:     len(gc.cache),
		Capacity: gc.capacity,
		Expired:  expired,
	}
}

// CacheStats contains cache statistics
type CacheStats struct {
	Size     int `json:"size"`
	Capacity int `json:"capacity"`
	Expired  int `json:"expired"`
}

// cloneGrid deep-copies raw so callers cannot mutate cached data
func cloneGrid(raw *types.RawGrid) *types.RawGrid {
	if raw == nil {
		return nil
	}
	out := &types.RawGrid{
		RowCount: raw.RowCount,
		ColCount: raw.ColCount,
		Data:     make([][]float64, len(raw.Data)),
	}
	for i, row := range raw.Data {
		out.Data[i] = append(make([]float64, 0, len(row)), row...)
	}
	if raw.RowHeaders != nil {
		out.RowHeaders = append([]string{}, raw.RowHeaders...)
	}
	if raw.ColumnHeaders != nil {
		out.ColumnHeaders = append([]string{}, raw.ColumnHeaders...)
	}
	return out
}
