package storage

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/vjranagit/gridmapper/pkg/grid"
	"github.com/vjranagit/gridmapper/pkg/types"
)

// CachedSource wraps an import source with an in-memory LRU and an optional
// on-disk snapshot store. Lookups go memory, then disk, then the source.
type CachedSource struct {
	source grid.Source
	store  Store
	cache  *GridCache
	hits   uint64
	misses uint64
	mu     sync.RWMutex
}

// NewCachedSource creates a cached source wrapper. store may be nil.
func NewCachedSource(source grid.Source, store Store, cacheCapacity int, cacheTTL time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		store:  store,
		cache:  NewGridCache(cacheCapacity, cacheTTL),
	}
}

// Import implements grid.Source
func (cs *CachedSource) Import(ctx context.Context, req types.ImportRequest) (*types.RawGrid, error) {
	key, err := Fingerprint(req)
	if err != nil {
		// Unreadable path: let the source report it
		return cs.source.Import(ctx, req)
	}

	if raw, ok := cs.cache.Get(key); ok {
		cs.record(true)
		return raw, nil
	}

	if cs.store != nil {
		raw, err := cs.store.Get(ctx, key)
		switch {
		case err == nil:
			cs.record(true)
			cs.cache.Put(key, raw)
			return raw, nil
		case !errors.Is(err, ErrNotFound):
			log.Printf("Snapshot read failed for %s: %v", req.SourcePath, err)
		}
	}

	cs.record(false)

	raw, err := cs.source.Import(ctx, req)
	if err != nil {
		return nil, err
	}

	cs.cache.Put(key, raw)
	if cs.store != nil {
		if err := cs.store.Put(ctx, key, raw); err != nil {
			log.Printf("Snapshot write failed for %s: %v", req.SourcePath, err)
		}
	}

	return raw, nil
}

// Invalidate drops any cached result for req
func (cs *CachedSource) Invalidate(ctx context.Context, req types.ImportRequest) error {
	key, err := Fingerprint(req)
	if err != nil {
		return err
	}
	cs.cache.Remove(key)
	if cs.store != nil {
		return cs.store.Delete(ctx, key)
	}
	return nil
}

func (cs *CachedSource) record(hit bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if hit {
		cs.hits++
	} else {
		cs.misses++
	}
}

// Close closes the underlying store
func (cs *CachedSource) Close() error {
	if cs.store != nil {
		return cs.store.Close()
	}
	return nil
}

// CacheStats returns cache statistics
func (cs *CachedSource) CacheStats() (CacheStats, uint64, uint64) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cache.Stats(), cs.hits, cs.misses
}

// CacheHitRate returns the cache hit rate as a percentage
func (cs *CachedSource) CacheHitRate() float64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	total := cs.hits + cs.misses
	if total == 0 {
		return 0.0
	}

	return float64(cs.hits) / float64(total) * 100.0
}
