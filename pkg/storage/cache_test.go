package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/vjranagit/gridmapper/pkg/types"
)

func TestGridCache(t *testing.T) {
	cache := NewGridCache(100, time.Minute)

	if _, ok := cache.Get("k"); ok {
		t.Error("Expected cache miss, got hit")
	}

	cache.Put("k", sampleGrid())

	raw, ok := cache.Get("k")
	if !ok {
		t.Fatal("Expected cache hit, got miss")
	}
	if raw.Data[0][0] != 1.5 {
		t.Errorf("Expected value 1.5, got %f", raw.Data[0][0])
	}

	// Mutating a returned grid must not reach the cached copy
	raw.Data[0][0] = 99
	raw.RowHeaders[0] = "changed"

	again, _ := cache.Get("k")
	if again.Data[0][0] != 1.5 || again.RowHeaders[0] != "north" {
		t.Errorf("Cached grid was mutated: %v %v", again.Data[0], again.RowHeaders)
	}
}

func TestGridCacheTTL(t *testing.T) {
	cache := NewGridCache(100, 50*time.Millisecond)
	cache.Put("k", sampleGrid())

	if _, ok := cache.Get("k"); !ok {
		t.Error("Expected cache hit")
	}

	time.Sleep(100 * time.Millisecond)

	if stats := cache.Stats(); stats.Expired != 1 {
		t.Errorf("Expected 1 expired entry, got %d", stats.Expired)
	}
	if _, ok := cache.Get("k"); ok {
		t.Error("Expected cache miss after TTL")
	}
	if cache.Size() != 0 {
		t.Errorf("Expected expired entry to be removed, size %d", cache.Size())
	}
}

func TestGridCacheLRUEviction(t *testing.T) {
	cache := NewGridCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("k%d", i), &types.RawGrid{RowCount: i})
	}

	// Touch k0 so k1 becomes least recently used
	cache.Get("k0")
	cache.Put("k3", &types.RawGrid{RowCount: 3})

	if cache.Size() != 3 {
		t.Errorf("Expected size 3, got %d", cache.Size())
	}
	if _, ok := cache.Get("k1"); ok {
		t.Error("Expected k1 to be evicted")
	}
	if _, ok := cache.Get("k0"); !ok {
		t.Error("Expected k0 to survive")
	}
}

func TestGridCacheClearAndRemove(t *testing.T) {
	cache := NewGridCache(10, 0)
	cache.Put("a", sampleGrid())
	cache.Put("b", sampleGrid())

	cache.Remove("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("Expected a to be removed")
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Expected empty cache, got %d", cache.Size())
	}

	stats := cache.Stats()
	if stats.Capacity != 10 || stats.Size != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
