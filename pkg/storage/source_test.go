package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vjranagit/gridmapper/pkg/types"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Import(ctx context.Context, req types.ImportRequest) (*types.RawGrid, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return sampleGrid(), nil
}

func writeSourceFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "grid.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}
	return path
}

func TestCachedSourceMemoryHit(t *testing.T) {
	src := &countingSource{}
	cs := NewCachedSource(src, nil, 10, time.Minute)
	defer cs.Close()

	req := types.ImportRequest{SourcePath: writeSourceFile(t, t.TempDir(), "1,2\n")}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cs.Import(ctx, req); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
	}

	if src.calls != 1 {
		t.Errorf("Expected 1 source call, got %d", src.calls)
	}

	_, hits, misses := cs.CacheStats()
	if hits != 2 || misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d and %d", hits, misses)
	}
	if rate := cs.CacheHitRate(); rate < 66 || rate > 67 {
		t.Errorf("Unexpected hit rate %f", rate)
	}
}

func TestCachedSourceSnapshotSurvivesRestart(t *testing.T) {
	dataDir := t.TempDir()
	req := types.ImportRequest{SourcePath: writeSourceFile(t, t.TempDir(), "1,2\n"), HasRowHeaders: true}
	ctx := context.Background()

	store, err := NewStore(&Config{Path: dataDir, CompressionLevel: 2})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	first := &countingSource{}
	cs := NewCachedSource(first, store, 10, time.Minute)
	if _, err := cs.Import(ctx, req); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	cs.Close()

	store, err = NewStore(&Config{Path: dataDir, CompressionLevel: 2})
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	second := &countingSource{}
	cs = NewCachedSource(second, store, 10, time.Minute)
	defer cs.Close()

	raw, err := cs.Import(ctx, req)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("Expected snapshot hit, source called %d times", second.calls)
	}
	if raw.RowHeaders[0] != "north" {
		t.Errorf("Unexpected snapshot contents: %v", raw.RowHeaders)
	}
}

func TestCachedSourceFileChangeMisses(t *testing.T) {
	dir := t.TempDir()
	src := &countingSource{}
	cs := NewCachedSource(src, nil, 10, time.Minute)

	req := types.ImportRequest{SourcePath: writeSourceFile(t, dir, "1,2\n")}
	ctx := context.Background()
	cs.Import(ctx, req)

	writeSourceFile(t, dir, "1,2,3,4\n")
	cs.Import(ctx, req)

	if src.calls != 2 {
		t.Errorf("Expected 2 source calls after edit, got %d", src.calls)
	}
}

func TestCachedSourceErrorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	src := &countingSource{err: boom}
	cs := NewCachedSource(src, nil, 10, time.Minute)

	req := types.ImportRequest{SourcePath: writeSourceFile(t, t.TempDir(), "x")}
	if _, err := cs.Import(context.Background(), req); !errors.Is(err, boom) {
		t.Errorf("Expected source error, got %v", err)
	}

	// Missing files skip the cache entirely
	req.SourcePath = filepath.Join(t.TempDir(), "missing.csv")
	cs.Import(context.Background(), req)
	if src.calls != 2 {
		t.Errorf("Expected 2 source calls, got %d", src.calls)
	}
	if cs.cache.Size() != 0 {
		t.Errorf("Expected nothing cached, got %d", cs.cache.Size())
	}
}

func TestCachedSourceInvalidate(t *testing.T) {
	src := &countingSource{}
	store, err := NewStore(&Config{Path: t.TempDir(), CompressionLevel: 2})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	cs := NewCachedSource(src, store, 10, time.Minute)
	defer cs.Close()

	req := types.ImportRequest{SourcePath: writeSourceFile(t, t.TempDir(), "1\n")}
	ctx := context.Background()
	cs.Import(ctx, req)

	if err := cs.Invalidate(ctx, req); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	cs.Import(ctx, req)
	if src.calls != 2 {
		t.Errorf("Expected 2 source calls after invalidate, got %d", src.calls)
	}
}
