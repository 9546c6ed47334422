package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vjranagit/gridmapper/pkg/types"
)

func TestFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.csv")
	if err := os.WriteFile(path, []byte("1,2\n"), 0o644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	req := types.ImportRequest{SourcePath: path}
	a, err := Fingerprint(req)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	b, _ := Fingerprint(req)
	if a != b {
		t.Errorf("Fingerprint not stable: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Expected 16 hex digits, got %q", a)
	}

	req.HasColumnHeaders = true
	if c, _ := Fingerprint(req); c == a {
		t.Error("Header flags should change the fingerprint")
	}

	if err := os.WriteFile(path, []byte("1,2,3\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite source: %v", err)
	}
	req.HasColumnHeaders = false
	if d, _ := Fingerprint(req); d == a {
		t.Error("File change should change the fingerprint")
	}

	if _, err := Fingerprint(types.ImportRequest{SourcePath: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Expected error for missing file")
	}
}
