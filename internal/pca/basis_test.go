package pca

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, dir string, basis [][]float32) string {
	t.Helper()
	path := filepath.Join(dir, "basis.json")
	data, err := json.Marshal(artifact{Basis: basis})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadNormalizesComponents(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, [][]float32{
		{3, 4},
		{0, 2},
	})

	b, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Rank() != 2 {
		t.Fatalf("expected rank 2, got %d", b.Rank())
	}

	c0 := b.Component(0)
	if c0[0] != 0.6 || c0[1] != 0.8 {
		t.Fatalf("expected normalized [0.6, 0.8], got %v", c0)
	}
}

func TestLoadRejectsTooFewComponents(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, [][]float32{{1, 0}})

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for single-component basis")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/basis.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
