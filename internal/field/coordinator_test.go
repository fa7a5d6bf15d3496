package field

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/met-galaxy/field-engine/internal/pca"
)

// fakeStore is a deterministic in-memory stand-in for the vector-store
// contract, sized to exercise the sampler without touching PostgreSQL.
type fakeStore struct {
	focal map[int64][]float32
	pool  []Candidate // shared corpus, ordered by ascending id
}

func newFakeStore() *fakeStore {
	corpus := make([]Candidate, 0, 1000)
	for id := int64(1); id <= 1000; id++ {
		sim := 0.9 - float64(id)*0.0001
		corpus = append(corpus, Candidate{ID: id, Source: SourceSim, Similarity: &sim})
	}
	return &fakeStore{
		focal: map[int64][]float32{42: unitVec(768, 1)},
		pool:  corpus,
	}
}

func unitVec(dim int, seed int) []float32 {
	v := make([]float32, dim)
	v[seed%dim] = 1
	return v
}

func (f *fakeStore) FocalEmbedding(ctx context.Context, focalID int64) ([]float32, bool, error) {
	v, ok := f.focal[focalID]
	return v, ok, nil
}

func (f *fakeStore) filtered(excludes []int64, limit int) []Candidate {
	excluded := map[int64]struct{}{}
	for _, id := range excludes {
		excluded[id] = struct{}{}
	}
	out := make([]Candidate, 0, limit)
	for _, c := range f.pool {
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (f *fakeStore) NearestNeighbors(ctx context.Context, q PoolQuery) ([]Candidate, error) {
	items := f.filtered(q.ExcludeIDs, q.Limit)
	tagged := make([]Candidate, len(items))
	for i, c := range items {
		c.Source = SourceDrift
		tagged[i] = c
	}
	return tagged, nil
}

func (f *fakeStore) SeededRandom(ctx context.Context, q PoolQuery) ([]Candidate, error) {
	items := f.filtered(q.ExcludeIDs, q.Limit)
	tagged := make([]Candidate, len(items))
	for i, c := range items {
		c.Source = SourceRand
		c.Similarity = nil
		tagged[i] = c
	}
	return tagged, nil
}

func testBasis(t *testing.T) *pca.Basis {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "basis.json")

	basis := make([][]float32, 4)
	for i := range basis {
		row := make([]float32, 768)
		row[i] = 1
		basis[i] = row
	}

	data, err := json.Marshal(map[string]interface{}{"basis": basis})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	b, err := pca.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return b
}

func TestRunSingleChunkOrigin(t *testing.T) {
	store := newFakeStore()
	basis := testBasis(t)

	res, err := RunSingleChunk(context.Background(), store, basis, SingleChunkRequest{
		FocalID:    42,
		X:          0,
		Y:          0,
		GlobalSeed: 0,
		Count:      20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Derived.T != 0 {
		t.Fatalf("expected t=0 at origin, got %v", res.Derived.T)
	}
	if len(res.Items) != 20 {
		t.Fatalf("expected 20 items, got %d", len(res.Items))
	}
	for _, it := range res.Items {
		if it.Source != SourceSim {
			t.Fatalf("expected all sim-sourced at origin, got %v", it.Source)
		}
	}
}

func TestRunSingleChunkDeterministic(t *testing.T) {
	store := newFakeStore()
	basis := testBasis(t)
	req := SingleChunkRequest{FocalID: 42, X: 10, Y: 10, GlobalSeed: 0, Count: 20}

	a, err := RunSingleChunk(context.Background(), store, basis, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := RunSingleChunk(context.Background(), store, basis, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Items) != len(b.Items) {
		t.Fatalf("length mismatch")
	}
	for i := range a.Items {
		if a.Items[i].ID != b.Items[i].ID {
			t.Fatalf("divergence at %d: %d vs %d", i, a.Items[i].ID, b.Items[i].ID)
		}
	}
}

func TestRunSingleChunkExclusion(t *testing.T) {
	store := newFakeStore()
	basis := testBasis(t)

	res, err := RunSingleChunk(context.Background(), store, basis, SingleChunkRequest{
		FocalID:    42,
		X:          1,
		Y:          0,
		GlobalSeed: 0,
		Count:      5,
		Exclude:    []int64{99, 100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	banned := map[int64]bool{42: true, 99: true, 100: true}
	for _, it := range res.Items {
		if banned[it.ID] {
			t.Fatalf("excluded id %d leaked into result", it.ID)
		}
	}
}

func TestRunSingleChunkTargetNotFound(t *testing.T) {
	store := newFakeStore()
	basis := testBasis(t)

	_, err := RunSingleChunk(context.Background(), store, basis, SingleChunkRequest{
		FocalID: 9999,
		Count:   5,
	})
	if err == nil {
		t.Fatalf("expected error for unknown focal id")
	}
}

func TestRunMultiChunkCrossChunkDedup(t *testing.T) {
	store := newFakeStore()
	basis := testBasis(t)

	results, err := RunMultiChunk(context.Background(), store, basis, MultiChunkRequest{
		FocalID:    42,
		Chunks:     []ChunkCoord{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		GlobalSeed: 0,
		Count:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 chunk results, got %d", len(results))
	}

	seen := map[int64]bool{}
	for _, r := range results {
		for _, it := range r.Items {
			if seen[it.ID] {
				t.Fatalf("duplicate id %d across chunks", it.ID)
			}
			seen[it.ID] = true
		}
	}
}

func TestRunMultiChunkRejectsTooManyChunks(t *testing.T) {
	store := newFakeStore()
	basis := testBasis(t)

	chunks := make([]ChunkCoord, 17)
	_, err := RunMultiChunk(context.Background(), store, basis, MultiChunkRequest{
		FocalID: 42,
		Chunks:  chunks,
		Count:   5,
	})
	if err == nil {
		t.Fatalf("expected error for 17 chunks")
	}
}
