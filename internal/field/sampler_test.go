package field

import (
	"testing"

	"github.com/met-galaxy/field-engine/pkg/fieldmath"
)

func mkPool(ids ...int64) *Pool {
	items := make([]Candidate, len(ids))
	for i, id := range ids {
		items[i] = Candidate{ID: id, Source: SourceSim}
	}
	return NewPool(items)
}

func TestWeightsAtOrigin(t *testing.T) {
	w := WeightsAt(0)
	if w.Sim != 1 || w.Drift != 0 || w.Rand != 0 {
		t.Fatalf("expected {1,0,0} at t=0, got %+v", w)
	}
}

func TestWeightsAtPeriphery(t *testing.T) {
	w := WeightsAt(1)
	if w.Sim != 0 || w.Drift != 0 || w.Rand != 1 {
		t.Fatalf("expected {0,0,1} at t=1, got %+v", w)
	}
}

func TestWeightsSumToOne(t *testing.T) {
	for _, t64 := range []float64{0, 0.2, 0.5, 0.8, 1} {
		w := WeightsAt(t64)
		sum := w.Sim + w.Drift + w.Rand
		if sum < 0.999 || sum > 1.001 {
			t.Fatalf("weights at t=%v sum to %v, want ~1", t64, sum)
		}
	}
}

func TestSampleDeterministic(t *testing.T) {
	run := func() []Candidate {
		set := PoolSet{
			Sim:   mkPool(1, 2, 3, 4, 5),
			Drift: mkPool(10, 11, 12, 13),
			Rand:  mkPool(100, 101, 102, 103, 104),
		}
		rng := fieldmath.NewRNG(42)
		used := map[int64]struct{}{}
		return Sample(set, WeightsAt(0.3), 5, rng, used)
	}

	a := run()
	b := run()

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("divergence at index %d: %d vs %d", i, a[i].ID, b[i].ID)
		}
	}
}

func TestSampleRespectsUsed(t *testing.T) {
	set := PoolSet{
		Sim:   mkPool(1, 2),
		Drift: mkPool(1, 2),
		Rand:  mkPool(1, 2),
	}
	used := map[int64]struct{}{1: {}}
	rng := fieldmath.NewRNG(1)

	result := Sample(set, WeightsAt(0), 5, rng, used)
	for _, c := range result {
		if c.ID == 1 {
			t.Fatalf("id 1 should have been excluded via used set")
		}
	}
}

func TestSampleStopsWhenExhausted(t *testing.T) {
	set := PoolSet{
		Sim:   mkPool(1),
		Drift: mkPool(2),
		Rand:  mkPool(3),
	}
	rng := fieldmath.NewRNG(9)
	used := map[int64]struct{}{}

	result := Sample(set, WeightsAt(0.5), 10, rng, used)
	if len(result) != 3 {
		t.Fatalf("expected 3 items from exhausted pools, got %d", len(result))
	}
}

func TestRotationOffsetSingleVsMultiAsymmetry(t *testing.T) {
	single := RotationOffset(0, 1, 7, 0, true)
	multi := RotationOffset(0, 1, 7, 0, false)
	// The two schemes hash a different number of arguments by design; they
	// are not expected to agree, but both must stay within their modulus.
	if single < 0 || single >= 50 {
		t.Fatalf("single-chunk offset out of range: %d", single)
	}
	if multi < 0 || multi >= 100 {
		t.Fatalf("multi-chunk offset out of range: %d", multi)
	}
}

func TestRotationOffsetFarChunkMultiChunk(t *testing.T) {
	offset := RotationOffset(5, 5, 0, 3, false)
	if offset != 75 {
		t.Fatalf("expected chunkIndex*25=75 for far chunk, got %d", offset)
	}
}
