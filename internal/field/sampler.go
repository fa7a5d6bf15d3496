package field

import "github.com/met-galaxy/field-engine/pkg/fieldmath"

// Weights are the normalized per-source draw probabilities for a given
// temperature t.
type Weights struct {
	Sim   float64
	Drift float64
	Rand  float64
}

// WeightsAt computes the radius-driven mixture weights for temperature t.
func WeightsAt(t float64) Weights {
	wSim := (1 - t) * (1 - t)
	wDrift := 2 * t * (1 - t)
	wRand := t * t

	total := wSim + wDrift + wRand
	if total == 0 {
		total = 1
	}

	return Weights{
		Sim:   wSim / total,
		Drift: wDrift / total,
		Rand:  wRand / total,
	}
}

// RotationOffset computes the pool-rotation offset for the sim/drift pools
// per §4.5. singleChunk selects between the single- and multi-chunk offset
// schemes; chunkIndex and globalSeed are only consulted in multi-chunk mode.
func RotationOffset(x, y int, globalSeed uint32, chunkIndex int, singleChunk bool) int {
	radius := DeriveChunk(x, y).R

	if singleChunk {
		if radius < 2 {
			return int(fieldmath.Hash32(int64(x+100), int64(y+100)) % 50)
		}
		return 0
	}

	if radius < 3 {
		return int(fieldmath.Hash32(int64(x+100), int64(y+100), int64(globalSeed), int64(chunkIndex)) % 100)
	}
	return chunkIndex * 25
}

// fallbackOrder lists the pools to try, in order, once a primary pool pick
// is exhausted.
func fallbackOrder(primary Source) [2]Source {
	switch primary {
	case SourceSim:
		return [2]Source{SourceDrift, SourceRand}
	case SourceDrift:
		return [2]Source{SourceSim, SourceRand}
	default:
		return [2]Source{SourceDrift, SourceSim}
	}
}

func poolFor(set PoolSet, s Source) *Pool {
	switch s {
	case SourceSim:
		return set.Sim
	case SourceDrift:
		return set.Drift
	default:
		return set.Rand
	}
}

// Sample draws up to count candidates from set using weights w and rng,
// skipping any id already present in used. used is mutated to record every
// id picked, so callers can thread it across chunks for cross-chunk dedup.
// The result may be shorter than count if all pools are exhausted first.
func Sample(set PoolSet, w Weights, count int, rng *fieldmath.RNG, used map[int64]struct{}) []Candidate {
	result := make([]Candidate, 0, count)

	for i := 0; i < count; i++ {
		u := rng.Float64()

		var primary Source
		switch {
		case u < w.Sim:
			primary = SourceSim
		case u < w.Sim+w.Drift:
			primary = SourceDrift
		default:
			primary = SourceRand
		}

		order := [3]Source{primary}
		fb := fallbackOrder(primary)
		order[1], order[2] = fb[0], fb[1]

		var (
			picked Candidate
			ok     bool
		)
		for _, src := range order {
			picked, ok = poolFor(set, src).Next(used)
			if ok {
				break
			}
		}

		if !ok {
			break
		}

		used[picked.ID] = struct{}{}
		result = append(result, picked)
	}

	return result
}
