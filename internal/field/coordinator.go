package field

import (
	"context"
	"sort"

	"github.com/met-galaxy/field-engine/internal/pca"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/fieldmath"
	"golang.org/x/sync/errgroup"
)

const (
	minCount              = 1
	maxCount              = 50
	defaultMaxMultiChunks = 16
	tightPoolSingle       = 200
	driftPoolSingle       = 400
	randPoolSingle        = 800
)

func clampCount(count int) int {
	if count < minCount {
		return minCount
	}
	if count > maxCount {
		return maxCount
	}
	return count
}

// ChunkCoord identifies one cell of the field. It carries only the lattice
// coordinates; RunMultiChunk tracks each chunk's original request index
// separately for result keying and rotation offsets.
type ChunkCoord struct {
	X, Y int
}

// ChunkResult is the ranked candidate list plus metadata for one chunk.
type ChunkResult struct {
	Coord   ChunkCoord
	Derived Derived
	Weights Weights
	Seed    uint32
	Items   []Candidate
}

// SingleChunkRequest is the input to RunSingleChunk (§4.6, §6).
type SingleChunkRequest struct {
	FocalID    int64
	X, Y       int
	GlobalSeed uint32
	Count      int
	Exclude    []int64
}

// RunSingleChunk executes the field transform, pool acquisition and mixture
// sampler for exactly one chunk.
func RunSingleChunk(ctx context.Context, store Store, basis *pca.Basis, req SingleChunkRequest) (*ChunkResult, error) {
	if req.FocalID <= 0 {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidTargetID)
	}

	count := clampCount(req.Count)
	hardExcludes := append([]int64{req.FocalID}, req.Exclude...)

	focalVec, found, err := store.FocalEmbedding(ctx, req.FocalID)
	if err != nil {
		return nil, e.New(e.KindStoreFailure, e.Wrap("field.RunSingleChunk", err))
	}
	if !found {
		return nil, e.New(e.KindTargetNotFound, e.ErrTargetNotFound)
	}

	derived := DeriveChunk(req.X, req.Y)
	seed := SeedFor(req.FocalID, req.X, req.Y, req.GlobalSeed)
	rng := fieldmath.NewRNG(seed)

	qv := QueryVector(focalVec, basis, derived.Theta, derived.T, rng)

	set, err := acquirePools(ctx, store, req.FocalID, focalVec, qv, hardExcludes, seed, tightPoolSingle, driftPoolSingle, randPoolSingle)
	if err != nil {
		return nil, err
	}

	offset := RotationOffset(req.X, req.Y, req.GlobalSeed, 0, true)
	set.Sim = set.Sim.Rotate(offset)
	set.Drift = set.Drift.Rotate(offset)

	weights := WeightsAt(derived.T)
	used := make(map[int64]struct{}, len(hardExcludes))
	for _, id := range hardExcludes {
		used[id] = struct{}{}
	}

	items := Sample(*set, weights, count, rng, used)

	return &ChunkResult{
		Coord:   ChunkCoord{X: req.X, Y: req.Y},
		Derived: derived,
		Weights: weights,
		Seed:    seed,
		Items:   items,
	}, nil
}

// MultiChunkRequest is the input to RunMultiChunk (§4.6, §6). MaxChunks
// bounds len(Chunks); zero falls back to defaultMaxMultiChunks.
type MultiChunkRequest struct {
	FocalID    int64
	Chunks     []ChunkCoord
	GlobalSeed uint32
	Count      int
	ExcludeIDs []int64
	MaxChunks  int
}

// RunMultiChunk executes the coordinator's multi-chunk mode: a single shared
// tight pool, per-chunk drift/random pools, and a monotonically growing
// cross-chunk used-set.
func RunMultiChunk(ctx context.Context, store Store, basis *pca.Basis, req MultiChunkRequest) ([]*ChunkResult, error) {
	if req.FocalID <= 0 {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidTargetID)
	}
	maxChunks := req.MaxChunks
	if maxChunks <= 0 {
		maxChunks = defaultMaxMultiChunks
	}
	n := len(req.Chunks)
	if n < 1 || n > maxChunks {
		return nil, e.New(e.KindBadRequest, e.ErrTooManyChunks)
	}

	count := clampCount(req.Count)
	hardExcludes := append([]int64{req.FocalID}, req.ExcludeIDs...)

	focalVec, found, err := store.FocalEmbedding(ctx, req.FocalID)
	if err != nil {
		return nil, e.New(e.KindStoreFailure, e.Wrap("field.RunMultiChunk", err))
	}
	if !found {
		return nil, e.New(e.KindTargetNotFound, e.ErrTargetNotFound)
	}

	// original index is preserved for rotation offsets and result keying
	// even after sorting by radius ascending.
	type indexed struct {
		coord ChunkCoord
		index int
	}
	ordered := make([]indexed, n)
	for i, c := range req.Chunks {
		ordered[i] = indexed{coord: c, index: i}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return DeriveChunk(ordered[i].coord.X, ordered[i].coord.Y).R < DeriveChunk(ordered[j].coord.X, ordered[j].coord.Y).R
	})

	tightLimit := n * 125
	if tightLimit > 500 {
		tightLimit = 500
	}

	sharedTight, err := store.NearestNeighbors(ctx, PoolQuery{
		FocalID:     req.FocalID,
		QueryVector: fieldmath.Normalize(focalVec),
		ExcludeIDs:  hardExcludes,
		Limit:       tightLimit,
	})
	if err != nil {
		return nil, e.New(e.KindStoreFailure, e.Wrap("field.RunMultiChunk.tight", err))
	}
	sharedPool := NewPool(TagSource(sharedTight, SourceSim))

	globalUsed := make(map[int64]struct{}, len(hardExcludes))
	for _, id := range hardExcludes {
		globalUsed[id] = struct{}{}
	}

	results := make([]*ChunkResult, n)
	for _, it := range ordered {
		derived := DeriveChunk(it.coord.X, it.coord.Y)
		seed := SeedFor(req.FocalID, it.coord.X, it.coord.Y, req.GlobalSeed)
		rng := fieldmath.NewRNG(seed)

		qv := QueryVector(focalVec, basis, derived.Theta, derived.T, rng)

		driftLimit := 400
		if perChunkCap := n * 400; perChunkCap < driftLimit {
			driftLimit = perChunkCap
		}
		randLimit := n * 300
		if randLimit > 800 {
			randLimit = 800
		}

		g, gctx := errgroup.WithContext(ctx)
		var driftItems, randItems []Candidate
		var driftErr, randErr error

		g.Go(func() error {
			driftItems, driftErr = store.NearestNeighbors(gctx, PoolQuery{
				FocalID:     req.FocalID,
				QueryVector: qv,
				ExcludeIDs:  hardExcludes,
				Limit:       driftLimit,
			})
			return driftErr
		})
		g.Go(func() error {
			randItems, randErr = store.SeededRandom(gctx, PoolQuery{
				FocalID:    req.FocalID,
				StoreSeed:  StoreSeed(seed),
				ExcludeIDs: hardExcludes,
				Limit:      randLimit,
			})
			return randErr
		})
		if err := g.Wait(); err != nil {
			return nil, e.New(e.KindStoreFailure, e.Wrap("field.RunMultiChunk.chunk", err))
		}

		offset := RotationOffset(it.coord.X, it.coord.Y, req.GlobalSeed, it.index, false)
		set := PoolSet{
			Sim:   sharedPool.Rotate(offset),
			Drift: NewPool(TagSource(driftItems, SourceDrift)).Rotate(offset),
			Rand:  NewPool(TagSource(randItems, SourceRand)),
		}

		weights := WeightsAt(derived.T)
		items := Sample(set, weights, count, rng, globalUsed)

		results[it.index] = &ChunkResult{
			Coord:   it.coord,
			Derived: derived,
			Weights: weights,
			Seed:    seed,
			Items:   items,
		}
	}

	return results, nil
}

func acquirePools(ctx context.Context, store Store, focalID int64, focalVec, queryVec []float32, excludes []int64, seed uint32, tightLimit, driftLimit, randLimit int) (*PoolSet, error) {
	g, gctx := errgroup.WithContext(ctx)

	var sim, drift, rnd []Candidate
	var simErr, driftErr, randErr error

	g.Go(func() error {
		sim, simErr = store.NearestNeighbors(gctx, PoolQuery{
			FocalID:     focalID,
			QueryVector: fieldmath.Normalize(focalVec),
			ExcludeIDs:  excludes,
			Limit:       tightLimit,
		})
		return simErr
	})
	g.Go(func() error {
		drift, driftErr = store.NearestNeighbors(gctx, PoolQuery{
			FocalID:     focalID,
			QueryVector: queryVec,
			ExcludeIDs:  excludes,
			Limit:       driftLimit,
		})
		return driftErr
	})
	g.Go(func() error {
		rnd, randErr = store.SeededRandom(gctx, PoolQuery{
			FocalID:    focalID,
			StoreSeed:  StoreSeed(seed),
			ExcludeIDs: excludes,
			Limit:      randLimit,
		})
		return randErr
	})

	if err := g.Wait(); err != nil {
		return nil, e.New(e.KindStoreFailure, e.Wrap("field.acquirePools", err))
	}

	return &PoolSet{
		Sim:   NewPool(TagSource(sim, SourceSim)),
		Drift: NewPool(TagSource(drift, SourceDrift)),
		Rand:  NewPool(TagSource(rnd, SourceRand)),
	}, nil
}
