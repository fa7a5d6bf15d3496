package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/met-galaxy/field-engine/internal/field"
	"github.com/met-galaxy/field-engine/internal/pca"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FieldUseCase orchestrates the field-sampling engine and records analytics
// telemetry for every served chunk.
type FieldUseCase struct {
	store      field.Store
	basis      *pca.Basis
	outboxRepo OutboxRepository
	dbPool     transaction.Transactional
	logger     logger.Logger
	maxChunks  int
}

func NewFieldUC(
	store field.Store,
	basis *pca.Basis,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
	maxChunks int,
) *FieldUseCase {
	return &FieldUseCase{
		store:      store,
		basis:      basis,
		outboxRepo: outboxRepo,
		dbPool:     dbPool,
		logger:     logger,
		maxChunks:  maxChunks,
	}
}

// GetFieldChunk samples one chunk around the focal artwork.
func (f *FieldUseCase) GetFieldChunk(ctx context.Context, req *FieldChunkReq) (*FieldChunkRes, error) {
	const op = "FieldUseCase.GetFieldChunk"

	if f.basis == nil {
		return nil, e.New(e.KindPcaUnavailable, e.ErrPcaUnavailable)
	}

	result, err := field.RunSingleChunk(ctx, f.store, f.basis, field.SingleChunkRequest{
		FocalID:    req.TargetID,
		X:          req.ChunkX,
		Y:          req.ChunkY,
		GlobalSeed: req.Seed,
		Count:      req.Count,
		Exclude:    req.Exclude,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := toFieldChunkRes(req.TargetID, result)
	f.recordServed(ctx, req.TargetID, []*field.ChunkResult{result})

	return res, nil
}

// GetFieldChunks samples a batch of chunks sharing one focal artwork and one
// cross-chunk deduplication set.
func (f *FieldUseCase) GetFieldChunks(ctx context.Context, req *FieldChunksReq) (*FieldChunksRes, error) {
	const op = "FieldUseCase.GetFieldChunks"

	if f.basis == nil {
		return nil, e.New(e.KindPcaUnavailable, e.ErrPcaUnavailable)
	}

	coords := make([]field.ChunkCoord, len(req.Chunks))
	for i, c := range req.Chunks {
		coords[i] = field.ChunkCoord{X: c.X, Y: c.Y}
	}

	results, err := field.RunMultiChunk(ctx, f.store, f.basis, field.MultiChunkRequest{
		FocalID:    req.TargetID,
		Chunks:     coords,
		GlobalSeed: req.Seed,
		Count:      req.Count,
		ExcludeIDs: req.ExcludeIDs,
		MaxChunks:  f.maxChunks,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	data := make(map[string]FieldChunkEntry, len(results))
	for _, r := range results {
		key := chunkKey(r.Coord.X, r.Coord.Y)
		data[key] = FieldChunkEntry{
			Chunk:    ChunkXY{X: r.Coord.X, Y: r.Coord.Y},
			Artworks: toArtworkDTOs(r.Items),
			Meta:     toFieldChunkMeta(req.TargetID, r),
		}
	}

	f.recordServed(ctx, req.TargetID, results)

	var t float64
	if len(results) > 0 {
		t = round(results[0].Derived.T, 2)
	}

	return &FieldChunksRes{
		Meta: FieldChunksMeta{
			TargetID:       req.TargetID,
			TotalChunks:    len(results),
			GlobalExcludes: req.ExcludeIDs,
			Seed:           req.Seed,
			T:              t,
		},
		Data: data,
	}, nil
}

// recordServed writes a FieldChunkServed outbox row transactionally. Failure
// is logged and never surfaces to the caller: this path is pure telemetry.
func (f *FieldUseCase) recordServed(ctx context.Context, focalID int64, results []*field.ChunkResult) {
	const op = "FieldUseCase.recordServed"

	payload, err := buildServedPayload(focalID, results)
	if err != nil {
		f.logger.Warnf("%s: failed to build payload: %v", op, err)
		return
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, f.dbPool)
	if err != nil {
		f.logger.Warnf("%s: failed to open transaction: %v", op, err)
		return
	}
	defer func() {
		if tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	event := &OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: FieldChunkServedEvent,
		Key:       focalID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}

	if _, err := f.outboxRepo.Create(ctx, event); err != nil {
		f.logger.Warnf("%s: failed to enqueue event: %v", op, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		f.logger.Warnf("%s: failed to commit: %v", op, err)
	}
}

func buildServedPayload(focalID int64, results []*field.ChunkResult) ([]byte, error) {
	chunks := make([]ServedChunkRecord, len(results))
	for i, r := range results {
		ids := make([]int64, len(r.Items))
		sources := make([]string, len(r.Items))
		for j, it := range r.Items {
			ids[j] = it.ID
			sources[j] = string(it.Source)
		}

		chunks[i] = ServedChunkRecord{
			X:           r.Coord.X,
			Y:           r.Coord.Y,
			R:           r.Derived.R,
			Theta:       r.Derived.Theta,
			T:           r.Derived.T,
			Weights:     toWeightsDTO(r.Weights),
			ReturnedIDs: ids,
			Sources:     sources,
		}
	}

	return json.Marshal(FieldChunkServedPayload{
		FocalID:  focalID,
		Chunks:   chunks,
		ServedAt: time.Now(),
	})
}

func chunkKey(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

func toFieldChunkRes(targetID int64, r *field.ChunkResult) *FieldChunkRes {
	return &FieldChunkRes{
		Meta: toFieldChunkMeta(targetID, r),
		Data: toArtworkDTOs(r.Items),
	}
}

func toFieldChunkMeta(targetID int64, r *field.ChunkResult) FieldChunkMeta {
	return FieldChunkMeta{
		TargetID: targetID,
		Chunk:    ChunkXY{X: r.Coord.X, Y: r.Coord.Y},
		R:        round(r.Derived.R, 2),
		Theta:    round(r.Derived.Theta, 2),
		T:        round(r.Derived.T, 2),
		Weights:  toWeightsDTO(r.Weights),
		Seed:     r.Seed,
	}
}

func toWeightsDTO(w field.Weights) WeightsDTO {
	return WeightsDTO{
		Sim:   round(w.Sim, 3),
		Drift: round(w.Drift, 3),
		Rand:  round(w.Rand, 3),
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func toArtworkDTOs(items []field.Candidate) []ArtworkDTO {
	out := make([]ArtworkDTO, len(items))
	for i, c := range items {
		out[i] = ArtworkDTO{
			ID:               c.ID,
			ObjectID:         c.ObjectID,
			Title:            c.Title,
			Artist:           c.Artist,
			ImageURL:         c.ImageURL,
			OriginalImageURL: c.OriginalImageURL,
			ImageSource:      c.ImageSource,
			Similarity:       c.Similarity,
			Source:           string(c.Source),
		}
	}
	return out
}
