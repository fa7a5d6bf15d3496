package usecase

import "context"

// FieldUC exposes the field-sampling engine to the delivery layer.
type FieldUC interface {
	GetFieldChunk(ctx context.Context, req *FieldChunkReq) (*FieldChunkRes, error)
	GetFieldChunks(ctx context.Context, req *FieldChunksReq) (*FieldChunksRes, error)
}
