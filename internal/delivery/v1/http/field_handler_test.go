package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/met-galaxy/field-engine/internal/usecase"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/logger"
)

type fakeFieldUC struct {
	chunkRes      *usecase.FieldChunkRes
	chunkErr      error
	chunksRes     *usecase.FieldChunksRes
	chunksErr     error
	lastChunksReq *usecase.FieldChunksReq
}

func (f *fakeFieldUC) GetFieldChunk(ctx context.Context, req *usecase.FieldChunkReq) (*usecase.FieldChunkRes, error) {
	return f.chunkRes, f.chunkErr
}

func (f *fakeFieldUC) GetFieldChunks(ctx context.Context, req *usecase.FieldChunksReq) (*usecase.FieldChunksRes, error) {
	f.lastChunksReq = req
	return f.chunksRes, f.chunksErr
}

func newTestHandler(uc usecase.FieldUC) *FieldHandler {
	return NewFieldHandler(uc, logger.NewSlogLogger(), 1, 50, 16)
}

func TestGetFieldChunkSuccess(t *testing.T) {
	uc := &fakeFieldUC{
		chunkRes: &usecase.FieldChunkRes{
			Meta: usecase.FieldChunkMeta{TargetID: 1, Chunk: usecase.ChunkXY{X: 0, Y: 0}},
			Data: []usecase.ArtworkDTO{{ID: 7, ObjectID: "obj-7"}},
		},
	}
	h := newTestHandler(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/artworks/field-chunk?targetId=1&chunkX=0&chunkY=0", nil)
	rec := httptest.NewRecorder()

	h.getFieldChunk(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body fieldChunkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success=true")
	}
	if len(body.Data) != 1 || body.Data[0].ObjectID != "obj-7" {
		t.Fatalf("unexpected data: %+v", body.Data)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"objectId":"obj-7"`)) {
		t.Fatalf("expected camelCase objectId field in wire format, got %s", rec.Body.String())
	}
}

func TestGetFieldChunkMissingTargetID(t *testing.T) {
	h := newTestHandler(&fakeFieldUC{})

	req := httptest.NewRequest(http.MethodGet, "/api/artworks/field-chunk?chunkX=0&chunkY=0", nil)
	rec := httptest.NewRecorder()

	h.getFieldChunk(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetFieldChunkUsecaseError(t *testing.T) {
	uc := &fakeFieldUC{chunkErr: e.New(e.KindTargetNotFound, e.ErrTargetNotFound)}
	h := newTestHandler(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/artworks/field-chunk?targetId=1&chunkX=0&chunkY=0", nil)
	rec := httptest.NewRecorder()

	h.getFieldChunk(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPostFieldChunksSuccess(t *testing.T) {
	uc := &fakeFieldUC{
		chunksRes: &usecase.FieldChunksRes{
			Meta: usecase.FieldChunksMeta{TargetID: 1, TotalChunks: 2, T: 0.42},
			Data: map[string]usecase.FieldChunkEntry{
				"0,0": {Chunk: usecase.ChunkXY{X: 0, Y: 0}},
				"1,0": {Chunk: usecase.ChunkXY{X: 1, Y: 0}},
			},
		},
	}
	h := newTestHandler(uc)

	body := []byte(`{"targetId":1,"chunks":[{"x":0,"y":0},{"x":1,"y":0}],"count":10}`)
	req := httptest.NewRequest(http.MethodPost, "/api/artworks/field-chunks", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.postFieldChunks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"totalChunks":2`)) {
		t.Fatalf("expected camelCase totalChunks field, got %s", rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"t":0.42`)) {
		t.Fatalf("expected top-level meta.t field, got %s", rec.Body.String())
	}
}

func TestPostFieldChunksRespectsConfiguredMaxChunks(t *testing.T) {
	h := NewFieldHandler(&fakeFieldUC{}, logger.NewSlogLogger(), 1, 50, 2)

	chunks := []map[string]int{{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 2, "y": 0}}
	payload, err := json.Marshal(map[string]interface{}{"targetId": 1, "chunks": chunks})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/artworks/field-chunks", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	h.postFieldChunks(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when chunks exceed the configured maxChunks, got %d", rec.Code)
	}
}

func TestGetFieldChunkNullSimilarityForRandSource(t *testing.T) {
	uc := &fakeFieldUC{
		chunkRes: &usecase.FieldChunkRes{
			Data: []usecase.ArtworkDTO{{ID: 1, Source: "rand", Similarity: nil}},
		},
	}
	h := newTestHandler(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/artworks/field-chunk?targetId=1&chunkX=0&chunkY=0", nil)
	rec := httptest.NewRecorder()

	h.getFieldChunk(rec, req)

	if !bytes.Contains(rec.Body.Bytes(), []byte(`"similarity":null`)) {
		t.Fatalf("expected similarity key present with null value, got %s", rec.Body.String())
	}
}

func TestPostFieldChunksClampsOutOfRangeCount(t *testing.T) {
	uc := &fakeFieldUC{chunksRes: &usecase.FieldChunksRes{}}
	h := newTestHandler(uc)

	body := []byte(`{"targetId":1,"chunks":[{"x":0,"y":0}],"count":9999}`)
	req := httptest.NewRequest(http.MethodPost, "/api/artworks/field-chunks", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.postFieldChunks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected out-of-range count to be clamped, not rejected; got %d: %s", rec.Code, rec.Body.String())
	}
	if uc.lastChunksReq == nil || uc.lastChunksReq.Count != 50 {
		t.Fatalf("expected count clamped to 50, got %+v", uc.lastChunksReq)
	}
}

func TestPostFieldChunksClampsNegativeCount(t *testing.T) {
	uc := &fakeFieldUC{chunksRes: &usecase.FieldChunksRes{}}
	h := newTestHandler(uc)

	body := []byte(`{"targetId":1,"chunks":[{"x":0,"y":0}],"count":-5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/artworks/field-chunks", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.postFieldChunks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected negative count to be clamped, not rejected; got %d: %s", rec.Code, rec.Body.String())
	}
	if uc.lastChunksReq == nil || uc.lastChunksReq.Count != 1 {
		t.Fatalf("expected count clamped to 1, got %+v", uc.lastChunksReq)
	}
}

func TestPostFieldChunksTooManyChunks(t *testing.T) {
	h := newTestHandler(&fakeFieldUC{})

	chunks := make([]map[string]int, 17)
	for i := range chunks {
		chunks[i] = map[string]int{"x": i, "y": 0}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"targetId": 1,
		"chunks":   chunks,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/artworks/field-chunks", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	h.postFieldChunks(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostFieldChunksMalformedBody(t *testing.T) {
	h := newTestHandler(&fakeFieldUC{})

	req := httptest.NewRequest(http.MethodPost, "/api/artworks/field-chunks", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	h.postFieldChunks(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestParseExcludeList(t *testing.T) {
	ids, err := parseExcludeList("1, 2,3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestParseExcludeListInvalid(t *testing.T) {
	if _, err := parseExcludeList("1,abc"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}
