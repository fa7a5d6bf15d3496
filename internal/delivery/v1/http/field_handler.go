package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/met-galaxy/field-engine/internal/usecase"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/logger"
)

const minChunks = 1

type FieldHandler struct {
	fieldUC   usecase.FieldUC
	logger    logger.Logger
	minCount  int
	maxCount  int
	maxChunks int
}

func NewFieldHandler(fieldUC usecase.FieldUC, logger logger.Logger, minCount, maxCount, maxChunks int) *FieldHandler {
	return &FieldHandler{
		fieldUC:   fieldUC,
		logger:    logger,
		minCount:  minCount,
		maxCount:  maxCount,
		maxChunks: maxChunks,
	}
}

// fieldChunkResponse envelope for GET /api/artworks/field-chunk.
type fieldChunkResponse struct {
	Success      bool                  `json:"success"`
	Meta         usecase.FieldChunkMeta `json:"meta"`
	Data         []usecase.ArtworkDTO  `json:"data"`
	ResponseTime string                `json:"responseTime"`
}

// fieldChunksResponse envelope for POST /api/artworks/field-chunks.
type fieldChunksResponse struct {
	Success      bool                              `json:"success"`
	Meta         usecase.FieldChunksMeta           `json:"meta"`
	Data         map[string]usecase.FieldChunkEntry `json:"data"`
	ResponseTime string                            `json:"responseTime"`
}

// getFieldChunk handles GET /api/artworks/field-chunk.
func (h *FieldHandler) getFieldChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const op = "FieldHandler.getFieldChunk"

	req, err := h.parseFieldChunkQuery(r)
	if err != nil {
		h.logger.Warnf("%s: %v", op, err)
		WriteError(w, err)
		return
	}

	res, err := h.fieldUC.GetFieldChunk(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s: %v", op, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, fieldChunkResponse{
		Success:      true,
		Meta:         res.Meta,
		Data:         res.Data,
		ResponseTime: time.Since(start).String(),
	})
}

// postFieldChunks handles POST /api/artworks/field-chunks.
func (h *FieldHandler) postFieldChunks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const op = "FieldHandler.postFieldChunks"

	req, err := h.parseFieldChunksBody(r)
	if err != nil {
		h.logger.Warnf("%s: %v", op, err)
		WriteError(w, err)
		return
	}

	res, err := h.fieldUC.GetFieldChunks(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s: %v", op, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, fieldChunksResponse{
		Success:      true,
		Meta:         res.Meta,
		Data:         res.Data,
		ResponseTime: time.Since(start).String(),
	})
}

func (h *FieldHandler) parseFieldChunkQuery(r *http.Request) (*usecase.FieldChunkReq, error) {
	q := r.URL.Query()

	targetID, err := parsePositiveInt64(q.Get("targetId"))
	if err != nil {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidTargetID)
	}

	chunkX, err := strconv.Atoi(q.Get("chunkX"))
	if err != nil {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidChunk)
	}
	chunkY, err := strconv.Atoi(q.Get("chunkY"))
	if err != nil {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidChunk)
	}

	count, err := parseCountOrDefault(q.Get("count"), h.minCount, h.maxCount)
	if err != nil {
		return nil, e.New(e.KindBadRequest, err)
	}

	seed := parseSeedOrDefault(q.Get("seed"))

	exclude, err := parseExcludeList(q.Get("exclude"))
	if err != nil {
		return nil, e.New(e.KindBadRequest, err)
	}

	return usecase.NewFieldChunkReq(targetID, chunkX, chunkY, count, seed, exclude), nil
}

type fieldChunksRequestBody struct {
	TargetID   int64              `json:"targetId"`
	Chunks     []usecase.ChunkXY  `json:"chunks"`
	Count      int                `json:"count"`
	Seed       uint32             `json:"seed"`
	ExcludeIDs []int64            `json:"excludeIds"`
}

func (h *FieldHandler) parseFieldChunksBody(r *http.Request) (*usecase.FieldChunksReq, error) {
	var body fieldChunksRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidBody)
	}

	if body.TargetID <= 0 {
		return nil, e.New(e.KindBadRequest, e.ErrInvalidTargetID)
	}

	if len(body.Chunks) < minChunks || len(body.Chunks) > h.maxChunks {
		return nil, e.New(e.KindBadRequest, e.ErrTooManyChunks)
	}

	count := clampCountValue(body.Count, h.minCount, h.maxCount)

	return usecase.NewFieldChunksReq(body.TargetID, body.Chunks, count, body.Seed, body.ExcludeIDs), nil
}

func parsePositiveInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, e.ErrInvalidTargetID
	}
	return v, nil
}

func parseCountOrDefault(s string, min, max int) (int, error) {
	if s == "" {
		return max, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, e.ErrBadRequest
	}

	return clampCountValue(v, min, max), nil
}

// clampCountValue clamps a requested count into [min,max], treating 0 (the
// JSON zero-value for an omitted count) as "use the maximum" rather than as
// an explicit request for zero results.
func clampCountValue(count, min, max int) int {
	if count == 0 {
		return max
	}
	if count < min {
		return min
	}
	if count > max {
		return max
	}
	return count
}

func parseSeedOrDefault(s string) uint32 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func parseExcludeList(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, e.ErrBadRequest
		}
		out = append(out, v)
	}
	return out, nil
}
