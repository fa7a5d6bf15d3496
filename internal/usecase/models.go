package usecase

import "time"

// FIELD CHUNK (single)

// FieldChunkReq is one chunk lookup against the field around a focal artwork.
type FieldChunkReq struct {
	TargetID int64
	ChunkX   int
	ChunkY   int
	Count    int
	Seed     uint32
	Exclude  []int64
}

// FieldChunkRes is the rendered response for a single chunk request.
type FieldChunkRes struct {
	Meta FieldChunkMeta
	Data []ArtworkDTO
}

// FieldChunkMeta carries the derived quantities a caller can use to sanity
// check or visualize the sampling decision.
type FieldChunkMeta struct {
	TargetID int64      `json:"targetId"`
	Chunk    ChunkXY    `json:"chunk"`
	R        float64    `json:"r"`
	Theta    float64    `json:"theta"`
	T        float64    `json:"t"`
	Weights  WeightsDTO `json:"weights"`
	Seed     uint32     `json:"seed"`
}

// ChunkXY is a lattice coordinate relative to the focal artwork.
type ChunkXY struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WeightsDTO is the normalized per-source mixture weight at the chunk's
// temperature, rounded for display.
type WeightsDTO struct {
	Sim   float64 `json:"sim"`
	Drift float64 `json:"drift"`
	Rand  float64 `json:"rand"`
}

// ArtworkDTO is one artwork as rendered over the wire.
type ArtworkDTO struct {
	ID               int64    `json:"id"`
	ObjectID         string   `json:"objectId"`
	Title            string   `json:"title"`
	Artist           string   `json:"artist"`
	ImageURL         string   `json:"imageUrl"`
	OriginalImageURL string   `json:"originalImageUrl"`
	ImageSource      string   `json:"imageSource"`
	Similarity       *float64 `json:"similarity"`
	Source           string   `json:"source"`
}

// FIELD CHUNKS (multi)

// FieldChunksReq is a batch of chunk lookups sharing one focal artwork.
type FieldChunksReq struct {
	TargetID   int64
	Chunks     []ChunkXY
	Count      int
	Seed       uint32
	ExcludeIDs []int64
}

// FieldChunksRes is the rendered response for a multi-chunk request, keyed
// by "x,y" to preserve the caller's original coordinates.
type FieldChunksRes struct {
	Meta FieldChunksMeta
	Data map[string]FieldChunkEntry
}

// FieldChunksMeta summarizes the batch request. T is the temperature of the
// first chunk in the batch (by the caller's original ordering): each chunk
// carries its own t in its per-chunk FieldChunkEntry.Meta, so this top-level
// value is a representative sample rather than an aggregate.
type FieldChunksMeta struct {
	TargetID       int64   `json:"targetId"`
	TotalChunks    int     `json:"totalChunks"`
	GlobalExcludes []int64 `json:"globalExcludes"`
	Seed           uint32  `json:"seed"`
	T              float64 `json:"t"`
}

// FieldChunkEntry is one chunk's result inside a multi-chunk response.
type FieldChunkEntry struct {
	Chunk    ChunkXY      `json:"chunk"`
	Artworks []ArtworkDTO `json:"artworks"`
	Meta     FieldChunkMeta `json:"meta"`
}

// OUTBOX / ANALYTICS

// OutboxStatus tracks an outbox row through the relay pipeline.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEventType discriminates the payload shape stored in an outbox row.
type OutboxEventType string

const (
	FieldChunkServedEvent OutboxEventType = "field_chunk_served"
)

// OutboxEvent is one row of the transactional outbox.
type OutboxEvent struct {
	ID            int64
	EventID       string
	EventType     OutboxEventType
	Key           int64 // focal artwork id, used as the Kafka partition key
	Payload       []byte
	Status        OutboxStatus
	CreatedAt     time.Time
	ProcessingStartedAt *time.Time
	ProcessedAt   *time.Time
}

// WriteRawMessageReq relays an already-serialized outbox payload verbatim.
type WriteRawMessageReq struct {
	Key     int64
	Payload []byte
}

// FieldChunkServedPayload is the JSON body recorded in the outbox and
// relayed to the analytics topic once per served request. It is pure
// telemetry: nothing downstream of it feeds back into a future response.
type FieldChunkServedPayload struct {
	FocalID  int64               `json:"focalId"`
	Chunks   []ServedChunkRecord `json:"chunks"`
	ServedAt time.Time           `json:"servedAt"`
}

// ServedChunkRecord is one chunk's contribution to a FieldChunkServedPayload.
type ServedChunkRecord struct {
	X           int        `json:"x"`
	Y           int        `json:"y"`
	R           float64    `json:"r"`
	Theta       float64    `json:"theta"`
	T           float64    `json:"t"`
	Weights     WeightsDTO `json:"weights"`
	ReturnedIDs []int64    `json:"returnedIds"`
	Sources     []string   `json:"sources"`
}

// MAPPERS

func NewFieldChunkReq(targetID int64, x, y, count int, seed uint32, exclude []int64) *FieldChunkReq {
	return &FieldChunkReq{
		TargetID: targetID,
		ChunkX:   x,
		ChunkY:   y,
		Count:    count,
		Seed:     seed,
		Exclude:  exclude,
	}
}

func NewFieldChunksReq(targetID int64, chunks []ChunkXY, count int, seed uint32, excludeIDs []int64) *FieldChunksReq {
	return &FieldChunksReq{
		TargetID:   targetID,
		Chunks:     chunks,
		Count:      count,
		Seed:       seed,
		ExcludeIDs: excludeIDs,
	}
}

func NewWriteRawMessageReq(key int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{Key: key, Payload: payload}
}
