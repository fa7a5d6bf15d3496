package field

import "context"

// Source identifies which retrieval produced a candidate.
type Source string

const (
	SourceSim  Source = "sim"
	SourceDrift Source = "drift"
	SourceRand Source = "rand"
)

// Candidate is one row returned by a pool query, tagged with its source and
// optional similarity score (nil for the random pool).
type Candidate struct {
	ID               int64
	Similarity       *float64
	Source           Source
	ObjectID         string
	Title            string
	Artist           string
	ImageURL         string
	OriginalImageURL string
	ImageSource      string
}

// Pool is an ordered, exhaustible sequence of candidates drawn by one of the
// three retrieval queries.
type Pool struct {
	items []Candidate
}

// NewPool wraps a slice of candidates already tagged with their source.
func NewPool(items []Candidate) *Pool {
	return &Pool{items: items}
}

// Len returns the number of remaining, unconsumed items.
func (p *Pool) Len() int {
	return len(p.items)
}

// Rotate returns a new Pool whose traversal starts at offset, wrapping around.
// It does not mutate the receiver.
func (p *Pool) Rotate(offset int) *Pool {
	n := len(p.items)
	if n == 0 {
		return NewPool(nil)
	}
	offset = ((offset % n) + n) % n
	rotated := make([]Candidate, n)
	copy(rotated, p.items[offset:])
	copy(rotated[n-offset:], p.items[:offset])
	return NewPool(rotated)
}

// Next returns the next candidate whose ID is not in used, advancing past
// and discarding any skipped entries. ok is false when the pool is exhausted
// without finding an eligible candidate.
func (p *Pool) Next(used map[int64]struct{}) (Candidate, bool) {
	for len(p.items) > 0 {
		c := p.items[0]
		p.items = p.items[1:]
		if _, seen := used[c.ID]; !seen {
			return c, true
		}
	}
	return Candidate{}, false
}

// TagSource stamps every candidate with src, overriding whatever the store
// set. The store reports rows for a query; which pool that query served is
// known only to the caller that issued it.
func TagSource(items []Candidate, src Source) []Candidate {
	tagged := make([]Candidate, len(items))
	for i, c := range items {
		c.Source = src
		tagged[i] = c
	}
	return tagged
}

// PoolSet bundles the three pools acquired for one chunk.
type PoolSet struct {
	Sim   *Pool
	Drift *Pool
	Rand  *Pool
}

// PoolQuery parameterizes one retrieval against the vector store.
type PoolQuery struct {
	FocalID       int64
	QueryVector   []float32 // nil for the random pool
	StoreSeed     float64   // only meaningful for the random pool
	ExcludeIDs    []int64
	Limit         int
}

// Store is the vector-store contract the engine depends on (§6): nearest
// neighbor under cosine distance, and a seeded reproducible random order,
// both restricted to eligible rows.
type Store interface {
	FocalEmbedding(ctx context.Context, focalID int64) ([]float32, bool, error)
	NearestNeighbors(ctx context.Context, q PoolQuery) ([]Candidate, error)
	SeededRandom(ctx context.Context, q PoolQuery) ([]Candidate, error)
}
