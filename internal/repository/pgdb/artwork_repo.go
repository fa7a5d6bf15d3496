package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/met-galaxy/field-engine/internal/domain"
	"github.com/met-galaxy/field-engine/internal/field"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ArtworkRepo implements field.Store directly against PostgreSQL + pgvector:
// the `<=>` cosine-distance operator for nearest neighbors and a seeded
// setseed()/ORDER BY random() for the reproducible random pool.
type ArtworkRepo struct {
	pool *pgxpool.Pool
}

func NewArtworkRepo(pool *pgxpool.Pool) *ArtworkRepo {
	return &ArtworkRepo{pool: pool}
}

const eligiblePredicate = "embedding IS NOT NULL AND local_image_url IS NOT NULL AND local_image_url <> ''"

// FocalEmbedding retrieves the L2-normalized embedding of an eligible artwork.
func (a *ArtworkRepo) FocalEmbedding(ctx context.Context, focalID int64) ([]float32, bool, error) {
	query := `
		SELECT embedding
		FROM artworks
		WHERE id = $1 AND ` + eligiblePredicate + `
	`

	var raw string
	err := a.pool.QueryRow(ctx, query, focalID).Scan(&raw)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	vec, err := parseVector(raw)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return vec, true, nil
}

// NearestNeighbors orders eligible rows by ascending cosine distance to q.
func (a *ArtworkRepo) NearestNeighbors(ctx context.Context, q field.PoolQuery) ([]field.Candidate, error) {
	where, args := baseFilter(q.FocalID, q.ExcludeIDs)
	vecArg := len(args) + 1
	args = append(args, formatVector(q.QueryVector))
	limitArg := len(args) + 1
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
		SELECT
			id, object_id, title, artist,
			local_image_url, small_image_url, original_image_url,
			1 - (embedding <=> $%d::vector) AS similarity
		FROM artworks
		WHERE %s AND %s
		ORDER BY embedding <=> $%d::vector ASC
		LIMIT $%d
	`, vecArg, eligiblePredicate, where, vecArg, limitArg)

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var out []field.Candidate
	for rows.Next() {
		c, simVal, err := scanCandidate(rows, true)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		c.Similarity = &simVal
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return out, nil
}

// SeededRandom returns eligible rows in a deterministic pseudo-random order,
// reproducible across calls with the same store seed, tie-broken by id.
func (a *ArtworkRepo) SeededRandom(ctx context.Context, q field.PoolQuery) ([]field.Candidate, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT setseed($1)", q.StoreSeed); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	where, args := baseFilter(q.FocalID, q.ExcludeIDs)
	limitArg := len(args) + 1
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
		SELECT
			id, object_id, title, artist,
			local_image_url, small_image_url, original_image_url
		FROM artworks
		WHERE %s AND %s
		ORDER BY random(), id ASC
		LIMIT $%d
	`, eligiblePredicate, where, limitArg)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var out []field.Candidate
	for rows.Next() {
		c, _, err := scanCandidate(rows, false)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return out, nil
}

// baseFilter builds the shared WHERE fragment excluding the focal id and any
// hard-excluded ids, returning the fragment and the positional args needed
// before it (focalID, excludeIDs).
func baseFilter(focalID int64, excludeIDs []int64) (string, []interface{}) {
	args := []interface{}{focalID}
	clause := "id <> $1"

	if len(excludeIDs) > 0 {
		args = append(args, excludeIDs)
		clause += fmt.Sprintf(" AND id <> ALL($%d::bigint[])", len(args))
	}

	return clause, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(rows rowScanner, withSimilarity bool) (field.Candidate, float64, error) {
	var (
		id                      int64
		objectID, title, artist string
		local, small, original  string
		similarity              float64
	)

	dest := []interface{}{&id, &objectID, &title, &artist, &local, &small, &original}
	if withSimilarity {
		dest = append(dest, &similarity)
	}

	if err := rows.Scan(dest...); err != nil {
		return field.Candidate{}, 0, err
	}

	art := domain.NewArtwork(id, objectID, title, artist, nil, local, small, original)
	imageURL, imageSource, _ := art.ImageURL()

	c := field.Candidate{
		ID:               art.ID,
		ObjectID:         art.ObjectID,
		Title:            art.Title,
		Artist:           art.Artist,
		ImageURL:         imageURL,
		OriginalImageURL: art.OriginalImageURL,
		ImageSource:      string(imageSource),
	}
	return c, similarity, nil
}

// formatVector renders a float32 slice as a pgvector literal, e.g. "[0.1,0.2]".
func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%f", x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector parses a pgvector text-format literal back into a float32 slice.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &f); err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
