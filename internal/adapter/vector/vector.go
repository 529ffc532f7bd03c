// Package vector implements domain.VectorRepository on top of the
// sqlite-vec vec0 virtual table.
package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

// Repository implements domain.VectorRepository against a *sql.DB (the
// catalog repositories' read-only pool).
type Repository struct {
	ro *sql.DB
}

// New constructs a Repository.
func New(ro *sql.DB) *Repository {
	return &Repository{ro: ro}
}

// GetEmbedding fetches the stored vector for (source, id). The stored blob
// is little-endian packed float32 when written by the embedding CLI, but a
// JSON array is accepted as a fallback for rows seeded by other tooling.
func (r *Repository) GetEmbedding(ctx context.Context, source, id string) ([]float32, bool, error) {
	var raw []byte
	err := r.ro.QueryRowContext(ctx,
		`SELECT embedding FROM vec_embeddings WHERE source = ? AND problem_id = ?`, source, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	vec, err := decodeEmbedding(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func decodeEmbedding(raw []byte) ([]float32, error) {
	if len(raw) > 0 && len(raw)%4 == 0 {
		vec := make([]float32, len(raw)/4)
		for i := range vec {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			vec[i] = math.Float32frombits(bits)
		}
		return vec, nil
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, fmt.Errorf("decode embedding blob: %w", err)
	}
	return vec, nil
}

func encodeEmbedding(vec []float32) []byte {
	raw := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return raw
}

// KNNSearch runs a vec0 MATCH query for the k nearest neighbours of
// embedding, returning (source, problem_id, distance) triples.
func (r *Repository) KNNSearch(ctx context.Context, embedding []float32, k int) ([]domain.VectorMatch, error) {
	rows, err := r.ro.QueryContext(ctx,
		`SELECT source, problem_id, distance FROM vec_embeddings WHERE embedding MATCH ? AND k = ?`,
		encodeEmbedding(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []domain.VectorMatch
	for rows.Next() {
		var h domain.VectorMatch
		if err := rows.Scan(&h.Source, &h.ProblemID, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// EmbeddingStats reuses the same per-source coverage query the catalog
// repository exposes as PlatformStats — the original's admin embedding-stats
// endpoint and platform-stats endpoint are backed by an identical shape.
func (r *Repository) EmbeddingStats(ctx context.Context) ([]domain.PlatformStats, error) {
	rows, err := r.ro.QueryContext(ctx,
		`SELECT p.source, COUNT(*) AS total,
		        SUM(CASE WHEN p.content IS NULL OR p.content = '' THEN 1 ELSE 0 END) AS missing_content,
		        SUM(CASE WHEN pe.problem_id IS NULL THEN 1 ELSE 0 END) AS not_embedded
		 FROM problems p
		 LEFT JOIN problem_embeddings pe ON pe.source = p.source AND pe.problem_id = p.id
		 GROUP BY p.source ORDER BY p.source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlatformStats
	for rows.Next() {
		var s domain.PlatformStats
		if err := rows.Scan(&s.Source, &s.Total, &s.MissingContent, &s.NotEmbedded); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
