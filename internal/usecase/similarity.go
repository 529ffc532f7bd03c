// Package usecase orchestrates the domain ports into the operations the
// HTTP layer calls: similarity search, the daily-challenge facade with its
// crawler fallback, and catalog CRUD/listing.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

const (
	similarityDefaultLimit = 10
	similarityMaxLimit     = 50
	similarityMaxK         = 200
)

// TextEmbedder produces a vector for free text, used by SimilarByText.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// SimilarityQuery is the shared parameter set for both similarity-search
// entry points. Limit is a pointer so an absent "limit" query parameter
// (nil, defaults to similarityDefaultLimit) can be told apart from an
// explicit limit=0 (no results, per the boundary case in the original's
// Option<u32>-based limit.unwrap_or(10).min(50)).
type SimilarityQuery struct {
	Limit     *int
	Threshold float32
	Sources   []string // nil means no source filter
	OverFetch int      // e.g. config.over_fetch_factor
}

// resolvedQuery is SimilarityQuery after defaulting/clamping, with Limit
// settled to a concrete int.
type resolvedQuery struct {
	limit     int
	threshold float32
	sources   []string
	overFetch int
}

// SimilarityEngine implements the kNN similarity search described in
// api/similar.rs: over-fetch from vec0, drop the query problem itself (for
// by-problem search), filter by threshold/source, sort by similarity
// descending, and enrich the surviving hits with title/difficulty/link.
type SimilarityEngine struct {
	vectors  domain.VectorRepository
	catalog  domain.CatalogRepository
	embedder TextEmbedder
}

// NewSimilarityEngine constructs a SimilarityEngine.
func NewSimilarityEngine(vectors domain.VectorRepository, catalog domain.CatalogRepository, embedder TextEmbedder) *SimilarityEngine {
	return &SimilarityEngine{vectors: vectors, catalog: catalog, embedder: embedder}
}

func normalizeQuery(q SimilarityQuery) resolvedQuery {
	limit := similarityDefaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	if limit < 0 {
		limit = 0
	}
	if limit > similarityMaxLimit {
		limit = similarityMaxLimit
	}
	overFetch := q.OverFetch
	if overFetch <= 0 {
		overFetch = 5
	}
	return resolvedQuery{limit: limit, threshold: q.Threshold, sources: q.Sources, overFetch: overFetch}
}

func kNNFetchSize(q resolvedQuery) int {
	k := q.limit * q.overFetch
	if k > similarityMaxK {
		k = similarityMaxK
	}
	return k
}

func sourceAllowed(sources []string, source string) bool {
	if len(sources) == 0 {
		return true
	}
	for _, s := range sources {
		if strings.EqualFold(strings.TrimSpace(s), source) {
			return true
		}
	}
	return false
}

// SimilarByProblem returns problems similar to the catalog entry (source,
// id), excluding the problem itself.
func (e *SimilarityEngine) SimilarByProblem(ctx context.Context, source, id string, q SimilarityQuery) ([]domain.SimilarityHit, error) {
	rq := normalizeQuery(q)

	vec, found, err := e.vectors.GetEmbedding(ctx, source, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no embedding found for this problem", domain.ErrNotFound)
	}
	if rq.limit == 0 {
		return []domain.SimilarityHit{}, nil
	}

	matches, err := e.vectors.KNNSearch(ctx, vec, kNNFetchSize(rq))
	if err != nil {
		return nil, err
	}

	filtered := matches[:0]
	for _, m := range matches {
		if m.Source == source && m.ProblemID == id {
			continue
		}
		filtered = append(filtered, m)
	}

	return e.rankAndEnrich(ctx, filtered, rq)
}

// SimilarByText embeds free text and returns similar catalog entries.
func (e *SimilarityEngine) SimilarByText(ctx context.Context, text string, q SimilarityQuery) ([]domain.SimilarityHit, error) {
	rq := normalizeQuery(q)
	if rq.limit == 0 {
		return []domain.SimilarityHit{}, nil
	}

	vec, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	matches, err := e.vectors.KNNSearch(ctx, vec, kNNFetchSize(rq))
	if err != nil {
		return nil, err
	}

	return e.rankAndEnrich(ctx, matches, rq)
}

func (e *SimilarityEngine) rankAndEnrich(ctx context.Context, matches []domain.VectorMatch, q resolvedQuery) ([]domain.SimilarityHit, error) {
	type scored struct {
		match      domain.VectorMatch
		similarity float32
	}

	var kept []scored
	for _, m := range matches {
		similarity := 1 - m.Distance
		if similarity < q.threshold {
			continue
		}
		if !sourceAllowed(q.sources, m.Source) {
			continue
		}
		kept = append(kept, scored{match: m, similarity: similarity})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].similarity > kept[j].similarity })

	if len(kept) > q.limit {
		kept = kept[:q.limit]
	}

	hits := make([]domain.SimilarityHit, 0, len(kept))
	for _, k := range kept {
		hit := domain.SimilarityHit{
			Source:     k.match.Source,
			ID:         k.match.ProblemID,
			Similarity: k.similarity,
		}
		if p, err := e.catalog.GetProblem(ctx, k.match.Source, k.match.ProblemID); err == nil {
			hit.Title = p.Title
			hit.Difficulty = p.Difficulty
			hit.Link = p.Link
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
