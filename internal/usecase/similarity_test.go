package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

type fakeVectorRepo struct {
	embedding []float32
	found     bool
	matches   []domain.VectorMatch
	knnCalls  int
}

func (f *fakeVectorRepo) GetEmbedding(context.Context, string, string) ([]float32, bool, error) {
	return f.embedding, f.found, nil
}

func (f *fakeVectorRepo) KNNSearch(context.Context, []float32, int) ([]domain.VectorMatch, error) {
	f.knnCalls++
	return f.matches, nil
}

func (f *fakeVectorRepo) EmbeddingStats(context.Context) ([]domain.PlatformStats, error) {
	return nil, nil
}

type fakeCatalogRepo struct {
	domain.CatalogRepository
	titles map[string]string
}

func (f *fakeCatalogRepo) GetProblem(_ context.Context, source, id string) (*domain.Problem, error) {
	title := f.titles[source+"/"+id]
	return &domain.Problem{ID: id, Source: source, Title: &title}, nil
}

func TestSimilarByProblem_ExcludesSelfAndSortsDescending(t *testing.T) {
	repo := &fakeVectorRepo{
		embedding: []float32{0.1, 0.2},
		found:     true,
		matches: []domain.VectorMatch{
			{Source: "leetcode", ProblemID: "1", Distance: 0}, // self, must be excluded
			{Source: "leetcode", ProblemID: "2", Distance: 0.3},
			{Source: "leetcode", ProblemID: "3", Distance: 0.1},
		},
	}
	catalog := &fakeCatalogRepo{titles: map[string]string{"leetcode/2": "B", "leetcode/3": "A"}}
	engine := NewSimilarityEngine(repo, catalog, nil)

	hits, err := engine.SimilarByProblem(context.Background(), "leetcode", "1", SimilarityQuery{Limit: intPtr(10)})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "3", hits[0].ID, "higher similarity (lower distance) must sort first")
	require.Equal(t, "2", hits[1].ID)
}

func TestSimilarByProblem_NoEmbeddingIsNotFound(t *testing.T) {
	repo := &fakeVectorRepo{found: false}
	engine := NewSimilarityEngine(repo, &fakeCatalogRepo{}, nil)

	_, err := engine.SimilarByProblem(context.Background(), "leetcode", "1", SimilarityQuery{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimilarByProblem_ThresholdAndSourceFilterApply(t *testing.T) {
	repo := &fakeVectorRepo{
		embedding: []float32{0.1},
		found:     true,
		matches: []domain.VectorMatch{
			{Source: "leetcode", ProblemID: "2", Distance: 0.95}, // similarity 0.05, below threshold
			{Source: "atcoder", ProblemID: "3", Distance: 0.2},   // excluded by source filter
			{Source: "leetcode", ProblemID: "4", Distance: 0.1},
		},
	}
	engine := NewSimilarityEngine(repo, &fakeCatalogRepo{titles: map[string]string{}}, nil)

	hits, err := engine.SimilarByProblem(context.Background(), "leetcode", "1", SimilarityQuery{
		Limit:     intPtr(10),
		Threshold: 0.5,
		Sources:   []string{"leetcode"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "4", hits[0].ID)
}

func TestKNNFetchSize_CapsAt200(t *testing.T) {
	q := normalizeQuery(SimilarityQuery{Limit: intPtr(50), OverFetch: 10})
	require.Equal(t, similarityMaxK, kNNFetchSize(q))
}

func TestNormalizeQuery_MissingLimitDefaultsToTen(t *testing.T) {
	q := normalizeQuery(SimilarityQuery{})
	require.Equal(t, similarityDefaultLimit, q.limit)
}

func TestNormalizeQuery_ExplicitZeroLimitIsPreserved(t *testing.T) {
	q := normalizeQuery(SimilarityQuery{Limit: intPtr(0)})
	require.Equal(t, 0, q.limit)
}

func TestSimilarByProblem_ExplicitZeroLimitReturnsNoResultsWithoutKNNSearch(t *testing.T) {
	repo := &fakeVectorRepo{
		embedding: []float32{0.1, 0.2},
		found:     true,
		matches:   []domain.VectorMatch{{Source: "leetcode", ProblemID: "2", Distance: 0.1}},
	}
	engine := NewSimilarityEngine(repo, &fakeCatalogRepo{}, nil)

	hits, err := engine.SimilarByProblem(context.Background(), "leetcode", "1", SimilarityQuery{Limit: intPtr(0)})
	require.NoError(t, err)
	require.Empty(t, hits)
	require.Zero(t, repo.knnCalls)
}

func TestSimilarByText_ExplicitZeroLimitReturnsNoResults(t *testing.T) {
	engine := NewSimilarityEngine(&fakeVectorRepo{}, &fakeCatalogRepo{}, &stubEmbedder{})

	hits, err := engine.SimilarByText(context.Background(), "two sum", SimilarityQuery{Limit: intPtr(0)})
	require.NoError(t, err)
	require.Empty(t, hits)
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return []float32{0.1}, nil
}

func intPtr(n int) *int { return &n }
