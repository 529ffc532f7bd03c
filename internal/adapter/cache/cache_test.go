package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

type fakeCatalog struct {
	domain.CatalogRepository
	problem *domain.Problem
	calls   int
}

func (f *fakeCatalog) GetProblem(_ context.Context, _, _ string) (*domain.Problem, error) {
	f.calls++
	return f.problem, nil
}

type fakeDaily struct {
	domain.DailyRepository
	daily *domain.DailyChallenge
	calls int
}

func (f *fakeDaily) GetDaily(_ context.Context, _, _ string) (*domain.DailyChallenge, error) {
	f.calls++
	return f.daily, nil
}

func newTestCache(t *testing.T, catalog domain.CatalogRepository) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return New(rdb, catalog)
}

func newTestDailyCache(t *testing.T, daily domain.DailyRepository) *DailyCache {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewDaily(rdb, daily)
}

func TestCache_GetProblem_HitsRepoOnceThenCaches(t *testing.T) {
	title := "Two Sum"
	fake := &fakeCatalog{problem: &domain.Problem{ID: "1", Source: "leetcode", Title: &title}}
	c := newTestCache(t, fake)

	ctx := context.Background()
	p1, err := c.GetProblem(ctx, "leetcode", "1")
	require.NoError(t, err)
	require.Equal(t, "1", p1.ID)

	p2, err := c.GetProblem(ctx, "leetcode", "1")
	require.NoError(t, err)
	require.Equal(t, "Two Sum", *p2.Title)

	require.Equal(t, 1, fake.calls, "second lookup should be served from cache")
}

func TestCache_GetDaily_HitsRepoOnceThenCaches(t *testing.T) {
	fake := &fakeDaily{daily: &domain.DailyChallenge{Date: "2026-07-30", Domain: "com", ID: "42"}}
	c := newTestDailyCache(t, fake)

	ctx := context.Background()
	_, err := c.GetDaily(ctx, "com", "2026-07-30")
	require.NoError(t, err)
	_, err = c.GetDaily(ctx, "com", "2026-07-30")
	require.NoError(t, err)

	require.Equal(t, 1, fake.calls)
}

func TestCache_NilClient_AlwaysPassesThrough(t *testing.T) {
	fake := &fakeCatalog{problem: &domain.Problem{ID: "1", Source: "leetcode"}}
	c := New(nil, fake)

	ctx := context.Background()
	_, err := c.GetProblem(ctx, "leetcode", "1")
	require.NoError(t, err)
	_, err = c.GetProblem(ctx, "leetcode", "1")
	require.NoError(t, err)

	require.Equal(t, 2, fake.calls, "disabled cache must hit the repo every time")
}
