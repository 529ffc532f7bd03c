// Package cache provides an optional Redis read-through layer in front of
// the daily-challenge and problem-detail repositories. It's a pure
// performance addition absent from the original (which hits SQLite
// directly on every request); nil *redis.Client disables it entirely so
// deployments without REDIS_URL set behave exactly like the original.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cxyfer/oj-catalog/internal/domain"
)

const defaultTTL = 30 * time.Second

// Cache wraps a domain.CatalogRepository with a Redis read-through cache in
// front of GetProblem; every other CatalogRepository method is promoted
// straight through from the embedded repo. A nil client makes GetProblem a
// pass-through too, so deployments without REDIS_URL behave identically.
type Cache struct {
	domain.CatalogRepository
	rdb *redis.Client
	ttl time.Duration
}

// DailyCache wraps a domain.DailyRepository with the same read-through
// strategy. Kept separate from Cache because DailyRepository is a
// single-method port with its own cache key namespace.
type DailyCache struct {
	daily domain.DailyRepository
	rdb   *redis.Client
	ttl   time.Duration
}

// New constructs a Cache. rdb may be nil to disable caching entirely.
func New(rdb *redis.Client, catalog domain.CatalogRepository) *Cache {
	return &Cache{CatalogRepository: catalog, rdb: rdb, ttl: defaultTTL}
}

// NewDaily constructs a DailyCache. rdb may be nil to disable caching.
func NewDaily(rdb *redis.Client, daily domain.DailyRepository) *DailyCache {
	return &DailyCache{daily: daily, rdb: rdb, ttl: defaultTTL}
}

func getCached(ctx context.Context, rdb *redis.Client, key string, dest any) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func setCached(ctx context.Context, rdb *redis.Client, ttl time.Duration, key string, value any) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	rdb.Set(ctx, key, raw, ttl)
}

// GetProblem reads through Redis before falling back to the catalog repo.
func (c *Cache) GetProblem(ctx context.Context, source, id string) (*domain.Problem, error) {
	key := fmt.Sprintf("problem:%s:%s", source, id)
	var cached domain.Problem
	if getCached(ctx, c.rdb, key, &cached) {
		return &cached, nil
	}

	p, err := c.CatalogRepository.GetProblem(ctx, source, id)
	if err != nil {
		return nil, err
	}
	setCached(ctx, c.rdb, c.ttl, key, p)
	return p, nil
}

// GetDaily reads through Redis before falling back to the daily repo.
func (c *DailyCache) GetDaily(ctx context.Context, domainArg, date string) (*domain.DailyChallenge, error) {
	key := fmt.Sprintf("daily:%s:%s", domainArg, date)
	var cached domain.DailyChallenge
	if getCached(ctx, c.rdb, key, &cached) {
		return &cached, nil
	}

	d, err := c.daily.GetDaily(ctx, domainArg, date)
	if err != nil {
		return nil, err
	}
	setCached(ctx, c.rdb, c.ttl, key, d)
	return d, nil
}
