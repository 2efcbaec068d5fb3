// Package cache provides caching implementations for store interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_trend/internal/feature/trend/domain/entity"
	"stock_trend/internal/feature/trend/usecase"
)

// CachingTrendStore decorates a PriceStore with Redis caching of the latest condition.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying store. Only successful lookups are cached.
type CachingTrendStore struct {
	usecase.PriceStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	ttlFor    func() time.Duration
}

var _ usecase.PriceStore = (*CachingTrendStore)(nil)

// NewCachingTrendStore decorates a PriceStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "trend".
func NewCachingTrendStore(rdb *redis.Client, ttl time.Duration, inner usecase.PriceStore, namespace string) *CachingTrendStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "trend"
	}
	c := &CachingTrendStore{
		PriceStore: inner,
		rdb:        rdb,
		ttl:        ttl,
		namespace:  namespace,
	}
	c.ttlFor = func() time.Duration { return c.ttl }
	return c
}

// ExpireDailyAt caps every entry's lifetime at the next hour:00 in loc.
func (c *CachingTrendStore) ExpireDailyAt(hour int, loc *time.Location) *CachingTrendStore {
	c.ttlFor = func() time.Duration {
		return min(c.ttl, TimeUntilNext(time.Now(), hour, loc))
	}
	return c
}

// AppendCondition records the condition and invalidates the cached latest condition.
func (c *CachingTrendStore) AppendCondition(ctx context.Context, symbol string, classification entity.Classification, observedAt time.Time) error {
	if err := c.PriceStore.AppendCondition(ctx, symbol, classification, observedAt); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	// Best effort: don't fail if cache deletion fails
	if err := c.rdb.Del(ctx, c.cacheKey(symbol)).Err(); err != nil {
		slog.Warn("failed to invalidate trend cache", "symbol", symbol, "error", err)
	}
	return nil
}

// LatestCondition returns the latest condition, checking cache first then falling back to the store.
func (c *CachingTrendStore) LatestCondition(ctx context.Context, symbol string) (entity.DailyCondition, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.PriceStore.LatestCondition(ctx, symbol)
	}

	key := c.cacheKey(symbol)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.DailyCondition
		if err := json.Unmarshal(b, &out); err == nil && out.Classification.Valid() {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.PriceStore.LatestCondition(ctx, symbol)
	if err != nil {
		return entity.DailyCondition{}, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttlFor()).Err()
	}

	return out, nil
}

// cacheKey generates the cache key of a symbol's latest condition.
func (c *CachingTrendStore) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s:latest", c.namespace, safe(symbol))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
