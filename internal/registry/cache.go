package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "cvr:"

// quota markers are cached briefly so an exhausted upstream quota does
// not get hammered with retries during an outage.
const quotaMarker = `{"quota":true}`

// Cache stores lookup outcomes keyed by CVR with a time-to-live.
// Concurrent requests for the same key may both miss and both fetch
// upstream; there is no single-flight guarantee.
type Cache interface {
	Get(ctx context.Context, cvr string) (*Company, bool, error)
	SetCompany(ctx context.Context, cvr string, company *Company) error
	SetQuotaExceeded(ctx context.Context, cvr string) error
}

// RedisCache implements Cache on a Redis instance.
type RedisCache struct {
	client     *redis.Client
	successTTL time.Duration
	quotaTTL   time.Duration
}

// NewRedisCache wires a cache with separate TTLs for successful lookups
// and quota markers.
func NewRedisCache(client *redis.Client, successTTL, quotaTTL time.Duration) *RedisCache {
	if successTTL <= 0 {
		successTTL = 24 * time.Hour
	}
	if quotaTTL <= 0 {
		quotaTTL = 10 * time.Minute
	}
	return &RedisCache{client: client, successTTL: successTTL, quotaTTL: quotaTTL}
}

// Get returns the cached record for a CVR. A cached quota marker is
// surfaced as ErrQuotaExceeded so callers keep the outcome taxonomy.
func (c *RedisCache) Get(ctx context.Context, cvr string) (*Company, bool, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+cvr).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if raw == quotaMarker {
		return nil, true, ErrQuotaExceeded
	}

	var company Company
	if err := json.Unmarshal([]byte(raw), &company); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &company, true, nil
}

// SetCompany caches a successful lookup.
func (c *RedisCache) SetCompany(ctx context.Context, cvr string, company *Company) error {
	data, err := json.Marshal(company)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+cvr, data, c.successTTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// SetQuotaExceeded caches a quota marker with the short TTL.
func (c *RedisCache) SetQuotaExceeded(ctx context.Context, cvr string) error {
	if err := c.client.Set(ctx, cacheKeyPrefix+cvr, quotaMarker, c.quotaTTL).Err(); err != nil {
		return fmt.Errorf("cache set quota: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)

// CachedLookup wraps a Lookup with a Cache. Cache failures are logged and
// degrade to a plain upstream lookup; they never fail a request.
type CachedLookup struct {
	upstream Lookup
	cache    Cache
}

// NewCachedLookup builds the caching decorator. A nil cache returns the
// upstream lookup unchanged.
func NewCachedLookup(upstream Lookup, cache Cache) Lookup {
	if cache == nil {
		return upstream
	}
	return &CachedLookup{upstream: upstream, cache: cache}
}

// LookupCVR serves from cache when possible and writes fresh outcomes
// back with the configured TTLs.
func (l *CachedLookup) LookupCVR(ctx context.Context, cvr string) (*Company, error) {
	company, hit, err := l.cache.Get(ctx, cvr)
	if hit {
		if errors.Is(err, ErrQuotaExceeded) {
			return nil, ErrQuotaExceeded
		}
		if err == nil {
			return company, nil
		}
	}
	if err != nil && !errors.Is(err, ErrQuotaExceeded) {
		log.Printf("cvr cache read failed for %s: %v", cvr, err)
	}

	company, err = l.upstream.LookupCVR(ctx, cvr)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			if cacheErr := l.cache.SetQuotaExceeded(ctx, cvr); cacheErr != nil {
				log.Printf("cvr cache write failed for %s: %v", cvr, cacheErr)
			}
		}
		return nil, err
	}

	if cacheErr := l.cache.SetCompany(ctx, cvr, company); cacheErr != nil {
		log.Printf("cvr cache write failed for %s: %v", cvr, cacheErr)
	}
	return company, nil
}
