package store

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyagen/guidevault/internal/cache"
	"github.com/voyagen/guidevault/internal/models"
)

// Cache TTLs. Channel reads are the hot path for the serving layer; coverage
// is read once per refresh decision, so both stay short.
const (
	ttlChannels = 1 * time.Minute
	ttlCoverage = 1 * time.Minute
)

const (
	keyChannels = "guidevault:channels:all"
	keyCoverage = "guidevault:programmes:coverage"
)

// CachedStore wraps a Store with a Redis caching layer. Reads are served from
// cache when possible; every write invalidates the affected keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

func (c *CachedStore) GetChannelEntries(ctx context.Context) ([]models.ChannelEntry, error) {
	if v, err := cache.Get[[]models.ChannelEntry](ctx, c.cache, keyChannels); err == nil {
		return v, nil
	}
	channels, err := c.inner.GetChannelEntries(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, keyChannels, channels, ttlChannels); err != nil {
		log.Printf("cache: set %s: %v", keyChannels, err)
	}
	return channels, nil
}

// coverageResult caches the ProgrammeCoverage tuple.
type coverageResult struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
	N   int64     `json:"n"`
}

func (c *CachedStore) ProgrammeCoverage(ctx context.Context) (time.Time, time.Time, int64, error) {
	if v, err := cache.Get[coverageResult](ctx, c.cache, keyCoverage); err == nil {
		return v.Min, v.Max, v.N, nil
	}
	min, max, n, err := c.inner.ProgrammeCoverage(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	if err := cache.Set(ctx, c.cache, keyCoverage, coverageResult{Min: min, Max: max, N: n}, ttlCoverage); err != nil {
		log.Printf("cache: set %s: %v", keyCoverage, err)
	}
	return min, max, n, nil
}

func (c *CachedStore) ClearChannels(ctx context.Context) error {
	if err := c.inner.ClearChannels(ctx); err != nil {
		return err
	}
	c.invalidate(ctx, keyChannels)
	return nil
}

func (c *CachedStore) AddChannels(ctx context.Context, channels []models.ChannelEntry) error {
	if err := c.inner.AddChannels(ctx, channels); err != nil {
		return err
	}
	c.invalidate(ctx, keyChannels)
	return nil
}

func (c *CachedStore) ReplaceChannels(ctx context.Context, channels []models.ChannelEntry) error {
	if err := c.inner.ReplaceChannels(ctx, channels); err != nil {
		return err
	}
	c.invalidate(ctx, keyChannels)
	return nil
}

func (c *CachedStore) ClearProgrammes(ctx context.Context) error {
	if err := c.inner.ClearProgrammes(ctx); err != nil {
		return err
	}
	c.invalidate(ctx, keyCoverage)
	return nil
}

func (c *CachedStore) AddProgrammes(ctx context.Context, programmes []models.ProgrammeEntry) error {
	if err := c.inner.AddProgrammes(ctx, programmes); err != nil {
		return err
	}
	c.invalidate(ctx, keyCoverage)
	return nil
}

func (c *CachedStore) ReplaceProgrammes(ctx context.Context, programmes []models.ProgrammeEntry) error {
	if err := c.inner.ReplaceProgrammes(ctx, programmes); err != nil {
		return err
	}
	c.invalidate(ctx, keyCoverage)
	return nil
}

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && err != redis.Nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}
