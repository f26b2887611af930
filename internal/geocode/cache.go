package geocode

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/pkg/metrics"
	"cargopipe/pkg/models"
)

// CachedGeocoder is a read-through redis decorator. Addresses repeat
// heavily across order mail, and cached results also shield the
// provider quota. No-match results are cached too, as an empty value.
type CachedGeocoder struct {
	inner  Geocoder
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger

	mu     sync.Mutex
	hits   int
	misses int
}

func NewCachedGeocoder(inner Geocoder, cache *redis.Client, ttlSeconds int, log logger.Logger) *CachedGeocoder {
	if ttlSeconds <= 0 {
		ttlSeconds = constants.DefaultGeocodeCacheTTLSeconds
	}
	return &CachedGeocoder{
		inner:  inner,
		cache:  cache,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: log,
	}
}

type cachedResult struct {
	Found      bool               `json:"found"`
	Coordinate *models.Coordinate `json:"coordinate,omitempty"`
}

func (c *CachedGeocoder) Resolve(ctx context.Context, address string) (*models.Coordinate, error) {
	key := constants.CacheKeyPrefixGeocode + address

	if val, err := c.cache.Get(ctx, key).Result(); err == nil {
		var cached cachedResult
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.recordLookup(true)
			metrics.GeocodeRequestsTotal.WithLabelValues("cache_hit").Inc()
			if !cached.Found {
				return nil, nil
			}
			return cached.Coordinate, nil
		}
		c.logger.WarnwCtx(ctx, "Failed to unmarshal cached geocode result",
			"cache_key", key,
			"error", err,
		)
	}

	c.recordLookup(false)
	metrics.GeocodeRequestsTotal.WithLabelValues("cache_miss").Inc()

	coordinate, err := c.inner.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, coordinate)
	return coordinate, nil
}

func (c *CachedGeocoder) store(ctx context.Context, key string, coordinate *models.Coordinate) {
	bytes, err := json.Marshal(cachedResult{
		Found:      coordinate != nil,
		Coordinate: coordinate,
	})
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, bytes, c.ttl).Err(); err != nil {
		c.logger.WarnwCtx(ctx, "Failed to cache geocode result",
			"cache_key", key,
			"error", err,
		)
	}
}

func (c *CachedGeocoder) recordLookup(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit {
		c.hits++
	} else {
		c.misses++
	}

	total := c.hits + c.misses
	if total > 0 {
		metrics.SetGeocodeCacheHitRate(float64(c.hits) / float64(total))
	}
}

func (c *CachedGeocoder) Close() error {
	return c.inner.Close()
}
