package fetcher

import (
	"context"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// CacheKeyPrefix identifies cached API responses in Redis.
const CacheKeyPrefix = "fetcher:"

// responseCache keeps raw response bodies in Redis so repeated lookups of the
// same endpoint skip the API. Redis failures count as misses.
type responseCache struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// WithResponseCache caches successful responses of cacheable endpoints for ttl.
func WithResponseCache(rdb rueidis.Client, ttl time.Duration) Option {
	return func(c *client) {
		if rdb == nil || ttl <= 0 {
			return
		}

		c.cache = &responseCache{
			client: rdb,
			ttl:    ttl,
			logger: c.logger.Named("cache"),
		}
	}
}

func (r *responseCache) get(ctx context.Context, endpoint string) ([]byte, bool) {
	body, err := r.client.Do(ctx, r.client.B().Get().Key(CacheKeyPrefix+endpoint).Build()).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			r.logger.Warn("Failed to read cached response",
				zap.String("endpoint", endpoint),
				zap.Error(err))
		}

		return nil, false
	}

	return body, true
}

func (r *responseCache) set(ctx context.Context, endpoint string, body []byte) {
	err := r.client.Do(ctx, r.client.B().Set().
		Key(CacheKeyPrefix+endpoint).
		Value(rueidis.BinaryString(body)).
		Ex(r.ttl).
		Build()).Error()
	if err != nil {
		r.logger.Warn("Failed to cache response",
			zap.String("endpoint", endpoint),
			zap.Error(err))
	}
}
