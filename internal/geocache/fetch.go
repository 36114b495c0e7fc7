package geocache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Fetch is the cache-aside helper the data aggregator runs every provider
// call through. On a hit it decodes and returns the cached value; on a miss
// it invokes produce, stores the result with the given TTL and returns it.
// A cached entry that no longer decodes is dropped and treated as a miss.
// Store write failures are logged, never propagated: a working producer
// result always reaches the caller.
func Fetch[T any](ctx context.Context, c *GeoCache, kind Kind, lat, lon float64, ttl time.Duration, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := c.Get(ctx, kind, lat, lon)
	if err == nil && ok {
		var cached T
		if decodeErr := json.Unmarshal(raw, &cached); decodeErr == nil {
			return cached, nil
		}
		// Stale encoding from an older build; discard and refetch.
		if c.logger != nil {
			c.logger.Warn("cache entry undecodable, evicting",
				zap.String("kind", string(kind)),
				zap.Float64("lat", lat), zap.Float64("lon", lon))
		}
		_ = c.Delete(ctx, kind, lat, lon)
	} else if err != nil && c.logger != nil {
		c.logger.Warn("cache get failed", zap.String("kind", string(kind)), zap.Error(err))
	}

	value, err := produce(ctx)
	if err != nil {
		return zero, err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		// Unmarshalable domain values are a programming error; still
		// serve the fresh value.
		if c.logger != nil {
			c.logger.Error("cache encode failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		return value, nil
	}
	if err := c.Set(ctx, kind, lat, lon, raw, ttl); err != nil && c.logger != nil {
		c.logger.Warn("cache set failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return value, nil
}
