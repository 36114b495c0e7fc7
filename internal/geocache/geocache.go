// Package geocache provides a TTL cache for environmental data keyed by
// geographic coordinates. Coordinates are rounded to 4 decimal places
// (~11 m) so nearby lookups share an entry, and keys are qualified by the
// data kind so weather, soil, elevation and geocoding never collide.
package geocache

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aristee/chantier-service/internal/observability"
)

// Kind identifies the class of data stored under a coordinate.
type Kind string

const (
	KindWeather   Kind = "weather"
	KindSoil      Kind = "soil"
	KindElevation Kind = "elevation"
	KindGeocoding Kind = "geocoding"
)

// Per-kind TTLs. Forecasts churn, soil is near-static daily, altitude never
// changes, addresses drift slowly.
const (
	TTLWeather   = 30 * time.Minute
	TTLSoil      = 24 * time.Hour
	TTLElevation = 365 * 24 * time.Hour
	TTLGeocoding = 30 * 24 * time.Hour
)

// Store is a raw byte store with per-entry TTL. Implementations must be safe
// for concurrent use; a single chantier request issues three parallel
// fetches through the same store.
type Store interface {
	// Get returns the stored bytes if present and unexpired. Expired
	// entries are removed on access and reported as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Flush removes all entries.
	Flush(ctx context.Context) error
	// Len reports the number of entries, or -1 when the backend cannot
	// count them.
	Len() int
}

// Stats is a point-in-time snapshot of cache accounting.
type Stats struct {
	Size    int     `json:"size"` // -1 when the backend cannot count
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"` // 0-100
}

// GeoCache wraps a Store with coordinate key derivation and hit/miss
// accounting. Counters are monotonic until Clear.
type GeoCache struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// New returns a GeoCache over the given store. logger may be nil.
func New(store Store, logger *zap.Logger) *GeoCache {
	return &GeoCache{store: store, logger: logger}
}

// KeyFor derives the cache key for a kind and coordinate. Both coordinates
// are rounded to 4 decimal places, so any two points within the same
// rounding cell map to the same key.
func KeyFor(kind Kind, lat, lon float64) string {
	return string(kind) + ":" + formatCoord(lat) + ":" + formatCoord(lon)
}

func formatCoord(v float64) string {
	rounded := math.Round(v*10000) / 10000
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Get returns the raw bytes cached for (kind, lat, lon). A present and
// unexpired entry counts as a hit; anything else, including an expired
// entry, counts as a miss.
func (c *GeoCache) Get(ctx context.Context, kind Kind, lat, lon float64) ([]byte, bool, error) {
	raw, ok, err := c.store.Get(ctx, KeyFor(kind, lat, lon))
	if err != nil {
		return nil, false, err
	}
	c.record(kind, ok)
	return raw, ok, nil
}

// Set stores raw bytes for (kind, lat, lon) with the caller-supplied TTL.
func (c *GeoCache) Set(ctx context.Context, kind Kind, lat, lon float64, value []byte, ttl time.Duration) error {
	return c.store.Set(ctx, KeyFor(kind, lat, lon), value, ttl)
}

// Delete removes the entry for (kind, lat, lon), if any.
func (c *GeoCache) Delete(ctx context.Context, kind Kind, lat, lon float64) error {
	return c.store.Delete(ctx, KeyFor(kind, lat, lon))
}

// Clear removes all entries and resets the hit/miss counters.
func (c *GeoCache) Clear(ctx context.Context) error {
	if err := c.store.Flush(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
	return nil
}

// Stats returns the current size and hit/miss accounting.
func (c *GeoCache) Stats() Stats {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	s := Stats{Size: c.store.Len(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total) * 100
	}
	return s
}

func (c *GeoCache) record(kind Kind, hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	observability.RecordCacheAccess(string(kind), hit)
}
