//go:build integration

// Package testhelpers wires a real estimator against the public provider
// APIs for integration tests. Guarded by the integration build tag; enable
// with INTEGRATION_PROVIDERS=1 so CI does not hit third-party endpoints by
// accident.
package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aristee/chantier-service/internal/aggregator"
	"github.com/aristee/chantier-service/internal/client"
	"github.com/aristee/chantier-service/internal/coeff"
	"github.com/aristee/chantier-service/internal/geocache"
	"github.com/aristee/chantier-service/internal/service"
)

// SetupIntegrationEstimator builds an estimator over the live public
// providers and an in-memory cache (or memcached when MEMCACHED_ADDRS is
// set). Returns the estimator, its cache and a cleanup function.
func SetupIntegrationEstimator(t *testing.T) (*service.Estimator, *geocache.GeoCache, func()) {
	t.Helper()
	if os.Getenv("INTEGRATION_PROVIDERS") == "" {
		t.Skip("INTEGRATION_PROVIDERS not set, skipping live provider test")
	}

	logger := zap.NewNop()
	retry := client.DefaultRetry()
	timeout := 10 * time.Second

	var store geocache.Store
	cleanup := func() {}
	if addrs := os.Getenv("MEMCACHED_ADDRS"); addrs != "" {
		mc, err := geocache.NewMemcachedStore(addrs, 500*time.Millisecond, 2)
		if err != nil || mc.Ping() != nil {
			t.Logf("memcached not reachable at %s, using in-memory store", addrs)
			store = geocache.NewMemoryStore()
		} else {
			store = mc
			cleanup = func() { _ = mc.Close() }
		}
	} else {
		store = geocache.NewMemoryStore()
	}

	cache := geocache.New(store, logger)
	agg := aggregator.New(cache,
		client.NewOpenMeteoClient("", timeout, retry),
		client.NewSoilGridsClient("", timeout, retry),
		client.NewOpenElevationClient("", timeout, retry),
		client.NewNominatimClient("", timeout, retry),
		logger)

	return service.New(agg, nil, coeff.DefaultRates(), logger), cache, cleanup
}
