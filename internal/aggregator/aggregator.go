// Package aggregator collects the environmental snapshot a chantier
// estimation runs on. Weather, soil and terrain are fetched in parallel
// through the geocache; a provider that fails after retries is replaced by
// conservative defaults so an estimation always completes.
package aggregator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aristee/chantier-service/internal/client"
	"github.com/aristee/chantier-service/internal/geocache"
	"github.com/aristee/chantier-service/internal/models"
	"github.com/aristee/chantier-service/internal/observability"
)

// Aggregator builds environmental snapshots for coordinates.
type Aggregator struct {
	cache     *geocache.GeoCache
	weather   client.WeatherProvider
	soil      client.SoilProvider
	terrain   client.TerrainProvider
	geocoding client.GeocodingProvider // optional
	logger    *zap.Logger

	now func() time.Time
}

// New wires an aggregator over the cache and providers. geocoding may be
// nil; snapshots then carry no place name.
func New(cache *geocache.GeoCache, weather client.WeatherProvider, soil client.SoilProvider, terrain client.TerrainProvider, geocoding client.GeocodingProvider, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		cache:     cache,
		weather:   weather,
		soil:      soil,
		terrain:   terrain,
		geocoding: geocoding,
		logger:    logger,
		now:       time.Now,
	}
}

// Conservative stand-ins when a provider is unreachable: mildly humid
// weather, loamy soil, rolling terrain. Pessimistic enough that a chantier
// on defaults never looks better than it would on live data.
func defaultWeather() models.WeatherData {
	return models.WeatherData{PrecipitationProbability: 30, RainAccumulation7d: 10, CurrentTemp: 15}
}

func defaultSoil() models.SoilData {
	return models.SoilData{
		ClayContent: 25,
		SandContent: 40,
		SiltContent: 35,
		Drainage:    models.DrainageMedium,
		Sensitivity: models.SensitivityMedium,
	}
}

func defaultTerrain() models.TerrainData {
	return models.TerrainData{Altitude: 200, Slope: 5, Difficulty: models.DifficultyMedium}
}

// Collect assembles the snapshot for a coordinate. It never fails: each
// data kind independently falls back to its default when the provider and
// cache both come up empty, and the substitution is logged and counted.
func (a *Aggregator) Collect(ctx context.Context, coord models.Coordinate) *models.EnvironmentalSnapshot {
	snapshot := &models.EnvironmentalSnapshot{
		Season:      models.SeasonOf(a.now()),
		RetrievedAt: a.now(),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		weather, err := geocache.Fetch(ctx, a.cache, geocache.KindWeather, coord.Latitude, coord.Longitude, geocache.TTLWeather,
			func(ctx context.Context) (models.WeatherData, error) {
				return a.weather.FetchWeather(ctx, coord)
			})
		if err != nil {
			a.fallback("weather", coord, err)
			weather = defaultWeather()
		}
		snapshot.Weather = weather
	}()

	go func() {
		defer wg.Done()
		soil, err := geocache.Fetch(ctx, a.cache, geocache.KindSoil, coord.Latitude, coord.Longitude, geocache.TTLSoil,
			func(ctx context.Context) (models.SoilData, error) {
				return a.soil.FetchSoil(ctx, coord)
			})
		if err != nil {
			a.fallback("soil", coord, err)
			soil = defaultSoil()
		}
		snapshot.Soil = soil
	}()

	go func() {
		defer wg.Done()
		terrain, err := geocache.Fetch(ctx, a.cache, geocache.KindElevation, coord.Latitude, coord.Longitude, geocache.TTLElevation,
			func(ctx context.Context) (models.TerrainData, error) {
				return a.terrain.FetchTerrain(ctx, coord)
			})
		if err != nil {
			a.fallback("elevation", coord, err)
			terrain = defaultTerrain()
		}
		snapshot.Terrain = terrain
	}()

	wg.Wait()

	// Geocoding is cosmetic; run it after the blocking fetches and accept
	// an empty name on failure without counting a fallback.
	if a.geocoding != nil {
		name, err := geocache.Fetch(ctx, a.cache, geocache.KindGeocoding, coord.Latitude, coord.Longitude, geocache.TTLGeocoding,
			func(ctx context.Context) (string, error) {
				return a.geocoding.ReverseGeocode(ctx, coord)
			})
		if err != nil {
			a.logger.Warn("reverse geocoding failed",
				zap.Float64("lat", coord.Latitude),
				zap.Float64("lon", coord.Longitude),
				zap.Error(err))
		} else {
			snapshot.PlaceName = name
		}
	}

	return snapshot
}

func (a *Aggregator) fallback(kind string, coord models.Coordinate, err error) {
	observability.FallbacksTotal.WithLabelValues(kind).Inc()
	a.logger.Warn("provider unavailable, using conservative defaults",
		zap.String("kind", kind),
		zap.Float64("lat", coord.Latitude),
		zap.Float64("lon", coord.Longitude),
		zap.Error(err))
}
