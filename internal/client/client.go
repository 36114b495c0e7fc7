// Package client holds the HTTP clients for the environmental data
// providers: Open-Meteo (weather), SoilGrids (soil texture), Open-Elevation
// (terrain) and Nominatim (reverse geocoding). All clients share the same
// timeout, retry and error-classification plumbing; mapping provider
// payloads into domain types stays in the per-provider files.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/aristee/chantier-service/internal/circuitbreaker"
	"github.com/aristee/chantier-service/internal/models"
	"github.com/aristee/chantier-service/internal/observability"
)

// WeatherProvider fetches the 7-day forecast summary for a coordinate.
type WeatherProvider interface {
	FetchWeather(ctx context.Context, coord models.Coordinate) (models.WeatherData, error)
}

// SoilProvider fetches surface soil texture and derived classes.
type SoilProvider interface {
	FetchSoil(ctx context.Context, coord models.Coordinate) (models.SoilData, error)
}

// TerrainProvider fetches altitude and the slope heuristic built on it.
type TerrainProvider interface {
	FetchTerrain(ctx context.Context, coord models.Coordinate) (models.TerrainData, error)
}

// GeocodingProvider resolves a coordinate to a human-readable place name.
type GeocodingProvider interface {
	ReverseGeocode(ctx context.Context, coord models.Coordinate) (string, error)
}

var (
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotFound        = errors.New("not found")
)

// RetryConfig bounds the retry loop shared by all provider clients.
type RetryConfig struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetry is used when config leaves retries unset.
func DefaultRetry() RetryConfig {
	return RetryConfig{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// apiClient is the shared transport for the provider clients.
type apiClient struct {
	provider string // metric label
	timeout  time.Duration
	retry    RetryConfig
	client   *http.Client
	breaker  *circuitbreaker.Breaker
}

func newAPIClient(provider string, timeout time.Duration, retry RetryConfig) apiClient {
	if retry.Attempts <= 0 {
		retry = DefaultRetry()
	}
	return apiClient{
		provider: provider,
		timeout:  timeout,
		retry:    retry,
		client:   &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.CircuitTransitionsTotal.WithLabelValues(provider, to.String()).Inc()
			},
		}),
	}
}

// do runs the request builder through the breaker and retry loop and
// returns the raw response body. Retries apply only to transient failures
// (5xx, 429, timeouts); anything else fails immediately.
func (c *apiClient) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if !c.breaker.Allow() {
		observability.ProviderCallsTotal.WithLabelValues(c.provider, "skipped").Inc()
		return nil, fmt.Errorf("%s: %w", c.provider, circuitbreaker.ErrOpen)
	}

	var lastErr error

	for attempt := 0; attempt < c.retry.Attempts; attempt++ {
		if attempt > 0 {
			observability.ProviderRetriesTotal.WithLabelValues(c.provider).Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		body, err := c.call(ctx, build)
		if err == nil {
			c.breaker.RecordSuccess()
			return body, nil
		}

		lastErr = err
		if !isRetryable(err) {
			// Client-side errors (404, bad request) say nothing about
			// provider health; only transient failures trip the breaker.
			return nil, err
		}
	}

	c.breaker.RecordFailure()
	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *apiClient) call(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(reqCtx)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues(c.provider, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.ProviderCallsTotal.WithLabelValues(c.provider, "error").Inc()
		observability.ProviderCallDuration.WithLabelValues(c.provider, "error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := observability.StatusLabel(resp.StatusCode)
	observability.ProviderCallsTotal.WithLabelValues(c.provider, status).Inc()
	observability.ProviderCallDuration.WithLabelValues(c.provider, status).Observe(duration)

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func classifyStatus(code int) error {
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%w", ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	}
	if code >= 500 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, code)
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, code)
	}
	return nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

func (c *apiClient) backoff(attempt int) time.Duration {
	delay := float64(c.retry.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}
