package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Completed estimations by decision. Watch for: refuse-rate drift
	// signalling miscalibrated rates or bad upstream data.
	EstimationsTotal *prometheus.CounterVec

	// End-to-end estimation latency, data collection included.
	EstimationDuration prometheus.Histogram

	// Provider API call rate by provider and status.
	ProviderCallsTotal *prometheus.CounterVec

	// Provider API latency. Watch for: p95 > 2s (upstream degradation).
	ProviderCallDuration *prometheus.HistogramVec

	// Retry attempts per provider. High retries = unstable upstream.
	ProviderRetriesTotal *prometheus.CounterVec

	// Default-snapshot substitutions per data kind. Nonzero means the
	// pipeline ran on conservative defaults rather than live data.
	FallbacksTotal *prometheus.CounterVec

	// Geocache accesses by kind and outcome (hit/miss).
	CacheAccessTotal *prometheus.CounterVec

	// Requests denied by the token bucket.
	RateLimitDeniedTotal prometheus.Counter

	// Provider circuit breaker transitions by target state. An "open"
	// transition means the provider is being skipped entirely.
	CircuitTransitionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	EstimationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimationsTotal",
			Help: "Total number of completed chantier estimations by decision",
		},
		[]string{"decision"},
	)
	EstimationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "estimationDurationSeconds",
			Help:    "End-to-end estimation latency in seconds, environmental data collection included",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of environmental provider API calls",
		},
		[]string{"provider", "status"},
	)
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerCallDurationSeconds",
			Help:    "Provider API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "status"},
	)
	ProviderRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerRetriesTotal",
			Help: "Total number of retry attempts per provider",
		},
		[]string{"provider"},
	)
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallbacksTotal",
			Help: "Total number of default-value substitutions after provider failures, by data kind",
		},
		[]string{"kind"},
	)
	CacheAccessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheAccessTotal",
			Help: "Geocache accesses by data kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the rate limiter",
		},
	)
	CircuitTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitTransitionsTotal",
			Help: "Provider circuit breaker transitions by provider and target state",
		},
		[]string{"provider", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		EstimationsTotal,
		EstimationDuration,
		ProviderCallsTotal,
		ProviderCallDuration,
		ProviderRetriesTotal,
		FallbacksTotal,
		CacheAccessTotal,
		RateLimitDeniedTotal,
		CircuitTransitionsTotal,
	)
}

// MetricsHandler returns the /metrics endpoint handler for the private
// registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// StatusLabel buckets an HTTP status code for metric labels ("2xx", "4xx"...).
func StatusLabel(code int) string {
	if code >= 100 && code < 600 {
		return strconv.Itoa(code/100) + "xx"
	}
	return "unknown"
}

// RecordCacheAccess increments the cache access counter for a kind.
func RecordCacheAccess(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheAccessTotal.WithLabelValues(kind, outcome).Inc()
}
