// Package http exposes the chantier estimation API: estimation, health,
// cache administration and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aristee/chantier-service/internal/geocache"
	"github.com/aristee/chantier-service/internal/models"
	"github.com/aristee/chantier-service/internal/observability"
	"github.com/aristee/chantier-service/internal/service"
	"github.com/aristee/chantier-service/internal/validation"
)

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	estimator *service.Estimator
	cache     *geocache.GeoCache
	logger    *zap.Logger
	version   string

	// CachePing, when set, is called by the health handler to check the
	// cache backend. Used with memcached; the in-memory store needs none.
	CachePing func() error

	draining atomic.Bool
}

// NewHandler returns a Handler over the estimator and cache.
func NewHandler(estimator *service.Estimator, cache *geocache.GeoCache, logger *zap.Logger, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		estimator: estimator,
		cache:     cache,
		logger:    logger,
		version:   version,
	}
}

// SetDraining marks the service as shutting down. The health endpoint
// answers 503 afterwards so load balancers stop routing new traffic.
func (h *Handler) SetDraining(v bool) {
	h.draining.Store(v)
}

// PostEstimate handles POST /estimate.
func (h *Handler) PostEstimate(w http.ResponseWriter, r *http.Request) {
	var input models.ChantierInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	// The snapshot is always collected server side.
	input.Environment = nil

	if err := validation.ValidateChantier(input); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeValidationError(w, r, fields)
			return
		}
		writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	estimation, err := h.estimator.Estimate(r.Context(), input)
	if err != nil {
		if logger := loggerFromContext(r.Context()); logger != nil {
			logger.Error("estimation failed", zap.Error(err))
		}
		writeError(w, r, http.StatusInternalServerError, "ESTIMATION_FAILED", "unable to estimate chantier")
		return
	}
	writeJSON(w, http.StatusOK, estimation)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if h.draining.Load() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	checks := make(map[string]string)
	if h.CachePing != nil {
		if err := h.CachePing(); err != nil {
			checks["cache"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		} else {
			checks["cache"] = "healthy"
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"status":    status,
		"service":   "chantier-service",
		"version":   h.version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetCacheStats handles GET /cache/stats.
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

// DeleteCache handles DELETE /cache.
func (h *Handler) DeleteCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		if logger := loggerFromContext(r.Context()); logger != nil {
			logger.Error("cache clear failed", zap.Error(err))
		}
		writeError(w, r, http.StatusInternalServerError, "CACHE_CLEAR_FAILED", "unable to clear cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "cache cleared"})
}

// RouterConfig bundles the knobs of NewRouter.
type RouterConfig struct {
	RateLimiter     *rate.Limiter // nil disables rate limiting
	EstimateTimeout time.Duration // 0 disables the per-request deadline
}

// NewRouter assembles the mux with the middleware chain. Order matters:
// correlation ID first so every later stage logs it, then metrics, then
// rate limiting.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(CorrelationIDMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(cfg.RateLimiter))

	estimate := r.Path("/estimate").Subrouter()
	if cfg.EstimateTimeout > 0 {
		estimate.Use(TimeoutMiddleware(cfg.EstimateTimeout))
	}
	estimate.Methods(http.MethodPost).HandlerFunc(h.PostEstimate)

	r.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	r.HandleFunc("/cache/stats", h.GetCacheStats).Methods(http.MethodGet)
	r.HandleFunc("/cache", h.DeleteCache).Methods(http.MethodDelete)
	r.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationIDFromContext(r.Context()),
		},
	})
}

// writeValidationError reports every violated field at once.
func writeValidationError(w http.ResponseWriter, r *http.Request, fields validation.Errors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":      "VALIDATION_FAILED",
			"message":   "chantier input is invalid",
			"fields":    fields,
			"requestId": correlationIDFromContext(r.Context()),
		},
	})
}

func correlationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

func loggerFromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return nil
}
