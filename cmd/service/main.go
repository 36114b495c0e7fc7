package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aristee/chantier-service/internal/aggregator"
	"github.com/aristee/chantier-service/internal/annotate"
	"github.com/aristee/chantier-service/internal/client"
	"github.com/aristee/chantier-service/internal/config"
	"github.com/aristee/chantier-service/internal/geocache"
	httphandler "github.com/aristee/chantier-service/internal/http"
	"github.com/aristee/chantier-service/internal/observability"
	"github.com/aristee/chantier-service/internal/service"
)

var version = "dev"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	retry := client.RetryConfig{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		MaxDelay:  cfg.RetryMaxDelay,
	}
	weather := client.NewOpenMeteoClient(cfg.OpenMeteoURL, cfg.ProviderTimeout, retry)
	soil := client.NewSoilGridsClient(cfg.SoilGridsURL, cfg.ProviderTimeout, retry)
	terrain := client.NewOpenElevationClient(cfg.OpenElevationURL, cfg.ProviderTimeout, retry)
	var geocoding client.GeocodingProvider
	if cfg.GeocodingEnabled {
		geocoding = client.NewNominatimClient(cfg.NominatimURL, cfg.ProviderTimeout, retry)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	var store geocache.Store
	var memcached *geocache.MemcachedStore
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := geocache.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached store", zap.Error(err))
		}
		memcached = mc
		store = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		mem := geocache.NewMemoryStore()
		go mem.SweepPeriodic(sweepCtx, cfg.CacheSweepInterval)
		store = mem
		logger.Info("cache backend: in_memory", zap.Duration("sweep_interval", cfg.CacheSweepInterval))
	}
	cache := geocache.New(store, logger)

	agg := aggregator.New(cache, weather, soil, terrain, geocoding, logger)

	annotator := annotate.New(annotate.Config{
		APIKey:  cfg.MistralAPIKey,
		BaseURL: cfg.MistralURL,
		Model:   cfg.MistralModel,
		Timeout: cfg.MistralTimeout,
	}, logger)
	if !annotator.Enabled() {
		logger.Info("no Mistral API key configured, annotations are rule based")
	}

	estimator := service.New(agg, annotator, cfg.Rates, logger)

	handler := httphandler.NewHandler(estimator, cache, logger, version)
	if memcached != nil {
		handler.CachePing = memcached.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RateLimiter:     limiter,
		EstimateTimeout: cfg.EstimateTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.EstimateTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	handler.SetDraining(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if inFlight := httphandler.InFlightCount(); inFlight > 0 {
		logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httphandler.WaitForInFlight(waitCtx, 50*time.Millisecond); err != nil {
			logger.Warn("in-flight requests not completed",
				zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}
		waitCancel()
	}

	stopSweep()
	if memcached != nil {
		if err := memcached.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
