// Package config loads service configuration from config/{ENV_NAME}.yaml
// with environment variable overrides for deployment-specific values. The
// Mistral API key comes from the environment or config/secrets.yaml, never
// from the main config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aristee/chantier-service/internal/coeff"
)

// Config holds the service configuration.
type Config struct {
	ServerPort string

	// Provider base URLs, empty means the public endpoint.
	OpenMeteoURL     string
	SoilGridsURL     string
	OpenElevationURL string
	NominatimURL     string
	GeocodingEnabled bool

	ProviderTimeout time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration

	// EstimateTimeout bounds one estimation request end to end.
	EstimateTimeout time.Duration

	CacheBackend          string // "in_memory" or "memcached"
	CacheSweepInterval    time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	Rates coeff.Rates

	MistralAPIKey  string
	MistralURL     string
	MistralModel   string
	MistralTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Providers struct {
		OpenMeteoURL     string `yaml:"open_meteo_url"`
		SoilGridsURL     string `yaml:"soilgrids_url"`
		OpenElevationURL string `yaml:"open_elevation_url"`
		NominatimURL     string `yaml:"nominatim_url"`
		GeocodingEnabled *bool  `yaml:"geocoding_enabled"`
		Timeout          string `yaml:"timeout"`
	} `yaml:"providers"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		EstimateTimeout  string `yaml:"estimate_timeout"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Cache struct {
		Backend       string `yaml:"backend"`
		SweepInterval string `yaml:"sweep_interval"`
		Memcached     struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Mistral struct {
		URL     string `yaml:"url"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"mistral"`
}

type secretsFile struct {
	MistralAPIKey string `yaml:"mistral_api_key"`
}

// Load reads config/{ENV_NAME}.yaml (default dev) relative to the working
// directory, then applies env overrides. The Mistral key is optional: the
// service runs with rule-based annotations without it.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	cfg.MistralAPIKey = os.Getenv("MISTRAL_API_KEY")
	if cfg.MistralAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.MistralAPIKey = sec.MistralAPIKey
		}
	}

	if v := strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND"))); v != "" {
		cfg.CacheBackend = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")); v != "" {
		cfg.MemcachedAddrs = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.ServerPort = v
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse builds a Config from raw YAML, applying defaults for everything the
// file leaves out.
func parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.OpenMeteoURL = fc.Providers.OpenMeteoURL
	cfg.SoilGridsURL = fc.Providers.SoilGridsURL
	cfg.OpenElevationURL = fc.Providers.OpenElevationURL
	cfg.NominatimURL = fc.Providers.NominatimURL
	cfg.GeocodingEnabled = true
	if fc.Providers.GeocodingEnabled != nil {
		cfg.GeocodingEnabled = *fc.Providers.GeocodingEnabled
	}
	cfg.ProviderTimeout = parseDuration(fc.Providers.Timeout, 5*time.Second)

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.EstimateTimeout = parseDuration(fc.Reliability.EstimateTimeout, 30*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheSweepInterval = parseDuration(fc.Cache.SweepInterval, 10*time.Minute)
	cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.MistralURL = fc.Mistral.URL
	cfg.MistralModel = fc.Mistral.Model
	cfg.MistralTimeout = parseDuration(fc.Mistral.Timeout, 10*time.Second)

	// Rates default first, then a partial rates: section overrides only the
	// keys it names.
	cfg.Rates = coeff.DefaultRates()
	var override struct {
		Rates *coeff.Rates `yaml:"rates"`
	}
	override.Rates = &cfg.Rates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse rates: %w", err)
	}

	return cfg, nil
}

// parseDuration parses a duration string, falling back to defaultVal on
// empty input, parse failure or a non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.EstimateTimeout <= cfg.ProviderTimeout {
		cfg.EstimateTimeout = cfg.ProviderTimeout + 5*time.Second
	}
	r := cfg.Rates
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"machine_hourly_cost", r.MachineHourlyCost},
		{"fuel_price", r.FuelPrice},
		{"base_speed", r.BaseSpeed},
		{"base_payload", r.BasePayload},
	} {
		if v.value <= 0 {
			return fmt.Errorf("rates.%s must be positive, got %v", v.name, v.value)
		}
	}
	return nil
}
