package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"linkmap/core-go/internal/mapview"
	"linkmap/core-go/internal/observability"
)

// Config holds all user-facing configuration for linkmap.
type Config struct {
	HTTP     HTTPConfig                  `yaml:"http"`
	Log      LogConfig                   `yaml:"log"`
	Database DatabaseConfig              `yaml:"database"`
	Cache    CacheConfig                 `yaml:"cache"`
	Map      MapConfig                   `yaml:"map"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
	// ApplySchema runs the embedded migrations on startup.
	ApplySchema bool `yaml:"apply_schema"`
}

type CacheConfig struct {
	Backend    string        `yaml:"backend"` // none | memory | redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"` // memory backend only
	Redis      RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MapConfig holds the defaults used when a request leaves an option out.
type MapConfig struct {
	SeparationEnabled bool    `yaml:"separation_enabled"`
	SeparationMeters  float64 `yaml:"separation_m"`
	OffsetMeters      float64 `yaml:"offset_m"`
	ArrowPosition     float64 `yaml:"arrow_t"`
}

func (m MapConfig) Options() mapview.Options {
	return mapview.Options{
		SeparationEnabled: m.SeparationEnabled,
		SeparationMeters:  m.SeparationMeters,
		OffsetMeters:      m.OffsetMeters,
		ArrowPosition:     m.ArrowPosition,
	}
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	opts := mapview.DefaultOptions()
	return &Config{
		HTTP:     HTTPConfig{Addr: ":8081", RequestTimeout: 15 * time.Second, MaxUploadBytes: 32 << 20},
		Log:      LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{},
		Cache:    CacheConfig{Backend: "memory", TTL: 10 * time.Minute, MaxEntries: 1024, Redis: RedisConfig{Prefix: "linkmap"}},
		Map: MapConfig{
			SeparationEnabled: opts.SeparationEnabled,
			SeparationMeters:  opts.SeparationMeters,
			OffsetMeters:      opts.OffsetMeters,
			ArrowPosition:     opts.ArrowPosition,
		},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load reads a YAML config file. If path is empty or the file does not
// exist, built-in defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables on top of file values.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	envOr := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	c.HTTP.Addr = envOr("HTTP_ADDR", c.HTTP.Addr)
	c.Log.Level = envOr("LOG_LEVEL", c.Log.Level)
	c.Log.Format = strings.ToLower(envOr("LOG_FORMAT", c.Log.Format))
	c.Database.URL = envOr("DATABASE_URL", c.Database.URL)
	c.Cache.Backend = envOr("CACHE_BACKEND", c.Cache.Backend)
	if addr := getenv("REDIS_ADDR"); addr != "" {
		c.Cache.Redis.Addr = addr
		if getenv("CACHE_BACKEND") == "" {
			c.Cache.Backend = "redis"
		}
	}
	c.Cache.Redis.Password = envOr("REDIS_PASSWORD", c.Cache.Redis.Password)

	if v := getenv("TRACING_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRACING_ENABLED: %w", err)
		}
		c.Tracing.Enabled = enabled
	}
	c.Tracing.Exporter = strings.ToLower(envOr("TRACING_EXPORTER", c.Tracing.Exporter))
	c.Tracing.Endpoint = envOr("TRACING_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.ServiceName = envOr("TRACING_SERVICE_NAME", c.Tracing.ServiceName)
	if v := getenv("TRACING_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRACING_SAMPLE_RATIO: %w", err)
		}
		c.Tracing.SampleRatio = ratio
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries must not be negative")
	}
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("http.request_timeout must be positive")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.max_upload_bytes must be positive")
	}
	if err := c.Map.Options().Validate(); err != nil {
		return fmt.Errorf("map defaults: %w", err)
	}
	return nil
}
