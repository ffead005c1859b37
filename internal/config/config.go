// Package config loads the service configuration and the clinic catalogue.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Port                int      `yaml:"port"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		CORSOrigins         []string `yaml:"cors_origins"`
		RateLimitPerMinute  int      `yaml:"rate_limit_per_minute"`
		RateLimitBurst      int      `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`

	// Store selects the backend: sqlite or mongo.
	Store string `yaml:"store"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Backup struct {
		Enabled        bool   `yaml:"enabled"`
		IntervalHours  int    `yaml:"interval_hours"`
		Path           string `yaml:"path"`
		RetentionCount int    `yaml:"retention_count"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
		LockTTLSeconds  int    `yaml:"lock_ttl_seconds"`
		LockWaitMillis  int    `yaml:"lock_wait_millis"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		Timezone            string `yaml:"timezone"`
		GranularityMinutes  int    `yaml:"granularity_minutes"`
		MinAdvanceMinutes   int    `yaml:"min_advance_minutes"`
		MaxAdvanceDays      int    `yaml:"max_advance_days"`
		StoreTimeoutSeconds int    `yaml:"store_timeout_seconds"`
		RetryMax            int    `yaml:"retry_max"`
		RetryDelaysMillis   []int  `yaml:"retry_delays_millis"`
	} `yaml:"booking"`

	Clinic struct {
		Path                 string `yaml:"path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"clinic"`
}

// Load reads the YAML file at path. A .env file in the working directory,
// if present, is loaded first so ${VAR} placeholders can refer to it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Store == "sqlite" {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.Store == "" {
		c.Store = "sqlite"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 120
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/beautybook.db"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "beautybook"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Clinic.Path == "" {
		c.Clinic.Path = DefaultClinicPath
	}
}

func (c *Config) Validate() error {
	switch c.Store {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("store: unknown backend %q, expected sqlite or mongo", c.Store)
	}
	if c.Store == "mongo" && c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required when store is mongo")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	if c.Booking.GranularityMinutes < 0 {
		return fmt.Errorf("booking.granularity_minutes cannot be negative")
	}
	for i, d := range c.Booking.RetryDelaysMillis {
		if d < 0 {
			return fmt.Errorf("booking.retry_delays_millis[%d] cannot be negative", i)
		}
	}
	return nil
}

// Location is the clinic's time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) BookingMinAdvance() time.Duration {
	if c.Booking.MinAdvanceMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Booking.MinAdvanceMinutes) * time.Minute
}

func (c *Config) StoreTimeout() time.Duration {
	if c.Booking.StoreTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Booking.StoreTimeoutSeconds) * time.Second
}

// RetryDelays returns nil when none are configured.
func (c *Config) RetryDelays() []time.Duration {
	if len(c.Booking.RetryDelaysMillis) == 0 {
		return nil
	}
	out := make([]time.Duration, len(c.Booking.RetryDelaysMillis))
	for i, ms := range c.Booking.RetryDelaysMillis {
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	if c.Redis.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Redis.LockTTLSeconds) * time.Second
}

func (c *Config) LockWait() time.Duration {
	if c.Redis.LockWaitMillis <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Redis.LockWaitMillis) * time.Millisecond
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) ReadTimeout() time.Duration {
	if c.Server.ReadTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	if c.Server.WriteTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

func (c *Config) ClinicWatchInterval() time.Duration {
	if c.Clinic.WatchIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Clinic.WatchIntervalSeconds) * time.Second
}
