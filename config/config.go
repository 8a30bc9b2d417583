// Package config loads and validates the server configuration from
// defaults, an optional JSON file, and environment variable overrides.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"growthkit/adapters/redis"
	"growthkit/adapters/sqlx"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" env:"GROWTHKIT_ENV"`
	Profile     string      `json:"profile" env:"GROWTHKIT_PROFILE"`

	// Server configuration
	Server ServerConfig `json:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Score cache configuration
	Cache CacheConfig `json:"cache"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Metrics and monitoring
	Metrics MetricsConfig `json:"metrics"`

	// Security configuration
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" env:"GROWTHKIT_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" env:"GROWTHKIT_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" env:"GROWTHKIT_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" env:"GROWTHKIT_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" env:"GROWTHKIT_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" env:"GROWTHKIT_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" env:"GROWTHKIT_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" env:"GROWTHKIT_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds storage adapter configuration. The adapter serves
// events, invites, and campaign configuration; the "file" adapter only
// serves campaigns and keeps events and invites in memory.
type StorageConfig struct {
	Adapter string      `json:"adapter" env:"GROWTHKIT_STORAGE_ADAPTER"`
	SQL     sqlx.Config `json:"sql,omitempty"`
	File    FileConfig  `json:"file,omitempty"`
}

// FileConfig holds JSON campaigns file configuration
type FileConfig struct {
	Path string `json:"path" env:"GROWTHKIT_STORAGE_FILE_PATH"`
}

// CacheConfig holds score snapshot cache configuration
type CacheConfig struct {
	Enabled bool          `json:"enabled" env:"GROWTHKIT_CACHE_ENABLED"`
	TTL     time.Duration `json:"ttl" env:"GROWTHKIT_CACHE_TTL"`
	Redis   redis.Config  `json:"redis,omitempty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" env:"GROWTHKIT_LOG_LEVEL"`
	Format     string            `json:"format" env:"GROWTHKIT_LOG_FORMAT"`
	Output     string            `json:"output" env:"GROWTHKIT_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// MetricsConfig holds metrics and monitoring configuration
type MetricsConfig struct {
	Enabled       bool   `json:"enabled" env:"GROWTHKIT_METRICS_ENABLED"`
	Address       string `json:"address" env:"GROWTHKIT_METRICS_ADDR"`
	Path          string `json:"path" env:"GROWTHKIT_METRICS_PATH"`
	CollectSystem bool   `json:"collect_system" env:"GROWTHKIT_METRICS_COLLECT_SYSTEM"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" env:"GROWTHKIT_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" env:"GROWTHKIT_SECURITY_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" env:"GROWTHKIT_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int `json:"burst_size" env:"GROWTHKIT_SECURITY_RATE_LIMIT_BURST"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadSecretsFromEnv overrides secret values from environment variables.
// Secrets are kept out of config files and the env-tag loader so they
// never round trip through JSON.
func (c *Config) LoadSecretsFromEnv(_ context.Context) error {
	if dsn := os.Getenv("GROWTHKIT_SQL_DSN"); dsn != "" {
		c.Storage.SQL.DSN = dsn
	}
	if pw := os.Getenv("GROWTHKIT_REDIS_PASSWORD"); pw != "" {
		c.Cache.Redis.Password = pw
	}
	if keys := os.Getenv("GROWTHKIT_API_KEYS"); keys != "" {
		var parsed []string
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				parsed = append(parsed, k)
			}
		}
		c.Security.APIKeys = parsed
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			SQL:     sqlx.DefaultConfig(sqlx.DriverPostgres),
			File: FileConfig{
				Path: "./data/campaigns.json",
			},
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     5 * time.Minute,
			Redis:   redis.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			Address:       ":9090",
			Path:          "/metrics",
			CollectSystem: true,
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
			},
			APIKeys: []string{},
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("cache config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("metrics config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	if cfg.Storage.SQL.DSN != "" {
		cfg.Storage.SQL.DSN = "[REDACTED]"
	}
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
