package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "GROUNDHOG"

var (
	// ErrInvalidAttempts is returned when fewer than one provider attempt is configured.
	ErrInvalidAttempts = errors.New("provider attempts must be at least 1")
	// ErrInvalidInterval is returned when the polling interval is not positive.
	ErrInvalidInterval = errors.New("service interval must be positive")
	// ErrInvalidAssetLimit is returned when the service would poll no assets.
	ErrInvalidAssetLimit = errors.New("service asset limit must be positive")
)

// Config holds the configuration settings for the enrichment service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Input: CSV trace to enrich once; empty runs the polling service.
// - Output: Destination of the enriched CSV; empty writes to stdout.
// - Monitoring: Settings of the health and metrics server.
// - Provider: Elevation provider selection and its transport settings.
// - Service: Polling settings of the enrichment service.
// - Tracing: OpenTelemetry settings.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env        string           `mapstructure:"env"`
	Input      string           `mapstructure:"input"`
	Output     string           `mapstructure:"output"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Service    ServiceConfig    `mapstructure:"service"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Database   PostgresConfig   `mapstructure:"postgres"`
}

// MonitoringConfig configures the health and metrics server.
type MonitoringConfig struct {
	Port int `mapstructure:"port"` // Port is the monitoring server port.
}

// ProviderConfig configures the elevation provider.
type ProviderConfig struct {
	Type          string        `mapstructure:"type"`           // Type is groundhog or google.
	Host          string        `mapstructure:"host"`           // Host of the groundhog service.
	Port          int           `mapstructure:"port"`           // Port of the groundhog service.
	Timeout       time.Duration `mapstructure:"timeout"`        // Timeout of one HTTP attempt.
	Attempts      int           `mapstructure:"attempts"`       // Attempts per asset lookup.
	RetryInterval time.Duration `mapstructure:"retry_interval"` // RetryInterval is the first backoff delay.
	APIKey        string        `mapstructure:"api_key"`        // APIKey for the Google Elevation API.
	RateLimit     int           `mapstructure:"rate_limit"`     // RateLimit in requests per second, 0 disables it.
	Stride        float64       `mapstructure:"stride"`         // Stride in meters used for slopes, 0 keeps the provider default.
}

// ServiceConfig configures the polling enrichment service.
type ServiceConfig struct {
	Workers     int           `mapstructure:"workers"`      // Workers enriching assets concurrently.
	Interval    time.Duration `mapstructure:"interval"`     // Interval between polls.
	AssetLimit  int           `mapstructure:"asset_limit"`  // AssetLimit caps the assets enriched per poll.
	MaxAttempts int           `mapstructure:"max_attempts"` // MaxAttempts before a point is no longer picked up.
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"` // Enabled exports spans to stdout.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"`     // User is the database user.
	Password string `mapstructure:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"`  // Name is the name of the database.
}

// FileMode reports whether a single CSV file should be enriched instead of running the service.
func (c *Config) FileMode() bool {
	return c.Input != ""
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	if c.Provider.Attempts < 1 {
		return ErrInvalidAttempts
	}
	if c.FileMode() {
		return nil
	}
	if c.Service.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Service.AssetLimit <= 0 {
		return ErrInvalidAssetLimit
	}

	return nil
}

// MustLoad loads .env, the optional YAML file and the environment, and panics
// when the result cannot be used.
func MustLoad() *Config {
	_ = godotenv.Load()

	cfg, err := Load(ConfigPath())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	if err = cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	return cfg
}

// Load reads the configuration from configPath, when not empty, and from
// GROUNDHOG_ prefixed environment variables, which take precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("env", "production")
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("monitoring.port", 8080)
	v.SetDefault("provider.type", "groundhog")
	v.SetDefault("provider.host", "localhost")
	v.SetDefault("provider.port", 5005)
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.attempts", 5)
	v.SetDefault("provider.retry_interval", "100ms")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.rate_limit", 0)
	v.SetDefault("provider.stride", 0.0)
	v.SetDefault("service.workers", 2)
	v.SetDefault("service.interval", "10m")
	v.SetDefault("service.asset_limit", 50)
	v.SetDefault("service.max_attempts", 5)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Database credentials keep the unprefixed names shared with other services.
	for key, env := range map[string]string{
		"postgres.host":     "DB_HOST",
		"postgres.port":     "DB_PORT",
		"postgres.user":     "DB_USERNAME",
		"postgres.password": "DB_PASSWORD",
		"postgres.db_name":  "DB_NAME",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ConfigPath returns the YAML file named by GROUNDHOG_CONFIG_PATH, or
// configs/config.yaml when it exists, or an empty string.
func ConfigPath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_PATH"); path != "" {
		return path
	}

	configPath := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	return ""
}
