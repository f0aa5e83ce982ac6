// Package config loads service configuration from defaults, an optional
// YAML file, a .env file and DIGITREND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"digitrend/internal/forecast"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	DevMode           bool          `mapstructure:"dev_mode"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// GeneratorConfig controls series generation and memoization
type GeneratorConfig struct {
	Noise      bool          `mapstructure:"noise"`
	NoiseSigma float64       `mapstructure:"noise_sigma"`
	Seed       uint64        `mapstructure:"seed"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// ForecastConfig holds request defaults for the trend extrapolator
type ForecastConfig struct {
	Horizon    int    `mapstructure:"horizon"`
	Confidence int    `mapstructure:"confidence"`
	Model      string `mapstructure:"model"`
	Transform  string `mapstructure:"transform"`
}

// UpstreamConfig holds the optional growth-rate source
type UpstreamConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Schedule string        `mapstructure:"schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration. An empty path or a missing file falls back to
// defaults and the environment.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DIGITREND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.requests_per_second", 20.0)
	v.SetDefault("server.burst", 40)

	v.SetDefault("generator.noise", true)
	v.SetDefault("generator.noise_sigma", 0.05)
	v.SetDefault("generator.seed", 0)
	v.SetDefault("generator.cache_ttl", "1h")

	v.SetDefault("forecast.horizon", 3)
	v.SetDefault("forecast.confidence", 95)
	v.SetDefault("forecast.model", "linear")
	v.SetDefault("forecast.transform", "log1p")

	v.SetDefault("upstream.url", "")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.schedule", "@every 1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeout < time.Second {
		return fmt.Errorf("server.request_timeout must be at least 1 second")
	}
	if c.Server.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.requests_per_second must be positive")
	}
	if c.Server.Burst < 1 {
		return fmt.Errorf("server.burst must be at least 1")
	}

	if c.Generator.NoiseSigma < 0 || c.Generator.NoiseSigma > 1 {
		return fmt.Errorf("generator.noise_sigma must be between 0 and 1")
	}
	if c.Generator.CacheTTL < time.Second {
		return fmt.Errorf("generator.cache_ttl must be at least 1 second")
	}

	if c.Forecast.Horizon < 1 || c.Forecast.Horizon > forecast.MaxHorizon {
		return fmt.Errorf("forecast.horizon must be between 1 and %d", forecast.MaxHorizon)
	}
	switch c.Forecast.Confidence {
	case 90, 95, 99:
	default:
		return fmt.Errorf("forecast.confidence must be one of: 90, 95, 99")
	}
	if c.Forecast.Model != "linear" && c.Forecast.Model != "quadratic" {
		return fmt.Errorf("forecast.model must be one of: linear, quadratic")
	}
	if c.Forecast.Transform != "log1p" && c.Forecast.Transform != "log" {
		return fmt.Errorf("forecast.transform must be one of: log1p, log")
	}

	if c.Upstream.URL != "" {
		if c.Upstream.Timeout <= 0 {
			return fmt.Errorf("upstream.timeout must be positive when upstream.url is set")
		}
		if c.Upstream.Schedule == "" {
			return fmt.Errorf("upstream.schedule is required when upstream.url is set")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}
