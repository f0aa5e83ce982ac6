package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Generator.Noise)
	assert.Equal(t, 0.05, cfg.Generator.NoiseSigma)
	assert.Equal(t, time.Hour, cfg.Generator.CacheTTL)
	assert.Equal(t, 3, cfg.Forecast.Horizon)
	assert.Equal(t, 95, cfg.Forecast.Confidence)
	assert.Equal(t, "linear", cfg.Forecast.Model)
	assert.Equal(t, "log1p", cfg.Forecast.Transform)
	assert.Empty(t, cfg.Upstream.URL)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  burst: 5
generator:
  noise: false
  seed: 42
  cache_ttl: 10m
forecast:
  confidence: 99
  model: quadratic
upstream:
  url: "http://rates.internal/api"
  schedule: "@every 30m"
logging:
  level: debug
  pretty: true
`)
	t.Setenv("DIGITREND_SERVER_PORT", "7070")
	t.Setenv("DIGITREND_FORECAST_HORIZON", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.Burst)
	assert.False(t, cfg.Generator.Noise)
	assert.Equal(t, uint64(42), cfg.Generator.Seed)
	assert.Equal(t, 10*time.Minute, cfg.Generator.CacheTTL)
	assert.Equal(t, 5, cfg.Forecast.Horizon)
	assert.Equal(t, 99, cfg.Forecast.Confidence)
	assert.Equal(t, "quadratic", cfg.Forecast.Model)
	assert.Equal(t, "http://rates.internal/api", cfg.Upstream.URL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Logging.Pretty)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "server: [port: 1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"short request timeout", func(c *Config) { c.Server.RequestTimeout = time.Millisecond }},
		{"no rate", func(c *Config) { c.Server.RequestsPerSecond = 0 }},
		{"no burst", func(c *Config) { c.Server.Burst = 0 }},
		{"negative sigma", func(c *Config) { c.Generator.NoiseSigma = -0.1 }},
		{"short cache ttl", func(c *Config) { c.Generator.CacheTTL = 0 }},
		{"zero horizon", func(c *Config) { c.Forecast.Horizon = 0 }},
		{"horizon past max", func(c *Config) { c.Forecast.Horizon = 21 }},
		{"bad confidence", func(c *Config) { c.Forecast.Confidence = 80 }},
		{"bad model", func(c *Config) { c.Forecast.Model = "cubic" }},
		{"bad transform", func(c *Config) { c.Forecast.Transform = "sqrt" }},
		{"upstream without schedule", func(c *Config) { c.Upstream.URL = "http://x"; c.Upstream.Schedule = "" }},
		{"upstream without timeout", func(c *Config) { c.Upstream.URL = "http://x"; c.Upstream.Timeout = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
