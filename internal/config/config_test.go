package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "price-truth/1.0", cfg.Fetcher.UserAgent)
	assert.Equal(t, 20, cfg.Fetcher.TimeoutSecs)
	assert.Equal(t, int64(4<<20), cfg.Fetcher.MaxBodyBytes)
	assert.Equal(t, 1500, cfg.Sources.MinDelayMs)
	assert.Equal(t, 12, cfg.Sources.AttemptTimeoutSecs)
	assert.Equal(t, 2, cfg.Sources.MaxRetries)
	assert.Equal(t, 3, cfg.Sources.BreakerThreshold)
	assert.Equal(t, 5, cfg.Pipeline.MaxSources)
	assert.Equal(t, 0, cfg.Pipeline.CollectionTimeoutSecs)
	assert.Equal(t, "https://api.frankfurter.app/latest", cfg.Currency.RateURL)
	assert.Equal(t, 15, cfg.Currency.CacheTTLMins)

	assert.Equal(t, 1500*time.Millisecond, cfg.Sources.MinDelay())
	assert.Equal(t, 12*time.Second, cfg.Sources.AttemptTimeout())
	assert.Equal(t, time.Duration(0), cfg.Pipeline.CollectionTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Currency.CacheTTL())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: price-truth.db
log:
  level: debug
  format: console
sources:
  min_delay_ms: 500
pipeline:
  max_sources: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "price-truth.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 500, cfg.Sources.MinDelayMs)
	assert.Equal(t, 3, cfg.Pipeline.MaxSources)
	// Defaults still apply for unset values
	assert.Equal(t, 12, cfg.Sources.AttemptTimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PRICETRUTH_STORE_DRIVER", "postgres")
	t.Setenv("PRICETRUTH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PRICETRUTH_PIPELINE_MAX_SOURCES", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Pipeline.MaxSources)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config populated like Load's defaults for
// validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/prices"
	cfg.Sources.AttemptTimeoutSecs = 12
	cfg.Pipeline.MaxSources = 5
	cfg.Currency.RateURL = "https://api.frankfurter.app/latest"
	return cfg
}

func TestValidateValidate_OK(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("validate"))
}

func TestValidateValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	// sqlite falls back to a local file, so no URL is fine.
	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("validate"))
}

func TestValidateValidate_BadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
}

func TestValidateValidate_SourceBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.MaxSources = 0
	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.max_sources must be between 1 and 20")

	cfg.Pipeline.MaxSources = 21
	err = cfg.Validate("validate")
	assert.Error(t, err)

	cfg.Pipeline.MaxSources = 20
	cfg.Sources.AttemptTimeoutSecs = 0
	err = cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sources.attempt_timeout_secs must be >= 1")
}

func TestValidateRates(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("rates"))

	cfg.Currency.RateURL = ""
	err := cfg.Validate("rates")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "currency.rate_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
