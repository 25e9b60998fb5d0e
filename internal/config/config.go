package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Fetcher  FetcherConfig  `yaml:"fetcher" mapstructure:"fetcher"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Currency CurrencyConfig `yaml:"currency" mapstructure:"currency"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetcherConfig configures the shared retailer page fetcher.
type FetcherConfig struct {
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HostRate     float64 `yaml:"host_rate" mapstructure:"host_rate"`
	HostBurst    int     `yaml:"host_burst" mapstructure:"host_burst"`
}

// SourcesConfig tunes the per-adapter runtime.
type SourcesConfig struct {
	MinDelayMs          int `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	AttemptTimeoutSecs  int `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs"`
	MaxRetries          int `yaml:"max_retries" mapstructure:"max_retries"`
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// CurrencyConfig configures exchange rate lookups.
type CurrencyConfig struct {
	RateURL      string `yaml:"rate_url" mapstructure:"rate_url"`
	CacheTTLMins int    `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
}

// PipelineConfig configures validation behavior.
type PipelineConfig struct {
	MaxSources            int `yaml:"max_sources" mapstructure:"max_sources"`
	CollectionTimeoutSecs int `yaml:"collection_timeout_secs" mapstructure:"collection_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout returns the per-request fetch cutoff as a duration.
func (c FetcherConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MinDelay returns the source throttle window as a duration.
func (c SourcesConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// AttemptTimeout returns the per-attempt cutoff as a duration.
func (c SourcesConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSecs) * time.Second
}

// BreakerCooldown returns the circuit cooldown as a duration.
func (c SourcesConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSecs) * time.Second
}

// CollectionTimeout returns the fan-out deadline; 0 disables it.
func (c PipelineConfig) CollectionTimeout() time.Duration {
	return time.Duration(c.CollectionTimeoutSecs) * time.Second
}

// CacheTTL returns the rate cache lifetime as a duration.
func (c CurrencyConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMins) * time.Minute
}

// Validate checks the configuration for a command mode. Modes: "validate"
// runs the pipeline, "migrate" applies store DDL, "rates" only needs the
// rate API.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkStore := func() {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required")
			}
		case "sqlite":
			// An empty URL falls back to a local database file.
		default:
			problems = append(problems, "store.driver must be postgres or sqlite")
		}
	}

	switch mode {
	case "validate":
		checkStore()
		if c.Pipeline.MaxSources < 1 || c.Pipeline.MaxSources > 20 {
			problems = append(problems, "pipeline.max_sources must be between 1 and 20")
		}
		if c.Sources.MinDelayMs < 0 {
			problems = append(problems, "sources.min_delay_ms must be >= 0")
		}
		if c.Sources.AttemptTimeoutSecs < 1 {
			problems = append(problems, "sources.attempt_timeout_secs must be >= 1")
		}
	case "migrate":
		checkStore()
	case "rates":
		if c.Currency.RateURL == "" {
			problems = append(problems, "currency.rate_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICETRUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetcher.user_agent", "price-truth/1.0")
	v.SetDefault("fetcher.timeout_secs", 20)
	v.SetDefault("fetcher.max_retries", 2)
	v.SetDefault("fetcher.max_body_bytes", 4<<20)
	v.SetDefault("fetcher.host_rate", 0.5)
	v.SetDefault("fetcher.host_burst", 1)
	v.SetDefault("sources.min_delay_ms", 1500)
	v.SetDefault("sources.attempt_timeout_secs", 12)
	v.SetDefault("sources.max_retries", 2)
	v.SetDefault("sources.breaker_threshold", 3)
	v.SetDefault("sources.breaker_cooldown_secs", 60)
	v.SetDefault("currency.rate_url", "https://api.frankfurter.app/latest")
	v.SetDefault("currency.cache_ttl_mins", 15)
	v.SetDefault("pipeline.max_sources", 5)
	v.SetDefault("pipeline.collection_timeout_secs", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
