package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	FEC        FECConfig        `yaml:"fec" mapstructure:"fec"`
	Lobbying   LobbyingConfig   `yaml:"lobbying" mapstructure:"lobbying"`
	Grants     GrantsConfig     `yaml:"grants" mapstructure:"grants"`
	Filings    FilingsConfig    `yaml:"filings" mapstructure:"filings"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// FECConfig configures the campaign-finance adapter. An empty APIKey is a
// defined non-error state: the adapter serves its synthetic dataset.
type FECConfig struct {
	APIKey     string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string   `yaml:"base_url" mapstructure:"base_url"`
	Committees []string `yaml:"committees" mapstructure:"committees"`
	PageSize   int      `yaml:"page_size" mapstructure:"page_size"`
	MaxPages   int      `yaml:"max_pages" mapstructure:"max_pages"`
}

// LobbyingConfig configures the Senate LDA adapter. The LDA API is public;
// no credential is required.
type LobbyingConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
	MaxPages int    `yaml:"max_pages" mapstructure:"max_pages"`
}

// GrantsConfig configures the nonprofit-grants adapter.
type GrantsConfig struct {
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url"`
	Foundations []string `yaml:"foundations" mapstructure:"foundations"`
	PageSize    int      `yaml:"page_size" mapstructure:"page_size"`
	MaxPages    int      `yaml:"max_pages" mapstructure:"max_pages"`
}

// FilingsConfig configures the corporate financial filings adapter.
type FilingsConfig struct {
	APIKey  string   `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string   `yaml:"base_url" mapstructure:"base_url"`
	CIKs    []string `yaml:"ciks" mapstructure:"ciks"`
}

// ResilienceConfig configures retry and circuit breaker behavior for all
// outbound calls.
type ResilienceConfig struct {
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs       int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	BackoffFactor     float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	Jitter            bool    `yaml:"jitter" mapstructure:"jitter"`
	FailureThreshold  int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	RecoveryTimeoutS  int     `yaml:"recovery_timeout_secs" mapstructure:"recovery_timeout_secs"`
	RequestTimeoutS   int     `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	DefaultHostPerSec float64 `yaml:"default_host_per_sec" mapstructure:"default_host_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISCLOSURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "disclosure.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("fec.base_url", "https://api.open.fec.gov/v1")
	v.SetDefault("fec.page_size", 100)
	v.SetDefault("fec.max_pages", 50)
	v.SetDefault("fec.committees", []string{"C00123456", "C00234567", "C00345678"})

	v.SetDefault("lobbying.base_url", "https://lda.senate.gov/api/v1")
	v.SetDefault("lobbying.page_size", 25)
	v.SetDefault("lobbying.max_pages", 40)

	v.SetDefault("grants.base_url", "https://api.propublica.org/nonprofits/v1")
	v.SetDefault("grants.page_size", 100)
	v.SetDefault("grants.max_pages", 20)
	v.SetDefault("grants.foundations", []string{"13-3398765", "91-1144442", "94-3068481"})

	v.SetDefault("filings.base_url", "https://api.sec-api.io")
	v.SetDefault("filings.ciks", []string{"0000320193", "0000789019", "0001652044"})

	v.SetDefault("resilience.max_retries", 3)
	v.SetDefault("resilience.base_delay_ms", 1000)
	v.SetDefault("resilience.max_delay_ms", 60000)
	v.SetDefault("resilience.backoff_factor", 2.0)
	v.SetDefault("resilience.jitter", true)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.recovery_timeout_secs", 60)
	v.SetDefault("resilience.request_timeout_secs", 30)
	v.SetDefault("resilience.default_host_per_sec", 10)

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
