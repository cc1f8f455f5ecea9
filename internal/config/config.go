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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	ClickUp  ClickUpConfig  `yaml:"clickup" mapstructure:"clickup"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Rules    RulesConfig    `yaml:"rules" mapstructure:"rules"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ClickUpConfig holds ClickUp API credentials and the lead list.
type ClickUpConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	ListID  string `yaml:"list_id" mapstructure:"list_id"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RegistryConfig holds the charity-registry endpoints. The registry is
// keyless and read-only.
type RegistryConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// SearchConfig configures the generic web search scraper.
type SearchConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	MaxResults  int     `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ExtractConfig configures the website content extractor.
type ExtractConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyKB   int     `yaml:"max_body_kb" mapstructure:"max_body_kb"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// EnrichConfig configures the enrichment coordinator.
type EnrichConfig struct {
	MaxWorkers      int `yaml:"max_workers" mapstructure:"max_workers"`
	BatchSize       int `yaml:"batch_size" mapstructure:"batch_size"`
	LeadTimeoutSecs int `yaml:"lead_timeout_secs" mapstructure:"lead_timeout_secs"`
}

// RulesConfig locates the product rule-set file. Empty path means built-in
// defaults.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReportConfig configures report generation.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Format    string `yaml:"format" mapstructure:"format"` // csv or xlsx
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LEADOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadopt.db")
	// Keys without a meaningful default still need registering so
	// AutomaticEnv can resolve them.
	v.SetDefault("clickup.api_key", "")
	v.SetDefault("clickup.list_id", "")
	v.SetDefault("rules.path", "")
	v.SetDefault("clickup.base_url", "https://api.clickup.com/api/v2")
	v.SetDefault("registry.base_url", "https://projects.propublica.org/nonprofits/api/v2")
	v.SetDefault("registry.timeout_secs", 10)
	v.SetDefault("registry.rate_per_sec", 2)
	v.SetDefault("search.base_url", "https://www.google.com/search")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.rate_per_sec", 1)
	v.SetDefault("extract.timeout_secs", 10)
	v.SetDefault("extract.max_body_kb", 512)
	v.SetDefault("extract.user_agent", "Mozilla/5.0 (compatible; LeadOptimizerBot/2.0)")
	v.SetDefault("extract.rate_per_sec", 2)
	v.SetDefault("enrich.max_workers", 5)
	v.SetDefault("enrich.batch_size", 50)
	v.SetDefault("enrich.lead_timeout_secs", 30)
	v.SetDefault("report.output_dir", "exports")
	v.SetDefault("report.format", "csv")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
