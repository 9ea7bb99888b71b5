package config

import (
	"time"

	"golang-stock-scorer/pkg/config"
)

// Listing holds the configuration for the stock listing source.
type Listing struct {
	BaseURL         string        `mapstructure:"base_url"`
	PageSize        int           `mapstructure:"page_size"`
	Markets         []string      `mapstructure:"markets"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	DirectoryTTL    time.Duration `mapstructure:"directory_ttl"`
	ExcludeWarrants bool          `mapstructure:"exclude_warrants"`
}

// Screener holds the configuration for the per-stock detail source.
type Screener struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryInterval       time.Duration `mapstructure:"retry_interval"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
}

// Refresh holds the configuration for the background refresh pipeline.
type Refresh struct {
	CronSchedule string `mapstructure:"cron_schedule"`
}

// Config holds the full configuration for the scorer service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Telegram config.Telegram `mapstructure:"telegram"`
	Listing  Listing         `mapstructure:"listing"`
	Screener Screener        `mapstructure:"screener"`
	Refresh  Refresh         `mapstructure:"refresh"`
}

// Load loads the service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listing.PageSize <= 0 {
		cfg.Listing.PageSize = 500
	}
	if len(cfg.Listing.Markets) == 0 {
		cfg.Listing.Markets = []string{"ACE", "ETF", "MAIN"}
	}
	if cfg.Listing.Timeout <= 0 {
		cfg.Listing.Timeout = 15 * time.Second
	}
	if cfg.Listing.MaxRetries <= 0 {
		cfg.Listing.MaxRetries = 3
	}
	if cfg.Listing.RetryInterval <= 0 {
		cfg.Listing.RetryInterval = time.Second
	}
	if cfg.Listing.DirectoryTTL <= 0 {
		cfg.Listing.DirectoryTTL = 6 * time.Hour
	}
	if cfg.Screener.Timeout <= 0 {
		cfg.Screener.Timeout = 10 * time.Second
	}
	if cfg.Screener.MaxRetries <= 0 {
		cfg.Screener.MaxRetries = 3
	}
	if cfg.Screener.RetryInterval <= 0 {
		cfg.Screener.RetryInterval = time.Second
	}
	if cfg.Screener.MaxRequestPerMinute <= 0 {
		cfg.Screener.MaxRequestPerMinute = 30
	}
	if cfg.Screener.CacheTTL <= 0 {
		cfg.Screener.CacheTTL = 24 * time.Hour
	}
}
