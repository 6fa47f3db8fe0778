// Package common provides shared utilities for marketdesk
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for marketdesk
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Segments    SegmentsConfig  `toml:"segments"`
	News        NewsConfig      `toml:"news"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds paths for the two storage areas.
type StorageConfig struct {
	Cache AreaConfig `toml:"cache"` // Segment snapshots (file-based JSON)
	News  AreaConfig `toml:"news"`  // News articles (BadgerHold)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds upstream client configurations
type ClientsConfig struct {
	KIS       KISConfig       `toml:"kis"`
	Naver     NaverConfig     `toml:"naver"`
	Yahoo     YahooConfig     `toml:"yahoo"`
	Stooq     StooqConfig     `toml:"stooq"`
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
}

// KISConfig holds Korea Investment & Securities API configuration
type KISConfig struct {
	BaseURL   string `toml:"base_url"`
	AppKey    string `toml:"app_key"`
	AppSecret string `toml:"app_secret"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *KISConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 8*time.Second)
}

// NaverConfig holds Naver Finance scrape configuration
type NaverConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NaverConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 6*time.Second)
}

// YahooConfig holds Yahoo Finance quote API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 5*time.Second)
}

// StooqConfig holds Stooq CSV quote configuration
type StooqConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *StooqConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 5*time.Second)
}

// CoinGeckoConfig holds CoinGecko API configuration
type CoinGeckoConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *CoinGeckoConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout, 5*time.Second)
}

// SegmentsConfig holds per-segment pipeline configuration.
// Priority lists name provider adapters in fallback order; the order is
// configuration, not code, because upstream reliability shifts over time.
type SegmentsConfig struct {
	CacheTTL string             `toml:"cache_ttl"`
	Priority map[string][]string `toml:"priority"`
}

// GetCacheTTL parses and returns the snapshot TTL
func (c *SegmentsConfig) GetCacheTTL() time.Duration {
	return parseTimeout(c.CacheTTL, 30*time.Second)
}

// PriorityFor returns the adapter priority list for a segment.
func (c *SegmentsConfig) PriorityFor(segment string) []string {
	if c.Priority == nil {
		return nil
	}
	return c.Priority[strings.ToUpper(segment)]
}

// NewsConfig holds news pipeline configuration
type NewsConfig struct {
	RefreshTTL string `toml:"refresh_ttl"`
	FetchLimit int    `toml:"fetch_limit"`
}

// GetRefreshTTL parses and returns the news refetch TTL
func (c *NewsConfig) GetRefreshTTL() time.Duration {
	return parseTimeout(c.RefreshTTL, 5*time.Minute)
}

// SchedulerConfig holds background refresh configuration
type SchedulerConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval string   `toml:"interval"`
	Segments []string `toml:"segments"`
}

// GetInterval parses and returns the refresh interval
func (c *SchedulerConfig) GetInterval() time.Duration {
	return parseTimeout(c.Interval, 30*time.Second)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Cache: AreaConfig{Path: "data/cache"},
			News:  AreaConfig{Path: "data/news"},
		},
		Clients: ClientsConfig{
			KIS: KISConfig{
				BaseURL:   "https://openapi.koreainvestment.com:9443",
				RateLimit: 5,
				Timeout:   "8s",
			},
			Naver: NaverConfig{
				BaseURL:   "https://finance.naver.com",
				RateLimit: 2,
				Timeout:   "6s",
			},
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 2,
				Timeout:   "5s",
			},
			Stooq: StooqConfig{
				BaseURL: "https://stooq.com",
				Timeout: "5s",
			},
			CoinGecko: CoinGeckoConfig{
				BaseURL:   "https://api.coingecko.com",
				RateLimit: 2,
				Timeout:   "5s",
			},
		},
		Segments: SegmentsConfig{
			CacheTTL: "30s",
			Priority: map[string][]string{
				"KR":        {"kis", "naver"},
				"US":        {"yahoo", "stooq"},
				"CRYPTO":    {"coingecko"},
				"COMMODITY": {"yahoo", "stooq"},
			},
		},
		News: NewsConfig{
			RefreshTTL: "5m",
			FetchLimit: 50,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: "30s",
			Segments: []string{"KR", "US"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETDESK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("MARKETDESK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("MARKETDESK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("MARKETDESK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("MARKETDESK_DATA_PATH"); path != "" {
		config.Storage.Cache.Path = filepath.Join(path, "cache")
		config.Storage.News.Path = filepath.Join(path, "news")
	}

	if key := os.Getenv("KIS_APP_KEY"); key != "" {
		config.Clients.KIS.AppKey = key
	}

	if secret := os.Getenv("KIS_APP_SECRET"); secret != "" {
		config.Clients.KIS.AppSecret = secret
	}

	if ttl := os.Getenv("MARKETDESK_CACHE_TTL"); ttl != "" {
		config.Segments.CacheTTL = ttl
	}

	if v := os.Getenv("MARKETDESK_SCHEDULER"); v != "" {
		config.Scheduler.Enabled = v == "true" || v == "1"
	}
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
