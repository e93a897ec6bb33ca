package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Market-news provider variants for the A slot.
const (
	MarketNewsCryptoCompare = "cryptocompare"
	MarketNewsRSS           = "rss"
)

// Config is the persistent application configuration
type Config struct {
	// Feed behaviour
	Feed FeedConfig `json:"feed"`

	// Upstream providers
	Sources SourcesConfig `json:"sources"`

	// Price ticker
	Market MarketConfig `json:"market"`

	// JSON API (nexusd)
	HTTP HTTPConfig `json:"http"`
}

// FeedConfig holds polling and snapshot policy
type FeedConfig struct {
	PollIntervalSec  int    `json:"poll_interval_sec"`
	FetchTimeoutSec  int    `json:"fetch_timeout_sec"`
	KeepPriorOnEmpty bool   `json:"keep_prior_on_empty"` // empty refresh leaves the old items in place
	InitialCategory  string `json:"initial_category"`
}

// SourcesConfig holds adapter settings
type SourcesConfig struct {
	MarketNews MarketNewsConfig `json:"market_news"`
	HackerNews EndpointConfig   `json:"hackernews"`
	Search     SearchConfig     `json:"search"`
}

// MarketNewsConfig selects the crypto/market news provider
type MarketNewsConfig struct {
	Provider string `json:"provider"` // "cryptocompare" or "rss"
	Endpoint string `json:"endpoint,omitempty"`
	FeedURL  string `json:"feed_url,omitempty"` // rss only
	FeedName string `json:"feed_name,omitempty"`
}

// EndpointConfig overrides a provider base URL
type EndpointConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
}

// SearchConfig holds the search fallback settings
type SearchConfig struct {
	APIKey            string `json:"api_key,omitempty"`
	Model             string `json:"model,omitempty"`
	Endpoint          string `json:"endpoint,omitempty"`
	Limit             int    `json:"limit"`               // headlines per call
	RequestsPerMinute int    `json:"requests_per_minute"` // 0 disables pacing
	TimeoutSec        int    `json:"timeout_sec"`
}

// MarketConfig holds ticker settings
type MarketConfig struct {
	Endpoint       string `json:"endpoint,omitempty"`
	IntervalSec    int    `json:"interval_sec"`
	MinIntervalSec int    `json:"min_interval_sec"` // floor between CoinGecko calls
}

// HTTPConfig holds API server settings
type HTTPConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			PollIntervalSec:  60,
			FetchTimeoutSec:  30,
			KeepPriorOnEmpty: false,
			InitialCategory:  "ALL",
		},
		Sources: SourcesConfig{
			MarketNews: MarketNewsConfig{
				Provider: MarketNewsCryptoCompare,
				FeedName: "Crypto News",
			},
			Search: SearchConfig{
				Model:             "gemini-2.5-flash",
				Limit:             10,
				RequestsPerMinute: 10,
				TimeoutSec:        120,
			},
		},
		Market: MarketConfig{
			IntervalSec:    60,
			MinIntervalSec: 10,
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nexus", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. Missing files yield defaults. Fields
// absent from the file keep their default values. Environment keys are
// applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in keys and overrides from environment variables
func (c *Config) AutoPopulateFromEnv() {
	for _, name := range []string{"API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			c.Sources.Search.APIKey = key
		}
	}
	if addr := os.Getenv("NEXUS_HTTP_ADDR"); addr != "" {
		c.HTTP.Addr = addr
	}
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Feed.PollIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("feed.poll_interval_sec must be positive, got %d", c.Feed.PollIntervalSec))
	}
	if c.Feed.FetchTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("feed.fetch_timeout_sec must be positive, got %d", c.Feed.FetchTimeoutSec))
	}
	if c.Market.IntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("market.interval_sec must be positive, got %d", c.Market.IntervalSec))
	}
	if c.Sources.Search.Limit <= 0 {
		errs = append(errs, fmt.Errorf("sources.search.limit must be positive, got %d", c.Sources.Search.Limit))
	}
	switch c.Sources.MarketNews.Provider {
	case MarketNewsCryptoCompare:
	case MarketNewsRSS:
		if c.Sources.MarketNews.FeedURL == "" {
			errs = append(errs, errors.New("sources.market_news.feed_url is required for the rss provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sources.market_news.provider %q", c.Sources.MarketNews.Provider))
	}
	return errors.Join(errs...)
}

// PollInterval returns the live refresh period
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalSec) * time.Second
}

// FetchTimeout returns the per-request transport timeout
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Feed.FetchTimeoutSec) * time.Second
}

// MarketInterval returns the ticker refresh period
func (c *Config) MarketInterval() time.Duration {
	return time.Duration(c.Market.IntervalSec) * time.Second
}

// SearchTimeout returns the search call timeout
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Sources.Search.TimeoutSec) * time.Second
}

// HasSearchKey reports whether the search fallback can run
func (c *Config) HasSearchKey() bool {
	return c.Sources.Search.APIKey != ""
}
