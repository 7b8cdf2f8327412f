package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds the whole application configuration. Values are loaded
// from YAML, then overridden from the environment for deploy secrets.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		RestURL         string   `yaml:"rest_url"`
		WSURL           string   `yaml:"ws_url"`
		QuoteAsset      string   `yaml:"quote_asset"`
		ExcludedSymbols []string `yaml:"excluded_symbols"`
		RatioPeriod     string   `yaml:"ratio_period"`
		IconBaseURL     string   `yaml:"icon_base_url"`
	} `yaml:"api"`

	Stream struct {
		ReconnectDelaySec int `yaml:"reconnect_delay_sec"`
		ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	} `yaml:"stream"`

	Refresh struct {
		IntervalSec        int `yaml:"interval_sec"`
		TTLSec             int `yaml:"ttl_sec"`
		RatioIndex         int `yaml:"ratio_index"`
		RequestDelayMS     int `yaml:"request_delay_ms"`
		ListingIntervalSec int `yaml:"listing_interval_sec"`
	} `yaml:"refresh"`

	Cache struct {
		Backend string `yaml:"backend"` // "sqlite" or "redis"
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	UI struct {
		DefaultLimit int    `yaml:"default_limit"`
		HistorySize  int    `yaml:"history_size"`
		ResetEnabled bool   `yaml:"reset_enabled"`
		ResetHourUTC int    `yaml:"reset_hour_utc"`
		ListenAddr   string `yaml:"listen_addr"`
	} `yaml:"ui"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills values the YAML file may leave out. The defaults
// mirror the exchange's public endpoints and the observed cadences.
func (c *Config) applyDefaults() {
	if c.API.RestURL == "" {
		c.API.RestURL = "https://fapi.binance.com"
	}
	if c.API.WSURL == "" {
		c.API.WSURL = "wss://fstream.binance.com/stream?streams=!ticker@arr"
	}
	if c.API.QuoteAsset == "" {
		c.API.QuoteAsset = "USDT"
	}
	if c.API.RatioPeriod == "" {
		c.API.RatioPeriod = "5m"
	}
	if c.Stream.ReconnectDelaySec == 0 {
		c.Stream.ReconnectDelaySec = 5
	}
	if c.Stream.ReadTimeoutSec == 0 {
		c.Stream.ReadTimeoutSec = 60
	}
	if c.Refresh.IntervalSec == 0 {
		c.Refresh.IntervalSec = 300
	}
	if c.Refresh.TTLSec == 0 {
		c.Refresh.TTLSec = 300
	}
	if c.Refresh.RatioIndex == 0 {
		c.Refresh.RatioIndex = 29
	}
	if c.Refresh.RequestDelayMS == 0 {
		c.Refresh.RequestDelayMS = 1000
	}
	if c.Refresh.ListingIntervalSec == 0 {
		c.Refresh.ListingIntervalSec = 3600
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "sqlite"
	}
	if c.UI.DefaultLimit == 0 {
		c.UI.DefaultLimit = 20
	}
	if c.UI.HistorySize == 0 {
		c.UI.HistorySize = 30
	}
	if c.UI.ListenAddr == "" {
		c.UI.ListenAddr = ":8080"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.RestURL, "http://") && !strings.HasPrefix(c.API.RestURL, "https://") {
		return fmt.Errorf("invalid REST URL: %s", c.API.RestURL)
	}

	if !strings.HasPrefix(c.API.WSURL, "ws://") && !strings.HasPrefix(c.API.WSURL, "wss://") {
		return fmt.Errorf("invalid WS URL: %s", c.API.WSURL)
	}

	if c.API.QuoteAsset == "" {
		return fmt.Errorf("quote asset is required")
	}

	if c.Stream.ReconnectDelaySec <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	if c.Refresh.RatioIndex < 0 {
		return fmt.Errorf("ratio index must not be negative")
	}

	if c.UI.HistorySize <= 0 {
		return fmt.Errorf("history size must be positive")
	}

	switch c.Cache.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis backend requires an address")
	}

	if c.UI.ResetHourUTC < 0 || c.UI.ResetHourUTC > 23 {
		return fmt.Errorf("reset hour must be within 0-23")
	}

	return nil
}

// overrideWithEnv replaces config values when environment variables exist.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("SCREENER_REDIS_ADDR"); addr != "" {
		cfg.Cache.Redis.Addr = addr
	}
	if pass := os.Getenv("SCREENER_REDIS_PASSWORD"); pass != "" {
		cfg.Cache.Redis.Password = pass
	}
	if backend := os.Getenv("SCREENER_CACHE_BACKEND"); backend != "" {
		cfg.Cache.Backend = backend
	}
	if addr := os.Getenv("SCREENER_LISTEN_ADDR"); addr != "" {
		cfg.UI.ListenAddr = addr
	}
}
