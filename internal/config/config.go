package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/liamashdown/polytools/internal/secrets"
)

// Config holds all application configuration. It is built once at process
// start and passed to every component that needs it.
type Config struct {
	// Network
	ProxyURL string `yaml:"proxy_url" toml:"proxy_url"`

	// Wallet
	KeyPath       string `yaml:"key_path" toml:"key_path"`
	KeyPassword   string `yaml:"-" toml:"-"`
	FunderAddress string `yaml:"funder_address" toml:"funder_address"`
	ChainID       int64  `yaml:"chain_id" toml:"chain_id"`

	// API endpoints
	GammaAPIBaseURL     string `yaml:"gamma_api_base_url" toml:"gamma_api_base_url"`
	ClobAPIBaseURL      string `yaml:"clob_api_base_url" toml:"clob_api_base_url"`
	DataAPIBaseURL      string `yaml:"data_api_base_url" toml:"data_api_base_url"`
	BraveAPIBaseURL     string `yaml:"brave_api_base_url" toml:"brave_api_base_url"`
	CoinGeckoAPIBaseURL string `yaml:"coingecko_api_base_url" toml:"coingecko_api_base_url"`

	// Search provider
	BraveAPIKey string `yaml:"-" toml:"-"`

	// Timeouts
	MarketTimeout   time.Duration `yaml:"market_timeout" toml:"market_timeout"`
	ResearchTimeout time.Duration `yaml:"research_timeout" toml:"research_timeout"`

	// Rate limits (requests per second)
	GammaAPIRPS     float64 `yaml:"gamma_api_rps" toml:"gamma_api_rps"`
	ClobAPIRPS      float64 `yaml:"clob_api_rps" toml:"clob_api_rps"`
	DataAPIRPS      float64 `yaml:"data_api_rps" toml:"data_api_rps"`
	BraveAPIRPS     float64 `yaml:"brave_api_rps" toml:"brave_api_rps"`
	CoinGeckoAPIRPS float64 `yaml:"coingecko_api_rps" toml:"coingecko_api_rps"`

	// Logging
	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`

	// Metrics
	PushgatewayURL string `yaml:"pushgateway_url" toml:"pushgateway_url"`

	// Order notifications
	AlertMode         string `yaml:"alert_mode" toml:"alert_mode"` // log, discord or a comma-separated list
	DiscordWebhookURL string `yaml:"-" toml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ProxyURL:            "http://localhost:10808",
		KeyPath:             "~/.polymarket/key",
		ChainID:             137,
		GammaAPIBaseURL:     "https://gamma-api.polymarket.com",
		ClobAPIBaseURL:      "https://clob.polymarket.com",
		DataAPIBaseURL:      "https://data-api.polymarket.com",
		BraveAPIBaseURL:     "https://api.search.brave.com",
		CoinGeckoAPIBaseURL: "https://api.coingecko.com/api/v3",
		MarketTimeout:       20 * time.Second,
		ResearchTimeout:     15 * time.Second,
		GammaAPIRPS:         5.0,
		ClobAPIRPS:          5.0,
		DataAPIRPS:          2.0,
		BraveAPIRPS:         1.0,
		CoinGeckoAPIRPS:     0.5,
		LogLevel:            "warn",
		AlertMode:           "log",
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file in the working directory and finally environment variables.
// path may be empty; POLY_CONFIG_FILE is consulted in that case.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Missing .env is fine
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("POLY_CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	keyPath, err := secrets.ExpandHome(cfg.KeyPath)
	if err != nil {
		return nil, err
	}
	cfg.KeyPath = keyPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays a YAML or TOML file, chosen by extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	// An explicitly empty POLY_PROXY disables the proxy
	if value, ok := os.LookupEnv("POLY_PROXY"); ok {
		c.ProxyURL = value
	}

	c.KeyPath = getEnv("POLY_KEY_PATH", c.KeyPath)
	c.KeyPassword = secrets.GetOptionalSecret("POLY_KEY_PASSWORD", c.KeyPassword)
	c.FunderAddress = getEnv("POLY_FUNDER", c.FunderAddress)
	c.ChainID = int64(getEnvInt("POLY_CHAIN_ID", int(c.ChainID)))

	c.GammaAPIBaseURL = getEnv("GAMMA_API_BASE_URL", c.GammaAPIBaseURL)
	c.ClobAPIBaseURL = getEnv("CLOB_API_BASE_URL", c.ClobAPIBaseURL)
	c.DataAPIBaseURL = getEnv("DATA_API_BASE_URL", c.DataAPIBaseURL)
	c.BraveAPIBaseURL = getEnv("BRAVE_API_BASE_URL", c.BraveAPIBaseURL)
	c.CoinGeckoAPIBaseURL = getEnv("COINGECKO_API_BASE_URL", c.CoinGeckoAPIBaseURL)

	c.BraveAPIKey = secrets.GetOptionalSecret("BRAVE_API_KEY", c.BraveAPIKey)

	c.MarketTimeout = getEnvDuration("MARKET_TIMEOUT", c.MarketTimeout)
	c.ResearchTimeout = getEnvDuration("RESEARCH_TIMEOUT", c.ResearchTimeout)

	c.GammaAPIRPS = getEnvFloat("GAMMA_API_RPS", c.GammaAPIRPS)
	c.ClobAPIRPS = getEnvFloat("CLOB_API_RPS", c.ClobAPIRPS)
	c.DataAPIRPS = getEnvFloat("DATA_API_RPS", c.DataAPIRPS)
	c.BraveAPIRPS = getEnvFloat("BRAVE_API_RPS", c.BraveAPIRPS)
	c.CoinGeckoAPIRPS = getEnvFloat("COINGECKO_API_RPS", c.CoinGeckoAPIRPS)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.PushgatewayURL = getEnv("PUSHGATEWAY_URL", c.PushgatewayURL)

	c.AlertMode = getEnv("ALERT_MODE", c.AlertMode)
	c.DiscordWebhookURL = secrets.GetOptionalSecret("DISCORD_WEBHOOK_URL", c.DiscordWebhookURL)
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return fmt.Errorf("invalid POLY_PROXY: %w", err)
		}
	}

	if c.FunderAddress != "" && !common.IsHexAddress(c.FunderAddress) {
		return fmt.Errorf("invalid POLY_FUNDER: %s is not a hex address", c.FunderAddress)
	}

	if c.ChainID <= 0 {
		return fmt.Errorf("POLY_CHAIN_ID must be positive, got %d", c.ChainID)
	}

	endpoints := map[string]string{
		"GAMMA_API_BASE_URL":     c.GammaAPIBaseURL,
		"CLOB_API_BASE_URL":      c.ClobAPIBaseURL,
		"DATA_API_BASE_URL":      c.DataAPIBaseURL,
		"BRAVE_API_BASE_URL":     c.BraveAPIBaseURL,
		"COINGECKO_API_BASE_URL": c.CoinGeckoAPIBaseURL,
	}
	for key, value := range endpoints {
		if value == "" {
			return fmt.Errorf("%s is required", key)
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
	}

	if c.MarketTimeout <= 0 {
		return fmt.Errorf("MARKET_TIMEOUT must be positive")
	}
	if c.ResearchTimeout <= 0 {
		return fmt.Errorf("RESEARCH_TIMEOUT must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %s (valid values: debug, info, warn, error)", c.LogLevel)
	}

	for _, mode := range c.AlertModes() {
		switch mode {
		case "log":
		case "discord":
			if c.DiscordWebhookURL == "" {
				return fmt.Errorf("DISCORD_WEBHOOK_URL is required when ALERT_MODE includes discord")
			}
		default:
			return fmt.Errorf("invalid ALERT_MODE: %s (valid values: log, discord)", mode)
		}
	}

	return nil
}

// AlertModes splits ALERT_MODE into its trimmed, non-empty entries.
func (c *Config) AlertModes() []string {
	var modes []string
	for _, mode := range strings.Split(c.AlertMode, ",") {
		if mode = strings.TrimSpace(mode); mode != "" {
			modes = append(modes, mode)
		}
	}
	return modes
}

// ErrMissingBraveKey is returned when research runs without a search key.
var ErrMissingBraveKey = errors.New("BRAVE_API_KEY is required for research")

// RequireBraveKey reports whether the search provider key is configured.
func (c *Config) RequireBraveKey() error {
	if c.BraveAPIKey == "" {
		return ErrMissingBraveKey
	}
	return nil
}

// ProxySignature reports whether orders are signed in funder (proxy wallet) mode.
func (c *Config) ProxySignature() bool {
	return c.FunderAddress != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
