package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"CryptoDash/internal/model"

	"gopkg.in/yaml.v3"
)

// DataSource describes the upstream market-data API.
type DataSource struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	APIKeyHeader string        `yaml:"api_key_header"`
	VsCurrency   string        `yaml:"vs_currency"`
	Timeout      time.Duration `yaml:"timeout"`
	Proxy        string        `yaml:"proxy"`
	Mock         bool          `yaml:"mock"`
}

// Config holds all application configuration.
type Config struct {
	DataSource DataSource    `yaml:"data_source"`
	Assets     []model.Asset `yaml:"assets"`
	Analysis   struct {
		SMAWindow   int      `yaml:"sma_window"`
		MajorCoins  []string `yaml:"major_coins"`
		Stablecoins []string `yaml:"stablecoins"`
	} `yaml:"analysis"`
	History struct {
		Enabled bool `yaml:"enabled"`
		Depth   int  `yaml:"depth"`
	} `yaml:"history"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultAssets are the coins tracked when the config lists none.
var DefaultAssets = []model.Asset{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	{ID: "tether", Symbol: "USDT", Name: "Tether"},
	{ID: "binancecoin", Symbol: "BNB", Name: "BNB"},
	{ID: "ripple", Symbol: "XRP", Name: "XRP"},
	{ID: "solana", Symbol: "SOL", Name: "Solana"},
	{ID: "usd-coin", Symbol: "USDC", Name: "USDC"},
	{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin"},
	{ID: "staked-ether", Symbol: "STETH", Name: "Lido Staked Ether"},
	{ID: "tron", Symbol: "TRX", Name: "TRON"},
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.History.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DataSource.Mock = b
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Defaults
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://api.coingecko.com/api/v3"
	}
	cfg.DataSource.BaseURL = strings.TrimRight(cfg.DataSource.BaseURL, "/")
	if cfg.DataSource.APIKeyHeader == "" {
		cfg.DataSource.APIKeyHeader = "x-cg-demo-api-key"
	}
	if cfg.DataSource.VsCurrency == "" {
		cfg.DataSource.VsCurrency = "usd"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 10 * time.Second
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = append([]model.Asset(nil), DefaultAssets...)
	}
	if cfg.Analysis.SMAWindow == 0 {
		cfg.Analysis.SMAWindow = 5
	}
	if cfg.Analysis.MajorCoins == nil {
		cfg.Analysis.MajorCoins = []string{"Bitcoin", "Ethereum", "BNB"}
	}
	if cfg.Analysis.Stablecoins == nil {
		cfg.Analysis.Stablecoins = []string{"Tether", "USDC"}
	}
	if cfg.History.Depth == 0 {
		cfg.History.Depth = 50
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.APIKey == "" && !c.DataSource.Mock {
		return &model.ConfigurationError{Field: "data_source.api_key", Reason: "is required (set COINGECKO_API_KEY)"}
	}
	if c.DataSource.Timeout < 0 {
		return &model.ConfigurationError{Field: "data_source.timeout", Reason: "must not be negative"}
	}
	seen := make(map[string]bool, len(c.Assets))
	for i, a := range c.Assets {
		if strings.TrimSpace(a.Symbol) == "" {
			return &model.ConfigurationError{Field: fmt.Sprintf("assets[%d].symbol", i), Reason: "is required"}
		}
		if seen[a.Symbol] {
			return &model.ConfigurationError{Field: fmt.Sprintf("assets[%d].symbol", i), Reason: "is duplicated: " + a.Symbol}
		}
		seen[a.Symbol] = true
	}
	if c.Analysis.SMAWindow < 2 {
		return &model.ConfigurationError{Field: "analysis.sma_window", Reason: "must be at least 2"}
	}
	if c.History.Depth < 1 {
		return &model.ConfigurationError{Field: "history.depth", Reason: "must be positive"}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return &model.ConfigurationError{Field: "telegram", Reason: "bot_token and chat_id must be set together"}
	}
	return nil
}

// Symbols returns the configured ticker symbols in order.
func (c *Config) Symbols() []string {
	out := make([]string, len(c.Assets))
	for i, a := range c.Assets {
		out[i] = a.Symbol
	}
	return out
}
