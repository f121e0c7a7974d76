package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbol             string   `yaml:"symbol"`
	Providers          []string `yaml:"providers"`
	ProviderTimeoutSec int      `yaml:"provider_timeout_sec"`
	AlphaVantage       struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		OutputSize string `yaml:"output_size"`
	} `yaml:"alpha_vantage"`
	YahooFinance struct {
		BaseURL string `yaml:"base_url"`
		Range   string `yaml:"range"`
	} `yaml:"yahoo_finance"`
	VsTrader struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Days    int    `yaml:"days"`
	} `yaml:"vstrader"`
	Transport struct {
		TimeoutSec       int    `yaml:"timeout_sec"`
		MaxRetries       int    `yaml:"max_retries"`
		InitialBackoffMs int    `yaml:"initial_backoff_ms"`
		MaxBackoffMs     int    `yaml:"max_backoff_ms"`
		UserAgent        string `yaml:"user_agent"`
	} `yaml:"transport"`
	Breaker struct {
		MaxRequests uint32 `yaml:"max_requests"`
		IntervalSec int    `yaml:"interval_sec"`
		TimeoutSec  int    `yaml:"timeout_sec"`
	} `yaml:"breaker"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("PROVIDERS"); v != "" {
		c.Providers = splitList(v)
	}
	if v := os.Getenv("PROVIDER_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROVIDER_TIMEOUT_SEC: %w", err)
		}
		c.ProviderTimeoutSec = n
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		c.VsTrader.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		c.VsTrader.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "SPY"
	}
	if len(c.Providers) == 0 {
		c.Providers = []string{"yahoo_finance", "alpha_vantage"}
	}
	if c.ProviderTimeoutSec == 0 {
		c.ProviderTimeoutSec = 20
	}
	if c.AlphaVantage.OutputSize == "" {
		c.AlphaVantage.OutputSize = "full"
	}
	if c.YahooFinance.Range == "" {
		c.YahooFinance.Range = "2y"
	}
	if c.VsTrader.Days == 0 {
		c.VsTrader.Days = 300
	}
	if c.Transport.TimeoutSec == 0 {
		c.Transport.TimeoutSec = 30
	}
	if c.Transport.InitialBackoffMs == 0 {
		c.Transport.InitialBackoffMs = 250
	}
	if c.Transport.MaxBackoffMs == 0 {
		c.Transport.MaxBackoffMs = 5000
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.IntervalSec == 0 {
		c.Breaker.IntervalSec = 60
	}
	if c.Breaker.TimeoutSec == 0 {
		c.Breaker.TimeoutSec = 30
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 30 22 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/trend_sentinel.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if len(c.Providers) == 0 {
		return errors.New("providers must list at least one provider")
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if seen[p] {
			return fmt.Errorf("providers: %q listed twice", p)
		}
		seen[p] = true
	}
	if c.ProviderTimeoutSec <= 0 {
		return errors.New("provider_timeout_sec must be positive")
	}
	if c.Transport.MaxRetries < 0 {
		return errors.New("transport.max_retries must not be negative")
	}
	if seen["alpha_vantage"] && c.AlphaVantage.APIKey == "" {
		return errors.New("alpha_vantage.api_key is required when alpha_vantage is a provider")
	}
	if seen["vstrader"] && c.VsTrader.BaseURL == "" {
		return errors.New("vstrader.base_url is required when vstrader is a provider")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether reports should be delivered to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ProviderTimeout returns the per-provider fetch bound.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSec) * time.Second
}

// HTTPTimeout returns the overall timeout of one HTTP request.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Transport.TimeoutSec) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
