package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"SYMBOL", "PROVIDERS", "PROVIDER_TIMEOUT_SEC", "ALPHA_VANTAGE_API_KEY",
		"VSTRADER_BASE_URL", "VSTRADER_API_KEY", "HTTPS_PROXY", "CRON_REFRESH",
		"SQLITE_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTP_ADDR",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "SPY", cfg.Symbol)
	require.Equal(t, []string{"yahoo_finance", "alpha_vantage"}, cfg.Providers)
	require.Equal(t, 20*time.Second, cfg.ProviderTimeout())
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	require.Equal(t, "0 30 22 * * 1-5", cfg.Schedule.RefreshCron)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
symbol: SPX500
providers: [alpha_vantage, yahoo_finance]
provider_timeout_sec: 5
alpha_vantage:
  api_key: from-file
  output_size: compact
vstrader:
  base_url: http://vs.local
telegram:
  bot_token: tok
  chat_id: "42"
log:
  level: debug
`)
	t.Setenv("ALPHA_VANTAGE_API_KEY", "from-env")
	t.Setenv("PROVIDERS", "yahoo_finance, vstrader ,")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "SPX500", cfg.Symbol)
	require.Equal(t, []string{"yahoo_finance", "vstrader"}, cfg.Providers)
	require.Equal(t, 5*time.Second, cfg.ProviderTimeout())
	require.Equal(t, "from-env", cfg.AlphaVantage.APIKey)
	require.Equal(t, "compact", cfg.AlphaVantage.OutputSize)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.TelegramEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "providers: [unclosed"))
	require.ErrorContains(t, err, "parse config")

	t.Setenv("PROVIDER_TIMEOUT_SEC", "soon")
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "PROVIDER_TIMEOUT_SEC")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) { c.AlphaVantage.APIKey = "k" }, ""},
		{"empty symbol", func(c *Config) { c.Symbol = " " }, "symbol is required"},
		{"no providers", func(c *Config) { c.Providers = nil }, "at least one provider"},
		{"duplicate provider", func(c *Config) { c.Providers = []string{"yahoo_finance", "yahoo_finance"} }, "listed twice"},
		{"negative timeout", func(c *Config) { c.AlphaVantage.APIKey = "k"; c.ProviderTimeoutSec = -1 }, "provider_timeout_sec"},
		{"alpha vantage without key", func(c *Config) {}, "alpha_vantage.api_key"},
		{"vstrader without url", func(c *Config) { c.Providers = []string{"vstrader"} }, "vstrader.base_url"},
		{"half telegram", func(c *Config) { c.Providers = []string{"yahoo_finance"}; c.Telegram.BotToken = "t" }, "set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
