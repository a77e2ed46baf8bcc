package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Feed.PollInterval)
	assert.Equal(t, 4, cfg.Feed.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Prediction.MinDelay)
	assert.Equal(t, "demo", cfg.Wallet.Mode)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  addr: ":8080"
  cors_origins: ["http://localhost:5173"]
feed:
  poll_interval: 10s
storage:
  type: sqlite
  dsn: quotes.db
cache:
  type: redis
  redis_addr: redis:6379
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Feed.PollInterval)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	// untouched sections keep defaults
	assert.Equal(t, 4, cfg.Feed.Concurrency)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaURL)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SADS_ADDR":             ":9000",
		"SADS_CORS_ORIGINS":     "https://a.example, https://b.example",
		"SADS_POLL_INTERVAL":    "45s",
		"SADS_FEED_ENABLED":     "false",
		"SADS_STORAGE_TYPE":     "postgres",
		"SADS_STORAGE_DSN":      "postgres://localhost/sads",
		"SADS_REDIS_DB":         "2",
		"SADS_WALLET_MODE":      "signer",
		"SADS_WALLET_API_TOKEN": "s3cret",
		"SADS_LOG_LEVEL":        "debug",
		"SADS_GAMMA_URL":        "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 45*time.Second, cfg.Feed.PollInterval)
	assert.False(t, cfg.Feed.Enabled)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://localhost/sads", cfg.Storage.DSN)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.Equal(t, "signer", cfg.Wallet.Mode)
	assert.Equal(t, "s3cret", cfg.Wallet.APIToken)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaURL, "empty values are ignored")
}

func TestApplyEnv_BadValues(t *testing.T) {
	tests := map[string]string{
		"SADS_POLL_INTERVAL": "soon",
		"SADS_REDIS_DB":      "two",
		"SADS_FEED_ENABLED":  "maybe",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == key {
					return val, true
				}
				return "", false
			}
			err := DefaultConfig().applyEnv(lookup)
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SADS_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("SADS_TEST_DOTENV_PRESET", "kept")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { os.Unsetenv("SADS_TEST_DOTENV") })

	assert.Equal(t, "from-file", os.Getenv("SADS_TEST_DOTENV"))
	assert.Equal(t, "kept", os.Getenv("SADS_TEST_DOTENV_PRESET"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad storage", func(c *Config) { c.Storage.Type = "s3" }, "invalid storage type"},
		{"file without dir", func(c *Config) { c.Storage.Type = "file"; c.Storage.OutputDir = "" }, "output_dir"},
		{"sqlite without dsn", func(c *Config) { c.Storage.Type = "sqlite" }, "dsn required"},
		{"bad cache", func(c *Config) { c.Cache.Type = "memcached" }, "invalid cache type"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "ttl"},
		{"signer without key", func(c *Config) { c.Wallet.Mode = "signer" }, "mnemonic or private_key"},
		{"signer without token", func(c *Config) { c.Wallet.Mode = "signer"; c.Wallet.PrivateKey = "0xabc" }, "api_token"},
		{"bad wallet", func(c *Config) { c.Wallet.Mode = "metamask" }, "invalid wallet mode"},
		{"zero poll", func(c *Config) { c.Feed.PollInterval = 0 }, "poll_interval"},
		{"zero concurrency", func(c *Config) { c.Feed.Concurrency = 0 }, "concurrency"},
		{"negative retries", func(c *Config) { c.Polymarket.Retries = -1 }, "retries"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg := DefaultConfig()
	cfg.Feed.Enabled = false
	cfg.Feed.PollInterval = 0
	assert.NoError(t, cfg.Validate(), "disabled feed skips interval checks")
}
