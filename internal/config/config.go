// Package config provides configuration loading for the console backend.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the console backend configuration.
type Config struct {
	// HTTP API settings
	Server ServerConfig `yaml:"server"`

	// Upstream Polymarket endpoints
	Polymarket PolymarketConfig `yaml:"polymarket"`

	// Live price polling
	Feed FeedConfig `yaml:"feed"`

	// Quote history storage
	Storage StorageConfig `yaml:"storage"`

	// Proxy response cache
	Cache CacheConfig `yaml:"cache"`

	// WebSocket settings
	WebSocket WebSocketConfig `yaml:"websocket"`

	// Wallet provider
	Wallet WalletConfig `yaml:"wallet"`

	// Synthetic prediction endpoint
	Prediction PredictionConfig `yaml:"prediction"`

	// Quote push to browsers
	Stream StreamConfig `yaml:"stream"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins       []string      `yaml:"cors_origins"`
}

// PolymarketConfig contains upstream API settings.
type PolymarketConfig struct {
	GammaURL string `yaml:"gamma_url"`
	ClobURL  string `yaml:"clob_url"`

	// Per-request timeout for REST calls
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Retries on 429/5xx; 0 keeps the "fail once, fall back" behaviour
	Retries int `yaml:"retries"`
}

// FeedConfig contains live price polling settings.
type FeedConfig struct {
	Enabled bool `yaml:"enabled"`

	// How often every catalogue market is refreshed
	PollInterval time.Duration `yaml:"poll_interval"`

	// Maximum concurrent upstream lookups per poll
	Concurrency int `yaml:"concurrency"`
}

// QuoteMaxAge is how long a live quote is shown before the catalogue price
// takes over again: three poll intervals.
func (f FeedConfig) QuoteMaxAge() time.Duration {
	return 3 * f.PollInterval
}

// StorageConfig contains storage settings.
type StorageConfig struct {
	// Storage type: "none", "file", "sqlite" or "postgres"
	Type string `yaml:"type"`

	// Output directory for file storage
	OutputDir string `yaml:"output_dir"`

	// Rotation size for file storage, in megabytes
	MaxSizeMB int `yaml:"max_size_mb"`

	// Rotated files kept for file storage
	MaxBackups int `yaml:"max_backups"`

	// Database file path (sqlite) or connection string (postgres)
	DSN string `yaml:"dsn"`
}

// CacheConfig contains proxy cache settings.
type CacheConfig struct {
	// Cache type: "none", "memory" or "redis"
	Type string        `yaml:"type"`
	TTL  time.Duration `yaml:"ttl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// WebSocketConfig contains WebSocket settings.
type WebSocketConfig struct {
	// Custom WebSocket URL (optional)
	URL string `yaml:"url"`

	// Initial reconnection backoff
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// Maximum reconnection backoff
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// Backoff multiplier
	BackoffFactor float64 `yaml:"backoff_factor"`
}

// WalletConfig selects the wallet provider.
type WalletConfig struct {
	// Mode: "demo" or "signer"
	Mode string `yaml:"mode"`

	// Signer key source: a mnemonic with derivation path, or a hex private key
	Mnemonic       string `yaml:"mnemonic"`
	DerivationPath string `yaml:"derivation_path"`
	PrivateKey     string `yaml:"private_key"`

	// Bearer token required on the wallet write routes; mandatory for signer
	APIToken string `yaml:"api_token"`
}

// PredictionConfig contains synthetic prediction settings.
type PredictionConfig struct {
	// Artificial latency is MinDelay plus a uniform jitter in [0, Jitter)
	MinDelay time.Duration `yaml:"min_delay"`
	Jitter   time.Duration `yaml:"jitter"`
}

// StreamConfig contains quote push settings.
type StreamConfig struct {
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `yaml:"level"`

	// Log format: text or json
	Format string `yaml:"format"`

	// Optional log file, rotated by size
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":5000",
			ReadHeaderTimeout: 10 * time.Second,
			RequestTimeout:    30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
		},
		Polymarket: PolymarketConfig{
			GammaURL:       "https://gamma-api.polymarket.com",
			ClobURL:        "https://clob.polymarket.com",
			RequestTimeout: 10 * time.Second,
		},
		Feed: FeedConfig{
			Enabled:      true,
			PollInterval: 30 * time.Second,
			Concurrency:  4,
		},
		Storage: StorageConfig{
			Type:       "none",
			OutputDir:  "data",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
		Cache: CacheConfig{
			Type:      "memory",
			TTL:       5 * time.Second,
			RedisAddr: "localhost:6379",
		},
		WebSocket: WebSocketConfig{
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
			BackoffFactor:  2.0,
		},
		Wallet: WalletConfig{
			Mode:           "demo",
			DerivationPath: "m/44'/60'/0'/0/0",
		},
		Prediction: PredictionConfig{
			MinDelay: 1500 * time.Millisecond,
			Jitter:   1 * time.Second,
		},
		Stream: StreamConfig{
			SendBuffer:   16,
			WriteTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load loads configuration from a YAML file. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	return config, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "loading %s", p)
		}
	}
	return nil
}

// ApplyEnv overrides settings from SADS_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var err error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" && err == nil {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = errors.Wrapf(perr, "%s", key)
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = errors.Wrapf(perr, "%s", key)
				return
			}
			*dst = n
		}
	}

	str("SADS_ADDR", &c.Server.Addr)
	if v, ok := lookup("SADS_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	str("SADS_GAMMA_URL", &c.Polymarket.GammaURL)
	str("SADS_CLOB_URL", &c.Polymarket.ClobURL)
	str("SADS_WS_URL", &c.WebSocket.URL)
	num("SADS_RETRIES", &c.Polymarket.Retries)
	dur("SADS_POLL_INTERVAL", &c.Feed.PollInterval)
	if v, ok := lookup("SADS_FEED_ENABLED"); ok && v != "" && err == nil {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = errors.Wrap(perr, "SADS_FEED_ENABLED")
		} else {
			c.Feed.Enabled = b
		}
	}
	str("SADS_STORAGE_TYPE", &c.Storage.Type)
	str("SADS_STORAGE_DIR", &c.Storage.OutputDir)
	str("SADS_STORAGE_DSN", &c.Storage.DSN)
	str("SADS_CACHE_TYPE", &c.Cache.Type)
	dur("SADS_CACHE_TTL", &c.Cache.TTL)
	str("SADS_REDIS_ADDR", &c.Cache.RedisAddr)
	str("SADS_REDIS_PASSWORD", &c.Cache.RedisPassword)
	num("SADS_REDIS_DB", &c.Cache.RedisDB)
	str("SADS_WALLET_MODE", &c.Wallet.Mode)
	str("SADS_WALLET_MNEMONIC", &c.Wallet.Mnemonic)
	str("SADS_WALLET_DERIVATION_PATH", &c.Wallet.DerivationPath)
	str("SADS_WALLET_PRIVATE_KEY", &c.Wallet.PrivateKey)
	str("SADS_WALLET_API_TOKEN", &c.Wallet.APIToken)
	dur("SADS_PREDICTION_MIN_DELAY", &c.Prediction.MinDelay)
	dur("SADS_PREDICTION_JITTER", &c.Prediction.Jitter)
	str("SADS_LOG_LEVEL", &c.Logging.Level)
	str("SADS_LOG_FORMAT", &c.Logging.Format)
	str("SADS_LOG_FILE", &c.Logging.File)

	return err
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "none":
	case "file":
		if c.Storage.OutputDir == "" {
			return errors.New("output_dir required for file storage")
		}
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return errors.Errorf("dsn required for %s storage", c.Storage.Type)
		}
	default:
		return errors.Errorf("invalid storage type: %s", c.Storage.Type)
	}

	switch c.Cache.Type {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("redis_addr required for redis cache")
		}
	default:
		return errors.Errorf("invalid cache type: %s", c.Cache.Type)
	}
	if c.Cache.Type != "none" && c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}

	switch c.Wallet.Mode {
	case "demo":
	case "signer":
		if c.Wallet.Mnemonic == "" && c.Wallet.PrivateKey == "" {
			return errors.New("signer wallet needs mnemonic or private_key")
		}
		if c.Wallet.APIToken == "" {
			return errors.New("signer wallet needs api_token")
		}
	default:
		return errors.Errorf("invalid wallet mode: %s", c.Wallet.Mode)
	}

	if c.Feed.Enabled {
		if c.Feed.PollInterval <= 0 {
			return errors.New("feed poll_interval must be positive")
		}
		if c.Feed.Concurrency < 1 {
			return errors.New("feed concurrency must be at least 1")
		}
	}
	if c.Polymarket.Retries < 0 {
		return errors.New("polymarket retries must not be negative")
	}
	if c.Prediction.MinDelay < 0 || c.Prediction.Jitter < 0 {
		return errors.New("prediction delays must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New("server addr required")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
