package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Stats backends.
const (
	StatsBackendMemory = "memory"
	StatsBackendSQLite = "sqlite"
	StatsBackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Worker   WorkerConfig   `yaml:"worker" toml:"worker"`
	Resolver ResolverConfig `yaml:"resolver" toml:"resolver"`
	Stats    StatsConfig    `yaml:"stats" toml:"stats"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// TelegramConfig holds bot API configuration.
type TelegramConfig struct {
	BotToken    string  `yaml:"bot_token" toml:"bot_token" envconfig:"BOT_TOKEN"`
	DeveloperID int64   `yaml:"developer_id" toml:"developer_id" envconfig:"DEVELOPER_ID"`
	APIEndpoint string  `yaml:"api_endpoint" toml:"api_endpoint" envconfig:"TELEGRAM_API_ENDPOINT"`
	PollTimeout int     `yaml:"poll_timeout" toml:"poll_timeout" envconfig:"TELEGRAM_POLL_TIMEOUT"` // seconds
	SendRate    float64 `yaml:"send_rate" toml:"send_rate" envconfig:"TELEGRAM_SEND_RATE"`          // messages per second
	SendBurst   int     `yaml:"send_burst" toml:"send_burst" envconfig:"TELEGRAM_SEND_BURST"`
	DonateURL   string  `yaml:"donate_url" toml:"donate_url" envconfig:"DONATE_URL"`
}

// ServerConfig holds the operator HTTP API configuration.
type ServerConfig struct {
	Enabled      bool          `yaml:"enabled" toml:"enabled" envconfig:"SERVER_ENABLED"`
	Host         string        `yaml:"host" toml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" toml:"port" envconfig:"SERVER_PORT"`
	APIKey       string        `yaml:"api_key" toml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" toml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// WorkerConfig holds update worker pool configuration.
type WorkerConfig struct {
	Count           int           `yaml:"count" toml:"count" envconfig:"WORKER_COUNT"`
	QueueSize       int           `yaml:"queue_size" toml:"queue_size" envconfig:"WORKER_QUEUE_SIZE"`
	RequestTimeout  time.Duration `yaml:"request_timeout" toml:"request_timeout" envconfig:"WORKER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" envconfig:"WORKER_SHUTDOWN_TIMEOUT"`
}

// ResolverConfig holds metadata API and media probe configuration.
type ResolverConfig struct {
	APIBaseURL   string `yaml:"api_base_url" toml:"api_base_url" envconfig:"RESOLVER_API_BASE_URL"`
	UserAgent    string `yaml:"user_agent" toml:"user_agent" envconfig:"RESOLVER_USER_AGENT"`
	MaxVideoSize int64  `yaml:"max_video_size" toml:"max_video_size" envconfig:"MAX_VIDEO_SIZE"`
}

// StatsConfig selects where usage counters are persisted.
type StatsConfig struct {
	Backend       string `yaml:"backend" toml:"backend" envconfig:"STATS_BACKEND"`
	SQLitePath    string `yaml:"sqlite_path" toml:"sqlite_path" envconfig:"STATS_SQLITE_PATH"`
	RedisAddr     string `yaml:"redis_addr" toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" toml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" toml:"redis_db" envconfig:"REDIS_DB"`
	RedisKey      string `yaml:"redis_key" toml:"redis_key" envconfig:"STATS_REDIS_KEY"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" toml:"format" envconfig:"LOG_FORMAT"` // auto, json or text
}

// Defaults.
const (
	DefaultMaxVideoSize = 20 * 1024 * 1024
	DefaultDonateURL    = "https://www.buymeacoffee.com/benitob"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Load reads configuration from a .env file, a YAML or TOML file and the
// environment, in that order of increasing precedence. Unset values get defaults.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := decodeFile(configPath, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func decodeFile(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func (c *Config) applyDefaults() {
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = 30
	}
	if c.Telegram.SendRate == 0 {
		c.Telegram.SendRate = 25
	}
	if c.Telegram.SendBurst == 0 {
		c.Telegram.SendBurst = 5
	}
	if c.Telegram.DonateURL == "" {
		c.Telegram.DonateURL = DefaultDonateURL
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9847
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}
	if c.Worker.Count == 0 {
		c.Worker.Count = 8
	}
	if c.Worker.QueueSize == 0 {
		c.Worker.QueueSize = 256
	}
	if c.Worker.RequestTimeout == 0 {
		c.Worker.RequestTimeout = 2 * time.Minute
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = 25 * time.Second
	}
	if c.Resolver.APIBaseURL == "" {
		c.Resolver.APIBaseURL = "https://api.vxtwitter.com"
	}
	if c.Resolver.UserAgent == "" {
		c.Resolver.UserAgent = DefaultUserAgent
	}
	if c.Resolver.MaxVideoSize == 0 {
		c.Resolver.MaxVideoSize = DefaultMaxVideoSize
	}
	if c.Stats.Backend == "" {
		c.Stats.Backend = StatsBackendSQLite
	}
	if c.Stats.SQLitePath == "" {
		c.Stats.SQLitePath = "data/stats.db"
	}
	if c.Stats.RedisKey == "" {
		c.Stats.RedisKey = "xgrabbot:stats"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Server.Enabled && c.Server.APIKey == "" {
		return fmt.Errorf("API_KEY is required when the HTTP API is enabled")
	}
	if c.Resolver.MaxVideoSize < 0 {
		return fmt.Errorf("MAX_VIDEO_SIZE must be positive")
	}
	if c.Worker.Count < 0 || c.Worker.QueueSize < 0 {
		return fmt.Errorf("worker count and queue size must be positive")
	}
	return c.Stats.Validate()
}

// Validate checks the counters store selection.
func (s *StatsConfig) Validate() error {
	switch s.Backend {
	case StatsBackendMemory, "":
		return nil
	case StatsBackendSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("STATS_SQLITE_PATH is required for the sqlite backend")
		}
		return nil
	case StatsBackendRedis:
		if s.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown stats backend %q", s.Backend)
	}
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
