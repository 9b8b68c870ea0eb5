package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	InventoryServiceURL    string        `mapstructure:"INVENTORY_SERVICE_URL"`
	OrderServiceURL        string        `mapstructure:"ORDER_SERVICE_URL"`
	CustomerServiceURL     string        `mapstructure:"CUSTOMER_SERVICE_URL"`
	OrderHistoryServiceURL string        `mapstructure:"ORDER_HISTORY_SERVICE_URL"`
	BackendConnectTimeout  time.Duration `mapstructure:"BACKEND_CONNECT_TIMEOUT"`
	BackendRequestTimeout  time.Duration `mapstructure:"BACKEND_REQUEST_TIMEOUT"`
	BreakerFailures        uint32        `mapstructure:"BREAKER_FAILURES"`
	BreakerOpenTimeout     time.Duration `mapstructure:"BREAKER_OPEN_TIMEOUT"`

	SessionBackend      string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionLockLease    time.Duration `mapstructure:"SESSION_LOCK_LEASE"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int           `mapstructure:"REDIS_DB"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"HTTP_PORT":        "8080",
	"REQUEST_TIMEOUT":  "30s",
	"SHUTDOWN_TIMEOUT": "10s",

	"INVENTORY_SERVICE_URL":     "http://localhost:5002",
	"ORDER_SERVICE_URL":         "http://localhost:5001",
	"CUSTOMER_SERVICE_URL":      "http://localhost:5004",
	"ORDER_HISTORY_SERVICE_URL": "",
	"BACKEND_CONNECT_TIMEOUT":   "5s",
	"BACKEND_REQUEST_TIMEOUT":   "10s",
	"BREAKER_FAILURES":          5,
	"BREAKER_OPEN_TIMEOUT":      "30s",

	"SESSION_BACKEND":       SessionBackendMemory,
	"SESSION_TTL":           "30m",
	"SESSION_COOKIE_SECURE": false,
	"SESSION_LOCK_LEASE":    "30s",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,

	"KAFKA_BROKERS": []string{},
	"KAFKA_TOPIC":   "storefront-orders",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",
}

// Load reads configuration from the environment, optionally layered over a
// config file. An empty path or a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.OrderHistoryServiceURL == "" {
		cfg.OrderHistoryServiceURL = cfg.CustomerServiceURL
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.BackendConnectTimeout <= 0 || c.BackendRequestTimeout <= 0 {
		return errors.New("backend timeouts must be positive")
	}
	// an order submission runs under the lock and must finish inside the lease
	if c.SessionBackend == SessionBackendRedis && c.SessionLockLease <= c.BackendRequestTimeout {
		return errors.New("SESSION_LOCK_LEASE must exceed BACKEND_REQUEST_TIMEOUT")
	}
	return nil
}

func (c *Config) PublishingEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
