package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the configured host or a sane default.
func (s ServerConfig) GetHost() string {
	if s.Host == "" {
		return "0.0.0.0"
	}
	return s.Host
}

// SessionConfig holds session lifecycle tuning. All bounds are
// configuration-with-defaults, not hard-coded literals.
// MaxReconnectAttempts is a pointer so an explicit zero (never reconnect)
// is distinguishable from unset.
type SessionConfig struct {
	PairingWaitSeconds    int  `yaml:"pairing_wait_seconds"`
	ReconnectDelaySeconds int  `yaml:"reconnect_delay_seconds"`
	MaxReconnectAttempts  *int `yaml:"max_reconnect_attempts"`
	DirectoryTTLMinutes   int  `yaml:"directory_ttl_minutes"`
}

// PairingWait is the bounded wait for a terminal event during attach.
func (s SessionConfig) PairingWait() time.Duration {
	return time.Duration(s.PairingWaitSeconds) * time.Second
}

// ReconnectDelay is the fixed delay between reconnect attempts.
func (s SessionConfig) ReconnectDelay() time.Duration {
	return time.Duration(s.ReconnectDelaySeconds) * time.Second
}

// ReconnectBudget returns the reconnect attempt budget. Unset defaults
// to 3; an explicit zero disables automatic reconnects.
func (s SessionConfig) ReconnectBudget() int {
	if s.MaxReconnectAttempts == nil {
		return 3
	}
	return *s.MaxReconnectAttempts
}

// DirectoryTTL is the freshness window for the cached directory.
func (s SessionConfig) DirectoryTTL() time.Duration {
	return time.Duration(s.DirectoryTTLMinutes) * time.Minute
}

// DispatchConfig holds bulk-dispatch engine tuning.
type DispatchConfig struct {
	TaskRetentionMinutes int `yaml:"task_retention_minutes"`
	CancelPollMillis     int `yaml:"cancel_poll_millis"`
}

// TaskRetention is how long terminal tasks stay queryable before purge.
func (d DispatchConfig) TaskRetention() time.Duration {
	return time.Duration(d.TaskRetentionMinutes) * time.Minute
}

// CancelPoll is the granularity at which the send loop re-checks the
// cancellation flag while pacing between items.
func (d DispatchConfig) CancelPoll() time.Duration {
	return time.Duration(d.CancelPollMillis) * time.Millisecond
}

// RedisConfig holds the credential store connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads the YAML config file at path and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the config file (if present), layering .env and
// environment variable overrides on top. A missing config file is not an
// error; the defaults are a runnable configuration.
func LoadFromEnv(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Session.PairingWaitSeconds == 0 {
		c.Session.PairingWaitSeconds = 120
	}
	if c.Session.ReconnectDelaySeconds == 0 {
		c.Session.ReconnectDelaySeconds = 5
	}
	if c.Session.DirectoryTTLMinutes == 0 {
		c.Session.DirectoryTTLMinutes = 5
	}
	if c.Dispatch.TaskRetentionMinutes == 0 {
		c.Dispatch.TaskRetentionMinutes = 10
	}
	if c.Dispatch.CancelPollMillis == 0 {
		c.Dispatch.CancelPollMillis = 500
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "chatgw"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Session.ReconnectDelaySeconds < 0 {
		return fmt.Errorf("session.reconnect_delay_seconds must be non-negative")
	}
	if c.Session.MaxReconnectAttempts != nil && *c.Session.MaxReconnectAttempts < 0 {
		return fmt.Errorf("session.max_reconnect_attempts must be non-negative")
	}
	if c.Dispatch.CancelPollMillis < 100 {
		return fmt.Errorf("dispatch.cancel_poll_millis must be at least 100")
	}
	return nil
}
