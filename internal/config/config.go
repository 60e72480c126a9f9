// Package config loads the client configuration from YAML with environment
// variable fallbacks.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "30s" or "720h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration.
type Config struct {
	// API holds backend endpoint settings.
	API APIConfig `yaml:"api"`

	// Chat holds session defaults.
	Chat ChatConfig `yaml:"chat"`

	// Archive holds transcript archive settings.
	Archive ArchiveConfig `yaml:"archive"`

	// Metrics holds observability settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig holds backend endpoint settings.
type APIConfig struct {
	// BaseURL is the chat API base, e.g. an API Gateway stage URL.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each turn round-trip.
	Timeout Duration `yaml:"timeout"`
	// AuthToken is an optional bearer credential.
	AuthToken string `yaml:"auth_token"`
	// RequestsPerSecond enables client-side rate limiting when positive.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ChatConfig holds session defaults.
type ChatConfig struct {
	DefaultDomain string `yaml:"default_domain"`
	DefaultModel  string `yaml:"default_model"`
}

// ArchiveConfig holds transcript archive settings.
type ArchiveConfig struct {
	// Store selects the archive backend: "file" or "redis".
	Store string `yaml:"store"`
	// BaseDir is the directory for the file store.
	BaseDir string `yaml:"base_dir"`
	// Redis configures the redis store.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the archive.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	TTL      Duration `yaml:"ttl"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Port exposes /metrics and /health when positive.
	Port int `yaml:"port"`
}

// Load reads configuration from a YAML file. A missing file is not an
// error; environment variables and defaults still apply.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DOMAINCHAT_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DOMAINCHAT_AUTH_TOKEN"); v != "" {
		c.API.AuthToken = v
	}
	if v := os.Getenv("DOMAINCHAT_REDIS_ADDR"); v != "" {
		c.Archive.Redis.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.API.Timeout <= 0 {
		c.API.Timeout = Duration(30 * time.Second)
	}
	if c.Chat.DefaultDomain == "" {
		c.Chat.DefaultDomain = "general"
	}
	if c.Archive.Store == "" {
		c.Archive.Store = "file"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required (or set DOMAINCHAT_API_URL)")
	}
	switch c.Archive.Store {
	case "file":
	case "redis":
		if c.Archive.Redis.Addr == "" {
			return fmt.Errorf("archive.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("archive.store must be %q or %q, got %q", "file", "redis", c.Archive.Store)
	}
	return nil
}
