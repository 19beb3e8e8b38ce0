// Package config loads Kanbmine client configuration from YAML files and
// environment variables, with struct defaults as the base layer.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kanbmine/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "KANBMINE_CONFIG"

// envPrefix namespaces the environment overrides, e.g.
// KANBMINE_REDMINE__BASE_URL maps to redmine.base_url.
const envPrefix = "KANBMINE_"

// Config is the full client configuration. Values are injected at
// construction and never mutated at runtime.
type Config struct {
	Redmine RedmineConfig `koanf:"redmine"`
	Log     LogConfig     `koanf:"log"`
	Store   StoreConfig   `koanf:"store"`
}

// RedmineConfig configures the API client and its resilience layers.
type RedmineConfig struct {
	// BaseURL is the root of the Redmine server, e.g.
	// https://redmine.example.com.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// CacheTTL is how long issue and project results stay fresh.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gt=0"`

	// MaxRetries is the number of re-attempts on transient failures.
	MaxRetries int `koanf:"max_retries" validate:"gte=0"`

	// PageSize is the fallback limit for list calls.
	PageSize int `koanf:"page_size" validate:"gt=0"`

	// BreakerThreshold is the consecutive transient failures that open the
	// circuit.
	BreakerThreshold int `koanf:"breaker_threshold" validate:"gt=0"`

	// BreakerCooldown is how long the circuit stays open before a trial
	// call is allowed.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// LogConfig configures the zerolog output.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is json or console.
	Format string `koanf:"format" validate:"oneof=json console"`
}

// StoreConfig configures the credential store.
type StoreConfig struct {
	// Path is the SQLite database file holding the persisted session.
	Path string `koanf:"path" validate:"required"`
}

func defaultConfig() *Config {
	return &Config{
		Redmine: RedmineConfig{
			Timeout:          30 * time.Second,
			CacheTTL:         5 * time.Minute,
			MaxRetries:       3,
			PageSize:         100,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "kanbmine.db",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// the first default path found when path is empty), then KANBMINE_*
// environment variables. The result is validated before being returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = resolvePath()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func resolvePath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps KANBMINE_REDMINE__BASE_URL to redmine.base_url: the
// double underscore separates nesting levels, single underscores stay part of
// the key.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
