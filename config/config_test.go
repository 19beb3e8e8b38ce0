package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
redmine:
  base_url: https://redmine.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://redmine.example.com", cfg.Redmine.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Redmine.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Redmine.CacheTTL)
	assert.Equal(t, 3, cfg.Redmine.MaxRetries)
	assert.Equal(t, 100, cfg.Redmine.PageSize)
	assert.Equal(t, 5, cfg.Redmine.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Redmine.BreakerCooldown)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "kanbmine.db", cfg.Store.Path)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
redmine:
  base_url: https://redmine.example.com
  timeout: 10s
  max_retries: 5
  page_size: 25
log:
  level: debug
  format: console
store:
  path: /tmp/kanbmine-test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Redmine.Timeout)
	assert.Equal(t, 5, cfg.Redmine.MaxRetries)
	assert.Equal(t, 25, cfg.Redmine.PageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "/tmp/kanbmine-test.db", cfg.Store.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
redmine:
  base_url: https://redmine.example.com
log:
  level: info
`)

	t.Setenv("KANBMINE_REDMINE__BASE_URL", "https://other.example.com")
	t.Setenv("KANBMINE_LOG__LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://other.example.com", cfg.Redmine.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingBaseURL(t *testing.T) {
	path := writeConfigFile(t, `
log:
  level: info
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log level", "redmine:\n  base_url: https://r.example.com\nlog:\n  level: verbose\n"},
		{"bad log format", "redmine:\n  base_url: https://r.example.com\nlog:\n  format: xml\n"},
		{"negative retries", "redmine:\n  base_url: https://r.example.com\n  max_retries: -1\n"},
		{"zero page size", "redmine:\n  base_url: https://r.example.com\n  page_size: 0\n"},
		{"not a url", "redmine:\n  base_url: not a url\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.yaml)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config file")
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "redmine.base_url", envTransform("KANBMINE_REDMINE__BASE_URL"))
	assert.Equal(t, "log.level", envTransform("KANBMINE_LOG__LEVEL"))
	assert.Equal(t, "redmine.cache_ttl", envTransform("KANBMINE_REDMINE__CACHE_TTL"))
}
