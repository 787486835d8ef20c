package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, time.Second, cfg.Perplexity.QueryDelay)
	assert.Equal(t, "ai_events_session", cfg.Session.CookieName)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/events.db")
	t.Setenv("PERPLEXITY_API_KEY", "pplx-test")
	t.Setenv("DISCOVERY_QUERY_DELAY", "250ms")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SOME_UNRELATED_VAR", "ignored")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/events.db?_foreign_keys=on&_busy_timeout=5000", cfg.Database.DatabaseDSN())
	assert.Equal(t, "pplx-test", cfg.Perplexity.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Perplexity.QueryDelay)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadFile_YAMLBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
environment: production
server:
  port: 7000
discovery:
  default_platform: meetup
redis:
  enabled: true
  host: cache.internal
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.Equal(t, "meetup", cfg.Discovery.DefaultPlatform)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.RedisAddr())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Discovery.MinRelevanceScore = 11
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.OTEL.Enabled = true
	assert.Error(t, cfg.Validate())

	assert.NoError(t, defaultConfig().Validate())
}
