package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string           `koanf:"environment"`
	Server      ServerConfig     `koanf:"server"`
	Database    DatabaseConfig   `koanf:"database"`
	Redis       RedisConfig      `koanf:"redis"`
	Perplexity  PerplexityConfig `koanf:"perplexity"`
	Discovery   DiscoveryConfig  `koanf:"discovery"`
	Session     SessionConfig    `koanf:"session"`
	CORS        CORSConfig       `koanf:"cors"`
	RateLimit   RateLimitConfig  `koanf:"rate_limit"`
	OTEL        OTELConfig       `koanf:"otel"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration. Driver selects between
// a PostgreSQL server and a single-file SQLite database at Path.
type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
	Path     string `koanf:"path"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// PerplexityConfig holds the search/classification API configuration
type PerplexityConfig struct {
	APIKey          string        `koanf:"api_key"`
	BaseURL         string        `koanf:"base_url"`
	Model           string        `koanf:"model"`
	SearchTimeout   time.Duration `koanf:"search_timeout"`
	ClassifyTimeout time.Duration `koanf:"classify_timeout"`
	QueryDelay      time.Duration `koanf:"query_delay"`
	CacheSize       int           `koanf:"cache_size"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// DiscoveryConfig holds discovery pipeline configuration
type DiscoveryConfig struct {
	DefaultPlatform   string        `koanf:"default_platform"`
	MinRelevanceScore int           `koanf:"min_relevance_score"`
	MonthCacheTTL     time.Duration `koanf:"month_cache_ttl"`
}

// SessionConfig holds cookie session configuration
type SessionConfig struct {
	CookieName    string        `koanf:"cookie_name"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	MaxAge        time.Duration `koanf:"max_age"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// CORSConfig holds cross-origin configuration
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	MaxAge         int      `koanf:"max_age"`
}

// RateLimitConfig holds per-IP rate limiting for discovery requests
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Endpoint       string `koanf:"endpoint"`
	Enabled        bool   `koanf:"enabled"`
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DatabaseDSN returns the connection string for the configured driver
func (c *DatabaseConfig) DatabaseDSN() string {
	if c.Driver == DriverSQLite {
		return c.Path + "?_foreign_keys=on&_busy_timeout=5000"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerAddr returns the listen address
func (c *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)
