package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the files searched, in order, when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ai-event-scanner/config.yaml",
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "ai_events",
			SSLMode:  "disable",
			Path:     "ai_events.db",
		},
		Redis: RedisConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    6379,
		},
		Perplexity: PerplexityConfig{
			BaseURL:         "https://api.perplexity.ai",
			Model:           "sonar-pro",
			SearchTimeout:   60 * time.Second,
			ClassifyTimeout: 30 * time.Second,
			QueryDelay:      time.Second,
			CacheSize:       1024,
			CacheTTL:        24 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			DefaultPlatform:   "luma",
			MinRelevanceScore: 5,
			MonthCacheTTL:     2 * time.Minute,
		},
		Session: SessionConfig{
			CookieName:    "ai_events_session",
			CookieSecure:  true,
			MaxAge:        30 * 24 * time.Hour,
			SweepInterval: time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxAge:         300,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 10,
			Window:   time.Minute,
		},
		OTEL: OTELConfig{
			ServiceName:    "ai-event-scanner",
			ServiceVersion: "2.0.0",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path falls
// back to CONFIG_PATH and DefaultConfigPaths.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"cors.allowed_origins",
}

// processSliceFields splits comma-separated env values for slice fields
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"app_env": "environment",

	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"db_driver":   "database.driver",
	"db_host":     "database.host",
	"db_port":     "database.port",
	"db_user":     "database.user",
	"db_password": "database.password",
	"db_name":     "database.name",
	"db_sslmode":  "database.sslmode",
	"db_path":     "database.path",

	"redis_enabled":  "redis.enabled",
	"redis_host":     "redis.host",
	"redis_port":     "redis.port",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"perplexity_api_key":          "perplexity.api_key",
	"perplexity_base_url":         "perplexity.base_url",
	"perplexity_model":            "perplexity.model",
	"perplexity_search_timeout":   "perplexity.search_timeout",
	"perplexity_classify_timeout": "perplexity.classify_timeout",
	"discovery_query_delay":       "perplexity.query_delay",
	"classification_cache_size":   "perplexity.cache_size",
	"classification_cache_ttl":    "perplexity.cache_ttl",

	"discovery_default_platform":    "discovery.default_platform",
	"discovery_min_relevance_score": "discovery.min_relevance_score",
	"discovery_month_cache_ttl":     "discovery.month_cache_ttl",

	"session_cookie_name":    "session.cookie_name",
	"session_cookie_secure":  "session.cookie_secure",
	"session_max_age":        "session.max_age",
	"session_sweep_interval": "session.sweep_interval",

	"allowed_origins": "cors.allowed_origins",
	"cors_max_age":    "cors.max_age",

	"rate_limit_enabled":  "rate_limit.enabled",
	"rate_limit_requests": "rate_limit.requests",
	"rate_limit_window":   "rate_limit.window",

	"otel_service_name":    "otel.service_name",
	"otel_service_version": "otel.service_version",
	"otel_endpoint":        "otel.endpoint",
	"otel_enabled":         "otel.enabled",
}

// envTransformFunc maps flat environment variable names onto koanf paths.
// Unknown variables map to "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
