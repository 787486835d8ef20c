package config

import (
	"errors"
	"fmt"
)

// Validate checks the loaded configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("database.host and database.name are required for postgres")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite3")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if c.Perplexity.BaseURL == "" || c.Perplexity.Model == "" {
		return errors.New("perplexity.base_url and perplexity.model are required")
	}
	if c.Perplexity.QueryDelay < 0 {
		return errors.New("perplexity.query_delay must not be negative")
	}
	if c.Perplexity.CacheSize <= 0 {
		return errors.New("perplexity.cache_size must be positive")
	}

	if c.Discovery.MinRelevanceScore < 1 || c.Discovery.MinRelevanceScore > 10 {
		return fmt.Errorf("discovery.min_relevance_score must be between 1 and 10, got %d", c.Discovery.MinRelevanceScore)
	}

	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	if c.Session.MaxAge <= 0 {
		return errors.New("session.max_age must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate_limit.requests and rate_limit.window must be positive when enabled")
	}

	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return errors.New("otel.endpoint is required when otel is enabled")
	}

	return nil
}
