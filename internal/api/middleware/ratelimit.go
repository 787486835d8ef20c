package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// RateLimitMiddleware limits requests per client IP. It is a pass-through
// when rate limiting is disabled.
func RateLimitMiddleware(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("Rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error":       true,
				"status_code": http.StatusTooManyRequests,
				"message":     "Too many discovery requests, try again later",
				"path":        r.URL.Path,
			})
		}),
	)
}
