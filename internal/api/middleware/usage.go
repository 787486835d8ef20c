package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
)

const usageWriteTimeout = 2 * time.Second

// UsageLogMiddleware records one APIUsageLog row per /api request, keyed by
// the matched route with the response time in milliseconds. A failed write
// is logged and never affects the response.
func UsageLogMiddleware(logs repositories.UsageLogRepository, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			entry := &entities.APIUsageLog{
				Endpoint:       routeOf(r),
				Method:         r.Method,
				ResponseStatus: rw.statusCode,
				ResponseTime:   float64(time.Since(start).Microseconds()) / 1000,
				Timestamp:      start.UTC(),
			}
			if cookie, err := r.Cookie(cookieName); err == nil {
				entry.SessionID = cookie.Value
			}
			if query := r.URL.Query(); len(query) > 0 {
				if data, err := json.Marshal(query); err == nil {
					entry.RequestData = data
				}
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), usageWriteTimeout)
			defer cancel()
			if err := logs.Create(ctx, entry); err != nil {
				log.Warn().Err(err).Str("endpoint", entry.Endpoint).Msg("Failed to record API usage")
			}
		})
	}
}
