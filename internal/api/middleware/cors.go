package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// CORSMiddleware adds CORS headers for the configured origins. Credentials
// are allowed so the session cookie reaches the API from the frontend.
func CORSMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
}
