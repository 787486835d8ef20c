package routes

import (
	"net/http"

	"github.com/zatekoja/ai-event-scanner/backend/internal/api/handlers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/middleware"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	"github.com/zatekoja/ai-event-scanner/backend/internal/infrastructure/observability"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	eventHandler  *handlers.EventHandler
	userHandler   *handlers.UserHandler
	healthHandler *handlers.HealthHandler

	usageLogs repositories.UsageLogRepository
	metrics   *observability.Metrics
	cfg       *config.Config
}

// NewRouter creates a new router. usageLogs and metrics may be nil.
func NewRouter(
	eventHandler *handlers.EventHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	usageLogs repositories.UsageLogRepository,
	metrics *observability.Metrics,
	cfg *config.Config,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		eventHandler:  eventHandler,
		userHandler:   userHandler,
		healthHandler: healthHandler,
		usageLogs:     usageLogs,
		metrics:       metrics,
		cfg:           cfg,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /{$}", r.healthHandler.Root)

	api := http.NewServeMux()

	// Event endpoints
	rateLimit := middleware.RateLimitMiddleware(r.cfg.RateLimit)
	api.Handle("POST /api/events/discover-events", rateLimit(http.HandlerFunc(r.eventHandler.DiscoverEvents)))
	api.HandleFunc("GET /api/events/events/current", r.eventHandler.GetCurrentMonthEvents)
	api.HandleFunc("GET /api/events/events/categories", r.eventHandler.GetCategories)
	api.HandleFunc("GET /api/events/events/{month}/{year}", r.eventHandler.GetEventsForMonth)
	api.HandleFunc("POST /api/events/events/watch", r.eventHandler.ToggleWatch)

	// Session and preference endpoints
	api.HandleFunc("GET /api/users/preferences", r.userHandler.GetPreferences)
	api.HandleFunc("PUT /api/users/preferences", r.userHandler.UpdatePreferences)
	api.HandleFunc("GET /api/users/session/stats", r.userHandler.GetSessionStats)
	api.HandleFunc("POST /api/users/session/create", r.userHandler.CreateSession)
	api.HandleFunc("DELETE /api/users/session", r.userHandler.DeleteSession)

	var apiHandler http.Handler = api
	if r.usageLogs != nil {
		apiHandler = middleware.UsageLogMiddleware(r.usageLogs, r.cfg.Session.CookieName)(apiHandler)
	}
	r.mux.Handle("/api/", apiHandler)

	// Apply middleware in reverse order (last middleware wraps first).
	// Observability and logging sit directly on the mux so they see the
	// matched route pattern.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	// CORS wraps everything so preflight requests never reach the handlers
	handler = middleware.CORSMiddleware(r.cfg.CORS)(handler)

	return handler
}
