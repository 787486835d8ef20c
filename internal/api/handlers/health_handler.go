package handlers

import "net/http"

// HealthHandler serves the liveness and API info endpoints
type HealthHandler struct {
	service string
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
		"service": h.service,
	})
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": h.service + " v" + h.version + " API",
		"version": h.version,
		"health":  "/health",
	})
}
