package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/handlers"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/routes"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Session: config.SessionConfig{CookieName: "ai_events_session"},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}

	cookies := handlers.NewSessionCookies(cfg.Session)
	router := routes.NewRouter(
		handlers.NewEventHandler(nil, nil, nil, cookies),
		handlers.NewUserHandler(nil, cookies),
		handlers.NewHealthHandler("AI Event Scanner", "2.0.0"),
		nil,
		nil,
		cfg,
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	handler := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_RootOnlyMatchesExactPath(t *testing.T) {
	handler := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PreflightAllowsFrontendOrigin(t *testing.T) {
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/events/discover-events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_UserRoutesRequireSession(t *testing.T) {
	handler := newTestRouter(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/preferences", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
