package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ai-event-scanner/backend/internal/api/middleware"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/mocks"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

func teapot(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestCORSMiddleware_AllowsConfiguredOriginWithCredentials(t *testing.T) {
	handler := middleware.CORSMiddleware(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxAge:         300,
	})(http.HandlerFunc(teapot))

	req := httptest.NewRequest(http.MethodGet, "/api/events/events/categories", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSMiddleware_RejectsUnknownOrigin(t *testing.T) {
	handler := middleware.CORSMiddleware(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
	})(http.HandlerFunc(teapot))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware_RejectsExcessRequests(t *testing.T) {
	handler := middleware.RateLimitMiddleware(config.RateLimitConfig{
		Enabled:  true,
		Requests: 2,
		Window:   time.Minute,
	})(http.HandlerFunc(teapot))

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/events/discover-events", nil)
		req.RemoteAddr = "203.0.113.7:4242"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusTeapot, serve().Code)
	assert.Equal(t, http.StatusTeapot, serve().Code)

	rec := serve()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["error"])
	assert.Equal(t, float64(http.StatusTooManyRequests), body["status_code"])
	assert.Equal(t, "/api/events/discover-events", body["path"])
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := middleware.RateLimitMiddleware(config.RateLimitConfig{Enabled: false, Requests: 1, Window: time.Minute})(http.HandlerFunc(teapot))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
}

func TestUsageLogMiddleware_RecordsRequest(t *testing.T) {
	logs := mocks.NewUsageLogRepository(t)
	api := http.NewServeMux()
	api.HandleFunc("GET /api/events/events/{month}/{year}", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusTeapot)
	})
	handler := middleware.UsageLogMiddleware(logs, "ai_events_session")(api)

	var recorded *entities.APIUsageLog
	logs.On("Create", mock.Anything, mock.AnythingOfType("*entities.APIUsageLog")).
		Run(func(args mock.Arguments) { recorded = args.Get(1).(*entities.APIUsageLog) }).
		Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events/events/3/2026?location=Berlin", nil)
	req.AddCookie(&http.Cookie{Name: "ai_events_session", Value: "token-123"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, recorded)
	assert.Equal(t, "GET /api/events/events/{month}/{year}", recorded.Endpoint)
	assert.Equal(t, http.MethodGet, recorded.Method)
	assert.Equal(t, "token-123", recorded.SessionID)
	assert.Equal(t, http.StatusTeapot, recorded.ResponseStatus)
	assert.GreaterOrEqual(t, recorded.ResponseTime, 50.0, "response time is in milliseconds")
	assert.Less(t, recorded.ResponseTime, 5000.0)
	assert.JSONEq(t, `{"location":["Berlin"]}`, string(recorded.RequestData))
}

func TestUsageLogMiddleware_UnmatchedRouteFallsBackToPath(t *testing.T) {
	logs := mocks.NewUsageLogRepository(t)
	handler := middleware.UsageLogMiddleware(logs, "ai_events_session")(http.HandlerFunc(teapot))

	var recorded *entities.APIUsageLog
	logs.On("Create", mock.Anything, mock.AnythingOfType("*entities.APIUsageLog")).
		Run(func(args mock.Arguments) { recorded = args.Get(1).(*entities.APIUsageLog) }).
		Return(nil)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/preferences", nil))

	require.NotNil(t, recorded)
	assert.Equal(t, "/api/users/preferences", recorded.Endpoint)
	assert.Empty(t, recorded.SessionID)
}

func TestUsageLogMiddleware_WriteFailureDoesNotAffectResponse(t *testing.T) {
	logs := mocks.NewUsageLogRepository(t)
	handler := middleware.UsageLogMiddleware(logs, "ai_events_session")(http.HandlerFunc(teapot))

	logs.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/preferences", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestObservabilityAndLogging_UseMatchedRoute(t *testing.T) {
	mux := http.NewServeMux()
	var pattern string
	mux.HandleFunc("GET /api/events/events/{month}/{year}", func(w http.ResponseWriter, r *http.Request) {
		pattern = r.Pattern
		w.WriteHeader(http.StatusNoContent)
	})

	handler := middleware.ObservabilityMiddleware(nil)(middleware.LoggingMiddleware(mux))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/events/3/2026", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET /api/events/events/{month}/{year}", pattern)
}
