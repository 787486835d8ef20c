package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/pkg/config"
)

// SessionManager defines the session operations used by the handlers
type SessionManager interface {
	Create(ctx context.Context, location string, preferences entities.Preferences) (string, error)
	Validate(ctx context.Context, id string) bool
	UpdatePreferences(ctx context.Context, id string, partial entities.Preferences) (bool, error)
	GetPreferences(ctx context.Context, id string) (entities.Preferences, error)
	Stats(ctx context.Context, id string) (*entities.SessionStats, error)
	Delete(ctx context.Context, id string) error
}

// SessionCookies reads and writes the session cookie
type SessionCookies struct {
	name   string
	secure bool
	maxAge time.Duration
}

// NewSessionCookies creates the cookie helper from session configuration
func NewSessionCookies(cfg config.SessionConfig) *SessionCookies {
	name := cfg.CookieName
	if name == "" {
		name = "ai_events_session"
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = entities.SessionLifetime
	}
	return &SessionCookies{name: name, secure: cfg.CookieSecure, maxAge: maxAge}
}

// Name returns the cookie name
func (c *SessionCookies) Name() string {
	return c.name
}

// Read returns the session token sent by the client, or ""
func (c *SessionCookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes the session cookie
func (c *SessionCookies) Set(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolveSession returns the caller's live session, creating one when the
// cookie is absent or no longer valid. New sessions take their location
// from the CF-IPCountry header.
func resolveSession(ctx context.Context, sessions SessionManager, cookies *SessionCookies, r *http.Request) (string, error) {
	if id := cookies.Read(r); id != "" && sessions.Validate(ctx, id) {
		return id, nil
	}

	location := r.Header.Get("CF-IPCountry")
	if location == "" {
		location = entities.LocationOnline
	}
	return sessions.Create(ctx, location, nil)
}
