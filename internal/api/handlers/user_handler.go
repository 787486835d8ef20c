package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

// UserHandler handles session and preference requests. Every route except
// session creation requires a valid session cookie.
type UserHandler struct {
	sessions SessionManager
	cookies  *SessionCookies
}

// NewUserHandler creates a new user handler
func NewUserHandler(sessions SessionManager, cookies *SessionCookies) *UserHandler {
	return &UserHandler{sessions: sessions, cookies: cookies}
}

func (h *UserHandler) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := h.cookies.Read(r)
	if id == "" || !h.sessions.Validate(r.Context(), id) {
		respondWithError(w, r, http.StatusUnauthorized, "Invalid or expired session")
		return "", false
	}
	return id, true
}

// GetPreferences handles GET /api/users/preferences
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	prefs, err := h.sessions.GetPreferences(r.Context(), sessionID)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to retrieve preferences")
		return
	}

	log.Info().Str("session_id", entities.ShortID(sessionID)).Msg("User preferences retrieved")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"preferences": prefs,
		"sessionId":   entities.ShortID(sessionID),
	})
}

// UpdatePreferences handles PUT /api/users/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req UpdatePreferencesRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	update := req.Preferences()
	if len(update) == 0 {
		respondWithError(w, r, http.StatusBadRequest, "No preferences provided")
		return
	}

	ctx := r.Context()
	updated, err := h.sessions.UpdatePreferences(ctx, sessionID, update)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to update preferences")
		return
	}
	if !updated {
		respondWithError(w, r, http.StatusBadRequest, "Failed to update preferences")
		return
	}

	prefs, err := h.sessions.GetPreferences(ctx, sessionID)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to update preferences")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Preferences updated successfully",
		"preferences": prefs,
	})
}

// GetSessionStats handles GET /api/users/session/stats
func (h *UserHandler) GetSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	stats, err := h.sessions.Stats(r.Context(), sessionID)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to retrieve session stats")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stats":     stats,
		"sessionId": entities.ShortID(sessionID),
	})
}

// CreateSession handles POST /api/users/session/create. The optional body
// is a preferences object applied over the defaults.
func (h *UserHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		location = entities.LocationOnline
	}

	var prefs entities.Preferences
	if err := decodeJSON(w, r, &prefs, true); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), location, prefs)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to create session")
		return
	}

	h.cookies.Set(w, sessionID)
	log.Info().Str("session_id", entities.ShortID(sessionID)).Msg("New session created manually")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "New session created",
		"sessionId": entities.ShortID(sessionID),
		"location":  location,
	})
}

// DeleteSession handles DELETE /api/users/session
func (h *UserHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		respondWithAppError(w, r, err, "Failed to clear session")
		return
	}

	h.cookies.Clear(w)
	log.Info().Str("session_id", entities.ShortID(sessionID)).Msg("Session cleared")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session cleared successfully",
	})
}
