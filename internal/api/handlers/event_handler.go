package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/application/services"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

const (
	minListingYear = 2024
	maxListingYear = 2030
)

// EventService defines the event operations used by the handler
type EventService interface {
	GetEventsForMonth(ctx context.Context, q services.MonthQuery) (*services.MonthEvents, error)
	MarkWatched(ctx context.Context, sessionID, eventID string) error
	UnmarkWatched(ctx context.Context, sessionID, eventID string) error
	Categories() services.CategoryList
}

// DiscoveryRunner runs discovery passes
type DiscoveryRunner interface {
	Discover(ctx context.Context, req services.DiscoverRequest) (*services.DiscoveryResult, error)
}

// EventHandler handles event discovery, listing and watch requests
type EventHandler struct {
	events    EventService
	discovery DiscoveryRunner
	sessions  SessionManager
	cookies   *SessionCookies
	now       func() time.Time
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventService, discovery DiscoveryRunner, sessions SessionManager, cookies *SessionCookies) *EventHandler {
	return &EventHandler{
		events:    events,
		discovery: discovery,
		sessions:  sessions,
		cookies:   cookies,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for the current month shortcut
func (h *EventHandler) WithClock(now func() time.Time) *EventHandler {
	h.now = now
	return h
}

// DiscoverEvents handles POST /api/events/discover-events
func (h *EventHandler) DiscoverEvents(w http.ResponseWriter, r *http.Request) {
	var req DiscoverEventsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	sessionID, err := resolveSession(ctx, h.sessions, h.cookies, r)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to discover events")
		return
	}

	platform := req.Platform
	if platform == "" {
		platform = string(entities.PlatformLuma)
	}
	if _, err := h.sessions.UpdatePreferences(ctx, sessionID, entities.Preferences{
		entities.PrefLocation: req.Location,
		entities.PrefPlatform: platform,
	}); err != nil {
		log.Warn().Err(err).Str("session_id", entities.ShortID(sessionID)).Msg("Failed to store discovery preferences")
	}

	discoverReq := services.DiscoverRequest{Location: req.Location, Platform: req.Platform}
	if req.Month != nil {
		discoverReq.Month = *req.Month
	}
	if req.Year != nil {
		discoverReq.Year = *req.Year
	}

	log.Info().
		Str("location", req.Location).
		Str("platform", platform).
		Str("session_id", entities.ShortID(sessionID)).
		Msg("Event discovery requested")

	result, err := h.discovery.Discover(ctx, discoverReq)
	if err != nil {
		if apperrors.IsValidation(err) {
			respondWithError(w, r, http.StatusBadRequest, apperrors.MessageOf(err, "invalid discovery request"))
			return
		}
		log.Error().Err(err).Str("session_id", entities.ShortID(sessionID)).Msg("Event discovery failed")
		respondWithError(w, r, http.StatusInternalServerError, "Failed to discover events")
		return
	}

	h.cookies.Set(w, sessionID)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Discovered %d AI-related events", len(result.Events)),
		"events":    result.Events,
		"sessionId": entities.ShortID(sessionID),
	})
}

// GetEventsForMonth handles GET /api/events/events/{month}/{year}
func (h *EventHandler) GetEventsForMonth(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		respondWithError(w, r, http.StatusBadRequest, "Month must be between 1 and 12")
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < minListingYear || year > maxListingYear {
		respondWithError(w, r, http.StatusBadRequest, fmt.Sprintf("Year must be between %d and %d", minListingYear, maxListingYear))
		return
	}

	h.listMonth(w, r, month, year)
}

// GetCurrentMonthEvents handles GET /api/events/events/current
func (h *EventHandler) GetCurrentMonthEvents(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	h.listMonth(w, r, int(now.Month()), now.Year())
}

func (h *EventHandler) listMonth(w http.ResponseWriter, r *http.Request, month, year int) {
	query := r.URL.Query()
	q := services.MonthQuery{
		Location: query.Get("location"),
		Category: query.Get("category"),
		Month:    month,
		Year:     year,
	}
	if raw := query.Get("min_relevance_score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil || score < 1 || score > 10 {
			respondWithError(w, r, http.StatusBadRequest, "min_relevance_score must be an integer between 1 and 10")
			return
		}
		q.MinRelevanceScore = &score
	}

	ctx := r.Context()
	sessionID, err := resolveSession(ctx, h.sessions, h.cookies, r)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to retrieve events")
		return
	}
	q.SessionID = sessionID

	result, err := h.events.GetEventsForMonth(ctx, q)
	if err != nil {
		log.Error().Err(err).Int("month", month).Int("year", year).Str("session_id", entities.ShortID(sessionID)).Msg("Failed to retrieve events")
		respondWithError(w, r, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	log.Info().
		Int("month", month).
		Int("year", year).
		Int("total_events", result.TotalEvents).
		Str("session_id", entities.ShortID(sessionID)).
		Msg("Events retrieved")

	h.cookies.Set(w, sessionID)
	respondWithJSON(w, http.StatusOK, result)
}

// ToggleWatch handles POST /api/events/events/watch
func (h *EventHandler) ToggleWatch(w http.ResponseWriter, r *http.Request) {
	var req WatchEventRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	sessionID, err := resolveSession(ctx, h.sessions, h.cookies, r)
	if err != nil {
		respondWithAppError(w, r, err, "Failed to update watch status")
		return
	}

	watch := *req.WatchStatus
	action := "unmarked as watched"
	if watch {
		action = "marked as watched"
		err = h.events.MarkWatched(ctx, sessionID, req.EventID)
	} else {
		err = h.events.UnmarkWatched(ctx, sessionID, req.EventID)
	}
	if err != nil {
		log.Error().Err(err).Str("event_id", req.EventID).Str("session_id", entities.ShortID(sessionID)).Msg("Failed to update event watch status")
		respondWithError(w, r, http.StatusBadRequest, "Failed to update watch status")
		return
	}

	h.cookies.Set(w, sessionID)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Event " + action,
		"eventId":   req.EventID,
		"isWatched": watch,
	})
}

// GetCategories handles GET /api/events/events/categories
func (h *EventHandler) GetCategories(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, h.events.Categories())
}
