package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

const sessionTokenBytes = 32

// SessionService manages anonymous cookie sessions and their preferences
type SessionService struct {
	sessions repositories.SessionRepository
	watches  repositories.WatchRepository
	now      func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(sessions repositories.SessionRepository, watches repositories.WatchRepository) *SessionService {
	return &SessionService{
		sessions: sessions,
		watches:  watches,
		now:      time.Now,
	}
}

// WithClock replaces the service clock
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create stores a new session and returns its token. Supplied preferences
// override the defaults key by key; the session location follows the merged
// location preference.
func (s *SessionService) Create(ctx context.Context, location string, preferences entities.Preferences) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", apperrors.NewInternalError("failed to generate session token", err)
	}

	prefs := entities.DefaultPreferences(location).Merge(preferences)
	sessionLocation := prefs.String(entities.PrefLocation)
	if sessionLocation == "" {
		sessionLocation = entities.LocationOnline
	}

	now := s.now().UTC()
	session := &entities.UserSession{
		SessionID:   token,
		CreatedAt:   now,
		LastActive:  now,
		Location:    sessionLocation,
		Preferences: prefs,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		return "", err
	}

	log.Info().Str("session_id", entities.ShortID(token)).Msg("New session created")
	return token, nil
}

// Get returns the session and refreshes its last_active timestamp
func (s *SessionService) Get(ctx context.Context, id string) (*entities.UserSession, error) {
	if id == "" {
		return nil, apperrors.NewNotFoundError("session not found")
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.sessions.Touch(ctx, id, now); err != nil {
		log.Warn().Err(err).Str("session_id", entities.ShortID(id)).Msg("Failed to refresh session activity")
	} else {
		session.LastActive = now
	}
	return session, nil
}

// Validate reports whether id names a live session. An expired session is
// deleted on the spot.
func (s *SessionService) Validate(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			log.Error().Err(err).Str("session_id", entities.ShortID(id)).Msg("Failed to retrieve session")
		}
		return false
	}

	if session.IsExpired(s.now()) {
		if err := s.sessions.Delete(ctx, id); err != nil {
			log.Error().Err(err).Str("session_id", entities.ShortID(id)).Msg("Failed to cleanup expired session")
		} else {
			log.Info().Str("session_id", entities.ShortID(id)).Msg("Expired session cleaned up")
		}
		return false
	}
	return true
}

// UpdatePreferences merges partial into the stored preferences. It returns
// false when the session does not exist.
func (s *SessionService) UpdatePreferences(ctx context.Context, id string, partial entities.Preferences) (bool, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if apperrors.IsNotFound(err) {
		log.Warn().Str("session_id", entities.ShortID(id)).Msg("Session not found for preference update")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	current := session.Preferences
	if current == nil {
		current = entities.Preferences{}
	}
	merged := current.Merge(partial)

	location := ""
	if _, ok := partial[entities.PrefLocation]; ok {
		location = partial.String(entities.PrefLocation)
	}

	updated, err := s.sessions.UpdatePreferences(ctx, id, merged, location)
	if err != nil || !updated {
		return updated, err
	}
	if err := s.sessions.Touch(ctx, id, s.now().UTC()); err != nil {
		log.Warn().Err(err).Str("session_id", entities.ShortID(id)).Msg("Failed to refresh session activity")
	}

	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	log.Info().Str("session_id", entities.ShortID(id)).Strs("updated_keys", keys).Msg("Session preferences updated")
	return true, nil
}

// GetPreferences returns the stored preferences, or the defaults when the
// session is unknown or has none
func (s *SessionService) GetPreferences(ctx context.Context, id string) (entities.Preferences, error) {
	session, err := s.Get(ctx, id)
	if apperrors.IsNotFound(err) {
		return entities.DefaultPreferences(""), nil
	}
	if err != nil {
		return nil, err
	}
	if len(session.Preferences) == 0 {
		return entities.DefaultPreferences(""), nil
	}
	return session.Preferences, nil
}

// Stats summarises a session
func (s *SessionService) Stats(ctx context.Context, id string) (*entities.SessionStats, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	watched, err := s.watches.Count(ctx, id)
	if err != nil {
		return nil, err
	}

	prefs := session.Preferences
	if prefs == nil {
		prefs = entities.Preferences{}
	}
	return &entities.SessionStats{
		SessionID:          entities.ShortID(id),
		CreatedAt:          session.CreatedAt,
		LastActive:         session.LastActive,
		SessionAgeDays:     int(s.now().Sub(session.CreatedAt) / (24 * time.Hour)),
		WatchedEventsCount: watched,
		Location:           session.Location,
		Preferences:        prefs,
	}, nil
}

// Delete removes a session and its watch rows
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("session_id", entities.ShortID(id)).Msg("Session deleted")
	return nil
}

// CleanupExpired deletes every session created more than SessionLifetime ago
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-entities.SessionLifetime)
	count, err := s.sessions.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Cleaned up expired sessions")
	}
	return count, nil
}
