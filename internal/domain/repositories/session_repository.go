package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	Create(ctx context.Context, session *entities.UserSession) error

	// GetByID returns a not found error when no row exists
	GetByID(ctx context.Context, id string) (*entities.UserSession, error)

	// Touch sets last_active
	Touch(ctx context.Context, id string, at time.Time) error

	// UpdatePreferences stores prefs, and location when non-empty.
	// It reports false when the session does not exist.
	UpdatePreferences(ctx context.Context, id string, prefs entities.Preferences, location string) (bool, error)

	// Delete removes the session and its watch rows
	Delete(ctx context.Context, id string) error

	// DeleteCreatedBefore bulk-deletes sessions created before cutoff
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// WatchRepository defines the interface for session watch lists
type WatchRepository interface {
	// Add is a no-op when the pair already exists
	Add(ctx context.Context, watch *entities.WatchedEvent) error

	// Remove is a no-op when the pair does not exist
	Remove(ctx context.Context, sessionID, eventID string) error

	// EventIDs returns the set of events watched by the session
	EventIDs(ctx context.Context, sessionID string) (map[string]struct{}, error)

	Count(ctx context.Context, sessionID string) (int, error)
}
