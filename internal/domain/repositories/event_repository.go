package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
)

// MonthFilter selects active events inside [From, To)
type MonthFilter struct {
	From              time.Time
	To                time.Time
	MinRelevanceScore int
	// Location is matched as a case-insensitive substring when non-empty
	Location string
	// Category is matched exactly when non-empty
	Category entities.Category
}

// EventRepository defines the interface for event persistence
type EventRepository interface {
	// Upsert inserts event unless an event with the same title, date_time
	// and platform exists, in which case only the score and updated_at of
	// the stored row change. The returned event is the stored row.
	Upsert(ctx context.Context, event *entities.Event) (*entities.Event, entities.UpsertStatus, error)

	// GetByID retrieves an event by ID regardless of is_active
	GetByID(ctx context.Context, id string) (*entities.Event, error)

	// ListForMonth returns matching events ordered by date_time ascending,
	// then ai_relevance_score descending
	ListForMonth(ctx context.Context, filter MonthFilter) ([]*entities.Event, error)
}
