package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

// DefaultMinRelevanceScore is the month listing score floor
const DefaultMinRelevanceScore = 5

// MonthQuery selects the events shown for one month. Zero Month or Year
// default to the current date; a nil MinRelevanceScore defaults to the
// service floor, DefaultMinRelevanceScore unless configured.
type MonthQuery struct {
	SessionID         string
	Location          string
	Month             int
	Year              int
	Category          string
	MinRelevanceScore *int
}

// MonthEvents is a month listing annotated for one session
type MonthEvents struct {
	Events           []*entities.EventListing                       `json:"events"`
	EventsByCategory map[entities.Category][]*entities.EventListing `json:"eventsByCategory"`
	TotalEvents      int                                            `json:"totalEvents"`
	WatchedCount     int                                            `json:"watchedCount"`
	Month            int                                            `json:"month"`
	Year             int                                            `json:"year"`
}

// CategoryList is the set of values a client may filter on
type CategoryList struct {
	Categories []entities.Category `json:"categories"`
	Platforms  []entities.Platform `json:"platforms"`
}

// EventService handles event listing and watch-list business logic
type EventService struct {
	events   repositories.EventRepository
	watches  repositories.WatchRepository
	minScore int
	now      func() time.Time
}

// NewEventService creates a new event service
func NewEventService(events repositories.EventRepository, watches repositories.WatchRepository) *EventService {
	return &EventService{
		events:   events,
		watches:  watches,
		minScore: DefaultMinRelevanceScore,
		now:      time.Now,
	}
}

// WithMinRelevanceScore replaces the score floor used when a query sets none
func (s *EventService) WithMinRelevanceScore(score int) *EventService {
	if score >= 1 && score <= 10 {
		s.minScore = score
	}
	return s
}

// WithClock replaces the service clock
func (s *EventService) WithClock(now func() time.Time) *EventService {
	s.now = now
	return s
}

// GetEventsForMonth lists the active events of a month, marks the ones the
// session watches and groups them into every category bucket
func (s *EventService) GetEventsForMonth(ctx context.Context, q MonthQuery) (*MonthEvents, error) {
	now := s.now().UTC()
	month, year := q.Month, q.Year
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, apperrors.NewValidationError("month must be between 1 and 12")
	}

	minScore := s.minScore
	if q.MinRelevanceScore != nil {
		minScore = *q.MinRelevanceScore
	}

	from, to := entities.MonthWindow(year, month)
	filter := repositories.MonthFilter{
		From:              from,
		To:                to,
		MinRelevanceScore: minScore,
		Location:          q.Location,
	}
	if category, ok := entities.ParseCategory(q.Category); ok {
		filter.Category = category
	}

	events, err := s.events.ListForMonth(ctx, filter)
	if err != nil {
		log.Error().Err(err).Int("month", month).Int("year", year).Msg("Failed to list events for month")
		return nil, err
	}

	watched := map[string]struct{}{}
	if q.SessionID != "" {
		watched, err = s.watches.EventIDs(ctx, q.SessionID)
		if err != nil {
			return nil, err
		}
	}

	result := &MonthEvents{
		Events:           make([]*entities.EventListing, 0, len(events)),
		EventsByCategory: make(map[entities.Category][]*entities.EventListing, len(entities.Categories)),
		Month:            month,
		Year:             year,
	}
	for _, category := range entities.Categories {
		result.EventsByCategory[category] = []*entities.EventListing{}
	}

	for _, event := range events {
		_, isWatched := watched[event.ID]
		listing := &entities.EventListing{Event: *event, IsWatched: isWatched}
		result.Events = append(result.Events, listing)

		bucket := entities.NormalizeCategory(string(event.Category))
		result.EventsByCategory[bucket] = append(result.EventsByCategory[bucket], listing)
		if isWatched {
			result.WatchedCount++
		}
	}
	result.TotalEvents = len(result.Events)

	return result, nil
}

// MarkWatched adds the event to the session's watch list. Watching an
// already watched event succeeds without adding a second row.
func (s *EventService) MarkWatched(ctx context.Context, sessionID, eventID string) error {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return err
	}

	err := s.watches.Add(ctx, &entities.WatchedEvent{
		SessionID: sessionID,
		EventID:   eventID,
		WatchedAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	log.Info().Str("session_id", entities.ShortID(sessionID)).Str("event_id", eventID).Msg("Event marked as watched")
	return nil
}

// UnmarkWatched removes the event from the session's watch list
func (s *EventService) UnmarkWatched(ctx context.Context, sessionID, eventID string) error {
	if err := s.watches.Remove(ctx, sessionID, eventID); err != nil {
		return err
	}

	log.Info().Str("session_id", entities.ShortID(sessionID)).Str("event_id", eventID).Msg("Event unmarked as watched")
	return nil
}

// Categories returns the filterable categories and platforms
func (s *EventService) Categories() CategoryList {
	return CategoryList{
		Categories: entities.Categories,
		Platforms:  entities.Platforms,
	}
}
