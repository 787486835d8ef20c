package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

var eventColumns = []interface{}{
	"id", "title", "description", "date_time", "location", "source_url",
	"platform", "category", "ai_relevance_score", "tags", "organizer",
	"event_type", "price", "max_attendees", "is_active", "created_at", "updated_at",
}

// EventAdapter implements EventRepository
type EventAdapter struct {
	client Client
	db     *goqu.Database
	now    func() time.Time
}

// NewEventAdapter creates a new event adapter
func NewEventAdapter(client Client) *EventAdapter {
	return &EventAdapter{
		client: client,
		db:     newGoqu(client),
		now:    time.Now,
	}
}

var _ repositories.EventRepository = (*EventAdapter)(nil)

// Upsert stores event or refreshes the matching row. A concurrent insert of
// the same identity surfaces as a unique violation and is retried once as a
// refresh.
func (a *EventAdapter) Upsert(ctx context.Context, event *entities.Event) (*entities.Event, entities.UpsertStatus, error) {
	event.DateTime = utc(event.DateTime)

	stored, status, err := a.upsertTx(ctx, event)
	if err != nil && isUniqueViolation(err) {
		stored, status, err = a.upsertTx(ctx, event)
	}
	if err != nil {
		return nil, "", apperrors.NewInternalError("failed to upsert event", err)
	}
	return stored, status, nil
}

func (a *EventAdapter) upsertTx(ctx context.Context, event *entities.Event) (*entities.Event, entities.UpsertStatus, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}

	var (
		stored *entities.Event
		status entities.UpsertStatus
	)
	err = tx.Wrap(func() error {
		query, args, err := tx.From(tableEvents).Prepared(true).
			Select(eventColumns...).
			Where(goqu.Ex{
				"title":     event.Title,
				"date_time": event.DateTime,
				"platform":  string(event.Platform),
			}).
			Limit(1).
			ToSQL()
		if err != nil {
			return err
		}

		existing, err := scanEvent(tx.QueryRowContext(ctx, query, args...))
		switch {
		case err == nil:
			stored, status = existing, entities.UpsertUpdated
			return a.refresh(ctx, tx, existing, event.AIRelevanceScore)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		stored, status = event, entities.UpsertCreated
		return a.insert(ctx, tx, event)
	})
	if err != nil {
		return nil, "", err
	}
	return stored, status, nil
}

func (a *EventAdapter) refresh(ctx context.Context, tx *goqu.TxDatabase, existing *entities.Event, score int) error {
	now := utc(a.now())
	query, args, err := tx.Update(tableEvents).Prepared(true).
		Set(goqu.Record{
			"ai_relevance_score": score,
			"updated_at":         now,
		}).
		Where(goqu.C("id").Eq(existing.ID)).
		ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	existing.AIRelevanceScore = score
	existing.UpdatedAt = now
	return nil
}

func (a *EventAdapter) insert(ctx context.Context, tx *goqu.TxDatabase, event *entities.Event) error {
	now := utc(a.now())
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Tags == nil {
		event.Tags = []string{}
	}
	event.IsActive = true
	event.CreatedAt = now
	event.UpdatedAt = now

	tags, err := marshalJSONColumn(event.Tags)
	if err != nil {
		return err
	}

	var maxAttendees sql.NullInt64
	if event.MaxAttendees != nil {
		maxAttendees = sql.NullInt64{Int64: int64(*event.MaxAttendees), Valid: true}
	}

	query, args, err := tx.Insert(tableEvents).Prepared(true).Rows(goqu.Record{
		"id":                 event.ID,
		"title":              event.Title,
		"description":        event.Description,
		"date_time":          event.DateTime,
		"location":           event.Location,
		"source_url":         event.SourceURL,
		"platform":           string(event.Platform),
		"category":           string(event.Category),
		"ai_relevance_score": event.AIRelevanceScore,
		"tags":               tags,
		"organizer":          event.Organizer,
		"event_type":         string(event.EventType),
		"price":              event.Price,
		"max_attendees":      maxAttendees,
		"is_active":          event.IsActive,
		"created_at":         event.CreatedAt,
		"updated_at":         event.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves an event by ID
func (a *EventAdapter) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	query, args, err := a.db.From(tableEvents).Prepared(true).
		Select(eventColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	event, err := scanEvent(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get event", err)
	}
	return event, nil
}

// likeEscaper makes a user-supplied substring match literally inside LIKE
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ListForMonth retrieves active events for a month window
func (a *EventAdapter) ListForMonth(ctx context.Context, filter repositories.MonthFilter) ([]*entities.Event, error) {
	where := []exp.Expression{
		goqu.C("is_active").IsTrue(),
		goqu.C("date_time").Gte(utc(filter.From)),
		goqu.C("date_time").Lt(utc(filter.To)),
		goqu.C("ai_relevance_score").Gte(filter.MinRelevanceScore),
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(loc)) + "%"
		where = append(where, goqu.L(`LOWER("location") LIKE ? ESCAPE '\'`, pattern))
	}
	if filter.Category != "" {
		where = append(where, goqu.C("category").Eq(string(filter.Category)))
	}

	query, args, err := a.db.From(tableEvents).Prepared(true).
		Select(eventColumns...).
		Where(where...).
		Order(goqu.C("date_time").Asc(), goqu.C("ai_relevance_score").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list events", err)
	}
	defer rows.Close()

	events := make([]*entities.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate events", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*entities.Event, error) {
	var (
		event                         entities.Event
		platform, category, eventType string
		tags                          string
		maxAttendees                  sql.NullInt64
	)
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.DateTime,
		&event.Location,
		&event.SourceURL,
		&platform,
		&category,
		&event.AIRelevanceScore,
		&tags,
		&event.Organizer,
		&eventType,
		&event.Price,
		&maxAttendees,
		&event.IsActive,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Platform = entities.Platform(platform)
	event.Category = entities.Category(category)
	event.EventType = entities.EventType(eventType)
	event.DateTime = utc(event.DateTime)
	event.CreatedAt = utc(event.CreatedAt)
	event.UpdatedAt = utc(event.UpdatedAt)
	if maxAttendees.Valid {
		n := int(maxAttendees.Int64)
		event.MaxAttendees = &n
	}
	if err := json.Unmarshal([]byte(tags), &event.Tags); err != nil || event.Tags == nil {
		event.Tags = []string{}
	}
	return &event, nil
}
