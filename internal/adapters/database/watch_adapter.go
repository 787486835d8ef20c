package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

// WatchAdapter implements WatchRepository
type WatchAdapter struct {
	client Client
	db     *goqu.Database
}

// NewWatchAdapter creates a new watch adapter
func NewWatchAdapter(client Client) *WatchAdapter {
	return &WatchAdapter{client: client, db: newGoqu(client)}
}

var _ repositories.WatchRepository = (*WatchAdapter)(nil)

// Add records that the session watches the event
func (a *WatchAdapter) Add(ctx context.Context, watch *entities.WatchedEvent) error {
	var rating sql.NullInt64
	if watch.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*watch.Rating), Valid: true}
	}

	query, args, err := a.db.Insert(tableWatchedEvents).Prepared(true).
		Rows(goqu.Record{
			"session_id": watch.SessionID,
			"event_id":   watch.EventID,
			"watched_at": utc(watch.WatchedAt),
			"rating":     rating,
			"notes":      nullString(watch.Notes),
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to watch event", err)
	}
	return nil
}

// Remove deletes the watch row if there is one
func (a *WatchAdapter) Remove(ctx context.Context, sessionID, eventID string) error {
	query, args, err := a.db.Delete(tableWatchedEvents).Prepared(true).
		Where(goqu.Ex{"session_id": sessionID, "event_id": eventID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to unwatch event", err)
	}
	return nil
}

// EventIDs returns the IDs of every event the session watches
func (a *WatchAdapter) EventIDs(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	query, args, err := a.db.From(tableWatchedEvents).Prepared(true).
		Select("event_id").
		Where(goqu.C("session_id").Eq(sessionID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list watched events", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan watched event", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate watched events", err)
	}
	return ids, nil
}

// Count returns the number of events the session watches
func (a *WatchAdapter) Count(ctx context.Context, sessionID string) (int, error) {
	query, args, err := a.db.From(tableWatchedEvents).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.C("session_id").Eq(sessionID)).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count watched events", err)
	}
	return count, nil
}
