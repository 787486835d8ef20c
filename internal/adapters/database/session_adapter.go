package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

// SessionAdapter implements SessionRepository
type SessionAdapter struct {
	client Client
	db     *goqu.Database
}

// NewSessionAdapter creates a new session adapter
func NewSessionAdapter(client Client) *SessionAdapter {
	return &SessionAdapter{client: client, db: newGoqu(client)}
}

var _ repositories.SessionRepository = (*SessionAdapter)(nil)

// Create inserts a new session
func (a *SessionAdapter) Create(ctx context.Context, session *entities.UserSession) error {
	prefs, err := marshalJSONColumn(session.Preferences)
	if err != nil {
		return apperrors.NewInternalError("failed to encode preferences", err)
	}

	query, args, err := a.db.Insert(tableSessions).Prepared(true).Rows(goqu.Record{
		"session_id":  session.SessionID,
		"created_at":  utc(session.CreatedAt),
		"last_active": utc(session.LastActive),
		"location":    session.Location,
		"preferences": prefs,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("session already exists", err)
		}
		return apperrors.NewInternalError("failed to create session", err)
	}
	return nil
}

// GetByID retrieves a session by its token
func (a *SessionAdapter) GetByID(ctx context.Context, id string) (*entities.UserSession, error) {
	query, args, err := a.db.From(tableSessions).Prepared(true).
		Select("session_id", "created_at", "last_active", "location", "preferences").
		Where(goqu.C("session_id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var (
		session entities.UserSession
		prefs   string
	)
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&session.SessionID,
		&session.CreatedAt,
		&session.LastActive,
		&session.Location,
		&prefs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("session %s not found", entities.ShortID(id)))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get session", err)
	}

	session.CreatedAt = session.CreatedAt.UTC()
	session.LastActive = session.LastActive.UTC()
	if err := json.Unmarshal([]byte(prefs), &session.Preferences); err != nil || session.Preferences == nil {
		session.Preferences = entities.Preferences{}
	}
	return &session, nil
}

// Touch refreshes last_active
func (a *SessionAdapter) Touch(ctx context.Context, id string, at time.Time) error {
	query, args, err := a.db.Update(tableSessions).Prepared(true).
		Set(goqu.Record{"last_active": utc(at)}).
		Where(goqu.C("session_id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to touch session", err)
	}
	return nil
}

// UpdatePreferences replaces the stored preference document
func (a *SessionAdapter) UpdatePreferences(ctx context.Context, id string, prefs entities.Preferences, location string) (bool, error) {
	encoded, err := marshalJSONColumn(prefs)
	if err != nil {
		return false, apperrors.NewInternalError("failed to encode preferences", err)
	}

	record := goqu.Record{"preferences": encoded}
	if location != "" {
		record["location"] = location
	}

	query, args, err := a.db.Update(tableSessions).Prepared(true).
		Set(record).
		Where(goqu.C("session_id").Eq(id)).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to update preferences", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// Delete removes a session together with its watch rows
func (a *SessionAdapter) Delete(ctx context.Context, id string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	err = tx.Wrap(func() error {
		if err := execDelete(ctx, tx, tx.Delete(tableWatchedEvents).Where(goqu.C("session_id").Eq(id))); err != nil {
			return err
		}
		return execDelete(ctx, tx, tx.Delete(tableSessions).Where(goqu.C("session_id").Eq(id)))
	})
	if err != nil {
		return apperrors.NewInternalError("failed to delete session", err)
	}
	return nil
}

// DeleteCreatedBefore purges sessions older than cutoff and their watch rows
func (a *SessionAdapter) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to begin transaction", err)
	}

	cutoff = utc(cutoff)
	var deleted int64
	err = tx.Wrap(func() error {
		expired := tx.From(tableSessions).Select("session_id").Where(goqu.C("created_at").Lt(cutoff))
		if err := execDelete(ctx, tx, tx.Delete(tableWatchedEvents).Where(goqu.C("session_id").In(expired))); err != nil {
			return err
		}

		query, args, err := tx.Delete(tableSessions).Prepared(true).Where(goqu.C("created_at").Lt(cutoff)).ToSQL()
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, apperrors.NewInternalError("failed to delete expired sessions", err)
	}
	return deleted, nil
}

func execDelete(ctx context.Context, tx *goqu.TxDatabase, ds *goqu.DeleteDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
