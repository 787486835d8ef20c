package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/entities"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ai-event-scanner/backend/pkg/errors"
)

// DiscoveryLogAdapter implements DiscoveryLogRepository
type DiscoveryLogAdapter struct {
	client Client
	db     *goqu.Database
	sqlx   *sqlx.DB
}

// NewDiscoveryLogAdapter creates a new discovery log adapter
func NewDiscoveryLogAdapter(client Client) *DiscoveryLogAdapter {
	return &DiscoveryLogAdapter{
		client: client,
		db:     newGoqu(client),
		sqlx:   sqlx.NewDb(client.DB(), client.Dialect()),
	}
}

var _ repositories.DiscoveryLogRepository = (*DiscoveryLogAdapter)(nil)

// Create appends a discovery log row
func (a *DiscoveryLogAdapter) Create(ctx context.Context, log *entities.EventDiscoveryLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	log.CreatedAt = utc(log.CreatedAt)

	query, args, err := a.db.Insert(tableDiscoveryLogs).Prepared(true).Rows(goqu.Record{
		"id":                log.ID,
		"search_query":      log.SearchQuery,
		"platform":          log.Platform,
		"location":          log.Location,
		"events_found":      log.EventsFound,
		"events_classified": log.EventsClassified,
		"execution_time":    log.ExecutionTime,
		"success":           log.Success,
		"error_message":     log.ErrorMessage,
		"created_at":        log.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create discovery log", err)
	}
	return nil
}

// ListRecent returns the newest discovery logs
func (a *DiscoveryLogAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.EventDiscoveryLog, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := a.db.From(tableDiscoveryLogs).Prepared(true).
		Select("id", "search_query", "platform", "location", "events_found",
			"events_classified", "execution_time", "success", "error_message", "created_at").
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	logs := make([]*entities.EventDiscoveryLog, 0, limit)
	if err := a.sqlx.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list discovery logs", err)
	}
	for _, l := range logs {
		l.CreatedAt = l.CreatedAt.UTC()
	}
	return logs, nil
}

// UsageLogAdapter implements UsageLogRepository
type UsageLogAdapter struct {
	client Client
	db     *goqu.Database
}

// NewUsageLogAdapter creates a new usage log adapter
func NewUsageLogAdapter(client Client) *UsageLogAdapter {
	return &UsageLogAdapter{client: client, db: newGoqu(client)}
}

var _ repositories.UsageLogRepository = (*UsageLogAdapter)(nil)

// Create appends an API usage row
func (a *UsageLogAdapter) Create(ctx context.Context, log *entities.APIUsageLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	var requestData sql.NullString
	if len(log.RequestData) > 0 {
		requestData = sql.NullString{String: string(log.RequestData), Valid: true}
	}

	query, args, err := a.db.Insert(tableUsageLogs).Prepared(true).Rows(goqu.Record{
		"id":              log.ID,
		"endpoint":        log.Endpoint,
		"method":          log.Method,
		"session_id":      nullString(log.SessionID),
		"request_data":    requestData,
		"response_status": log.ResponseStatus,
		"response_time":   log.ResponseTime,
		"timestamp":       utc(log.Timestamp),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create usage log", err)
	}
	return nil
}
