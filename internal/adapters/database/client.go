package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Client is the connection an adapter runs against
type Client interface {
	DB() *sql.DB
	Dialect() string
}

// Table names
const (
	tableEvents        = "events"
	tableSessions      = "user_sessions"
	tableWatchedEvents = "watched_events"
	tableDiscoveryLogs = "event_discovery_logs"
	tableUsageLogs     = "api_usage_logs"
)

func newGoqu(client Client) *goqu.Database {
	return goqu.New(client.Dialect(), client.DB())
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint in either supported driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// utc normalizes timestamps before they are bound or after they are scanned.
// Stored instants are second precision so identity comparisons are stable.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func marshalJSONColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
