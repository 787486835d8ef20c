package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
)

// migration is one schema step. DDL placeholders {{TS}} and {{FLOAT}} are
// replaced with the dialect's timestamp and floating point column types.
type migration struct {
	Version    int
	Name       string
	Statements []string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS events (
				id                 TEXT PRIMARY KEY,
				title              TEXT NOT NULL,
				description        TEXT NOT NULL DEFAULT '',
				date_time          {{TS}} NOT NULL,
				location           TEXT NOT NULL DEFAULT 'Online',
				source_url         TEXT NOT NULL DEFAULT '',
				platform           TEXT NOT NULL,
				category           TEXT NOT NULL DEFAULT 'Other',
				ai_relevance_score INTEGER NOT NULL DEFAULT 5,
				tags               TEXT NOT NULL DEFAULT '[]',
				organizer          TEXT NOT NULL DEFAULT '',
				event_type         TEXT NOT NULL DEFAULT 'unknown',
				price              {{FLOAT}} NOT NULL DEFAULT 0,
				max_attendees      INTEGER,
				is_active          BOOLEAN NOT NULL DEFAULT TRUE,
				created_at         {{TS}} NOT NULL,
				updated_at         {{TS}} NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_identity ON events (title, date_time, platform)`,
			`CREATE INDEX IF NOT EXISTS idx_events_date_time ON events (date_time)`,
			`CREATE TABLE IF NOT EXISTS user_sessions (
				session_id  TEXT PRIMARY KEY,
				created_at  {{TS}} NOT NULL,
				last_active {{TS}} NOT NULL,
				location    TEXT NOT NULL DEFAULT 'Online',
				preferences TEXT NOT NULL DEFAULT '{}'
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_sessions_created_at ON user_sessions (created_at)`,
			`CREATE TABLE IF NOT EXISTS watched_events (
				session_id TEXT NOT NULL REFERENCES user_sessions (session_id) ON DELETE CASCADE,
				event_id   TEXT NOT NULL REFERENCES events (id),
				watched_at {{TS}} NOT NULL,
				rating     INTEGER,
				notes      TEXT,
				PRIMARY KEY (session_id, event_id)
			)`,
			`CREATE TABLE IF NOT EXISTS event_discovery_logs (
				id                TEXT PRIMARY KEY,
				search_query      TEXT NOT NULL,
				platform          TEXT NOT NULL,
				location          TEXT NOT NULL,
				events_found      INTEGER NOT NULL DEFAULT 0,
				events_classified INTEGER NOT NULL DEFAULT 0,
				execution_time    {{FLOAT}} NOT NULL DEFAULT 0,
				success           BOOLEAN NOT NULL DEFAULT TRUE,
				error_message     TEXT NOT NULL DEFAULT '',
				created_at        {{TS}} NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_discovery_logs_created_at ON event_discovery_logs (created_at)`,
			`CREATE TABLE IF NOT EXISTS api_usage_logs (
				id              TEXT PRIMARY KEY,
				endpoint        TEXT NOT NULL,
				method          TEXT NOT NULL,
				session_id      TEXT,
				request_data    TEXT,
				response_status INTEGER NOT NULL,
				response_time   {{FLOAT}} NOT NULL,
				"timestamp"     {{TS}} NOT NULL
			)`,
		},
	},
}

// MigrationRunner applies pending schema migrations
type MigrationRunner struct {
	client Client
	db     *goqu.Database
}

// NewMigrationRunner creates a runner for client's dialect
func NewMigrationRunner(client Client) *MigrationRunner {
	return &MigrationRunner{client: client, db: newGoqu(client)}
}

// Run creates schema_migrations if needed and applies each unrecorded migration
// in its own transaction. Running it again is a no-op.
func (r *MigrationRunner) Run(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at %s NOT NULL
	)`, r.timestampType())
	if _, err := r.client.DB().ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := r.isApplied(ctx, m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applied schema migration")
	}
	return nil
}

func (r *MigrationRunner) isApplied(ctx context.Context, version int) (bool, error) {
	query, args, err := r.db.From("schema_migrations").Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.C("version").Eq(version)).
		ToSQL()
	if err != nil {
		return false, err
	}
	var count int
	if err := r.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MigrationRunner) apply(ctx context.Context, m migration) error {
	tx, err := r.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, r.render(stmt)); err != nil {
			return err
		}
	}

	query, args, err := r.db.Insert("schema_migrations").Prepared(true).Rows(goqu.Record{
		"version":    m.Version,
		"name":       m.Name,
		"applied_at": utc(time.Now()),
	}).ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MigrationRunner) render(stmt string) string {
	return strings.NewReplacer(
		"{{TS}}", r.timestampType(),
		"{{FLOAT}}", r.floatType(),
	).Replace(stmt)
}

func (r *MigrationRunner) timestampType() string {
	if r.client.Dialect() == "postgres" {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

func (r *MigrationRunner) floatType() string {
	if r.client.Dialect() == "postgres" {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

// Migrate is a convenience wrapper used at startup
func Migrate(ctx context.Context, client Client) error {
	return NewMigrationRunner(client).Run(ctx)
}
