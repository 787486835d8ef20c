package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Dialect is the goqu dialect name for this client
const Dialect = "sqlite3"

// Client is a single-file SQLite database. The pool holds one connection so
// that in-memory databases are shared and writers never contend.
type Client struct {
	db *sql.DB
}

// NewClient opens the database at dsn. Use ":memory:" for a throwaway store.
func NewClient(ctx context.Context, dsn string) (*Client, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	log.Info().Str("dsn", dsn).Msg("Opened SQLite database")
	return &Client{db: db}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the SQL dialect of the database
func (c *Client) Dialect() string {
	return Dialect
}

// Close closes the database
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
