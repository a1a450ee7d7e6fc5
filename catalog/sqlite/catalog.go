// Package sqlite provides an on-disk gomart.Catalog backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/w0rng/gomart"
	"github.com/w0rng/gomart/internal/sqlcatalog"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"
)

type Config struct {
	// Path to the SQLite database file
	Path string

	// BusyTimeout is the timeout for acquiring locks in milliseconds
	BusyTimeout int

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string
}

var dialect = sqlcatalog.Dialect{
	Placeholder: func(int) string { return "?" },
	ColumnType: func(t gomart.ColumnType) string {
		switch t {
		case gomart.Int:
			return "INTEGER"
		case gomart.Float:
			return "REAL"
		}
		return "TEXT"
	},
}

// Open opens or creates the database at cfg.Path.
func Open(ctx context.Context, cfg Config) (*sqlcatalog.Catalog, error) {
	if cfg.Path == "" {
		cfg.Path = "gomart.db"
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5000
	}
	if cfg.JournalMode == "" {
		cfg.JournalMode = "WAL"
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)",
		cfg.Path, cfg.BusyTimeout, cfg.JournalMode)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Stages materialize concurrently, SQLite takes one writer at a time.
	db.SetMaxOpenConns(1)

	c, err := sqlcatalog.New(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	return c, nil
}
