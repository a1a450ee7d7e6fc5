// Package postgres provides a gomart.Catalog backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/w0rng/gomart"
	"github.com/w0rng/gomart/internal/sqlcatalog"
)

var dialect = sqlcatalog.Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	ColumnType: func(t gomart.ColumnType) string {
		switch t {
		case gomart.Int:
			return "BIGINT"
		case gomart.Float:
			return "DOUBLE PRECISION"
		}
		return "TEXT"
	},
}

// Open connects to dsn and prepares the catalog metadata.
func Open(ctx context.Context, dsn string) (*sqlcatalog.Catalog, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return New(ctx, db)
}

// New wraps an existing connection pool. The catalog takes ownership of db.
func New(ctx context.Context, db *sql.DB) (*sqlcatalog.Catalog, error) {
	c, err := sqlcatalog.New(ctx, db, dialect)
	if err != nil {
		return nil, errors.Wrap(err, "init catalog")
	}
	return c, nil
}
