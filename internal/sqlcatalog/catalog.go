// Package sqlcatalog implements gomart.Catalog on top of database/sql.
//
// Each table is stored as a SQL table with a hidden "_row" column keeping
// row order. Column types live in the gomart_columns metadata table so Get
// can rebuild the schema exactly.
package sqlcatalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/w0rng/gomart"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	// Placeholder returns the bind parameter for the n-th argument, 1-based.
	Placeholder func(n int) string
	// ColumnType maps a gomart column type to a SQL type.
	ColumnType func(t gomart.ColumnType) string
}

const metaDDL = `
CREATE TABLE IF NOT EXISTS gomart_columns (
	table_name  TEXT    NOT NULL,
	ordinal     INTEGER NOT NULL,
	column_name TEXT    NOT NULL,
	column_type TEXT    NOT NULL,
	nullable    INTEGER NOT NULL,
	PRIMARY KEY (table_name, ordinal)
)`

type Catalog struct {
	db      *sql.DB
	dialect Dialect
}

// New creates the metadata table if needed. The catalog owns db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Catalog, error) {
	if _, err := db.ExecContext(ctx, metaDDL); err != nil {
		return nil, errors.Wrap(err, "create metadata table")
	}
	return &Catalog{db: db, dialect: dialect}, nil
}

func quote(ident string) string { return `"` + ident + `"` }

func (c *Catalog) ph(n int) string { return c.dialect.Placeholder(n) }

func (c *Catalog) Drop(ctx context.Context, name string) error {
	if !gomart.ValidName(name) {
		return errors.Wrapf(gomart.ErrInvalidTable, "bad name %q", name)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return errors.Wrap(err, "drop table")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM gomart_columns WHERE table_name = "+c.ph(1), name); err != nil {
		return errors.Wrap(err, "delete metadata")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (c *Catalog) Create(ctx context.Context, t gomart.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM gomart_columns WHERE table_name = "+c.ph(1), t.Name).Scan(&n)
	if err != nil {
		return errors.Wrap(err, "check table")
	}
	if n > 0 {
		return errors.Wrap(gomart.ErrTableExists, t.Name)
	}

	defs := make([]string, 0, len(t.Schema)+1)
	defs = append(defs, quote("_row")+" BIGINT NOT NULL")
	for _, col := range t.Schema {
		def := quote(col.Name) + " " + c.dialect.ColumnType(col.Type)
		if !col.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quote(t.Name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "create table")
	}

	meta := fmt.Sprintf("INSERT INTO gomart_columns (table_name, ordinal, column_name, column_type, nullable) VALUES (%s, %s, %s, %s, %s)",
		c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5))
	for i, col := range t.Schema {
		nullable := 0
		if col.Nullable {
			nullable = 1
		}
		if _, err := tx.ExecContext(ctx, meta, t.Name, i, col.Name, col.Type.String(), nullable); err != nil {
			return errors.Wrap(err, "insert metadata")
		}
	}

	cols := make([]string, 0, len(t.Schema)+1)
	marks := make([]string, 0, len(t.Schema)+1)
	cols = append(cols, quote("_row"))
	marks = append(marks, c.ph(1))
	for i, col := range t.Schema {
		cols = append(cols, quote(col.Name))
		marks = append(marks, c.ph(i+2))
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	args := make([]any, len(t.Schema)+1)
	for i, row := range t.Rows {
		args[0] = int64(i)
		copy(args[1:], row)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "insert row %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (c *Catalog) schema(ctx context.Context, name string) ([]gomart.Column, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT column_name, column_type, nullable FROM gomart_columns WHERE table_name = "+c.ph(1)+" ORDER BY ordinal", name)
	if err != nil {
		return nil, errors.Wrap(err, "query metadata")
	}
	defer rows.Close()

	var schema []gomart.Column
	for rows.Next() {
		var (
			col      gomart.Column
			typ      string
			nullable int
		)
		if err := rows.Scan(&col.Name, &typ, &nullable); err != nil {
			return nil, errors.Wrap(err, "scan metadata")
		}
		if col.Type, err = gomart.ParseColumnType(typ); err != nil {
			return nil, err
		}
		col.Nullable = nullable == 1
		schema = append(schema, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	return schema, nil
}

func (c *Catalog) Get(ctx context.Context, name string) (gomart.Table, error) {
	if !gomart.ValidName(name) {
		return gomart.Table{}, errors.Wrapf(gomart.ErrInvalidTable, "bad name %q", name)
	}

	schema, err := c.schema(ctx, name)
	if err != nil {
		return gomart.Table{}, err
	}
	if len(schema) == 0 {
		return gomart.Table{}, errors.Wrap(gomart.ErrTableNotFound, name)
	}

	cols := make([]string, len(schema))
	for i, col := range schema {
		cols[i] = quote(col.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(cols, ", "), quote(name), quote("_row"))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return gomart.Table{}, errors.Wrap(err, "query table")
	}
	defer rows.Close()

	t := gomart.Table{Name: name, Schema: schema}
	for rows.Next() {
		dest := make([]any, len(schema))
		for i, col := range schema {
			switch col.Type {
			case gomart.Int:
				dest[i] = new(sql.NullInt64)
			case gomart.Float:
				dest[i] = new(sql.NullFloat64)
			default:
				dest[i] = new(sql.NullString)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return gomart.Table{}, errors.Wrap(err, "scan row")
		}
		row := make([]any, len(schema))
		for i, d := range dest {
			row[i] = fromNull(d)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return gomart.Table{}, errors.Wrap(err, "read rows")
	}
	return t, nil
}

func fromNull(d any) any {
	switch v := d.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}

func (c *Catalog) List(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT DISTINCT table_name FROM gomart_columns ORDER BY table_name")
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan table name")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "read table names")
}

func (c *Catalog) Stats(ctx context.Context) (gomart.CatalogStats, error) {
	names, err := c.List(ctx)
	if err != nil {
		return gomart.CatalogStats{}, err
	}

	stats := gomart.CatalogStats{Tables: len(names)}
	for _, name := range names {
		var n int64
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(name)).Scan(&n); err != nil {
			return gomart.CatalogStats{}, errors.Wrapf(err, "count %s", name)
		}
		stats.TotalRows += n
	}
	return stats, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

var _ gomart.Catalog = (*Catalog)(nil)
