package gomart

import (
	"database/sql"
	"fmt"
	"regexp"
)

// ColumnType is the storage type of a table column.
type ColumnType int

const (
	Int ColumnType = iota
	Float
	String
)

func (t ColumnType) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType is the inverse of ColumnType.String.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "string":
		return String, nil
	}
	return 0, fmt.Errorf("gomart: unknown column type %q", s)
}

type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table is a named, materialized relation. Row values are int64, float64,
// string or nil for null, matching the column types of Schema.
type Table struct {
	Name   string
	Schema []Column
	Rows   [][]any
}

// Row is implemented by every typed stage output.
type Row interface {
	Values() []any
}

// NewTable converts typed rows into a Table.
func NewTable[R Row](name string, schema []Column, rows []R) Table {
	t := Table{Name: name, Schema: schema, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		t.Rows[i] = r.Values()
	}
	return t
}

func (t Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column.
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Schema {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Record returns an accessor for row i.
func (t Table) Record(i int) Record {
	return Record{schema: t.Schema, values: t.Rows[i]}
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name is usable as a table or column identifier.
func ValidName(name string) bool { return tableNameRe.MatchString(name) }

// Validate checks the table name and that every value matches its column.
func (t Table) Validate() error {
	if !tableNameRe.MatchString(t.Name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidTable, t.Name)
	}
	if len(t.Schema) == 0 {
		return fmt.Errorf("%w: %s has no columns", ErrInvalidTable, t.Name)
	}
	seen := make(map[string]struct{}, len(t.Schema))
	for _, c := range t.Schema {
		if !tableNameRe.MatchString(c.Name) {
			return fmt.Errorf("%w: bad column name %q", ErrInvalidTable, c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidTable, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Schema) {
			return fmt.Errorf("%w: %s row %d has %d values, want %d", ErrInvalidTable, t.Name, i, len(row), len(t.Schema))
		}
		for j, v := range row {
			if err := checkValue(t.Schema[j], v); err != nil {
				return fmt.Errorf("%w: %s row %d: %v", ErrInvalidTable, t.Name, i, err)
			}
		}
	}
	return nil
}

func checkValue(c Column, v any) error {
	if v == nil {
		if !c.Nullable {
			return fmt.Errorf("column %q is not nullable", c.Name)
		}
		return nil
	}
	var ok bool
	switch c.Type {
	case Int:
		_, ok = v.(int64)
	case Float:
		_, ok = v.(float64)
	case String:
		_, ok = v.(string)
	}
	if !ok {
		return fmt.Errorf("column %q: expected %s, got %T", c.Name, c.Type, v)
	}
	return nil
}

// Clone copies the row slices so the result shares no backing arrays with t.
func (t Table) Clone() Table {
	c := Table{Name: t.Name, Schema: append([]Column(nil), t.Schema...), Rows: make([][]any, len(t.Rows))}
	for i, r := range t.Rows {
		c.Rows[i] = append([]any(nil), r...)
	}
	return c
}

func nullable(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

// Record gives typed access to one table row by column name.
type Record struct {
	schema []Column
	values []any
}

func (r Record) lookup(name string) (any, error) {
	for i, c := range r.schema {
		if c.Name == name {
			return r.values[i], nil
		}
	}
	return nil, fmt.Errorf("column %q not found", name)
}

func (r Record) Int(name string) (int64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("column %q: expected int64, got %T", name, v)
	}
	return i, nil
}

func (r Record) IntOr(name string, defaultValue int64) int64 {
	v, err := r.Int(name)
	if err != nil {
		return defaultValue
	}
	return v
}

func (r Record) Float(name string) (float64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("column %q: expected float64, got %T", name, v)
	}
	return f, nil
}

func (r Record) FloatOr(name string, defaultValue float64) float64 {
	v, err := r.Float(name)
	if err != nil {
		return defaultValue
	}
	return v
}

func (r Record) String(name string) (string, error) {
	v, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("column %q: expected string, got %T", name, v)
	}
	return s, nil
}

func (r Record) StringOr(name, defaultValue string) string {
	v, err := r.String(name)
	if err != nil {
		return defaultValue
	}
	return v
}

// IsNull reports whether the column exists and holds null.
func (r Record) IsNull(name string) bool {
	v, err := r.lookup(name)
	return err == nil && v == nil
}

func (r Record) Any(name string) (any, bool) {
	v, err := r.lookup(name)
	return v, err == nil
}

func (r Record) All() map[string]any {
	m := make(map[string]any, len(r.schema))
	for i, c := range r.schema {
		m[c.Name] = r.values[i]
	}
	return m
}
