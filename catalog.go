package gomart

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Catalog is the interface for named table storage.
type Catalog interface {
	// Drop removes a table. Dropping a missing table is not an error.
	Drop(ctx context.Context, name string) error

	// Create materializes t. Returns ErrTableExists if the name is taken.
	Create(ctx context.Context, t Table) error

	// Get returns a table by name or ErrTableNotFound.
	Get(ctx context.Context, name string) (Table, error)

	// List returns table names in lexical order.
	List(ctx context.Context) ([]string, error)

	// Stats returns catalog statistics.
	Stats(ctx context.Context) (CatalogStats, error)

	// Close closes the catalog.
	Close() error
}

type CatalogStats struct {
	Tables    int
	TotalRows int64
}

// Replace drops any table named t.Name and creates t in its place.
func Replace(ctx context.Context, c Catalog, t Table) error {
	if err := c.Drop(ctx, t.Name); err != nil {
		return fmt.Errorf("drop %s: %w", t.Name, err)
	}
	if err := c.Create(ctx, t); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}
	return nil
}

// memoryCatalog is an in-memory implementation of Catalog.
type memoryCatalog struct {
	mu     sync.RWMutex
	tables map[string]Table
}

func NewMemoryCatalog() Catalog {
	return &memoryCatalog{tables: make(map[string]Table)}
}

func (c *memoryCatalog) Drop(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tables, name)
	return nil
}

func (c *memoryCatalog) Create(ctx context.Context, t Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}

	// Copy outside the lock, tables can be large
	t = t.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, t.Name)
	}
	c.tables[t.Name] = t
	return nil
}

func (c *memoryCatalog) Get(ctx context.Context, name string) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	c.mu.RLock()
	t, ok := c.tables[name]
	c.mu.RUnlock()

	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t.Clone(), nil
}

func (c *memoryCatalog) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	c.mu.RUnlock()

	slices.Sort(names)
	return names, nil
}

func (c *memoryCatalog) Stats(ctx context.Context) (CatalogStats, error) {
	if err := ctx.Err(); err != nil {
		return CatalogStats{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, t := range c.tables {
		total += int64(len(t.Rows))
	}

	return CatalogStats{
		Tables:    len(c.tables),
		TotalRows: total,
	}, nil
}

func (c *memoryCatalog) Close() error {
	return nil
}
