package gomart_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/w0rng/gomart"
	"github.com/w0rng/gomart/internal/catalogtest"
)

func sampleTable(name string, rows ...[]any) gomart.Table {
	return gomart.Table{
		Name: name,
		Schema: []gomart.Column{
			{Name: "id", Type: gomart.Int},
			{Name: "score", Type: gomart.Float, Nullable: true},
			{Name: "label", Type: gomart.String},
		},
		Rows: rows,
	}
}

func TestMemoryCatalog_CreateGet(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	defer c.Close()
	ctx := context.Background()

	in := sampleTable("scores", []any{int64(1), 0.5, "a"}, []any{int64(2), nil, "b"})
	if err := c.Create(ctx, in); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := c.Get(ctx, "scores")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("got %d rows, want 2", got.Len())
	}
	if v := got.Record(0).FloatOr("score", -1); v != 0.5 {
		t.Errorf("score: got %v, want 0.5", v)
	}
	if !got.Record(1).IsNull("score") {
		t.Error("expected null score in row 1")
	}
	if v := got.Record(1).StringOr("label", ""); v != "b" {
		t.Errorf("label: got %q, want %q", v, "b")
	}
}

func TestMemoryCatalog_CreateExisting(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	ctx := context.Background()

	if err := c.Create(ctx, sampleTable("t")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := c.Create(ctx, sampleTable("t"))
	if !errors.Is(err, gomart.ErrTableExists) {
		t.Errorf("expected ErrTableExists, got %v", err)
	}
}

func TestMemoryCatalog_GetMissing(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	_, err := c.Get(context.Background(), "nope")
	if !errors.Is(err, gomart.ErrTableNotFound) {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestMemoryCatalog_DropMissing(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	if err := c.Drop(context.Background(), "nope"); err != nil {
		t.Errorf("Drop of missing table failed: %v", err)
	}
}

func TestMemoryCatalog_CreateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		table gomart.Table
	}{
		{name: "bad name", table: sampleTable("drop table;")},
		{name: "short row", table: sampleTable("t", []any{int64(1)})},
		{name: "wrong type", table: sampleTable("t", []any{1.5, 0.5, "a"})},
		{name: "null in not null column", table: sampleTable("t", []any{nil, 0.5, "a"})},
		{name: "no columns", table: gomart.Table{Name: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := gomart.NewMemoryCatalog()
			err := c.Create(context.Background(), tt.table)
			if !errors.Is(err, gomart.ErrInvalidTable) {
				t.Errorf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}

func TestReplace(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	ctx := context.Background()

	first := sampleTable("t", []any{int64(1), 1.0, "old"}, []any{int64(2), 2.0, "old"})
	if err := gomart.Replace(ctx, c, first); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	second := sampleTable("t", []any{int64(3), 3.0, "new"})
	if err := gomart.Replace(ctx, c, second); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := c.Get(ctx, "t")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Len() != 1 || got.Record(0).StringOr("label", "") != "new" {
		t.Errorf("expected only the replacement row, got %v", got.Rows)
	}
}

func TestMemoryCatalog_Isolation(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	ctx := context.Background()

	in := sampleTable("t", []any{int64(1), 1.0, "a"})
	if err := c.Create(ctx, in); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	in.Rows[0][2] = "changed after create"

	got, _ := c.Get(ctx, "t")
	got.Rows[0][2] = "changed after get"

	again, _ := c.Get(ctx, "t")
	if v := again.Record(0).StringOr("label", ""); v != "a" {
		t.Errorf("stored row was mutated: got %q", v)
	}
}

func TestMemoryCatalog_ListStats(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := c.Create(ctx, sampleTable(name, []any{int64(1), nil, "x"}, []any{int64(2), nil, "y"})); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	names, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if want := []string{"alpha", "mid", "zeta"}; !slices.Equal(names, want) {
		t.Errorf("List: got %v, want %v", names, want)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Tables != 3 || stats.TotalRows != 6 {
		t.Errorf("Stats: got %+v, want 3 tables and 6 rows", stats)
	}
}

func TestMemoryCatalog_CanceledContext(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Create(ctx, sampleTable("t")); !errors.Is(err, context.Canceled) {
		t.Errorf("Create: expected context.Canceled, got %v", err)
	}
	if _, err := c.Get(ctx, "t"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get: expected context.Canceled, got %v", err)
	}
}

func TestMemoryCatalog_ConcurrentReplace(t *testing.T) {
	c := gomart.NewMemoryCatalog()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("t%d", i%4)
			if err := gomart.Replace(ctx, c, sampleTable(name, []any{int64(i), nil, "x"})); err != nil &&
				!errors.Is(err, gomart.ErrTableExists) {
				t.Errorf("Replace failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stats, _ := c.Stats(ctx)
	if stats.Tables != 4 {
		t.Errorf("got %d tables, want 4", stats.Tables)
	}
}

func TestMemoryCatalog_Contract(t *testing.T) {
	catalogtest.Run(t, func(t *testing.T) gomart.Catalog {
		return gomart.NewMemoryCatalog()
	})
}
