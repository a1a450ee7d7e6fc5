// Package catalogtest holds behavior tests shared by every gomart.Catalog
// implementation.
package catalogtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w0rng/gomart"
)

// Table returns a table exercising every column type and a null.
func Table(name string) gomart.Table {
	return gomart.Table{
		Name: name,
		Schema: []gomart.Column{
			{Name: "user_id", Type: gomart.Int},
			{Name: "ratio", Type: gomart.Float, Nullable: true},
			{Name: "eval_set", Type: gomart.String},
		},
		Rows: [][]any{
			{int64(3), 0.25, "train"},
			{int64(1), nil, "test"},
			{int64(2), 1.0 / 3.0, "train"},
		},
	}
}

// Run tests the Catalog contract against catalogs created by open. Each
// subtest gets a fresh catalog.
func Run(t *testing.T, open func(t *testing.T) gomart.Catalog) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) {
		c := open(t)
		ctx := context.Background()
		in := Table("mart")

		require.NoError(t, c.Create(ctx, in))
		got, err := c.Get(ctx, "mart")
		require.NoError(t, err)

		assert.Equal(t, in.Schema, got.Schema)
		assert.Equal(t, in.Rows, got.Rows, "rows must come back in insert order")
	})

	t.Run("create existing", func(t *testing.T) {
		c := open(t)
		ctx := context.Background()

		require.NoError(t, c.Create(ctx, Table("mart")))
		assert.ErrorIs(t, c.Create(ctx, Table("mart")), gomart.ErrTableExists)
	})

	t.Run("get missing", func(t *testing.T) {
		c := open(t)
		_, err := c.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, gomart.ErrTableNotFound)
	})

	t.Run("drop missing", func(t *testing.T) {
		c := open(t)
		assert.NoError(t, c.Drop(context.Background(), "missing"))
	})

	t.Run("invalid table", func(t *testing.T) {
		c := open(t)
		bad := Table("mart")
		bad.Rows = append(bad.Rows, []any{nil, 1.0, "x"})
		assert.ErrorIs(t, c.Create(context.Background(), bad), gomart.ErrInvalidTable)

		_, err := c.Get(context.Background(), "mart")
		assert.ErrorIs(t, err, gomart.ErrTableNotFound, "failed create must leave nothing behind")
	})

	t.Run("replace", func(t *testing.T) {
		c := open(t)
		ctx := context.Background()

		require.NoError(t, gomart.Replace(ctx, c, Table("mart")))
		next := Table("mart")
		next.Rows = next.Rows[:1]
		require.NoError(t, gomart.Replace(ctx, c, next))

		got, err := c.Get(ctx, "mart")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Len())
	})

	t.Run("empty table keeps schema", func(t *testing.T) {
		c := open(t)
		ctx := context.Background()
		in := Table("empty")
		in.Rows = nil

		require.NoError(t, c.Create(ctx, in))
		got, err := c.Get(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, in.Schema, got.Schema)
		assert.Equal(t, 0, got.Len())
	})

	t.Run("list and stats", func(t *testing.T) {
		c := open(t)
		ctx := context.Background()

		for _, name := range []string{"up_mart", "data_mart", "prd_mart"} {
			require.NoError(t, c.Create(ctx, Table(name)))
		}
		require.NoError(t, c.Drop(ctx, "prd_mart"))

		names, err := c.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"data_mart", "up_mart"}, names)

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, gomart.CatalogStats{Tables: 2, TotalRows: 6}, stats)
	})

	t.Run("pipeline run", func(t *testing.T) {
		c := open(t)
		p := gomart.New(gomart.Config{Catalog: c})
		in := gomart.Inputs{
			Orders: []gomart.Order{
				{OrderID: 1, UserID: 1, EvalSet: gomart.Prior, OrderNumber: 1},
				{OrderID: 2, UserID: 1, EvalSet: gomart.Train, OrderNumber: 2},
			},
			Priors:   []gomart.OrderLine{{OrderID: 1, ProductID: 7, AddToCartOrder: 1}},
			Trains:   []gomart.TrainLine{{OrderID: 2, ProductID: 7, AddToCartOrder: 1, Reordered: 1}},
			Products: []gomart.Product{{ProductID: 7, AisleID: 1}},
			Aisles:   []gomart.Aisle{{AisleID: 1}},
		}

		out, err := p.Run(context.Background(), in)
		require.NoError(t, err)

		got, err := c.Get(context.Background(), gomart.TableLabeledMart)
		require.NoError(t, err)
		want := gomart.NewTable(gomart.TableLabeledMart, gomart.LabeledMartSchema, out.Labeled)
		assert.Equal(t, want.Rows, got.Rows)
		assert.Equal(t, int64(1), got.Record(0).IntOr("reordered", -1))
		assert.True(t, got.Record(0).IsNull("up_usr_reord_ratio"))
	})
}
