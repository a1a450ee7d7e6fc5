package gomart

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog names of the materialized stage outputs, in run order.
const (
	TableJoinedFacts  = "order_priors_prods"
	TableProducts     = "prd_mart"
	TableUsers        = "user_mart"
	TableTrainFacts   = "order_trains_prods"
	TableUserProducts = "up_mart"
	TableMart         = "data_mart"
	TableLabeledMart  = "labeled_mart"
)

var stageOrder = []string{
	TableJoinedFacts,
	TableProducts,
	TableUsers,
	TableTrainFacts,
	TableUserProducts,
	TableMart,
	TableLabeledMart,
}

// Pipeline builds the labeled mart and materializes every stage into its
// catalog.
type Pipeline struct {
	catalog Catalog
	log     *zap.SugaredLogger
	metrics *Metrics
}

// Output holds the typed outputs of every stage of one run.
type Output struct {
	Joined       []JoinedFact
	Products     []ProductFeatures
	Users        []UserFeatures
	TrainFacts   []TrainFact
	UserProducts []UserProductFeatures
	Mart         []MartRow
	Labeled      []LabeledRow
	Report       Report
}

func New(cfg Config) *Pipeline {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = NewMemoryCatalog()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		catalog: catalog,
		log:     logger.Sugar(),
		metrics: cfg.Metrics,
	}
}

func (p *Pipeline) Catalog() Catalog { return p.catalog }

// Run recomputes every stage from in. Every stage table of a previous run is
// dropped first, so after a failure only the stages that completed in this
// run are in the catalog. The first failing stage aborts the run with a
// *StageError.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (out *Output, err error) {
	runID := uuid.NewString()
	r := &run{
		catalog: p.catalog,
		metrics: p.metrics,
		log:     p.log.With("run_id", runID),
		out:     &Output{Report: Report{RunID: runID, StartedAt: time.Now().UTC()}},
	}
	defer func() { p.metrics.observeRun(err) }()

	r.log.Infow("run started",
		"orders", len(in.Orders),
		"priors", len(in.Priors),
		"trains", len(in.Trains),
		"products", len(in.Products),
		"aisles", len(in.Aisles))

	// A failed run must not leave tables of an earlier run behind.
	for _, name := range stageOrder {
		if err = p.catalog.Drop(ctx, name); err != nil {
			r.log.Errorw("dropping previous output failed", "table", name, "error", err)
			return nil, fmt.Errorf("drop %s: %w", name, err)
		}
	}

	o := r.out
	err = r.stage(ctx, TableJoinedFacts, len(in.Priors), func() (Table, int, error) {
		facts, err := JoinPriors(in.Orders, in.Priors)
		o.Joined = facts
		return NewTable(TableJoinedFacts, JoinedFactSchema, facts), len(in.Priors) - len(facts), err
	})
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.stage(gctx, TableProducts, len(o.Joined), func() (Table, int, error) {
			products, excluded := AggregateProducts(o.Joined, in.Products, in.Aisles)
			o.Products = products
			return NewTable(TableProducts, ProductSchema, products), excluded, nil
		})
	})
	g.Go(func() error {
		return r.stage(gctx, TableUsers, len(o.Joined), func() (Table, int, error) {
			users, dropped, err := AggregateUsers(o.Joined, in.Orders)
			o.Users = users
			return NewTable(TableUsers, UserSchema, users), dropped, err
		})
	})
	g.Go(func() error {
		return r.stage(gctx, TableTrainFacts, len(in.Trains), func() (Table, int, error) {
			facts, excluded, err := JoinTrains(in.Orders, in.Trains)
			o.TrainFacts = facts
			return NewTable(TableTrainFacts, TrainFactSchema, facts), excluded, err
		})
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	err = r.stage(ctx, TableUserProducts, len(o.Joined), func() (Table, int, error) {
		ups, dropped := AggregateUserProducts(o.Joined, o.Users)
		o.UserProducts = ups
		return NewTable(TableUserProducts, UserProductSchema, ups), dropped, nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, TableMart, len(o.UserProducts), func() (Table, int, error) {
		mart, audit, err := MergeMart(o.UserProducts, o.Users, o.Products)
		o.Mart = mart
		o.Report.Merge = audit
		if audit.Dropped > 0 {
			r.log.Warnw("user-product rows dropped in merge",
				"unmatched_users", audit.UnmatchedUsers,
				"unmatched_products", audit.UnmatchedProducts,
				"dropped", audit.Dropped)
		}
		return NewTable(TableMart, MartSchema, mart), audit.Dropped, err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, TableLabeledMart, len(o.Mart), func() (Table, int, error) {
		labeled, err := LabelMart(o.Mart, o.TrainFacts)
		o.Labeled = labeled
		if err == nil && len(labeled) != len(o.Mart) {
			err = fmt.Errorf("%w: labeled mart has %d rows, mart has %d", ErrRowCountMismatch, len(labeled), len(o.Mart))
		}
		return NewTable(TableLabeledMart, LabeledMartSchema, labeled), 0, err
	})
	if err != nil {
		return nil, err
	}

	r.sortStages()
	r.log.Infow("run finished",
		"labeled_rows", len(o.Labeled),
		"merge_dropped", o.Report.Merge.Dropped,
		"elapsed", time.Since(o.Report.StartedAt))
	return o, nil
}

// Close closes the catalog.
func (p *Pipeline) Close() error {
	if err := p.catalog.Close(); err != nil {
		return fmt.Errorf("error closing catalog: %w", err)
	}
	return nil
}

type run struct {
	catalog Catalog
	metrics *Metrics
	log     *zap.SugaredLogger
	out     *Output

	mu sync.Mutex
}

// stage computes one stage with fn, then replaces its catalog table.
// fn returns the stage table, the number of input rows it dropped and an
// error; a partial table is still used for the row counts of a failure.
func (r *run) stage(ctx context.Context, name string, rowsIn int, fn func() (Table, int, error)) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, RowsIn: rowsIn, Err: err}
	}

	start := time.Now()
	t, dropped, err := fn()
	if err != nil {
		r.log.Errorw("stage failed", "stage", name, "rows_in", rowsIn, "rows_out", t.Len(), "error", err)
		return &StageError{Stage: name, RowsIn: rowsIn, RowsOut: t.Len(), Err: err}
	}
	if err := Replace(ctx, r.catalog, t); err != nil {
		r.log.Errorw("stage materialization failed", "stage", name, "error", err)
		return &StageError{Stage: name, RowsIn: rowsIn, RowsOut: t.Len(), Err: err}
	}

	rep := StageReport{
		Name:     name,
		RowsIn:   rowsIn,
		RowsOut:  t.Len(),
		Dropped:  dropped,
		Duration: time.Since(start),
	}
	r.mu.Lock()
	r.out.Report.Stages = append(r.out.Report.Stages, rep)
	r.mu.Unlock()

	r.metrics.observeStage(rep)
	r.log.Infow("stage materialized",
		"stage", name,
		"rows_in", rep.RowsIn,
		"rows_out", rep.RowsOut,
		"dropped", rep.Dropped,
		"duration", rep.Duration)
	return nil
}

// sortStages puts concurrently recorded stages back in run order.
func (r *run) sortStages() {
	slices.SortFunc(r.out.Report.Stages, func(a, b StageReport) int {
		return slices.Index(stageOrder, a.Name) - slices.Index(stageOrder, b.Name)
	})
}
