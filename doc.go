// Package gomart builds a reorder-prediction feature mart from raw order logs.
//
// Prior order lines are joined with their orders, aggregated at product,
// user and user-product level, merged into one table keyed by
// (user_id, product_id) and labeled from the held-out training lines.
// Every stage output is materialized into a Catalog under a fixed name.
//
// Basic usage:
//
//	p := gomart.New(gomart.Config{
//	    Logger: zap.NewExample(),
//	})
//	defer p.Close()
//
//	_, err := p.Run(ctx, gomart.Inputs{
//	    Orders:   orders,
//	    Priors:   priors,
//	    Trains:   trains,
//	    Products: products,
//	    Aisles:   aisles,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Read a feature back
//	mart, _ := p.Catalog().Get(ctx, gomart.TableLabeledMart)
//	label := mart.Record(0).IntOr("reordered", -1)
//
// Product-level recency features coalesce a missing days_since_prior_order
// to 0 while user and user-product features keep it null.
package gomart
