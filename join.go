package gomart

import (
	"database/sql"
	"fmt"
)

// JoinedFact is a prior order line enriched with its order's context.
type JoinedFact struct {
	OrderID             int64
	ProductID           int64
	AddToCartOrder      int
	Reordered           int
	UserID              int64
	EvalSet             EvalSet
	OrderNumber         int
	OrderDow            int
	OrderHourOfDay      int
	DaysSincePriorOrder sql.NullFloat64
}

var JoinedFactSchema = []Column{
	{Name: "order_id", Type: Int},
	{Name: "product_id", Type: Int},
	{Name: "add_to_cart_order", Type: Int},
	{Name: "reordered", Type: Int},
	{Name: "user_id", Type: Int},
	{Name: "eval_set", Type: String},
	{Name: "order_number", Type: Int},
	{Name: "order_dow", Type: Int},
	{Name: "order_hour_of_day", Type: Int},
	{Name: "days_since_prior_order", Type: Float, Nullable: true},
}

func (f JoinedFact) Values() []any {
	return []any{
		f.OrderID, f.ProductID, int64(f.AddToCartOrder), int64(f.Reordered),
		f.UserID, string(f.EvalSet), int64(f.OrderNumber), int64(f.OrderDow),
		int64(f.OrderHourOfDay), nullable(f.DaysSincePriorOrder),
	}
}

// TrainFact is a held-out train line with its owning user.
type TrainFact struct {
	OrderID   int64
	ProductID int64
	Reordered int
	UserID    int64
}

var TrainFactSchema = []Column{
	{Name: "order_id", Type: Int},
	{Name: "product_id", Type: Int},
	{Name: "reordered", Type: Int},
	{Name: "user_id", Type: Int},
}

func (f TrainFact) Values() []any {
	return []any{f.OrderID, f.ProductID, int64(f.Reordered), f.UserID}
}

func indexOrders(orders []Order) (map[int64]*Order, error) {
	idx := make(map[int64]*Order, len(orders))
	for i := range orders {
		o := &orders[i]
		if _, dup := idx[o.OrderID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateOrder, o.OrderID)
		}
		idx[o.OrderID] = o
	}
	return idx, nil
}

// JoinPriors attaches order context to every prior line. The output keeps
// the input order and cardinality; a line whose order is missing fails the
// join with ErrMissingOrder.
func JoinPriors(orders []Order, priors []OrderLine) ([]JoinedFact, error) {
	idx, err := indexOrders(orders)
	if err != nil {
		return nil, err
	}

	out := make([]JoinedFact, 0, len(priors))
	var missing int
	var firstMissing int64
	for _, l := range priors {
		o, ok := idx[l.OrderID]
		if !ok {
			if missing == 0 {
				firstMissing = l.OrderID
			}
			missing++
			continue
		}
		out = append(out, JoinedFact{
			OrderID:             l.OrderID,
			ProductID:           l.ProductID,
			AddToCartOrder:      l.AddToCartOrder,
			Reordered:           l.Reordered,
			UserID:              o.UserID,
			EvalSet:             o.EvalSet,
			OrderNumber:         o.OrderNumber,
			OrderDow:            o.OrderDow,
			OrderHourOfDay:      o.OrderHourOfDay,
			DaysSincePriorOrder: o.DaysSincePriorOrder,
		})
	}
	if missing > 0 {
		return out, fmt.Errorf("%w: %d lines, first order_id %d", ErrMissingOrder, missing, firstMissing)
	}
	return out, nil
}

// JoinTrains resolves the user of every train line. Lines whose order is
// missing are excluded and counted.
func JoinTrains(orders []Order, trains []TrainLine) ([]TrainFact, int, error) {
	idx, err := indexOrders(orders)
	if err != nil {
		return nil, 0, err
	}

	out := make([]TrainFact, 0, len(trains))
	var excluded int
	for _, l := range trains {
		o, ok := idx[l.OrderID]
		if !ok {
			excluded++
			continue
		}
		out = append(out, TrainFact{
			OrderID:   l.OrderID,
			ProductID: l.ProductID,
			Reordered: l.Reordered,
			UserID:    o.UserID,
		})
	}
	return out, excluded, nil
}
