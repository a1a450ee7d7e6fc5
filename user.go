package gomart

import (
	"cmp"
	"database/sql"
	"fmt"
)

// UserFeatures is one row of user_mart.
type UserFeatures struct {
	UserID                    int64
	TotalCount                int64
	UniqueProductCount        int64
	UniqueOrderCount          int64
	AvgProductsPerOrder       float64
	AvgOrdersPerUniqueProduct float64
	UniqueProductRatio        float64
	ReorderCount              int64
	NoReorderCount            int64
	AvgReorder                float64
	AvgPriorDays              sql.NullFloat64
	MaxPriorDays              sql.NullFloat64
	MinPriorDays              sql.NullFloat64
	AvgOrderDow               float64
	AvgOrderHourOfDay         float64
	MaxOrderNumber            int64

	// Held-out order.
	OrderID             int64
	EvalSet             EvalSet
	DaysSincePriorOrder sql.NullFloat64
}

var UserSchema = []Column{
	{Name: "user_id", Type: Int},
	{Name: "usr_total_cnt", Type: Int},
	{Name: "prd_uq_cnt", Type: Int},
	{Name: "order_uq_cnt", Type: Int},
	{Name: "usr_avg_prd_cnt", Type: Float},
	{Name: "usr_avg_uq_prd_cnt", Type: Float},
	{Name: "usr_uq_prd_ratio", Type: Float},
	{Name: "usr_reord_cnt", Type: Int},
	{Name: "usr_no_reord_cnt", Type: Int},
	{Name: "usr_reordered_avg", Type: Float},
	{Name: "usr_avg_prior_days", Type: Float, Nullable: true},
	{Name: "usr_max_prior_days", Type: Float, Nullable: true},
	{Name: "usr_min_prior_days", Type: Float, Nullable: true},
	{Name: "usr_avg_order_dow", Type: Float},
	{Name: "usr_avg_order_hour_of_day", Type: Float},
	{Name: "usr_max_order_number", Type: Int},
	{Name: "order_id", Type: Int},
	{Name: "eval_set", Type: String},
	{Name: "days_since_prior_order", Type: Float, Nullable: true},
}

func (u UserFeatures) Values() []any {
	return []any{
		u.UserID, u.TotalCount, u.UniqueProductCount, u.UniqueOrderCount,
		u.AvgProductsPerOrder, u.AvgOrdersPerUniqueProduct, u.UniqueProductRatio,
		u.ReorderCount, u.NoReorderCount, u.AvgReorder,
		nullable(u.AvgPriorDays), nullable(u.MaxPriorDays), nullable(u.MinPriorDays),
		u.AvgOrderDow, u.AvgOrderHourOfDay, u.MaxOrderNumber,
		u.OrderID, string(u.EvalSet), nullable(u.DaysSincePriorOrder),
	}
}

type userAcc struct {
	products Distinct[int64]
	orders   Distinct[int64]
	reorders Reorders
	recency  Recency
	dow      Mean
	hour     Mean
	number   IntRange
}

// heldOutOrders maps users to their single train or test order.
func heldOutOrders(orders []Order) (map[int64]*Order, error) {
	held := make(map[int64]*Order)
	for i := range orders {
		o := &orders[i]
		if !o.EvalSet.HeldOut() {
			continue
		}
		if prev, dup := held[o.UserID]; dup {
			return nil, fmt.Errorf("%w: user %d, orders %d and %d", ErrDuplicateHeldOut, o.UserID, prev.OrderID, o.OrderID)
		}
		held[o.UserID] = o
	}
	return held, nil
}

// AggregateUsers computes user-level features and attaches each user's
// held-out order. Users without a held-out order are dropped; their count
// is returned.
func AggregateUsers(facts []JoinedFact, orders []Order) ([]UserFeatures, int, error) {
	held, err := heldOutOrders(orders)
	if err != nil {
		return nil, 0, err
	}

	byUser := groupBy(facts,
		func(f *JoinedFact) int64 { return f.UserID },
		func() *userAcc { return &userAcc{} },
		func(a *userAcc, f *JoinedFact) {
			a.products.Add(f.ProductID)
			a.orders.Add(f.OrderID)
			a.reorders.Add(f.Reordered)
			a.recency.Add(f.DaysSincePriorOrder)
			a.dow.Add(float64(f.OrderDow))
			a.hour.Add(float64(f.OrderHourOfDay))
			a.number.Add(f.OrderNumber)
		})

	keys := byUser.sorted(cmp.Compare[int64])
	out := make([]UserFeatures, 0, len(keys))
	for _, id := range keys {
		o, ok := held[id]
		if !ok {
			continue
		}
		a := byUser.accs[id]
		re := a.reorders.Result()
		rec := a.recency.Result()
		products := a.products.Result()
		ords := a.orders.Result()

		out = append(out, UserFeatures{
			UserID:                    id,
			TotalCount:                re.Total,
			UniqueProductCount:        products,
			UniqueOrderCount:          ords,
			AvgProductsPerOrder:       ratio(re.Total, ords),
			AvgOrdersPerUniqueProduct: ratio(re.Total, products),
			UniqueProductRatio:        ratio(products, re.Total),
			ReorderCount:              re.Reordered,
			NoReorderCount:            re.NotReordered,
			AvgReorder:                re.Avg,
			AvgPriorDays:              rec.Avg,
			MaxPriorDays:              rec.Max,
			MinPriorDays:              rec.Min,
			AvgOrderDow:               a.dow.Result(),
			AvgOrderHourOfDay:         a.hour.Result(),
			MaxOrderNumber:            int64(a.number.Result()[1]),
			OrderID:                   o.OrderID,
			EvalSet:                   o.EvalSet,
			DaysSincePriorOrder:       o.DaysSincePriorOrder,
		})
	}
	return out, len(keys) - len(out), nil
}
