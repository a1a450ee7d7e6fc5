package gomart

import "database/sql"

// UserProductFeatures is one row of up_mart.
type UserProductFeatures struct {
	UserID          int64
	ProductID       int64
	OrderCount      int64
	ReorderCount    int64
	NoReorderCount  int64
	AvgReorder      float64
	MaxOrderNumber  int64
	MinOrderNumber  int64
	AvgCartPosition float64
	AvgPriorDays    sql.NullFloat64
	MaxPriorDays    sql.NullFloat64
	MinPriorDays    sql.NullFloat64
	AvgOrderDow     float64
	AvgOrderHour    float64

	// Normalized against the user's totals.
	OrderShare       float64
	ReorderShare     sql.NullFloat64 // null when the user has no reorders
	UserReorderCount int64
	RecencyGap       int64
}

var UserProductSchema = []Column{
	{Name: "user_id", Type: Int},
	{Name: "product_id", Type: Int},
	{Name: "up_cnt", Type: Int},
	{Name: "up_reord_cnt", Type: Int},
	{Name: "up_no_reord_cnt", Type: Int},
	{Name: "up_reordered_avg", Type: Float},
	{Name: "up_max_ord_num", Type: Int},
	{Name: "up_min_ord_num", Type: Int},
	{Name: "up_avg_cart", Type: Float},
	{Name: "up_avg_prior_days", Type: Float, Nullable: true},
	{Name: "up_max_prior_days", Type: Float, Nullable: true},
	{Name: "up_min_prior_days", Type: Float, Nullable: true},
	{Name: "up_avg_ord_dow", Type: Float},
	{Name: "up_avg_ord_hour", Type: Float},
	{Name: "up_usr_ratio", Type: Float},
	{Name: "up_usr_reord_ratio", Type: Float, Nullable: true},
	{Name: "usr_reord_cnt", Type: Int},
	{Name: "up_usr_ord_num_diff", Type: Int},
}

func (u UserProductFeatures) Values() []any {
	return []any{
		u.UserID, u.ProductID, u.OrderCount, u.ReorderCount, u.NoReorderCount,
		u.AvgReorder, u.MaxOrderNumber, u.MinOrderNumber, u.AvgCartPosition,
		nullable(u.AvgPriorDays), nullable(u.MaxPriorDays), nullable(u.MinPriorDays),
		u.AvgOrderDow, u.AvgOrderHour, u.OrderShare, nullable(u.ReorderShare),
		u.UserReorderCount, u.RecencyGap,
	}
}

type userProductAcc struct {
	reorders Reorders
	number   IntRange
	cart     Mean
	recency  Recency
	dow      Mean
	hour     Mean
}

// AggregateUserProducts computes user-product features normalized against
// users. Pairs whose user is absent from users are dropped; their count is
// returned.
func AggregateUserProducts(facts []JoinedFact, users []UserFeatures) ([]UserProductFeatures, int) {
	byID := make(map[int64]*UserFeatures, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}

	pairs := groupBy(facts,
		func(f *JoinedFact) pairKey { return pairKey{UserID: f.UserID, ProductID: f.ProductID} },
		func() *userProductAcc { return &userProductAcc{} },
		func(a *userProductAcc, f *JoinedFact) {
			a.reorders.Add(f.Reordered)
			a.number.Add(f.OrderNumber)
			a.cart.Add(float64(f.AddToCartOrder))
			a.recency.Add(f.DaysSincePriorOrder)
			a.dow.Add(float64(f.OrderDow))
			a.hour.Add(float64(f.OrderHourOfDay))
		})

	keys := pairs.sorted(comparePairs)
	out := make([]UserProductFeatures, 0, len(keys))
	for _, k := range keys {
		u, ok := byID[k.UserID]
		if !ok {
			continue
		}
		a := pairs.accs[k]
		re := a.reorders.Result()
		rec := a.recency.Result()
		bounds := a.number.Result()

		out = append(out, UserProductFeatures{
			UserID:           k.UserID,
			ProductID:        k.ProductID,
			OrderCount:       re.Total,
			ReorderCount:     re.Reordered,
			NoReorderCount:   re.NotReordered,
			AvgReorder:       re.Avg,
			MaxOrderNumber:   int64(bounds[1]),
			MinOrderNumber:   int64(bounds[0]),
			AvgCartPosition:  a.cart.Result(),
			AvgPriorDays:     rec.Avg,
			MaxPriorDays:     rec.Max,
			MinPriorDays:     rec.Min,
			AvgOrderDow:      a.dow.Result(),
			AvgOrderHour:     a.hour.Result(),
			OrderShare:       ratio(re.Total, u.TotalCount),
			ReorderShare:     nullRatio(re.Reordered, u.ReorderCount),
			UserReorderCount: u.ReorderCount,
			RecencyGap:       u.MaxOrderNumber - int64(bounds[1]),
		})
	}
	return out, len(keys) - len(out)
}
