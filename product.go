package gomart

import "cmp"

// ProductFeatures is one row of prd_mart.
type ProductFeatures struct {
	ProductID       int64
	ReorderCount    int64
	NoReorderCount  int64
	AvgReorder      float64
	UniqueUserCount int64
	TotalCount      int64
	UserRatio       float64
	AisleID         int64
	// Missing recency coalesces to 0 at this level only.
	AvgPriorDays float64
	MinPriorDays float64
	MaxPriorDays float64

	AisleDistinctUserCount int64
	AisleTotalCount        int64
	AisleUserRatio         float64
	UserRatioDiff          float64
}

var ProductSchema = []Column{
	{Name: "product_id", Type: Int},
	{Name: "prd_reordered_cnt", Type: Int},
	{Name: "prd_no_reordered_cnt", Type: Int},
	{Name: "prd_avg_reordered", Type: Float},
	{Name: "prd_unq_usr_cnt", Type: Int},
	{Name: "prd_total_cnt", Type: Int},
	{Name: "prd_usr_ratio", Type: Float},
	{Name: "aisle_id", Type: Int},
	{Name: "prd_avg_prior_days", Type: Float},
	{Name: "prd_min_prior_days", Type: Float},
	{Name: "prd_max_prior_days", Type: Float},
	{Name: "aisle_distinct_usr_cnt", Type: Int},
	{Name: "aisle_total_cnt", Type: Int},
	{Name: "aisle_usr_ratio", Type: Float},
	{Name: "usr_ratio_diff", Type: Float},
}

func (p ProductFeatures) Values() []any {
	return []any{
		p.ProductID, p.ReorderCount, p.NoReorderCount, p.AvgReorder,
		p.UniqueUserCount, p.TotalCount, p.UserRatio, p.AisleID,
		p.AvgPriorDays, p.MinPriorDays, p.MaxPriorDays,
		p.AisleDistinctUserCount, p.AisleTotalCount, p.AisleUserRatio, p.UserRatioDiff,
	}
}

type productAcc struct {
	aisleID  int64
	reorders Reorders
	users    Distinct[int64]
	recency  Recency
}

type aisleAcc struct {
	users Distinct[int64]
	total int64
}

// penetration is the distinct-user share of a group's order lines.
func (a *aisleAcc) penetration() float64 { return ratio(a.users.Result(), a.total) }

// resolvedFact is a joined fact whose product and aisle both resolve.
type resolvedFact struct {
	*JoinedFact
	aisleID int64
}

// AggregateProducts computes product-level features. Lines whose product or
// aisle does not resolve are excluded; their count is returned.
func AggregateProducts(facts []JoinedFact, products []Product, aisles []Aisle) ([]ProductFeatures, int) {
	aisleOf := make(map[int64]int64, len(products))
	known := make(map[int64]struct{}, len(aisles))
	for _, a := range aisles {
		known[a.AisleID] = struct{}{}
	}
	for _, p := range products {
		if _, ok := known[p.AisleID]; ok {
			aisleOf[p.ProductID] = p.AisleID
		}
	}

	resolved := make([]resolvedFact, 0, len(facts))
	for i := range facts {
		aisle, ok := aisleOf[facts[i].ProductID]
		if !ok {
			continue
		}
		resolved = append(resolved, resolvedFact{JoinedFact: &facts[i], aisleID: aisle})
	}
	excluded := len(facts) - len(resolved)

	byProduct := groupBy(resolved,
		func(r *resolvedFact) int64 { return r.ProductID },
		func() *productAcc { return &productAcc{} },
		func(a *productAcc, r *resolvedFact) {
			a.aisleID = r.aisleID
			a.reorders.Add(r.Reordered)
			a.users.Add(r.UserID)
			a.recency.Add(r.DaysSincePriorOrder)
		})

	byAisle := groupBy(resolved,
		func(r *resolvedFact) int64 { return r.aisleID },
		func() *aisleAcc { return &aisleAcc{} },
		func(a *aisleAcc, r *resolvedFact) {
			a.users.Add(r.UserID)
			a.total++
		})

	keys := byProduct.sorted(cmp.Compare[int64])
	out := make([]ProductFeatures, 0, len(keys))
	for _, id := range keys {
		a := byProduct.accs[id]
		// Always present, both groupings read the same rows.
		aisle := byAisle.accs[a.aisleID]

		re := a.reorders.Result()
		rec := a.recency.Result()
		users := a.users.Result()
		userRatio := ratio(users, re.Total)
		aisleRatio := aisle.penetration()

		out = append(out, ProductFeatures{
			ProductID:              id,
			ReorderCount:           re.Reordered,
			NoReorderCount:         re.NotReordered,
			AvgReorder:             re.Avg,
			UniqueUserCount:        users,
			TotalCount:             re.Total,
			UserRatio:              userRatio,
			AisleID:                a.aisleID,
			AvgPriorDays:           coalesce(rec.Avg, 0),
			MinPriorDays:           coalesce(rec.Min, 0),
			MaxPriorDays:           coalesce(rec.Max, 0),
			AisleDistinctUserCount: aisle.users.Result(),
			AisleTotalCount:        aisle.total,
			AisleUserRatio:         aisleRatio,
			UserRatioDiff:          userRatio - aisleRatio,
		})
	}
	return out, excluded
}
