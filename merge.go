package gomart

import "fmt"

// MartRow is one row of data_mart: a user-product pair widened with its
// user and product features.
type MartRow struct {
	UserProduct UserProductFeatures
	User        UserFeatures
	Product     ProductFeatures
}

var MartSchema = []Column{
	{Name: "user_id", Type: Int},
	{Name: "product_id", Type: Int},
	{Name: "order_id", Type: Int},

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
	{Name: "up_usr_ord_num_diff", Type: Int},

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
	{Name: "eval_set", Type: String},
	{Name: "days_since_prior_order", Type: Float, Nullable: true},

	{Name: "prd_reordered_cnt", Type: Int},
	{Name: "prd_no_reordered_cnt", Type: Int},
	{Name: "prd_avg_reordered", Type: Float},
	{Name: "prd_unq_usr_cnt", Type: Int},
	{Name: "prd_total_cnt", Type: Int},
	{Name: "prd_usr_ratio", Type: Float},
	{Name: "prd_avg_prior_days", Type: Float},
	{Name: "prd_min_prior_days", Type: Float},
	{Name: "prd_max_prior_days", Type: Float},
	{Name: "aisle_distinct_usr_cnt", Type: Int},
	{Name: "aisle_total_cnt", Type: Int},
	{Name: "aisle_usr_ratio", Type: Float},
	{Name: "usr_ratio_diff", Type: Float},
}

func (m MartRow) Values() []any {
	up, u, p := m.UserProduct, m.User, m.Product
	return []any{
		up.UserID, up.ProductID, u.OrderID,

		up.OrderCount, up.ReorderCount, up.NoReorderCount, up.AvgReorder,
		up.MaxOrderNumber, up.MinOrderNumber, up.AvgCartPosition,
		nullable(up.AvgPriorDays), nullable(up.MaxPriorDays), nullable(up.MinPriorDays),
		up.AvgOrderDow, up.AvgOrderHour, up.OrderShare, nullable(up.ReorderShare),
		up.RecencyGap,

		u.TotalCount, u.UniqueProductCount, u.UniqueOrderCount,
		u.AvgProductsPerOrder, u.AvgOrdersPerUniqueProduct, u.UniqueProductRatio,
		up.UserReorderCount, u.NoReorderCount, u.AvgReorder,
		nullable(u.AvgPriorDays), nullable(u.MaxPriorDays), nullable(u.MinPriorDays),
		u.AvgOrderDow, u.AvgOrderHourOfDay, u.MaxOrderNumber,
		string(u.EvalSet), nullable(u.DaysSincePriorOrder),

		p.ReorderCount, p.NoReorderCount, p.AvgReorder, p.UniqueUserCount,
		p.TotalCount, p.UserRatio, p.AvgPriorDays, p.MinPriorDays, p.MaxPriorDays,
		p.AisleDistinctUserCount, p.AisleTotalCount, p.AisleUserRatio, p.UserRatioDiff,
	}
}

// MergeAudit counts user-product rows that fail to resolve during the merge.
// A row missing both its user and product counts once in Dropped.
type MergeAudit struct {
	UnmatchedUsers    int `yaml:"unmatched_users"`
	UnmatchedProducts int `yaml:"unmatched_products"`
	Dropped           int `yaml:"dropped"`
}

// MergeMart inner-joins user-product features with user and product
// features. The audit is computed as a left outer join ahead of the inner
// join, and the mart size is checked against it.
func MergeMart(ups []UserProductFeatures, users []UserFeatures, products []ProductFeatures) ([]MartRow, MergeAudit, error) {
	userByID := make(map[int64]*UserFeatures, len(users))
	for i := range users {
		userByID[users[i].UserID] = &users[i]
	}
	productByID := make(map[int64]*ProductFeatures, len(products))
	for i := range products {
		productByID[products[i].ProductID] = &products[i]
	}

	var audit MergeAudit
	out := make([]MartRow, 0, len(ups))
	for i := range ups {
		up := &ups[i]
		u, uok := userByID[up.UserID]
		p, pok := productByID[up.ProductID]
		if !uok {
			audit.UnmatchedUsers++
		}
		if !pok {
			audit.UnmatchedProducts++
		}
		if !uok || !pok {
			audit.Dropped++
			continue
		}
		out = append(out, MartRow{UserProduct: *up, User: *u, Product: *p})
	}

	if len(out) != len(ups)-audit.Dropped {
		return nil, audit, fmt.Errorf("%w: mart has %d rows, expected %d - %d dropped",
			ErrRowCountMismatch, len(out), len(ups), audit.Dropped)
	}
	return out, audit, nil
}
