package gomart_test

import (
	"errors"
	"testing"

	"github.com/w0rng/gomart"
)

func TestAggregateUsers(t *testing.T) {
	in := fixture()
	us, dropped, err := gomart.AggregateUsers(joined(t, in), in.Orders)
	if err != nil {
		t.Fatalf("AggregateUsers failed: %v", err)
	}

	// User 7 has no held-out order.
	if dropped != 1 {
		t.Errorf("dropped: got %d, want 1", dropped)
	}
	if len(us) != 3 || us[0].UserID != 1 || us[1].UserID != 2 || us[2].UserID != 5 {
		t.Fatalf("unexpected users: %+v", us)
	}

	u := us[0]
	if u.TotalCount != 4 || u.UniqueProductCount != 3 || u.UniqueOrderCount != 2 {
		t.Errorf("user 1 counts: %+v", u)
	}
	if u.ReorderCount != 1 || u.NoReorderCount != 3 || u.MaxOrderNumber != 2 {
		t.Errorf("user 1 reorders: %+v", u)
	}
	checkFloat(t, "usr_avg_prd_cnt", u.AvgProductsPerOrder, 2)
	checkFloat(t, "usr_avg_uq_prd_cnt", u.AvgOrdersPerUniqueProduct, 4.0/3.0)
	checkFloat(t, "usr_uq_prd_ratio", u.UniqueProductRatio, 0.75)
	checkFloat(t, "usr_reordered_avg", u.AvgReorder, 0.25)
	checkFloat(t, "usr_avg_order_dow", u.AvgOrderDow, 1.5)
	checkFloat(t, "usr_avg_order_hour_of_day", u.AvgOrderHourOfDay, 9)
	checkNull(t, "usr_avg_prior_days", u.AvgPriorDays, days(7))

	if u.OrderID != 3 || u.EvalSet != gomart.Train {
		t.Errorf("user 1 held-out order: got %d (%s), want 3 (train)", u.OrderID, u.EvalSet)
	}
	checkNull(t, "days_since_prior_order", u.DaysSincePriorOrder, days(5))

	if us[1].OrderID != 12 || us[1].EvalSet != gomart.Test {
		t.Errorf("user 2 held-out order: got %d (%s), want 12 (test)", us[1].OrderID, us[1].EvalSet)
	}
}

func TestAggregateUsers_RecencyStaysNull(t *testing.T) {
	in := fixture()
	us := users(t, in)

	// User 5 only has a first order.
	u := us[2]
	checkNull(t, "usr_avg_prior_days", u.AvgPriorDays, null)
	checkNull(t, "usr_max_prior_days", u.MaxPriorDays, null)
	checkNull(t, "usr_min_prior_days", u.MinPriorDays, null)
}

func TestAggregateUsers_DuplicateHeldOut(t *testing.T) {
	in := fixture()
	in.Orders = append(in.Orders, gomart.Order{OrderID: 4, UserID: 1, EvalSet: gomart.Test, OrderNumber: 4})

	_, _, err := gomart.AggregateUsers(joined(t, in), in.Orders)
	if !errors.Is(err, gomart.ErrDuplicateHeldOut) {
		t.Errorf("expected ErrDuplicateHeldOut, got %v", err)
	}
}

func TestAggregateUsers_Identities(t *testing.T) {
	for _, u := range users(t, fixture()) {
		if u.ReorderCount+u.NoReorderCount != u.TotalCount {
			t.Errorf("user %d: reordered + not reordered != total", u.UserID)
		}
		if u.UniqueProductCount > u.TotalCount || u.UniqueOrderCount > u.TotalCount {
			t.Errorf("user %d: unique counts exceed total", u.UserID)
		}
		checkFloat(t, "usr_uq_prd_ratio * usr_avg_uq_prd_cnt", u.UniqueProductRatio*u.AvgOrdersPerUniqueProduct, 1)
	}
}
