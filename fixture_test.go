package gomart_test

import (
	"database/sql"
	"math"
	"testing"

	"github.com/w0rng/gomart"
)

func days(d float64) sql.NullFloat64 { return sql.NullFloat64{Float64: d, Valid: true} }

var null sql.NullFloat64

// fixture builds a small order log:
//
//   - user 1 orders product 1 twice (reordered the second time),
//     product 2 once and product 4, whose aisle is unknown.
//   - user 2 never reorders.
//   - user 5 has a train order with a label for product 9.
//   - user 7 has no held-out order.
func fixture() gomart.Inputs {
	return gomart.Inputs{
		Orders: []gomart.Order{
			{OrderID: 1, UserID: 1, EvalSet: gomart.Prior, OrderNumber: 1, OrderDow: 1, OrderHourOfDay: 8, DaysSincePriorOrder: null},
			{OrderID: 2, UserID: 1, EvalSet: gomart.Prior, OrderNumber: 2, OrderDow: 2, OrderHourOfDay: 10, DaysSincePriorOrder: days(7)},
			{OrderID: 3, UserID: 1, EvalSet: gomart.Train, OrderNumber: 3, OrderDow: 3, OrderHourOfDay: 12, DaysSincePriorOrder: days(5)},
			{OrderID: 10, UserID: 2, EvalSet: gomart.Prior, OrderNumber: 1, OrderDow: 0, OrderHourOfDay: 9, DaysSincePriorOrder: null},
			{OrderID: 11, UserID: 2, EvalSet: gomart.Prior, OrderNumber: 2, OrderDow: 4, OrderHourOfDay: 15, DaysSincePriorOrder: days(3)},
			{OrderID: 12, UserID: 2, EvalSet: gomart.Test, OrderNumber: 3, OrderDow: 5, OrderHourOfDay: 11, DaysSincePriorOrder: days(4)},
			{OrderID: 20, UserID: 5, EvalSet: gomart.Prior, OrderNumber: 1, OrderDow: 6, OrderHourOfDay: 20, DaysSincePriorOrder: null},
			{OrderID: 21, UserID: 5, EvalSet: gomart.Train, OrderNumber: 2, OrderDow: 6, OrderHourOfDay: 21, DaysSincePriorOrder: days(10)},
			{OrderID: 30, UserID: 7, EvalSet: gomart.Prior, OrderNumber: 1, OrderDow: 2, OrderHourOfDay: 7, DaysSincePriorOrder: null},
		},
		Priors: []gomart.OrderLine{
			{OrderID: 1, ProductID: 1, AddToCartOrder: 1, Reordered: 0},
			{OrderID: 1, ProductID: 2, AddToCartOrder: 2, Reordered: 0},
			{OrderID: 2, ProductID: 1, AddToCartOrder: 1, Reordered: 1},
			{OrderID: 2, ProductID: 4, AddToCartOrder: 2, Reordered: 0},
			{OrderID: 10, ProductID: 1, AddToCartOrder: 1, Reordered: 0},
			{OrderID: 11, ProductID: 3, AddToCartOrder: 1, Reordered: 0},
			{OrderID: 20, ProductID: 9, AddToCartOrder: 1, Reordered: 0},
			{OrderID: 20, ProductID: 10, AddToCartOrder: 2, Reordered: 0},
			{OrderID: 30, ProductID: 1, AddToCartOrder: 1, Reordered: 0},
		},
		Trains: []gomart.TrainLine{
			{OrderID: 21, ProductID: 9, AddToCartOrder: 1, Reordered: 1},
			{OrderID: 21, ProductID: 11, AddToCartOrder: 2, Reordered: 0},
			{OrderID: 999, ProductID: 1, AddToCartOrder: 1, Reordered: 1},
		},
		Products: []gomart.Product{
			{ProductID: 1, Name: "Banana", AisleID: 1, DepartmentID: 4},
			{ProductID: 2, Name: "Strawberries", AisleID: 1, DepartmentID: 4},
			{ProductID: 3, Name: "Greek Yogurt", AisleID: 2, DepartmentID: 16},
			{ProductID: 4, Name: "Blunted", AisleID: 99, DepartmentID: 21},
			{ProductID: 9, Name: "Skyr", AisleID: 2, DepartmentID: 16},
			{ProductID: 10, Name: "Kefir", AisleID: 2, DepartmentID: 16},
			{ProductID: 11, Name: "Oat Milk", AisleID: 2, DepartmentID: 16},
		},
		Aisles: []gomart.Aisle{
			{AisleID: 1, Name: "fresh fruits"},
			{AisleID: 2, Name: "yogurt"},
		},
		Departments: []gomart.Department{
			{DepartmentID: 4, Name: "produce"},
			{DepartmentID: 16, Name: "dairy eggs"},
		},
	}
}

func joined(t *testing.T, in gomart.Inputs) []gomart.JoinedFact {
	t.Helper()
	facts, err := gomart.JoinPriors(in.Orders, in.Priors)
	if err != nil {
		t.Fatalf("JoinPriors failed: %v", err)
	}
	return facts
}

func users(t *testing.T, in gomart.Inputs) []gomart.UserFeatures {
	t.Helper()
	u, _, err := gomart.AggregateUsers(joined(t, in), in.Orders)
	if err != nil {
		t.Fatalf("AggregateUsers failed: %v", err)
	}
	return u
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func checkFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if !almostEqual(got, want) {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

func checkNull(t *testing.T, name string, got sql.NullFloat64, want sql.NullFloat64) {
	t.Helper()
	if got.Valid != want.Valid || (want.Valid && !almostEqual(got.Float64, want.Float64)) {
		t.Errorf("%s: got %+v, want %+v", name, got, want)
	}
}
