package gomart

import (
	"database/sql"
	"fmt"
)

// EvalSet tells which split an order belongs to.
type EvalSet string

const (
	Prior EvalSet = "prior"
	Train EvalSet = "train"
	Test  EvalSet = "test"
)

// ParseEvalSet validates s as an eval_set value.
func ParseEvalSet(s string) (EvalSet, error) {
	switch e := EvalSet(s); e {
	case Prior, Train, Test:
		return e, nil
	}
	return "", fmt.Errorf("gomart: unknown eval_set %q", s)
}

// HeldOut reports whether the order is a user's most recent order,
// reserved for labeling (train) or prediction (test).
func (e EvalSet) HeldOut() bool { return e == Train || e == Test }

// Order is one checkout event.
type Order struct {
	OrderID             int64
	UserID              int64
	EvalSet             EvalSet
	OrderNumber         int
	OrderDow            int
	OrderHourOfDay      int
	DaysSincePriorOrder sql.NullFloat64 // null for a user's first order
}

// OrderLine is one product in a prior order.
type OrderLine struct {
	OrderID        int64
	ProductID      int64
	AddToCartOrder int
	Reordered      int // 0 or 1
}

// TrainLine is one product in a user's held-out train order.
type TrainLine struct {
	OrderID        int64
	ProductID      int64
	AddToCartOrder int
	Reordered      int
}

type Product struct {
	ProductID    int64
	Name         string
	AisleID      int64
	DepartmentID int64
}

type Aisle struct {
	AisleID int64
	Name    string
}

type Department struct {
	DepartmentID int64
	Name         string
}

// Inputs holds the raw relations a pipeline run consumes.
type Inputs struct {
	Orders      []Order
	Priors      []OrderLine
	Trains      []TrainLine
	Products    []Product
	Aisles      []Aisle
	Departments []Department
}
