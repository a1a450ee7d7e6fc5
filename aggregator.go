package gomart

import (
	"cmp"
	"database/sql"
	"slices"
)

// Aggregator accumulates values of one column within a group.
type Aggregator[T, R any] interface {
	Add(v T)
	Result() R
}

var (
	_ Aggregator[float64, float64]                = (*Mean)(nil)
	_ Aggregator[int, ReorderSummary]             = (*Reorders)(nil)
	_ Aggregator[sql.NullFloat64, RecencySummary] = (*Recency)(nil)
	_ Aggregator[int, [2]int]                     = (*IntRange)(nil)
	_ Aggregator[int64, int64]                    = (*Distinct[int64])(nil)
)

// Mean computes the arithmetic mean of float64 values.
type Mean struct {
	sum float64
	n   int64
}

func (a *Mean) Add(v float64) {
	a.sum += v
	a.n++
}

// Result returns 0 for an empty group.
func (a *Mean) Result() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// Reorders counts reordered flags.
type Reorders struct {
	total     int64
	reordered int64
}

type ReorderSummary struct {
	Total        int64
	Reordered    int64
	NotReordered int64
	Avg          float64
}

func (a *Reorders) Add(flag int) {
	a.total++
	if flag == 1 {
		a.reordered++
	}
}

func (a *Reorders) Result() ReorderSummary {
	s := ReorderSummary{
		Total:        a.total,
		Reordered:    a.reordered,
		NotReordered: a.total - a.reordered,
	}
	if a.total > 0 {
		s.Avg = float64(a.reordered) / float64(a.total)
	}
	return s
}

// Recency computes avg, min and max of a nullable value, skipping nulls.
type Recency struct {
	sum      float64
	min, max float64
	n        int64
}

type RecencySummary struct {
	Avg, Min, Max sql.NullFloat64
}

func (a *Recency) Add(v sql.NullFloat64) {
	if !v.Valid {
		return
	}
	if a.n == 0 || v.Float64 < a.min {
		a.min = v.Float64
	}
	if a.n == 0 || v.Float64 > a.max {
		a.max = v.Float64
	}
	a.sum += v.Float64
	a.n++
}

// Result leaves every field null when no non-null value was added.
func (a *Recency) Result() RecencySummary {
	if a.n == 0 {
		return RecencySummary{}
	}
	return RecencySummary{
		Avg: valid(a.sum / float64(a.n)),
		Min: valid(a.min),
		Max: valid(a.max),
	}
}

// IntRange tracks the bounds of int values as [min, max].
type IntRange struct {
	min, max int
	set      bool
}

func (a *IntRange) Add(v int) {
	if !a.set || v < a.min {
		a.min = v
	}
	if !a.set || v > a.max {
		a.max = v
	}
	a.set = true
}

func (a *IntRange) Result() [2]int { return [2]int{a.min, a.max} }

// Distinct counts unique values.
type Distinct[K comparable] struct {
	seen map[K]struct{}
}

func (a *Distinct[K]) Add(v K) {
	if a.seen == nil {
		a.seen = make(map[K]struct{})
	}
	a.seen[v] = struct{}{}
}

func (a *Distinct[K]) Result() int64 { return int64(len(a.seen)) }

// groups holds one accumulator per key in first-seen order.
type groups[K comparable, A any] struct {
	keys []K
	accs map[K]A
}

func groupBy[K comparable, R, A any](rows []R, key func(*R) K, create func() A, add func(A, *R)) groups[K, A] {
	g := groups[K, A]{accs: make(map[K]A)}
	for i := range rows {
		r := &rows[i]
		k := key(r)
		acc, ok := g.accs[k]
		if !ok {
			acc = create()
			g.accs[k] = acc
			g.keys = append(g.keys, k)
		}
		add(acc, r)
	}
	return g
}

// sorted returns keys ordered by cmpKey.
func (g groups[K, A]) sorted(cmpKey func(a, b K) int) []K {
	keys := slices.Clone(g.keys)
	slices.SortFunc(keys, cmpKey)
	return keys
}

type pairKey struct {
	UserID    int64
	ProductID int64
}

func comparePairs(a, b pairKey) int {
	if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
		return c
	}
	return cmp.Compare(a.ProductID, b.ProductID)
}

func valid(f float64) sql.NullFloat64 { return sql.NullFloat64{Float64: f, Valid: true} }

// coalesce returns v or def when v is null.
func coalesce(v sql.NullFloat64, def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.Float64
}

// ratio divides two counts; callers guarantee den > 0.
func ratio(num, den int64) float64 { return float64(num) / float64(den) }

// nullRatio resolves a zero denominator to null.
func nullRatio(num, den int64) sql.NullFloat64 {
	if den == 0 {
		return sql.NullFloat64{}
	}
	return valid(float64(num) / float64(den))
}
