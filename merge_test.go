package gomart_test

import (
	"testing"

	"github.com/w0rng/gomart"
)

func mart(t *testing.T) ([]gomart.MartRow, gomart.MergeAudit) {
	t.Helper()
	in := fixture()
	facts := joined(t, in)
	us := users(t, in)
	ps, _ := gomart.AggregateProducts(facts, in.Products, in.Aisles)
	ups, _ := gomart.AggregateUserProducts(facts, us)

	rows, audit, err := gomart.MergeMart(ups, us, ps)
	if err != nil {
		t.Fatalf("MergeMart failed: %v", err)
	}
	return rows, audit
}

func TestMergeMart(t *testing.T) {
	rows, audit := mart(t)

	// (1, 4) has no product features.
	want := gomart.MergeAudit{UnmatchedUsers: 0, UnmatchedProducts: 1, Dropped: 1}
	if audit != want {
		t.Errorf("audit: got %+v, want %+v", audit, want)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	for _, r := range rows {
		if r.UserProduct.UserID != r.User.UserID || r.UserProduct.ProductID != r.Product.ProductID {
			t.Errorf("mismatched merge: %+v", r)
		}
		if r.UserProduct.ProductID == 4 {
			t.Error("unresolved product survived the merge")
		}
	}
}

func TestMergeMart_UnmatchedBoth(t *testing.T) {
	ups := []gomart.UserProductFeatures{
		{UserID: 1, ProductID: 1},
		{UserID: 2, ProductID: 1},
		{UserID: 2, ProductID: 2},
	}
	us := []gomart.UserFeatures{{UserID: 1}}
	ps := []gomart.ProductFeatures{{ProductID: 1}}

	rows, audit, err := gomart.MergeMart(ups, us, ps)
	if err != nil {
		t.Fatalf("MergeMart failed: %v", err)
	}
	want := gomart.MergeAudit{UnmatchedUsers: 2, UnmatchedProducts: 1, Dropped: 2}
	if audit != want {
		t.Errorf("audit: got %+v, want %+v", audit, want)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestMartSchema(t *testing.T) {
	rows, _ := mart(t)
	tbl := gomart.NewTable(gomart.TableMart, gomart.MartSchema, rows)
	if err := tbl.Validate(); err != nil {
		t.Fatalf("mart table invalid: %v", err)
	}

	r := tbl.Record(0)
	if got := r.IntOr("user_id", -1); got != 1 {
		t.Errorf("user_id: got %d, want 1", got)
	}
	if got := r.IntOr("order_id", -1); got != 3 {
		t.Errorf("order_id: got %d, want 3", got)
	}
	if got := r.StringOr("eval_set", ""); got != "train" {
		t.Errorf("eval_set: got %q, want train", got)
	}
	if got := r.IntOr("usr_reord_cnt", -1); got != 1 {
		t.Errorf("usr_reord_cnt: got %d, want 1", got)
	}
}
