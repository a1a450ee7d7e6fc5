package gomart_test

import (
	"errors"
	"testing"

	"github.com/w0rng/gomart"
)

func TestLabelMart(t *testing.T) {
	rows, _ := mart(t)
	in := fixture()
	trains, _, err := gomart.JoinTrains(in.Orders, in.Trains)
	if err != nil {
		t.Fatalf("JoinTrains failed: %v", err)
	}

	labeled, err := gomart.LabelMart(rows, trains)
	if err != nil {
		t.Fatalf("LabelMart failed: %v", err)
	}
	if len(labeled) != len(rows) {
		t.Fatalf("got %d labeled rows, want %d", len(labeled), len(rows))
	}

	for _, l := range labeled {
		want := 0
		if l.UserProduct.UserID == 5 && l.UserProduct.ProductID == 9 {
			want = 1
		}
		if l.Reordered != want {
			t.Errorf("(%d, %d): got reordered %d, want %d",
				l.UserProduct.UserID, l.UserProduct.ProductID, l.Reordered, want)
		}
	}
}

func TestLabelMart_DuplicateTrainKey(t *testing.T) {
	rows, _ := mart(t)
	trains := []gomart.TrainFact{
		{OrderID: 21, ProductID: 9, Reordered: 1, UserID: 5},
		{OrderID: 21, ProductID: 9, Reordered: 0, UserID: 5},
	}

	_, err := gomart.LabelMart(rows, trains)
	if !errors.Is(err, gomart.ErrDuplicateTrainKey) {
		t.Errorf("expected ErrDuplicateTrainKey, got %v", err)
	}
}

func TestLabeledMartSchema(t *testing.T) {
	last := gomart.LabeledMartSchema[len(gomart.LabeledMartSchema)-1]
	if last.Name != "reordered" || last.Type != gomart.Int {
		t.Errorf("last column: got %+v, want reordered int", last)
	}
	if len(gomart.LabeledMartSchema) != len(gomart.MartSchema)+1 {
		t.Errorf("labeled schema has %d columns, want %d", len(gomart.LabeledMartSchema), len(gomart.MartSchema)+1)
	}
}
