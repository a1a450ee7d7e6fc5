package gomart

import "fmt"

// LabeledRow is a mart row with its reorder label.
type LabeledRow struct {
	MartRow
	Reordered int
}

// LabeledMartSchema is MartSchema followed by the reordered label.
var LabeledMartSchema = append(append([]Column(nil), MartSchema...), Column{Name: "reordered", Type: Int})

func (l LabeledRow) Values() []any {
	return append(l.MartRow.Values(), int64(l.Reordered))
}

// LabelMart left-joins the mart with train facts on (user_id, product_id).
// Every mart row survives; rows without a train line get reordered = 0.
func LabelMart(mart []MartRow, trains []TrainFact) ([]LabeledRow, error) {
	labels := make(map[pairKey]int, len(trains))
	for _, t := range trains {
		k := pairKey{UserID: t.UserID, ProductID: t.ProductID}
		if _, dup := labels[k]; dup {
			return nil, fmt.Errorf("%w: user %d product %d", ErrDuplicateTrainKey, t.UserID, t.ProductID)
		}
		labels[k] = t.Reordered
	}

	out := make([]LabeledRow, len(mart))
	for i, m := range mart {
		k := pairKey{UserID: m.UserProduct.UserID, ProductID: m.UserProduct.ProductID}
		out[i] = LabeledRow{MartRow: m, Reordered: labels[k]}
	}
	return out, nil
}
