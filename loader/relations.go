package loader

import (
	"io"

	"github.com/w0rng/gomart"
)

func ReadOrders(r io.Reader) ([]gomart.Order, error) {
	t, err := newTable(r, "order_id", "user_id", "eval_set", "order_number",
		"order_dow", "order_hour_of_day", "days_since_prior_order")
	if err != nil {
		return nil, err
	}

	var out []gomart.Order
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}

		var o gomart.Order
		if o.OrderID, err = t.id("order_id"); err != nil {
			return nil, err
		}
		if o.UserID, err = t.id("user_id"); err != nil {
			return nil, err
		}
		if o.EvalSet, err = gomart.ParseEvalSet(t.str("eval_set")); err != nil {
			return nil, t.errorf("eval_set", err)
		}
		if o.OrderNumber, err = t.num("order_number"); err != nil {
			return nil, err
		}
		if o.OrderDow, err = t.num("order_dow"); err != nil {
			return nil, err
		}
		if o.OrderHourOfDay, err = t.num("order_hour_of_day"); err != nil {
			return nil, err
		}
		if o.DaysSincePriorOrder, err = t.nullFloat("days_since_prior_order"); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
}

// lineColumns are shared by the prior and train line files.
var lineColumns = []string{"order_id", "product_id", "add_to_cart_order", "reordered"}

func readLine(t *table) (gomart.OrderLine, error) {
	var (
		l   gomart.OrderLine
		err error
	)
	if l.OrderID, err = t.id("order_id"); err != nil {
		return l, err
	}
	if l.ProductID, err = t.id("product_id"); err != nil {
		return l, err
	}
	if l.AddToCartOrder, err = t.num("add_to_cart_order"); err != nil {
		return l, err
	}
	if l.Reordered, err = t.flag("reordered"); err != nil {
		return l, err
	}
	return l, nil
}

func ReadOrderLines(r io.Reader) ([]gomart.OrderLine, error) {
	t, err := newTable(r, lineColumns...)
	if err != nil {
		return nil, err
	}

	var out []gomart.OrderLine
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		l, err := readLine(t)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
}

func ReadTrainLines(r io.Reader) ([]gomart.TrainLine, error) {
	t, err := newTable(r, lineColumns...)
	if err != nil {
		return nil, err
	}

	var out []gomart.TrainLine
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		l, err := readLine(t)
		if err != nil {
			return nil, err
		}
		out = append(out, gomart.TrainLine(l))
	}
}

func ReadProducts(r io.Reader) ([]gomart.Product, error) {
	t, err := newTable(r, "product_id", "product_name", "aisle_id", "department_id")
	if err != nil {
		return nil, err
	}

	var out []gomart.Product
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}

		p := gomart.Product{Name: t.str("product_name")}
		if p.ProductID, err = t.id("product_id"); err != nil {
			return nil, err
		}
		if p.AisleID, err = t.id("aisle_id"); err != nil {
			return nil, err
		}
		if p.DepartmentID, err = t.id("department_id"); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

func ReadAisles(r io.Reader) ([]gomart.Aisle, error) {
	t, err := newTable(r, "aisle_id", "aisle")
	if err != nil {
		return nil, err
	}

	var out []gomart.Aisle
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		a := gomart.Aisle{Name: t.str("aisle")}
		if a.AisleID, err = t.id("aisle_id"); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
}

func ReadDepartments(r io.Reader) ([]gomart.Department, error) {
	t, err := newTable(r, "department_id", "department")
	if err != nil {
		return nil, err
	}

	var out []gomart.Department
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		d := gomart.Department{Name: t.str("department")}
		if d.DepartmentID, err = t.id("department_id"); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}
