// Package loader reads the raw order logs into gomart relations.
//
// Files are comma separated with a header row; columns are located by name
// so extra columns and any column order are accepted. A file ending in .zip
// is read from its first .csv entry.
package loader

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/w0rng/gomart"
	"golang.org/x/sync/errgroup"
)

// Files names the input files inside a data directory.
type Files struct {
	Orders      string `mapstructure:"orders"`
	Priors      string `mapstructure:"priors"`
	Trains      string `mapstructure:"trains"`
	Products    string `mapstructure:"products"`
	Aisles      string `mapstructure:"aisles"`
	Departments string `mapstructure:"departments"`
}

// DefaultFiles are the file names of the published order log dump.
func DefaultFiles() Files {
	return Files{
		Orders:      "orders.csv",
		Priors:      "order_products_prior.zip",
		Trains:      "order_products_train.csv",
		Products:    "products.csv",
		Aisles:      "aisles.csv",
		Departments: "departments.csv",
	}
}

var ErrNoCSVEntry = errors.New("loader: zip archive has no .csv entry")

// Open opens path for reading, unpacking .zip archives.
func Open(path string) (io.ReadCloser, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return os.Open(path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("open %s in %s: %w", f.Name, path, err)
		}
		return &zipEntry{ReadCloser: rc, archive: zr}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("%w: %s", ErrNoCSVEntry, path)
}

type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntry) Close() error {
	return errors.Join(z.ReadCloser.Close(), z.archive.Close())
}

// LoadDir reads every input named by files from dir concurrently.
// An empty Departments name skips that file.
func LoadDir(ctx context.Context, dir string, files Files) (gomart.Inputs, error) {
	var in gomart.Inputs
	g, ctx := errgroup.WithContext(ctx)

	load := func(name string, read func(io.Reader) error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			rc, err := Open(path)
			if err != nil {
				return err
			}
			defer rc.Close()
			if err := read(rc); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}

	load(files.Orders, func(r io.Reader) (err error) { in.Orders, err = ReadOrders(r); return })
	load(files.Priors, func(r io.Reader) (err error) { in.Priors, err = ReadOrderLines(r); return })
	load(files.Trains, func(r io.Reader) (err error) { in.Trains, err = ReadTrainLines(r); return })
	load(files.Products, func(r io.Reader) (err error) { in.Products, err = ReadProducts(r); return })
	load(files.Aisles, func(r io.Reader) (err error) { in.Aisles, err = ReadAisles(r); return })
	if files.Departments != "" {
		load(files.Departments, func(r io.Reader) (err error) { in.Departments, err = ReadDepartments(r); return })
	}

	if err := g.Wait(); err != nil {
		return gomart.Inputs{}, err
	}
	return in, nil
}

// table walks the records of one CSV stream.
type table struct {
	r    *csv.Reader
	cols map[string]int
	rec  []string
	line int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return &table{r: cr, cols: cols, line: 1}, nil
}

func (t *table) next() (bool, error) {
	rec, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t.rec = rec
	t.line++
	return true, nil
}

func (t *table) str(col string) string { return t.rec[t.cols[col]] }

func (t *table) errorf(col string, err error) error {
	return fmt.Errorf("line %d, column %s: %w", t.line, col, err)
}

func (t *table) id(col string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(t.str(col)), 10, 64)
	if err != nil {
		return 0, t.errorf(col, err)
	}
	return v, nil
}

func (t *table) num(col string) (int, error) {
	v, err := t.id(col)
	return int(v), err
}

// nullFloat reads an empty field as null.
func (t *table) nullFloat(col string) (sql.NullFloat64, error) {
	s := strings.TrimSpace(t.str(col))
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, t.errorf(col, err)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

func (t *table) flag(col string) (int, error) {
	v, err := t.num(col)
	if err != nil {
		return 0, err
	}
	if v != 0 && v != 1 {
		return 0, t.errorf(col, fmt.Errorf("flag must be 0 or 1, got %d", v))
	}
	return v, nil
}
