// Package export writes catalog tables to CSV, optionally snappy-framed.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang/snappy"
	"github.com/w0rng/gomart"
)

type Compression string

const (
	None   Compression = "none"
	Snappy Compression = "snappy"
)

func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case "", None:
		return None, nil
	case Snappy:
		return c, nil
	}
	return "", fmt.Errorf("export: unknown compression %q", s)
}

// WriteCSV writes t with a header row. Null is written as an empty field
// and floats use the shortest representation that round-trips.
func WriteCSV(w io.Writer, t gomart.Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Schema))
	for i, c := range t.Schema {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(t.Schema))
	for i, row := range t.Rows {
		for j, v := range row {
			rec[j] = format(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t gomart.Table, c Compression) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	var w io.Writer
	var flush func() error
	switch c {
	case Snappy:
		sw := snappy.NewBufferedWriter(f)
		w, flush = sw, sw.Close
	default:
		bw := bufio.NewWriter(f)
		w, flush = bw, bw.Flush
	}

	if err := WriteCSV(w, t); err != nil {
		return fmt.Errorf("export %s: %w", t.Name, err)
	}
	return flush()
}

// NewReader returns a reader that undoes c.
func NewReader(r io.Reader, c Compression) io.Reader {
	if c == Snappy {
		return snappy.NewReader(r)
	}
	return r
}
