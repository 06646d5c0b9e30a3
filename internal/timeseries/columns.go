// Package timeseries extracts plot data for cases whose primary time-series
// output differs between the baseline and modified runs.
package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// TimestampColumn is the shared time axis of every time-series CSV.
const TimestampColumn = "Date/Time"

// ErrMissingColumn indicates that a requested column is not in a CSV header.
var ErrMissingColumn = errors.New("column not found")

// Columns is a column-oriented view of one CSV file. Header names and cells
// are whitespace-trimmed.
type Columns struct {
	Header []string
	cells  map[string][]string
	rows   int
}

// ReadColumns loads the CSV at path.
func ReadColumns(path string) (*Columns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cols, err := ParseColumns(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cols, nil
}

// ParseColumns reads a CSV stream whose first record is the header.
func ParseColumns(r io.Reader) (*Columns, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, err
	}

	cols := &Columns{
		Header: make([]string, len(header)),
		cells:  make(map[string][]string, len(header)),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		cols.Header[i] = name
		cols.cells[name] = nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(cols.Header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", cols.rows+1, len(record), len(cols.Header))
		}
		for i, value := range record {
			name := cols.Header[i]
			cols.cells[name] = append(cols.cells[name], strings.TrimSpace(value))
		}
		cols.rows++
	}
	return cols, nil
}

// Rows returns the number of data rows read.
func (c *Columns) Rows() int {
	return c.rows
}

// Strings returns the raw cells of a column.
func (c *Columns) Strings(name string) ([]string, error) {
	cells, ok := c.cells[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return cells, nil
}

// Floats returns a column parsed as floating point. Cells that are not
// numbers become NaN.
func (c *Columns) Floats(name string) (Values, error) {
	cells, err := c.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make(Values, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

// DiffColumns returns the variable names flagged in an absolute-difference
// CSV, excluding the timestamp column.
func DiffColumns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	names := make([]string, 0, len(header))
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || name == TimestampColumn || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
