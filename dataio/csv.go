// Package dataio reads and writes multi-channel vibration tables as CSV:
// a header row, a time column and one value column per channel.
package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mdobak/go-xerrors"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
)

// DefaultTimeColumn is the header of the time column when none is given.
const DefaultTimeColumn = "time"

// ErrUnknownColumn reports a column reference that matches no header.
var ErrUnknownColumn = errors.New("dataio: unknown column")

// Table is a parsed CSV table. Values are stored per column.
type Table struct {
	Time    []float64
	Names   []string
	Columns [][]float64
	step    float64
}

// Option configures ReadCSV.
type Option func(*readConfig)

type readConfig struct {
	timeColumn string
	tol        float64
	comma      rune
}

// WithTimeColumn names the time column. A numeric reference selects the
// column by zero-based index.
func WithTimeColumn(ref string) Option {
	return func(c *readConfig) {
		if ref != "" {
			c.timeColumn = ref
		}
	}
}

// WithStepTolerance sets the relative tolerance of the time-grid check.
func WithStepTolerance(tol float64) Option {
	return func(c *readConfig) {
		if tol > 0 {
			c.tol = tol
		}
	}
}

// WithComma sets the field separator.
func WithComma(r rune) Option {
	return func(c *readConfig) {
		if r != 0 {
			c.comma = r
		}
	}
}

// ReadCSV parses a table with a header row. The time column must be
// strictly increasing and uniform within the step tolerance; every value
// must be a finite number.
func ReadCSV(r io.Reader, opts ...Option) (*Table, error) {
	cfg := readConfig{timeColumn: DefaultTimeColumn, tol: core.DefaultStepTolerance, comma: ','}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cr := csv.NewReader(r)
	cr.Comma = cfg.comma
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataio: empty input: %w", core.ErrDomain)
	}
	if err != nil {
		return nil, fmt.Errorf("dataio: header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	timeIdx, err := columnIndex(header, cfg.timeColumn)
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: make([][]float64, 0, len(header)-1)}
	valueIdx := make([]int, 0, len(header)-1)
	for i, name := range header {
		if i == timeIdx {
			continue
		}
		t.Names = append(t.Names, name)
		t.Columns = append(t.Columns, nil)
		valueIdx = append(valueIdx, i)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataio: line %d: %w", line, err)
		}

		v, err := parseField(rec[timeIdx], line, header[timeIdx])
		if err != nil {
			return nil, err
		}
		t.Time = append(t.Time, v)

		for j, idx := range valueIdx {
			v, err := parseField(rec[idx], line, header[idx])
			if err != nil {
				return nil, err
			}
			t.Columns[j] = append(t.Columns[j], v)
		}
	}

	if t.step, err = signal.ValidateGrid(t.Time, cfg.tol); err != nil {
		return nil, fmt.Errorf("dataio: time column %q: %w", header[timeIdx], err)
	}
	return t, nil
}

func parseField(s string, line int, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("dataio: line %d column %q: %w", line, column, core.ErrDomain)
	}
	if !core.IsFinite(v) {
		return 0, fmt.Errorf("dataio: line %d column %q: %v: %w", line, column, v, core.ErrNonFinite)
	}
	return v, nil
}

func columnIndex(header []string, ref string) (int, error) {
	for i, name := range header {
		if name == ref {
			return i, nil
		}
	}
	if i, err := strconv.Atoi(ref); err == nil && i >= 0 && i < len(header) {
		return i, nil
	}
	return 0, fmt.Errorf("%w %q (have %s)", ErrUnknownColumn, ref, strings.Join(header, ", "))
}

// ReadFile opens path and parses it with ReadCSV.
func ReadFile(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.New(err)
	}
	defer f.Close()

	t, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("%s: %w", path, err))
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Time) }

// Step returns the mean sampling step of the time column.
func (t *Table) Step() float64 { return t.step }

// Column returns a copy of the named column. A numeric reference selects a
// value column by zero-based index among the value columns.
func (t *Table) Column(ref string) ([]float64, error) {
	i, err := columnIndex(t.Names, ref)
	if err != nil {
		return nil, err
	}
	return core.Clone(t.Columns[i]), nil
}

// ColumnName resolves a column reference to its header.
func (t *Table) ColumnName(ref string) (string, error) {
	i, err := columnIndex(t.Names, ref)
	if err != nil {
		return "", err
	}
	return t.Names[i], nil
}

// Series returns the referenced column as a uniform series starting at the
// first time stamp.
func (t *Table) Series(ref string) (signal.Series, error) {
	x, err := t.Column(ref)
	if err != nil {
		return signal.Series{}, err
	}
	return signal.Uniform(x, t.Time[0], t.step)
}

// WriteCSV writes the series as columns next to a time column taken from
// the first series. All series must have the same length.
func WriteCSV(w io.Writer, names []string, series []signal.Series) error {
	if len(names) != len(series) || len(series) == 0 {
		return fmt.Errorf("dataio: %d names for %d series: %w", len(names), len(series), core.ErrShapeMismatch)
	}
	n := series[0].Len()
	for i, s := range series {
		if s.Len() != n {
			return fmt.Errorf("dataio: series %q has %d samples, want %d: %w", names[i], s.Len(), n, core.ErrShapeMismatch)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{DefaultTimeColumn}, names...)); err != nil {
		return err
	}

	times := series[0].Times()
	values := make([][]float64, len(series))
	for i, s := range series {
		values[i] = s.Values()
	}

	rec := make([]string, len(series)+1)
	for k := range n {
		rec[0] = strconv.FormatFloat(times[k], 'g', -1, 64)
		for i := range values {
			rec[i+1] = strconv.FormatFloat(values[i][k], 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the series to path with WriteCSV.
func WriteFile(path string, names []string, series []signal.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.New(err)
	}
	if err := WriteCSV(f, names, series); err != nil {
		f.Close()
		return xerrors.New(err)
	}
	if err := f.Close(); err != nil {
		return xerrors.New(err)
	}
	return nil
}
