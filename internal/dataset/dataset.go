// Package dataset holds the in-memory table that flows through a single
// pipeline run: ordered columns with inferred scalar kinds and ordered rows.
package dataset

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Kind is the inferred scalar type of a column.
type Kind int

const (
	// Text columns hold string cells.
	Text Kind = iota
	// Integer columns hold int64 cells.
	Integer
	// Real columns hold float64 cells.
	Real
)

// String returns the lowercase name used in logs and tests.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return "text"
	}
}

// Column is a named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Dataset is an ordered sequence of columns and rows. Each row has exactly
// len(Columns) cells; a cell is nil, int64, float64 or string according to
// its column's Kind.
type Dataset struct {
	Columns []Column
	Rows    [][]any
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Names returns the column labels in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Clone returns a copy whose column and row slices are independent of d.
// Cells are immutable scalars and are shared.
func (d *Dataset) Clone() *Dataset {
	cols := make([]Column, len(d.Columns))
	copy(cols, d.Columns)
	rows := make([][]any, len(d.Rows))
	for i, r := range d.Rows {
		cp := make([]any, len(r))
		copy(cp, r)
		rows[i] = cp
	}
	return &Dataset{Columns: cols, Rows: rows}
}

// Fingerprint returns a 64-bit xxh3 digest over column names, kinds and cell
// values. Two datasets with the same content produce the same fingerprint.
func (d *Dataset) Fingerprint() uint64 {
	h := xxh3.New()
	var num [8]byte
	for _, c := range d.Columns {
		_, _ = h.WriteString(c.Name)
		_, _ = h.Write([]byte{0, byte(c.Kind)})
	}
	for _, r := range d.Rows {
		_, _ = h.Write([]byte{0x1e})
		for _, v := range r {
			switch x := v.(type) {
			case nil:
				_, _ = h.Write([]byte{'n'})
			case int64:
				binary.LittleEndian.PutUint64(num[:], uint64(x))
				_, _ = h.Write([]byte{'i'})
				_, _ = h.Write(num[:])
			case float64:
				binary.LittleEndian.PutUint64(num[:], math.Float64bits(x))
				_, _ = h.Write([]byte{'f'})
				_, _ = h.Write(num[:])
			case string:
				_, _ = h.Write([]byte{'s'})
				_, _ = h.WriteString(strconv.Itoa(len(x)))
				_, _ = h.Write([]byte{':'})
				_, _ = h.WriteString(x)
			}
		}
	}
	return h.Sum64()
}
