// Package csv loads a comma-delimited file into a dataset.Dataset. The first
// record is the header; every later record is a data row. Column kinds are
// inferred per column from the cell contents once the whole file is read.
//
// Ragged rows are rejected: a data row whose field count differs from the
// header fails the load with etlerr.ErrMalformedInput and the offending line
// number. Nothing is padded, truncated or silently skipped.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ontime/internal/datasource"
	"ontime/internal/datasource/file"
	"ontime/internal/dataset"
	"ontime/internal/etlerr"
	"ontime/internal/parser"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from text cells. Numeric
	// detection always ignores surrounding whitespace.
	TrimSpace bool
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

var _ parser.Parser = (*Parser)(nil)

// ctxCheckEvery bounds how many rows are read between context checks.
const ctxCheckEvery = 4096

// Load opens path and parses it. The path is checked here even when the
// caller has already probed it, so a file removed in between still surfaces
// as etlerr.ErrNotFound rather than a generic I/O error.
func Load(ctx context.Context, path string, opt Options) (*dataset.Dataset, error) {
	if !file.Exists(path) {
		return nil, fmt.Errorf("load %s: %w", path, etlerr.ErrNotFound)
	}
	return LoadFrom(ctx, file.NewLocal(path), opt)
}

// LoadFrom parses the content of src.
func LoadFrom(ctx context.Context, src datasource.Source, opt Options) (*dataset.Dataset, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return NewParser(opt).Parse(ctx, rc)
}

// Parse consumes all of r and returns the dataset.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*dataset.Dataset, error) {
	cr := csv.NewReader(stripBOM(r))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced below so the error names the header width.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read csv header: %w: empty input", etlerr.ErrMalformedInput)
	}
	if err != nil {
		return nil, malformed("read csv header", err)
	}

	var raw [][]string
	for n := 1; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed("read csv row", err)
		}
		if len(row) != len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w: expected %d fields, got %d",
				line, etlerr.ErrMalformedInput, len(header), len(row))
		}
		raw = append(raw, row)
	}

	return p.build(header, raw), nil
}

// build infers a kind per column and converts every cell to it.
func (p *Parser) build(header []string, raw [][]string) *dataset.Dataset {
	cols := make([]dataset.Column, len(header))
	for i, h := range header {
		cols[i] = dataset.Column{Name: h, Kind: inferKind(raw, i)}
	}

	rows := make([][]any, len(raw))
	for r, rec := range raw {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = p.convert(cell, cols[i].Kind)
		}
		rows[r] = row
	}
	return &dataset.Dataset{Columns: cols, Rows: rows}
}

// convert maps a raw cell to nil, int64, float64 or string. The kind was
// inferred from the same cells, so numeric parses cannot fail here.
func (p *Parser) convert(cell string, kind dataset.Kind) any {
	trimmed := strings.TrimSpace(cell)
	switch kind {
	case dataset.Integer:
		if trimmed == "" {
			return nil
		}
		n, _ := strconv.ParseInt(trimmed, 10, 64)
		return n
	case dataset.Real:
		if trimmed == "" {
			return nil
		}
		f, _ := strconv.ParseFloat(trimmed, 64)
		return f
	default:
		if cell == "" {
			return nil
		}
		if p.opt.TrimSpace {
			return trimmed
		}
		return cell
	}
}

// inferKind guesses a column kind among integer, real and text.
// Heuristic: require all non-empty values to satisfy a narrower type. A column
// with no non-empty values is text.
func inferKind(raw [][]string, col int) dataset.Kind {
	seen := false
	allInt, allFloat := true, true
	for _, row := range raw {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		seen = true
		if allInt && !isInt(v) {
			allInt = false
		}
		if allFloat && !isFloat(v) {
			allFloat = false
		}
		if !allInt && !allFloat {
			return dataset.Text
		}
	}
	switch {
	case !seen:
		return dataset.Text
	case allInt:
		return dataset.Integer
	case allFloat:
		return dataset.Real
	default:
		return dataset.Text
	}
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat accepts decimal or scientific notation, integers included.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// malformed wraps encoding/csv failures with the taxonomy sentinel while
// keeping the *csv.ParseError (and its line number) reachable.
func malformed(op string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s: %w: %w", op, etlerr.ErrMalformedInput, pe)
	}
	return fmt.Errorf("%s: %w", op, err)
}
