package csv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	pcsv "ontime/internal/parser/csv"

	"ontime/internal/dataset"
	"ontime/internal/etlerr"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return p
}

// TestLoadReadsFile mirrors the minimal scenario: one header, one data row.
func TestLoadReadsFile(t *testing.T) {
	t.Parallel()

	d, err := pcsv.Load(context.Background(), writeFile(t, "a,b\n1,2"), pcsv.Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if got, want := d.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	if got, want := d.Rows[0], []any{int64(1), int64(2)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("row = %#v, want %#v", got, want)
	}
}

func TestLoadMissingFileIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := pcsv.Load(context.Background(), filepath.Join(t.TempDir(), "non_existent.csv"), pcsv.Options{})
	if !errors.Is(err, etlerr.ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadDirectoryIsNotFound(t *testing.T) {
	t.Parallel()

	_, err := pcsv.Load(context.Background(), t.TempDir(), pcsv.Options{})
	if !errors.Is(err, etlerr.ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

// TestParseKinds checks per-column inference and cell conversion.
func TestParseKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		opt       pcsv.Options
		wantKinds []dataset.Kind
		wantRows  [][]any
	}{
		{
			name:      "integers",
			in:        "n\n1\n-2\n30",
			wantKinds: []dataset.Kind{dataset.Integer},
			wantRows:  [][]any{{int64(1)}, {int64(-2)}, {int64(30)}},
		},
		{
			name:      "ints and floats widen to real",
			in:        "x\n1\n2.5\n1e3",
			wantKinds: []dataset.Kind{dataset.Real},
			wantRows:  [][]any{{1.0}, {2.5}, {1000.0}},
		},
		{
			name:      "mixed falls back to text",
			in:        "x\n1\nabc",
			wantKinds: []dataset.Kind{dataset.Text},
			wantRows:  [][]any{{"1"}, {"abc"}},
		},
		{
			name:      "empty cells are null and ignored for inference",
			in:        "a,b\n1,\n,x",
			wantKinds: []dataset.Kind{dataset.Integer, dataset.Text},
			wantRows:  [][]any{{int64(1), nil}, {nil, "x"}},
		},
		{
			name:      "all empty column is text",
			in:        "a,b\n1,\n2,",
			wantKinds: []dataset.Kind{dataset.Integer, dataset.Text},
			wantRows:  [][]any{{int64(1), nil}, {int64(2), nil}},
		},
		{
			name:      "numeric detection ignores padding",
			in:        "a\n 7 \n8",
			wantKinds: []dataset.Kind{dataset.Integer},
			wantRows:  [][]any{{int64(7)}, {int64(8)}},
		},
		{
			name:      "text kept verbatim without trim",
			in:        "a\n x \n",
			wantKinds: []dataset.Kind{dataset.Text},
			wantRows:  [][]any{{" x "}},
		},
		{
			name:      "text trimmed with TrimSpace",
			in:        "a\n x \n",
			opt:       pcsv.Options{TrimSpace: true},
			wantKinds: []dataset.Kind{dataset.Text},
			wantRows:  [][]any{{"x"}},
		},
		{
			name:      "custom delimiter",
			in:        "a;b\n1;z",
			opt:       pcsv.Options{Comma: ';'},
			wantKinds: []dataset.Kind{dataset.Integer, dataset.Text},
			wantRows:  [][]any{{int64(1), "z"}},
		},
		{
			name:      "quoted comma stays in cell",
			in:        "name,qty\n\"Delta, Inc.\",3",
			wantKinds: []dataset.Kind{dataset.Text, dataset.Integer},
			wantRows:  [][]any{{"Delta, Inc.", int64(3)}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := pcsv.NewParser(tt.opt).Parse(context.Background(), strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			kinds := make([]dataset.Kind, len(d.Columns))
			for i, c := range d.Columns {
				kinds[i] = c.Kind
			}
			if !reflect.DeepEqual(kinds, tt.wantKinds) {
				t.Fatalf("kinds = %v, want %v", kinds, tt.wantKinds)
			}
			if !reflect.DeepEqual(d.Rows, tt.wantRows) {
				t.Fatalf("rows = %#v, want %#v", d.Rows, tt.wantRows)
			}
		})
	}
}

// TestParseHeaderKeptVerbatim verifies labels are not rewritten at load time
// (normalization is a separate step) and that duplicates are allowed.
func TestParseHeaderKeptVerbatim(t *testing.T) {
	t.Parallel()

	d, err := pcsv.NewParser(pcsv.Options{}).Parse(context.Background(),
		strings.NewReader("\uFEFF Airline Delay (%) ,A B,A B\n1,2,3"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{" Airline Delay (%) ", "A B", "A B"}
	if got := d.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %q, want %q", got, want)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	t.Parallel()

	d, err := pcsv.NewParser(pcsv.Options{}).Parse(context.Background(), strings.NewReader("a,b\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.Len() != 0 || len(d.Columns) != 2 {
		t.Fatalf("got %d rows / %d columns, want 0 / 2", d.Len(), len(d.Columns))
	}
}

// TestParseMalformed covers the rejection policy: ragged rows, broken quoting
// and empty input all fail with ErrMalformedInput.
func TestParseMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		in           string
		wantContains string
	}{
		{name: "empty input", in: "", wantContains: "empty input"},
		{name: "short row", in: "a,b\n1,2\n3\n", wantContains: "line 3"},
		{name: "long row", in: "a,b\n1,2,3\n", wantContains: "expected 2 fields, got 3"},
		{name: "bare quote", in: "a,b\n1,x\"y\n", wantContains: "read csv row"},
		{name: "unterminated quote", in: "a,b\n1,\"open\n", wantContains: "read csv row"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := pcsv.NewParser(pcsv.Options{}).Parse(context.Background(), strings.NewReader(tt.in))
			if !errors.Is(err, etlerr.ErrMalformedInput) {
				t.Fatalf("Parse() error = %v, want ErrMalformedInput", err)
			}
			if !strings.Contains(err.Error(), tt.wantContains) {
				t.Fatalf("error %q does not contain %q", err, tt.wantContains)
			}
		})
	}
}
