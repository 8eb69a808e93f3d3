package builtin

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"ontime/internal/dataset"
	"ontime/internal/etlerr"
)

func ds(labels ...string) *dataset.Dataset {
	cols := make([]dataset.Column, len(labels))
	row := make([]any, len(labels))
	for i, l := range labels {
		cols[i] = dataset.Column{Name: l, Kind: dataset.Integer}
		row[i] = int64(i + 1)
	}
	return &dataset.Dataset{Columns: cols, Rows: [][]any{row}}
}

/*
TestNormalizeLabel_TableDriven verifies the rewrite order: trim, lowercase,
space to underscore, then drop everything outside [A-Za-z0-9_].
*/
func TestNormalizeLabel_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: " Airline Delay (%) ", want: "airline_delay_"},
		{in: "Carrier Delay (%)", want: "carrier_delay_"},
		{in: "  Flight Number ", want: "flight_number"},
		{in: "arr_flights", want: "arr_flights"},
		{in: "A/B", want: "ab"},
		{in: "A B", want: "a_b"},
		{in: "a  b", want: "a__b"},
		{in: "tab\tinside", want: "tabinside"},
		{in: "Číslo", want: "slo"},
		{in: "year-2024", want: "year2024"},
		{in: "(%)", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeLabel(tt.in); got != tt.want {
				t.Fatalf("NormalizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalizeColumnsOrderAndRows checks that labels keep their order and
// that row data is untouched.
func TestNormalizeColumnsOrderAndRows(t *testing.T) {
	t.Parallel()

	in := ds("Carrier Delay (%)", "  Flight Number ")
	out, err := NormalizeColumns{}.Apply(in)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, want := out.Names(), []string{"carrier_delay_", "flight_number"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(out.Rows, in.Rows) {
		t.Fatalf("rows changed: %v vs %v", out.Rows, in.Rows)
	}
	if out.Columns[0].Kind != dataset.Integer {
		t.Fatalf("kind lost: %v", out.Columns[0].Kind)
	}
}

// TestNormalizeColumnsDoesNotMutateInput verifies the transform is pure.
func TestNormalizeColumnsDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := ds(" Airline Delay (%) ")
	before := in.Fingerprint()

	out, err := NormalizeColumns{}.Apply(in)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if in.Columns[0].Name != " Airline Delay (%) " {
		t.Fatalf("input label mutated to %q", in.Columns[0].Name)
	}
	if in.Fingerprint() != before {
		t.Fatalf("input content changed")
	}

	out.Rows[0][0] = int64(99)
	if in.Rows[0][0] != int64(1) {
		t.Fatalf("output row aliases input row")
	}
	if out.Len() != 1 || len(out.Columns) != 1 {
		t.Fatalf("shape = (%d, %d), want (1, 1)", out.Len(), len(out.Columns))
	}
}

// TestNormalizeColumnsCollisions covers both collision policies.
func TestNormalizeColumnsCollisions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		labels    []string
		policy    CollisionPolicy
		want      []string
		wantErrIs error
		wantMsg   string
	}{
		{
			name:      "reject punctuation collision",
			labels:    []string{"A_B", "A B"},
			policy:    Reject,
			wantErrIs: etlerr.ErrDuplicateColumn,
			wantMsg:   `"A_B" and "A B"`,
		},
		{
			name:      "reject exact duplicates",
			labels:    []string{"x", "X "},
			policy:    Reject,
			wantErrIs: etlerr.ErrDuplicateColumn,
		},
		{
			name:      "reject empty label",
			labels:    []string{"ok", "(%)"},
			policy:    Reject,
			wantErrIs: etlerr.ErrDuplicateColumn,
			wantMsg:   "empty after normalization",
		},
		{
			name:   "suffix renames later duplicates",
			labels: []string{"A_B", "A B", "a b"},
			policy: Suffix,
			want:   []string{"a_b", "a_b_2", "a_b_3"},
		},
		{
			name:   "suffix skips names in use",
			labels: []string{"a", "a_2", "A"},
			policy: Suffix,
			want:   []string{"a", "a_2", "a_3"},
		},
		{
			name:   "suffix synthesizes empty labels",
			labels: []string{"(%)", "b"},
			policy: Suffix,
			want:   []string{"col_1", "b"},
		},
		{
			name:   "no collision under reject",
			labels: []string{"a", "b"},
			policy: Reject,
			want:   []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := NormalizeColumns{Policy: tt.policy}.Apply(ds(tt.labels...))
			if tt.wantErrIs != nil {
				if !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("Apply() error = %v, want %v", err, tt.wantErrIs)
				}
				if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
					t.Fatalf("error %q does not contain %q", err, tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got := out.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Names() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCollisionPolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]CollisionPolicy{"": Reject, "reject": Reject, " Suffix ": Suffix} {
		got, err := ParseCollisionPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseCollisionPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseCollisionPolicy("merge"); err == nil {
		t.Fatalf("ParseCollisionPolicy(merge) error = nil")
	}
}

// BenchmarkNormalizeLabel measures the per-label rewrite cost.
func BenchmarkNormalizeLabel(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = NormalizeLabel(" Airline Delay (%) ")
	}
}
