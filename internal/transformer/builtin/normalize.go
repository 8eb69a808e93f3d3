package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"ontime/internal/dataset"
	"ontime/internal/etlerr"
)

// CollisionPolicy decides what happens when two source labels normalize to
// the same column name.
type CollisionPolicy int

const (
	// Reject fails with etlerr.ErrDuplicateColumn.
	Reject CollisionPolicy = iota
	// Suffix keeps the first occurrence and renames later ones to name_2,
	// name_3, ... skipping any name already in use.
	Suffix
)

// ParseCollisionPolicy maps "reject" / "suffix" (case-insensitive) to a
// policy. The empty string is Reject.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return Reject, nil
	case "suffix":
		return Suffix, nil
	default:
		return Reject, fmt.Errorf("unknown collision policy %q (want reject or suffix)", s)
	}
}

func (p CollisionPolicy) String() string {
	if p == Suffix {
		return "suffix"
	}
	return "reject"
}

// NormalizeLabel rewrites a raw header label, in this order:
//  1. trim surrounding whitespace
//  2. lowercase
//  3. replace every space with '_'
//  4. drop every rune that is not an ASCII letter, digit or '_'
//
// Punctuation is deleted, not replaced: "Carrier Delay (%)" -> "carrier_delay_".
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeColumns is a transformer.Transformer that rewrites column labels
// with NormalizeLabel and resolves collisions per Policy. Rows are shared
// with the input by value: the returned dataset has its own slices, and the
// input is left untouched.
type NormalizeColumns struct {
	Policy CollisionPolicy
}

// Apply implements transformer.Transformer.
func (n NormalizeColumns) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	out := in.Clone()

	taken := make(map[string]int, len(out.Columns)) // normalized name -> source index
	for i, c := range in.Columns {
		name := NormalizeLabel(c.Name)

		if name == "" {
			if n.Policy == Reject {
				return nil, fmt.Errorf("column %d %q: %w: label is empty after normalization",
					i+1, c.Name, etlerr.ErrDuplicateColumn)
			}
			name = "col_" + strconv.Itoa(i+1)
		}

		if prev, dup := taken[name]; dup {
			if n.Policy == Reject {
				return nil, fmt.Errorf("columns %q and %q: %w: both normalize to %q",
					in.Columns[prev].Name, c.Name, etlerr.ErrDuplicateColumn, name)
			}
			name = nextFree(name, taken)
		}

		taken[name] = i
		out.Columns[i].Name = name
	}
	return out, nil
}

// nextFree returns the first base_N (N >= 2) not present in taken.
func nextFree(base string, taken map[string]int) string {
	for k := 2; ; k++ {
		cand := base + "_" + strconv.Itoa(k)
		if _, used := taken[cand]; !used {
			return cand
		}
	}
}
