// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "ontime/internal/dataset"

// MapKind maps an inferred column kind to a SQLite storage class. SQLite uses
// dynamic typing, so these are column affinities rather than hard types.
func MapKind(k dataset.Kind) string {
	switch k {
	case dataset.Integer:
		return "INTEGER"
	case dataset.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}
