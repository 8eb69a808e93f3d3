// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "ontime/internal/dataset"

// MapKind maps an inferred column kind to a Postgres column type. Integers are
// 64-bit to match the parser's int64 cells.
func MapKind(k dataset.Kind) string {
	switch k {
	case dataset.Integer:
		return "BIGINT"
	case dataset.Real:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}
