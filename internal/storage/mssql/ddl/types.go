// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import "ontime/internal/dataset"

// MapKind maps an inferred column kind into a SQL Server column type. Text
// is stored as Unicode so non-ASCII cells survive the bulk copy.
func MapKind(k dataset.Kind) string {
	switch k {
	case dataset.Integer:
		return "BIGINT"
	case dataset.Real:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}
