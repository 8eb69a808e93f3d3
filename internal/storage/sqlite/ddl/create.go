package ddl

import (
	gddl "ontime/internal/ddl"

	"ontime/internal/dataset"
)

// CreateTableSQL renders the CREATE TABLE statement for d stored as table.
// Every column is nullable; empty CSV cells arrive as NULL.
func CreateTableSQL(table string, d *dataset.Dataset) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromDataset(table, d, MapKind))
}

// InsertSQL renders a single-row INSERT with "?" placeholders.
func InsertSQL(table string, columns []string) string {
	return gddl.BuildInsertSQL(table, columns, func(int) string { return "?" })
}

// DropTableSQL renders DROP TABLE IF EXISTS for table.
func DropTableSQL(table string) (string, error) {
	return gddl.BuildDropTableSQL(table)
}

// CountSQL renders the row count query for table.
func CountSQL(table string) string {
	return "SELECT COUNT(*) FROM " + gddl.QuoteIdent(table)
}
