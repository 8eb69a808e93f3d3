package ddl

import (
	"ontime/internal/dataset"
	gddl "ontime/internal/ddl"
)

// CreateTableSQL renders the CREATE TABLE statement for d stored as table.
func CreateTableSQL(table string, d *dataset.Dataset) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromDataset(table, d, MapKind))
}

// DropTableSQL renders DROP TABLE IF EXISTS for table.
func DropTableSQL(table string) (string, error) {
	return gddl.BuildDropTableSQL(table)
}
