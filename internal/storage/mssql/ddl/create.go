package ddl

import (
	"fmt"
	"strings"

	"ontime/internal/dataset"
	gddl "ontime/internal/ddl"
)

// CreateTableSQL renders a T-SQL CREATE TABLE for d stored as table, with
// [bracket] quoting for every identifier:
//
//	CREATE TABLE [table] (
//	  [col1] BIGINT,
//	  [col2] NVARCHAR(MAX)
//	);
func CreateTableSQL(table string, d *dataset.Dataset) (string, error) {
	t := gddl.FromDataset(table, d, MapKind)
	if strings.TrimSpace(t.FQN) == "" {
		return "", fmt.Errorf("mssql ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("mssql ddl: column with empty name in table %s", t.FQN)
		}
		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(c.SQLType)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", QuoteIdent(t.FQN), strings.Join(cols, ",\n  ")), nil
}

// DropTableSQL renders DROP TABLE IF EXISTS (SQL Server 2016 and later).
func DropTableSQL(table string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("mssql ddl: table name must not be empty")
	}
	return "DROP TABLE IF EXISTS " + QuoteIdent(table) + ";", nil
}

// QuoteIdent quotes a single identifier for SQL Server using bracket syntax,
// escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
