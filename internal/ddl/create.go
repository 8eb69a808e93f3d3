// internal/ddl/create.go

// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render the DROP/CREATE pair used to replace a table.
//
// Identifiers are rendered with ANSI double quotes, which both SQLite and
// Postgres accept. Backend packages (internal/storage/sqlite/ddl,
// internal/storage/postgres/ddl) supply the type mapping and reuse these
// renderers.
package ddl

import (
	"fmt"
	"strings"

	"ontime/internal/dataset"
)

// KindMapper maps a dataset column kind to a backend SQL type.
type KindMapper func(dataset.Kind) string

// FromDataset derives a TableDef for d. Every column is nullable because empty
// source cells load as NULL.
func FromDataset(table string, d *dataset.Dataset, mapKind KindMapper) TableDef {
	cols := make([]ColumnDef, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = ColumnDef{
			Name:     c.Name,
			SQLType:  mapKind(c.Kind),
			Nullable: true,
		}
	}
	return TableDef{FQN: table, Columns: cols}
}

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty; dotted names are quoted per segment.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     "<Name>" <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//     where NOT NULL is added when Nullable == false.
//
//   - Columns with PrimaryKey == true are collected into a trailing
//     PRIMARY KEY ("<col1>", ...) clause.
//
// There is no IF NOT EXISTS: the caller drops the table first.
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			// Default is emitted as raw SQL expression.
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		QuoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	return "DROP TABLE IF EXISTS " + QuoteFQN(fqn) + ";", nil
}

// BuildInsertSQL renders INSERT INTO "t" ("c1", ...) VALUES (?, ...) with
// one positional placeholder per column. placeholder(i) receives the 1-based
// column position so backends can emit ?, $1, etc.
func BuildInsertSQL(fqn string, columns []string, placeholder func(i int) string) string {
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
		marks[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(fqn), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

// QuoteIdent double-quotes one identifier, doubling embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes each segment of a possibly qualified name, ignoring empty
// segments: "main.events" -> "main"."events".
func QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}
