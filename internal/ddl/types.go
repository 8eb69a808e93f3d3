package ddl

// ColumnDef is one column of a rendered table. Name is unquoted; renderers
// quote it. SQLType is already dialect-specific (see the MapKind functions
// under internal/storage/*/ddl).
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool

	// PrimaryKey and Default are honored by BuildCreateTableSQL but never set
	// by FromDataset: loaded tables carry neither.
	PrimaryKey bool
	Default    string // raw SQL expression
}

// TableDef is a table name plus its ordered columns. FQN may be dotted
// ("main.events"); the pipeline itself only ever passes a bare identifier.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
