// Package mssql implements a Microsoft SQL Server storage.Store using the
// go-mssqldb bulk copy API. A replace drops and recreates the table and then
// bulk-copies the rows in, all in one transaction.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"ontime/internal/dataset"
	"ontime/internal/etlerr"
	"ontime/internal/storage"
	msddl "ontime/internal/storage/mssql/ddl"
)

// invalidObjectName is the SQL Server error number for a missing table.
const invalidObjectName = 208

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string // sqlserver:// URL or ADO-style connection string
}

// Repository is an MSSQL-backed implementation of storage.Store.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. Both DSN parse failures and a failed ping surface as
// etlerr.ErrStoreUnavailable.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func() error, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mssql: %w: DSN must not be empty", etlerr.ErrStoreUnavailable)
	}
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql: ping: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	r := &Repository{db: db, cfg: cfg}
	return r, r.Close, nil
}

// ReplaceTable implements storage.Store.
func (r *Repository) ReplaceTable(ctx context.Context, d *dataset.Dataset, table string) (int64, error) {
	if err := storage.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	if d == nil || len(d.Columns) == 0 {
		return 0, fmt.Errorf("mssql: replace %s: dataset has no columns", table)
	}
	createSQL, err := msddl.CreateTableSQL(table, d)
	if err != nil {
		return 0, fmt.Errorf("mssql: replace %s: %w", table, err)
	}
	dropSQL, err := msddl.DropTableSQL(table)
	if err != nil {
		return 0, fmt.Errorf("mssql: replace %s: %w", table, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	// Serializes concurrent replaces of the same table; released at commit.
	if _, err := tx.ExecContext(ctx,
		"EXEC sp_getapplock @Resource = @p1, @LockMode = 'Exclusive', @LockOwner = 'Transaction'",
		"ontime:"+table,
	); err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: lock %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, dropSQL); err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: create %s: %w", table, err)
	}

	var copied int64
	if d.Len() > 0 {
		copied, err = bulkCopy(ctx, tx, table, d)
		if err != nil {
			rollback()
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return copied, nil
}

// bulkCopy streams d's rows into table through the TDS bulk-load protocol.
func bulkCopy(ctx context.Context, tx *sql.Tx, table string, d *dataset.Dataset) (int64, error) {
	width := len(d.Columns)
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{Tablock: true}, d.Names()...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i, row := range d.Rows {
		if len(row) != width {
			_ = stmt.Close()
			return 0, fmt.Errorf("mssql: row %d has %d values, want %d", i, len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// CountRows implements storage.Store.
func (r *Repository) CountRows(ctx context.Context, table string) (int64, error) {
	if err := storage.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	var n int64
	q := "SELECT COUNT_BIG(*) FROM " + msddl.QuoteIdent(table)
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		var msErr mssql.Error
		if errors.As(err, &msErr) && msErr.Number == invalidObjectName {
			return 0, fmt.Errorf("mssql: table %s: %w", table, etlerr.ErrNoSuchTable)
		}
		return 0, fmt.Errorf("mssql: count %s: %w", table, err)
	}
	return n, nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	if r != nil && r.db != nil {
		return r.db.Close()
	}
	return nil
}

var _ storage.Store = (*Repository)(nil)
