// Package sqlite implements a SQLite-backed storage.Store using database/sql
// and the pure-Go modernc.org/sqlite driver.
//
// A replace runs as one transaction: drop, create, then a prepared INSERT per
// row. SQLite DDL is transactional, so a failed replace leaves the previous
// table in place. Replaces against the same file are serialized with an
// advisory lock on "<path>.lock".
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ontime/internal/dataset"
	"ontime/internal/etlerr"
	"ontime/internal/storage"
	sqliteddl "ontime/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Store.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database at cfg.Path and returns a Repository plus
// a Close function for cleanup. Any failure to reach a usable database wraps
// etlerr.ErrStoreUnavailable.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func() error, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, nil, fmt.Errorf("sqlite: %w: database path must not be empty", etlerr.ErrStoreUnavailable)
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.ReadOnly && !cfg.inMemory() {
		if _, err := os.Stat(cfg.Path); errors.Is(err, fs.ErrNotExist) {
			// Nothing to read; opening would create the file.
			return &Repository{cfg: cfg}, func() error { return nil }, nil
		}
	}

	if !cfg.inMemory() && !cfg.ReadOnly {
		dir := filepath.Dir(cfg.Path)
		fi, err := os.Stat(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w: %w", etlerr.ErrStoreUnavailable, err)
		}
		if !fi.IsDir() {
			return nil, nil, fmt.Errorf("sqlite: %w: %s is not a directory", etlerr.ErrStoreUnavailable, dir)
		}
		if err := writable(dir); err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w: directory %s: %w", etlerr.ErrStoreUnavailable, dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	// One connection keeps ":memory:" databases alive across calls and makes
	// PRAGMAs stick.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d;", cfg.BusyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: %s: %w: %w", pragma, etlerr.ErrStoreUnavailable, err)
	}

	r := &Repository{db: db, cfg: cfg}
	return r, r.Close, nil
}

// ReplaceTable implements storage.Store.
func (r *Repository) ReplaceTable(ctx context.Context, d *dataset.Dataset, table string) (int64, error) {
	if err := storage.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	if r.cfg.ReadOnly {
		return 0, fmt.Errorf("sqlite: replace %s: %s is opened read-only", table, r.cfg.Path)
	}
	if d == nil || len(d.Columns) == 0 {
		return 0, fmt.Errorf("sqlite: replace %s: dataset has no columns", table)
	}

	createSQL, err := sqliteddl.CreateTableSQL(table, d)
	if err != nil {
		return 0, fmt.Errorf("sqlite: replace %s: %w", table, err)
	}
	dropSQL, err := sqliteddl.DropTableSQL(table)
	if err != nil {
		return 0, fmt.Errorf("sqlite: replace %s: %w", table, err)
	}

	if !r.cfg.inMemory() {
		lock, err := acquireLock(ctx, r.cfg.Path+".lock")
		if err != nil {
			return 0, fmt.Errorf("sqlite: lock %s: %w", r.cfg.Path, err)
		}
		defer lock.release()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, dropSQL); err != nil {
		return 0, fmt.Errorf("sqlite: drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("sqlite: create %s: %w", table, err)
	}

	inserted, err := insertRows(ctx, tx, sqliteddl.InsertSQL(table, d.Names()), d)
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, insertSQL string, d *dataset.Dataset) (int64, error) {
	if d.Len() == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return inserted, fmt.Errorf("row %d: length %d != columns length %d", i, len(row), len(d.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, fmt.Errorf("row %d: %w", i, err)
		}
		inserted++
	}
	return inserted, nil
}

// CountRows implements storage.Store.
func (r *Repository) CountRows(ctx context.Context, table string) (int64, error) {
	if err := storage.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	if r.db == nil {
		return 0, fmt.Errorf("sqlite: table %s: %w: %s does not exist", table, etlerr.ErrNoSuchTable, r.cfg.Path)
	}

	var present int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ? COLLATE NOCASE`,
		table,
	).Scan(&present)
	if err != nil {
		return 0, fmt.Errorf("sqlite: lookup %s: %w", table, err)
	}
	if present == 0 {
		return 0, fmt.Errorf("sqlite: table %s: %w", table, etlerr.ErrNoSuchTable)
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, sqliteddl.CountSQL(table)).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("sqlite: count %s: %w", table, err)
	}
	return n, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

var _ storage.Store = (*Repository)(nil)
