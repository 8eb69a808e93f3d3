// Package postgres implements a Postgres storage.Store using pgx v5. A replace
// drops and recreates the table and then streams rows in with COPY, all in
// one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ontime/internal/dataset"
	"ontime/internal/etlerr"
	"ontime/internal/storage"
	pgddl "ontime/internal/storage/postgres/ddl"
)

// undefinedTable is the SQLSTATE Postgres returns for a missing relation.
const undefinedTable = "42P01"

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Store.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. The pool is pinged so an unreachable server fails here with
// etlerr.ErrStoreUnavailable rather than on first use.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func() error, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: %w: DSN must not be empty", etlerr.ErrStoreUnavailable)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w: %w", etlerr.ErrStoreUnavailable, err)
	}
	r := &Repository{pool: pool, cfg: cfg}
	return r, r.Close, nil
}

// ReplaceTable implements storage.Store.
func (r *Repository) ReplaceTable(ctx context.Context, d *dataset.Dataset, table string) (int64, error) {
	if err := storage.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	if d == nil || len(d.Columns) == 0 {
		return 0, fmt.Errorf("postgres: replace %s: dataset has no columns", table)
	}
	createSQL, err := pgddl.CreateTableSQL(table, d)
	if err != nil {
		return 0, fmt.Errorf("postgres: replace %s: %w", table, err)
	}
	dropSQL, err := pgddl.DropTableSQL(table)
	if err != nil {
		return 0, fmt.Errorf("postgres: replace %s: %w", table, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes concurrent replaces of the same table; released at commit.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", table); err != nil {
		return 0, fmt.Errorf("postgres: lock %s: %w", table, pgDetail(err))
	}
	if _, err := tx.Exec(ctx, dropSQL); err != nil {
		return 0, fmt.Errorf("postgres: drop %s: %w", table, pgDetail(err))
	}
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("postgres: create %s: %w", table, pgDetail(err))
	}

	var copied int64
	if d.Len() > 0 {
		copied, err = tx.CopyFrom(ctx, pgx.Identifier{table}, d.Names(), pgx.CopyFromRows(d.Rows))
		if err != nil {
			return 0, fmt.Errorf("postgres: copy into %s: %w", table, pgDetail(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", pgDetail(err))
	}
	return copied, nil
}

// CountRows implements storage.Store.
func (r *Repository) CountRows(ctx context.Context, table string) (int64, error) {
	if err := storage.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	var n int64
	q := "SELECT COUNT(*) FROM " + pgx.Identifier{table}.Sanitize()
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == undefinedTable {
			return 0, fmt.Errorf("postgres: table %s: %w", table, etlerr.ErrNoSuchTable)
		}
		return 0, fmt.Errorf("postgres: count %s: %w", table, err)
	}
	return n, nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	if r != nil && r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// pgDetail surfaces the server's detail text, which pgx leaves out of
// Error(), while keeping the original error in the chain.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s)", err, pgErr.Detail)
	}
	return err
}

var _ storage.Store = (*Repository)(nil)
