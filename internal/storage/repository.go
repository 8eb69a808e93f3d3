// Package storage contains storage-agnostic contracts and the backend
// registry. Concrete backends (sqlite, postgres) register a Factory from
// their init functions; importing internal/storage/all enables every one.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ontime/internal/dataset"
)

// Store persists a dataset as a named relation and counts rows in it.
//
// ReplaceTable drops any relation with the same name, creates a new one whose
// columns match d, inserts every row and returns the number inserted. It is
// all-or-nothing: on failure the previous relation is left as it was.
//
// CountRows returns the row count of table, or an error wrapping
// etlerr.ErrNoSuchTable when the relation does not exist.
type Store interface {
	ReplaceTable(ctx context.Context, d *dataset.Dataset, table string) (int64, error)
	CountRows(ctx context.Context, table string) (int64, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is backend specific: a database file path for sqlite, a connection
	// string for postgres and mssql.
	DSN string

	// ReadOnly asks for a handle that never writes. The sqlite backend then
	// opens an existing file with mode=ro and never creates one; server
	// backends ignore it.
	ReadOnly bool
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind. It is typically
// called from backend packages' init() functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New constructs a Store using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered backend names.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
