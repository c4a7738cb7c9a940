// Package warehouse contains the backend-agnostic contract for the
// analytical store the curated table is loaded into.
//
// Concrete backends (DuckDB, SQLite, Postgres) live in subpackages and
// register themselves with the factory in their init functions; importing
// warehouse/all (typically as a blank import in the CLI layer) makes every
// built-in backend available. The rest of the pipeline depends only on the
// Repository interface and never imports a database driver directly.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hospetl/internal/schema"
)

// Config selects and configures a warehouse backend.
type Config struct {
	// Kind names the registered backend: "duckdb", "sqlite", "postgres".
	Kind string

	// DSN is the connection string or database file path.
	DSN string

	// Table is the dimension table the curated frame is loaded into.
	Table string
}

// Result is a fully-materialized query result. Cell values are normalized to
// string, int64, float64, bool, or nil.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Repository is the minimal surface the pipeline needs from a warehouse.
//
// EnsureSchema drops and recreates the dimension table; a re-run therefore
// replaces the table contents rather than appending (single-writer,
// full-refresh semantics). CopyFrom bulk-inserts rows aligned to columns.
type Repository interface {
	EnsureSchema(ctx context.Context, cols []schema.Column) error
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Query(ctx context.Context, query string) (*Result, error)
	Close() error
}

// ParquetLoader is an optional capability: backends that can ingest the
// curated Parquet snapshot directly implement it, and the warehouse load step
// prefers it over EnsureSchema+CopyFrom.
type ParquetLoader interface {
	LoadParquet(ctx context.Context, path string) (int64, error)
}

// ParquetExporter is an optional capability: backends that can write a query
// result as Parquet implement it. The KPI exporter uses it for the designated
// columnar KPI copy and skips that copy (with an INFO log) otherwise.
type ParquetExporter interface {
	ExportParquet(ctx context.Context, query, dest string) error
}

// WarehouseError reports a warehouse that could not be opened, locked, or
// written.
type WarehouseError struct {
	Kind string
	DSN  string
	Err  error
}

func (e *WarehouseError) Error() string {
	return fmt.Sprintf("warehouse %s (%s): %v", e.Kind, e.DSN, e.Err)
}
func (e *WarehouseError) Unwrap() error { return e.Err }

// Factory constructs a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = make(map[string]Factory)
)

// Register registers (or replaces) the factory for a backend kind. It is
// called from backend package init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for the configured kind. Unknown kinds report the
// registered alternatives.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported warehouse kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
