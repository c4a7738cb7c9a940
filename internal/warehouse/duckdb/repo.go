// Package duckdb is the default warehouse backend. The DSN is a database
// file path ("" opens an in-memory database, which is useful in tests).
//
// It implements the Parquet capabilities: the warehouse load step ingests the
// curated snapshot with read_parquet instead of row-by-row inserts, and the
// KPI exporter can COPY a query result straight to Parquet.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"hospetl/internal/duckio"
	"hospetl/internal/schema"
	"hospetl/internal/warehouse"
)

// test seam
var openDB = duckio.Open

// Repository talks to one DuckDB database file.
type Repository struct {
	db    *sql.DB
	table string
	dsn   string
}

var (
	_ warehouse.Repository      = (*Repository)(nil)
	_ warehouse.ParquetLoader   = (*Repository)(nil)
	_ warehouse.ParquetExporter = (*Repository)(nil)
)

// NewRepository opens (and creates, if needed) the DuckDB database at
// cfg.DSN.
func NewRepository(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	db, err := openDB(ctx, cfg.DSN)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "duckdb", DSN: cfg.DSN, Err: err}
	}
	return &Repository{db: db, table: cfg.Table, dsn: cfg.DSN}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context, cols []schema.Column) error {
	names := make([]string, len(cols))
	types := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		types[i] = c.Type
	}
	if _, err := r.db.ExecContext(ctx, duckio.CreateTableSQL(r.table, names, types)); err != nil {
		return &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}
	return nil
}

func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := duckio.InsertRows(ctx, r.db, r.table, columns, rows)
	if err != nil {
		return n, &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}
	return n, nil
}

// LoadParquet replaces the dimension table with the contents of the Parquet
// file at path.
func (r *Repository) LoadParquet(ctx context.Context, path string) (int64, error) {
	if _, err := r.db.ExecContext(ctx, duckio.LoadParquetSQL(r.table, path)); err != nil {
		return 0, &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}

	var n int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", duckio.QuoteIdent(r.table))
	if err := r.db.QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}
	log.Printf("warehouse: backend=duckdb table=%s loaded_rows=%d", r.table, n)
	return n, nil
}

// ExportParquet writes the result of query to dest as Parquet.
func (r *Repository) ExportParquet(ctx context.Context, query, dest string) error {
	if err := duckio.CopyToParquet(ctx, r.db, query, dest); err != nil {
		return &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}
	return nil
}

func (r *Repository) Query(ctx context.Context, query string) (*warehouse.Result, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}
	defer rows.Close()
	res, err := warehouse.ScanResult(rows)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "duckdb", DSN: r.dsn, Err: err}
	}
	return res, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func init() {
	warehouse.Register("duckdb", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}
