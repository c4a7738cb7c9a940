// Package sqlite is a file-backed warehouse backend on modernc.org/sqlite
// (pure Go, no cgo). It has no Parquet support, so the warehouse load step
// falls back to EnsureSchema+CopyFrom and the KPI exporter skips the columnar
// copy.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"hospetl/internal/schema"
	"hospetl/internal/warehouse"
)

// Repository talks to one SQLite database file.
type Repository struct {
	db    *sql.DB
	table string
	dsn   string
}

var _ warehouse.Repository = (*Repository)(nil)

// NewRepository opens (and creates, if needed) the SQLite database at
// cfg.DSN.
func NewRepository(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "sqlite", DSN: cfg.DSN, Err: err}
	}
	// A single writer is assumed; keep one connection so DDL and inserts
	// share the same session.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &warehouse.WarehouseError{Kind: "sqlite", DSN: cfg.DSN, Err: err}
	}
	return &Repository{db: db, table: cfg.Table, dsn: cfg.DSN}, nil
}

func sqlType(t string) string {
	switch t {
	case "int", "bool":
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EnsureSchema drops and recreates the dimension table so a re-run replaces
// the previous load.
func (r *Repository) EnsureSchema(ctx context.Context, cols []schema.Column) error {
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(r.table))
	if _, err := r.db.ExecContext(ctx, drop); err != nil {
		return &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c.Name) + " " + sqlType(c.Type)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(r.table), strings.Join(defs, ", "))
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}
	return nil
}

func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(r.table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}
	defer stmt.Close()

	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return n, &warehouse.WarehouseError{
				Kind: "sqlite", DSN: r.dsn,
				Err: fmt.Errorf("row width %d does not match %d columns", len(row), len(columns)),
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}
	return n, nil
}

func (r *Repository) Query(ctx context.Context, query string) (*warehouse.Result, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}
	defer rows.Close()
	res, err := warehouse.ScanResult(rows)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "sqlite", DSN: r.dsn, Err: err}
	}
	return res, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func init() {
	warehouse.Register("sqlite", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}
