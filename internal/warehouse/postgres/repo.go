// Package postgres is a server-backed warehouse backend on pgx. Bulk loads
// use the COPY protocol; like sqlite it has no Parquet support, so the
// pipeline falls back to EnsureSchema+CopyFrom and the KPI exporter skips the
// columnar copy.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hospetl/internal/schema"
	"hospetl/internal/warehouse"
)

// Repository talks to one Postgres database via a pgx pool.
type Repository struct {
	pool  *pgxpool.Pool
	table string
	dsn   string
}

var _ warehouse.Repository = (*Repository)(nil)

// NewRepository connects to the Postgres server at cfg.DSN.
func NewRepository(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "postgres", DSN: cfg.DSN, Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, &warehouse.WarehouseError{Kind: "postgres", DSN: cfg.DSN, Err: err}
	}
	return &Repository{pool: pool, table: cfg.Table, dsn: cfg.DSN}, nil
}

func sqlType(t string) string {
	switch t {
	case "int":
		return "BIGINT"
	case "bool":
		return "BOOLEAN"
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
	if _, err := r.pool.Exec(ctx, drop); err != nil {
		return &warehouse.WarehouseError{Kind: "postgres", DSN: r.dsn, Err: err}
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c.Name) + " " + sqlType(c.Type)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(r.table), strings.Join(defs, ", "))
	if _, err := r.pool.Exec(ctx, create); err != nil {
		return &warehouse.WarehouseError{Kind: "postgres", DSN: r.dsn, Err: err}
	}
	return nil
}

// CopyFrom bulk-loads rows with the COPY protocol.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{r.table},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, &warehouse.WarehouseError{Kind: "postgres", DSN: r.dsn, Err: err}
	}
	return n, nil
}

func (r *Repository) Query(ctx context.Context, query string) (*warehouse.Result, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, &warehouse.WarehouseError{Kind: "postgres", DSN: r.dsn, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	res := &warehouse.Result{Columns: make([]string, len(fields))}
	for i, f := range fields {
		res.Columns[i] = f.Name
	}
	for rows.Next() {
		cells, err := rows.Values()
		if err != nil {
			return nil, &warehouse.WarehouseError{Kind: "postgres", DSN: r.dsn, Err: err}
		}
		for i, v := range cells {
			cells[i] = normalizeCell(v)
		}
		res.Rows = append(res.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, &warehouse.WarehouseError{Kind: "postgres", DSN: r.dsn, Err: err}
	}
	return res, nil
}

func normalizeCell(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func init() {
	warehouse.Register("postgres", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}
