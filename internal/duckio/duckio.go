// Package duckio wraps the DuckDB driver behind the handful of operations the
// pipeline needs: opening a database, materializing a frame as a table, and
// COPYing query results to Parquet.
//
// DuckDB is used in two modes: in-memory (curated snapshot writing and the
// benchmark's SQL engine) and file-backed (the default warehouse). Both go
// through database/sql with the marcboeker driver.
package duckio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Open opens a DuckDB database. An empty path opens an in-memory database.
// The connection is pinged with a short timeout so invalid or locked files
// fail fast instead of at first query.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("duckdb open %q: %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb ping %q: %w", path, err)
	}
	return db, nil
}

// SQLType maps the contract's type vocabulary onto DuckDB column types.
func SQLType(t string) string {
	switch t {
	case "int":
		return "BIGINT"
	case "bool":
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}

// QuoteIdent quotes an identifier for DuckDB.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal (used for COPY ... TO paths; file
// paths cannot be bound as statement parameters in COPY).
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CreateTableSQL renders a CREATE OR REPLACE TABLE statement for the given
// columns. Name/Type pairs use the contract vocabulary (text/int/bool).
func CreateTableSQL(table string, names, types []string) string {
	defs := make([]string, len(names))
	for i := range names {
		defs[i] = QuoteIdent(names[i]) + " " + SQLType(types[i])
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", QuoteIdent(table), strings.Join(defs, ", "))
}

// InsertRows inserts rows into table inside a single transaction using a
// prepared statement. Every row must be aligned to columns. It returns the
// number of rows inserted.
func InsertRows(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("duckdb prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return n, fmt.Errorf("duckdb insert: row width %d does not match %d columns", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, fmt.Errorf("duckdb insert row: %w", err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("duckdb commit: %w", err)
	}
	return n, nil
}

// CopyToParquet writes the result of query to dest as a Parquet file,
// overwriting any existing file.
func CopyToParquet(ctx context.Context, db *sql.DB, query, dest string) error {
	copySQL := fmt.Sprintf("COPY (%s) TO %s (FORMAT PARQUET)", query, QuoteLiteral(dest))
	if _, err := db.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("duckdb copy to parquet %s: %w", dest, err)
	}
	return nil
}

// LoadParquetSQL renders the statement that (re)creates table from a Parquet
// file, replacing any previous contents.
func LoadParquetSQL(table, path string) string {
	return fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s)",
		QuoteIdent(table), QuoteLiteral(path),
	)
}
