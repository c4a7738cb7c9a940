// Package curated persists the cleaned frame as a Parquet snapshot, the
// dimension file the warehouse loads from.
package curated

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"hospetl/internal/duckio"
	"hospetl/internal/frame"
	"hospetl/internal/schema"
)

// WriteError reports an output I/O or snapshot-engine failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// WriteParquet writes the curated frame to path as Parquet, creating parent
// directories as needed and overwriting any existing file.
//
// The frame is materialized into an in-memory DuckDB table typed from the
// contract, then COPYd out in Parquet format. Re-running replaces the file;
// it never accumulates duplicates.
func WriteParquet(ctx context.Context, f *frame.Frame, c schema.Contract, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	cols := schema.CuratedColumns(c, f.Columns)
	names := make([]string, len(cols))
	types := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
		types[i] = col.Type
	}

	db, err := duckio.Open(ctx, "")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer db.Close()

	const staging = "curated_snapshot"
	if _, err := db.ExecContext(ctx, duckio.CreateTableSQL(staging, names, types)); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if _, err := duckio.InsertRows(ctx, db, staging, names, f.Rows); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := duckio.CopyToParquet(ctx, db, "SELECT * FROM "+duckio.QuoteIdent(staging), path); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if sum, err := Fingerprint(path); err == nil {
		log.Printf("curated: path=%s rows=%d cols=%d xxh3=%016x", path, f.RowCount(), f.ColCount(), sum)
	} else {
		log.Printf("curated: path=%s rows=%d cols=%d (fingerprint failed: %v)", path, f.RowCount(), f.ColCount(), err)
	}
	return nil
}
