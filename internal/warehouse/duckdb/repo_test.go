package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hospetl/internal/schema"
	"hospetl/internal/warehouse"
)

func requireDuckDB(t *testing.T) {
	t.Helper()
	if os.Getenv("HOSPETL_DUCKDB_TEST") == "" {
		t.Skip("HOSPETL_DUCKDB_TEST not set; skipping DuckDB integration tests")
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), warehouse.Config{
		Kind: "duckdb", DSN: "", Table: "dim_hospital",
	})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCapabilities(t *testing.T) {
	// The duckdb backend must expose both Parquet capabilities; the pipeline
	// selects its fast paths by type assertion.
	var repo any = (*Repository)(nil)
	if _, ok := repo.(warehouse.ParquetLoader); !ok {
		t.Fatalf("*Repository does not implement ParquetLoader")
	}
	if _, ok := repo.(warehouse.ParquetExporter); !ok {
		t.Fatalf("*Repository does not implement ParquetExporter")
	}
}

func TestRoundTrip(t *testing.T) {
	requireDuckDB(t)
	ctx := context.Background()
	repo := testRepo(t)

	cols := []schema.Column{
		{Name: "facility_id", Type: "text"},
		{Name: "state", Type: "text"},
		{Name: "overall_rating", Type: "int"},
	}
	if err := repo.EnsureSchema(ctx, cols); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	n, err := repo.CopyFrom(ctx, []string{"facility_id", "state", "overall_rating"}, [][]any{
		{"1", "TX", int64(4)},
		{"2", "AL", nil},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom inserted %d rows, want 2", n)
	}

	res, err := repo.Query(ctx, `SELECT "state" FROM "dim_hospital" ORDER BY "facility_id"`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Rows) != 2 || res.Rows[0][0] != "TX" {
		t.Fatalf("unexpected result: %+v", res.Rows)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	requireDuckDB(t)
	ctx := context.Background()
	repo := testRepo(t)

	cols := []schema.Column{
		{Name: "facility_id", Type: "text"},
		{Name: "state", Type: "text"},
	}
	if err := repo.EnsureSchema(ctx, cols); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, []string{"facility_id", "state"}, [][]any{{"1", "TX"}}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "snapshot.parquet")
	if err := repo.ExportParquet(ctx, `SELECT * FROM "dim_hospital"`, dest); err != nil {
		t.Fatalf("ExportParquet: %v", err)
	}

	// Load the snapshot back into a fresh repository.
	other := testRepo(t)
	n, err := other.LoadParquet(ctx, dest)
	if err != nil {
		t.Fatalf("LoadParquet: %v", err)
	}
	if n != 1 {
		t.Fatalf("LoadParquet reported %d rows, want 1", n)
	}
}
