package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"hospetl/internal/schema"
	"hospetl/internal/warehouse"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	cfg := warehouse.Config{
		Kind:  "sqlite",
		DSN:   filepath.Join(t.TempDir(), "test.db"),
		Table: "dim_hospital",
	}
	repo, err := NewRepository(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

var testCols = []schema.Column{
	{Name: "facility_id", Type: "text"},
	{Name: "state", Type: "text"},
	{Name: "overall_rating", Type: "int"},
	{Name: "has_rating", Type: "bool"},
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	if err := repo.EnsureSchema(ctx, testCols); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	rows := [][]any{
		{"1", "TX", int64(4), true},
		{"2", "AL", nil, false},
	}
	n, err := repo.CopyFrom(ctx, []string{"facility_id", "state", "overall_rating", "has_rating"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom inserted %d rows, want 2", n)
	}

	res, err := repo.Query(ctx, `SELECT "state", "overall_rating" FROM "dim_hospital" ORDER BY "facility_id"`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}
	if got := res.Rows[0][0]; got != "TX" {
		t.Fatalf("state = %#v, want TX", got)
	}
	if got := res.Rows[1][1]; got != nil {
		t.Fatalf("missing rating = %#v, want nil", got)
	}
}

// A second EnsureSchema+CopyFrom replaces the table contents, it never
// appends to them.
func TestReloadReplaces(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	cols := []string{"facility_id", "state", "overall_rating", "has_rating"}
	load := func() {
		t.Helper()
		if err := repo.EnsureSchema(ctx, testCols); err != nil {
			t.Fatalf("EnsureSchema: %v", err)
		}
		if _, err := repo.CopyFrom(ctx, cols, [][]any{{"1", "TX", int64(4), true}}); err != nil {
			t.Fatalf("CopyFrom: %v", err)
		}
	}
	load()
	load()

	res, err := repo.Query(ctx, `SELECT COUNT(*) FROM "dim_hospital"`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got := res.Rows[0][0]; got != int64(1) {
		t.Fatalf("row count after reload = %#v, want 1", got)
	}
}

func TestCopyFrom_WidthMismatch(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	if err := repo.EnsureSchema(ctx, testCols); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	_, err := repo.CopyFrom(ctx, []string{"facility_id", "state"}, [][]any{{"1"}})
	if err == nil {
		t.Fatalf("expected width mismatch error")
	}
}
