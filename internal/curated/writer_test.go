package curated

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hospetl/internal/frame"
	"hospetl/internal/schema"
)

func requireDuckDB(t *testing.T) {
	t.Helper()
	if os.Getenv("HOSPETL_DUCKDB_TEST") == "" {
		t.Skip("HOSPETL_DUCKDB_TEST not set; skipping DuckDB integration tests")
	}
}

func curatedFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New([]string{
		schema.ColFacilityID, schema.ColFacilityName, schema.ColCity, schema.ColState,
		schema.ColZIP, schema.ColHospitalType, schema.ColEmergency, schema.ColRating,
		schema.ColHasRating,
	})
	rows := [][]any{
		{"1", "A", "AUSTIN", "TX", "78701", "Acute Care Hospitals", true, int64(4), true},
		{"2", "B", "BOAZ", "AL", nil, "Acute Care Hospitals", false, nil, false},
	}
	for _, r := range rows {
		if err := f.AppendRow(r); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return f
}

func TestWriteParquet_CreatesParentsAndOverwrites(t *testing.T) {
	requireDuckDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "curated", "dim_hospital.parquet")
	f := curatedFrame(t)

	if err := WriteParquet(ctx, f, schema.HospitalContract(), path); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}
	first, err := os.Stat(path)
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}

	// Second run replaces the file rather than appending.
	if err := WriteParquet(ctx, f, schema.HospitalContract(), path); err != nil {
		t.Fatalf("WriteParquet rerun: %v", err)
	}
	second, err := os.Stat(path)
	if err != nil {
		t.Fatalf("snapshot missing after rerun: %v", err)
	}
	if second.Size() > first.Size()*2 {
		t.Fatalf("rerun grew the snapshot from %d to %d bytes; looks like accumulation", first.Size(), second.Size())
	}
}

func TestWriteParquet_BadDirIsWriteError(t *testing.T) {
	ctx := context.Background()

	// A file where the parent directory should be makes MkdirAll fail.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := WriteParquet(ctx, curatedFrame(t), schema.HospitalContract(), filepath.Join(blocker, "out.parquet"))
	if err == nil {
		t.Fatalf("expected WriteError")
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("error type = %T, want *WriteError", err)
	}
}

func TestFingerprint_StableForSameContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("state,hospital_count\nTX,462\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	ha, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint(a): %v", err)
	}
	hb, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint(b): %v", err)
	}
	if ha != hb {
		t.Fatalf("fingerprints differ for identical content: %x vs %x", ha, hb)
	}

	if err := os.WriteFile(b, []byte("state,hospital_count\nTX,463\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	hb2, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint(b2): %v", err)
	}
	if ha == hb2 {
		t.Fatalf("fingerprint unchanged after content change")
	}
}
