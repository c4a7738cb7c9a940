package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"hospetl/internal/bench"
	"hospetl/internal/cleaner"
	"hospetl/internal/config"
	"hospetl/internal/frame"
	"hospetl/internal/kpi"
	"hospetl/internal/schema"
	"hospetl/internal/warehouse"
)

func restoreSeams(t *testing.T) {
	t.Helper()
	origRead, origClean, origCurated := readCSV, cleanFrame, writeCurated
	origBench, origOpen, origExport := runBench, openWarehouse, exportKPIs
	t.Cleanup(func() {
		readCSV, cleanFrame, writeCurated = origRead, origClean, origCurated
		runBench, openWarehouse, exportKPIs = origBench, origOpen, origExport
	})
}

func testFrame(t *testing.T, states ...string) *frame.Frame {
	t.Helper()
	f := frame.New([]string{schema.ColState})
	for _, s := range states {
		if err := f.AppendRow([]any{s}); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return f
}

// fakeRepo records calls; it deliberately has no Parquet capabilities.
type fakeRepo struct {
	ensured bool
	copied  int
	closed  bool
}

func (f *fakeRepo) EnsureSchema(context.Context, []schema.Column) error {
	f.ensured = true
	return nil
}
func (f *fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	f.copied = len(rows)
	return int64(len(rows)), nil
}
func (f *fakeRepo) Query(context.Context, string) (*warehouse.Result, error) {
	return &warehouse.Result{}, nil
}
func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

// parquetRepo additionally supports direct Parquet ingestion.
type parquetRepo struct {
	fakeRepo
	loadedPath string
}

func (p *parquetRepo) LoadParquet(_ context.Context, path string) (int64, error) {
	p.loadedPath = path
	return 7, nil
}

func testConfig() config.Pipeline {
	cfg := config.Default()
	cfg.Source.File.Path = "in.csv"
	cfg.Curated.Path = "out/dim_hospital.parquet"
	cfg.Benchmark.Enabled = false
	return cfg
}

func stubHappySteps(t *testing.T, f *frame.Frame, repo warehouse.Repository, steps *[]string) {
	t.Helper()
	readCSV = func(path string, c schema.Contract, o config.Options) (*frame.Frame, error) {
		*steps = append(*steps, "load")
		return f, nil
	}
	cleanFrame = func(raw *frame.Frame, c schema.Contract) (*frame.Frame, error) {
		*steps = append(*steps, "clean")
		return raw, nil
	}
	writeCurated = func(_ context.Context, _ *frame.Frame, _ schema.Contract, path string) error {
		*steps = append(*steps, "curate")
		return nil
	}
	runBench = func(_ context.Context, _ *frame.Frame, _ schema.Contract) (bench.Report, bench.Report, error) {
		*steps = append(*steps, "bench")
		return bench.Report{Engine: "in-memory"}, bench.Report{Engine: "duckdb"}, nil
	}
	openWarehouse = func(_ context.Context, _ warehouse.Config) (warehouse.Repository, error) {
		*steps = append(*steps, "warehouse")
		return repo, nil
	}
	exportKPIs = func(_ context.Context, _ warehouse.Repository, kpis []kpi.KPI, _ string) error {
		*steps = append(*steps, "kpi")
		return nil
	}
}

func TestRun_StepOrderAndFallbackLoad(t *testing.T) {
	restoreSeams(t)

	var steps []string
	repo := &fakeRepo{}
	f := testFrame(t, "TX", "TX", "CA")
	stubHappySteps(t, f, repo, &steps)

	sum, err := Run(context.Background(), testConfig(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"load", "clean", "curate", "warehouse", "kpi"}
	if got := strings.Join(steps, ","); got != strings.Join(want, ",") {
		t.Fatalf("step order = %v, want %v", steps, want)
	}
	// No Parquet capability: the table is recreated and bulk-loaded.
	if !repo.ensured || repo.copied != 3 {
		t.Fatalf("fallback load: ensured=%v copied=%d, want true/3", repo.ensured, repo.copied)
	}
	if !repo.closed {
		t.Fatalf("repository was not closed")
	}
	if sum.RawRows != 3 || sum.LoadedRows != 3 || sum.KPICount != 4 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRun_ParquetFastPath(t *testing.T) {
	restoreSeams(t)

	var steps []string
	repo := &parquetRepo{}
	stubHappySteps(t, testFrame(t, "TX"), repo, &steps)

	cfg := testConfig()
	sum, err := Run(context.Background(), cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.loadedPath != cfg.Curated.Path {
		t.Fatalf("LoadParquet path = %q, want %q", repo.loadedPath, cfg.Curated.Path)
	}
	if repo.ensured || repo.copied != 0 {
		t.Fatalf("fast path must not fall back to row loading: %+v", repo.fakeRepo)
	}
	if sum.LoadedRows != 7 {
		t.Fatalf("LoadedRows = %d, want 7", sum.LoadedRows)
	}
}

func TestRun_BenchmarkToggle(t *testing.T) {
	restoreSeams(t)

	var steps []string
	stubHappySteps(t, testFrame(t, "TX"), &fakeRepo{}, &steps)

	cfg := testConfig()
	cfg.Benchmark.Enabled = true
	var out bytes.Buffer
	if _, err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(steps, ","); !strings.Contains(got, "curate,bench,warehouse") {
		t.Fatalf("bench step missing or out of order: %v", steps)
	}
	if !strings.Contains(out.String(), "Benchmark") {
		t.Fatalf("benchmark report not written:\n%s", out.String())
	}
}

func TestRun_FirstFailureAborts(t *testing.T) {
	restoreSeams(t)

	var steps []string
	stubHappySteps(t, testFrame(t, "TX"), &fakeRepo{}, &steps)

	boom := &cleaner.SchemaError{Missing: []string{schema.ColState}}
	cleanFrame = func(*frame.Frame, schema.Contract) (*frame.Frame, error) {
		steps = append(steps, "clean")
		return nil, boom
	}

	_, err := Run(context.Background(), testConfig(), &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected error")
	}
	var se *cleaner.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *cleaner.SchemaError in chain", err)
	}
	for _, s := range steps {
		if s == "curate" || s == "warehouse" || s == "kpi" {
			t.Fatalf("pipeline continued past failed clean step: %v", steps)
		}
	}
}

func TestRun_UnsupportedKinds(t *testing.T) {
	restoreSeams(t)

	cfg := testConfig()
	cfg.Source.Kind = "http"
	if _, err := Run(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unsupported source kind")
	}

	cfg = testConfig()
	cfg.Parser.Kind = "xml"
	if _, err := Run(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unsupported parser kind")
	}
}
