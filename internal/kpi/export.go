package kpi

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"hospetl/internal/curated"
	"hospetl/internal/metrics"
	"hospetl/internal/warehouse"
)

// Export runs each KPI against the warehouse, in order, and writes
// kpi_<name>.csv into outDir (full overwrite, never append). The
// Parquet-flagged KPI additionally gets a kpi_<name>.parquet copy when the
// backend implements warehouse.ParquetExporter; otherwise that copy is
// skipped with an info log.
//
// The first failure aborts the export.
func Export(ctx context.Context, repo warehouse.Repository, kpis []KPI, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &WriteError{Path: outDir, Err: err}
	}

	exporter, canParquet := repo.(warehouse.ParquetExporter)

	for _, k := range kpis {
		res, err := repo.Query(ctx, k.Query)
		if err != nil {
			return &QueryError{Name: k.Name, Err: err}
		}

		csvPath := filepath.Join(outDir, "kpi_"+k.Name+".csv")
		if err := writeCSV(csvPath, res); err != nil {
			return err
		}
		if fp, err := curated.Fingerprint(csvPath); err == nil {
			log.Printf("kpi: name=%s rows=%d file=%s xxh3=%016x", k.Name, len(res.Rows), csvPath, fp)
		} else {
			log.Printf("kpi: name=%s rows=%d file=%s", k.Name, len(res.Rows), csvPath)
		}
		metrics.RecordRows("kpi_"+k.Name, int64(len(res.Rows)))

		if !k.Parquet {
			continue
		}
		if !canParquet {
			log.Printf("kpi: name=%s parquet copy skipped (backend has no parquet support)", k.Name)
			continue
		}
		pqPath := filepath.Join(outDir, "kpi_"+k.Name+".parquet")
		if err := exporter.ExportParquet(ctx, k.Query, pqPath); err != nil {
			return &WriteError{Path: pqPath, Err: err}
		}
		log.Printf("kpi: name=%s file=%s", k.Name, pqPath)
	}
	return nil
}

func writeCSV(path string, res *warehouse.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	w := csv.NewWriter(f)

	if err := w.Write(res.Columns); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return &WriteError{Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// formatCell renders a normalized result cell for CSV. Missing values render
// as the empty string.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
