// Package config provides configuration models and helpers for ETL pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "warehouse.kind",
// "export.dir"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateCurated(p.Curated)...)
	issues = append(issues, validateWarehouse(p.Warehouse)...)
	issues = append(issues, validateExport(p.Export)...)
	issues = append(issues, validateBenchmark(p.Benchmark)...)

	if p.Contract != nil && len(p.Contract.Fields) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "contract.fields",
			Message:  "contract present but declares no fields; the default hospital contract will apply",
		})
	}

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Known source kinds. Unknown kinds are warnings (for forward compatibility).
	known := map[string]struct{}{
		"file": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	if s.Kind == "file" && strings.TrimSpace(s.File.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.file.path",
			Message:  "source.file.path must not be empty for the file source",
		})
	}

	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}
	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; only \"csv\" ships with this binary", p.Kind),
		})
	}
	return issues
}

func validateCurated(c Curated) []Issue {
	if strings.TrimSpace(c.Path) == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     "curated.path",
			Message:  "curated.path must not be empty; the warehouse loads from this snapshot",
		}}
	}
	if !strings.HasSuffix(c.Path, ".parquet") {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "curated.path",
			Message:  "curated.path does not end in .parquet; the snapshot is always written in Parquet format",
		}}
	}
	return nil
}

func validateWarehouse(w Warehouse) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"duckdb":   {},
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[w.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "warehouse.kind",
			Message:  fmt.Sprintf("unknown warehouse kind %q; ensure a matching backend is registered", w.Kind),
		})
	}
	if strings.TrimSpace(w.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.db.dsn",
			Message:  "warehouse.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(w.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.db.table",
			Message:  "warehouse.db.table must not be empty",
		})
	}
	return issues
}

func validateExport(e Export) []Issue {
	if strings.TrimSpace(e.Dir) == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     "export.dir",
			Message:  "export.dir must not be empty; KPI files are written there",
		}}
	}
	return nil
}

func validateBenchmark(b Benchmark) []Issue {
	if b.Enabled && b.TopN < 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "benchmark.top_n",
			Message:  "benchmark.top_n must not be negative",
		}}
	}
	return nil
}

// HasErrors reports whether any issue in the slice has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
