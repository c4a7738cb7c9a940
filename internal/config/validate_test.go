package config

import (
	"strings"
	"testing"
)

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, iss := range issues {
		if iss.Path == path {
			return iss, true
		}
	}
	return Issue{}, false
}

func TestValidatePipeline_CleanConfig(t *testing.T) {
	p := Default()
	issues := ValidatePipeline(p)
	if HasErrors(issues) {
		t.Fatalf("default pipeline reported errors: %v", issues)
	}
}

func TestValidatePipeline_MissingFields(t *testing.T) {
	var p Pipeline // all zero: everything required is missing

	issues := ValidatePipeline(p)
	for _, path := range []string{"job", "source.kind", "parser.kind", "curated.path", "warehouse.db.dsn", "warehouse.db.table", "export.dir"} {
		iss, ok := findIssue(issues, path)
		if !ok {
			t.Fatalf("no issue reported at %s; got %v", path, issues)
		}
		if iss.Severity != SeverityError {
			t.Fatalf("issue at %s has severity %s, want error", path, iss.Severity)
		}
	}
}

func TestValidatePipeline_UnknownKindsWarn(t *testing.T) {
	p := Default()
	p.Source.Kind = "s3"
	p.Warehouse.Kind = "clickhouse"

	issues := ValidatePipeline(p)
	if HasErrors(issues) {
		t.Fatalf("unknown kinds must warn, not error: %v", issues)
	}

	if iss, ok := findIssue(issues, "source.kind"); !ok || iss.Severity != SeverityWarning {
		t.Fatalf("expected warning at source.kind, got %v", issues)
	}
	if iss, ok := findIssue(issues, "warehouse.kind"); !ok || iss.Severity != SeverityWarning {
		t.Fatalf("expected warning at warehouse.kind, got %v", issues)
	}
}

func TestValidatePipeline_NonParquetCuratedWarns(t *testing.T) {
	p := Default()
	p.Curated.Path = "data/curated/dim_hospital.csv"

	issues := ValidatePipeline(p)
	iss, ok := findIssue(issues, "curated.path")
	if !ok {
		t.Fatalf("expected issue at curated.path, got %v", issues)
	}
	if iss.Severity != SeverityWarning {
		t.Fatalf("curated.path severity = %s, want warning", iss.Severity)
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "export.dir", Message: "boom"}
	if got := iss.Error(); !strings.Contains(got, "export.dir") || !strings.Contains(got, "boom") {
		t.Fatalf("Error() = %q", got)
	}
}
