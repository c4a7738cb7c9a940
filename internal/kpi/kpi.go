// Package kpi defines the fixed dashboard aggregates and exports their
// results as CSV files (plus one Parquet copy where the backend supports it).
//
// The queries are written in the portable subset of SQL the three warehouse
// backends share: quoted identifiers, CASE instead of FILTER, explicit
// ordering with tie-breakers so re-runs produce byte-identical files.
package kpi

import (
	"fmt"

	"hospetl/internal/duckio"
)

// KPI is one named dashboard query. Parquet marks the query that also gets a
// columnar copy when the warehouse backend can produce one.
type KPI struct {
	Name    string
	Query   string
	Parquet bool
}

// QueryError reports a KPI whose SQL failed against the warehouse.
type QueryError struct {
	Name string
	Err  error
}

func (e *QueryError) Error() string { return fmt.Sprintf("kpi %s: query failed: %v", e.Name, e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// WriteError reports an output file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("kpi: write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// Definitions returns the dashboard KPI set over the given dimension table,
// in export order.
//
// Averages are rounded to two decimals and cast to double so every backend
// returns a plain float; missing ratings never contribute to an average.
func Definitions(table string) []KPI {
	t := duckio.QuoteIdent(table)
	return []KPI{
		{
			Name:    "state_summary",
			Parquet: true,
			Query: fmt.Sprintf(`SELECT
  "state",
  COUNT(*) AS hospital_count,
  CAST(ROUND(AVG("overall_rating"), 2) AS DOUBLE PRECISION) AS avg_rating,
  SUM(CASE WHEN "overall_rating" IS NULL THEN 1 ELSE 0 END) AS missing_ratings
FROM %s
GROUP BY "state"
ORDER BY (CASE WHEN AVG("overall_rating") IS NULL THEN 1 ELSE 0 END), avg_rating DESC, "state"`, t),
		},
		{
			Name: "type_breakdown",
			Query: fmt.Sprintf(`SELECT
  "hospital_type",
  COUNT(*) AS hospital_count,
  CAST(ROUND(AVG("overall_rating"), 2) AS DOUBLE PRECISION) AS avg_rating
FROM %s
GROUP BY "hospital_type"
ORDER BY hospital_count DESC, "hospital_type"`, t),
		},
		{
			Name: "bottom_25",
			Query: fmt.Sprintf(`SELECT "facility_name", "state", "overall_rating"
FROM %s
WHERE "overall_rating" IS NOT NULL
ORDER BY "overall_rating" ASC, "facility_name" ASC
LIMIT 25`, t),
		},
		{
			Name: "missing_ratings",
			Query: fmt.Sprintf(`SELECT "facility_id", "facility_name", "city", "state"
FROM %s
WHERE "overall_rating" IS NULL
ORDER BY "state", "facility_name"`, t),
		},
	}
}
