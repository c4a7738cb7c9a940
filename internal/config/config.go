// Package config defines the canonical, JSON-serializable configuration model
// for the hospital ETL application. It is intentionally small, explicit, and
// mostly dependency-free so that pipelines can be loaded from disk and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: Decoding is performed by the standard library, with a light
//     Options helper for typed access to parser settings.
//
// Example (trimmed):
//
//	{
//	  "job":      "hospital_quality",
//	  "source":   { "kind": "file", "file": { "path": "data/sample/Hospital_General_Information.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "curated":  { "path": "data/curated/dim_hospital.parquet" },
//	  "warehouse":{ "kind": "duckdb", "db": { "dsn": "duckdb/portfolio.duckdb", "table": "dim_hospital" } },
//	  "export":   { "dir": "outputs/dashboard" }
//	}
package config

import (
	"encoding/json"
	"io"
	"os"

	"hospetl/internal/schema"
)

// Pipeline describes the full ETL run in JSON. It is the top-level object
// decoded from a pipeline file (e.g., configs/pipelines/hospital.json).
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log context.
	Job string `json:"job"`

	// Source describes where the raw CSV comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into the raw table.
	Parser Parser `json:"parser"`

	// Contract declares the expected columns. When absent, the default
	// hospital contract applies.
	Contract *schema.Contract `json:"contract,omitempty"`

	// Curated configures the columnar snapshot of the cleaned table.
	Curated Curated `json:"curated"`

	// Benchmark configures the engine comparison step.
	Benchmark Benchmark `json:"benchmark"`

	// Warehouse describes the analytical store the curated table is loaded
	// into and the KPI queries run against.
	Warehouse Warehouse `json:"warehouse"`

	// Export configures the KPI output directory.
	Export Export `json:"export"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation. Current value: "file".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Parser selects how to parse the raw source into logical rows/columns.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool), lazy_quotes (bool)
	Options Options `json:"options"`
}

// Curated configures the curated snapshot file.
type Curated struct {
	// Path is the destination Parquet file, e.g. "data/curated/dim_hospital.parquet".
	Path string `json:"path"`
}

// Benchmark configures the in-memory vs SQL engine comparison.
type Benchmark struct {
	// Enabled toggles the step. Default pipelines enable it.
	Enabled bool `json:"enabled"`

	// TopN is how many leading groups each engine reports. Zero means 5.
	TopN int `json:"top_n"`
}

// Warehouse selects the analytical store used to persist the curated table.
type Warehouse struct {
	// Kind selects the warehouse implementation: "duckdb" (default),
	// "sqlite", or "postgres".
	Kind string `json:"kind"`

	// DB carries connection and table settings for the selected kind.
	DB DBConfig `json:"db"`
}

// DBConfig configures the warehouse sink.
type DBConfig struct {
	// DSN is the connection string or database file path, e.g.
	// "duckdb/portfolio.duckdb" or "postgresql://...".
	DSN string `json:"dsn"`

	// Table is the dimension table name, e.g. "dim_hospital".
	Table string `json:"table"`
}

// Export configures KPI output.
type Export struct {
	// Dir is the directory KPI CSV/Parquet files are written into.
	Dir string `json:"dir"`
}

// Default returns the pipeline the binary runs when no config file overrides
// it. The paths mirror the historical defaults of the reporting job.
func Default() Pipeline {
	return Pipeline{
		Job:    "hospital_quality",
		Source: Source{Kind: "file", File: SourceFile{Path: "data/sample/Hospital_General_Information.csv"}},
		Parser: Parser{Kind: "csv", Options: Options{}},
		Curated: Curated{
			Path: "data/curated/dim_hospital.parquet",
		},
		Benchmark: Benchmark{Enabled: true, TopN: 5},
		Warehouse: Warehouse{
			Kind: "duckdb",
			DB:   DBConfig{DSN: "duckdb/portfolio.duckdb", Table: "dim_hospital"},
		},
		Export: Export{Dir: "outputs/dashboard"},
	}
}

// Load decodes a Pipeline from the JSON file at path, applying defaults for
// omitted sections (warehouse kind, benchmark top_n, parser kind).
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a Pipeline from r and applies defaults.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Pipeline{}, err
	}
	p.ApplyDefaults()
	return p, nil
}

// ApplyDefaults fills omitted fields with the Default() values.
func (p *Pipeline) ApplyDefaults() {
	if p.Warehouse.Kind == "" {
		p.Warehouse.Kind = "duckdb"
	}
	if p.Warehouse.DB.Table == "" {
		p.Warehouse.DB.Table = "dim_hospital"
	}
	if p.Benchmark.TopN <= 0 {
		p.Benchmark.TopN = 5
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
}

// ContractOrDefault returns the configured contract, or the default hospital
// contract when the pipeline does not declare one.
func (p Pipeline) ContractOrDefault() schema.Contract {
	if p.Contract != nil && len(p.Contract.Fields) > 0 {
		return *p.Contract
	}
	return schema.HospitalContract()
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
