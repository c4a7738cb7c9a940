// Package probe inspects a raw hospital CSV before it is wired into a
// pipeline: it samples the file, detects the delimiter, maps the headers
// onto the contract's canonical columns, and can emit a starter pipeline
// config for cmd/hospprobe.
//
// The probe is advisory tooling; the pipeline itself never depends on it.
package probe

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"hospetl/internal/config"
	"hospetl/internal/schema"
)

// Options control sampling behavior.
type Options struct {
	// Path is the local CSV file to inspect.
	Path string

	// MaxBytes to sample from the start of the file. Zero means 64 KiB.
	MaxBytes int

	// Delimiter forces a delimiter; zero means detect from the header line.
	Delimiter rune
}

// ColumnReport describes one source column in the sample.
type ColumnReport struct {
	// Header is the original header cell.
	Header string

	// Canonical is the contract column the header maps onto, or the
	// lowercased fallback for passthrough columns.
	Canonical string

	// Known reports whether the contract declares the canonical column.
	Known bool

	// Empty counts sampled cells that are blank after trimming.
	Empty int
}

// Report is the outcome of probing one file.
type Report struct {
	Path        string
	Delimiter   rune
	RowsSampled int
	Columns     []ColumnReport
}

// MissingRequired lists contract-required columns absent from the sample, in
// declaration order.
func (r Report) MissingRequired(c schema.Contract) []string {
	present := make(map[string]struct{}, len(r.Columns))
	for _, col := range r.Columns {
		present[col.Canonical] = struct{}{}
	}
	var missing []string
	for _, name := range c.Required() {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Probe samples the file at opt.Path and builds a Report against the
// contract.
func Probe(opt Options, c schema.Contract) (Report, error) {
	rep := Report{Path: opt.Path}

	maxBytes := opt.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 64 << 10
	}

	f, err := os.Open(opt.Path)
	if err != nil {
		return rep, err
	}
	defer f.Close()

	sample, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)))
	if err != nil {
		return rep, err
	}
	// Cut at the last newline so a truncated trailing record is dropped.
	if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
		sample = sample[:i+1]
	}
	if len(bytes.TrimSpace(sample)) == 0 {
		return rep, fmt.Errorf("probe %s: empty sample", opt.Path)
	}

	rep.Delimiter = opt.Delimiter
	if rep.Delimiter == 0 {
		rep.Delimiter = detectDelimiter(sample)
	}

	r := csv.NewReader(bytes.NewReader(sample))
	r.Comma = rep.Delimiter
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return rep, fmt.Errorf("probe %s: read header: %w", opt.Path, err)
	}
	rep.Columns = make([]ColumnReport, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		canonical, known := canonicalName(h, c)
		rep.Columns[i] = ColumnReport{Header: h, Canonical: canonical, Known: known}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Sampled tail rows may be malformed; the report is best effort.
			continue
		}
		rep.RowsSampled++
		for i := range rep.Columns {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				rep.Columns[i].Empty++
			}
		}
	}
	return rep, nil
}

// canonicalName maps a raw header onto its canonical column the same way the
// loader does: contract HeaderMap first, lowercase/underscore fallback after.
func canonicalName(h string, c schema.Contract) (string, bool) {
	if mapped, ok := c.HeaderMap[h]; ok {
		_, known := c.Field(mapped)
		return mapped, known
	}
	fallback := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	_, known := c.Field(fallback)
	return fallback, known
}

// detectDelimiter picks the candidate delimiter that occurs most often in the
// first line of the sample. Commas win ties.
func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, cand := range []byte{';', '\t', '|'} {
		if n := bytes.Count(line, []byte{cand}); n > bestCount {
			best, bestCount = rune(cand), n
		}
	}
	return best
}

// StarterPipeline builds a pipeline config for the probed file, ready to be
// edited and saved under configs/pipelines/.
func StarterPipeline(rep Report) config.Pipeline {
	p := config.Default()
	p.Source.File.Path = rep.Path
	p.Parser.Options = config.Options{
		"has_header": true,
		"comma":      string(rep.Delimiter),
	}
	return p
}

// WriteReport renders the report as an aligned table.
func WriteReport(w io.Writer, rep Report, c schema.Contract) {
	fmt.Fprintf(w, "file: %s\ndelimiter: %q\nrows sampled: %d\n\n", rep.Path, rep.Delimiter, rep.RowsSampled)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "header\tcanonical\tknown\tempty")
	for _, col := range rep.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%d\n", col.Header, col.Canonical, col.Known, col.Empty)
	}
	tw.Flush()

	if missing := rep.MissingRequired(c); len(missing) > 0 {
		fmt.Fprintf(w, "\nWARNING missing required columns: %s\n", strings.Join(missing, ", "))
	}
}
