// Package loader reads the raw delimited source file into an in-memory frame.
//
// The loader is deliberately dumb: it maps headers onto canonical column
// names, trims cells, and turns empty cells into nil. All typing and domain
// cleanup is the cleaner's job. The raw frame exists only between the load
// and clean stages.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"hospetl/internal/config"
	"hospetl/internal/frame"
	"hospetl/internal/schema"
)

// LoadError reports an unreadable or unparsable source file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// ReadCSV reads the delimited file at path into a raw frame.
//
// Header handling follows the canonicalization used across the project:
//
//   - A UTF-8 BOM on the first header cell is stripped.
//   - Headers with a contract HeaderMap entry map to that canonical name.
//   - All other headers are lowercased with spaces replaced by underscores.
//
// Every source column is kept, including ones the contract does not declare;
// downstream stages pass unknown columns through untouched.
//
// Options (all optional):
//
//   - has_header (bool; default true)
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default true)
//   - lazy_quotes (bool; default false)
//
// Cells are trimmed (when trim_space) and empty cells become nil. Rows with
// fewer fields than the header are padded with nil; extra fields are dropped
// with a warning so one ragged line cannot abort a whole load.
func ReadCSV(path string, c schema.Contract, opt config.Options) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	fr, err := readCSV(f, c, opt)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	log.Printf("loader: path=%s rows=%d cols=%d", path, fr.RowCount(), fr.ColCount())
	return fr, nil
}

func readCSV(r io.Reader, c schema.Contract, opt config.Options) (*frame.Frame, error) {
	hasHeader := opt.Bool("has_header", true)
	trim := opt.Bool("trim_space", true)

	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1 // tolerant; width is enforced against the header below

	if !hasHeader {
		return nil, fmt.Errorf("headerless input is not supported; the contract maps named headers")
	}

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF") // strip BOM
		}
		h = strings.TrimSpace(h)
		if mapped, ok := c.HeaderMap[h]; ok {
			h = mapped
		} else {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		columns[i] = h
	}

	fr := frame.New(columns)

	line := 1
	ragged := 0
	for {
		rec, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read line %d: %w", line, err)
		}

		if len(rec) != len(columns) {
			ragged++
			if ragged <= 3 {
				log.Printf("loader: line=%d has %d fields, header has %d; padding/truncating", line, len(rec), len(columns))
			}
		}

		row := make([]any, len(columns))
		for i := range columns {
			if i >= len(rec) {
				continue // short row: remaining cells stay nil
			}
			v := rec[i]
			if trim {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				continue
			}
			row[i] = v
		}
		if err := fr.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if ragged > 3 {
		log.Printf("loader: %d ragged lines total", ragged)
	}
	return fr, nil
}
