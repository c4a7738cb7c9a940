// Package frame holds the in-memory tabular representation shared by the
// pipeline stages. A Frame is column-ordered: Columns names the columns and
// every row in Rows is aligned to that order.
//
// Cell values are one of: string, int64, bool, or nil. nil is the explicit
// missing-value marker; no stage may substitute a numeric sentinel for it.
package frame

import (
	"fmt"
	"sort"
)

// Frame is a column-ordered table. The raw table produced by the loader and
// the curated table produced by the cleaner are both Frames.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty Frame with the given column order.
func New(columns []string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// RowCount returns the number of data rows.
func (f *Frame) RowCount() int { return len(f.Rows) }

// ColCount returns the number of columns.
func (f *Frame) ColCount() int { return len(f.Columns) }

// ColIndex returns the position of the named column, or -1 when absent.
func (f *Frame) ColIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AppendRow adds a row. The row must be aligned to Columns.
func (f *Frame) AppendRow(row []any) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("frame: row width %d does not match %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// GroupCount is one group produced by CountBy.
type GroupCount struct {
	Key   string
	Count int64
}

// CountBy groups rows by the string value of the named column and returns
// per-group row counts ordered by count descending, key ascending. nil cells
// group under the empty key. It returns an error when the column is absent.
//
// This is the in-memory half of the engine comparison: the SQL half issues
// the equivalent GROUP BY / ORDER BY against the analytical engine.
func (f *Frame) CountBy(column string) ([]GroupCount, error) {
	ix := f.ColIndex(column)
	if ix < 0 {
		return nil, fmt.Errorf("frame: no column %q", column)
	}

	counts := make(map[string]int64)
	for _, row := range f.Rows {
		key := ""
		if v := row[ix]; v != nil {
			if s, ok := v.(string); ok {
				key = s
			} else {
				key = fmt.Sprint(v)
			}
		}
		counts[key]++
	}

	out := make([]GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Head returns up to n leading entries of groups without copying.
func Head(groups []GroupCount, n int) []GroupCount {
	if n < 0 || n > len(groups) {
		n = len(groups)
	}
	return groups[:n]
}
