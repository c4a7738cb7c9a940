// Package bench compares the two ways the pipeline can answer "hospital
// count per state": grouping the in-memory frame directly, and loading the
// frame into DuckDB and issuing the equivalent SQL.
//
// The comparison is demonstrative. Divergent results are logged as a warning
// and never fail the run; the two engines are only required to agree on the
// counts, not on header casing or formatting.
package bench

import (
	"context"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"hospetl/internal/duckio"
	"hospetl/internal/frame"
	"hospetl/internal/schema"
)

// Report is one engine's result: its full grouping plus elapsed wall clock.
type Report struct {
	Engine  string
	Elapsed time.Duration
	Groups  []frame.GroupCount // count desc, key asc
}

// Run computes the per-state grouping with both engines and returns both
// reports. The SQL engine's elapsed time covers table load plus query: the
// point of the comparison is end-to-end cost from an in-memory frame, not
// engine query latency alone.
func Run(ctx context.Context, f *frame.Frame, c schema.Contract) (mem, sqlRep Report, err error) {
	memStart := time.Now()
	groups, err := f.CountBy(schema.ColState)
	if err != nil {
		return Report{}, Report{}, fmt.Errorf("in-memory grouping: %w", err)
	}
	mem = Report{Engine: "in-memory", Elapsed: time.Since(memStart), Groups: groups}

	sqlStart := time.Now()
	sqlGroups, err := duckdbGroups(ctx, f, c)
	if err != nil {
		return Report{}, Report{}, fmt.Errorf("duckdb grouping: %w", err)
	}
	sqlRep = Report{Engine: "duckdb", Elapsed: time.Since(sqlStart), Groups: sqlGroups}

	return mem, sqlRep, nil
}

func duckdbGroups(ctx context.Context, f *frame.Frame, c schema.Contract) ([]frame.GroupCount, error) {
	db, err := duckio.Open(ctx, "")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	cols := schema.CuratedColumns(c, f.Columns)
	names := make([]string, len(cols))
	types := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
		types[i] = col.Type
	}

	const table = "hospitals"
	if _, err := db.ExecContext(ctx, duckio.CreateTableSQL(table, names, types)); err != nil {
		return nil, err
	}
	if _, err := duckio.InsertRows(ctx, db, table, names, f.Rows); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(
		`SELECT COALESCE(%s, '') AS state, COUNT(*) AS hospital_count
		 FROM %s GROUP BY 1 ORDER BY hospital_count DESC, state`,
		duckio.QuoteIdent(schema.ColState), duckio.QuoteIdent(table),
	)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frame.GroupCount
	for rows.Next() {
		var g frame.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Diff returns one message per state where the engines disagree on the
// count, including states one engine is missing entirely. An empty result
// means the engines agree.
func Diff(mem, sqlGroups []frame.GroupCount) []string {
	memCounts := make(map[string]int64, len(mem))
	for _, g := range mem {
		memCounts[g.Key] = g.Count
	}

	var msgs []string
	seen := make(map[string]struct{}, len(sqlGroups))
	for _, g := range sqlGroups {
		seen[g.Key] = struct{}{}
		if want, ok := memCounts[g.Key]; !ok {
			msgs = append(msgs, fmt.Sprintf("state %q only in sql result (count=%d)", g.Key, g.Count))
		} else if want != g.Count {
			msgs = append(msgs, fmt.Sprintf("state %q: in-memory=%d sql=%d", g.Key, want, g.Count))
		}
	}
	for _, g := range mem {
		if _, ok := seen[g.Key]; !ok {
			msgs = append(msgs, fmt.Sprintf("state %q only in in-memory result (count=%d)", g.Key, g.Count))
		}
	}
	return msgs
}

// Print writes the human-readable benchmark report: elapsed seconds per
// engine and each engine's top-N table. Divergences between the full result
// sets are logged as warnings (advisory only, never fatal).
func Print(w io.Writer, mem, sqlRep Report, topN int) {
	fmt.Fprintf(w, "\n=== Benchmark: in-memory vs DuckDB (hospitals per state) ===\n")
	fmt.Fprintf(w, "%s time: %.4fs\n", mem.Engine, mem.Elapsed.Seconds())
	fmt.Fprintf(w, "%s time: %.4fs\n", sqlRep.Engine, sqlRep.Elapsed.Seconds())

	for _, r := range []Report{mem, sqlRep} {
		fmt.Fprintf(w, "\nTop %d (%s):\n", topN, r.Engine)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "state\thospital_count")
		for _, g := range frame.Head(r.Groups, topN) {
			fmt.Fprintf(tw, "%s\t%d\n", g.Key, g.Count)
		}
		tw.Flush()
	}

	if msgs := Diff(mem.Groups, sqlRep.Groups); len(msgs) > 0 {
		log.Printf("bench: WARNING engines disagree on %d state(s)", len(msgs))
		for _, m := range msgs {
			log.Printf("bench:   %s", m)
		}
	}
}
