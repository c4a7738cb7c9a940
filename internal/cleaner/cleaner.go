// Package cleaner validates the raw frame against the contract and produces
// the curated frame.
//
// Cleaning never drops or duplicates a row: the curated frame has exactly the
// raw row count, and exactly one extra column (has_rating). Suspicious data
// (duplicate facility IDs, non-standard state codes) is logged as a warning,
// not treated as fatal.
package cleaner

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"hospetl/internal/frame"
	"hospetl/internal/schema"
)

// SchemaError reports required columns absent from the raw table.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %v (found columns: %v)", e.Missing, e.Found)
}

var zipRe = regexp.MustCompile(`\d{5}`)

// default truthy/falsy sets (lowercased) for bool coercion.
var (
	defaultTruthy = map[string]struct{}{"1": {}, "t": {}, "true": {}, "yes": {}, "y": {}}
	defaultFalsy  = map[string]struct{}{"0": {}, "f": {}, "false": {}, "no": {}, "n": {}}
)

// Clean validates raw against the contract and returns the curated frame.
//
// Transformations, per cell:
//
//   - every string is NFC-normalized and trimmed
//   - state is uppercased
//   - zip_code keeps its first 5-digit run, or becomes nil
//   - contract "bool" fields coerce via truthy/falsy sets, or become nil
//   - contract "int" fields parse as integers; any non-numeric token
//     ("Not Available" and friends) becomes nil, never a sentinel number
//
// The derived has_rating column is appended last and is true exactly when
// overall_rating is non-nil. The input frame is not mutated.
func Clean(raw *frame.Frame, c schema.Contract) (*frame.Frame, error) {
	if err := checkRequired(raw, c); err != nil {
		return nil, err
	}

	columns := append(append([]string(nil), raw.Columns...), schema.ColHasRating)
	out := frame.New(columns)
	out.Rows = make([][]any, 0, raw.RowCount())

	ratingIx := raw.ColIndex(schema.ColRating)
	stateIx := raw.ColIndex(schema.ColState)
	idIx := raw.ColIndex(schema.ColFacilityID)

	// Per-column coercion plan from the contract.
	kinds := make([]string, raw.ColCount())
	truthy := make([]map[string]struct{}, raw.ColCount())
	falsy := make([]map[string]struct{}, raw.ColCount())
	for i, name := range raw.Columns {
		f, ok := c.Field(name)
		if !ok {
			continue
		}
		kinds[i] = f.Type
		truthy[i] = toSet(f.Truthy, defaultTruthy)
		falsy[i] = toSet(f.Falsy, defaultFalsy)
	}

	seenIDs := make(map[string]struct{}, raw.RowCount())
	dupIDs := 0
	badStates := 0
	states := 0

	for _, rawRow := range raw.Rows {
		row := make([]any, len(columns))

		for i, v := range rawRow {
			s, isStr := v.(string)
			if !isStr {
				row[i] = v
				continue
			}
			s = strings.TrimSpace(norm.NFC.String(s))
			if s == "" {
				continue
			}

			switch {
			case i == stateIx:
				s = strings.ToUpper(s)
				row[i] = s
				states++
				if !isStateCode(s) {
					badStates++
				}
			case raw.Columns[i] == schema.ColZIP:
				if z := zipRe.FindString(s); z != "" {
					row[i] = z
				}
			case kinds[i] == "int":
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					row[i] = n
				}
				// non-numeric tokens ("Not Available") stay nil
			case kinds[i] == "bool":
				if b, ok := parseBool(s, truthy[i], falsy[i]); ok {
					row[i] = b
				}
			default:
				row[i] = s
			}
		}

		if idIx >= 0 {
			if id, ok := row[idIx].(string); ok {
				if _, dup := seenIDs[id]; dup {
					dupIDs++
				}
				seenIDs[id] = struct{}{}
			}
		}

		// Derived column: always appended last.
		row[len(columns)-1] = ratingIx >= 0 && row[ratingIx] != nil

		out.Rows = append(out.Rows, row)
	}

	if dupIDs > 0 {
		log.Printf("cleaner: WARN %d duplicate %s rows; all rows kept", dupIDs, schema.ColFacilityID)
	}
	if states > 0 {
		if share := float64(badStates) / float64(states); share > 0.05 {
			log.Printf("cleaner: WARN %.1f%% of %s values are not 2-letter codes", share*100, schema.ColState)
		}
	}

	log.Printf("cleaner: rows=%d cols=%d (raw cols=%d + derived %s)",
		out.RowCount(), out.ColCount(), raw.ColCount(), schema.ColHasRating)
	return out, nil
}

func checkRequired(raw *frame.Frame, c schema.Contract) error {
	var missing []string
	for _, name := range c.Required() {
		if raw.ColIndex(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing, Found: raw.Columns}
	}
	return nil
}

func toSet(vals []string, def map[string]struct{}) map[string]struct{} {
	if len(vals) == 0 {
		return def
	}
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

func parseBool(s string, truthy, falsy map[string]struct{}) (bool, bool) {
	ls := strings.ToLower(s)
	if _, ok := truthy[ls]; ok {
		return true, true
	}
	if _, ok := falsy[ls]; ok {
		return false, true
	}
	return false, false
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}
