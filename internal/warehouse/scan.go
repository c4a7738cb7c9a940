package warehouse

import "database/sql"

// ScanResult drains a database/sql result set into a Result, normalizing
// driver-specific cell types: []byte becomes string, integer widths collapse
// to int64, and NULL stays nil. Backends share it so KPI exports render the
// same regardless of driver.
func ScanResult(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range cells {
			cells[i] = normalizeCell(v)
		}
		res.Rows = append(res.Rows, cells)
	}
	return res, rows.Err()
}

func normalizeCell(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
