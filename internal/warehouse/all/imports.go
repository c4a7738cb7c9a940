// Package all registers every built-in warehouse backend. Import it for side
// effects from the binary entry point:
//
//	import _ "hospetl/internal/warehouse/all"
package all

import (
	_ "hospetl/internal/warehouse/duckdb"
	_ "hospetl/internal/warehouse/postgres"
	_ "hospetl/internal/warehouse/sqlite"
)
