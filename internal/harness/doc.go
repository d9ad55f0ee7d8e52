// Package harness runs pagination scenarios against a real store.
//
// A scenario seeds one collection, then walks it page by page the way a
// browser following older/newer links would, touching and creating records
// in between. Every run uses a fresh in-memory SQLite database, a
// deterministic clock and fixed record IDs, so the resulting trace is the
// same byte for byte on every run and can be compared with a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	collection: notes
//	order_field: updated_at      # optional, default updated_at
//	page_size: 10
//	start: "2024-01-01T00:00:00Z" # optional clock start
//	tick: 1s                     # optional clock step per write
//	records:                     # created oldest first, one tick apart
//	  - id: a
//	    attrs: { title: "first" }
//	generate:                    # or: n01..nNN, created after records
//	  count: 25
//	  prefix: n
//	steps:
//	  - fetch: first             # first | older | newer
//	    expect:
//	      ids: [n25, n24]
//	      older: true
//	      newer: false
//	  - fetch: older             # follows the previous page's older cursor
//	  - touch: n01               # refresh updated_at (optionally attrs)
//	  - create: { id: x }        # new record at the current tick
//	  - fetch: older
//	    cursor: "garbage"        # explicit cursor instead of a link
//	    expect:
//	      error: MALFORMED_CURSOR
//
// The golden file for a scenario is golden/<name>.golden next to the
// scenario file.
package harness
