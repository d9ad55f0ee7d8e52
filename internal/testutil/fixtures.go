package testutil

import (
	"fmt"
	"time"

	"github.com/roach88/timeline/internal/record"
)

// Timeline returns n records of one collection with strictly decreasing
// order keys: the first record is the newest, at newest, and each following
// record is step older. IDs are "r01", "r02", ... so that position in the
// newest-first ordering can be read off the ID.
//
// CreatedAt and UpdatedAt are equal, so either order field gives the same
// sequence.
func Timeline(collection string, n int, newest time.Time, step time.Duration) []record.Record {
	records := make([]record.Record, n)
	for i := range records {
		ts := record.Truncate(newest.Add(-time.Duration(i) * step))
		records[i] = record.Record{
			ID:         fmt.Sprintf("r%02d", i+1),
			Collection: collection,
			CreatedAt:  ts,
			UpdatedAt:  ts,
			Attrs:      record.Attrs{"n": record.Int(i + 1)},
		}
	}
	return records
}

// IDs returns the IDs of records in order.
func IDs(records []record.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
