// Package queryir provides the range-query intermediate representation
// shared by the paginator and the storage backends.
//
// ARCHITECTURE:
//
// The IR is the abstraction boundary between the pagination algorithm and
// whatever answers range queries:
//
//	[paging.Paginator] → [queryir.Range] → [querysql → SQLite]
//	                                     → [testutil.MemStore]
//
// A Range reads at most Limit records of one collection, ordered by one
// timestamp field, optionally bounded on that same field from one side.
// That is the whole capability the paginator needs; anything richer
// (joins, secondary filters, offsets) is deliberately absent so that every
// backend can answer it with a single index range scan.
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method. Only AtMost and AtLeast
// implement it, so backends can switch exhaustively:
//
//	switch p := r.Filter.(type) {
//	case nil:
//	    // unbounded
//	case AtMost:
//	    // field <= p.Value
//	case AtLeast:
//	    // field >= p.Value
//	}
//
// Both bounds are inclusive. Callers that need an exclusive bound shift the
// boundary by one order-key resolution step (see package cursor).
package queryir
