// Package paging implements bidirectional cursor pagination over a
// time-ordered collection.
//
// A Paginator turns one Query into exactly one range read of an
// OrderedStore and returns a Page of records, newest first, together with
// the cursors for the adjacent pages:
//
//	no cursor     field unbounded        newest first, limit P+1
//	before = c    field <= decode(c)     newest first, limit P+1
//	after  = c    field >= decode(c)     oldest first, limit P+1, reversed
//
// The extra record beyond the page size is never shown. It tells whether
// more records exist in the direction of travel, and its order key becomes
// the next cursor in that direction. The cursor back the other way is the
// request cursor shifted one resolution step (cursor.Epsilon), because both
// bounds are inclusive.
//
// For 25 records t1 > ... > t25 and a page size of 10, the first page shows
// t1..t10 with an older cursor of t11, not t10, and the second page's newer
// cursor is t11+ε. Because the before filter is inclusive, a cursor of t10
// would show t10 twice. Page contents are the same either way.
//
// Walking older and then newer again reproduces every page exactly, with no
// record shown twice and none skipped, as long as order keys are unique
// within the collection. Records sharing an order key at a page boundary
// may be repeated or skipped.
//
// The Paginator holds no state between calls: everything needed to resume
// is in the cursor, so it is safe for concurrent use. Pages are not a
// snapshot; records created or touched between requests show up wherever
// their order key now places them.
package paging
