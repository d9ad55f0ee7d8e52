// Package store provides SQLite-backed durable storage for time-ordered
// records.
//
// The store keeps every collection in one records table:
//   - id: opaque record identity (UUIDv7 by default)
//   - collection: the collection name
//   - created_at, updated_at: order keys, INTEGER unix microseconds (UTC)
//   - attrs: RFC 8785 canonical JSON
//
// # Critical Patterns
//
// Range reads go through queryir and querysql:
//   - Store.RangeQuery implements paging.OrderedStore
//   - All values are bound as parameters, never interpolated
//   - ORDER BY always carries id COLLATE BINARY as the secondary key
//
// Timestamps come from an injected Clock (WithClock) and IDs from an
// injected generator (WithIDGenerator), so tests and the scenario harness
// produce identical databases on every run.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Database failures are wrapped so that errors.Is(err, ErrUnavailable)
// holds; missing IDs report ErrNotFound.
package store
