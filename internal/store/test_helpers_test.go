package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/timeline/internal/record"
	"github.com/roach88/timeline/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createDeterministicStore creates a store whose clock ticks one second per
// write, starting at testutil.Epoch, and whose IDs are ids in order.
func createDeterministicStore(t *testing.T, ids ...string) (*Store, *testutil.DeterministicClock) {
	t.Helper()
	clock := testutil.NewDeterministicClock(testutil.Epoch, time.Second)
	s := createTestStore(t,
		WithClock(clock),
		WithIDGenerator(record.NewFixedGenerator(ids...)),
	)
	return s, clock
}
