package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/timeline/internal/queryir"
	"github.com/roach88/timeline/internal/record"
)

// MemStore is an in-memory ordered store for tests.
//
// It answers queryir.Range reads with the same semantics as the SQLite
// store (inclusive bounds, id as secondary key) and records every query it
// receives so tests can assert on what the caller asked for.
//
// Thread-safety: MemStore is safe for concurrent use via internal mutex.
type MemStore struct {
	mu      sync.Mutex
	records []record.Record
	queries []queryir.Range
	err     error
}

// NewMemStore creates a store holding records.
func NewMemStore(records ...record.Record) *MemStore {
	return &MemStore{records: slices.Clone(records)}
}

// Add appends records to the store.
func (m *MemStore) Add(records ...record.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// FailWith makes every subsequent RangeQuery return err. Nil restores
// normal operation.
func (m *MemStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Queries returns every range query received so far, in order.
func (m *MemStore) Queries() []queryir.Range {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.queries)
}

// Calls reports how many range queries have been received.
func (m *MemStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// RangeQuery implements paging.OrderedStore.
func (m *MemStore) RangeQuery(ctx context.Context, q queryir.Range) ([]record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := queryir.Validate(q); err != nil {
		return nil, err
	}

	var matched []record.Record
	for _, r := range m.records {
		if r.Collection != q.Collection {
			continue
		}
		key, _ := r.Key(q.Field)
		if !matches(q.Filter, key.UnixMicro()) {
			continue
		}
		matched = append(matched, r)
	}

	slices.SortFunc(matched, func(a, b record.Record) int {
		ka, _ := a.Key(q.Field)
		kb, _ := b.Key(q.Field)
		c := ka.Compare(kb)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if q.Order == queryir.Desc {
			c = -c
		}
		return c
	})

	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	if matched == nil {
		matched = []record.Record{}
	}
	return matched, nil
}

func matches(p queryir.Predicate, key int64) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case queryir.AtMost:
		return key <= pred.Value.UnixMicro()
	case *queryir.AtMost:
		return key <= pred.Value.UnixMicro()
	case queryir.AtLeast:
		return key >= pred.Value.UnixMicro()
	case *queryir.AtLeast:
		return key >= pred.Value.UnixMicro()
	default:
		return false
	}
}
