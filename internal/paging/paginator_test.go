package paging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/cursor"
	"github.com/roach88/timeline/internal/queryir"
	"github.com/roach88/timeline/internal/record"
	"github.com/roach88/timeline/internal/testutil"
)

var newest = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// key returns t_i of a testutil.Timeline built from newest with a one
// second step (t1 is the newest).
func key(i int) time.Time {
	return newest.Add(-time.Duration(i-1) * time.Second)
}

// ids returns the Timeline IDs of t_from..t_to.
func ids(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("r%02d", i))
	}
	return out
}

func newTestPaginator(n int, opts ...Option) (*Paginator, *testutil.MemStore) {
	store := testutil.NewMemStore(testutil.Timeline("notes", n, newest, time.Second)...)
	return New(store, opts...), store
}

func notes(pageSize int) Query {
	return Query{Collection: "notes", OrderField: record.FieldUpdatedAt, PageSize: pageSize}
}

func TestFetchPage_WorkedExample(t *testing.T) {
	p, store := newTestPaginator(25)
	ctx := context.Background()

	// Page 1: newest ten, older anchored at t11, nothing newer.
	page1, err := p.FetchPage(ctx, notes(10))
	require.NoError(t, err)
	assert.Equal(t, ids(1, 10), testutil.IDs(page1.Records))
	assert.Equal(t, cursor.Encode(key(11)), page1.Older)
	assert.False(t, page1.HasNewer())
	assert.Equal(t, First, page1.Direction)

	// Page 2: older from page 1.
	q := notes(10)
	q.Before = page1.Older
	page2, err := p.FetchPage(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ids(11, 20), testutil.IDs(page2.Records))
	assert.Equal(t, cursor.Encode(key(21)), page2.Older)
	assert.Equal(t, cursor.Encode(key(11).Add(cursor.Epsilon)), page2.Newer)

	// Page 3: the tail, nothing older.
	q.Before = page2.Older
	page3, err := p.FetchPage(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ids(21, 25), testutil.IDs(page3.Records))
	assert.False(t, page3.HasOlder())
	assert.Equal(t, cursor.Encode(key(21).Add(cursor.Epsilon)), page3.Newer)

	// Back from page 3 reproduces page 2.
	back := notes(10)
	back.After = page3.Newer
	back2, err := p.FetchPage(ctx, back)
	require.NoError(t, err)
	assert.Equal(t, testutil.IDs(page2.Records), testutil.IDs(back2.Records))
	assert.Equal(t, Newer, back2.Direction)
	assert.Equal(t, cursor.Encode(key(21)), back2.Older)
	assert.Equal(t, cursor.Encode(key(10)), back2.Newer)

	// Back again reproduces page 1, which has nothing newer.
	back.After = back2.Newer
	back1, err := p.FetchPage(ctx, back)
	require.NoError(t, err)
	assert.Equal(t, testutil.IDs(page1.Records), testutil.IDs(back1.Records))
	assert.False(t, back1.HasNewer())
	assert.True(t, back1.HasOlder())

	// Page 2's own newer cursor reaches page 1 as well.
	back.After = page2.Newer
	viaPage2, err := p.FetchPage(ctx, back)
	require.NoError(t, err)
	assert.Equal(t, testutil.IDs(page1.Records), testutil.IDs(viaPage2.Records))

	assert.Equal(t, 6, store.Calls(), "one store read per page")
}

func TestFetchPage_RangeQueries(t *testing.T) {
	p, store := newTestPaginator(25)
	ctx := context.Background()
	c := cursor.Encode(key(11))

	_, err := p.FetchPage(ctx, notes(10))
	require.NoError(t, err)

	q := notes(10)
	q.Before = c
	_, err = p.FetchPage(ctx, q)
	require.NoError(t, err)

	q = notes(10)
	q.After = c
	_, err = p.FetchPage(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, []queryir.Range{
		{Collection: "notes", Field: record.FieldUpdatedAt, Order: queryir.Desc, Limit: 11},
		{
			Collection: "notes",
			Field:      record.FieldUpdatedAt,
			Filter:     queryir.AtMost{Field: record.FieldUpdatedAt, Value: key(11)},
			Order:      queryir.Desc,
			Limit:      11,
		},
		{
			Collection: "notes",
			Field:      record.FieldUpdatedAt,
			Filter:     queryir.AtLeast{Field: record.FieldUpdatedAt, Value: key(11)},
			Order:      queryir.Asc,
			Limit:      11,
		},
	}, store.Queries())
}

func TestFetchPage_AfterPageIsNewestFirst(t *testing.T) {
	p, _ := newTestPaginator(25)

	q := notes(5)
	q.After = cursor.Encode(key(20))
	page, err := p.FetchPage(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, ids(16, 20), testutil.IDs(page.Records))
	assert.Equal(t, cursor.Encode(key(20).Add(-cursor.Epsilon)), page.Older)
	assert.Equal(t, cursor.Encode(key(15)), page.Newer)
}

func TestFetchPage_AfterPageAlwaysHasOlder(t *testing.T) {
	p, _ := newTestPaginator(3)

	q := notes(10)
	q.After = cursor.Encode(key(1).Add(time.Hour))
	page, err := p.FetchPage(context.Background(), q)
	require.NoError(t, err)

	assert.Empty(t, page.Records)
	assert.True(t, page.HasOlder())
	assert.False(t, page.HasNewer())
}

func TestFetchPage_ExactMultiple(t *testing.T) {
	p, _ := newTestPaginator(20)
	ctx := context.Background()

	page1, err := p.FetchPage(ctx, notes(10))
	require.NoError(t, err)
	require.True(t, page1.HasOlder())

	q := notes(10)
	q.Before = page1.Older
	page2, err := p.FetchPage(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ids(11, 20), testutil.IDs(page2.Records))
	assert.False(t, page2.HasOlder(), "no empty trailing page")
}

func TestFetchPage_EmptyCollection(t *testing.T) {
	p, _ := newTestPaginator(0)

	page, err := p.FetchPage(context.Background(), notes(10))
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
	assert.False(t, page.HasOlder())
	assert.False(t, page.HasNewer())
}

func TestFetchPage_PageSizeOne(t *testing.T) {
	p, _ := newTestPaginator(3)
	ctx := context.Background()

	var seen []string
	q := notes(1)
	for {
		page, err := p.FetchPage(ctx, q)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		seen = append(seen, page.Records[0].ID)
		if !page.HasOlder() {
			break
		}
		q.Before = page.Older
	}
	assert.Equal(t, ids(1, 3), seen)
}

func TestFetchPage_CreatedAtOrdering(t *testing.T) {
	records := testutil.Timeline("notes", 4, newest, time.Second)
	// Touch the oldest record: it becomes the newest by updated_at only.
	records[3].UpdatedAt = newest.Add(time.Minute)
	p := New(testutil.NewMemStore(records...))
	ctx := context.Background()

	byUpdated, err := p.FetchPage(ctx, notes(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"r04", "r01", "r02", "r03"}, testutil.IDs(byUpdated.Records))

	q := notes(10)
	q.OrderField = record.FieldCreatedAt
	byCreated, err := p.FetchPage(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"r01", "r02", "r03", "r04"}, testutil.IDs(byCreated.Records))
}

func TestFetchPage_RejectsBeforeStoreAccess(t *testing.T) {
	valid := cursor.Encode(key(5))

	tests := []struct {
		name      string
		query     Query
		malformed bool
	}{
		{"both cursors", Query{Collection: "notes", OrderField: record.FieldUpdatedAt, PageSize: 10, Before: valid, After: valid}, false},
		{"zero page size", Query{Collection: "notes", OrderField: record.FieldUpdatedAt}, false},
		{"negative page size", Query{Collection: "notes", OrderField: record.FieldUpdatedAt, PageSize: -1}, false},
		{"page size above maximum", Query{Collection: "notes", OrderField: record.FieldUpdatedAt, PageSize: 101}, false},
		{"empty collection", Query{OrderField: record.FieldUpdatedAt, PageSize: 10}, false},
		{"padded collection", Query{Collection: " notes", OrderField: record.FieldUpdatedAt, PageSize: 10}, false},
		{"unknown order field", Query{Collection: "notes", OrderField: "title", PageSize: 10}, false},
		{"missing order field", Query{Collection: "notes", PageSize: 10}, false},
		{"garbage before", Query{Collection: "notes", OrderField: record.FieldUpdatedAt, PageSize: 10, Before: "yesterday"}, true},
		{"garbage after", Query{Collection: "notes", OrderField: record.FieldUpdatedAt, PageSize: 10, After: "2024-13-01+00%3A00%3A00.000000"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store := newTestPaginator(5, WithMaxPageSize(100))

			page, err := p.FetchPage(context.Background(), tt.query)
			require.Error(t, err)
			assert.Nil(t, page)
			assert.Equal(t, 0, store.Calls(), "store must not be consulted")

			assert.Equal(t, tt.malformed, IsMalformedCursor(err))
			assert.Equal(t, !tt.malformed, IsInvalidQuery(err))
			if tt.malformed {
				assert.ErrorIs(t, err, cursor.ErrMalformed)
			}
		})
	}
}

func TestFetchPage_HugePageSizeWithoutMaximum(t *testing.T) {
	p, store := newTestPaginator(5)
	ctx := context.Background()

	page, err := p.FetchPage(ctx, notes(1<<50))
	require.NoError(t, err)
	assert.Equal(t, ids(1, 5), testutil.IDs(page.Records))
	assert.False(t, page.HasOlder())
	assert.Equal(t, 1<<50+1, store.Queries()[0].Limit)

	page, err = p.FetchPage(ctx, notes(math.MaxInt))
	require.Error(t, err)
	assert.Nil(t, page)
	assert.True(t, IsInvalidQuery(err))
	assert.Equal(t, 1, store.Calls())
}

func TestFetchPage_MaxPageSizeBoundary(t *testing.T) {
	p, _ := newTestPaginator(5, WithMaxPageSize(5))

	page, err := p.FetchPage(context.Background(), notes(5))
	require.NoError(t, err)
	assert.Len(t, page.Records, 5)

	_, err = p.FetchPage(context.Background(), notes(6))
	assert.True(t, IsInvalidQuery(err))
}

func TestFetchPage_StoreErrorUnchanged(t *testing.T) {
	p, store := newTestPaginator(5)
	boom := errors.New("connection reset")
	store.FailWith(boom)

	page, err := p.FetchPage(context.Background(), notes(10))
	assert.Nil(t, page)
	assert.True(t, err == boom, "got %v", err)
	assert.False(t, IsInvalidQuery(err))
	assert.False(t, IsMalformedCursor(err))
}

func TestFetchPage_Cancellation(t *testing.T) {
	p, _ := newTestPaginator(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchPage(ctx, notes(10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchPage_Concurrent(t *testing.T) {
	p, _ := newTestPaginator(53)
	ctx := context.Background()
	want := ids(1, 53)

	const workers = 16
	results := make([][]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			q := notes(w%7 + 1)
			for {
				page, err := p.FetchPage(ctx, q)
				if err != nil {
					errs[w] = err
					return
				}
				results[w] = append(results[w], testutil.IDs(page.Records)...)
				if !page.HasOlder() {
					return
				}
				q.Before = page.Older
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		assert.Equal(t, want, results[w], "worker %d", w)
	}
}

func TestFetchPage_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, _ := newTestPaginator(25, WithLogger(logger))

	q := notes(10)
	q.Before = cursor.Encode(key(11))
	_, err := p.FetchPage(context.Background(), q)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "fetched page")
	assert.Contains(t, out, "direction=older")
	assert.Contains(t, out, "shown=10")
	assert.Contains(t, out, "older=true")
}

func TestFetchPage_ResultIsolatedFromStore(t *testing.T) {
	records := testutil.Timeline("notes", 3, newest, time.Second)
	fixed := &fixedStore{records: records}
	p := New(fixed)

	page, err := p.FetchPage(context.Background(), notes(2))
	require.NoError(t, err)

	page.Records[0].ID = "changed"
	assert.Equal(t, "r01", fixed.records[0].ID)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "first", First.String())
	assert.Equal(t, "older", Older.String())
	assert.Equal(t, "newer", Newer.String())
}

// fixedStore returns the same records for every query.
type fixedStore struct {
	records []record.Record
}

func (s *fixedStore) RangeQuery(_ context.Context, _ queryir.Range) ([]record.Record, error) {
	return s.records, nil
}
