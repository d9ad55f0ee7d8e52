package paging

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/roach88/timeline/internal/cursor"
	"github.com/roach88/timeline/internal/queryir"
	"github.com/roach88/timeline/internal/record"
)

// OrderedStore answers bounded, ordered reads of a collection.
//
// RangeQuery must return at most q.Limit records of q.Collection that
// satisfy q.Filter, sorted by q.Field in q.Order. It must have no side
// effects.
type OrderedStore interface {
	RangeQuery(ctx context.Context, q queryir.Range) ([]record.Record, error)
}

// Direction is the way a request travels through the collection.
type Direction int

const (
	// First is the newest page; the request carried no cursor.
	First Direction = iota
	// Older pages come from a before cursor.
	Older
	// Newer pages come from an after cursor.
	Newer
)

// String returns the direction's name for logs and traces.
func (d Direction) String() string {
	switch d {
	case Older:
		return "older"
	case Newer:
		return "newer"
	default:
		return "first"
	}
}

// Query is one page request.
//
// At most one of Before and After may be set. An empty string means the
// cursor is absent.
type Query struct {
	Collection string
	OrderField record.Field
	PageSize   int
	Before     string
	After      string
}

// Page is one screen of records and the cursors of its neighbours.
//
// Records are always newest first. Older and Newer are encoded cursors for
// the adjacent pages, empty when there is no such page.
type Page struct {
	Records   []record.Record
	Older     string
	Newer     string
	Direction Direction
}

// HasOlder reports whether an older page exists.
func (p *Page) HasOlder() bool { return p.Older != "" }

// HasNewer reports whether a newer page exists.
func (p *Page) HasNewer() bool { return p.Newer != "" }

// Option configures a Paginator.
type Option func(*Paginator)

// WithMaxPageSize rejects queries whose page size exceeds n. Zero or a
// negative n means no upper bound.
func WithMaxPageSize(n int) Option {
	return func(p *Paginator) { p.maxPageSize = n }
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Paginator) {
		if l != nil {
			p.logger = l
		}
	}
}

// Paginator computes pages of an OrderedStore.
//
// Thread-safety: Paginator is immutable after New and safe for concurrent
// use. Each FetchPage call issues exactly one RangeQuery.
type Paginator struct {
	store       OrderedStore
	maxPageSize int
	logger      *slog.Logger
}

// New creates a Paginator reading from store.
func New(store OrderedStore, opts ...Option) *Paginator {
	p := &Paginator{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// request is a validated Query.
type request struct {
	Query
	direction Direction
	boundary  time.Time
}

// FetchPage returns the page q asks for.
//
// Invalid queries and malformed cursors are reported as *Error before the
// store is consulted. Store errors are returned unchanged.
func (p *Paginator) FetchPage(ctx context.Context, q Query) (*Page, error) {
	req, err := p.resolve(q)
	if err != nil {
		return nil, err
	}

	fetched, err := p.store.RangeQuery(ctx, req.rangeQuery())
	if err != nil {
		return nil, err
	}

	page, err := req.assemble(fetched)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "fetched page",
		"collection", q.Collection,
		"order_field", string(q.OrderField),
		"direction", req.direction.String(),
		"page_size", q.PageSize,
		"fetched", len(fetched),
		"shown", len(page.Records),
		"older", page.HasOlder(),
		"newer", page.HasNewer(),
	)

	return page, nil
}

// resolve validates q and decodes its cursor.
func (p *Paginator) resolve(q Query) (request, error) {
	req := request{Query: q}

	if q.Collection == "" || strings.TrimSpace(q.Collection) != q.Collection {
		return req, invalidQuery("collection %q is not a valid name", q.Collection)
	}
	if _, err := record.ParseField(string(q.OrderField)); err != nil {
		return req, &Error{Code: ErrCodeInvalidQuery, Message: "order field is not orderable", Err: err}
	}
	if q.PageSize < 1 {
		return req, invalidQuery("page size must be at least 1, got %d", q.PageSize)
	}
	if q.PageSize == math.MaxInt {
		return req, invalidQuery("page size %d is too large", q.PageSize)
	}
	if p.maxPageSize > 0 && q.PageSize > p.maxPageSize {
		return req, invalidQuery("page size %d exceeds maximum %d", q.PageSize, p.maxPageSize)
	}
	if q.Before != "" && q.After != "" {
		return req, invalidQuery("before and after cursors are mutually exclusive")
	}

	var err error
	switch {
	case q.Before != "":
		req.direction = Older
		if req.boundary, err = cursor.Decode(q.Before); err != nil {
			return req, malformedCursor("before", err)
		}
	case q.After != "":
		req.direction = Newer
		if req.boundary, err = cursor.Decode(q.After); err != nil {
			return req, malformedCursor("after", err)
		}
	default:
		req.direction = First
	}

	return req, nil
}

// rangeQuery is the single store read for the request. One record beyond
// the page size is requested to detect whether the walk can continue.
func (r request) rangeQuery() queryir.Range {
	rng := queryir.Range{
		Collection: r.Collection,
		Field:      r.OrderField,
		Order:      queryir.Desc,
		Limit:      r.PageSize + 1,
	}

	switch r.direction {
	case Older:
		rng.Filter = queryir.AtMost{Field: r.OrderField, Value: r.boundary}
	case Newer:
		rng.Filter = queryir.AtLeast{Field: r.OrderField, Value: r.boundary}
		rng.Order = queryir.Asc
	}
	return rng
}

// assemble trims fetched to the page and derives the neighbour cursors.
func (r request) assemble(fetched []record.Record) (*Page, error) {
	overflow := len(fetched) > r.PageSize
	shown := slices.Clone(fetched[:min(len(fetched), r.PageSize)])
	if shown == nil {
		shown = []record.Record{}
	}

	page := &Page{Records: shown, Direction: r.direction}

	// The record beyond the page is the first one the next page in the
	// direction of travel shows.
	var beyond string
	if overflow {
		key, err := fetched[r.PageSize].Key(r.OrderField)
		if err != nil {
			return nil, fmt.Errorf("order key of record %q: %w", fetched[r.PageSize].ID, err)
		}
		beyond = cursor.Encode(key)
	}

	switch r.direction {
	case First:
		page.Older = beyond
	case Older:
		page.Older = beyond
		page.Newer = cursor.Encode(cursor.After(r.boundary))
	case Newer:
		slices.Reverse(page.Records)
		page.Older = cursor.Encode(cursor.Before(r.boundary))
		page.Newer = beyond
	}

	return page, nil
}
