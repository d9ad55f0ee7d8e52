package queryir

import (
	"time"

	"github.com/roach88/timeline/internal/record"
)

// Order is the direction rows are returned in.
type Order int

const (
	// Desc returns the newest order key first.
	Desc Order = iota
	// Asc returns the oldest order key first.
	Asc
)

// String returns the SQL keyword for the order.
func (o Order) String() string {
	if o == Asc {
		return "ASC"
	}
	return "DESC"
}

// Predicate is a range filter on the order field.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch exhaustively over AtMost and AtLeast.
type Predicate interface {
	predicateNode()
}

// AtMost matches rows whose field is less than or equal to Value.
//
//	<field> <= <value>
type AtMost struct {
	Field record.Field
	Value time.Time
}

func (AtMost) predicateNode() {}

// AtLeast matches rows whose field is greater than or equal to Value.
//
//	<field> >= <value>
type AtLeast struct {
	Field record.Field
	Value time.Time
}

func (AtLeast) predicateNode() {}

// Range is one bounded, ordered read of a collection.
//
// Semantics:
//
//	SELECT * FROM <collection>
//	WHERE <filter>
//	ORDER BY <field> <order>
//	LIMIT <limit>
//
// Example (the "after" page of a cursor walk):
//
//	Range{
//	  Collection: "notes",
//	  Field:      record.FieldUpdatedAt,
//	  Filter:     AtLeast{Field: record.FieldUpdatedAt, Value: boundary},
//	  Order:      Asc,
//	  Limit:      11,
//	}
//
// A nil Filter reads from the newest (Desc) or oldest (Asc) end.
type Range struct {
	Collection string
	Field      record.Field
	Filter     Predicate
	Order      Order
	Limit      int
}
