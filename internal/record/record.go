package record

import (
	"fmt"
	"time"
)

// Field names a timestamp column that records can be ordered and
// range-filtered on.
type Field string

const (
	// FieldCreatedAt is set once when the record is created.
	FieldCreatedAt Field = "created_at"

	// FieldUpdatedAt is refreshed to "now" on every create and update.
	FieldUpdatedAt Field = "updated_at"
)

// Fields lists every valid order field.
var Fields = []Field{FieldCreatedAt, FieldUpdatedAt}

// ParseField resolves an order field name.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown order field %q: must be one of %v", name, Fields)
}

// Record is one entry of a time-ordered collection.
//
// Timestamps are UTC at microsecond resolution, matching what the store can
// persist. The paginator only reads records.
type Record struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Attrs      Attrs     `json:"attrs"`
}

// Key returns the order-key value of the record for the given field.
func (r Record) Key(f Field) (time.Time, error) {
	switch f {
	case FieldCreatedAt:
		return r.CreatedAt, nil
	case FieldUpdatedAt:
		return r.UpdatedAt, nil
	default:
		return time.Time{}, fmt.Errorf("unknown order field %q", f)
	}
}

// Truncate normalizes t to the resolution records are stored at.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
