// Package cursor encodes order-key timestamps into opaque, URL-safe page
// cursors and back.
//
// The textual form is a full UTC date-time with exactly six fractional
// digits, e.g. "2024-03-01 12:30:00.000001". It sorts the same way
// lexically and chronologically. The text is then query-escaped so it can
// be placed directly in a URL query component:
//
//	c := cursor.Encode(t)          // "2024-03-01+12%3A30%3A00.000001"
//	t2, err := cursor.Decode(c)    // t2.Equal(t)
//
// Decode also accepts the unescaped text, which is what an HTTP handler
// sees after the query string has been parsed.
package cursor

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Layout is the canonical text layout of a cursor before escaping.
const Layout = "2006-01-02 15:04:05.000000"

// Resolution is the precision cursors carry. It matches the store's
// order-key resolution.
const Resolution = time.Microsecond

// Epsilon is the smallest representable step between two order keys.
const Epsilon = Resolution

// ErrMalformed is returned (wrapped) when a cursor does not decode to a
// valid order-key value.
var ErrMalformed = errors.New("malformed cursor")

// Encode returns the cursor for t. The value is converted to UTC and
// truncated to Resolution.
//
// Years outside 0001..9999 are not representable and produce a cursor that
// Decode rejects.
func Encode(t time.Time) string {
	return url.QueryEscape(t.UTC().Truncate(Resolution).Format(Layout))
}

// Decode parses a cursor produced by Encode. The result is in UTC.
func Decode(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformed)
	}
	text, err := url.QueryUnescape(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	t, err := time.ParseInLocation(Layout, text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	return t, nil
}

// Before returns the latest representable key strictly earlier than t.
func Before(t time.Time) time.Time {
	return t.Add(-Epsilon)
}

// After returns the earliest representable key strictly later than t.
func After(t time.Time) time.Time {
	return t.Add(Epsilon)
}
