package queryir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/timeline/internal/record"
)

// Validate checks that a Range is well formed before it reaches a backend.
//
// Rules:
//  1. Collection is non-empty and has no surrounding whitespace
//  2. Field is a known order field
//  3. Limit is at least 1
//  4. Filter, when present, constrains the ordering field
//
// All violations are reported together. Validate is a pure function.
func Validate(q Range) error {
	v := &validator{}
	v.validateRange(q)
	return errors.Join(v.errs...)
}

// validator accumulates problems during traversal.
type validator struct {
	errs []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validateRange(q Range) {
	if q.Collection == "" {
		v.addError("collection is required")
	} else if strings.TrimSpace(q.Collection) != q.Collection {
		v.addError("collection %q has surrounding whitespace", q.Collection)
	}

	if _, err := record.ParseField(string(q.Field)); err != nil {
		v.addError("field: %w", err)
	}

	if q.Limit < 1 {
		v.addError("limit must be at least 1, got %d", q.Limit)
	}

	if q.Order != Asc && q.Order != Desc {
		v.addError("unknown order %d", q.Order)
	}

	if q.Filter != nil {
		v.validatePredicate(q.Field, q.Filter)
	}
}

func (v *validator) validatePredicate(field record.Field, p Predicate) {
	switch pred := p.(type) {
	case AtMost:
		v.validateBound(field, pred.Field)
	case *AtMost:
		v.validateBound(field, pred.Field)
	case AtLeast:
		v.validateBound(field, pred.Field)
	case *AtLeast:
		v.validateBound(field, pred.Field)
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

// validateBound enforces that a range filter and the ordering agree on the
// field. A filter on one timestamp with ordering on the other would not
// describe a contiguous window of the collection.
func (v *validator) validateBound(orderField, filterField record.Field) {
	if filterField != orderField {
		v.addError("filter field %q does not match order field %q", filterField, orderField)
	}
}
