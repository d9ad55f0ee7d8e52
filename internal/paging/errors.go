package paging

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes paging errors.
type ErrorCode string

const (
	// ErrCodeMalformedCursor indicates a before/after cursor that does not
	// decode to an order-key value.
	ErrCodeMalformedCursor ErrorCode = "MALFORMED_CURSOR"

	// ErrCodeInvalidQuery indicates a query that cannot be answered: both
	// cursors present, a page size out of range, a missing collection or
	// an unknown order field.
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"
)

// Error is returned for queries rejected before the store is consulted.
//
// Store failures are never wrapped in an Error; they are returned exactly
// as the store reported them.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsMalformedCursor returns true if the error is a malformed cursor error.
// Uses errors.As to handle wrapped errors.
func IsMalformedCursor(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeMalformedCursor
	}
	return false
}

// IsInvalidQuery returns true if the error is an invalid query error.
// Uses errors.As to handle wrapped errors.
func IsInvalidQuery(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeInvalidQuery
	}
	return false
}

func malformedCursor(param string, err error) *Error {
	return &Error{
		Code:    ErrCodeMalformedCursor,
		Message: fmt.Sprintf("%s cursor is not a valid position", param),
		Err:     err,
	}
}

func invalidQuery(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidQuery,
		Message: fmt.Sprintf(format, args...),
	}
}
