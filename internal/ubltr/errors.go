package ubltr

import (
	"errors"
	"fmt"
)

// Extraction errors. Missing elements are never errors; they resolve to
// empty strings, zero amounts or the default quantity.
var (
	// ErrMalformedXML is returned when the input bytes are not well-formed XML.
	ErrMalformedXML = errors.New("malformed XML")

	// ErrMissingRoot is returned when the input is empty or only whitespace.
	ErrMissingRoot = errors.New("document has no root element")

	// ErrInvalidAmount is returned when an amount element is present but its
	// text is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidPath is returned by Compile for a malformed path expression.
	ErrInvalidPath = errors.New("invalid path expression")
)

// ParseError wraps a per-document extraction failure.
type ParseError struct {
	// Op is the operation that failed (e.g. "ParseDocument", "ExtractAggregate").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context, such as the offending element.
	Details string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ubltr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ubltr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether the underlying error matches target.
func (e *ParseError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newParseError(op string, err error, details string) *ParseError {
	return &ParseError{Op: op, Err: err, Details: details}
}

// wrapParseError wraps err as a ParseError for op unless it already is one.
func wrapParseError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return newParseError(op, err, "")
}
