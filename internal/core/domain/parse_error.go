package domain

import (
	"errors"
	"fmt"
)

// ParseError reports a failed parse. Kind is one of the parse error
// sentinels (or ErrNotFound), Err is the underlying cause if any.
type ParseError struct {
	Kind   error
	Format Format
	Path   string
	Err    error
}

// NewParseError builds a ParseError of the given kind wrapping cause.
func NewParseError(kind error, format Format, cause error) *ParseError {
	return &ParseError{Kind: kind, Format: format, Err: cause}
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s", e.Format)
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ParseErrorKind returns the kind of err if it is (or wraps) a ParseError.
func ParseErrorKind(err error) (error, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return nil, false
}
