package signatures

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every database parse failure.
var ErrParse = errors.New("signature database parse error")

// ParseError locates a malformed database line. A single ParseError rejects
// the whole database.
type ParseError struct {
	File   string
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}
