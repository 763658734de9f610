package bibtex

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the scanner. A *ParseError unwraps to one of them.
var (
	ErrTokenMismatch     = errors.New("token mismatch")
	ErrUnterminatedInput = errors.New("unterminated input")
	ErrUnterminatedValue = errors.New("unterminated value")
	ErrRunawayKey        = errors.New("runaway key")
	ErrValueExpected     = errors.New("value expected")
	ErrNoEntries         = errors.New("no entries found")
)

// ParseError describes where scanning stopped and why.
type ParseError struct {
	Kind     error
	Offset   int
	Line     int
	Column   int
	Expected string
	Found    string
	Msg      string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bibtex: %v at line %d, column %d", e.Kind, e.Line, e.Column)
	if e.Expected != "" {
		fmt.Fprintf(&b, ": expected %q, found %q", e.Expected, e.Found)
	} else if e.Found != "" {
		fmt.Fprintf(&b, ": found %q", e.Found)
	}
	if e.Msg != "" {
		b.WriteString(" (" + e.Msg + ")")
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Kind }

// excerpt keeps error messages readable for long inputs
func excerpt(s string) string {
	const maxLen = 40
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
