// Package errors defines the structured errors returned by the CanL3 codec
// and query engine.
//
// Every error carries a Kind. Kinds implement the error interface themselves,
// so callers can test for a category with the standard library:
//
//	if errors.Is(err, canl3errors.CircularReference) {
//		// ...
//	}
package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes an error.
type Kind string

const (
	InvalidDelimiter      Kind = "invalid delimiter"
	InvalidArrayLength    Kind = "invalid array length"
	ResourceLimitExceeded Kind = "resource limit exceeded"
	DepthLimitExceeded    Kind = "depth limit exceeded"
	CircularReference     Kind = "circular reference"
	InvalidPathSyntax     Kind = "invalid path syntax"
	QueryParseError       Kind = "query parse error"
	QueryTokenError       Kind = "query token error"
	SyntaxError           Kind = "syntax error"
	InvalidIndentation    Kind = "invalid indentation"
	TypeHintMismatch      Kind = "type hint mismatch"
	UnsupportedValue      Kind = "unsupported value"
)

// Error implements the error interface so a Kind can be used as an
// errors.Is target.
func (k Kind) Error() string { return "canl3: " + string(k) }

// ParseError is returned when CanL3 text cannot be decoded.
type ParseError struct {
	Kind    Kind
	Line    int    // 1-based physical line, 0 when not tied to a line
	Snippet string // offending source text
	Message string
	Hint    string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("canl3: ")
	b.WriteString(string(e.Kind))
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether target is the error's Kind.
func (e *ParseError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// EncodeError is returned when a value cannot be encoded.
type EncodeError struct {
	Kind    Kind
	Path    string // location of the offending node, e.g. "users[1].self"
	Message string
}

func (e *EncodeError) Error() string {
	var b strings.Builder
	b.WriteString("canl3: ")
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether target is the error's Kind.
func (e *EncodeError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// QueryError is returned when a query expression cannot be parsed or
// evaluated.
type QueryError struct {
	Kind    Kind
	Expr    string
	Pos     int // 0-based byte offset into Expr, -1 when unknown
	Message string
}

func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString("canl3: ")
	b.WriteString(string(e.Kind))
	if e.Pos >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Pos)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether target is the error's Kind.
func (e *QueryError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}
