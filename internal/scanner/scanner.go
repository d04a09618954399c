// Package scanner turns CanL3 text into logical lines.
//
// It reads the leading #version and #delimiter headers and the @ directives,
// drops blank lines, records the indentation and physical line number of
// every data line and joins the physical lines of multi-line triple-quoted
// literals.
package scanner

import (
	"fmt"
	"strings"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/fields"
)

// Header holds the values of the leading # lines.
type Header struct {
	Version      string
	Delimiter    byte
	HasDelimiter bool
}

// Directive is an @keyword: value line preceding the data section.
type Directive struct {
	Keyword string
	Value   string
	Line    int
}

// Line is a logical data line.
type Line struct {
	Number int    // 1-based physical line of the first physical line
	Indent int    // leading spaces
	Text   string // content after the indentation
}

// Document is the scanned form of a CanL3 text.
type Document struct {
	Header     Header
	Directives []Directive
	Lines      []Line
}

var directiveKeywords = map[string]struct{}{
	"version":     {},
	"delimiter":   {},
	"import":      {},
	"schema":      {},
	"type":        {},
	"description": {},
}

// IsDirectiveKeyword reports whether kw names a known @ directive.
func IsDirectiveKeyword(kw string) bool {
	_, ok := directiveKeywords[kw]
	return ok
}

// Scan splits text into header, directives and data lines.
func Scan(text string) (*Document, error) {
	physical := strings.Split(text, "\n")
	for i, l := range physical {
		physical[i] = strings.TrimSuffix(l, "\r")
	}

	doc := &Document{}
	i := 0
	for ; i < len(physical); i++ {
		l := physical[i]
		if strings.TrimSpace(l) == "" {
			continue
		}
		if strings.HasPrefix(l, "#") {
			if err := doc.readHeader(l, i+1); err != nil {
				return nil, err
			}
			continue
		}
		if d, ok := parseDirective(l, i+1); ok {
			doc.Directives = append(doc.Directives, d)
			continue
		}
		break
	}

	for ; i < len(physical); i++ {
		l := physical[i]
		if strings.TrimSpace(l) == "" {
			continue
		}
		start := i
		if fields.OpenTriple(l) {
			var b strings.Builder
			b.WriteString(l)
			for {
				i++
				if i == len(physical) {
					return nil, &errors.ParseError{
						Kind:    errors.SyntaxError,
						Line:    start + 1,
						Snippet: strings.TrimSpace(physical[start]),
						Message: "unterminated triple-quoted string",
						Hint:    `close the literal with """`,
					}
				}
				b.WriteByte('\n')
				b.WriteString(physical[i])
				if !fields.OpenTriple(b.String()) {
					break
				}
			}
			l = b.String()
		}
		indent := len(l) - len(strings.TrimLeft(l, " "))
		doc.Lines = append(doc.Lines, Line{Number: start + 1, Indent: indent, Text: l[indent:]})
	}
	return doc, nil
}

func (d *Document) readHeader(l string, n int) error {
	name, rest := l[1:], ""
	if j := strings.IndexAny(name, " \t"); j >= 0 {
		name, rest = name[:j], name[j:]
	}
	switch name {
	case "version":
		if v := strings.TrimSpace(rest); v != "" {
			d.Header.Version = v
		}
	case "delimiter":
		delim, ok := ParseDelimiter(strings.Trim(rest, " "))
		if !ok {
			return &errors.ParseError{
				Kind:    errors.InvalidDelimiter,
				Line:    n,
				Snippet: l,
				Message: fmt.Sprintf("invalid delimiter %q", strings.Trim(rest, " ")),
				Hint:    `valid delimiters are , | ; and \t`,
			}
		}
		d.Header.Delimiter = delim
		d.Header.HasDelimiter = true
	}
	return nil
}

// ParseDelimiter maps a delimiter spelling to its byte. It accepts the
// characters , | ; and tab, a literal tab, \t and "tab".
func ParseDelimiter(s string) (byte, bool) {
	switch s {
	case ",", "|", ";":
		return s[0], true
	case "\t", `\t`, "tab":
		return '\t', true
	}
	return 0, false
}

// FormatDelimiter is the inverse of ParseDelimiter for header output.
func FormatDelimiter(d byte) string {
	if d == '\t' {
		return `\t`
	}
	return string(d)
}

func parseDirective(l string, n int) (Directive, bool) {
	if !strings.HasPrefix(l, "@") {
		return Directive{}, false
	}
	kw, val, ok := strings.Cut(l[1:], ":")
	kw = strings.TrimSpace(kw)
	if !ok || !IsDirectiveKeyword(kw) {
		return Directive{}, false
	}
	return Directive{Keyword: kw, Value: strings.TrimSpace(val), Line: n}, true
}
