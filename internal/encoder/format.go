package encoder

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/KimNorgaard/go-canl3/internal/fields"
	"github.com/KimNorgaard/go-canl3/internal/infer"
	"github.com/KimNorgaard/go-canl3/value"
)

// primitive formats a primitive for a member, element or table cell.
func (e *Encoder) primitive(v *value.Value) string {
	switch v.Kind() {
	case value.Bool:
		return strconv.FormatBool(v.AsBool())
	case value.Number:
		return FormatNumber(v)
	case value.String:
		s := v.AsString()
		if e.needsQuotes(s) {
			return fields.Quote(s)
		}
		return s
	}
	return "null"
}

func (e *Encoder) rootPrimitive(v *value.Value) string {
	if v.Kind() != value.String {
		return e.primitive(v)
	}
	s := v.AsString()
	if e.needsQuotes(s) || strings.ContainsAny(s, ":[{") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "@") {
		return fields.Quote(s)
	}
	return s
}

func (e *Encoder) needsQuotes(s string) bool {
	if s == "" || edgeSpace(s) || infer.LooksLiteral(s) {
		return true
	}
	return strings.IndexByte(s, e.ctx.Delimiter) >= 0 || strings.ContainsAny(s, "\n\r\"")
}

// key formats an object key or a column name.
func (e *Encoder) key(k string, column bool) string {
	if k == "" || edgeSpace(k) || strings.ContainsAny(k, `:[]{}"`) ||
		strings.HasPrefix(k, "#") || strings.HasPrefix(k, "@") ||
		(column && strings.IndexByte(k, e.ctx.Delimiter) >= 0) {
		return fields.Quote(k)
	}
	for _, r := range k {
		if unicode.IsControl(r) {
			return fields.Quote(k)
		}
	}
	return k
}

func edgeSpace(s string) bool {
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

// FormatNumber writes exact integers without a fraction, integral floats
// with a ".0" suffix and other floats in their shortest form. NaN and the
// infinities become null.
func FormatNumber(v *value.Value) string {
	if i, ok := v.AsInt(); ok {
		return strconv.FormatInt(i, 10)
	}
	f := v.AsFloat()
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return "null"
	case math.Trunc(f) == f && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64) + ".0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
