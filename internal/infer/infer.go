// Package infer converts CanL3 fields into typed values and computes the
// optional type hints written next to keys and columns.
package infer

import (
	"math"
	"strconv"

	"github.com/KimNorgaard/go-canl3/internal/fields"
	"github.com/KimNorgaard/go-canl3/value"
)

// Type hints.
const (
	U32  = "u32"
	I32  = "i32"
	F64  = "f64"
	Bool = "bool"
	Null = "null"
	Str  = "str"
	Obj  = "obj"
	List = "list"
)

var hints = map[string]struct{}{
	U32: {}, I32: {}, F64: {}, Bool: {}, Null: {}, Str: {}, Obj: {}, List: {},
}

// IsHint reports whether s is a known type hint.
func IsHint(s string) bool {
	_, ok := hints[s]
	return ok
}

// Coerce converts a field into a value. An empty unquoted field is missing
// and reported with ok set to false.
func Coerce(f fields.Field) (v *value.Value, ok bool) {
	switch f.Kind {
	case fields.Quoted, fields.Triple:
		return value.NewString(f.Text), true
	}
	if f.Raw == "" {
		return nil, false
	}
	return Plain(f.Raw), true
}

// Plain converts unquoted text into a boolean, null, number or string.
func Plain(s string) *value.Value {
	switch s {
	case "true":
		return value.NewBool(true)
	case "false":
		return value.NewBool(false)
	case "null":
		return value.NewNull()
	}
	isFloat, ok := ParseAsNumber(s)
	if !ok {
		return value.NewString(s)
	}
	if !isFloat {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || i > value.MaxSafeInteger || i < -value.MaxSafeInteger {
			return value.NewString(s)
		}
		return value.NewInt(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return value.NewString(s)
	}
	return value.NewFloat(f)
}

// LooksLiteral reports whether unquoted s would not decode as the string s.
func LooksLiteral(s string) bool {
	if s == "true" || s == "false" || s == "null" {
		return true
	}
	_, ok := ParseAsNumber(s)
	return ok
}

// HintOf returns the type hint describing v.
func HintOf(v *value.Value) string {
	switch v.Kind() {
	case value.Null:
		return Null
	case value.Bool:
		return Bool
	case value.String:
		return Str
	case value.List:
		return List
	case value.Object:
		return Obj
	}
	if i, ok := v.AsInt(); ok {
		switch {
		case i >= 0 && i <= math.MaxUint32:
			return U32
		case i < 0 && i >= math.MinInt32:
			return I32
		}
	}
	return F64
}

// CheckHint reports whether v satisfies hint. Null satisfies every hint.
func CheckHint(hint string, v *value.Value) bool {
	if v.IsNull() {
		return true
	}
	switch hint {
	case U32:
		i, ok := v.AsInt()
		return ok && i >= 0 && i <= math.MaxUint32
	case I32:
		i, ok := v.AsInt()
		return ok && i >= math.MinInt32 && i <= math.MaxInt32
	case F64:
		return v.Kind() == value.Number
	case Bool:
		return v.Kind() == value.Bool
	case Null:
		return false
	case Str:
		return v.Kind() == value.String
	case Obj:
		return v.Kind() == value.Object
	case List:
		return v.Kind() == value.List
	}
	return true
}

// ParseAsNumber reports whether s matches the number grammar: an optional
// sign, an integer part without leading zeros, an optional fraction and an
// optional exponent. isFloat is set when a fraction or exponent is present.
func ParseAsNumber(s string) (isFloat bool, ok bool) {
	if len(s) == 0 {
		return false, false
	}
	i := 0

	// Optional sign.
	if s[i] == '-' || s[i] == '+' {
		if len(s) == 1 {
			return false, false
		}
		i++
	}

	// Integer part.
	i, ok = parseIntegerPart(s, i)
	if !ok {
		return false, false
	}

	// Fractional part.
	var fracIsFloat bool
	i, ok, fracIsFloat = parseFractionalPart(s, i)
	if !ok {
		return false, false
	}

	// Exponent part.
	var expIsFloat bool
	i, ok, expIsFloat = parseExponentPart(s, i)
	if !ok {
		return false, false
	}

	// Must consume the whole string.
	if i != len(s) {
		return false, false
	}
	return fracIsFloat || expIsFloat, true
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func consumeDigits(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}

func parseIntegerPart(s string, i int) (newIndex int, ok bool) {
	start := i
	i = consumeDigits(s, i)
	if i == start {
		return i, false
	}
	if i-start > 1 && s[start] == '0' {
		return i, false // leading zero
	}
	return i, true
}

func parseFractionalPart(s string, i int) (newIndex int, ok bool, isFloat bool) {
	if i >= len(s) || s[i] != '.' {
		return i, true, false
	}
	i++
	start := i
	i = consumeDigits(s, i)
	if i == start {
		return i, false, true
	}
	return i, true, true
}

func parseExponentPart(s string, i int) (newIndex int, ok bool, isFloat bool) {
	if i >= len(s) || (s[i] != 'e' && s[i] != 'E') {
		return i, true, false
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	i = consumeDigits(s, i)
	if i == start {
		return i, false, true
	}
	return i, true, true
}
