package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	canl3errors "github.com/KimNorgaard/go-canl3/errors"
)

// MarshalJSON returns the JSON encoding of v with object keys in insertion
// order. A cyclic tree is reported as a circular reference.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	w := jsonWriter{buf: &buf, ancestors: make(map[*Value]struct{})}
	if err := w.write(v, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonWriter struct {
	buf       *bytes.Buffer
	ancestors map[*Value]struct{}
}

func (w *jsonWriter) write(v *Value, path string) error {
	switch v.Kind() {
	case Null:
		w.buf.WriteString("null")
	case Bool:
		w.buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		w.buf.WriteString(formatJSONNumber(v))
	case String:
		writeJSONString(w.buf, v.str)
	case List, Object:
		if _, seen := w.ancestors[v]; seen {
			return &canl3errors.EncodeError{Kind: canl3errors.CircularReference, Path: path, Message: "value refers to its own ancestor"}
		}
		w.ancestors[v] = struct{}{}
		defer delete(w.ancestors, v)

		if v.kind == List {
			w.buf.WriteByte('[')
			for i, it := range v.items {
				if i > 0 {
					w.buf.WriteByte(',')
				}
				if err := w.write(it, path+"["+strconv.Itoa(i)+"]"); err != nil {
					return err
				}
			}
			w.buf.WriteByte(']')
			return nil
		}
		w.buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			writeJSONString(w.buf, m.Key)
			w.buf.WriteByte(':')
			if err := w.write(m.Value, path+"."+m.Key); err != nil {
				return err
			}
		}
		w.buf.WriteByte('}')
	}
	return nil
}

func formatJSONNumber(v *Value) string {
	if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return "null"
	}
	if v.exact {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

func writeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

// UnmarshalJSON replaces v with the decoded JSON document. Object key order
// is preserved and integers beyond MaxSafeInteger become strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// ParseJSON decodes a single JSON document.
func ParseJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, errors.New("value: invalid JSON: trailing data")
		}
		return nil, err
	}
	return v, nil
}

func readJSON(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return FromNumberLiteral(t.String())
	case json.Delim:
		switch t {
		case '[':
			list := NewList()
			for dec.More() {
				it, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				list.Append(it)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("value: invalid JSON object key %v", keyTok)
				}
				val, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("value: unexpected JSON token %v", tok)
}

// FromNumberLiteral converts a JSON number literal. Integer literals beyond
// MaxSafeInteger are kept as strings.
func FromNumberLiteral(lit string) (*Value, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return NewInt(i), nil
		}
		return NewString(strings.TrimPrefix(lit, "+")), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("value: invalid number %q: %w", lit, err)
	}
	return NewFloat(f), nil
}
