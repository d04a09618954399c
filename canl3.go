package canl3

import (
	"encoding/json"
	"fmt"

	"github.com/KimNorgaard/go-canl3/internal/decoder"
	"github.com/KimNorgaard/go-canl3/internal/encoder"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
	"github.com/KimNorgaard/go-canl3/value"
)

// Directive is an @keyword: value line preceding the data of a document.
type Directive struct {
	Keyword string
	Value   string
	Line    int
}

// Document is a decoded CanL3 text together with its header.
type Document struct {
	Value      *value.Value
	Version    string // empty when the text has no #version header
	Delimiter  byte   // the delimiter the data was read with
	Directives []Directive
}

// Decode parses CanL3 text into a value tree.
func Decode(text string, opts ...Option) (*value.Value, error) {
	doc, err := Parse(text, opts...)
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

// Parse parses CanL3 text and returns the value tree along with the header
// and directives that preceded it.
//
// The delimiter is taken from the WithDelimiter option, then from the
// #delimiter header, and is otherwise guessed from the data.
func Parse(text string, opts ...Option) (*Document, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	scanned, err := scanner.Scan(text)
	if err != nil {
		return nil, err
	}

	ctx := o.decodeContext()
	switch {
	case o.delimiter != 0:
		ctx.Delimiter = o.delimiter
	case scanned.Header.HasDelimiter:
		ctx.Delimiter = scanned.Header.Delimiter
	default:
		ctx.Delimiter = decoder.Detect(scanned.Lines)
	}

	v, err := decoder.Decode(scanned.Lines, ctx)
	if err != nil {
		return nil, err
	}
	if o.unwrapRoot && v.Kind() == value.Object && v.Len() == 1 {
		if inner, ok := v.Get("root"); ok {
			v = inner
		}
	}

	doc := &Document{
		Value:     v,
		Version:   scanned.Header.Version,
		Delimiter: ctx.Delimiter,
	}
	for _, d := range scanned.Directives {
		doc.Directives = append(doc.Directives, Directive(d))
	}
	return doc, nil
}

// Encode returns the CanL3 text of v.
func Encode(v *value.Value, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}
	return encoder.Encode(v, o.encodeContext())
}

// EncodeSmart is like Encode, but when no delimiter is given it picks the
// one that occurs least often in the keys and strings of v.
func EncodeSmart(v *value.Value, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}
	if o.delimiter == 0 {
		d, err := encoder.SelectDelimiter(v)
		if err != nil {
			return "", err
		}
		o.delimiter = d
	}
	return encoder.Encode(v, o.encodeContext())
}

// Marshal returns the CanL3 encoding of v.
//
// v may be a *value.Value or any value encoding/json accepts. Map keys are
// sorted; struct fields keep their declaration order and honor json tags.
func Marshal(v any, opts ...Option) ([]byte, error) {
	tree, err := value.FromAny(v)
	if err != nil {
		return nil, err
	}
	s, err := Encode(tree, opts...)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Unmarshal parses CanL3 data and stores the result in the value pointed
// to by v.
//
// A *value.Value receives the tree itself and a *any receives maps, slices
// and primitives as produced by value.ToAny. Any other target is filled
// through encoding/json.
func Unmarshal(data []byte, v any, opts ...Option) error {
	tree, err := Decode(string(data), opts...)
	if err != nil {
		return err
	}
	return assign(tree, v)
}

func assign(tree *value.Value, v any) error {
	switch dst := v.(type) {
	case nil:
		return fmt.Errorf("canl3: Unmarshal(nil)")
	case *value.Value:
		if dst == nil {
			return fmt.Errorf("canl3: Unmarshal(nil *value.Value)")
		}
		*dst = *tree
		return nil
	case **value.Value:
		if dst == nil {
			return fmt.Errorf("canl3: Unmarshal(nil **value.Value)")
		}
		*dst = tree
		return nil
	case *any:
		if dst == nil {
			return fmt.Errorf("canl3: Unmarshal(nil *interface {})")
		}
		*dst = value.ToAny(tree)
		return nil
	}

	b, err := tree.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("canl3: %w", err)
	}
	return nil
}
