// Package decoder builds value trees from scanned CanL3 lines.
//
// Nesting is expressed by indentation. A key line owns every following line
// that is indented deeper than itself; those lines form its block. Siblings
// share the indentation of the first line of their block.
package decoder

import (
	"fmt"
	"strings"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/fields"
	"github.com/KimNorgaard/go-canl3/internal/infer"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
	"github.com/KimNorgaard/go-canl3/value"
)

const (
	DefaultMaxDepth      = 100
	DefaultMaxBlockLines = 10000
)

// Context is the state of a single decode call.
type Context struct {
	Delimiter     byte
	Strict        bool
	MaxDepth      int
	MaxBlockLines int
	ValidateHints bool

	depth int
}

// NewContext returns a context with the default limits and a comma
// delimiter.
func NewContext() *Context {
	return &Context{
		Delimiter:     ',',
		MaxDepth:      DefaultMaxDepth,
		MaxBlockLines: DefaultMaxBlockLines,
	}
}

type parser struct {
	ctx   *Context
	lines []scanner.Line
}

// Decode converts lines into a value. No lines decode to an empty object.
func Decode(lines []scanner.Line, ctx *Context) (*value.Value, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	p := &parser{ctx: ctx, lines: lines}
	return p.root()
}

func (p *parser) root() (*value.Value, error) {
	if len(p.lines) == 0 {
		return value.NewObject(), nil
	}
	if err := p.checkBlock(0, len(p.lines)); err != nil {
		return nil, err
	}

	first := p.lines[0]
	h, ok, err := p.parseHeader(first, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(p.lines) > 1 {
			return nil, p.errorf(errors.SyntaxError, first, "every line of an object must start with a key", "expected key")
		}
		v, _ := infer.Coerce(fields.Classify(first.Text, p.ctx.Delimiter))
		return v, nil
	}
	if !h.keyed {
		end := p.childEnd(1, len(p.lines), first.Indent)
		if end != len(p.lines) {
			return nil, p.errorf(errors.SyntaxError, p.lines[end], "", "unexpected content after root array")
		}
		return p.field(h, first, 1, end)
	}
	return p.object(0, len(p.lines))
}

// childEnd returns the end of the block starting at from whose lines are
// indented deeper than indent.
func (p *parser) childEnd(from, hi, indent int) int {
	for from < hi && p.lines[from].Indent > indent {
		from++
	}
	return from
}

func (p *parser) checkBlock(lo, hi int) error {
	if hi-lo > p.ctx.MaxBlockLines {
		return p.errorf(errors.ResourceLimitExceeded, p.lines[lo], "split the data into smaller blocks or raise the block line limit",
			"block of %d lines exceeds the limit of %d", hi-lo, p.ctx.MaxBlockLines)
	}
	return nil
}

func (p *parser) enter(ln scanner.Line) error {
	p.ctx.depth++
	if p.ctx.depth > p.ctx.MaxDepth {
		return p.errorf(errors.DepthLimitExceeded, ln, "", "nesting exceeds the maximum depth of %d", p.ctx.MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.ctx.depth-- }

func (p *parser) object(lo, hi int) (*value.Value, error) {
	if err := p.checkBlock(lo, hi); err != nil {
		return nil, err
	}
	if err := p.enter(p.lines[lo]); err != nil {
		return nil, err
	}
	defer p.leave()

	obj := value.NewObject()
	indent := p.lines[lo].Indent
	for i := lo; i < hi; {
		ln := p.lines[i]
		if ln.Indent != indent {
			return nil, p.indentError(ln, indent)
		}
		end := p.childEnd(i+1, hi, indent)
		h, ok, err := p.parseHeader(ln, false)
		if err != nil {
			return nil, err
		}
		if !ok || !h.keyed {
			return nil, p.errorf(errors.SyntaxError, ln, "every line of an object must start with a key", "expected key")
		}
		if p.ctx.Strict && obj.Has(h.key) {
			return nil, p.errorf(errors.SyntaxError, ln, "", "duplicate key %q", h.key)
		}
		v, err := p.field(h, ln, i+1, end)
		if err != nil {
			return nil, err
		}
		obj.Set(h.key, v)
		i = end
	}
	return obj, nil
}

// field builds the value of a key or element line whose block is [lo, hi).
func (p *parser) field(h header, ln scanner.Line, lo, hi int) (*value.Value, error) {
	var (
		v   *value.Value
		err error
	)
	switch {
	case h.hasCols:
		v, err = p.table(h, ln, lo, hi)
	case h.hasLen:
		v, err = p.list(h, ln, lo, hi)
	case h.rest != "":
		if lo < hi {
			return nil, p.errorf(errors.InvalidIndentation, p.lines[lo], "", "unexpected indented line below a value")
		}
		v, _ = infer.Coerce(fields.Classify(h.rest, p.ctx.Delimiter))
	case lo < hi:
		v, err = p.object(lo, hi)
	default:
		v = value.NewObject()
	}
	if err != nil {
		return nil, err
	}
	if p.ctx.ValidateHints && h.hint != "" && !infer.CheckHint(h.hint, v) {
		return nil, p.errorf(errors.TypeHintMismatch, ln, "", "value %s does not match type hint %s", v, h.hint)
	}
	return v, nil
}

func (p *parser) list(h header, ln scanner.Line, lo, hi int) (*value.Value, error) {
	if err := p.enter(ln); err != nil {
		return nil, err
	}
	defer p.leave()

	if h.length == 0 && lo == hi {
		return value.NewList(), nil
	}
	if h.rest != "" {
		if lo < hi {
			return nil, p.errorf(errors.InvalidIndentation, p.lines[lo], "", "unexpected indented line below an inline array")
		}
		if h.length == 0 {
			return value.NewList(), nil
		}
		list := value.NewList()
		for _, f := range fields.Split(h.rest, p.ctx.Delimiter) {
			v, ok := infer.Coerce(f)
			if !ok {
				if p.ctx.Strict {
					return nil, p.errorf(errors.SyntaxError, ln, "use null or \"\" for empty elements", "empty array element")
				}
				v = value.NewNull()
			}
			list.Append(v)
		}
		return list, p.checkLength(ln, h.length, list.Len())
	}
	if lo == hi {
		return value.NewList(), p.checkLength(ln, h.length, 0)
	}
	list, err := p.items(lo, hi)
	if err != nil {
		return nil, err
	}
	return list, p.checkLength(ln, h.length, list.Len())
}

func (p *parser) checkLength(ln scanner.Line, want, got int) error {
	if p.ctx.Strict && want != got {
		return p.errorf(errors.InvalidArrayLength, ln, "the declared length must match the number of elements",
			"declared length %d but found %d elements", want, got)
	}
	return nil
}

// items parses a list block: [i] element lines or bare primitive rows.
func (p *parser) items(lo, hi int) (*value.Value, error) {
	if err := p.checkBlock(lo, hi); err != nil {
		return nil, err
	}
	list := value.NewList()
	indent := p.lines[lo].Indent
	for i := lo; i < hi; {
		ln := p.lines[i]
		if ln.Indent != indent {
			return nil, p.indentError(ln, indent)
		}
		end := p.childEnd(i+1, hi, indent)
		if strings.HasPrefix(ln.Text, "[") {
			h, ok, err := p.parseHeader(ln, true)
			if err != nil {
				return nil, err
			}
			if ok {
				if p.ctx.Strict && h.index != list.Len() {
					return nil, p.errorf(errors.SyntaxError, ln, "", "element index %d at position %d", h.index, list.Len())
				}
				v, err := p.field(h, ln, i+1, end)
				if err != nil {
					return nil, err
				}
				list.Append(v)
				i = end
				continue
			}
		}
		if end > i+1 {
			return nil, p.errorf(errors.InvalidIndentation, p.lines[i+1], "", "unexpected indented line below an array element")
		}
		v, _ := infer.Coerce(fields.Classify(ln.Text, p.ctx.Delimiter))
		list.Append(v)
		i = end
	}
	return list, nil
}

// table parses a tabular block. The first row may follow the header colon.
func (p *parser) table(h header, ln scanner.Line, lo, hi int) (*value.Value, error) {
	if err := p.enter(ln); err != nil {
		return nil, err
	}
	defer p.leave()

	list := value.NewList()
	if h.hasLen && h.length == 0 {
		if lo < hi {
			return nil, p.errorf(errors.InvalidIndentation, p.lines[lo], "", "rows below an empty table")
		}
		return list, nil
	}
	if lo < hi {
		if err := p.checkBlock(lo, hi); err != nil {
			return nil, err
		}
	}

	if h.rest != "" {
		row, err := p.row(h.cols, ln, h.rest)
		if err != nil {
			return nil, err
		}
		list.Append(row)
	}
	if lo < hi {
		indent := p.lines[lo].Indent
		for i := lo; i < hi; i++ {
			r := p.lines[i]
			if r.Indent != indent {
				return nil, p.indentError(r, indent)
			}
			row, err := p.row(h.cols, r, r.Text)
			if err != nil {
				return nil, err
			}
			list.Append(row)
		}
	}
	if h.hasLen {
		return list, p.checkLength(ln, h.length, list.Len())
	}
	return list, nil
}

func (p *parser) row(cols []Column, ln scanner.Line, text string) (*value.Value, error) {
	parts := fields.Split(text, p.ctx.Delimiter)
	if p.ctx.Strict && len(parts) > len(cols) {
		return nil, p.errorf(errors.SyntaxError, ln, "quote values that contain the delimiter", "row has %d fields but %d columns", len(parts), len(cols))
	}
	obj := value.NewObject()
	for j, col := range cols {
		if j >= len(parts) {
			break
		}
		v, ok := infer.Coerce(parts[j])
		if !ok {
			continue
		}
		if p.ctx.ValidateHints && col.Hint != "" && !infer.CheckHint(col.Hint, v) {
			return nil, p.errorf(errors.TypeHintMismatch, ln, "", "column %q value %s does not match type hint %s", col.Name, v, col.Hint)
		}
		obj.Set(col.Name, v)
	}
	return obj, nil
}

func (p *parser) indentError(ln scanner.Line, want int) error {
	return p.errorf(errors.InvalidIndentation, ln, fmt.Sprintf("indent siblings by %d spaces", want),
		"unexpected indentation of %d spaces", ln.Indent)
}

func (p *parser) errorf(kind errors.Kind, ln scanner.Line, hint, format string, args ...any) error {
	return &errors.ParseError{
		Kind:    kind,
		Line:    ln.Number,
		Snippet: strings.TrimSpace(ln.Text),
		Message: fmt.Sprintf(format, args...),
		Hint:    hint,
	}
}
