// Package encoder writes value trees as CanL3 text.
package encoder

import (
	"strconv"
	"strings"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/decoder"
	"github.com/KimNorgaard/go-canl3/internal/infer"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
	"github.com/KimNorgaard/go-canl3/value"
)

const (
	DefaultMaxDepth = 500
	DefaultIndent   = 2
	DefaultVersion  = "1.0"
)

// Context holds the settings and the traversal state of a single encode
// call.
type Context struct {
	Delimiter                byte
	IncludeTypes             bool
	Version                  string
	Indent                   int
	SingleLinePrimitiveLists bool
	PrettyDelimiters         bool
	CompactTables            bool
	SchemaFirst              bool
	MaxDepth                 int

	depth     int
	ancestors map[*value.Value]struct{}
}

// NewContext returns a context with the default settings.
func NewContext() *Context {
	return &Context{
		Delimiter:                ',',
		Version:                  DefaultVersion,
		Indent:                   DefaultIndent,
		SingleLinePrimitiveLists: true,
		MaxDepth:                 DefaultMaxDepth,
	}
}

// Encoder writes the CanL3 form of a value tree.
type Encoder struct {
	ctx     *Context
	indent  string
	body    strings.Builder
	lines   int
	schemas []string
}

// New returns an encoder for ctx. A nil ctx uses the defaults.
func New(ctx *Context) *Encoder {
	if ctx == nil {
		ctx = NewContext()
	}
	if ctx.ancestors == nil {
		ctx.ancestors = make(map[*value.Value]struct{})
	}
	spaces := ctx.Indent
	if spaces <= 0 {
		spaces = DefaultIndent
	}
	return &Encoder{ctx: ctx, indent: strings.Repeat(" ", spaces)}
}

// Encode returns the CanL3 text of v using ctx.
func Encode(v *value.Value, ctx *Context) (string, error) {
	return New(ctx).Encode(v)
}

// Encode returns the CanL3 text of v. The output has no trailing newline.
func (e *Encoder) Encode(v *value.Value) (string, error) {
	switch v.Kind() {
	case value.Object:
		if err := e.enter(v, ""); err != nil {
			return "", err
		}
		err := e.writeMembers(v, 0, "")
		e.leave(v)
		if err != nil {
			return "", err
		}
	case value.List:
		if err := e.writeList("", false, v, 0, ""); err != nil {
			return "", err
		}
	default:
		e.line(0, e.rootPrimitive(v))
	}

	var out strings.Builder
	version := e.ctx.Version
	if version == "" {
		version = DefaultVersion
	}
	out.WriteString("#version ")
	out.WriteString(version)
	if e.ctx.Delimiter != ',' || !e.detectable() {
		out.WriteString("\n#delimiter ")
		out.WriteString(scanner.FormatDelimiter(e.ctx.Delimiter))
	}
	for _, s := range e.schemas {
		out.WriteString("\n@schema: ")
		out.WriteString(s)
	}
	if e.lines > 0 {
		out.WriteByte('\n')
		out.WriteString(e.body.String())
	}
	return out.String(), nil
}

// detectable reports whether a decoder without a #delimiter header would
// guess the context's delimiter from the body.
func (e *Encoder) detectable() bool {
	doc, err := scanner.Scan(e.body.String())
	if err != nil {
		return false
	}
	return decoder.Detect(doc.Lines) == e.ctx.Delimiter
}

func (e *Encoder) line(level int, s string) {
	if e.lines > 0 {
		e.body.WriteByte('\n')
	}
	for i := 0; i < level; i++ {
		e.body.WriteString(e.indent)
	}
	e.body.WriteString(s)
	e.lines++
}

func (e *Encoder) enter(v *value.Value, path string) error {
	if _, seen := e.ctx.ancestors[v]; seen {
		return &errors.EncodeError{Kind: errors.CircularReference, Path: displayPath(path), Message: "value refers to its own ancestor"}
	}
	e.ctx.depth++
	if e.ctx.depth > e.ctx.MaxDepth {
		e.ctx.depth--
		return &errors.EncodeError{Kind: errors.DepthLimitExceeded, Path: displayPath(path), Message: "nesting exceeds the maximum depth of " + strconv.Itoa(e.ctx.MaxDepth)}
	}
	e.ctx.ancestors[v] = struct{}{}
	return nil
}

func (e *Encoder) leave(v *value.Value) {
	delete(e.ctx.ancestors, v)
	e.ctx.depth--
}

func displayPath(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func keyPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func (e *Encoder) hint(v *value.Value) string {
	if !e.ctx.IncludeTypes {
		return ""
	}
	return ":" + infer.HintOf(v)
}

func (e *Encoder) writeMembers(obj *value.Value, level int, path string) error {
	for _, m := range obj.Members() {
		if err := e.writeMember(e.key(m.Key, false), m.Value, level, keyPath(path, m.Key)); err != nil {
			return err
		}
	}
	return nil
}

// writeMember writes a member or element line. prefix is the formatted key
// or the [i] element index.
func (e *Encoder) writeMember(prefix string, v *value.Value, level int, path string) error {
	switch v.Kind() {
	case value.Object:
		if err := e.enter(v, path); err != nil {
			return err
		}
		defer e.leave(v)
		e.line(level, prefix+e.hint(v)+":")
		return e.writeMembers(v, level+1, path)
	case value.List:
		return e.writeList(prefix, true, v, level, path)
	}
	e.line(level, prefix+e.hint(v)+": "+e.primitive(v))
	return nil
}

func (e *Encoder) writeList(prefix string, keyed bool, list *value.Value, level int, path string) error {
	if err := e.enter(list, path); err != nil {
		return err
	}
	defer e.leave(list)

	items := list.Items()
	n := "[" + strconv.Itoa(len(items)) + "]"
	if len(items) == 0 {
		e.line(level, prefix+n+e.hint(list)+":")
		return nil
	}

	if cols, ok := tabular(items); ok {
		head := prefix + n
		if e.ctx.CompactTables && keyed {
			head = prefix
		}
		colText := e.columns(cols, items)
		if e.ctx.SchemaFirst {
			e.schemas = append(e.schemas, displayPath(path)+"{"+colText+"}")
		}
		e.line(level, head+"{"+colText+"}:")
		for _, it := range items {
			cells := make([]string, len(cols))
			for j, c := range cols {
				if v, ok := it.Get(c); ok {
					cells[j] = e.primitive(v)
				}
			}
			e.line(level+1, e.join(cells))
		}
		return nil
	}

	if e.ctx.SingleLinePrimitiveLists && allPrimitive(items) {
		cells := make([]string, len(items))
		for i, it := range items {
			cells[i] = e.primitive(it)
		}
		e.line(level, prefix+n+e.hint(list)+": "+e.join(cells))
		return nil
	}

	e.line(level, prefix+n+e.hint(list)+":")
	for i, it := range items {
		if err := e.writeMember("["+strconv.Itoa(i)+"]", it, level+1, indexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) columns(cols []string, items []*value.Value) string {
	parts := make([]string, len(cols))
	for j, c := range cols {
		parts[j] = e.key(c, true)
		if e.ctx.IncludeTypes {
			for _, it := range items {
				if v, ok := it.Get(c); ok {
					parts[j] += ":" + infer.HintOf(v)
					break
				}
			}
		}
	}
	return strings.Join(parts, string(e.ctx.Delimiter))
}

func (e *Encoder) join(cells []string) string {
	sep := string(e.ctx.Delimiter)
	if e.ctx.PrettyDelimiters {
		sep = " " + sep + " "
	}
	return strings.Join(cells, sep)
}

func allPrimitive(items []*value.Value) bool {
	for _, it := range items {
		if !it.IsPrimitive() {
			return false
		}
	}
	return true
}

// tabular reports whether items can be written as a table and returns the
// columns: the union of keys in order of first appearance. Every item must
// be a non-empty object of primitives whose keys follow the column order.
func tabular(items []*value.Value) ([]string, bool) {
	var cols []string
	pos := make(map[string]int)
	for _, it := range items {
		if it.Kind() != value.Object || it.Len() == 0 {
			return nil, false
		}
		for _, m := range it.Members() {
			if !m.Value.IsPrimitive() {
				return nil, false
			}
			if _, ok := pos[m.Key]; !ok {
				pos[m.Key] = len(cols)
				cols = append(cols, m.Key)
			}
		}
	}
	for _, it := range items {
		last := -1
		for _, m := range it.Members() {
			if pos[m.Key] < last {
				return nil, false
			}
			last = pos[m.Key]
		}
	}
	return cols, true
}
