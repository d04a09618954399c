package ast

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/KimNorgaard/go-canl3/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// TokenLiteral returns the literal value of the token associated with the node.
	TokenLiteral() string
	// String returns a string representation of the node.
	String() string
	// Pos returns the byte offset of the node in the expression.
	Pos() int
}

// Segment is one step of a path.
type Segment interface {
	Node
	segmentNode()
}

// Expression is a node of a filter predicate.
type Expression interface {
	Node
	expressionNode()
}

// Path is the root node of a query expression.
type Path struct {
	Segments []Segment
}

// TokenLiteral returns the literal value of the token associated with the node.
func (p *Path) TokenLiteral() string {
	if len(p.Segments) > 0 {
		return p.Segments[0].TokenLiteral()
	}
	return ""
}

// Pos returns the byte offset of the path in the expression.
func (p *Path) Pos() int {
	if len(p.Segments) > 0 {
		return p.Segments[0].Pos()
	}
	return 0
}

// String returns the canonical form of the path.
func (p *Path) String() string {
	return writeSegments("", p.Segments)
}

// Concrete reports whether the path addresses at most one value: it holds
// no wildcard, recursive descent, filter or slice.
func (p *Path) Concrete() bool {
	return Concrete(p.Segments)
}

// Concrete reports whether segs address at most one value.
func Concrete(segs []Segment) bool {
	for _, s := range segs {
		switch s.(type) {
		case *Wildcard, *RecursiveDescent, *Filter, *Slice:
			return false
		}
	}
	return true
}

func writeSegments(prefix string, segs []Segment) string {
	var out bytes.Buffer
	out.WriteString(prefix)
	for _, s := range segs {
		out.WriteString(s.String())
	}
	return out.String()
}

// Root is the leading '$'.
type Root struct {
	Token token.Token
}

func (r *Root) segmentNode()         {}
func (r *Root) TokenLiteral() string { return r.Token.Literal }
func (r *Root) Pos() int             { return r.Token.Pos }
func (r *Root) String() string       { return "$" }

// Key selects an object member.
type Key struct {
	Token token.Token
	Name  string
}

func (k *Key) segmentNode()         {}
func (k *Key) TokenLiteral() string { return k.Token.Literal }
func (k *Key) Pos() int             { return k.Token.Pos }
func (k *Key) String() string {
	if isPlainName(k.Name) {
		return "." + k.Name
	}
	return "[" + quote(k.Name) + "]"
}

// Index selects a list element. Negative indices count from the end.
type Index struct {
	Token token.Token
	Index int
}

func (i *Index) segmentNode()         {}
func (i *Index) TokenLiteral() string { return i.Token.Literal }
func (i *Index) Pos() int             { return i.Token.Pos }
func (i *Index) String() string       { return "[" + strconv.Itoa(i.Index) + "]" }

// Wildcard selects every element or member value.
type Wildcard struct {
	Token token.Token
}

func (w *Wildcard) segmentNode()         {}
func (w *Wildcard) TokenLiteral() string { return w.Token.Literal }
func (w *Wildcard) Pos() int             { return w.Token.Pos }
func (w *Wildcard) String() string       { return "[*]" }

// RecursiveDescent selects every descendant member named Name, or every
// descendant when Wildcard is set.
type RecursiveDescent struct {
	Token    token.Token // the '..' token
	Name     string
	Wildcard bool
}

func (r *RecursiveDescent) segmentNode()         {}
func (r *RecursiveDescent) TokenLiteral() string { return r.Token.Literal }
func (r *RecursiveDescent) Pos() int             { return r.Token.Pos }
func (r *RecursiveDescent) String() string {
	if r.Wildcard {
		return "..*"
	}
	if isPlainName(r.Name) {
		return ".." + r.Name
	}
	return ".." + "[" + quote(r.Name) + "]"
}

// Filter keeps the elements for which Predicate is truthy.
type Filter struct {
	Token     token.Token // the '?' token
	Predicate Expression
}

func (f *Filter) segmentNode()         {}
func (f *Filter) TokenLiteral() string { return f.Token.Literal }
func (f *Filter) Pos() int             { return f.Token.Pos }
func (f *Filter) String() string       { return "[?(" + f.Predicate.String() + ")]" }

// Slice selects a range of list elements. Nil bounds take their defaults.
type Slice struct {
	Token token.Token // the '[' token
	Start *int
	End   *int
	Step  *int
}

func (s *Slice) segmentNode()         {}
func (s *Slice) TokenLiteral() string { return s.Token.Literal }
func (s *Slice) Pos() int             { return s.Token.Pos }
func (s *Slice) String() string {
	bound := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	out := "[" + bound(s.Start) + ":" + bound(s.End)
	if s.Step != nil {
		out += ":" + bound(s.Step)
	}
	return out + "]"
}

// CurrentRef is a path relative to the element under test ('@').
type CurrentRef struct {
	Token    token.Token
	Segments []Segment
}

func (c *CurrentRef) expressionNode()      {}
func (c *CurrentRef) TokenLiteral() string { return c.Token.Literal }
func (c *CurrentRef) Pos() int             { return c.Token.Pos }
func (c *CurrentRef) String() string       { return writeSegments("@", c.Segments) }

// RootRef is a path relative to the document root ('$').
type RootRef struct {
	Token    token.Token
	Segments []Segment
}

func (r *RootRef) expressionNode()      {}
func (r *RootRef) TokenLiteral() string { return r.Token.Literal }
func (r *RootRef) Pos() int             { return r.Token.Pos }
func (r *RootRef) String() string       { return writeSegments("$", r.Segments) }

// NumberLiteral represents a numeric literal.
type NumberLiteral struct {
	Token token.Token
	Value float64
	Exact bool // integer literal
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) Pos() int             { return nl.Token.Pos }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// StringLiteral represents a string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() int             { return sl.Token.Pos }
func (sl *StringLiteral) String() string       { return quote(sl.Value) }

// BooleanLiteral represents a boolean literal.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) Pos() int             { return b.Token.Pos }
func (b *BooleanLiteral) String() string       { return strconv.FormatBool(b.Value) }

// NullLiteral represents a null literal.
type NullLiteral struct {
	Token token.Token
}

func (nl *NullLiteral) expressionNode()      {}
func (nl *NullLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NullLiteral) Pos() int             { return nl.Token.Pos }
func (nl *NullLiteral) String() string       { return "null" }

// PrefixExpression is a unary operator applied to an operand.
type PrefixExpression struct {
	Token    token.Token // the operator token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Pos() int             { return pe.Token.Pos }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression is a binary comparison or logical operator.
type InfixExpression struct {
	Token    token.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Pos() int             { return ie.Token.Pos }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

func isPlainName(s string) bool {
	if s == "" || token.LookupIdent(s) != token.IDENT {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && (unicode.IsDigit(r) || r == '-')) {
			continue
		}
		return false
	}
	return true
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return "'" + r.Replace(s) + "'"
}
