package parser

import (
	"fmt"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/ast"
	"github.com/KimNorgaard/go-canl3/internal/lexer"
)

// DefaultMaxSegments bounds the number of segments of a single path.
const DefaultMaxSegments = 100

// Limits bounds the size of a query expression. Zero fields select the
// defaults.
type Limits struct {
	MaxLength   int // bytes of source text
	MaxDepth    int // bracket nesting and predicate depth
	MaxSegments int // segments per path
}

func (l Limits) withDefaults() Limits {
	if l.MaxLength <= 0 {
		l.MaxLength = lexer.DefaultMaxLength
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = lexer.DefaultMaxDepth
	}
	if l.MaxSegments <= 0 {
		l.MaxSegments = DefaultMaxSegments
	}
	return l
}

// Parse tokenizes, parses and validates expr.
func Parse(expr string, limits Limits) (*ast.Path, error) {
	limits = limits.withDefaults()
	l := lexer.New(expr, limits.MaxLength, limits.MaxDepth)
	p := New(l)
	path := p.Parse()
	if err := l.Err(); err != nil {
		return nil, err
	}
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	if err := Validate(expr, path, limits); err != nil {
		return nil, err
	}
	return path, nil
}

// Validate rejects paths that exceed limits or carry segments no evaluation
// could satisfy: a zero slice step or an empty member name.
func Validate(expr string, path *ast.Path, limits Limits) error {
	v := &validator{expr: expr, limits: limits.withDefaults()}
	return v.segments(path.Segments, 0)
}

type validator struct {
	expr   string
	limits Limits
}

func (v *validator) segments(segs []ast.Segment, depth int) error {
	if len(segs) > v.limits.MaxSegments {
		return v.errorf(errors.ResourceLimitExceeded, segs[v.limits.MaxSegments],
			"path has %d segments, the limit is %d", len(segs), v.limits.MaxSegments)
	}
	for _, seg := range segs {
		switch s := seg.(type) {
		case *ast.Key:
			if s.Name == "" {
				return v.errorf(errors.QueryParseError, s, "empty member name")
			}
		case *ast.RecursiveDescent:
			if !s.Wildcard && s.Name == "" {
				return v.errorf(errors.QueryParseError, s, "empty member name")
			}
		case *ast.Slice:
			if s.Step != nil && *s.Step == 0 {
				return v.errorf(errors.QueryParseError, s, "slice step cannot be zero")
			}
		case *ast.Filter:
			if err := v.expression(s.Predicate, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) expression(expr ast.Expression, depth int) error {
	if depth > v.limits.MaxDepth {
		return v.errorf(errors.DepthLimitExceeded, expr,
			"predicate nesting exceeds the maximum depth of %d", v.limits.MaxDepth)
	}
	switch e := expr.(type) {
	case *ast.PrefixExpression:
		return v.expression(e.Right, depth+1)
	case *ast.InfixExpression:
		if err := v.expression(e.Left, depth+1); err != nil {
			return err
		}
		return v.expression(e.Right, depth+1)
	case *ast.CurrentRef:
		return v.segments(e.Segments, depth)
	case *ast.RootRef:
		return v.segments(e.Segments, depth)
	}
	return nil
}

func (v *validator) errorf(kind errors.Kind, at ast.Node, format string, args ...any) error {
	return &errors.QueryError{Kind: kind, Expr: v.expr, Pos: at.Pos(), Message: fmt.Sprintf(format, args...)}
}
