package canl3

import (
	"github.com/KimNorgaard/go-canl3/internal/ast"
	"github.com/KimNorgaard/go-canl3/internal/eval"
	"github.com/KimNorgaard/go-canl3/internal/parser"
	"github.com/KimNorgaard/go-canl3/value"
)

// Path is a compiled query expression. It holds no reference to any value
// tree and may be evaluated against many trees, concurrently.
type Path struct {
	expr string
	path *ast.Path
}

// Result holds the values a path matched, in document order.
type Result = eval.Result

// ParsePath compiles a query expression such as
//
//	$.users[?(@.role == 'admin')].name
//
// Only the MaxQueryLength and MaxQueryDepth options apply.
func ParsePath(expr string, opts ...Option) (*Path, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	p, err := parser.Parse(expr, o.queryLimits())
	if err != nil {
		return nil, err
	}
	return &Path{expr: expr, path: p}, nil
}

// MustParsePath is like ParsePath but panics if the expression is invalid.
func MustParsePath(expr string, opts ...Option) *Path {
	p, err := ParsePath(expr, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the expression the path was compiled from.
func (p *Path) String() string { return p.expr }

// Canonical returns the normalized form of the path, e.g. $.users[*].id.
func (p *Path) Canonical() string { return p.path.String() }

// Single reports whether the path addresses at most one value: it holds no
// wildcard, recursive descent, filter or slice.
func (p *Path) Single() bool { return p.path.Concrete() }

// Evaluate applies the path to root.
func (p *Path) Evaluate(root *value.Value) (Result, error) {
	return eval.Evaluate(p.path, root)
}

// Query compiles expr and evaluates it against root, returning every match.
func Query(root *value.Value, expr string, opts ...Option) ([]*value.Value, error) {
	p, err := ParsePath(expr, opts...)
	if err != nil {
		return nil, err
	}
	res, err := p.Evaluate(root)
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

// Get compiles expr and evaluates it against root, returning the first
// match and whether there was one.
func Get(root *value.Value, expr string, opts ...Option) (*value.Value, bool, error) {
	p, err := ParsePath(expr, opts...)
	if err != nil {
		return nil, false, err
	}
	res, err := p.Evaluate(root)
	if err != nil {
		return nil, false, err
	}
	return res.Value(), res.Found(), nil
}
