// Package eval evaluates parsed query paths against a value tree.
package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/ast"
	"github.com/KimNorgaard/go-canl3/internal/infer"
	"github.com/KimNorgaard/go-canl3/value"
)

// MaxTraversalDepth bounds recursive descent.
const MaxTraversalDepth = 1000

// Result is the outcome of evaluating a path.
type Result struct {
	// Values holds the matches in document order.
	Values []*value.Value
	// Single is set when the path addresses at most one value.
	Single bool
}

// Found reports whether anything matched.
func (r Result) Found() bool { return len(r.Values) > 0 }

// Value returns the first match, or nil.
func (r Result) Value() *value.Value {
	if len(r.Values) == 0 {
		return nil
	}
	return r.Values[0]
}

// Evaluate applies path to root. A nil root is treated as null.
func Evaluate(path *ast.Path, root *value.Value) (Result, error) {
	if root == nil {
		root = value.NewNull()
	}
	e := &evaluator{path: path, root: root}
	concrete := path.Concrete()
	values, err := e.selectAll(path.Segments, []*value.Value{root}, concrete)
	if err != nil {
		return Result{}, err
	}
	return Result{Values: values, Single: concrete}, nil
}

type evaluator struct {
	path *ast.Path
	root *value.Value
}

// selectAll applies segs to every node in turn. In a strict walk a key or
// index applied to the wrong kind of node is an error; otherwise the node
// simply yields nothing.
func (e *evaluator) selectAll(segs []ast.Segment, nodes []*value.Value, strict bool) ([]*value.Value, error) {
	for _, seg := range segs {
		var next []*value.Value
		for _, n := range nodes {
			var err error
			next, err = e.apply(seg, n, next, strict)
			if err != nil {
				return nil, err
			}
		}
		nodes = next
		if len(nodes) == 0 {
			break
		}
	}
	return nodes, nil
}

func (e *evaluator) apply(seg ast.Segment, n *value.Value, out []*value.Value, strict bool) ([]*value.Value, error) {
	switch s := seg.(type) {
	case *ast.Root:
		return append(out, e.root), nil

	case *ast.Key:
		if n.Kind() != value.Object {
			if strict {
				return nil, e.errorf(errors.InvalidPathSyntax, s, "cannot select member %q of %s", s.Name, n.Kind())
			}
			return out, nil
		}
		if v, ok := n.Get(s.Name); ok {
			out = append(out, v)
		}
		return out, nil

	case *ast.Index:
		if n.Kind() != value.List {
			if strict {
				return nil, e.errorf(errors.InvalidPathSyntax, s, "cannot index %s", n.Kind())
			}
			return out, nil
		}
		i := s.Index
		if i < 0 {
			i += n.Len()
		}
		if i >= 0 && i < n.Len() {
			out = append(out, n.Index(i))
		}
		return out, nil

	case *ast.Wildcard:
		return append(out, children(n)...), nil

	case *ast.RecursiveDescent:
		return e.descend(s, n, out)

	case *ast.Filter:
		for _, c := range children(n) {
			ok, err := e.test(s.Predicate, c)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, c)
			}
		}
		return out, nil

	case *ast.Slice:
		if n.Kind() != value.List {
			return out, nil
		}
		for _, i := range sliceIndices(n.Len(), s) {
			out = append(out, n.Index(i))
		}
		return out, nil
	}
	return nil, e.errorf(errors.InvalidPathSyntax, seg, "unsupported segment %s", seg)
}

type frame struct {
	v     *value.Value
	key   string
	keyed bool
	depth int
}

// descend walks the descendants of n in pre-order.
func (e *evaluator) descend(s *ast.RecursiveDescent, n *value.Value, out []*value.Value) ([]*value.Value, error) {
	stack := push(nil, n, 1)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > MaxTraversalDepth {
			return nil, e.errorf(errors.DepthLimitExceeded, s, "recursive descent exceeds the maximum depth of %d", MaxTraversalDepth)
		}
		if s.Wildcard || (f.keyed && f.key == s.Name) {
			out = append(out, f.v)
		}
		stack = push(stack, f.v, f.depth+1)
	}
	return out, nil
}

// push adds the children of n to stack in reverse so they pop in order.
func push(stack []frame, n *value.Value, depth int) []frame {
	switch n.Kind() {
	case value.List:
		items := n.Items()
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, frame{v: items[i], depth: depth})
		}
	case value.Object:
		members := n.Members()
		for i := len(members) - 1; i >= 0; i-- {
			stack = append(stack, frame{v: members[i].Value, key: members[i].Key, keyed: true, depth: depth})
		}
	}
	return stack
}

func children(n *value.Value) []*value.Value {
	switch n.Kind() {
	case value.List:
		return n.Items()
	case value.Object:
		members := n.Members()
		out := make([]*value.Value, len(members))
		for i, m := range members {
			out[i] = m.Value
		}
		return out
	}
	return nil
}

func sliceIndices(n int, s *ast.Slice) []int {
	step := 1
	if s.Step != nil {
		step = *s.Step
	}
	bound := func(p *int, def, lo, hi int) int {
		if p == nil {
			return def
		}
		i := *p
		if i < 0 {
			i += n
		}
		return min(max(i, lo), hi)
	}

	var out []int
	if step > 0 {
		start := bound(s.Start, 0, 0, n)
		end := bound(s.End, n, 0, n)
		for i := start; i < end; i += step {
			out = append(out, i)
		}
		return out
	}
	start := bound(s.Start, n-1, -1, n-1)
	end := bound(s.End, -1, -1, n-1)
	for i := start; i > end; i += step {
		out = append(out, i)
	}
	return out
}

func (e *evaluator) errorf(kind errors.Kind, at ast.Node, format string, args ...any) error {
	return &errors.QueryError{Kind: kind, Expr: e.path.String(), Pos: at.Pos(), Message: fmt.Sprintf(format, args...)}
}

// operand is the result of a predicate sub-expression. A nil operand is
// absent: the referenced member does not exist.
type operand = *value.Value

func (e *evaluator) test(pred ast.Expression, current *value.Value) (bool, error) {
	v, err := e.eval(pred, current)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func (e *evaluator) eval(expr ast.Expression, current *value.Value) (operand, error) {
	switch x := expr.(type) {
	case *ast.CurrentRef:
		return e.ref(x.Segments, current)
	case *ast.RootRef:
		return e.ref(x.Segments, e.root)
	case *ast.NumberLiteral:
		return value.NewNumber(x.Value, x.Exact), nil
	case *ast.StringLiteral:
		return value.NewString(x.Value), nil
	case *ast.BooleanLiteral:
		return value.NewBool(x.Value), nil
	case *ast.NullLiteral:
		return value.NewNull(), nil
	case *ast.PrefixExpression:
		right, err := e.eval(x.Right, current)
		if err != nil {
			return nil, err
		}
		return value.NewBool(!truthy(right)), nil
	case *ast.InfixExpression:
		return e.infix(x, current)
	}
	return nil, e.errorf(errors.InvalidPathSyntax, expr, "unsupported expression %s", expr)
}

// ref resolves a reference to its first match.
func (e *evaluator) ref(segs []ast.Segment, start *value.Value) (operand, error) {
	values, err := e.selectAll(segs, []*value.Value{start}, false)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

func (e *evaluator) infix(x *ast.InfixExpression, current *value.Value) (operand, error) {
	left, err := e.eval(x.Left, current)
	if err != nil {
		return nil, err
	}
	switch x.Operator {
	case "&&":
		if !truthy(left) {
			return value.NewBool(false), nil
		}
		return e.boolean(x.Right, current)
	case "||":
		if truthy(left) {
			return value.NewBool(true), nil
		}
		return e.boolean(x.Right, current)
	}

	right, err := e.eval(x.Right, current)
	if err != nil {
		return nil, err
	}
	return value.NewBool(compare(x.Operator, left, right)), nil
}

func (e *evaluator) boolean(expr ast.Expression, current *value.Value) (operand, error) {
	ok, err := e.test(expr, current)
	if err != nil {
		return nil, err
	}
	return value.NewBool(ok), nil
}

func compare(op string, l, r operand) bool {
	switch op {
	case "==":
		return l != nil && r != nil && value.Equal(l, r)
	case "!=":
		return !(l != nil && r != nil && value.Equal(l, r))
	}
	if l == nil || r == nil {
		return false
	}

	var c int
	if l.Kind() == value.String && r.Kind() == value.String {
		c = strings.Compare(l.AsString(), r.AsString())
	} else {
		a, ok := number(l)
		if !ok {
			return false
		}
		b, ok := number(r)
		if !ok || math.IsNaN(a) || math.IsNaN(b) {
			return false
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	}

	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

// number coerces a primitive for ordering.
func number(v *value.Value) (float64, bool) {
	switch v.Kind() {
	case value.Null:
		return 0, true
	case value.Bool:
		if v.AsBool() {
			return 1, true
		}
		return 0, true
	case value.Number:
		return v.AsFloat(), true
	case value.String:
		s := strings.TrimSpace(v.AsString())
		if _, ok := infer.ParseAsNumber(s); !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func truthy(v operand) bool {
	if v == nil {
		return false
	}
	switch v.Kind() {
	case value.Null:
		return false
	case value.Bool:
		return v.AsBool()
	case value.Number:
		f := v.AsFloat()
		return f != 0 && !math.IsNaN(f)
	case value.String:
		return v.AsString() != ""
	}
	return true
}
