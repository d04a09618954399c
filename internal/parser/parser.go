package parser

import (
	"fmt"
	"strconv"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/ast"
	"github.com/KimNorgaard/go-canl3/internal/lexer"
	"github.com/KimNorgaard/go-canl3/internal/token"
)

// Operator precedences, lowest first.
const (
	_ int = iota
	LOWEST
	OR      // ||
	AND     // &&
	COMPARE // == != < <= > >=
	PREFIX  // !x
)

var precedences = map[token.Type]int{
	token.OR:  OR,
	token.AND: AND,
	token.EQ:  COMPARE,
	token.NEQ: COMPARE,
	token.LT:  COMPARE,
	token.LTE: COMPARE,
	token.GT:  COMPARE,
	token.GTE: COMPARE,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser holds the state of the parser.
type Parser struct {
	l      *lexer.Lexer
	errors []*errors.QueryError

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New creates a new parser.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[token.Type]prefixParseFn)
	p.registerPrefix(token.AT, p.parseCurrentRef)
	p.registerPrefix(token.DOLLAR, p.parseRootRef)
	p.registerPrefix(token.INT, p.parseNumberLiteral)
	p.registerPrefix(token.FLOAT, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.ILLEGAL, p.parseIllegal)

	p.infixParseFns = make(map[token.Type]infixParseFn)
	for t := range precedences {
		p.registerInfix(t, p.parseInfixExpression)
	}

	// Read two tokens, so curToken and peekToken are both set.
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns the errors encountered during parsing.
func (p *Parser) Errors() []*errors.QueryError {
	return p.errors
}

// Parse parses a path expression. A path that does not start with '$' is
// taken relative to the root, so the returned path always begins with a
// Root segment.
func (p *Parser) Parse() *ast.Path {
	path := &ast.Path{}

	root := token.Token{Type: token.DOLLAR, Literal: "$", Pos: p.curToken.Pos}
	switch {
	case p.curTokenIs(token.EOF):
		p.errorf(p.curToken.Pos, "empty expression")
		return path
	case p.curTokenIs(token.DOLLAR):
		root = p.curToken
		p.nextToken()
		path.Segments = append(path.Segments, &ast.Root{Token: root})
	case token.IsName(p.curToken.Type):
		path.Segments = append(path.Segments,
			&ast.Root{Token: root},
			&ast.Key{Token: p.curToken, Name: p.curToken.Literal})
		p.nextToken()
	case p.curTokenIs(token.STAR):
		path.Segments = append(path.Segments,
			&ast.Root{Token: root},
			&ast.Wildcard{Token: p.curToken})
		p.nextToken()
	default:
		path.Segments = append(path.Segments, &ast.Root{Token: root})
	}

	segs, ok := p.parseSegments()
	path.Segments = append(path.Segments, segs...)
	if ok && !p.curTokenIs(token.EOF) {
		p.unexpected("end of expression")
	}
	return path
}

// The contract for all parse functions is that they are entered with p.curToken
// being the first token of the construct, and they must return with p.curToken
// pointing to the token *after* the construct.

func (p *Parser) parseSegments() ([]ast.Segment, bool) {
	var segs []ast.Segment
	for {
		var seg ast.Segment
		switch p.curToken.Type {
		case token.DOT:
			seg = p.parseChild()
		case token.DOTDOT:
			seg = p.parseDescendant()
		case token.LBRACK:
			seg = p.parseBracket()
		default:
			return segs, true
		}
		if seg == nil {
			return segs, false
		}
		segs = append(segs, seg)
	}
}

func (p *Parser) parseChild() ast.Segment {
	p.nextToken() // Consume '.'
	tok := p.curToken
	switch {
	case token.IsName(tok.Type):
		p.nextToken()
		return &ast.Key{Token: tok, Name: tok.Literal}
	case tok.Type == token.STAR:
		p.nextToken()
		return &ast.Wildcard{Token: tok}
	}
	p.unexpected("member name after '.'")
	return nil
}

func (p *Parser) parseDescendant() ast.Segment {
	seg := &ast.RecursiveDescent{Token: p.curToken}
	p.nextToken() // Consume '..'
	switch {
	case token.IsName(p.curToken.Type):
		seg.Name = p.curToken.Literal
		p.nextToken()
	case p.curTokenIs(token.STAR):
		seg.Wildcard = true
		p.nextToken()
	case p.curTokenIs(token.LBRACK) && p.peekTokenIs(token.STRING):
		p.nextToken() // Consume '['
		seg.Name = p.curToken.Literal
		p.nextToken()
		if !p.expect(token.RBRACK) {
			return nil
		}
	default:
		p.unexpected("member name after '..'")
		return nil
	}
	return seg
}

func (p *Parser) parseBracket() ast.Segment {
	open := p.curToken
	p.nextToken() // Consume '['

	switch p.curToken.Type {
	case token.STAR:
		seg := &ast.Wildcard{Token: p.curToken}
		p.nextToken()
		if !p.expect(token.RBRACK) {
			return nil
		}
		return seg
	case token.STRING:
		seg := &ast.Key{Token: p.curToken, Name: p.curToken.Literal}
		p.nextToken()
		if !p.expect(token.RBRACK) {
			return nil
		}
		return seg
	case token.QUESTION:
		return p.parseFilter()
	case token.INT, token.COLON:
		return p.parseIndexOrSlice(open)
	}
	p.unexpected("'*', a string, an integer, a slice or '?(' after '['")
	return nil
}

func (p *Parser) parseFilter() ast.Segment {
	seg := &ast.Filter{Token: p.curToken}
	p.nextToken() // Consume '?'
	if !p.expect(token.LPAREN) {
		return nil
	}
	seg.Predicate = p.parseExpression(LOWEST)
	if seg.Predicate == nil {
		return nil
	}
	if !p.expect(token.RPAREN) || !p.expect(token.RBRACK) {
		return nil
	}
	return seg
}

func (p *Parser) parseIndexOrSlice(open token.Token) ast.Segment {
	var bounds [3]*int
	n := 0
	for {
		if p.curTokenIs(token.INT) {
			v, ok := p.parseInt()
			if !ok {
				return nil
			}
			bounds[n] = &v
			p.nextToken()
		}
		if !p.curTokenIs(token.COLON) {
			break
		}
		if n == 2 {
			p.unexpected("']' after slice step")
			return nil
		}
		n++
		p.nextToken() // Consume ':'
	}
	if !p.expect(token.RBRACK) {
		return nil
	}
	if n == 0 {
		return &ast.Index{Token: open, Index: *bounds[0]}
	}
	return &ast.Slice{Token: open, Start: bounds[0], End: bounds[1], Step: bounds[2]}
}

func (p *Parser) parseInt() (int, bool) {
	v, err := strconv.Atoi(p.curToken.Literal)
	if err != nil {
		p.errorf(p.curToken.Pos, "could not parse %q as integer", p.curToken.Literal)
		return 0, false
	}
	return v, true
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected("an expression")
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for precedence < p.curPrecedence() {
		infix := p.infixParseFns[p.curToken.Type]
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseCurrentRef() ast.Expression {
	ref := &ast.CurrentRef{Token: p.curToken}
	p.nextToken() // Consume '@'
	segs, ok := p.parseSegments()
	if !ok {
		return nil
	}
	ref.Segments = segs
	return ref
}

func (p *Parser) parseRootRef() ast.Expression {
	ref := &ast.RootRef{Token: p.curToken}
	p.nextToken() // Consume '$'
	segs, ok := p.parseSegments()
	if !ok {
		return nil
	}
	ref.Segments = segs
	return ref
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken, Exact: p.curTokenIs(token.INT)}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf(p.curToken.Pos, "could not parse %q as number", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	p.nextToken()
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	expr := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	p.nextToken()
	return expr
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	expr := &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
	p.nextToken()
	return expr
}

func (p *Parser) parseNullLiteral() ast.Expression {
	expr := &ast.NullLiteral{Token: p.curToken}
	p.nextToken()
	return expr
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken() // Consume '('
	expr := p.parseExpression(LOWEST)
	if expr == nil || !p.expect(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{Token: p.curToken, Operator: p.curToken.Literal, Left: left}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseIllegal() ast.Expression {
	p.errorf(p.curToken.Pos, "illegal token encountered: %s", p.curToken.Literal)
	return nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) expect(t token.Type) bool {
	if !p.curTokenIs(t) {
		p.unexpected(fmt.Sprintf("'%s'", t))
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) unexpected(want string) {
	switch p.curToken.Type {
	case token.EOF:
		p.errorf(p.curToken.Pos, "expected %s, got end of expression", want)
	case token.ILLEGAL:
		p.errorf(p.curToken.Pos, "illegal token encountered: %s", p.curToken.Literal)
	default:
		p.errorf(p.curToken.Pos, "expected %s, got %q", want, p.curToken.Literal)
	}
}

func (p *Parser) errorf(pos int, format string, args ...any) {
	p.errors = append(p.errors, &errors.QueryError{
		Kind:    errors.QueryParseError,
		Expr:    p.l.Input(),
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}
