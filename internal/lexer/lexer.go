package lexer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/infer"
	"github.com/KimNorgaard/go-canl3/internal/token"
	"github.com/KimNorgaard/go-canl3/value"
)

const (
	DefaultMaxLength = 1000
	DefaultMaxDepth  = 100
)

// Lexer holds the state for tokenizing a query expression.
type Lexer struct {
	input    string
	pos      int // offset of ch
	next     int // offset after ch
	ch       rune
	depth    int
	maxDepth int
	buf      strings.Builder
	err      *errors.QueryError
}

// New creates and returns a new Lexer. Expressions longer than maxLength
// bytes are rejected, as is bracket and parenthesis nesting deeper than
// maxDepth. Non-positive limits select the defaults.
func New(input string, maxLength, maxDepth int) *Lexer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	l := &Lexer{input: input, maxDepth: maxDepth}
	if len(input) > maxLength {
		l.err = &errors.QueryError{
			Kind:    errors.ResourceLimitExceeded,
			Expr:    input,
			Pos:     maxLength,
			Message: fmt.Sprintf("expression of %d bytes exceeds the limit of %d", len(input), maxLength),
		}
		l.input = ""
	}
	l.readRune()
	return l
}

// Input returns the expression being tokenized.
func (l *Lexer) Input() string {
	return l.input
}

// Err returns the first tokenizing error, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// NextToken scans the input and returns the next token. After an error it
// returns ILLEGAL tokens.
func (l *Lexer) NextToken() token.Token { //nolint:gocognit
	if l.err != nil {
		return token.Token{Type: token.ILLEGAL, Literal: l.err.Message, Pos: l.err.Pos}
	}
	l.skipWhitespace()
	tok := token.Token{Pos: l.pos}
	switch l.ch {
	case -1:
		tok.Type = token.EOF
		return tok
	case '$', '@', '*', ':', '?', ']', ')':
		tok.Type = token.Type(l.ch)
		tok.Literal = string(l.ch)
		if l.ch == ']' || l.ch == ')' {
			l.depth--
		}
	case '[', '(':
		tok.Type = token.Type(l.ch)
		tok.Literal = string(l.ch)
		l.depth++
		if l.depth > l.maxDepth {
			return l.fail(errors.DepthLimitExceeded, tok.Pos, fmt.Sprintf("nesting exceeds the maximum depth of %d", l.maxDepth))
		}
	case '.':
		if l.peekRune() == '.' {
			l.advance()
			tok.Type = token.DOTDOT
			tok.Literal = ".."
		} else {
			tok.Type = token.DOT
			tok.Literal = "."
		}
	case '=':
		if l.peekRune() != '=' {
			return l.fail(errors.QueryTokenError, tok.Pos, "expected '=='")
		}
		l.advance()
		tok.Type = token.EQ
		tok.Literal = "=="
	case '!':
		if l.peekRune() == '=' {
			l.advance()
			tok.Type = token.NEQ
			tok.Literal = "!="
		} else {
			tok.Type = token.BANG
			tok.Literal = "!"
		}
	case '<', '>':
		op := string(l.ch)
		if l.peekRune() == '=' {
			l.advance()
			op += "="
		}
		tok.Type = token.Type(op)
		tok.Literal = op
	case '&', '|':
		c := l.ch
		if l.peekRune() != c {
			return l.fail(errors.QueryTokenError, tok.Pos, fmt.Sprintf("expected '%c%c'", c, c))
		}
		l.advance()
		tok.Literal = string([]rune{c, c})
		tok.Type = token.Type(tok.Literal)
	case '\'', '"':
		lit, msg := l.readString()
		if msg != "" {
			return l.fail(errors.QueryTokenError, tok.Pos, msg)
		}
		tok.Type = token.STRING
		tok.Literal = lit
		return tok
	default:
		if isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekRune())) {
			return l.readNumber(tok)
		}
		if isIdentifierStart(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			return tok
		}
		if l.ch == utf8.RuneError {
			return l.fail(errors.QueryTokenError, tok.Pos, "invalid utf-8")
		}
		return l.fail(errors.QueryTokenError, tok.Pos, fmt.Sprintf("unexpected character %q", l.ch))
	}
	l.advance()
	return tok
}

func (l *Lexer) fail(kind errors.Kind, pos int, msg string) token.Token {
	l.err = &errors.QueryError{Kind: kind, Expr: l.input, Pos: pos, Message: msg}
	return token.Token{Type: token.ILLEGAL, Literal: msg, Pos: pos}
}

func (l *Lexer) readRune() {
	if l.next >= len(l.input) {
		l.pos = len(l.input)
		l.ch = -1
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.next:])
	l.pos = l.next
	l.next += w
	l.ch = r
}

func (l *Lexer) advance() { l.readRune() }

func (l *Lexer) peekRune() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.advance()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentifierChar(l.ch) {
		l.advance()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber(tok token.Token) token.Token {
	start := l.pos
	if l.ch == '-' {
		l.advance()
	}
	for isDigit(l.ch) || l.ch == '.' || l.ch == 'e' || l.ch == 'E' ||
		((l.ch == '+' || l.ch == '-') && (l.input[l.pos-1] == 'e' || l.input[l.pos-1] == 'E')) {
		// A '.' not followed by a digit ends the number.
		if l.ch == '.' && !isDigit(l.peekRune()) {
			break
		}
		l.advance()
	}
	lit := l.input[start:l.pos]
	tok.Literal = lit

	isFloat, ok := infer.ParseAsNumber(lit)
	if !ok {
		return l.fail(errors.QueryTokenError, tok.Pos, fmt.Sprintf("invalid number %q", lit))
	}
	if !isFloat {
		i, err := strconv.ParseInt(lit, 10, 64)
		if err != nil || i > value.MaxSafeInteger || i < -value.MaxSafeInteger {
			return l.fail(errors.QueryTokenError, tok.Pos, fmt.Sprintf("integer %s is outside the safe range", lit))
		}
		tok.Type = token.INT
		return tok
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return l.fail(errors.QueryTokenError, tok.Pos, fmt.Sprintf("number %s is not finite", lit))
	}
	tok.Type = token.FLOAT
	return tok
}

func (l *Lexer) readString() (string, string) {
	quote := l.ch
	l.advance() // consume opening quote
	l.buf.Reset()
	for {
		switch l.ch {
		case -1:
			return "", "unterminated string"
		case quote:
			l.advance() // consume closing quote
			return l.buf.String(), ""
		case '\\':
			l.advance()
			switch l.ch {
			case 'n':
				l.buf.WriteByte('\n')
			case 'r':
				l.buf.WriteByte('\r')
			case 't':
				l.buf.WriteByte('\t')
			case '\\', '\'', '"':
				l.buf.WriteRune(l.ch)
			case -1:
				return "", "unterminated string"
			default:
				return "", fmt.Sprintf("invalid escape sequence \\%c", l.ch)
			}
		default:
			l.buf.WriteRune(l.ch)
		}
		l.advance()
	}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentifierStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentifierChar(ch rune) bool {
	return isIdentifierStart(ch) || isDigit(ch) || ch == '-'
}
