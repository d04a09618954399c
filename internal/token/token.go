package token

// Type is the type of a token.
type Type string

// Token represents a lexical token of a query expression.
type Token struct {
	Type    Type
	Literal string
	Pos     int // byte offset in the expression
}

const (
	// Special tokens
	ILLEGAL Type = "ILLEGAL" // An unknown or invalid token
	EOF     Type = "EOF"     // End of expression

	// Literals
	IDENT  Type = "IDENT"  // users, id
	INT    Type = "INT"    // 12, -1
	FLOAT  Type = "FLOAT"  // 1.5
	STRING Type = "STRING" // 'admin', "admin"

	// Path punctuation
	DOLLAR   Type = "$"
	AT       Type = "@"
	DOT      Type = "."
	DOTDOT   Type = ".."
	STAR     Type = "*"
	LBRACK   Type = "["
	RBRACK   Type = "]"
	LPAREN   Type = "("
	RPAREN   Type = ")"
	COLON    Type = ":"
	QUESTION Type = "?"

	// Operators
	EQ   Type = "=="
	NEQ  Type = "!="
	LT   Type = "<"
	LTE  Type = "<="
	GT   Type = ">"
	GTE  Type = ">="
	AND  Type = "&&"
	OR   Type = "||"
	BANG Type = "!"

	// Keywords
	TRUE  Type = "TRUE"
	FALSE Type = "FALSE"
	NULL  Type = "NULL"
)

var keywords = map[string]Type{
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
}

// LookupIdent checks the keywords table for an identifier.
// If the identifier is a keyword, it returns the keyword's token type.
// Otherwise, it returns IDENT.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsName reports whether t can be used as a member name after a dot.
// Keywords are valid member names.
func IsName(t Type) bool {
	switch t {
	case IDENT, TRUE, FALSE, NULL:
		return true
	}
	return false
}
