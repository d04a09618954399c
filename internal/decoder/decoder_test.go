package decoder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
	"github.com/KimNorgaard/go-canl3/value"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, input string, ctx *Context) (*value.Value, error) {
	t.Helper()
	doc, err := scanner.Scan(input)
	require.NoError(t, err)
	return Decode(doc.Lines, ctx)
}

func strictContext() *Context {
	ctx := NewContext()
	ctx.Strict = true
	return ctx
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", `{}`},
		{"primitives", "name: Alice\nage: 30\nactive: true\nnote: null", `{"name":"Alice","age":30,"active":true,"note":null}`},
		{"nested object", "user:\n  name: A\n  tags[2]: a,b", `{"user":{"name":"A","tags":["a","b"]}}`},
		{"empty object", "a:\nb: 1", `{"a":{},"b":1}`},
		{"table", "users[2]{id,name}:\n  1,Alice\n  2,Bob", `{"users":[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]}`},
		{"table inline first row", "users[2]{id,name}: 1,A\n  2,B", `{"users":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`},
		{"compact table", "users{id,name}:\n  1,A\n  2,B", `{"users":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`},
		{"missing null empty", "rows[3]{a,b}:\n  1,\n  2,null\n  3,\"\"", `{"rows":[{"a":1},{"a":2,"b":null},{"a":3,"b":""}]}`},
		{"short row", "rows[1]{a,b,c}:\n  1,2", `{"rows":[{"a":1,"b":2}]}`},
		{"element lines", "items[3]:\n  [0]: 1\n  [1]:\n    k: v\n  [2][2]: x,y", `{"items":[1,{"k":"v"},["x","y"]]}`},
		{"nested table element", "groups[1]:\n  [0][2]{id}:\n    1\n    2", `{"groups":[[{"id":1},{"id":2}]]}`},
		{"bare rows", "items[2]:\n  hello\n  42", `{"items":["hello",42]}`},
		{"empty element object", "items[1]:\n  [0]:", `{"items":[{}]}`},
		{"empty list", "items[0]:", `{"items":[]}`},
		{"zero length ignores inline", "items[0]: x", `{"items":[]}`},
		{"root array", "[2]: a,b", `["a","b"]`},
		{"root table", "[2]{x}:\n  1\n  2", `[{"x":1},{"x":2}]`},
		{"root element lines", "[2]:\n  [0]: a\n  [1][1]: b", `["a",["b"]]`},
		{"root string", "hello", `"hello"`},
		{"root number", "42", `42`},
		{"root quoted", `"quoted: x"`, `"quoted: x"`},
		{"quoted keys", "\"my key\": 1\n\"a:b\"[2]: 1,2\n\"\": empty", `{"my key":1,"a:b":[1,2],"":"empty"}`},
		{"quoted values", "a: \"true\"\nb: \"007\"\nc: \"\"\nd: \"line\\nbreak\"", `{"a":"true","b":"007","c":"","d":"line\nbreak"}`},
		{"unsafe integer", "big: 9007199254740993", `{"big":"9007199254740993"}`},
		{"triple quoted", "text: \"\"\"a\nb\"\"\"\nn: 1", `{"text":"a\nb","n":1}`},
		{"type hints", "age:u32: 30\ntags[2]:list: a,b\nmeta:obj:\n  x: 1\nusers[1]{id:u32,name:str}:\n  1,A", `{"age":30,"tags":["a","b"],"meta":{"x":1},"users":[{"id":1,"name":"A"}]}`},
		{"value with colon", "time: 12:30\nurl: http://x.io", `{"time":"12:30","url":"http://x.io"}`},
		{"indented root", "  a: 1\n  b: 2", `{"a":1,"b":2}`},
		{"deep siblings", "a:\n    b: 1\n    c:\n      d: 2\ne: 3", `{"a":{"b":1,"c":{"d":2}},"e":3}`},
		{"duplicate key last wins", "a: 1\nb: 2\na: 3", `{"a":3,"b":2}`},
		{"empty list element non strict", "x[3]: 1,,3", `{"x":[1,null,3]}`},
		{"length mismatch non strict", "items[3]: 1,2", `{"items":[1,2]}`},
		{"extra fields non strict", "rows[1]{a}:\n  1,2", `{"rows":[{"a":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := decode(t, tt.input, NewContext())
			require.NoError(t, err)
			require.Equal(t, tt.want, v.String())
		})
	}
}

func TestDecodeDelimiters(t *testing.T) {
	tests := []struct {
		name  string
		delim byte
		input string
	}{
		{"pipe", '|', "rows[2]{a|b}:\n  1|x,y\n  2|z\nlist[2]: p,q|r"},
		{"semicolon", ';', "rows[2]{a;b}:\n  1;x,y\n  2;z\nlist[2]: p,q;r"},
		{"tab", '\t', "rows[2]{a\tb}:\n  1\tx,y\n  2\tz\nlist[2]: p,q\tr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := strictContext()
			ctx.Delimiter = tt.delim
			v, err := decode(t, tt.input, ctx)
			require.NoError(t, err)
			require.Equal(t, `{"rows":[{"a":1,"b":"x,y"},{"a":2,"b":"z"}],"list":["p,q","r"]}`, v.String())
		})
	}
}

func TestDecodeArrayLengthContract(t *testing.T) {
	v, err := decode(t, "items[3]: 1,2,3", strictContext())
	require.NoError(t, err)
	require.Equal(t, `{"items":[1,2,3]}`, v.String())

	v, err = decode(t, "items[0]:", strictContext())
	require.NoError(t, err)
	require.Equal(t, `{"items":[]}`, v.String())

	for _, input := range []string{"items[abc]: 1,2", "items[-5]: 1", "items[1.5]: 1", "items[]: 1"} {
		t.Run(input, func(t *testing.T) {
			_, err := decode(t, input, NewContext())
			require.ErrorIs(t, err, errors.InvalidArrayLength)
			var pe *errors.ParseError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, 1, pe.Line)
			require.Equal(t, input, pe.Snippet)
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  errors.Kind
	}{
		{"inline length", "items[3]: 1,2", errors.InvalidArrayLength},
		{"block length", "items[3]:\n  [0]: a\n  [1]: b", errors.InvalidArrayLength},
		{"missing rows", "items[2]:", errors.InvalidArrayLength},
		{"table length", "rows[3]{a}:\n  1\n  2", errors.InvalidArrayLength},
		{"extra fields", "rows[1]{a}:\n  1,2", errors.SyntaxError},
		{"duplicate key", "a: 1\na: 2", errors.SyntaxError},
		{"duplicate column", "rows[1]{a,a}:\n  1,2", errors.SyntaxError},
		{"empty element", "x[3]: 1,,3", errors.SyntaxError},
		{"index order", "x[2]:\n  [1]: a\n  [0]: b", errors.SyntaxError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, tt.input, strictContext())
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  errors.Kind
		line  int
	}{
		{"between levels", "a:\n    b: 1\n  c: 2", errors.InvalidIndentation, 3},
		{"child of value", "a: 1\n  b: 2", errors.InvalidIndentation, 2},
		{"child of inline array", "a[1]: 1\n  b: 2", errors.InvalidIndentation, 2},
		{"child of bare row", "a[1]:\n  x\n    y", errors.InvalidIndentation, 3},
		{"missing key", "a: 1\nhello", errors.SyntaxError, 2},
		{"unterminated length", "a[2: 1", errors.SyntaxError, 1},
		{"unterminated columns", "a[1]{x:\n  1", errors.SyntaxError, 1},
		{"missing colon", "a[1]{x} 1", errors.SyntaxError, 1},
		{"content after root array", "[1]: a\nb: 2", errors.SyntaxError, 2},
		{"bad element index", "a[1]:\n  [x]: 1", errors.SyntaxError, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, tt.input, NewContext())
			require.ErrorIs(t, err, tt.kind)
			var pe *errors.ParseError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	input := "a:\n  b:\n    c: 1"

	ctx := NewContext()
	ctx.MaxDepth = 3
	_, err := decode(t, input, ctx)
	require.NoError(t, err)

	ctx = NewContext()
	ctx.MaxDepth = 2
	_, err = decode(t, input, ctx)
	require.ErrorIs(t, err, errors.DepthLimitExceeded)

	var b strings.Builder
	for i := 0; i < 150; i++ {
		b.WriteString(strings.Repeat(" ", i))
		b.WriteString("k:\n")
	}
	_, err = decode(t, b.String(), NewContext())
	require.ErrorIs(t, err, errors.DepthLimitExceeded)
}

func TestDecodeBlockLineLimit(t *testing.T) {
	lines := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "k%d: %d\n", i, i)
		}
		return b.String()
	}

	v, err := decode(t, lines(9999), strictContext())
	require.NoError(t, err)
	require.Equal(t, 9999, v.Len())

	_, err = decode(t, lines(10001), strictContext())
	require.ErrorIs(t, err, errors.ResourceLimitExceeded)

	nested := func(n int) string {
		var b strings.Builder
		b.WriteString("data:\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "  k%d: %d\n", i, i)
		}
		return b.String()
	}

	// The range of a block includes its nested lines and, for the root,
	// the key line that owns them.
	v, err = decode(t, nested(9999), strictContext())
	require.NoError(t, err)
	data, ok := v.Get("data")
	require.True(t, ok)
	require.Equal(t, 9999, data.Len())

	_, err = decode(t, nested(10000), strictContext())
	require.ErrorIs(t, err, errors.ResourceLimitExceeded)
	require.ErrorContains(t, err, "block of 10001 lines")

	ctx := NewContext()
	ctx.MaxBlockLines = 3
	_, err = decode(t, "root:\n  items[4]:\n    a\n    b\n    c\n    d", ctx)
	require.ErrorIs(t, err, errors.ResourceLimitExceeded)
}

func TestDecodeTypeHintValidation(t *testing.T) {
	input := "age:u32: -1\nrows[1]{id:u32}:\n  -5"
	v, err := decode(t, input, NewContext())
	require.NoError(t, err)
	require.Equal(t, `{"age":-1,"rows":[{"id":-5}]}`, v.String())

	ctx := NewContext()
	ctx.ValidateHints = true
	_, err = decode(t, input, ctx)
	require.ErrorIs(t, err, errors.TypeHintMismatch)

	_, err = decode(t, "rows[1]{id:u32}:\n  x", ctx)
	require.ErrorIs(t, err, errors.TypeHintMismatch)

	_, err = decode(t, "age:u32: 3\nname:str: bob\nrows[2]{id:u32}:\n  1\n  null", ctx)
	require.NoError(t, err)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		input string
		want  byte
	}{
		{"rows[2]{a|b}:\n  1|2", '|'},
		{"x[3]: 1;2;3", ';'},
		{"x[3]: 1\t2\t3", '\t'},
		{"x[3]: 1,2,3", ','},
		{"a: 1\nb: x|y", ','},
		{"meta:\n  rows{a;b;c}:\n    1;2;3", ';'},
		{"x: {a;b}\nt[2]: 1,2", ','},
		{"note: see tags[2]: a|b\nt[2]: 1,2", ','},
		{"\"k{a|b}\": 1\nt[2]: 1;2", ';'},
		{"x:list: a|b\nrows[1]{a;b}:\n  1;2", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc, err := scanner.Scan(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, Detect(doc.Lines))
		})
	}
}
