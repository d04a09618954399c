package encoder

import (
	"math"
	"testing"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/decoder"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
	"github.com/KimNorgaard/go-canl3/value"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, s string) *value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"primitives", `{"name":"Alice","age":30,"active":true,"note":null}`, "#version 1.0\nname: Alice\nage: 30\nactive: true\nnote: null"},
		{"table", `{"users":[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]}`, "#version 1.0\nusers[2]{id,name}:\n  1,Alice\n  2,Bob"},
		{"inline list", `{"tags":["a","b"]}`, "#version 1.0\ntags[2]: a,b"},
		{"empty containers", `{"e":[],"o":{}}`, "#version 1.0\ne[0]:\no:"},
		{"nested object", `{"a":{"b":{"c":1}}}`, "#version 1.0\na:\n  b:\n    c: 1"},
		{"mixed list", `{"items":[1,{"k":"v"},["x","y"]]}`, "#version 1.0\nitems[3]:\n  [0]: 1\n  [1]:\n    k: v\n  [2][2]: x,y"},
		{"missing fields", `{"rows":[{"a":1,"b":2},{"a":3}]}`, "#version 1.0\nrows[2]{a,b}:\n  1,2\n  3,"},
		{"key order breaks table", `{"rows":[{"a":1,"b":2},{"b":3,"a":4}]}`, "#version 1.0\nrows[2]:\n  [0]:\n    a: 1\n    b: 2\n  [1]:\n    b: 3\n    a: 4"},
		{"nested value breaks table", `{"rows":[{"a":[1]}]}`, "#version 1.0\nrows[1]:\n  [0]:\n    a[1]: 1"},
		{"empty object breaks table", `{"rows":[{}]}`, "#version 1.0\nrows[1]:\n  [0]:"},
		{"root list", `["a","b"]`, "#version 1.0\n[2]: a,b"},
		{"root table", `[{"x":1}]`, "#version 1.0\n[1]{x}:\n  1"},
		{"root empty list", `[]`, "#version 1.0\n[0]:"},
		{"root empty object", `{}`, "#version 1.0"},
		{"root string", `"hello world"`, "#version 1.0\nhello world"},
		{"root string with colon", `"a:b"`, "#version 1.0\n\"a:b\""},
		{"root string with bracket", `"[x"`, "#version 1.0\n\"[x\""},
		{"root string with hash", `"#x"`, "#version 1.0\n\"#x\""},
		{"root number", `42`, "#version 1.0\n42"},
		{"root null", `null`, "#version 1.0\nnull"},
		{"quoted strings", `{"s":"","n":"42","b":"true","z":"null","c":"a,b","sp":" x","q":"say \"hi\"","nl":"a\nb"}`,
			"#version 1.0\ns: \"\"\nn: \"42\"\nb: \"true\"\nz: \"null\"\nc: \"a,b\"\nsp: \" x\"\nq: \"say \\\"hi\\\"\"\nnl: \"a\\nb\""},
		{"plain strings", `{"t":"12:30","u":"http://x.io","p":"a|b","l":"007"}`, "#version 1.0\nt: 12:30\nu: http://x.io\np: a|b\nl: 007"},
		{"keys", `{"my key":1,"a:b":2,"":3,"#x":4,"[y]":5,"@z":6,"x,y":7}`,
			"#version 1.0\nmy key: 1\n\"a:b\": 2\n\"\": 3\n\"#x\": 4\n\"[y]\": 5\n\"@z\": 6\nx,y: 7"},
		{"column with delimiter", `{"r":[{"a,b":1}]}`, "#version 1.0\nr[1]{\"a,b\"}:\n  1"},
		{"unsafe integer string", `{"big":9007199254740993}`, "#version 1.0\nbig: \"9007199254740993\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(mustJSON(t, tt.input), NewContext())
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    *value.Value
		want string
	}{
		{value.NewInt(42), "42"},
		{value.NewInt(-7), "-7"},
		{value.NewFloat(1.5), "1.5"},
		{value.NewFloat(3), "3.0"},
		{value.NewFloat(-0.25), "-0.25"},
		{value.NewFloat(1e21), "1e+21"},
		{value.NewFloat(1e-7), "1e-07"},
		{value.NewFloat(math.NaN()), "null"},
		{value.NewFloat(math.Inf(-1)), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatNumber(tt.v))
		})
	}
}

func TestEncodeOptions(t *testing.T) {
	doc := `{"users":[{"id":1,"name":"A"},{"id":2,"name":"B"}],"tags":["x","y"]}`

	tests := []struct {
		name string
		set  func(*Context)
		want string
	}{
		{"pipe", func(c *Context) { c.Delimiter = '|' }, "#version 1.0\n#delimiter |\nusers[2]{id|name}:\n  1|A\n  2|B\ntags[2]: x|y"},
		{"tab", func(c *Context) { c.Delimiter = '\t' }, "#version 1.0\n#delimiter \\t\nusers[2]{id\tname}:\n  1\tA\n  2\tB\ntags[2]: x\ty"},
		{"pretty", func(c *Context) { c.PrettyDelimiters = true }, "#version 1.0\nusers[2]{id,name}:\n  1 , A\n  2 , B\ntags[2]: x , y"},
		{"compact", func(c *Context) { c.CompactTables = true }, "#version 1.0\nusers{id,name}:\n  1,A\n  2,B\ntags[2]: x,y"},
		{"schema first", func(c *Context) { c.SchemaFirst = true }, "#version 1.0\n@schema: users{id,name}\nusers[2]{id,name}:\n  1,A\n  2,B\ntags[2]: x,y"},
		{"multi line lists", func(c *Context) { c.SingleLinePrimitiveLists = false }, "#version 1.0\nusers[2]{id,name}:\n  1,A\n  2,B\ntags[2]:\n  [0]: x\n  [1]: y"},
		{"indent", func(c *Context) { c.Indent = 4 }, "#version 1.0\nusers[2]{id,name}:\n    1,A\n    2,B\ntags[2]: x,y"},
		{"version", func(c *Context) { c.Version = "2.0" }, "#version 2.0\nusers[2]{id,name}:\n  1,A\n  2,B\ntags[2]: x,y"},
		{"types", func(c *Context) { c.IncludeTypes = true }, "#version 1.0\nusers[2]{id:u32,name:str}:\n  1,A\n  2,B\ntags[2]:list: x,y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext()
			tt.set(ctx)
			out, err := Encode(mustJSON(t, doc), ctx)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestEncodeTypeHints(t *testing.T) {
	ctx := NewContext()
	ctx.IncludeTypes = true
	out, err := Encode(mustJSON(t, `{"age":30,"neg":-5,"f":1.5,"s":"x","b":true,"n":null,"o":{"k":1},"items":[1,"a"]}`), ctx)
	require.NoError(t, err)
	require.Equal(t, "#version 1.0\nage:u32: 30\nneg:i32: -5\nf:f64: 1.5\ns:str: x\nb:bool: true\nn:null: null\no:obj:\n  k:u32: 1\nitems[2]:list: 1,a", out)
}

func TestEncodeCompactNestedTable(t *testing.T) {
	ctx := NewContext()
	ctx.CompactTables = true
	out, err := Encode(mustJSON(t, `[[{"a":1}],{"k":[{"b":2}]}]`), ctx)
	require.NoError(t, err)
	require.Equal(t, "#version 1.0\n[2]:\n  [0]{a}:\n    1\n  [1]:\n    k{b}:\n      2", out)
}

func TestEncodeCycle(t *testing.T) {
	root := value.NewObject()
	users := value.NewList(value.NewObject(), value.NewObject())
	root.Set("users", users)
	users.Index(1).Set("self", root)

	_, err := Encode(root, NewContext())
	require.ErrorIs(t, err, errors.CircularReference)
	var ee *errors.EncodeError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "users[1].self", ee.Path)

	list := value.NewList()
	list.Append(list)
	_, err = Encode(list, NewContext())
	require.ErrorIs(t, err, errors.CircularReference)
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "[0]", ee.Path)
}

func TestEncodeSharedSubtree(t *testing.T) {
	shared := value.NewObject(value.Member{Key: "k", Value: value.NewInt(1)})
	root := value.NewObject(
		value.Member{Key: "a", Value: shared},
		value.Member{Key: "b", Value: shared},
	)
	out, err := Encode(root, NewContext())
	require.NoError(t, err)
	require.Equal(t, "#version 1.0\na:\n  k: 1\nb:\n  k: 1", out)
}

func TestEncodeDepthLimit(t *testing.T) {
	v := mustJSON(t, `[[[["x"]]]]`)

	ctx := NewContext()
	ctx.MaxDepth = 4
	_, err := Encode(v, ctx)
	require.NoError(t, err)

	ctx = NewContext()
	ctx.MaxDepth = 3
	_, err = Encode(v, ctx)
	require.ErrorIs(t, err, errors.DepthLimitExceeded)
}

func TestSelectDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  byte
	}{
		{"no separators", `{"a":"plain"}`, ','},
		{"empty", `{}`, ','},
		{"structural commas", `{"a":1,"b":2,"c":[1,2,3]}`, '|'},
		{"string commas", `{"a":"x,y"}`, '|'},
		{"commas and pipes", `{"a":"x,y|z"}`, '\t'},
		{"escaped tab never counts", "{\"a\":\"a,b|c\\td;\"}", '\t'},
		{"keys count", `{"a|b":"x|y"}`, ','},
		{"pipes only", `{"a":"x|y|z"}`, ','},
		{"fewest wins", `{"a":"||","b":";"}`, '\t'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectDelimiter(mustJSON(t, tt.input))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	root := value.NewObject()
	root.Set("self", root)
	_, err := SelectDelimiter(root)
	require.ErrorIs(t, err, errors.CircularReference)
}

const roundTripDoc = `{
	"users": [
		{"id": 1, "name": "Alice, A", "tags": "x|y"},
		{"id": 2, "name": "Bob\tB", "active": false}
	],
	"meta": {"count": 2, "ratio": 0.5, "float": 3.0, "empty": "", "nil": null, "list": [], "obj": {}},
	"matrix": [[1, 2], [3, 4]],
	"mixed": [1, "two", null, {"k": "v"}, []],
	"weird keys": {"a:b": 1, "#h": 2, "": 3, "x,y": 4, " pad ": 5},
	"big": "9007199254740993",
	"quote": "say \"hi\"",
	"multi": "line1\nline2\r\n",
	"literal": "true",
	"semi;colon": "a;b"
}`

func TestRoundTrip(t *testing.T) {
	v := mustJSON(t, roundTripDoc)

	configs := map[string]func(*Context){
		"default":     func(*Context) {},
		"pipe":        func(c *Context) { c.Delimiter = '|' },
		"tab":         func(c *Context) { c.Delimiter = '\t' },
		"semicolon":   func(c *Context) { c.Delimiter = ';' },
		"pretty tab":  func(c *Context) { c.Delimiter = '\t'; c.PrettyDelimiters = true },
		"compact":     func(c *Context) { c.CompactTables = true },
		"schema":      func(c *Context) { c.SchemaFirst = true },
		"types":       func(c *Context) { c.IncludeTypes = true },
		"multi line":  func(c *Context) { c.SingleLinePrimitiveLists = false },
		"wide indent": func(c *Context) { c.Indent = 3 },
	}

	for name, set := range configs {
		t.Run(name, func(t *testing.T) {
			ctx := NewContext()
			set(ctx)
			text, err := Encode(v, ctx)
			require.NoError(t, err)

			doc, err := scanner.Scan(text)
			require.NoError(t, err)
			dctx := decoder.NewContext()
			dctx.Strict = true
			dctx.ValidateHints = true
			if doc.Header.HasDelimiter {
				dctx.Delimiter = doc.Header.Delimiter
			}
			got, err := decoder.Decode(doc.Lines, dctx)
			require.NoError(t, err, text)
			require.True(t, value.Equal(v, got), "round trip changed the value:\n%s\n%s", text, got)
			require.Equal(t, v.String(), got.String())
		})
	}
}
