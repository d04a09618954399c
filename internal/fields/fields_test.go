package fields

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func texts(fs []Field) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Text
	}
	return out
}

func kinds(fs []Field) []Kind {
	out := make([]Kind, len(fs))
	for i, f := range fs {
		out[i] = f.Kind
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim byte
		texts []string
		kinds []Kind
	}{
		{"plain", "a,b,c", ',', []string{"a", "b", "c"}, []Kind{Plain, Plain, Plain}},
		{"trimmed", " a , b ", ',', []string{"a", "b"}, []Kind{Plain, Plain}},
		{"empty fields", ",,", ',', []string{"", "", ""}, []Kind{Plain, Plain, Plain}},
		{"empty line", "", ',', []string{""}, []Kind{Plain}},
		{"quoted delimiter", `"a,b",c`, ',', []string{"a,b", "c"}, []Kind{Quoted, Plain}},
		{"escaped quote", `"say \"hi\", ok",x`, ',', []string{`say "hi", ok`, "x"}, []Kind{Quoted, Plain}},
		{"empty quoted", `"",x`, ',', []string{"", "x"}, []Kind{Quoted, Plain}},
		{"pipe", "a|b,c|d", '|', []string{"a", "b,c", "d"}, []Kind{Plain, Plain, Plain}},
		{"semicolon", "1;2", ';', []string{"1", "2"}, []Kind{Plain, Plain}},
		{"tab keeps inner spaces", "a b\t c ", '\t', []string{"a b", "c"}, []Kind{Plain, Plain}},
		{"tab trims spaces only", "\ta", '\t', []string{"", "a"}, []Kind{Plain, Plain}},
		{"triple", `"""a,"b",c""",d`, ',', []string{`a,"b",c`, "d"}, []Kind{Triple, Plain}},
		{"empty triple", `"""""",x`, ',', []string{"", "x"}, []Kind{Triple, Plain}},
		{"triple inner quotes", `""""x""""`, ',', []string{`"x"`}, []Kind{Triple}},
		{"four quotes", `"""",y`, ',', []string{`""`, "y"}, []Kind{Quoted, Plain}},
		{"unknown escape kept", `"a\qb"`, ',', []string{`a\qb`}, []Kind{Quoted}},
		{"backslash escape", `"a\\",b`, ',', []string{`a\`, "b"}, []Kind{Quoted, Plain}},
		{"newline escape", `"l1\nl2"`, ',', []string{"l1\nl2"}, []Kind{Quoted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.line, tt.delim)
			require.Equal(t, tt.texts, texts(got))
			require.Equal(t, tt.kinds, kinds(got))
		})
	}
}

func TestClassify(t *testing.T) {
	f := Classify(`  "x"  `, ',')
	require.Equal(t, Field{Raw: `"x"`, Kind: Quoted, Text: "x"}, f)

	f = Classify(`"`, ',')
	require.Equal(t, Plain, f.Kind)

	f = Classify("\"\"\"multi\nline\"\"\"", ',')
	require.Equal(t, Triple, f.Kind)
	require.Equal(t, "multi\nline", f.Text)

	f = Classify(`"""""`, ',')
	require.Equal(t, Quoted, f.Kind)
	require.Equal(t, `"""`, f.Text)

	require.True(t, Classify(" ", ',').Empty())
	require.False(t, Classify(`""`, ',').Empty())
}

func TestIndex(t *testing.T) {
	require.Equal(t, 3, Index("key: v", ':'))
	require.Equal(t, 8, Index(`"a:b" x :`, ':'))
	require.Equal(t, -1, Index(`"a:b"`, ':'))
	require.Equal(t, -1, Index(`"""a:b"""`, ':'))
	require.Equal(t, 3, Index(`a,b}`, '}'))
}

func TestOpenTriple(t *testing.T) {
	require.True(t, OpenTriple(`text: """first line`))
	require.False(t, OpenTriple(`text: """one line"""`))
	require.False(t, OpenTriple(`text: "quoted"`))
	require.True(t, OpenTriple(`a: """x""" , """y`))
	require.False(t, OpenTriple(`a: ""`))
}

func TestEscapeRoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", `a"b`, `back\slash`, "tab\there", "nl\nand\rcr", `\q`} {
		t.Run(s, func(t *testing.T) {
			q := Quote(s)
			f := Classify(q, ',')
			require.Equal(t, Quoted, f.Kind)
			require.Equal(t, s, f.Text)
		})
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "plain", Plain.String())
	require.Equal(t, "quoted", Quoted.String())
	require.Equal(t, "triple", Triple.String())
}
