// Package fields splits CanL3 lines into delimited fields.
//
// Splitting is driven by a three-mode state machine. In plain mode the
// delimiter ends a field; a run of three (or six or more) double quotes opens
// a triple-quoted literal and any other quote toggles quoted mode. Quoted mode
// honors backslash escapes and ends at the next unescaped quote. Triple mode
// is verbatim and ends at the next run of at least three quotes.
package fields

import "strings"

// Kind classifies a field after trimming.
type Kind uint8

const (
	Plain Kind = iota
	Quoted
	Triple
)

func (k Kind) String() string {
	switch k {
	case Quoted:
		return "quoted"
	case Triple:
		return "triple"
	default:
		return "plain"
	}
}

// Field is one delimited field of a line.
type Field struct {
	Raw  string // trimmed source text
	Kind Kind
	Text string // unquoted, unescaped content
}

// Empty reports whether the field is an empty unquoted field.
func (f Field) Empty() bool { return f.Kind == Plain && f.Raw == "" }

type mode uint8

const (
	plain mode = iota
	quoted
	triple
)

// scan walks s and calls hit for every occurrence of sep found in plain mode.
// Walking stops early when hit returns false. The mode at the end of the walk
// is returned.
func scan(s string, sep byte, hit func(i int) bool) mode {
	m := plain
	for i := 0; i < len(s); {
		c := s[i]
		switch m {
		case plain:
			if c == '"' {
				if n := quoteRun(s, i); n == 3 || n >= 6 {
					m = triple
					i += 3
					continue
				}
				m = quoted
				i++
				continue
			}
			if hit != nil && c == sep && !hit(i) {
				return m
			}
			i++
		case quoted:
			switch c {
			case '\\':
				i += 2
				continue
			case '"':
				m = plain
			}
			i++
		case triple:
			if c == '"' {
				n := quoteRun(s, i)
				if n >= 3 {
					m = plain
				}
				i += n
				continue
			}
			i++
		}
	}
	return m
}

func quoteRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '"' {
		n++
	}
	return n
}

// Split splits line on delim and classifies every field. An empty line
// yields a single empty field.
func Split(line string, delim byte) []Field {
	var out []Field
	start := 0
	scan(line, delim, func(i int) bool {
		out = append(out, Classify(line[start:i], delim))
		start = i + 1
		return true
	})
	return append(out, Classify(line[start:], delim))
}

// Index returns the index of the first c outside quoted and triple-quoted
// text, or -1.
func Index(s string, c byte) int {
	at := -1
	scan(s, c, func(i int) bool {
		at = i
		return false
	})
	return at
}

// OpenTriple reports whether s ends inside an unterminated triple-quoted
// literal.
func OpenTriple(s string) bool {
	return scan(s, 0, nil) == triple
}

// Trim removes surrounding spaces, and tabs unless tab is the delimiter.
func Trim(s string, delim byte) string {
	if delim == '\t' {
		return strings.Trim(s, " ")
	}
	return strings.Trim(s, " \t")
}

// Classify trims raw and determines its kind and content.
//
// A field of exactly four quotes is an ordinary quoted field holding two
// quote characters; five quotes hold three.
func Classify(raw string, delim byte) Field {
	s := Trim(raw, delim)
	switch {
	case len(s) >= 6 && strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`):
		return Field{Raw: s, Kind: Triple, Text: s[3 : len(s)-3]}
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		return Field{Raw: s, Kind: Quoted, Text: Unescape(s[1 : len(s)-1])}
	}
	return Field{Raw: s, Kind: Plain, Text: s}
}

// Unescape resolves \" \\ \n \r and \t. Any other backslash is kept
// literally.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i+1])
		}
		i++
	}
	return b.String()
}

// Escape is the inverse of Unescape for the characters it resolves.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\"\\\n\r\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Quote returns s as a quoted field.
func Quote(s string) string { return `"` + Escape(s) + `"` }
