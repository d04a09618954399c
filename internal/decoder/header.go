package decoder

import (
	"strconv"
	"strings"

	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/KimNorgaard/go-canl3/internal/fields"
	"github.com/KimNorgaard/go-canl3/internal/infer"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
)

// Column is a tabular column definition.
type Column struct {
	Name string
	Hint string
}

// header is a parsed key line:
//
//	KEY ['[' N ']'] ['{' COLS '}'] ':' [HINT ':'] REST
type header struct {
	key     string
	keyed   bool
	index   int
	isIndex bool
	length  int
	hasLen  bool
	cols    []Column
	hasCols bool
	hint    string
	rest    string
}

// parseHeader parses ln as a key line. ok is false when the line is not a
// key line. In index mode a leading [i] is an element index rather than an
// array length.
func (p *parser) parseHeader(ln scanner.Line, indexMode bool) (h header, ok bool, err error) {
	s := ln.Text
	pos := 0
	switch {
	case strings.HasPrefix(s, `"`):
		end := closingQuote(s)
		if end < 0 {
			return h, false, nil
		}
		h.key = fields.Unescape(s[1:end])
		h.keyed = true
		pos = end + 1
		if pos == len(s) || strings.IndexByte("[{:", s[pos]) < 0 {
			return h, false, nil
		}
	case strings.HasPrefix(s, "[") && indexMode:
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return h, false, p.errorf(errors.SyntaxError, ln, "", "unterminated element index")
		}
		idx, valid := parseCount(s[1:end])
		if !valid {
			return h, false, p.errorf(errors.SyntaxError, ln, "element index must be a non-negative integer", "invalid element index %q", s[1:end])
		}
		h.index = idx
		h.isIndex = true
		pos = end + 1
	case strings.HasPrefix(s, "["):
		// root array; the bracket is a length
	default:
		end := strings.IndexAny(s, "[{:")
		if end < 0 {
			return h, false, nil
		}
		h.key = strings.TrimSpace(s[:end])
		h.keyed = true
		pos = end
	}

	if pos < len(s) && s[pos] == '[' {
		end := strings.IndexByte(s[pos:], ']')
		if end < 0 {
			return h, false, p.errorf(errors.SyntaxError, ln, "", "unterminated array length")
		}
		raw := s[pos+1 : pos+end]
		n, valid := parseCount(raw)
		if !valid {
			return h, false, p.errorf(errors.InvalidArrayLength, ln, "array length must be a non-negative integer", "invalid array length %q", raw)
		}
		h.length = n
		h.hasLen = true
		pos += end + 1
	}

	if pos < len(s) && s[pos] == '{' {
		end := fields.Index(s[pos:], '}')
		if end < 0 {
			return h, false, p.errorf(errors.SyntaxError, ln, "", "unterminated column list")
		}
		cols, err := p.parseColumns(ln, s[pos+1:pos+end])
		if err != nil {
			return h, false, err
		}
		h.cols = cols
		h.hasCols = true
		pos += end + 1
	}

	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	if pos == len(s) || s[pos] != ':' {
		if !h.hasLen && !h.hasCols && !h.isIndex {
			return h, false, nil
		}
		return h, false, p.errorf(errors.SyntaxError, ln, "", "expected ':' after header")
	}
	pos++

	rem := s[pos:]
	if k := strings.IndexByte(rem, ':'); k > 0 && infer.IsHint(rem[:k]) {
		h.hint = rem[:k]
		rem = rem[k+1:]
	}
	h.rest = fields.Trim(rem, p.ctx.Delimiter)
	return h, true, nil
}

func (p *parser) parseColumns(ln scanner.Line, s string) ([]Column, error) {
	if strings.TrimSpace(s) == "" {
		return nil, p.errorf(errors.SyntaxError, ln, "", "empty column list")
	}
	parts := fields.Split(s, p.ctx.Delimiter)
	cols := make([]Column, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, f := range parts {
		col := Column{Name: f.Text}
		raw := f.Raw
		if j := strings.LastIndexByte(raw, ':'); j > 0 && infer.IsHint(raw[j+1:]) {
			name := raw[:j]
			if !strings.HasPrefix(name, `"`) || (len(name) >= 2 && strings.HasSuffix(name, `"`)) {
				col = Column{Name: fields.Classify(name, p.ctx.Delimiter).Text, Hint: raw[j+1:]}
			}
		}
		if _, dup := seen[col.Name]; dup && p.ctx.Strict {
			return nil, p.errorf(errors.SyntaxError, ln, "", "duplicate column %q", col.Name)
		}
		seen[col.Name] = struct{}{}
		cols = append(cols, col)
	}
	return cols, nil
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

var candidates = []byte{',', '|', '\t', ';'}

// Detect guesses the delimiter of a document without a #delimiter header
// from its first column list or inline array. Only the key part of a line,
// up to its first unquoted colon, is searched, so string values never
// count. It defaults to a comma.
func Detect(lines []scanner.Line) byte {
	for _, ln := range lines {
		s := ln.Text
		colon := fields.Index(s, ':')
		if colon < 0 {
			continue
		}
		var sample string
		if i := fields.Index(s[:colon], '{'); i >= 0 {
			if j := fields.Index(s[i:colon], '}'); j >= 0 {
				sample = s[i+1 : i+j]
			}
		} else if colon > 0 && s[colon-1] == ']' {
			sample = s[colon+1:]
		}
		if d := busiest(sample); d != 0 {
			return d
		}
	}
	return ','
}

func busiest(s string) byte {
	var best byte
	most := 0
	for _, d := range candidates {
		if n := len(fields.Split(s, d)) - 1; n > most {
			best, most = d, n
		}
	}
	return best
}
