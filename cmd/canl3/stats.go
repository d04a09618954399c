package main

import (
	"fmt"
	"io"

	"github.com/KimNorgaard/go-canl3/value"
)

// charsPerToken approximates how many bytes of structured text a language
// model tokenizer packs into one token.
const charsPerToken = 4

func estimateTokens(n int) int {
	return (n + charsPerToken - 1) / charsPerToken
}

// sizes compares the compact JSON form of a value with its CanL3 text.
type sizes struct {
	JSON  int
	CanL3 int
}

// Saved returns the share of bytes CanL3 saves over JSON, in percent.
func (s sizes) Saved() float64 {
	if s.JSON == 0 {
		return 0
	}
	return 100 * float64(s.JSON-s.CanL3) / float64(s.JSON)
}

func measure(v *value.Value, text string) (sizes, error) {
	b, err := v.MarshalJSON()
	if err != nil {
		return sizes{}, err
	}
	return sizes{JSON: len(b), CanL3: len(text)}, nil
}

func printStats(w io.Writer, v *value.Value, text string) error {
	s, err := measure(v, text)
	if err != nil {
		return err
	}
	p := newPainter(w)
	fmt.Fprintln(w, p.render(titleStyle, "Size comparison"))
	fmt.Fprintf(w, "  %-6s %8d bytes  ~%d tokens\n", "JSON", s.JSON, estimateTokens(s.JSON))
	fmt.Fprintf(w, "  %-6s %8d bytes  ~%d tokens\n", "CanL3", s.CanL3, estimateTokens(s.CanL3))
	fmt.Fprintf(w, "  %s\n", p.render(resultStyle, fmt.Sprintf("saved %.1f%%", s.Saved())))
	return nil
}
