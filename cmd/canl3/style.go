package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/KimNorgaard/go-canl3/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	snippetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
)

// painter renders styles only when writing to a terminal.
type painter struct {
	color bool
}

func newPainter(w io.Writer) painter {
	f, ok := w.(*os.File)
	return painter{color: ok && term.IsTerminal(int(f.Fd()))}
}

func (p painter) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// reportError prints err to w. Parse errors show the offending line and a
// hint; query errors point at the offending offset of the expression.
func reportError(w io.Writer, err error) {
	p := newPainter(w)
	fmt.Fprintf(w, "%s %v\n", p.render(errorStyle, "Error:"), err)

	var pe *errors.ParseError
	if stderrors.As(err, &pe) {
		if pe.Snippet != "" {
			fmt.Fprintf(w, "  %4d | %s\n", pe.Line, p.render(snippetStyle, pe.Snippet))
		}
		if pe.Hint != "" {
			fmt.Fprintf(w, "  %s\n", p.render(helpStyle, "hint: "+pe.Hint))
		}
		return
	}

	var qe *errors.QueryError
	if stderrors.As(err, &qe) && qe.Expr != "" && qe.Pos >= 0 && qe.Pos <= len(qe.Expr) {
		fmt.Fprintf(w, "  %s\n", p.render(snippetStyle, qe.Expr))
		fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", qe.Pos), p.render(errorStyle, "^"))
	}
}
