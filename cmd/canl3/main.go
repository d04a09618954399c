// Command canl3 converts between JSON, YAML and CanL3 and runs path queries
// against documents.
//
// Usage:
//
//	canl3 encode [flags] [file]        JSON or YAML to CanL3
//	canl3 decode [flags] [file]        CanL3 to JSON or YAML
//	canl3 format [flags] [file]        re-encode CanL3 with a different layout
//	canl3 query  [flags] [file] expr   print all matches as a JSON array
//	canl3 get    [flags] [file] expr   print the single match
//	canl3 stats  [flags] [file]        compare JSON and CanL3 sizes
//
// A missing file or "-" reads standard input.
package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// usageError marks bad invocations, which exit with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cli carries the streams of one invocation.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(c *cli, args []string) error
}

var commands = map[string]command{
	"encode": {"convert JSON or YAML to CanL3", (*cli).encode},
	"decode": {"convert CanL3 to JSON or YAML", (*cli).decode},
	"format": {"re-encode CanL3 with a different layout", (*cli).format},
	"query":  {"print all matches of a path as a JSON array", (*cli).query},
	"get":    {"print the single value at a path", (*cli).get},
	"stats":  {"compare JSON and CanL3 sizes", (*cli).stats},
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name := args[0]
	if name == "-h" || name == "-help" || name == "--help" || name == "help" {
		usage(stdout)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "canl3: unknown command %q\n\n", name)
		usage(stderr)
		return exitUsage
	}

	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	err := cmd.run(c, args[1:])
	defer SetLogger(nil)

	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, flag.ErrHelp):
		return exitOK
	case stderrors.As(err, &ue):
		fmt.Fprintf(stderr, "canl3 %s: %s\n", name, ue.msg)
		return exitUsage
	default:
		Logger().Debug("command failed", zap.String("command", name), zap.Error(err))
		reportError(stderr, err)
		return exitError
	}
}

func usage(w io.Writer) {
	p := newPainter(w)
	fmt.Fprintln(w, p.render(titleStyle, "canl3"))
	fmt.Fprintln(w, "Usage: canl3 <command> [flags] [file] [expr]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.render(helpStyle, "Run 'canl3 <command> -h' for the flags of a command."))
}
