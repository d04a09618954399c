package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KimNorgaard/go-canl3"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
	"github.com/KimNorgaard/go-canl3/value"
)

const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCanL3 = "canl3"
)

func (c *cli) flagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet("canl3 "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	verbose := fs.Bool("v", false, "log debug output to stderr")
	return fs, verbose
}

// parse parses args and enables debug logging when -v is given.
func (c *cli) parse(fs *flag.FlagSet, verbose *bool, args []string) error {
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	if *verbose {
		SetLogger(newDevelopmentLogger(c.stderr).With(zap.String("command", strings.TrimPrefix(fs.Name(), "canl3 "))))
	}
	return nil
}

// layout holds the flags that shape encoded output.
type layout struct {
	delimiter   string
	smart       bool
	types       bool
	version     string
	indent      int
	pretty      bool
	compact     bool
	schemaFirst bool
}

func (l *layout) register(fs *flag.FlagSet) {
	fs.StringVar(&l.delimiter, "delimiter", "", "field delimiter: ',', '|', ';' or 'tab'")
	fs.BoolVar(&l.smart, "smart", false, "pick the delimiter that needs the least quoting")
	fs.BoolVar(&l.types, "types", false, "annotate keys and columns with type hints")
	fs.StringVar(&l.version, "version", "", "version written in the #version header")
	fs.IntVar(&l.indent, "indent", 2, "spaces per nesting level")
	fs.BoolVar(&l.pretty, "pretty", false, "pad inline delimiters with spaces")
	fs.BoolVar(&l.compact, "compact", false, "omit row counts on nested tables")
	fs.BoolVar(&l.schemaFirst, "schema-first", false, "write @schema directives before the data")
}

func (l *layout) options() ([]canl3.Option, error) {
	var opts []canl3.Option
	if l.delimiter != "" {
		d, err := parseDelimiter(l.delimiter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, canl3.WithDelimiter(d))
	}
	if l.indent <= 0 {
		return nil, usagef("-indent must be positive, got %d", l.indent)
	}
	opts = append(opts, canl3.Indent(l.indent))
	if l.version != "" {
		opts = append(opts, canl3.Version(l.version))
	}
	if l.types {
		opts = append(opts, canl3.IncludeTypes())
	}
	if l.pretty {
		opts = append(opts, canl3.PrettyDelimiters())
	}
	if l.compact {
		opts = append(opts, canl3.CompactTables())
	}
	if l.schemaFirst {
		opts = append(opts, canl3.SchemaFirst())
	}
	return opts, nil
}

func parseDelimiter(s string) (byte, error) {
	d, ok := scanner.ParseDelimiter(s)
	if !ok {
		return 0, usagef("invalid delimiter %q: want ',', '|', ';' or 'tab'", s)
	}
	return d, nil
}

func (c *cli) encode(args []string) error {
	fs, verbose := c.flagSet("encode")
	var l layout
	l.register(fs)
	from := fs.String("from", "", "input format: json or yaml (default: by file extension, else json)")
	out := fs.String("out", "", "write the result to `file` instead of standard output")
	stats := fs.Bool("stats", false, "print a size comparison to standard error")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	file, err := oneFile(fs.Args())
	if err != nil {
		return err
	}
	opts, err := l.options()
	if err != nil {
		return err
	}

	start := time.Now()
	format, err := inputFormat(file, *from, formatJSON)
	if err != nil {
		return err
	}
	data, err := c.read(file)
	if err != nil {
		return err
	}
	v, err := load(data, format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := canl3.NewEncoder(&buf, opts...)
	enc.SetSmartDelimiter(l.smart)
	if err := enc.Encode(v); err != nil {
		return err
	}
	Logger().Debug("encoded",
		zap.String("file", displayName(file)),
		zap.String("from", format),
		zap.Int("in_bytes", len(data)),
		zap.Int("out_bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)))

	if err := c.write(*out, buf.Bytes()); err != nil {
		return err
	}
	if *stats {
		return printStats(c.stderr, v, strings.TrimSuffix(buf.String(), "\n"))
	}
	return nil
}

func (c *cli) decode(args []string) error {
	fs, verbose := c.flagSet("decode")
	asYAML := fs.Bool("yaml", false, "write YAML instead of JSON")
	strict := fs.Bool("strict", false, "enforce declared lengths, row widths and unique keys")
	delimiter := fs.String("delimiter", "", "field delimiter, overriding the #delimiter header")
	out := fs.String("out", "", "write the result to `file` instead of standard output")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	file, err := oneFile(fs.Args())
	if err != nil {
		return err
	}
	opts, err := decodeOptions(*strict, *delimiter)
	if err != nil {
		return err
	}

	data, err := c.read(file)
	if err != nil {
		return err
	}
	start := time.Now()
	doc, err := canl3.NewDecoder(bytes.NewReader(data), opts...).DecodeDocument()
	if err != nil {
		return err
	}
	Logger().Debug("decoded",
		zap.String("file", displayName(file)),
		zap.String("version", doc.Version),
		zap.String("delimiter", scanner.FormatDelimiter(doc.Delimiter)),
		zap.Int("directives", len(doc.Directives)),
		zap.Int("lines", bytes.Count(data, []byte("\n"))+1),
		zap.Duration("elapsed", time.Since(start)))

	var buf bytes.Buffer
	if *asYAML {
		err = writeYAML(&buf, doc.Value)
	} else {
		err = writeJSON(&buf, doc.Value)
	}
	if err != nil {
		return err
	}
	return c.write(*out, buf.Bytes())
}

func (c *cli) format(args []string) error {
	fs, verbose := c.flagSet("format")
	var l layout
	l.register(fs)
	strict := fs.Bool("strict", false, "enforce declared lengths, row widths and unique keys")
	out := fs.String("out", "", "write the result to `file` instead of standard output")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	file, err := oneFile(fs.Args())
	if err != nil {
		return err
	}
	opts, err := l.options()
	if err != nil {
		return err
	}

	data, err := c.read(file)
	if err != nil {
		return err
	}
	var decodeOpts []canl3.Option
	if *strict {
		decodeOpts = append(decodeOpts, canl3.Strict())
	}
	v, err := canl3.Decode(string(data), decodeOpts...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := canl3.NewEncoder(&buf, opts...)
	enc.SetSmartDelimiter(l.smart)
	if err := enc.Encode(v); err != nil {
		return err
	}
	Logger().Debug("formatted",
		zap.String("file", displayName(file)),
		zap.Int("in_bytes", len(data)),
		zap.Int("out_bytes", buf.Len()))
	return c.write(*out, buf.Bytes())
}

func (c *cli) query(args []string) error {
	root, expr, err := c.queryInput("query", args)
	if err != nil {
		return err
	}
	values, err := canl3.Query(root, expr)
	if err != nil {
		return err
	}
	Logger().Debug("queried", zap.String("expr", expr), zap.Int("matches", len(values)))

	var buf bytes.Buffer
	if err := writeJSON(&buf, value.NewList(values...)); err != nil {
		return err
	}
	_, err = c.stdout.Write(buf.Bytes())
	return err
}

func (c *cli) get(args []string) error {
	root, expr, err := c.queryInput("get", args)
	if err != nil {
		return err
	}
	v, ok, err := canl3.Get(root, expr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no value at %s", expr)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return err
	}
	_, err = c.stdout.Write(buf.Bytes())
	return err
}

// queryInput parses the flags shared by query and get and loads the
// document. The expression is the last argument; the file before it is
// optional.
func (c *cli) queryInput(name string, args []string) (*value.Value, string, error) {
	fs, verbose := c.flagSet(name)
	from := fs.String("from", "", "input format: canl3, json or yaml (default: by file extension, else canl3)")
	strict := fs.Bool("strict", false, "decode CanL3 input strictly")
	if err := c.parse(fs, verbose, args); err != nil {
		return nil, "", err
	}

	var file, expr string
	switch rest := fs.Args(); len(rest) {
	case 1:
		expr = rest[0]
	case 2:
		file, expr = rest[0], rest[1]
	default:
		return nil, "", usagef("want [file] expr, got %d arguments", len(rest))
	}

	format, err := inputFormat(file, *from, formatCanL3)
	if err != nil {
		return nil, "", err
	}
	data, err := c.read(file)
	if err != nil {
		return nil, "", err
	}
	if format == formatCanL3 && *strict {
		v, err := canl3.Decode(string(data), canl3.Strict())
		return v, expr, err
	}
	v, err := load(data, format)
	return v, expr, err
}

func (c *cli) stats(args []string) error {
	fs, verbose := c.flagSet("stats")
	var l layout
	l.register(fs)
	from := fs.String("from", "", "input format: canl3, json or yaml (default: by file extension, else json)")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	file, err := oneFile(fs.Args())
	if err != nil {
		return err
	}
	opts, err := l.options()
	if err != nil {
		return err
	}

	format, err := inputFormat(file, *from, formatJSON)
	if err != nil {
		return err
	}
	data, err := c.read(file)
	if err != nil {
		return err
	}
	v, err := load(data, format)
	if err != nil {
		return err
	}

	var text string
	if l.smart {
		text, err = canl3.EncodeSmart(v, opts...)
	} else {
		text, err = canl3.Encode(v, opts...)
	}
	if err != nil {
		return err
	}
	return printStats(c.stdout, v, text)
}

func decodeOptions(strict bool, delimiter string) ([]canl3.Option, error) {
	var opts []canl3.Option
	if strict {
		opts = append(opts, canl3.Strict())
	}
	if delimiter != "" {
		d, err := parseDelimiter(delimiter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, canl3.WithDelimiter(d))
	}
	return opts, nil
}

func oneFile(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	}
	return "", usagef("want at most one file, got %d arguments", len(args))
}

// inputFormat resolves the format of file from the -from flag or the file
// extension, falling back to def.
func inputFormat(file, from, def string) (string, error) {
	switch strings.ToLower(from) {
	case "":
	case formatJSON, formatCanL3:
		return strings.ToLower(from), nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", usagef("unknown input format %q: want json, yaml or canl3", from)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".canl3":
		return formatCanL3, nil
	}
	return def, nil
}

func load(data []byte, format string) (*value.Value, error) {
	switch format {
	case formatJSON:
		return value.ParseJSON(data)
	case formatYAML:
		return parseYAML(data)
	}
	return canl3.Decode(string(data))
}

func (c *cli) read(file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(file)
}

func (c *cli) write(file string, data []byte) error {
	if file == "" || file == "-" {
		_, err := c.stdout.Write(data)
		return err
	}
	return os.WriteFile(file, data, 0o644)
}

func displayName(file string) string {
	if file == "" || file == "-" {
		return "<stdin>"
	}
	return file
}

// writeJSON writes v as indented JSON followed by a newline. Member order
// is kept.
func writeJSON(w io.Writer, v *value.Value) error {
	b, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
