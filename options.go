package canl3

import (
	"fmt"

	"github.com/KimNorgaard/go-canl3/internal/decoder"
	"github.com/KimNorgaard/go-canl3/internal/encoder"
	"github.com/KimNorgaard/go-canl3/internal/parser"
	"github.com/KimNorgaard/go-canl3/internal/scanner"
)

// Option configures encoding, decoding and query parsing. Options that do
// not apply to an operation are ignored by it.
type Option func(*options) error

type options struct {
	// shared
	delimiter byte
	maxDepth  int

	// decoding
	strict        bool
	maxBlockLines int
	validateHints bool
	unwrapRoot    bool

	// encoding
	includeTypes     bool
	version          string
	indent           int
	singleLineLists  bool
	prettyDelimiters bool
	compactTables    bool
	schemaFirst      bool

	// queries
	maxQueryLength int
	maxQueryDepth  int
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		maxBlockLines:   decoder.DefaultMaxBlockLines,
		version:         encoder.DefaultVersion,
		indent:          encoder.DefaultIndent,
		singleLineLists: true,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) decodeContext() *decoder.Context {
	ctx := decoder.NewContext()
	ctx.Strict = o.strict
	ctx.MaxBlockLines = o.maxBlockLines
	ctx.ValidateHints = o.validateHints
	if o.maxDepth > 0 {
		ctx.MaxDepth = o.maxDepth
	}
	return ctx
}

func (o *options) encodeContext() *encoder.Context {
	ctx := encoder.NewContext()
	if o.delimiter != 0 {
		ctx.Delimiter = o.delimiter
	}
	ctx.IncludeTypes = o.includeTypes
	ctx.Version = o.version
	ctx.Indent = o.indent
	ctx.SingleLinePrimitiveLists = o.singleLineLists
	ctx.PrettyDelimiters = o.prettyDelimiters
	ctx.CompactTables = o.compactTables
	ctx.SchemaFirst = o.schemaFirst
	if o.maxDepth > 0 {
		ctx.MaxDepth = o.maxDepth
	}
	return ctx
}

func (o *options) queryLimits() parser.Limits {
	return parser.Limits{MaxLength: o.maxQueryLength, MaxDepth: o.maxQueryDepth}
}

// WithDelimiter sets the field delimiter. Valid delimiters are ',', '|',
// ';' and '\t'. When decoding it overrides the #delimiter header.
func WithDelimiter(d byte) Option {
	return func(o *options) error {
		if _, ok := scanner.ParseDelimiter(string(d)); !ok {
			return fmt.Errorf("canl3: invalid delimiter %q", d)
		}
		o.delimiter = d
		return nil
	}
}

// Strict enables strict decoding: array lengths, row widths, element
// indices and key uniqueness are enforced.
func Strict() Option {
	return func(o *options) error {
		o.strict = true
		return nil
	}
}

// MaxDepth sets the maximum nesting depth for decoding and encoding. This
// helps prevent stack overflows on deeply nested input.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("canl3: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}

// MaxBlockLines sets the maximum number of lines a single block may span
// when decoding.
func MaxBlockLines(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("canl3: max block lines must be a positive integer")
		}
		o.maxBlockLines = n
		return nil
	}
}

// ValidateTypeHints makes decoding fail when a value contradicts its type
// hint. By default hints are informational.
func ValidateTypeHints() Option {
	return func(o *options) error {
		o.validateHints = true
		return nil
	}
}

// UnwrapRoot makes a decoded document whose only member is "root" decode
// to that member's value. It is off by default, so a single "root" key is
// kept as data; enable it to read documents from encoders that wrap
// primitive and list roots in a "root" member.
func UnwrapRoot() Option {
	return func(o *options) error {
		o.unwrapRoot = true
		return nil
	}
}

// IncludeTypes annotates encoded keys and columns with type hints.
func IncludeTypes() Option {
	return func(o *options) error {
		o.includeTypes = true
		return nil
	}
}

// Version sets the version written in the #version header.
func Version(v string) Option {
	return func(o *options) error {
		if v == "" {
			return fmt.Errorf("canl3: version cannot be empty")
		}
		o.version = v
		return nil
	}
}

// Indent sets the number of spaces per nesting level of encoded output.
func Indent(spaces int) Option {
	return func(o *options) error {
		if spaces <= 0 {
			return fmt.Errorf("canl3: indent spaces must be positive")
		}
		o.indent = spaces
		return nil
	}
}

// SingleLinePrimitiveLists controls whether lists of primitives are written
// inline as key[N]: a,b,c. It is on by default.
func SingleLinePrimitiveLists(on bool) Option {
	return func(o *options) error {
		o.singleLineLists = on
		return nil
	}
}

// PrettyDelimiters pads inline delimiters with spaces.
func PrettyDelimiters() Option {
	return func(o *options) error {
		o.prettyDelimiters = true
		return nil
	}
}

// CompactTables writes nested tables as key{cols}: without a row count.
func CompactTables() Option {
	return func(o *options) error {
		o.compactTables = true
		return nil
	}
}

// SchemaFirst writes an @schema directive for every table before the data.
func SchemaFirst() Option {
	return func(o *options) error {
		o.schemaFirst = true
		return nil
	}
}

// MaxQueryLength sets the maximum length in bytes of a query expression.
func MaxQueryLength(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("canl3: max query length must be a positive integer")
		}
		o.maxQueryLength = n
		return nil
	}
}

// MaxQueryDepth sets the maximum bracket and predicate nesting of a query
// expression.
func MaxQueryDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("canl3: max query depth must be a positive integer")
		}
		o.maxQueryDepth = n
		return nil
	}
}
