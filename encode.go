package canl3

import (
	"fmt"
	"io"

	"github.com/KimNorgaard/go-canl3/value"
)

// Encoder writes CanL3 documents to an output stream.
type Encoder struct {
	w     io.Writer
	opts  []Option
	smart bool
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// SetSmartDelimiter makes the encoder choose a delimiter per document as
// EncodeSmart does.
func (e *Encoder) SetSmartDelimiter(on bool) {
	e.smart = on
}

// Encode writes the CanL3 encoding of v to the stream, followed by a
// newline. v is converted as by Marshal.
func (e *Encoder) Encode(v any) error {
	if e.w == nil {
		return fmt.Errorf("canl3: Encode(nil writer)")
	}
	tree, err := value.FromAny(v)
	if err != nil {
		return err
	}
	var s string
	if e.smart {
		s, err = EncodeSmart(tree, e.opts...)
	} else {
		s, err = Encode(tree, e.opts...)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.w, s+"\n")
	return err
}
