package canl3

import (
	"fmt"
	"io"
)

// Decoder reads and decodes CanL3 documents from an input stream.
type Decoder struct {
	r    io.Reader
	opts []Option
}

// NewDecoder returns a new decoder that reads from r.
//
// It is the caller's responsibility to call Close on r if required.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads the remaining input as one CanL3 document and stores it in
// the value pointed to by v. See Unmarshal for the supported targets.
//
// Note: CanL3 blocks are delimited by indentation, so the whole reader is
// consumed before parsing.
func (d *Decoder) Decode(v any) error {
	doc, err := d.DecodeDocument()
	if err != nil {
		return err
	}
	return assign(doc.Value, v)
}

// DecodeDocument reads the remaining input and returns it with its header.
func (d *Decoder) DecodeDocument() (*Document, error) {
	if d.r == nil {
		return nil, fmt.Errorf("canl3: Decode(nil reader)")
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), d.opts...)
}
