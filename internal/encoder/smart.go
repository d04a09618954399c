package encoder

import (
	"bytes"

	"github.com/KimNorgaard/go-canl3/value"
)

// Candidates lists the supported delimiters in tie-break order.
var Candidates = []byte{',', '|', '\t', ';'}

// SelectDelimiter picks the candidate delimiter occurring least often in
// the JSON text of v. The count includes the structural commas of objects
// and lists; tabs inside strings are escaped there and do not count. Ties
// go to the earlier candidate.
func SelectDelimiter(v *value.Value) (byte, error) {
	text, err := v.MarshalJSON()
	if err != nil {
		return 0, err
	}
	best, fewest := Candidates[0], -1
	for _, d := range Candidates {
		if n := bytes.Count(text, []byte{d}); fewest < 0 || n < fewest {
			best, fewest = d, n
		}
	}
	return best, nil
}
