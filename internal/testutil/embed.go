// Package testutil provides the sample documents shared by the tests.
package testutil

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

// Dir is the location of the test data relative to the module root.
const Dir = "internal/testutil/testdata"

// TestdataFS holds the embedded test data files.
//
//go:embed testdata
var TestdataFS embed.FS

// ReadTestData reads and returns the content of an embedded test file.
func ReadTestData(name string) ([]byte, error) {
	data, err := fs.ReadFile(TestdataFS, path.Join("testdata", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read test data file '%s': %w", name, err)
	}
	return data, nil
}

// Glob returns the names of the embedded test files matching pattern,
// e.g. "*.canl3".
func Glob(pattern string) ([]string, error) {
	matches, err := fs.Glob(TestdataFS, path.Join("testdata", pattern))
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		matches[i] = path.Base(m)
	}
	return matches, nil
}
