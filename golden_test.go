package canl3

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KimNorgaard/go-canl3/internal/testutil"
	"github.com/KimNorgaard/go-canl3/value"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

func TestGolden(t *testing.T) {
	files, err := testutil.Glob("*.json")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			src, err := testutil.ReadTestData(file)
			require.NoError(t, err)
			v, err := value.ParseJSON(src)
			require.NoError(t, err)

			actual, err := Encode(v)
			require.NoError(t, err)

			goldenFile := strings.Replace(file, ".json", ".canl3", 1)

			// To regenerate, run: go test -run TestGolden -update
			if *update {
				err := os.WriteFile(filepath.Join(testutil.Dir, goldenFile), []byte(actual+"\n"), 0o644)
				require.NoError(t, err)
				return
			}

			expected, err := testutil.ReadTestData(goldenFile)
			require.NoError(t, err, "Golden file not found. Run with -update to create it.")

			// The golden file ends with a newline, the encoder output does not.
			expected = bytes.TrimSuffix(expected, []byte("\n"))
			require.Equal(t, string(expected), actual, "Encoded output does not match golden file.")

			decoded, err := Decode(string(expected), Strict())
			require.NoError(t, err)
			require.True(t, value.Equal(v, decoded), "golden file does not decode to its source")
		})
	}
}
