package canl3_test

import (
	"strings"
	"testing"

	"github.com/KimNorgaard/go-canl3"
	"github.com/KimNorgaard/go-canl3/errors"
	"github.com/stretchr/testify/require"
)

const usersDoc = `users[3]{id,name,role}:
  1,Alice,admin
  2,Bob,user
  3,Carol,admin
meta:
  owner:
    id: 99`

func TestQuery(t *testing.T) {
	root, err := canl3.Decode(usersDoc)
	require.NoError(t, err)

	tests := []struct {
		expr     string
		expected string
	}{
		{"users[*].id", `[1,2,3]`},
		{"$.users[?(@.role == 'admin')].name", `["Alice","Carol"]`},
		{"$..id", `[1,2,3,99]`},
		{"$.users[-1].name", `["Carol"]`},
		{"$.users[:2].name", `["Alice","Bob"]`},
		{"$.users[?(@.id > 1 && @.role != 'admin')].name", `["Bob"]`},
		{"$.nothing", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			values, err := canl3.Query(root, tt.expr)
			require.NoError(t, err)
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = v.String()
			}
			require.JSONEq(t, tt.expected, "["+strings.Join(parts, ",")+"]")
		})
	}
}

func TestGet(t *testing.T) {
	root, err := canl3.Decode(usersDoc)
	require.NoError(t, err)

	v, ok, err := canl3.Get(root, "meta.owner.id")
	require.NoError(t, err)
	require.True(t, ok)
	id, exact := v.AsInt()
	require.True(t, exact)
	require.Equal(t, int64(99), id)

	_, ok, err = canl3.Get(root, "meta.owner.name")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = canl3.Get(root, "users.name")
	require.ErrorIs(t, err, errors.InvalidPathSyntax)
}

func TestParsePath(t *testing.T) {
	p, err := canl3.ParsePath("users[*]['id']")
	require.NoError(t, err)
	require.Equal(t, "users[*]['id']", p.String())
	require.Equal(t, "$.users[*].id", p.Canonical())
	require.False(t, p.Single())

	require.True(t, canl3.MustParsePath("$.a[0]").Single())
	require.Panics(t, func() { canl3.MustParsePath("$[") })

	_, err = canl3.ParsePath("$.abcdef", canl3.MaxQueryLength(4))
	require.ErrorIs(t, err, errors.ResourceLimitExceeded)

	_, err = canl3.ParsePath("$[?((((@.a))))]", canl3.MaxQueryDepth(3))
	require.ErrorIs(t, err, errors.DepthLimitExceeded)

	_, err = canl3.ParsePath("$[?(@.a = 1)]")
	require.ErrorIs(t, err, errors.QueryTokenError)
	var qe *canl3.QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, 8, qe.Pos)
}

func TestPathReuse(t *testing.T) {
	p := canl3.MustParsePath("$.items[*]")
	for _, doc := range []string{"items[2]: a,b", "items[1]: c"} {
		root, err := canl3.Decode(doc)
		require.NoError(t, err)
		res, err := p.Evaluate(root)
		require.NoError(t, err)
		items, _ := root.Get("items")
		require.Len(t, res.Values, items.Len())
	}
}
