package jsontree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `{
	"products": [
		{"id": 1, "title": "Hello", "tags": ["a", "b"]},
		{"id": 2, "title": "World", "variants": {"sku": "W-1"}}
	],
	"count": 2,
	"meta": null
}`

func mustParse(t *testing.T, src string) Value {
	t.Helper()
	v, err := Parse([]byte(src))
	require.NoError(t, err)
	return v
}

func TestNavigate(t *testing.T) {
	root := mustParse(t, catalog)

	t.Run("empty path returns root", func(t *testing.T) {
		got, err := Navigate(root)
		require.NoError(t, err)
		require.True(t, got.Equal(root))
		require.Equal(t, root.String(), got.String())
	})

	t.Run("resolving paths", func(t *testing.T) {
		tests := []struct {
			name string
			path []Step
			want string
		}{
			{"single key", []Step{Key("count")}, `2`},
			{"key then index", []Step{Key("products"), Index(0)}, `{"id":1,"title":"Hello","tags":["a","b"]}`},
			{"deep string", []Step{Key("products"), Index(1), Key("variants"), Key("sku")}, `"W-1"`},
			{"nested index", []Step{Key("products"), Index(0), Key("tags"), Index(1)}, `"b"`},
			{"null leaf", []Step{Key("meta")}, `null`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := Navigate(root, tt.path...)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.String())
			})
		}
	})

	t.Run("failing paths stop at the first unresolved step", func(t *testing.T) {
		tests := []struct {
			name  string
			path  []Step
			pos   int
			found Kind
		}{
			{"missing key", []Step{Key("orders")}, 0, KindObject},
			{"case sensitive key", []Step{Key("Products")}, 0, KindObject},
			{"index out of range", []Step{Key("products"), Index(2)}, 1, KindArray},
			{"negative index", []Step{Key("products"), Index(-1)}, 1, KindArray},
			{"index into object", []Step{Index(0)}, 0, KindObject},
			{"key into array", []Step{Key("products"), Key("0")}, 1, KindArray},
			{"key into scalar", []Step{Key("count"), Key("x")}, 1, KindNumber},
			{"later steps ignored", []Step{Key("nope"), Index(0), Key("anything")}, 0, KindObject},
			{"key into null", []Step{Key("meta"), Key("x")}, 1, KindNull},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Navigate(root, tt.path...)
				require.Error(t, err)
				require.ErrorIs(t, err, ErrNotFound)

				var nf *NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, tt.pos, nf.Pos)
				assert.Equal(t, tt.found, nf.Found)
				assert.Len(t, nf.Path, len(tt.path))
			})
		}
	})

	t.Run("empty array has no first element", func(t *testing.T) {
		_, err := Navigate(mustParse(t, `{"products":[]}`), Key("products"), Index(0))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("navigation does not modify root", func(t *testing.T) {
		before := root.String()
		_, _ = Navigate(root, Key("products"), Index(0), Key("tags"))
		_, _ = Navigate(root, Key("missing"))
		assert.Equal(t, before, root.String())
	})
}

func TestNotFoundErrorMessage(t *testing.T) {
	_, err := Navigate(mustParse(t, `{"products":[]}`), Key("products"), Index(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 0")
	assert.Contains(t, err.Error(), "array")
	assert.Contains(t, err.Error(), "products[0]")
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"", nil},
		{"products", Path{Key("products")}},
		{"products[0]", Path{Key("products"), Index(0)}},
		{"products[0].title", Path{Key("products"), Index(0), Key("title")}},
		{"[3][1]", Path{Index(3), Index(1)}},
		{`"odd.key".items[2]`, Path{Key("odd.key"), Key("items"), Index(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{".a", "a.", "a..b", "a[", "a[x]", "a[-1]", `"unterminated`} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParsePath(bad)
			require.Error(t, err)
		})
	}
}

func TestPathStringRoundTrip(t *testing.T) {
	paths := []Path{
		{Key("products"), Index(0), Key("title")},
		{Index(1), Key("a b")},
		{Key("dotted.key"), Index(0)},
	}
	for _, p := range paths {
		t.Run(p.String(), func(t *testing.T) {
			back, err := ParsePath(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, back)
		})
	}
}
