package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{name: "simple", pattern: `shop/([^/]+)/?$`},
		{name: "leading caret", pattern: `^api/([^/]+)/([^/]+)/?$`},
		{name: "no groups", pattern: `wp-spa/load/?$`},
		{name: "empty", pattern: ``, wantErr: true},
		{name: "blank", pattern: `   `, wantErr: true},
		{name: "unbalanced group", pattern: `shop/([^/]+/?$`, wantErr: true},
		{name: "unbalanced class", pattern: `shop/([^/+)/?$`, wantErr: true},
		{name: "lookahead unsupported", pattern: `shop/(?=x)`, wantErr: true},
		{name: "stray closing paren", pattern: `a)(b`, wantErr: true},
		{name: "escapes anchor group", pattern: `foo)|(bar`, wantErr: true},
		{name: "catch-all via stray paren", pattern: `shop)|(.*`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPattern)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, p.String())
		})
	}
}

func TestMustCompile(t *testing.T) {
	assert.NotPanics(t, func() { MustCompile(`ok/?$`) })
	assert.Panics(t, func() { MustCompile(`(`) })
}

func TestPatternMatch(t *testing.T) {
	t.Run("extracts captures in order", func(t *testing.T) {
		p := MustCompile(`shop/([^/]+)/([^/]+)/?$`)
		captures, ok := p.Match("shop/electronics/laptop")
		require.True(t, ok)
		assert.Equal(t, []string{"electronics", "laptop"}, captures)
	})

	t.Run("ignores leading slash", func(t *testing.T) {
		p := MustCompile(`shop/([^/]+)/?$`)
		captures, ok := p.Match("/shop/books/")
		require.True(t, ok)
		assert.Equal(t, []string{"books"}, captures)
	})

	t.Run("anchored at start", func(t *testing.T) {
		p := MustCompile(`shop/([^/]+)/?$`)
		_, ok := p.Match("en/shop/books")
		assert.False(t, ok)
	})

	t.Run("anchors every alternative", func(t *testing.T) {
		p := MustCompile(`a/|b/`)
		_, ok := p.Match("xb/")
		assert.False(t, ok)
		_, ok = p.Match("b/")
		assert.True(t, ok)
	})

	t.Run("trailing slash is not implicit", func(t *testing.T) {
		p := MustCompile(`user/([^/]+)$`)
		_, ok := p.Match("user/bob/")
		assert.False(t, ok)
	})

	t.Run("end is not implicitly anchored", func(t *testing.T) {
		p := MustCompile(`docs/`)
		_, ok := p.Match("docs/anything/else")
		assert.True(t, ok)
	})

	t.Run("non participating group is empty", func(t *testing.T) {
		p := MustCompile(`item/([0-9]+)(?:/(edit))?$`)
		captures, ok := p.Match("item/42")
		require.True(t, ok)
		assert.Equal(t, []string{"42", ""}, captures)
	})

	t.Run("no groups returns empty captures", func(t *testing.T) {
		p := MustCompile(`wp-spa/load/?$`)
		captures, ok := p.Match("wp-spa/load")
		require.True(t, ok)
		assert.Empty(t, captures)
	})
}

func TestPatternNumGroups(t *testing.T) {
	assert.Equal(t, 0, MustCompile(`a$`).NumGroups())
	assert.Equal(t, 2, MustCompile(`(a)/(b)$`).NumGroups())
	assert.Equal(t, 1, MustCompile(`(?:x)/(b)$`).NumGroups())
}

func BenchmarkPatternMatch(b *testing.B) {
	p := MustCompile(`shop/([^/]+)/([^/]+)/?$`)

	b.ResetTimer()
	for b.Loop() {
		p.Match("shop/electronics/laptop")
	}
}
