package rewrite

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		tpl      string
		wantKeys []string
		wantMax  int
		wantErr  bool
	}{
		{name: "positional", tpl: "category=$1&product=$2", wantKeys: []string{"category", "product"}, wantMax: 2},
		{name: "matches syntax", tpl: "index.php?route=$matches[1]&action=$matches[2]", wantKeys: []string{"route", "action"}, wantMax: 2},
		{name: "leading question mark", tpl: "?route=spa&action=load", wantKeys: []string{"route", "action"}},
		{name: "mixed literal and group", tpl: "slug=item-$1", wantKeys: []string{"slug"}, wantMax: 1},
		{name: "skips empty pairs", tpl: "a=1&&b=2&", wantKeys: []string{"a", "b"}},
		{name: "empty value allowed", tpl: "flag=", wantKeys: []string{"flag"}},
		{name: "empty", tpl: "", wantErr: true},
		{name: "only prefix", tpl: "index.php?", wantErr: true},
		{name: "empty key", tpl: "=1", wantErr: true},
		{name: "placeholder in key", tpl: "$1=x", wantErr: true},
		{name: "group zero", tpl: "a=$0", wantErr: true},
		{name: "bad escape", tpl: "a=%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseTarget(tt.tpl)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, target.Keys())
			assert.Equal(t, tt.wantMax, target.MaxGroup())
			assert.Equal(t, tt.tpl, target.String())
		})
	}
}

func TestTargetExpand(t *testing.T) {
	t.Run("substitutes captures", func(t *testing.T) {
		target, err := ParseTarget("route=shop&category=$1&product=$matches[2]")
		require.NoError(t, err)

		got := target.Expand([]string{"electronics", "laptop"})
		assert.Equal(t, url.Values{
			"route":    {"shop"},
			"category": {"electronics"},
			"product":  {"laptop"},
		}, got)
	})

	t.Run("missing capture expands empty", func(t *testing.T) {
		target, err := ParseTarget("a=$3")
		require.NoError(t, err)
		assert.Equal(t, "", target.Expand([]string{"x"}).Get("a"))
	})

	t.Run("concatenates literals and groups", func(t *testing.T) {
		target, err := ParseTarget("slug=$1-$2")
		require.NoError(t, err)
		assert.Equal(t, "a-b", target.Expand([]string{"a", "b"}).Get("slug"))
	})

	t.Run("multi digit group", func(t *testing.T) {
		target, err := ParseTarget("x=$10")
		require.NoError(t, err)
		assert.Equal(t, 10, target.MaxGroup())
	})
}

func TestTargetResolve(t *testing.T) {
	target, err := ParseTarget("category=$1&product=$2")
	require.NoError(t, err)
	assert.Equal(t, "category=electronics&product=laptop", target.Resolve([]string{"electronics", "laptop"}))

	t.Run("escapes values", func(t *testing.T) {
		assert.Equal(t, "category=a+b&product=c%26d", target.Resolve([]string{"a b", "c&d"}))
	})
}
