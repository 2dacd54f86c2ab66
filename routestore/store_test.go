package routestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/rewriter/rewrite"
)

type countingPublisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *countingPublisher) Publish(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type failingBackend struct {
	loadErr error
	saveErr error
}

func (b failingBackend) Load(_ context.Context) ([]Route, error) { return []Route{}, b.loadErr }
func (b failingBackend) Save(_ context.Context, _ []Route) error  { return b.saveErr }

func fixedClock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func slugs(routes []Route) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = r.Slug
	}
	return out
}

func TestStoreAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("appends in insertion order", func(t *testing.T) {
		s := New(NewMemoryBackend())
		require.NoError(t, s.Add(ctx, "b-route", `b/?$`, "route=b"))
		require.NoError(t, s.Add(ctx, "a-route", `a/?$`, "route=a"))

		routes, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b-route", "a-route"}, slugs(routes))
	})

	t.Run("sets timestamps", func(t *testing.T) {
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
		s := New(NewMemoryBackend(), WithClock(fixedClock(ts)))
		require.NoError(t, s.Add(ctx, "shop", `shop/?$`, "route=shop"))

		r, err := s.Get(ctx, "shop")
		require.NoError(t, err)
		assert.True(t, ts.Equal(r.CreatedAt))
		assert.Equal(t, time.UTC, r.CreatedAt.Location())
		assert.Equal(t, r.CreatedAt, r.UpdatedAt)
	})

	t.Run("duplicate slug leaves existing entry", func(t *testing.T) {
		s := New(NewMemoryBackend())
		require.NoError(t, s.Add(ctx, "shop", `shop/?$`, "route=shop"))

		err := s.Add(ctx, "shop", `other/?$`, "route=other")
		assert.ErrorIs(t, err, ErrDuplicateSlug)

		r, err := s.Get(ctx, "shop")
		require.NoError(t, err)
		assert.Equal(t, `shop/?$`, r.Pattern)
		assert.Equal(t, "route=shop", r.Target)
	})

	t.Run("invalid pattern is never stored", func(t *testing.T) {
		pub := &countingPublisher{}
		s := New(NewMemoryBackend(), WithPublisher(pub))

		err := s.Add(ctx, "bad", `shop/([^/]+/?$`, "route=shop")
		assert.ErrorIs(t, err, rewrite.ErrInvalidPattern)

		routes, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, routes)
		assert.Zero(t, pub.count())
	})

	t.Run("stray closing paren is never stored", func(t *testing.T) {
		s := New(NewMemoryBackend())

		for _, pattern := range []string{`a)(b`, `shop)|(.*`} {
			err := s.Add(ctx, "catch-all", pattern, "route=page&slug=$1")
			assert.ErrorIs(t, err, rewrite.ErrInvalidPattern, pattern)
		}

		routes, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, routes)
	})

	t.Run("target referencing missing group", func(t *testing.T) {
		s := New(NewMemoryBackend())
		err := s.Add(ctx, "bad", `shop/?$`, "category=$1")
		assert.ErrorIs(t, err, rewrite.ErrInvalidTarget)
	})

	t.Run("invalid slug", func(t *testing.T) {
		s := New(NewMemoryBackend())
		for _, slug := range []string{"", "Upper", "with space", "-lead", "trail-", "double--hyphen", "under_score"} {
			assert.ErrorIs(t, s.Add(ctx, slug, `a$`, "route=a"), ErrInvalidSlug, slug)
		}
	})

	t.Run("publishes after mutation", func(t *testing.T) {
		pub := &countingPublisher{}
		s := New(NewMemoryBackend(), WithPublisher(pub))
		require.NoError(t, s.Add(ctx, "a", `a$`, "route=a"))
		assert.Equal(t, 1, pub.count())
	})

	t.Run("publish failure keeps mutation", func(t *testing.T) {
		pub := &countingPublisher{err: errors.New("boom")}
		s := New(NewMemoryBackend(), WithPublisher(pub))

		err := s.Add(ctx, "a", `a$`, "route=a")
		assert.ErrorIs(t, err, ErrPublish)

		_, err = s.Get(ctx, "a")
		assert.NoError(t, err)
	})

	t.Run("backend failures propagate", func(t *testing.T) {
		loadErr := errors.New("load failed")
		s := New(failingBackend{loadErr: loadErr})
		assert.ErrorIs(t, s.Add(ctx, "a", `a$`, "route=a"), loadErr)

		saveErr := errors.New("save failed")
		s = New(failingBackend{saveErr: saveErr})
		assert.ErrorIs(t, s.Add(ctx, "a", `a$`, "route=a"), saveErr)
	})
}

func TestStoreAddDeleteRestores(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())
	require.NoError(t, s.Add(ctx, "one", `one/?$`, "route=one"))
	require.NoError(t, s.Add(ctx, "two", `two/?$`, "route=two"))

	before, err := s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Add(ctx, "three", `three/?$`, "route=three"))
	removed, err := s.Delete(ctx, "three")
	require.NoError(t, err)
	assert.True(t, removed)

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("absent slug", func(t *testing.T) {
		pub := &countingPublisher{}
		s := New(NewMemoryBackend(), WithPublisher(pub))

		removed, err := s.Delete(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Zero(t, pub.count())
	})

	t.Run("keeps order of remaining routes", func(t *testing.T) {
		s := New(NewMemoryBackend())
		for _, slug := range []string{"a", "b", "c"} {
			require.NoError(t, s.Add(ctx, slug, slug+`$`, "route="+slug))
		}

		removed, err := s.Delete(ctx, "b")
		require.NoError(t, err)
		assert.True(t, removed)

		routes, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, slugs(routes))
	})
}

func TestStoreDeleteAll(t *testing.T) {
	ctx := context.Background()
	pub := &countingPublisher{}
	s := New(NewMemoryBackend(), WithPublisher(pub))

	removed, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, pub.count())

	require.NoError(t, s.Add(ctx, "a", `a$`, "route=a"))
	require.NoError(t, s.Add(ctx, "b", `b$`, "route=b"))

	removed, err = s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 3, pub.count())

	routes, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	s := New(NewMemoryBackend(), WithClock(fixedClock(created, updated)))
	require.NoError(t, s.Add(ctx, "first", `first/?$`, "route=first"))
	require.NoError(t, s.Add(ctx, "shop", `shop/?$`, "route=shop"))

	t.Run("preserves created_at and position", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, "first", `first/([0-9]+)/?$`, "route=first&id=$1"))

		routes, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "shop"}, slugs(routes))
		assert.True(t, created.Equal(routes[0].CreatedAt))
		assert.True(t, updated.Equal(routes[0].UpdatedAt))
		assert.Equal(t, "route=first&id=$1", routes[0].Target)
	})

	t.Run("missing slug", func(t *testing.T) {
		err := s.Update(ctx, "missing", `x$`, "route=x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		err := s.Update(ctx, "shop", `(`, "route=x")
		assert.ErrorIs(t, err, rewrite.ErrInvalidPattern)

		r, err := s.Get(ctx, "shop")
		require.NoError(t, err)
		assert.Equal(t, `shop/?$`, r.Pattern)
	})
}

func TestStoreGet(t *testing.T) {
	s := New(NewMemoryBackend())
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	var wg sync.WaitGroup
	for _, slug := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, slug, slug+`$`, "route="+slug))
		}()
	}
	wg.Wait()

	routes, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 8)
}

func TestSlugHelpers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Shop", want: "shop"},
		{in: "  My Route  ", want: "my-route"},
		{in: "product_detail", want: "product-detail"},
		{in: "a--b", want: "a-b"},
		{in: "-lead", want: "lead"},
		{in: "trail-", want: "trail"},
		{in: "ünï©ode!", want: "node"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeSlug(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, ValidSlug(got))
			}
		})
	}

	assert.False(t, ValidSlug(string(make([]byte, MaxSlugLength+1))))
}
