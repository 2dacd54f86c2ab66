package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
	"github.com/vitalvas/rewriter/router"
	"github.com/vitalvas/rewriter/routestore"
)

func newTestDispatcher(t *testing.T, strip bool) *dispatch.Dispatcher {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := router.New(routestore.New(routestore.NewMemoryBackend()), router.WithLogger(logger))
	require.NoError(t, err)
	_, err = reg.Publish(context.Background())
	require.NoError(t, err)

	catalog, err := content.LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)

	links, err := content.NewLinker("https://example.com")
	require.NoError(t, err)

	d := dispatch.New(reg, dispatch.WithLogger(logger))
	Register(d, Config{Source: catalog, Links: links, StripScripts: strip})

	return d
}

func serve(t *testing.T, d http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSPA(t *testing.T) {
	d := newTestDispatcher(t, true)

	t.Run("by slug", func(t *testing.T) {
		w := serve(t, d, "/spa-page/about")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"success": true,
			"page": {
				"id": 1,
				"title": "About",
				"slug": "about",
				"content": "<h1>About us</h1>",
				"url": "https://example.com/about/"
			}
		}`, w.Body.String())
	})

	t.Run("by parent and slug", func(t *testing.T) {
		w := serve(t, d, "/wp-spa/load/company/team")
		require.Equal(t, http.StatusOK, w.Code)

		page := decodeBody(t, w)["page"].(map[string]any)
		assert.Equal(t, "<p>The team</p>", page["content"])
		assert.Equal(t, "https://example.com/company/team/", page["url"])
	})

	t.Run("by id path", func(t *testing.T) {
		w := serve(t, d, "/spa-page-id/2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "team", decodeBody(t, w)["page"].(map[string]any)["slug"])
	})

	t.Run("by id query", func(t *testing.T) {
		w := serve(t, d, "/wp-spa/load?id=1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "about", decodeBody(t, w)["page"].(map[string]any)["slug"])
	})

	t.Run("slug is case folded", func(t *testing.T) {
		w := serve(t, d, "/wp-spa/load/About")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("product placeholders", func(t *testing.T) {
		w := serve(t, d, "/wp-spa/load/offer?product_id=10")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<h2>Laptop</h2><p>$1,299.00</p>", decodeBody(t, w)["page"].(map[string]any)["content"])
	})

	t.Run("injected description is sanitized", func(t *testing.T) {
		w := serve(t, d, "/wp-spa/load/showcase?product_id=11")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<h2>Desk</h2><p>Solid oak</p>", decodeBody(t, w)["page"].(map[string]any)["content"])
	})

	t.Run("injected description keeps scripts when not stripping", func(t *testing.T) {
		w := serve(t, newTestDispatcher(t, false), "/wp-spa/load/showcase?product_id=11")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, decodeBody(t, w)["page"].(map[string]any)["content"], "<script>track()</script>")
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "nothing given", target: "/wp-spa/load", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Page slug or ID required"}`},
		{name: "unknown slug", target: "/wp-spa/load/nonexistent", wantStatus: http.StatusNotFound, wantBody: `{"error":"Page not found"}`},
		{name: "unknown id", target: "/spa-page-id/999", wantStatus: http.StatusNotFound, wantBody: `{"error":"Page not found"}`},
		{name: "unpublished", target: "/spa-page/draft", wantStatus: http.StatusNotFound, wantBody: `{"error":"Page not found"}`},
		{name: "unknown product", target: "/spa-page/offer?product_id=77", wantStatus: http.StatusNotFound, wantBody: `{"error":"Product not found"}`},
		{name: "unpublished product", target: "/spa-page/offer?product_id=13", wantStatus: http.StatusNotFound, wantBody: `{"error":"Product not found"}`},
		{name: "malformed id", target: "/wp-spa/load?id=abc", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Invalid parameters"}`},
		{name: "other action", target: "/api/spa/save?slug=about", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Invalid action"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, d, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestPage(t *testing.T) {
	d := newTestDispatcher(t, false)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "renders fragment", target: "/api/page/view?slug=about", wantStatus: http.StatusOK, wantBody: "<h1>About us</h1><script>track()</script>"},
		{name: "child page", target: "/api/page/view?slug=team&parent=company", wantStatus: http.StatusOK, wantBody: "<p>The team</p>"},
		{name: "missing slug", target: "/api/page/view", wantStatus: http.StatusBadRequest, wantBody: "<p>Page slug required</p>"},
		{name: "unknown", target: "/api/page/view?slug=nope", wantStatus: http.StatusNotFound, wantBody: "<p>Page not found</p>"},
		{name: "unpublished", target: "/api/page/view?slug=draft", wantStatus: http.StatusNotFound, wantBody: "<p>Page not found</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, d, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		})
	}
}

func TestProducts(t *testing.T) {
	d := newTestDispatcher(t, false)

	slugs := func(body map[string]any) []string {
		var out []string
		for _, p := range body["products"].([]any) {
			out = append(out, p.(map[string]any)["slug"].(string))
		}
		return out
	}

	t.Run("list defaults", func(t *testing.T) {
		w := serve(t, d, "/api/products/list")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, []string{"laptop", "camera", "desk"}, slugs(body))
		assert.Equal(t, map[string]any{
			"current_page": float64(1),
			"total_pages":  float64(1),
			"total_items":  float64(3),
			"per_page":     float64(12),
		}, body["pagination"])
		assert.NotContains(t, body, "category")
	})

	t.Run("list paged and ordered", func(t *testing.T) {
		w := serve(t, d, "/api/products/list?page=2&per_page=1&orderby=title&order=asc")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, []string{"desk"}, slugs(body))
		assert.Equal(t, float64(3), body["pagination"].(map[string]any)["total_pages"])
	})

	t.Run("per page is capped", func(t *testing.T) {
		w := serve(t, d, "/api/products/list?per_page=1000")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(100), decodeBody(t, w)["pagination"].(map[string]any)["per_page"])
	})

	t.Run("in stock", func(t *testing.T) {
		w := serve(t, d, "/api/products/list?in_stock=true")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"laptop", "camera"}, slugs(decodeBody(t, w)))
	})

	t.Run("category", func(t *testing.T) {
		w := serve(t, d, "/api/products/category?category=electronics")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, "electronics", body["category"])
		assert.Equal(t, []string{"laptop", "camera"}, slugs(body))
	})

	t.Run("detail", func(t *testing.T) {
		for _, target := range []string{
			"/api/products/detail?id=10",
			"/api/products/detail?product_id=10",
			"/api/products/detail?slug=laptop",
		} {
			w := serve(t, d, target)
			require.Equal(t, http.StatusOK, w.Code, target)

			product := decodeBody(t, w)["product"].(map[string]any)
			assert.Equal(t, "laptop", product["slug"])
			assert.Equal(t, "https://example.com/product/laptop/", product["url"])
			assert.Equal(t, []any{"electronics"}, product["categories"])
		}
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "detail without key", target: "/api/products/detail", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Product ID or slug required"}`},
		{name: "detail unknown", target: "/api/products/detail?id=99", wantStatus: http.StatusNotFound, wantBody: `{"error":"Product not found"}`},
		{name: "detail unpublished", target: "/api/products/detail?slug=prototype", wantStatus: http.StatusNotFound, wantBody: `{"error":"Product not found"}`},
		{name: "category missing", target: "/api/products/category", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Category required"}`},
		{name: "bad page", target: "/api/products/list?page=two", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Invalid parameters"}`},
		{name: "invalid action", target: "/api/products/delete", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Invalid action"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, d, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestPosts(t *testing.T) {
	d := newTestDispatcher(t, false)

	t.Run("list", func(t *testing.T) {
		w := serve(t, d, "/api/posts/list")
		require.Equal(t, http.StatusOK, w.Code)

		var posts []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
		require.Len(t, posts, 2)
		assert.Equal(t, "second", posts[0]["slug"])
		assert.Equal(t, "ops", posts[0]["author"])
		assert.Equal(t, "https://example.com/second/", posts[0]["url"])
	})

	t.Run("details", func(t *testing.T) {
		w := serve(t, d, "/api/posts/details?id=100")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "first", decodeBody(t, w)["slug"])
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "details unknown", target: "/api/posts/details?id=5", wantStatus: http.StatusNotFound, wantBody: `{"error":"Post not found"}`},
		{name: "details private", target: "/api/posts/details?id=102", wantStatus: http.StatusNotFound, wantBody: `{"error":"Post not found"}`},
		{name: "details without id", target: "/api/posts/details", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Invalid action"}`},
		{name: "invalid action", target: "/api/posts/archive", wantStatus: http.StatusBadRequest, wantBody: `{"error":"Invalid action"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, d, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestListParamsQuery(t *testing.T) {
	tests := []struct {
		name string
		in   listParams
		want content.ProductQuery
	}{
		{
			name: "defaults",
			in:   listParams{},
			want: content.ProductQuery{Page: 1, PerPage: 12, OrderBy: "date", Order: "DESC"},
		},
		{
			name: "unknown ordering",
			in:   listParams{Page: -3, PerPage: 5, OrderBy: "price", Order: "sideways"},
			want: content.ProductQuery{Page: 1, PerPage: 5, OrderBy: "date", Order: "DESC"},
		},
		{
			name: "explicit",
			in:   listParams{Page: 2, PerPage: 101, OrderBy: "Title", Order: "asc", InStock: true},
			want: content.ProductQuery{Page: 2, PerPage: 100, OrderBy: "title", Order: "ASC", InStock: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.query())
		})
	}
}
