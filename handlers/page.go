package handlers

import (
	"context"
	"net/http"
	"path"

	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
)

type pageParams struct {
	Slug   string `param:"slug"`
	Parent string `param:"parent"`
}

// Page returns a page's content as a bare HTML fragment.
type Page struct {
	cfg Config
}

// NewPage returns the page family handler.
func NewPage(cfg Config) *Page {
	return &Page{cfg: cfg}
}

// Kind implements dispatch.Handler.
func (h *Page) Kind() dispatch.Kind {
	return dispatch.KindHTML
}

// Handle implements dispatch.Handler.
func (h *Page) Handle(ctx context.Context, dc *dispatch.Context) (*dispatch.Response, error) {
	var p pageParams
	if err := decodeParams(dc.Params, &p); err != nil {
		return nil, err
	}

	slug := sanitizeSlug(p.Slug)
	if slug == "" {
		return nil, dispatch.BadRequest("Page slug required")
	}

	page, err := h.cfg.Source.PageByPath(ctx, path.Join(sanitizeSlug(p.Parent), slug))
	if err != nil {
		return nil, notFound(err, reasonPageNotFound)
	}
	if !page.Published() {
		return nil, dispatch.NotFound(reasonPageNotFound)
	}

	body, err := content.NormalizeHTML(page.Content, h.cfg.StripScripts)
	if err != nil {
		return nil, err
	}

	return dispatch.HTML(http.StatusOK, body), nil
}
