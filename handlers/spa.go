package handlers

import (
	"context"
	"net/http"
	"path"

	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
)

const (
	reasonPageRequired    = "Page slug or ID required"
	reasonPageNotFound    = "Page not found"
	reasonProductNotFound = "Product not found"
)

type spaParams struct {
	Slug      string `param:"slug"`
	Parent    string `param:"parent"`
	ID        int    `param:"id"`
	ProductID int    `param:"product_id"`
}

type pageJSON struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type spaResponse struct {
	Success bool     `json:"success"`
	Page    pageJSON `json:"page"`
}

// SPA serves page content fragments for client-side navigation.
type SPA struct {
	cfg Config
}

// NewSPA returns the spa family handler.
func NewSPA(cfg Config) *SPA {
	return &SPA{cfg: cfg}
}

// Kind implements dispatch.Handler.
func (h *SPA) Kind() dispatch.Kind {
	return dispatch.KindJSON
}

// Handle implements dispatch.Handler. A page is selected by id or by
// slug with an optional parent; product_id fills product placeholders in
// the page content.
func (h *SPA) Handle(ctx context.Context, dc *dispatch.Context) (*dispatch.Response, error) {
	if dc.Action != "" && dc.Action != "load" {
		return nil, dispatch.BadRequest(reasonInvalidAction)
	}

	var p spaParams
	if err := decodeParams(dc.Params, &p); err != nil {
		return nil, err
	}

	slug := sanitizeSlug(p.Slug)
	if slug == "" && p.ID <= 0 {
		return nil, dispatch.BadRequest(reasonPageRequired)
	}

	var (
		page content.Page
		err  error
	)
	if p.ID > 0 {
		page, err = h.cfg.Source.PageByID(ctx, p.ID)
	} else {
		page, err = h.cfg.Source.PageByPath(ctx, path.Join(sanitizeSlug(p.Parent), slug))
	}
	if err != nil {
		return nil, notFound(err, reasonPageNotFound)
	}
	if !page.Published() {
		return nil, dispatch.NotFound(reasonPageNotFound)
	}

	fragment := page.Content
	if p.ProductID > 0 {
		product, err := h.cfg.Source.ProductByID(ctx, p.ProductID)
		if err != nil {
			return nil, notFound(err, reasonProductNotFound)
		}
		if !product.Published() {
			return nil, dispatch.NotFound(reasonProductNotFound)
		}
		// injected descriptions are HTML and go through the same sanitizing
		fragment = content.InjectProduct(fragment, product)
	}

	body, err := content.NormalizeHTML(fragment, h.cfg.StripScripts)
	if err != nil {
		return nil, err
	}

	return dispatch.JSON(http.StatusOK, spaResponse{
		Success: true,
		Page: pageJSON{
			ID:      page.ID,
			Title:   page.Title,
			Slug:    page.Slug,
			Content: body,
			URL:     h.cfg.Links.Page(page),
		},
	})
}
