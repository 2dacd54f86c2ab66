package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
)

const (
	defaultPerPage = 12
	maxPerPage     = 100
)

type listParams struct {
	Page     int    `param:"page"`
	PerPage  int    `param:"per_page"`
	OrderBy  string `param:"orderby"`
	Order    string `param:"order"`
	InStock  bool   `param:"in_stock"`
	Category string `param:"category"`
}

// query normalizes the paging and ordering parameters.
func (p listParams) query() content.ProductQuery {
	q := content.ProductQuery{
		Page:     max(p.Page, 1),
		PerPage:  p.PerPage,
		OrderBy:  strings.ToLower(p.OrderBy),
		Order:    strings.ToUpper(p.Order),
		InStock:  p.InStock,
		Category: strings.TrimSpace(p.Category),
	}

	switch {
	case q.PerPage < 1:
		q.PerPage = defaultPerPage
	case q.PerPage > maxPerPage:
		q.PerPage = maxPerPage
	}

	switch q.OrderBy {
	case "date", "title", "id":
	default:
		q.OrderBy = "date"
	}

	if q.Order != "ASC" {
		q.Order = "DESC"
	}

	return q
}

type detailParams struct {
	ID        int    `param:"id"`
	ProductID int    `param:"product_id"`
	Slug      string `param:"slug"`
}

type productJSON struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt"`
	URL        string    `json:"url"`
	Price      float64   `json:"price"`
	Image      string    `json:"image,omitempty"`
	InStock    bool      `json:"in_stock"`
	Categories []string  `json:"categories"`
	Date       time.Time `json:"date"`
}

type paginationJSON struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
}

type productListResponse struct {
	Success    bool           `json:"success"`
	Category   string         `json:"category,omitempty"`
	Products   []productJSON  `json:"products"`
	Pagination paginationJSON `json:"pagination"`
}

type productDetailResponse struct {
	Success bool        `json:"success"`
	Product productJSON `json:"product"`
}

// Products serves the product API: list, detail and category.
type Products struct {
	cfg Config
}

// NewProducts returns the products family handler.
func NewProducts(cfg Config) *Products {
	return &Products{cfg: cfg}
}

// Kind implements dispatch.Handler.
func (h *Products) Kind() dispatch.Kind {
	return dispatch.KindJSON
}

// Handle implements dispatch.Handler.
func (h *Products) Handle(ctx context.Context, dc *dispatch.Context) (*dispatch.Response, error) {
	switch dc.Action {
	case "list":
		return h.list(ctx, dc, false)
	case "category":
		return h.list(ctx, dc, true)
	case "detail":
		return h.detail(ctx, dc)
	default:
		return nil, dispatch.BadRequest(reasonInvalidAction)
	}
}

func (h *Products) list(ctx context.Context, dc *dispatch.Context, byCategory bool) (*dispatch.Response, error) {
	var p listParams
	if err := decodeParams(dc.Params, &p); err != nil {
		return nil, err
	}

	q := p.query()
	if byCategory {
		if q.Category == "" {
			return nil, dispatch.BadRequest("Category required")
		}
	} else {
		q.Category = ""
	}

	page, err := h.cfg.Source.Products(ctx, q)
	if err != nil {
		return nil, err
	}

	resp := productListResponse{
		Success:  true,
		Category: q.Category,
		Products: make([]productJSON, 0, len(page.Items)),
		Pagination: paginationJSON{
			CurrentPage: q.Page,
			TotalPages:  page.TotalPages,
			TotalItems:  page.Total,
			PerPage:     q.PerPage,
		},
	}
	for _, item := range page.Items {
		resp.Products = append(resp.Products, h.product(item))
	}

	return dispatch.JSON(http.StatusOK, resp)
}

func (h *Products) detail(ctx context.Context, dc *dispatch.Context) (*dispatch.Response, error) {
	var p detailParams
	if err := decodeParams(dc.Params, &p); err != nil {
		return nil, err
	}

	id := p.ID
	if id <= 0 {
		id = p.ProductID
	}
	slug := sanitizeSlug(p.Slug)

	var (
		product content.Product
		err     error
	)
	switch {
	case id > 0:
		product, err = h.cfg.Source.ProductByID(ctx, id)
	case slug != "":
		product, err = h.cfg.Source.ProductBySlug(ctx, slug)
	default:
		return nil, dispatch.BadRequest("Product ID or slug required")
	}
	if err != nil {
		return nil, notFound(err, reasonProductNotFound)
	}
	if !product.Published() {
		return nil, dispatch.NotFound(reasonProductNotFound)
	}

	return dispatch.JSON(http.StatusOK, productDetailResponse{
		Success: true,
		Product: h.product(product),
	})
}

func (h *Products) product(p content.Product) productJSON {
	categories := p.Categories
	if categories == nil {
		categories = []string{}
	}

	return productJSON{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Content:    p.Content,
		Excerpt:    p.Excerpt,
		URL:        h.cfg.Links.Product(p),
		Price:      p.Price,
		Image:      p.Image,
		InStock:    p.InStock,
		Categories: categories,
		Date:       p.Date,
	}
}
