package content

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a lookup has no result.
var ErrNotFound = errors.New("content: not found")

// StatusPublish is the status of publicly visible items. Items without a
// status are treated as published.
const StatusPublish = "publish"

// Page is a content page.
type Page struct {
	ID      int    `yaml:"id"`
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Parent  string `yaml:"parent"`
	Status  string `yaml:"status"`
	Content string `yaml:"content"`
}

// Path returns the hierarchical path of the page, "parent/slug" for child
// pages.
func (p Page) Path() string {
	return strings.Trim(path.Join(p.Parent, p.Slug), "/")
}

// Published reports whether the page is publicly visible.
func (p Page) Published() bool {
	return published(p.Status)
}

// Product is a catalog product.
type Product struct {
	ID         int       `yaml:"id"`
	Title      string    `yaml:"title"`
	Slug       string    `yaml:"slug"`
	Status     string    `yaml:"status"`
	Content    string    `yaml:"content"`
	Excerpt    string    `yaml:"excerpt"`
	Price      float64   `yaml:"price"`
	Image      string    `yaml:"image"`
	InStock    bool      `yaml:"in_stock"`
	Categories []string  `yaml:"categories"`
	Date       time.Time `yaml:"date"`
}

// Published reports whether the product is publicly visible.
func (p Product) Published() bool {
	return published(p.Status)
}

// InCategory reports whether the product is tagged with category.
func (p Product) InCategory(category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Post is a blog post.
type Post struct {
	ID      int       `yaml:"id"`
	Title   string    `yaml:"title"`
	Slug    string    `yaml:"slug"`
	Status  string    `yaml:"status"`
	Excerpt string    `yaml:"excerpt"`
	Content string    `yaml:"content"`
	Author  string    `yaml:"author"`
	Date    time.Time `yaml:"date"`
}

// Published reports whether the post is publicly visible.
func (p Post) Published() bool {
	return published(p.Status)
}

func published(status string) bool {
	return status == "" || status == StatusPublish
}

// ProductQuery selects a page of published products.
type ProductQuery struct {
	Page     int
	PerPage  int
	OrderBy  string
	Order    string
	InStock  bool
	Category string
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items      []Product
	Total      int
	TotalPages int
}

// Source is the content backend the handlers read from. PageByID and
// PageByPath return pages regardless of status; callers decide visibility.
type Source interface {
	PageByID(ctx context.Context, id int) (Page, error)
	PageByPath(ctx context.Context, path string) (Page, error)
	ProductByID(ctx context.Context, id int) (Product, error)
	ProductBySlug(ctx context.Context, slug string) (Product, error)
	Products(ctx context.Context, q ProductQuery) (ProductPage, error)
	Posts(ctx context.Context, limit int) ([]Post, error)
	PostByID(ctx context.Context, id int) (Post, error)
}
