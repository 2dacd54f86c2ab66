package content

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the YAML layout of a catalog file.
type Document struct {
	Pages    []Page    `yaml:"pages"`
	Products []Product `yaml:"products"`
	Posts    []Post    `yaml:"posts"`
}

// Catalog is an immutable in-memory Source.
type Catalog struct {
	pages    []Page
	products []Product
	posts    []Post
}

var _ Source = (*Catalog)(nil)

// NewCatalog builds a catalog from doc. Ids must be positive and unique
// per kind.
func NewCatalog(doc Document) (*Catalog, error) {
	if err := uniqueIDs("page", doc.Pages, func(p Page) int { return p.ID }); err != nil {
		return nil, err
	}
	if err := uniqueIDs("product", doc.Products, func(p Product) int { return p.ID }); err != nil {
		return nil, err
	}
	if err := uniqueIDs("post", doc.Posts, func(p Post) int { return p.ID }); err != nil {
		return nil, err
	}

	return &Catalog{
		pages:    slices.Clone(doc.Pages),
		products: slices.Clone(doc.Products),
		posts:    slices.Clone(doc.Posts),
	}, nil
}

// ParseCatalog decodes a YAML catalog from r.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var doc Document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return NewCatalog(doc)
}

// LoadCatalog reads a YAML catalog file. An empty path yields an empty
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(Document{})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(bytes.NewReader(data))
}

func uniqueIDs[T any](kind string, items []T, id func(T) int) error {
	seen := make(map[int]struct{}, len(items))
	for _, item := range items {
		n := id(item)
		if n <= 0 {
			return fmt.Errorf("catalog: %s id must be positive, got %d", kind, n)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("catalog: duplicate %s id %d", kind, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// PageByID implements Source.
func (c *Catalog) PageByID(_ context.Context, id int) (Page, error) {
	for _, p := range c.pages {
		if p.ID == id {
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("%w: page %d", ErrNotFound, id)
}

// PageByPath implements Source. An exact hierarchical path wins; a single
// segment falls back to the first page with that slug.
func (c *Catalog) PageByPath(_ context.Context, path string) (Page, error) {
	path = strings.Trim(path, "/")

	for _, p := range c.pages {
		if p.Path() == path {
			return p, nil
		}
	}

	if path != "" && !strings.Contains(path, "/") {
		for _, p := range c.pages {
			if p.Slug == path {
				return p, nil
			}
		}
	}

	return Page{}, fmt.Errorf("%w: page %q", ErrNotFound, path)
}

// ProductByID implements Source.
func (c *Catalog) ProductByID(_ context.Context, id int) (Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
}

// ProductBySlug implements Source.
func (c *Catalog) ProductBySlug(_ context.Context, slug string) (Product, error) {
	for _, p := range c.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: product %q", ErrNotFound, slug)
}

// Products implements Source. Page and PerPage below one default to 1 and
// 12; OrderBy is one of date, title or id (default date) and Order is ASC
// or DESC (default DESC).
func (c *Catalog) Products(_ context.Context, q ProductQuery) (ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 12
	}

	matched := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if !p.Published() {
			continue
		}
		if q.InStock && !p.InStock {
			continue
		}
		if q.Category != "" && !p.InCategory(q.Category) {
			continue
		}
		matched = append(matched, p)
	}

	desc := !strings.EqualFold(q.Order, "ASC")
	slices.SortStableFunc(matched, func(a, b Product) int {
		var n int
		switch strings.ToLower(q.OrderBy) {
		case "title":
			n = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case "id":
			n = cmp.Compare(a.ID, b.ID)
		default:
			n = a.Date.Compare(b.Date)
		}
		if desc {
			return -n
		}
		return n
	})

	page := ProductPage{
		Total:      len(matched),
		TotalPages: (len(matched) + q.PerPage - 1) / q.PerPage,
		Items:      []Product{},
	}

	start := (q.Page - 1) * q.PerPage
	if start < len(matched) {
		end := min(start+q.PerPage, len(matched))
		page.Items = matched[start:end]
	}

	return page, nil
}

// Posts implements Source. It returns up to limit published posts, newest
// first.
func (c *Catalog) Posts(_ context.Context, limit int) ([]Post, error) {
	posts := make([]Post, 0, len(c.posts))
	for _, p := range c.posts {
		if p.Published() {
			posts = append(posts, p)
		}
	}

	slices.SortStableFunc(posts, func(a, b Post) int {
		return b.Date.Compare(a.Date)
	})

	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	return posts, nil
}

// PostByID implements Source.
func (c *Catalog) PostByID(_ context.Context, id int) (Post, error) {
	for _, p := range c.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
}
