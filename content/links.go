package content

import (
	"fmt"
	"net/url"
	"path"
)

// Linker builds public URLs for content items.
type Linker struct {
	base *url.URL
}

// NewLinker returns a linker rooted at base, which must be an absolute URL.
func NewLinker(base string) (*Linker, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", base)
	}

	u.RawQuery = ""
	u.Fragment = ""

	return &Linker{base: u}, nil
}

// Page returns the permalink of p.
func (l *Linker) Page(p Page) string {
	return l.join(p.Path())
}

// Product returns the permalink of p.
func (l *Linker) Product(p Product) string {
	return l.join("product", p.Slug)
}

// Post returns the permalink of p.
func (l *Linker) Post(p Post) string {
	return l.join(p.Slug)
}

func (l *Linker) join(elems ...string) string {
	u := *l.base
	u.Path = path.Join(append([]string{"/", l.base.Path}, elems...)...)
	if u.Path != "/" {
		u.Path += "/"
	}
	return u.String()
}
