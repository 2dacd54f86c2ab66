package dispatch

import (
	"context"
	"net/url"
	"strconv"
)

type contextKey struct{}

// Context carries what the dispatcher learned about a request to the
// handler.
type Context struct {
	// Slug of the rule that matched.
	Slug   string
	Family Family
	Action string
	// Params holds the request query overridden by the target parameters.
	Params    url.Values
	Captures  []string
	RequestID string
}

// Param returns the first value of a parameter.
func (c *Context) Param(name string) string {
	return c.Params.Get(name)
}

// IntParam parses a parameter as an integer. ok is false when the parameter
// is absent; a present but malformed value yields an error.
func (c *Context) IntParam(name string) (n int, ok bool, err error) {
	v := c.Params.Get(name)
	if v == "" {
		return 0, false, nil
	}

	n, err = strconv.Atoi(v)
	if err != nil {
		return 0, true, err
	}

	return n, true, nil
}

// NewContext returns ctx carrying dc.
func NewContext(ctx context.Context, dc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, dc)
}

// FromContext returns the dispatch context stored by the dispatcher, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	dc, ok := ctx.Value(contextKey{}).(*Context)
	return dc, ok
}
