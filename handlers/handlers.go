package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
)

const (
	reasonInvalidAction = "Invalid action"
	reasonInvalidParams = "Invalid parameters"
)

// Config holds the collaborators shared by every handler.
type Config struct {
	Source content.Source
	Links  *content.Linker
	// StripScripts removes script elements from rendered page content.
	StripScripts bool
}

// Register installs all handlers on d.
func Register(d *dispatch.Dispatcher, cfg Config) {
	d.Handle(dispatch.FamilySPA, NewSPA(cfg))
	d.Handle(dispatch.FamilyPage, NewPage(cfg))
	d.Handle(dispatch.FamilyProducts, NewProducts(cfg))
	d.Handle(dispatch.FamilyPosts, NewPosts(cfg))
}

// decodeParams decodes the first value of every parameter into out, a
// pointer to a struct tagged with `param`. Input is weakly typed, so "42"
// decodes into an int field and "true" into a bool.
func decodeParams(values url.Values, out any) error {
	flat := make(map[string]any, len(values))
	for key, v := range values {
		if len(v) > 0 {
			flat[key] = strings.TrimSpace(v[0])
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "param",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("params decoder: %w", err)
	}

	if err := dec.Decode(flat); err != nil {
		return dispatch.BadRequest(reasonInvalidParams)
	}

	return nil
}

// sanitizeSlug lowercases and trims a slug taken from the request.
func sanitizeSlug(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), "/")
}

// notFound maps content.ErrNotFound to a 404 with reason and passes other
// errors through.
func notFound(err error, reason string) error {
	if errors.Is(err, content.ErrNotFound) {
		return dispatch.NotFound(reason)
	}
	return err
}
