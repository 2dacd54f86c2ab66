package router

import (
	"regexp"
	"strings"
)

// DefaultLoadPrefix is the path prefix of the content fragment endpoint.
const DefaultLoadPrefix = "wp-spa/load"

// Definition is an uncompiled rule description.
type Definition struct {
	Slug        string
	Pattern     string
	Target      string
	Description string
}

// BuiltinRoutes returns the fixed routes served ahead of any stored route.
// loadPrefix is the content fragment endpoint, without leading or trailing
// slashes; an empty value selects DefaultLoadPrefix.
func BuiltinRoutes(loadPrefix string) []Definition {
	prefix := strings.Trim(loadPrefix, "/")
	if prefix == "" {
		prefix = DefaultLoadPrefix
	}
	quoted := regexp.QuoteMeta(prefix)

	return []Definition{
		{
			Slug:        "spa-load",
			Pattern:     quoted + `/?$`,
			Target:      "route=spa&action=load",
			Description: "SPA page loader (query parameters)",
		},
		{
			Slug:        "spa-load-slug",
			Pattern:     quoted + `/([^/]+)/?$`,
			Target:      "route=spa&action=load&slug=$1",
			Description: "SPA page loader by slug",
		},
		{
			Slug:        "spa-load-parent-slug",
			Pattern:     quoted + `/([^/]+)/([^/]+)/?$`,
			Target:      "route=spa&action=load&parent=$1&slug=$2",
			Description: "SPA page loader by parent and slug",
		},
		{
			Slug:        "spa-page",
			Pattern:     `spa-page/([^/]+)/?$`,
			Target:      "route=spa&action=load&slug=$1",
			Description: "SPA page by slug",
		},
		{
			Slug:        "spa-page-id",
			Pattern:     `spa-page-id/([0-9]+)/?$`,
			Target:      "route=spa&action=load&id=$1",
			Description: "SPA page by ID",
		},
		{
			Slug:        "api",
			Pattern:     `api/([^/]+)/([^/]+)/?$`,
			Target:      "route=$1&action=$2",
			Description: "Generic API route",
		},
	}
}
