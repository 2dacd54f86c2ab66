// Package handlers implements the route families served by the dispatcher:
// SPA page fragments, raw HTML pages, the product API and the posts API.
package handlers
