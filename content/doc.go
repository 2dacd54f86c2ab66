// Package content is the read-only content source behind the route
// handlers: pages, products and posts.
//
// Catalog is the bundled implementation. It is loaded once from a YAML
// document and is safe for concurrent use.
package content
