package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NormalizeHTML parses fragment as the body of a document and renders it
// back, closing unbalanced tags. With stripScripts set, script elements and
// inline event handler attributes are removed.
func NormalizeHTML(fragment string, stripScripts bool) (string, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	for _, n := range nodes {
		if stripScripts {
			if isScript(n) {
				continue
			}
			sanitize(n)
		}

		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}

	return buf.String(), nil
}

func isScript(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Script
}

func sanitize(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			if !strings.HasPrefix(strings.ToLower(a.Key), "on") {
				attrs = append(attrs, a)
			}
		}
		n.Attr = attrs
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isScript(c) {
			n.RemoveChild(c)
		} else {
			sanitize(c)
		}
		c = next
	}
}
