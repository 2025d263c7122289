package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToHTML converts markdown source to an HTML fragment. Cross-reference
// links (srd: hrefs) are rewritten into intra-document anchors so the
// rendered page links between its own sections.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return rewriteRefs(buf.String())
}

// AnchorID returns the element id used for a content block's section in
// HTML output.
func AnchorID(slug string) string {
	return "srd-" + slug
}

func rewriteRefs(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("parse html fragment: %w", err)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			rewriteAnchor(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	var out strings.Builder
	for _, n := range nodes {
		walk(n)
		if err := html.Render(&out, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return out.String(), nil
}

func rewriteAnchor(n *html.Node) {
	for i, attr := range n.Attr {
		if attr.Key != "href" {
			continue
		}
		slug, ok := strings.CutPrefix(attr.Val, RefPrefix)
		if !ok {
			return
		}
		n.Attr[i].Val = "#" + AnchorID(slug)
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: "srd-ref"})
		return
	}
}
