package changelog

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExternalLinkAttr marks anchors the desktop shell must route through
// the system browser instead of in-app navigation.
const ExternalLinkAttr = "data-external-link"

// RewriteLinks parses the HTML fragment and rewrites every hyperlink
// on the document tree: the marker attribute lets the shell bind its
// open-external handler, and target="_blank" keeps a safe fallback if
// that handler is unavailable. Working on the parsed tree avoids the
// pitfalls of mutating HTML with string substitution.
func RewriteLinks(fragment string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, n := range nodes {
		rewriteAnchors(n)
		if err := html.Render(&out, n); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func rewriteAnchors(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A && hasAttr(n, "href") {
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener noreferrer")
		setAttr(n, ExternalLinkAttr, "true")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteAnchors(c)
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
