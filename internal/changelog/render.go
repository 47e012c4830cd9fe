// Package changelog turns release-note markup into HTML for the
// desktop shell and into styled text for the terminal.
package changelog

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// headingShifter demotes every heading one level, capped at h6, so
// release notes that start at H1 slot under the update dialog's own
// title (the original H1 renders as an H2).
type headingShifter struct{}

func (headingShifter) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level < 6 {
			h.Level++
		}
		return ast.WalkContinue, nil
	})
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(headingShifter{}, 100)),
	),
)

var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Attributes the link rewrite step produces must survive a second
	// sanitization pass on the shell side.
	p.AllowAttrs("target", "rel", ExternalLinkAttr).OnElements("a")
	return p
}

// RenderHTML converts release-note markup into sanitized HTML with all
// hyperlinks rewritten for external opening. The empty string renders
// to the empty string.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render changelog: %w", err)
	}
	return RewriteLinks(string(sanitizer.SanitizeBytes(buf.Bytes())))
}
