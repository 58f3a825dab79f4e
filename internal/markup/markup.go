// Package markup renders the markdown allowed in portfolio text fields to safe HTML.
package markup

import (
	"bytes"
	stdhtml "html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	contentPolicy = newContentPolicy()
	plainPolicy   = bluemonday.StrictPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// Markdown converts markdown to sanitized HTML. Raw HTML in the source is
// filtered by the user-content policy rather than passed through.
func Markdown(source string) template.HTML {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(trimmed), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(trimmed))
	}
	return template.HTML(strings.TrimSpace(contentPolicy.Sanitize(buf.String())))
}

// PlainText strips every tag, leaving only unescaped text content.
func PlainText(source string) string {
	return strings.TrimSpace(stdhtml.UnescapeString(plainPolicy.Sanitize(source)))
}
