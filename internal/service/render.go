package service

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// SanitizeHTML strips unsafe markup from a stored content body. Translation
// content arrives from a rich-text editor as raw HTML and is never trusted on
// the way out.
func SanitizeHTML(content string) string {
	return sanitizer.Sanitize(content)
}

// RenderMarkdown converts markdown to sanitized HTML for the edit-page
// preview.
func RenderMarkdown(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return sanitizer.Sanitize(buf.String()), nil
}
