// Package markdown converts analysis text to HTML for the view endpoints.
//
// Analysis results arrive as GFM-flavored markdown where soft line breaks are
// significant. Rendering must never fail the caller: any problem falls back
// to literal text with newlines converted to <br> tags. Output is trusted
// HTML and is only ever produced from backend-origin content, never from raw
// user input.
package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		ghtml.WithHardWraps(),
		ghtml.WithUnsafe(),
	),
)

// Render converts markdown text to HTML. It never returns an error: on any
// conversion failure the literal text is returned with line breaks preserved.
func Render(text string) (out string) {
	if text == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			out = Literal(text)
		}
	}()

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return Literal(text)
	}
	return buf.String()
}

// Literal escapes text and converts newlines to <br> tags
func Literal(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
