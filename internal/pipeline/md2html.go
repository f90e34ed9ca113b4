package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ErrMarkdownConversion indicates Markdown to HTML conversion failed.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// documentTemplate wraps Goldmark's fragment in a complete HTML5 document.
// The engine needs a <head> for meta tags and injected styles to land in.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`

// MarkdownRenderer abstracts Markdown to HTML conversion.
type MarkdownRenderer interface {
	RenderHTML(ctx context.Context, markdown, title string) (string, error)
}

// GoldmarkRenderer renders Markdown with GFM extensions and chroma highlighting.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

var _ MarkdownRenderer = (*GoldmarkRenderer)(nil)

// NewGoldmarkRenderer creates a GoldmarkRenderer.
// Raw HTML in the Markdown is not passed through.
func NewGoldmarkRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithXHTML()),
	)}
}

// RenderHTML converts markdown into a standalone HTML5 document titled title.
// Goldmark has no context support, so conversion runs in a goroutine and
// ctx only bounds how long the caller waits.
func (r *GoldmarkRenderer) RenderHTML(ctx context.Context, markdown, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if title == "" {
		title = "Document"
	}

	type result struct {
		doc string
		err error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(markdown), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkdownConversion, err)}
			return
		}
		done <- result{doc: fmt.Sprintf(documentTemplate, html.EscapeString(title), buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.doc, r.err
	}
}
