package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Matched against the original document so offsets index it directly.
var (
	headClose = regexp.MustCompile(`(?i)</head>`)
	bodyOpen  = regexp.MustCompile(`(?i)<body[^>]*>`)
)

// StyleInjector defines the contract for stylesheet injection into HTML.
type StyleInjector interface {
	InjectStyles(ctx context.Context, htmlContent string, stylesheets []string) string
}

// StyleInjection injects stylesheet contents as <style> blocks.
type StyleInjection struct{}

var _ StyleInjector = (*StyleInjection)(nil)

// InjectStyles inserts one <style> block per stylesheet, in order.
// Tries </head> first, then right after <body ...>, then prepends.
// Empty stylesheets are skipped; the document is returned unchanged when none remain.
func (s *StyleInjection) InjectStyles(ctx context.Context, htmlContent string, stylesheets []string) string {
	if ctx.Err() != nil {
		return htmlContent
	}

	var block strings.Builder
	for _, css := range stylesheets {
		if css == "" {
			continue
		}
		block.WriteString("<style>")
		block.WriteString(sanitizeCSS(css))
		block.WriteString("</style>")
	}
	if block.Len() == 0 {
		return htmlContent
	}

	pos := insertPosition(htmlContent)
	return htmlContent[:pos] + block.String() + htmlContent[pos:]
}

// insertPosition returns the byte offset where style blocks belong.
func insertPosition(htmlContent string) int {
	if loc := headClose.FindStringIndex(htmlContent); loc != nil {
		return loc[0]
	}

	if loc := bodyOpen.FindStringIndex(htmlContent); loc != nil {
		return loc[1]
	}

	return 0
}

// sanitizeCSS escapes "</" so the stylesheet cannot close its <style> element.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
