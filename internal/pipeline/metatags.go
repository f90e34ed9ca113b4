package pipeline

import (
	"strings"

	"golang.org/x/net/html"
)

// DefaultMetaTagPrefix marks <meta> names that carry engine options.
const DefaultMetaTagPrefix = "html2pdf-"

// FindMetaOptions collects engine options declared in the document as
//
//	<meta name="<prefix><option>" content="<value>">
//
// The returned keys have the prefix stripped. Later tags win over earlier
// ones. Tags without a content attribute map to an empty value. The whole
// document is tokenized, so tags outside <head> count too.
func FindMetaOptions(htmlContent, prefix string) map[string]string {
	found := make(map[string]string)
	if prefix == "" || !strings.Contains(htmlContent, prefix) {
		return found
	}

	z := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way nothing more to scan.
			return found
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			name, content, ok := metaAttrs(tok.Attr)
			if !ok || !strings.HasPrefix(name, prefix) {
				continue
			}
			if key := strings.TrimPrefix(name, prefix); key != "" {
				found[key] = content
			}
		}
	}
}

func metaAttrs(attrs []html.Attribute) (name, content string, ok bool) {
	for _, a := range attrs {
		switch a.Key {
		case "name":
			name, ok = a.Val, true
		case "content":
			content = a.Val
		}
	}
	return name, content, ok
}
