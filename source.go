package html2pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/pipeline"
)

// SourceKind tells how the engine receives a source.
type SourceKind int

const (
	// SourceHTML is inline markup, piped on stdin or written to a temp file.
	SourceHTML SourceKind = iota
	// SourceURL is fetched by the engine itself.
	SourceURL
	// SourceFile is a local HTML file passed to the engine by path.
	SourceFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceHTML:
		return "html"
	case SourceURL:
		return "url"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// Source is what the engine renders. The zero value is an empty HTML source
// and is rejected by Generate.
type Source struct {
	kind  SourceKind
	value string
}

// NewSource returns a URL source for http:// and https:// strings and an
// inline HTML source otherwise.
func NewSource(s string) Source {
	if fileutil.IsURL(s) {
		return FromURL(s)
	}
	return FromHTML(s)
}

// FromURL returns a source the engine fetches itself.
func FromURL(url string) Source { return Source{kind: SourceURL, value: url} }

// FromFile returns a source for a local HTML file.
func FromFile(path string) Source { return Source{kind: SourceFile, value: path} }

// FromHTML returns an inline HTML source.
func FromHTML(html string) Source { return Source{kind: SourceHTML, value: html} }

var markdownRenderer pipeline.MarkdownRenderer = pipeline.NewGoldmarkRenderer()

// FromMarkdown renders md to a standalone HTML document and returns it as an
// inline HTML source.
func FromMarkdown(ctx context.Context, md string) (Source, error) {
	if md == "" {
		return Source{}, ErrEmptySource
	}
	doc, err := markdownRenderer.RenderHTML(ctx, md, "")
	if err != nil {
		return Source{}, err
	}
	return FromHTML(doc), nil
}

// Kind reports how the engine receives the source.
func (s Source) Kind() SourceKind { return s.kind }

// IsURL reports whether the engine fetches the source itself.
func (s Source) IsURL() bool { return s.kind == SourceURL }

// IsFile reports whether the source is a local file path.
func (s Source) IsFile() bool { return s.kind == SourceFile }

// IsHTML reports whether the source is inline markup.
func (s Source) IsHTML() bool { return s.kind == SourceHTML }

// String returns the URL, the file path or the markup.
func (s Source) String() string { return s.value }

// Content returns the markup behind the source: the inline HTML, or the file
// contents. URL sources have no local content.
func (s Source) Content() (string, error) {
	switch s.kind {
	case SourceHTML:
		return s.value, nil
	case SourceFile:
		data, err := os.ReadFile(s.value) // #nosec G304 -- the caller chose the source file
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", ErrImproperSource, s.value, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s source has no local content", ErrImproperSource, s.kind)
	}
}

// validate rejects empty sources and missing files.
func (s Source) validate() error {
	if s.value == "" {
		return ErrEmptySource
	}
	if s.kind == SourceFile && !fileutil.FileExists(s.value) {
		return fmt.Errorf("%w: file not found: %s", ErrImproperSource, s.value)
	}
	return nil
}
