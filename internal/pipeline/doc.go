// Package pipeline holds the HTML transforms applied to a source before it is
// handed to the rendering engine:
//   - stylesheet injection as <style> blocks
//   - option scraping from prefixed <meta> tags
//   - Markdown to HTML conversion via Goldmark
//
// Rendering itself happens in an external process driven by the root
// html2pdf package. Nothing here spawns processes or touches the filesystem.
package pipeline
