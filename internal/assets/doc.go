// Package assets provides the print stylesheets applied to Markdown
// documents.
//
// Built-in styles are embedded at compile time and addressed by name
// ("default", "compact"). ResolveStyle also accepts a path to a CSS file, so
// a user stylesheet can replace the built-in one:
//
//	css, err := assets.ResolveStyle("compact")
//	css, err := assets.ResolveStyle("./print.css")
//
// # Security
//
// Style names are validated so a name can never escape the embedded styles
// directory. Paths are read as given.
package assets
