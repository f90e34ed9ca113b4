// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForExecutableNotFound returns hints for a missing rendering engine.
func ForExecutableNotFound() string {
	var hints []string

	if IsInContainer() {
		hints = append(hints, "install wkhtmltopdf in the image (apt-get install wkhtmltopdf)")
	} else {
		hints = append(hints, "install wkhtmltopdf and make sure it is on PATH")
	}

	if os.Getenv("HTML2PDF_ENGINE") == "" {
		hints = append(hints, "or point --engine / HTML2PDF_ENGINE at the binary")
	}

	return formatHints(hints)
}

// ForTimeout returns hints for generations that never produced the completion marker.
// The settle delay counts against the timeout when termination is enforced.
func ForTimeout(ensureTermination bool) string {
	if ensureTermination {
		return format("raise --timeout, or lower --settle-delay (it counts against the timeout)")
	}
	return format("for slow pages, raise --timeout")
}

// ForIncomplete returns hints for output missing its trailing %%EOF.
func ForIncomplete(ensureTermination bool) string {
	if ensureTermination {
		return format("the engine was stopped before it finished writing; raise --timeout")
	}
	return format("the engine exited before finishing; run with --verbose to see its stderr")
}

// ForCommandFailed returns hints for an engine that exited with an error.
func ForCommandFailed() string {
	return format("run with --verbose to see the engine's stderr, or the same command in a shell")
}

// ForStylesheetSource returns hints for stylesheets given with a URL or file source.
func ForStylesheetSource() string {
	return format("stylesheets apply to inline HTML and Markdown sources only")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	marker := string(filepath.Separator) + "go-html2pdf" + string(filepath.Separator)
	for _, p := range searchedPaths {
		if strings.Contains(p, marker) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output file creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
