package main

import (
	"context"
	"errors"
	"os"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/assets"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/hints"
)

// Exit codes for the html2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // PDF written
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or source
	ExitIO      = 3 // Input not found, output not writable
	ExitEngine  = 4 // Engine missing, failed, timed out or incomplete
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, html2pdf.ErrExecutableNotFound) ||
		errors.Is(err, html2pdf.ErrCommandFailed) ||
		errors.Is(err, html2pdf.ErrGenerationTimeout) ||
		errors.Is(err, html2pdf.ErrGenerationIncomplete) ||
		errors.Is(err, html2pdf.ErrOutputWatch) {
		return ExitEngine
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, html2pdf.ErrStylesheetRead) ||
		errors.Is(err, html2pdf.ErrOutputRead) ||
		errors.Is(err, assets.ErrAssetRead) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrUnsupportedExt) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidDuration) ||
		errors.Is(err, config.ErrTooMany) ||
		errors.Is(err, html2pdf.ErrImproperSource) ||
		errors.Is(err, html2pdf.ErrEmptySource) ||
		errors.Is(err, html2pdf.ErrInvalidToken) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var ensureTermination bool
	var ge *generationError
	if errors.As(err, &ge) {
		ensureTermination = ge.ensureTermination
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, html2pdf.ErrExecutableNotFound):
		return hints.ForExecutableNotFound()
	case errors.Is(err, html2pdf.ErrGenerationTimeout):
		return hints.ForTimeout(ensureTermination)
	case errors.Is(err, html2pdf.ErrGenerationIncomplete):
		return hints.ForIncomplete(ensureTermination)
	case errors.Is(err, html2pdf.ErrCommandFailed):
		return hints.ForCommandFailed()
	case errors.Is(err, html2pdf.ErrImproperSource) && ge != nil:
		return hints.ForStylesheetSource()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(config.DefaultName()))
	case errors.Is(err, ErrWritePDF):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
