// Package html2pdf converts HTML to PDF by driving an external rendering
// engine such as wkhtmltopdf.
//
// # Quick Start
//
// Create a generator once, then render sources:
//
//	gen, err := html2pdf.NewGenerator()
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, html2pdf.ErrExecutableNotFound)
//	}
//
//	pdf, err := gen.ToBytes(ctx, html2pdf.FromHTML("<html><body>hi</body></html>"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.pdf", pdf, 0644)
//
// Sources are inline HTML (FromHTML), pages the engine fetches (FromURL),
// local files (FromFile) or Markdown rendered to HTML first (FromMarkdown).
// NewSource picks URL or HTML from the string.
//
// # Strategies
//
// By default the engine runs with its input and output on pipes and is
// expected to exit on its own.
//
// Some engine versions never exit after writing the PDF. With
// EnsureTermination(true) the engine writes to a file instead. After a settle
// delay the file is watched for the completion marker ("%%EOF") in bytes
// appended from then on, and the engine's process group is interrupted as
// soon as the marker appears:
//
//	pdf, err := gen.ToBytes(ctx, src,
//	    html2pdf.EnsureTermination(true),
//	    html2pdf.Timeout(30*time.Second),
//	    html2pdf.SettleDelay(time.Second),
//	)
//
// Either way the output is accepted only when it ends with the marker.
//
// # Engine Options
//
// Options are a map turned into flags: "page_size": "A4" becomes
// "--page-size A4", true gives a bare flag, false omits it. They are layered
// as defaults (Letter, 0.75in margins, UTF-8), then <meta name="html2pdf-...">
// tags found in HTML and file sources, then the request's WithOptions.
//
// # Errors
//
// ErrExecutableNotFound comes from NewGenerator. Generate reports
// *TimeoutError (ErrGenerationTimeout), *IncompleteError
// (ErrGenerationIncomplete) and *CommandFailedError (ErrCommandFailed). The
// last one carries the shell-escaped command line for diagnosis. Nothing is
// retried.
package html2pdf
