package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert     Render HTML, a URL or Markdown to PDF")
	fmt.Fprintln(w, "  doctor      Check the engine and environment")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'html2pdf help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render one input to PDF with wkhtmltopdf.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    HTML file, http(s) URL, Markdown file (.md), or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output PDF (default: input with .pdf, stdout for URL/stdin)")
	fmt.Fprintln(w, "  -m, --markdown              Treat the input as Markdown")
	fmt.Fprintln(w, "      --title <s>             Title for Markdown input (default: first heading)")
	fmt.Fprintln(w, "      --style <name|path>     Print style for Markdown input: default, compact, a CSS file, or none")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Engine:")
	fmt.Fprintln(w, "      --engine <path>         Engine executable (default: wkhtmltopdf on PATH)")
	fmt.Fprintln(w, "  -O, --option <k[=v]>        Engine option, repeatable: -O page-size=A4 -O grayscale")
	fmt.Fprintln(w, "  -s, --stylesheet <path>     CSS file injected into HTML input, repeatable")
	fmt.Fprintln(w, "      --meta-prefix <s>       <meta> name prefix read as options (default: html2pdf-)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Termination:")
	fmt.Fprintln(w, "  -e, --ensure-termination    Watch the output, stop the engine once the PDF is complete")
	fmt.Fprintln(w, "  -t, --timeout <d>           Max wait for a complete PDF (default: 10s)")
	fmt.Fprintln(w, "      --settle-delay <d>      Wait before watching the output, counts against timeout (default: 3s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Log engine invocations and timings")
	fmt.Fprintln(w, "      --metrics-file <path>   Write Prometheus metrics after the run")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  HTML2PDF_CONFIG, HTML2PDF_ENGINE, HTML2PDF_TIMEOUT, HTML2PDF_SETTLE_DELAY,")
	fmt.Fprintln(w, "  HTML2PDF_ENSURE_TERMINATION, HTML2PDF_META_PREFIX, HTML2PDF_METRICS_FILE")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the engine, config file, environment and temp directory.")
	fmt.Fprintln(w, "Exits 1 when a blocking problem is found.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: html2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: html2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
