package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Sentinel errors for command-line parsing.
var (
	ErrUsage         = errors.New("invalid usage")
	ErrInvalidOption = errors.New("invalid engine option")
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// engineFlags holds flags controlling how the engine is run and supervised.
type engineFlags struct {
	path              string
	ensureTermination bool
	timeout           string
	settleDelay       string
	metaPrefix        string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common      commonFlags
	engine      engineFlags
	output      string
	markdown    bool
	title       string
	style       string
	options     []string
	stylesheets []string
	metricsFile string

	changed map[string]bool // flags set on the command line
}

// isSet reports whether the flag was given explicitly.
func (f *convertFlags) isSet(name string) bool { return f.changed[name] }

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log engine invocations and timings")
}

func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.path, "engine", "", "engine executable name or path (default wkhtmltopdf)")
	fs.BoolVarP(&f.ensureTermination, "ensure-termination", "e", false, "watch the output and stop the engine once the PDF is complete")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "max wait for a complete PDF with --ensure-termination (e.g. 30s)")
	fs.StringVar(&f.settleDelay, "settle-delay", "", "wait before watching the output (e.g. 1s)")
	fs.StringVar(&f.metaPrefix, "meta-prefix", "", "prefix of <meta> names read as engine options")
}

func addConvertFlags(fs *flag.FlagSet, f *convertFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output PDF path, - for stdout")
	fs.BoolVarP(&f.markdown, "markdown", "m", false, "treat the input as Markdown")
	fs.StringVar(&f.title, "title", "", "document title for Markdown input")
	fs.StringVar(&f.style, "style", "", "print style for Markdown input: built-in name, CSS path, or none (default \"default\")")
	fs.StringArrayVarP(&f.options, "option", "O", nil, "engine option key[=value], repeatable")
	fs.StringArrayVarP(&f.stylesheets, "stylesheet", "s", nil, "CSS file injected into HTML input, repeatable")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
}

// buildConvertFlagSet registers the convert flags on a new FlagSet.
func buildConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	addConvertFlags(fs, f)
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{changed: make(map[string]bool)}
	fs := buildConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	if f.common.quiet && f.common.verbose {
		return nil, nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	}

	return f, fs.Args(), nil
}

// parseOptions turns repeated "key[=value]" flags into an option map.
//
// A bare key enables a boolean flag; "true" and "false" become booleans. A
// key given several times with string values collects them into a list, so
// "-O allow=/a -O allow=/b" repeats the engine flag.
func parseOptions(raw []string) (map[string]any, error) {
	opts := make(map[string]any, len(raw))
	for _, item := range raw {
		key, value, hasValue := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: %q has no key", ErrInvalidOption, item)
		}

		var v any = true
		if hasValue {
			switch strings.ToLower(value) {
			case "true":
				v = true
			case "false":
				v = false
			default:
				v = value
			}
		}

		prev, seen := opts[key]
		s, isString := v.(string)
		switch p := prev.(type) {
		case string:
			if seen && isString {
				opts[key] = []string{p, s}
				continue
			}
		case []string:
			if isString {
				opts[key] = append(p, s)
				continue
			}
		}
		opts[key] = v
	}
	return opts, nil
}
