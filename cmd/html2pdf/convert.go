package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/assets"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/pipeline"
)

// Sentinel errors for the convert command.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read input")
	ErrWritePDF    = errors.New("failed to write PDF file")
	ErrWriteMetric = errors.New("failed to write metrics file")
)

// stdioArg names stdin as input and stdout as output.
const stdioArg = "-"

// generationError records the strategy of a failed generation for hints.
type generationError struct {
	err               error
	ensureTermination bool
}

func (e *generationError) Error() string { return e.err.Error() }
func (e *generationError) Unwrap() error { return e.err }

// settings is the resolved configuration of one convert run, layered as
// defaults < config file < environment < flags.
type settings struct {
	enginePath        string
	ensureTermination bool
	timeout           time.Duration
	settleDelay       time.Duration
	settleDelaySet    bool
	pollInterval      time.Duration
	killGrace         time.Duration
	metaPrefix        string
	defaultStyles     []string
	options           map[string]any
	stylesheets       []string
	metricsFile       string
}

// runConvertCmd parses flags and runs the conversion.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return runConvert(ctx, positional, flags, env)
}

// runConvert renders one input to PDF.
func runConvert(ctx context.Context, positional []string, flags *convertFlags, env *Environment) error {
	if len(positional) == 0 {
		return ErrNoInput
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(positional))
	}
	input := positional[0]

	envCfg := loadEnvConfig(env.Getenv)
	s, err := resolveSettings(flags, envCfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common)

	var reg *prometheus.Registry
	opts := generatorOptions(s, logger)
	if s.metricsFile != "" {
		reg = prometheus.NewRegistry()
		m, err := html2pdf.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteMetric, err)
		}
		opts = append(opts, html2pdf.WithMetrics(m))
	}

	gen, err := html2pdf.NewGenerator(opts...)
	if err != nil {
		return err
	}

	src, err := readSource(ctx, input, flags, env.Stdin)
	if err != nil {
		return err
	}

	reqOpts := []html2pdf.RequestOption{
		html2pdf.WithOptions(s.options),
		html2pdf.WithStylesheets(s.stylesheets...),
	}

	start := time.Now()
	output := resolveOutputPath(input, flags.output)
	size, convErr := convert(ctx, gen, src, output, env.Stdout, reqOpts)

	if reg != nil {
		if err := prometheus.WriteToTextfile(s.metricsFile, reg); err != nil {
			logger.Warn().Err(err).Str("path", s.metricsFile).Msg("writing metrics")
		}
	}

	if convErr != nil {
		return &generationError{err: convErr, ensureTermination: s.ensureTermination}
	}

	logger.Info().
		Str("output", displayOutput(output)).
		Int("bytes", size).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("PDF written")
	return nil
}

// convert runs the generation and writes the result.
func convert(ctx context.Context, gen *html2pdf.Generator, src html2pdf.Source, output string, stdout io.Writer, opts []html2pdf.RequestOption) (int, error) {
	if output == stdioArg {
		pdf, err := gen.ToBytes(ctx, src, opts...)
		if err != nil {
			return 0, err
		}
		if _, err := stdout.Write(pdf); err != nil {
			return 0, fmt.Errorf("%w: stdout: %v", ErrWritePDF, err)
		}
		return len(pdf), nil
	}

	if dir := filepath.Dir(output); !dirExists(dir) {
		return 0, fmt.Errorf("%w: directory %s does not exist", ErrWritePDF, dir)
	}

	f, err := gen.ToFile(ctx, output, src, opts...)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWritePDF, err)
	}
	return int(info.Size()), nil
}

// resolveSettings layers the config file, the environment and the flags.
func resolveSettings(flags *convertFlags, envCfg *envConfig) (*settings, error) {
	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	s := &settings{
		enginePath:        cfg.Engine.Path,
		ensureTermination: cfg.Engine.EnsureTermination,
		metaPrefix:        cfg.MetaTagPrefix,
		defaultStyles:     cfg.Stylesheets,
		metricsFile:       envCfg.MetricsFile,
	}

	durations, err := cfg.Engine.Durations()
	if err != nil {
		return nil, err
	}
	s.timeout = durations.Timeout
	s.settleDelay, s.settleDelaySet = durations.SettleDelay, cfg.Engine.SettleDelay != ""
	s.pollInterval = durations.PollInterval
	s.killGrace = durations.KillGrace

	// Environment.
	if envCfg.Engine != "" {
		s.enginePath = envCfg.Engine
	}
	if envCfg.EnsureTermination != nil {
		s.ensureTermination = *envCfg.EnsureTermination
	}
	if envCfg.MetaPrefix != "" {
		s.metaPrefix = envCfg.MetaPrefix
	}
	if err := overrideDuration(&s.timeout, nil, "HTML2PDF_TIMEOUT", envCfg.Timeout); err != nil {
		return nil, err
	}
	if err := overrideDuration(&s.settleDelay, &s.settleDelaySet, "HTML2PDF_SETTLE_DELAY", envCfg.SettleDelay); err != nil {
		return nil, err
	}

	// Flags.
	if flags.isSet("engine") {
		s.enginePath = flags.engine.path
	}
	if flags.isSet("ensure-termination") {
		s.ensureTermination = flags.engine.ensureTermination
	}
	if flags.isSet("meta-prefix") {
		s.metaPrefix = flags.engine.metaPrefix
	}
	if flags.isSet("metrics-file") {
		s.metricsFile = flags.metricsFile
	}
	if flags.isSet("timeout") {
		if err := overrideDuration(&s.timeout, nil, "--timeout", flags.engine.timeout); err != nil {
			return nil, err
		}
	}
	if flags.isSet("settle-delay") {
		if err := overrideDuration(&s.settleDelay, &s.settleDelaySet, "--settle-delay", flags.engine.settleDelay); err != nil {
			return nil, err
		}
	}

	fromFlags, err := parseOptions(flags.options)
	if err != nil {
		return nil, err
	}
	// Keys are compared in flag form so "page_size" on the command line
	// replaces "page-size" from the config file.
	s.options = make(map[string]any, len(cfg.Options)+len(fromFlags))
	for _, layer := range []map[string]any{cfg.Options, fromFlags} {
		for k, v := range layer {
			s.options[html2pdf.NormalizeFlag(k)] = v
		}
	}
	s.stylesheets = flags.stylesheets

	return s, nil
}

// loadConfig loads the config named by the flag, else by HTML2PDF_CONFIG,
// else the default name when such a file exists.
func loadConfig(flagName, envName string) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name != "" {
		cfg, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfig(config.DefaultName())
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, config.ErrConfigNotFound):
		return config.DefaultConfig(), nil
	default:
		return nil, fmt.Errorf("loading config: %w", err)
	}
}

// overrideDuration parses raw into dst when raw is non-empty.
func overrideDuration(dst *time.Duration, set *bool, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := config.ParseDuration(field, raw)
	if err != nil {
		return err
	}
	*dst = d
	if set != nil {
		*set = true
	}
	return nil
}

// generatorOptions converts settings into Generator options.
// Zero durations keep the library defaults.
func generatorOptions(s *settings, logger zerolog.Logger) []html2pdf.Option {
	opts := []html2pdf.Option{
		html2pdf.WithLogger(logger),
		html2pdf.WithEnsureTermination(s.ensureTermination),
	}
	if s.enginePath != "" {
		opts = append(opts, html2pdf.WithExecutable(s.enginePath))
	}
	if s.timeout > 0 {
		opts = append(opts, html2pdf.WithTimeout(s.timeout))
	}
	if s.settleDelaySet {
		opts = append(opts, html2pdf.WithSettleDelay(s.settleDelay))
	}
	if s.pollInterval > 0 {
		opts = append(opts, html2pdf.WithPollInterval(s.pollInterval))
	}
	if s.killGrace > 0 {
		opts = append(opts, html2pdf.WithKillGrace(s.killGrace))
	}
	if s.metaPrefix != "" {
		opts = append(opts, html2pdf.WithMetaTagPrefix(s.metaPrefix))
	}
	if len(s.defaultStyles) > 0 {
		opts = append(opts, html2pdf.WithDefaultStylesheets(s.defaultStyles...))
	}
	return opts
}

// readSource maps the input argument to a Source: "-" reads stdin, http(s)
// URLs are fetched by the engine, .md and .markdown files (or --markdown)
// are rendered to HTML, anything else is an HTML file.
func readSource(ctx context.Context, input string, flags *convertFlags, stdin io.Reader) (html2pdf.Source, error) {
	if fileutil.IsURL(input) {
		return html2pdf.FromURL(input), nil
	}

	markdown := flags.markdown || isMarkdownPath(input)

	if input == stdioArg || markdown {
		data, err := readInput(input, stdin)
		if err != nil {
			return html2pdf.Source{}, err
		}
		if !markdown {
			return html2pdf.FromHTML(string(data)), nil
		}
		return renderMarkdown(ctx, string(data), flags.title, flags.style)
	}

	if !fileutil.FileExists(input) {
		return html2pdf.Source{}, fmt.Errorf("%w: %s: %w", ErrReadInput, input, os.ErrNotExist)
	}
	return html2pdf.FromFile(input), nil
}

func readInput(input string, stdin io.Reader) ([]byte, error) {
	if input == stdioArg {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(input) // #nosec G304 -- user-provided input path
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return data, nil
}

// renderMarkdown uses the title flag, else the input's first heading, and
// embeds the print style ahead of any --stylesheet.
func renderMarkdown(ctx context.Context, md, title, style string) (html2pdf.Source, error) {
	if strings.TrimSpace(md) == "" {
		return html2pdf.Source{}, html2pdf.ErrEmptySource
	}
	if style == "" {
		style = assets.DefaultStyleName
	}
	css, err := assets.ResolveStyle(style)
	if err != nil {
		return html2pdf.Source{}, err
	}
	if title == "" {
		title = firstHeading(md)
	}
	doc, err := pipeline.NewGoldmarkRenderer().RenderHTML(ctx, md, title)
	if err != nil {
		return html2pdf.Source{}, err
	}
	doc = (&pipeline.StyleInjection{}).InjectStyles(ctx, doc, []string{css})
	return html2pdf.FromHTML(doc), nil
}

// firstHeading returns the text of the first ATX level-1 heading.
func firstHeading(md string) string {
	for line := range strings.Lines(md) {
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// resolveOutputPath returns the -o value, or the input file with a .pdf
// extension, or "-" for URL and stdin input.
func resolveOutputPath(input, output string) string {
	if output != "" {
		return output
	}
	if input == stdioArg || fileutil.IsURL(input) {
		return stdioArg
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
}

func displayOutput(output string) string {
	if output == stdioArg {
		return "stdout"
	}
	return output
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// newLogger writes human-readable logs to w: errors only with --quiet,
// debug events (engine invocations, watcher progress) with --verbose.
func newLogger(w io.Writer, f commonFlags) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case f.quiet:
		level = zerolog.ErrorLevel
	case f.verbose:
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
