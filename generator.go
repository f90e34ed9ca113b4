package html2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/pipeline"
)

var _ pipeline.StyleInjector = (*pipeline.StyleInjection)(nil)

// Generator renders sources to PDF by driving the engine.
// It holds no per-call state and is safe for concurrent use.
type Generator struct {
	cfg        generatorConfig
	executable string
	log        zerolog.Logger
	metrics    *Metrics
	injector   pipeline.StyleInjector
	pipe       strategy
	detached   strategy
}

// NewGenerator creates a Generator and resolves the engine executable.
// A missing executable is reported here, as ErrExecutableNotFound, before
// any request is issued.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		cfg: generatorConfig{
			executable:    DefaultExecutable,
			defaults:      DefaultOptions(),
			metaTagPrefix: pipeline.DefaultMetaTagPrefix,
			timeout:       DefaultTimeout,
			settleDelay:   DefaultSettleDelay,
			pollInterval:  DefaultPollInterval,
			killGrace:     DefaultKillGrace,
		},
		log:      zerolog.Nop(),
		injector: &pipeline.StyleInjection{},
		pipe:     pipeStrategy{},
		detached: detachedStrategy{},
	}

	for _, opt := range opts {
		opt(g)
	}

	exe, err := ResolveExecutable(g.cfg.executable)
	if err != nil {
		return nil, err
	}
	g.executable = exe

	return g, nil
}

// Executable returns the resolved engine path.
func (g *Generator) Executable() string { return g.executable }

// NewRequest builds a Request for src from the generator defaults and opts.
func (g *Generator) NewRequest(src Source, opts ...RequestOption) Request {
	req := Request{
		Source:            src,
		EnsureTermination: g.cfg.ensureTermination,
		Timeout:           g.cfg.timeout,
		SettleDelay:       g.cfg.settleDelay,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// ToBytes renders src and returns the PDF.
func (g *Generator) ToBytes(ctx context.Context, src Source, opts ...RequestOption) ([]byte, error) {
	return g.Generate(ctx, g.NewRequest(src, opts...))
}

// ToFile renders src into path and returns the file opened for reading.
// The caller closes it.
func (g *Generator) ToFile(ctx context.Context, path string, src Source, opts ...RequestOption) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty output path", ErrImproperSource)
	}
	req := g.NewRequest(src, opts...)
	req.OutputPath = path

	if _, err := g.Generate(ctx, req); err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- the caller chose the output path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputRead, err)
	}
	return f, nil
}

// Generate renders one request.
//
// The engine's output is accepted only when it ends with the completion
// marker (IncompleteError otherwise). It must also be non-blank and come from
// a successful exit, unless the engine was stopped on purpose after the marker
// appeared (CommandFailedError otherwise). The marker is checked first.
// Temp files created for the call are removed before Generate returns.
func (g *Generator) Generate(ctx context.Context, req Request) (out []byte, err error) {
	start := time.Now()
	strat := g.pipe
	if req.EnsureTermination {
		strat = g.detached
	}

	log := g.log.With().
		Str("generation", uuid.NewString()).
		Str("strategy", strat.name()).
		Str("source", req.Source.Kind().String()).
		Logger()

	defer func() {
		g.metrics.observe(strat.name(), err, time.Since(start))
		ev := log.Debug()
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Dur("elapsed", time.Since(start)).Str("outcome", outcomeOf(err)).Msg("generation finished")
	}()

	if req.Timeout <= 0 {
		req.Timeout = g.cfg.timeout
	}
	if req.SettleDelay < 0 {
		req.SettleDelay = 0
	}

	if err := req.Source.validate(); err != nil {
		return nil, err
	}

	src, err := g.applyStylesheets(ctx, req.Source, req.Stylesheets)
	if err != nil {
		return nil, err
	}

	options, err := g.resolveOptions(src, req.Options)
	if err != nil {
		return nil, err
	}

	var tempPath string
	if req.EnsureTermination && src.IsHTML() {
		path, cleanup, err := fileutil.WriteTempFile(strings.ToValidUTF8(src.String(), ""), "html")
		if err != nil {
			return nil, fmt.Errorf("writing temp source: %w", err)
		}
		defer cleanup()
		tempPath = path
	}

	outputPath, target := req.OutputPath, req.OutputPath
	switch {
	case outputPath != "":
		if err := fileutil.Truncate(outputPath); err != nil {
			return nil, err
		}
	case req.EnsureTermination:
		path, cleanup, err := fileutil.ReserveTempFile("pdf")
		if err != nil {
			return nil, fmt.Errorf("reserving temp output: %w", err)
		}
		defer cleanup()
		outputPath, target = path, path
	default:
		target = "stdout"
	}

	inv, err := BuildCommand(g.executable, options, src, outputPath, tempPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("invocation", inv.String()).Msg("running engine")

	j := job{
		inv:          inv,
		outputPath:   outputPath,
		timeout:      req.Timeout,
		settleDelay:  req.SettleDelay,
		pollInterval: g.cfg.pollInterval,
		killGrace:    g.cfg.killGrace,
		log:          log,
	}
	if src.IsHTML() && tempPath == "" {
		j.stdin = src.String()
	}

	res, err := strat.run(ctx, j)
	if err != nil {
		return nil, err
	}
	if res.watchWait > 0 {
		g.metrics.observeWatch(res.watchWait)
	}
	log.Debug().
		Int("bytes", len(res.output)).
		Bool("terminated", res.terminated).
		Dur("engine_elapsed", res.elapsed).
		Msg("engine done")

	if err := checkResult(res, inv, target); err != nil {
		return nil, err
	}
	return res.output, nil
}

// checkResult applies the completion marker check, then the exit check.
func checkResult(res *execResult, inv Invocation, target string) error {
	blank := len(bytes.TrimSpace(res.output)) == 0

	if !blank && !IsComplete(res.output) {
		return &IncompleteError{Target: target, Size: len(res.output)}
	}

	exitFailed := res.exitErr != nil && !res.terminated
	if blank || exitFailed {
		return &CommandFailedError{
			Invocation: inv.String(),
			ExitCode:   exitCode(res.exitErr),
			Stderr:     res.stderr,
		}
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// applyStylesheets injects the generator's and the request's stylesheets.
// Only inline HTML accepts them: request stylesheets on a URL or file source
// are an error, generator defaults are skipped for those sources.
func (g *Generator) applyStylesheets(ctx context.Context, src Source, extra []string) (Source, error) {
	if !src.IsHTML() {
		if len(extra) > 0 {
			return src, fmt.Errorf("%w: stylesheets may only be added to an HTML source", ErrImproperSource)
		}
		return src, nil
	}
	paths := append(append([]string(nil), g.cfg.stylesheets...), extra...)
	if len(paths) == 0 {
		return src, nil
	}

	sheets := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p) // #nosec G304 -- stylesheet paths come from the caller
		if err != nil {
			return src, fmt.Errorf("%w: %v", ErrStylesheetRead, err)
		}
		sheets = append(sheets, string(data))
	}

	return FromHTML(g.injector.InjectStyles(ctx, src.String(), sheets)), nil
}

// resolveOptions layers defaults, meta tags and request options, then
// normalizes them to flag tokens. URL sources are not scanned for meta tags.
func (g *Generator) resolveOptions(src Source, requested map[string]any) ([]string, error) {
	var meta map[string]any
	if !src.IsURL() && g.cfg.metaTagPrefix != "" {
		content, err := src.Content()
		if err != nil {
			return nil, err
		}
		meta = metaOptions(pipeline.FindMetaOptions(content, g.cfg.metaTagPrefix))
	}
	return NormalizeOptions(mergeOptions(g.cfg.defaults, meta, requested)), nil
}
