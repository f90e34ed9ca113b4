package html2pdf

import (
	"maps"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for generation timing.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultSettleDelay  = 3 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultKillGrace    = 2 * time.Second
)

// Request describes one generation. Build it with Generator.NewRequest or
// fill it by hand; a zero Timeout means the generator default.
type Request struct {
	Source  Source
	Options map[string]any

	// OutputPath is where the engine writes the PDF. Empty means stdout
	// for the pipe strategy and a temp file for the detached strategy.
	OutputPath string

	// EnsureTermination selects the detached strategy: the engine writes to a
	// file that is watched for the completion marker, and the engine is
	// stopped once the marker appears.
	EnsureTermination bool

	// Timeout bounds the wait for the completion marker in detached mode.
	Timeout time.Duration

	// SettleDelay is waited before the output file is watched. It counts
	// against Timeout. The watch starts at the end of the file, so a marker
	// written during the delay by an engine that then hangs is only accepted
	// once Timeout has elapsed.
	SettleDelay time.Duration

	// Stylesheets are CSS file paths injected into HTML sources.
	Stylesheets []string
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// EnsureTermination selects the detached strategy when on is true.
func EnsureTermination(on bool) RequestOption {
	return func(r *Request) { r.EnsureTermination = on }
}

// Timeout sets how long a detached generation may take.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func Timeout(d time.Duration) RequestOption {
	if d <= 0 {
		panic("html2pdf: Timeout duration must be positive")
	}
	return func(r *Request) { r.Timeout = d }
}

// SettleDelay sets the wait before the output file is watched.
// Keep it short of the engine's render time: output finished during the delay
// by an engine that never exits is only accepted when Timeout expires.
// Panics if d < 0.
func SettleDelay(d time.Duration) RequestOption {
	if d < 0 {
		panic("html2pdf: SettleDelay duration must not be negative")
	}
	return func(r *Request) { r.SettleDelay = d }
}

// WithOptions merges engine options into the request. Later calls win.
func WithOptions(opts map[string]any) RequestOption {
	return func(r *Request) {
		if r.Options == nil {
			r.Options = make(map[string]any, len(opts))
		}
		maps.Copy(r.Options, opts)
	}
}

// WithStylesheets appends CSS files to inject. Only HTML sources accept them.
func WithStylesheets(paths ...string) RequestOption {
	return func(r *Request) { r.Stylesheets = append(r.Stylesheets, paths...) }
}

// Option configures a Generator.
type Option func(*Generator)

// generatorConfig holds internal configuration for Generator.
type generatorConfig struct {
	executable        string
	defaults          map[string]any
	metaTagPrefix     string
	stylesheets       []string
	ensureTermination bool
	timeout           time.Duration
	settleDelay       time.Duration
	pollInterval      time.Duration
	killGrace         time.Duration
}

// WithExecutable sets the engine binary, a name looked up on PATH or a path.
func WithExecutable(path string) Option {
	return func(g *Generator) { g.cfg.executable = path }
}

// WithDefaultOptions replaces the default engine options.
// Meta tags and request options still override them.
func WithDefaultOptions(opts map[string]any) Option {
	return func(g *Generator) { g.cfg.defaults = maps.Clone(opts) }
}

// WithMetaTagPrefix sets the prefix of <meta> names scraped for options.
// An empty prefix disables scraping.
func WithMetaTagPrefix(prefix string) Option {
	return func(g *Generator) { g.cfg.metaTagPrefix = prefix }
}

// WithDefaultStylesheets sets CSS files injected into every inline HTML
// request before the request's own stylesheets. URL and file sources are
// rendered without them.
func WithDefaultStylesheets(paths ...string) Option {
	return func(g *Generator) { g.cfg.stylesheets = append([]string(nil), paths...) }
}

// WithEnsureTermination sets the strategy used by NewRequest.
func WithEnsureTermination(on bool) Option {
	return func(g *Generator) { g.cfg.ensureTermination = on }
}

// WithTimeout sets the default detached generation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2pdf: WithTimeout duration must be positive")
	}
	return func(g *Generator) { g.cfg.timeout = d }
}

// WithSettleDelay sets the default wait before the output file is watched.
// See SettleDelay for the latency cost of a delay longer than the render.
// Panics if d < 0.
func WithSettleDelay(d time.Duration) Option {
	if d < 0 {
		panic("html2pdf: WithSettleDelay duration must not be negative")
	}
	return func(g *Generator) { g.cfg.settleDelay = d }
}

// WithPollInterval sets how often the output file is checked when no
// filesystem event arrives. It also bounds how late a timeout is noticed.
// Panics if d <= 0.
func WithPollInterval(d time.Duration) Option {
	if d <= 0 {
		panic("html2pdf: WithPollInterval duration must be positive")
	}
	return func(g *Generator) { g.cfg.pollInterval = d }
}

// WithKillGrace sets how long an interrupted engine may take to exit before
// its process group is killed. Panics if d <= 0.
func WithKillGrace(d time.Duration) Option {
	if d <= 0 {
		panic("html2pdf: WithKillGrace duration must be positive")
	}
	return func(g *Generator) { g.cfg.killGrace = d }
}

// WithLogger sets the logger. Generations log at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithMetrics records generation metrics. A nil Metrics disables recording.
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}
