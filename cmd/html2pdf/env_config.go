package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const envPrefix = "HTML2PDF_"

// envConfig holds configuration from environment variables.
// Values override the config file; command-line flags override both.
type envConfig struct {
	ConfigPath        string // HTML2PDF_CONFIG: config file name or path
	Engine            string // HTML2PDF_ENGINE: engine executable
	Timeout           string // HTML2PDF_TIMEOUT: detached generation timeout
	SettleDelay       string // HTML2PDF_SETTLE_DELAY: wait before watching output
	EnsureTermination *bool  // HTML2PDF_ENSURE_TERMINATION: 1/true/0/false
	MetaPrefix        string // HTML2PDF_META_PREFIX: <meta> option prefix
	MetricsFile       string // HTML2PDF_METRICS_FILE: Prometheus textfile output
}

// knownEnvVars lists valid HTML2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"HTML2PDF_CONFIG":             true,
	"HTML2PDF_ENGINE":             true,
	"HTML2PDF_TIMEOUT":            true,
	"HTML2PDF_SETTLE_DELAY":       true,
	"HTML2PDF_ENSURE_TERMINATION": true,
	"HTML2PDF_META_PREFIX":        true,
	"HTML2PDF_METRICS_FILE":       true,
	"HTML2PDF_CONTAINER":          true,
}

// loadEnvConfig reads HTML2PDF_* variables through getenv.
// Durations are validated with the config rules when settings are resolved;
// an unparsable HTML2PDF_ENSURE_TERMINATION is ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("HTML2PDF_CONFIG"),
		Engine:      getenv("HTML2PDF_ENGINE"),
		Timeout:     getenv("HTML2PDF_TIMEOUT"),
		SettleDelay: getenv("HTML2PDF_SETTLE_DELAY"),
		MetaPrefix:  getenv("HTML2PDF_META_PREFIX"),
		MetricsFile: getenv("HTML2PDF_METRICS_FILE"),
	}

	if raw := getenv("HTML2PDF_ENSURE_TERMINATION"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.EnsureTermination = &b
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized HTML2PDF_* variables.
// Helps catch typos like HTML2PDF_TIMEOUTS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s\n", name)
		}
	}
}
