package main

import (
	"bytes"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - HTML2PDF_* variables
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"HTML2PDF_CONFIG":             "ci",
		"HTML2PDF_ENGINE":             "/opt/wk/bin/wkhtmltopdf",
		"HTML2PDF_TIMEOUT":            "45s",
		"HTML2PDF_SETTLE_DELAY":       "500ms",
		"HTML2PDF_ENSURE_TERMINATION": "1",
		"HTML2PDF_META_PREFIX":        "pdf-",
		"HTML2PDF_METRICS_FILE":       "/var/lib/node_exporter/html2pdf.prom",
	}
	cfg := loadEnvConfig(func(k string) string { return vars[k] })

	if cfg.ConfigPath != "ci" || cfg.Engine != "/opt/wk/bin/wkhtmltopdf" {
		t.Errorf("paths = %q, %q", cfg.ConfigPath, cfg.Engine)
	}
	if cfg.Timeout != "45s" || cfg.SettleDelay != "500ms" {
		t.Errorf("durations = %q, %q", cfg.Timeout, cfg.SettleDelay)
	}
	if cfg.EnsureTermination == nil || !*cfg.EnsureTermination {
		t.Errorf("EnsureTermination = %v, want true", cfg.EnsureTermination)
	}
	if cfg.MetaPrefix != "pdf-" || cfg.MetricsFile == "" {
		t.Errorf("MetaPrefix = %q, MetricsFile = %q", cfg.MetaPrefix, cfg.MetricsFile)
	}
}

func TestLoadEnvConfig_EnsureTermination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want *bool
	}{
		{raw: "", want: nil},
		{raw: "true", want: ptr(true)},
		{raw: "0", want: ptr(false)},
		{raw: "FALSE", want: ptr(false)},
		{raw: "maybe", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			cfg := loadEnvConfig(func(k string) string {
				if k == "HTML2PDF_ENSURE_TERMINATION" {
					return tt.raw
				}
				return ""
			})
			switch {
			case tt.want == nil && cfg.EnsureTermination != nil:
				t.Errorf("EnsureTermination = %v, want unset", *cfg.EnsureTermination)
			case tt.want != nil && (cfg.EnsureTermination == nil || *cfg.EnsureTermination != *tt.want):
				t.Errorf("EnsureTermination = %v, want %v", cfg.EnsureTermination, *tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"HTML2PDF_ENGINE=/usr/bin/wkhtmltopdf",
		"HTML2PDF_TIMEOUTS=10s",
		"PATH=/usr/bin",
		"HTML2PDF_=x",
	})

	out := buf.String()
	if !strings.Contains(out, "HTML2PDF_TIMEOUTS") {
		t.Errorf("should warn about HTML2PDF_TIMEOUTS, got %q", out)
	}
	if strings.Contains(out, "HTML2PDF_ENGINE") || strings.Contains(out, "PATH") {
		t.Errorf("should not warn about known or foreign variables, got %q", out)
	}
	if got := strings.Count(out, "warning:"); got != 2 {
		t.Errorf("warnings = %d, want 2:\n%s", got, out)
	}
}

func ptr[T any](v T) *T { return &v }
