package hints

// Notes:
// - ForExecutableNotFound tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable
// These are acceptable gaps: we test observable behavior through environment manipulation.

import (
	"path/filepath"
	"strings"
	"testing"
)

func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

// ---------------------------------------------------------------------------
// TestForExecutableNotFound - Engine installation hints
// ---------------------------------------------------------------------------

func TestForExecutableNotFound_Host(t *testing.T) {
	stubContainer(t, false)
	t.Setenv("HTML2PDF_ENGINE", "")

	hint := ForExecutableNotFound()

	if !strings.HasPrefix(hint, "\n  hint: ") {
		t.Errorf("hint %q should start with the hint prefix", hint)
	}
	if !strings.Contains(hint, "on PATH") {
		t.Error("expected PATH suggestion on a host")
	}
	if !strings.Contains(hint, "HTML2PDF_ENGINE") {
		t.Error("expected HTML2PDF_ENGINE suggestion when unset")
	}
}

func TestForExecutableNotFound_Container(t *testing.T) {
	stubContainer(t, true)
	t.Setenv("HTML2PDF_ENGINE", "")

	if hint := ForExecutableNotFound(); !strings.Contains(hint, "apt-get") {
		t.Errorf("expected package install suggestion in a container, got %q", hint)
	}
}

func TestForExecutableNotFound_EngineAlreadySet(t *testing.T) {
	stubContainer(t, false)
	t.Setenv("HTML2PDF_ENGINE", "/opt/wkhtmltopdf")

	if hint := ForExecutableNotFound(); strings.Contains(hint, "HTML2PDF_ENGINE") {
		t.Errorf("should not suggest HTML2PDF_ENGINE when already set, got %q", hint)
	}
}

// ---------------------------------------------------------------------------
// TestGenerationHints - Timeout, incomplete and failed generations
// ---------------------------------------------------------------------------

func TestGenerationHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hint string
		want string
	}{
		{name: "timeout detached", hint: ForTimeout(true), want: "--settle-delay"},
		{name: "timeout pipe", hint: ForTimeout(false), want: "--timeout"},
		{name: "incomplete detached", hint: ForIncomplete(true), want: "--timeout"},
		{name: "incomplete pipe", hint: ForIncomplete(false), want: "--verbose"},
		{name: "command failed", hint: ForCommandFailed(), want: "--verbose"},
		{name: "stylesheet source", hint: ForStylesheetSource(), want: "HTML"},
		{name: "output directory", hint: ForOutputDirectory(), want: "writable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.hint, "\n  hint: ") {
				t.Errorf("hint %q should start with the hint prefix", tt.hint)
			}
			if !strings.Contains(tt.hint, tt.want) {
				t.Errorf("hint %q should mention %q", tt.hint, tt.want)
			}
		})
	}

	if strings.Contains(ForTimeout(false), "settle") {
		t.Error("pipe timeout hint should not mention the settle delay")
	}
}

// ---------------------------------------------------------------------------
// TestForConfigNotFound - Config location hints
// ---------------------------------------------------------------------------

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	userPath := filepath.Join("home", "me", ".config", "go-html2pdf", "html2pdf.yaml")

	tests := []struct {
		name     string
		searched []string
		want     []string
		notWant  string
	}{
		{
			name:     "suggests user config path",
			searched: []string{"html2pdf.yaml", userPath},
			want:     []string{"--config", "or create " + userPath},
		},
		{
			name:     "local paths only",
			searched: []string{"html2pdf.yaml", "html2pdf.toml"},
			want:     []string{"--config"},
			notWant:  "or create",
		},
		{
			name:     "nothing searched",
			searched: nil,
			want:     []string{"--config"},
			notWant:  "or create",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForConfigNotFound(tt.searched)
			for _, w := range tt.want {
				if !strings.Contains(hint, w) {
					t.Errorf("hint %q should contain %q", hint, w)
				}
			}
			if tt.notWant != "" && strings.Contains(hint, tt.notWant) {
				t.Errorf("hint %q should not contain %q", hint, tt.notWant)
			}
		})
	}
}

func TestFormatHints(t *testing.T) {
	t.Parallel()

	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
	if got := formatHints([]string{"a", "b"}); got != "\n  hint: a; b" {
		t.Errorf("formatHints() = %q", got)
	}
	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
}
