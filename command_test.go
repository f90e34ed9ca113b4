package html2pdf

// Notes:
// - ResolveExecutable PATH lookups use t.Setenv, so those tests do not run
//   in parallel.

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"mvdan.cc/sh/v3/shell"
)

// ---------------------------------------------------------------------------
// TestBuildCommand - Token order and placement
// ---------------------------------------------------------------------------

func TestBuildCommand(t *testing.T) {
	t.Parallel()

	opts := []string{"--page-size", "A4", "--grayscale"}

	tests := []struct {
		name       string
		src        Source
		outputPath string
		tempPath   string
		want       []string
	}{
		{
			name: "inline html to stdout",
			src:  FromHTML("<p>x</p>"),
			want: []string{"engine", "--page-size", "A4", "--grayscale", "--quiet", "-", "-"},
		},
		{
			name:       "inline html to file",
			src:        FromHTML("<p>x</p>"),
			outputPath: "/tmp/out.pdf",
			want:       []string{"engine", "--page-size", "A4", "--grayscale", "--quiet", "-", "/tmp/out.pdf"},
		},
		{
			name:       "temp path replaces stdin",
			src:        FromHTML("<p>x</p>"),
			outputPath: "/tmp/out.pdf",
			tempPath:   "/tmp/in.html",
			want:       []string{"engine", "--page-size", "A4", "--grayscale", "--quiet", "/tmp/in.html", "/tmp/out.pdf"},
		},
		{
			name: "url passed by value",
			src:  FromURL("https://example.com/a b"),
			want: []string{"engine", "--page-size", "A4", "--grayscale", "--quiet", "https://example.com/a b", "-"},
		},
		{
			name: "file passed by path",
			src:  FromFile("docs/page.html"),
			want: []string{"engine", "--page-size", "A4", "--grayscale", "--quiet", "docs/page.html", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inv, err := BuildCommand("engine", opts, tt.src, tt.outputPath, tt.tempPath)
			if err != nil {
				t.Fatalf("BuildCommand() unexpected error: %v", err)
			}
			if got := inv.Args(); !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
			if got, want := inv.InputToken(), tt.want[len(tt.want)-2]; got != want {
				t.Errorf("InputToken() = %q, want %q", got, want)
			}
			if got, want := inv.OutputToken(), tt.want[len(tt.want)-1]; got != want {
				t.Errorf("OutputToken() = %q, want %q", got, want)
			}
		})
	}
}

func TestBuildCommand_NoOptions(t *testing.T) {
	t.Parallel()

	inv, err := BuildCommand("wkhtmltopdf", nil, FromHTML("x"), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := inv.String(); got != "wkhtmltopdf --quiet - -" {
		t.Errorf("String() = %q", got)
	}
}

func TestInvocation_ArgsIsACopy(t *testing.T) {
	t.Parallel()

	inv, err := BuildCommand("engine", []string{"--dpi", "300"}, FromHTML("x"), "", "")
	if err != nil {
		t.Fatal(err)
	}

	args := inv.Args()
	args[1] = "--tampered"

	if inv.Args()[1] != "--dpi" {
		t.Error("mutating Args() result must not change the invocation")
	}
}

// ---------------------------------------------------------------------------
// TestInvocation_String - Shell escaping
// ---------------------------------------------------------------------------

func TestInvocation_StringSplitsBackIntoArgs(t *testing.T) {
	t.Parallel()

	opts := []string{
		"--title", "Q3 report: \"final\" & it's $HOME",
		"--custom-header", "X-Token", "a;b|c`d`",
		"--footer-center", "[page]/[topage]",
		"--header-left", "",
	}
	inv, err := BuildCommand("/opt/my engine/wkhtmltopdf", opts,
		FromURL("https://example.com/?q=1&r=*"), "/tmp/out dir/o.pdf", "")
	if err != nil {
		t.Fatalf("BuildCommand() unexpected error: %v", err)
	}

	fields, err := shell.Fields(inv.String(), func(string) string { return "EXPANDED" })
	if err != nil {
		t.Fatalf("shell.Fields(%q) error: %v", inv.String(), err)
	}
	if !slices.Equal(fields, inv.Args()) {
		t.Errorf("String() does not split back into Args()\n got: %q\nwant: %q", fields, inv.Args())
	}
}

func TestBuildCommand_InvalidToken(t *testing.T) {
	t.Parallel()

	_, err := BuildCommand("engine", []string{"--title", "nul\x00byte"}, FromHTML("x"), "", "")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

// ---------------------------------------------------------------------------
// TestResolveExecutable - Name, path and fallback lookup
// ---------------------------------------------------------------------------

func TestResolveExecutable_ExistingPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "engine")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o700); err != nil { // #nosec G306 -- test binary
		t.Fatal(err)
	}

	got, err := ResolveExecutable(path)
	if err != nil {
		t.Fatalf("ResolveExecutable() unexpected error: %v", err)
	}
	if got != path {
		t.Errorf("ResolveExecutable() = %q, want %q", got, path)
	}
}

func TestResolveExecutable_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{name: "empty", path: ""},
		{name: "missing relative path", path: "./no/such/engine"},
		{name: "missing absolute path, base name not on PATH", path: filepath.Join(t.TempDir(), "html2pdf-no-such-engine")},
		{name: "name not on PATH", path: "html2pdf-no-such-engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ResolveExecutable(tt.path); !errors.Is(err, ErrExecutableNotFound) {
				t.Errorf("ResolveExecutable(%q) error = %v, want ErrExecutableNotFound", tt.path, err)
			}
		})
	}
}

func TestResolveExecutable_PathLookup(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit lookup is POSIX")
	}

	bin := t.TempDir()
	engine := filepath.Join(bin, "fake-wkhtmltopdf")
	if err := os.WriteFile(engine, []byte("#!/bin/sh\n"), 0o700); err != nil { // #nosec G306 -- test binary
		t.Fatal(err)
	}
	t.Setenv("PATH", bin)

	t.Run("bare name", func(t *testing.T) {
		got, err := ResolveExecutable("fake-wkhtmltopdf")
		if err != nil {
			t.Fatalf("ResolveExecutable() unexpected error: %v", err)
		}
		if got != engine {
			t.Errorf("ResolveExecutable() = %q, want %q", got, engine)
		}
	})

	t.Run("missing absolute path falls back to base name", func(t *testing.T) {
		got, err := ResolveExecutable("/usr/local/nowhere/fake-wkhtmltopdf")
		if err != nil {
			t.Fatalf("ResolveExecutable() unexpected error: %v", err)
		}
		if got != engine {
			t.Errorf("ResolveExecutable() = %q, want %q", got, engine)
		}
	})
}
