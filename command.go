package html2pdf

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// DefaultExecutable is the engine looked up on PATH when none is configured.
const DefaultExecutable = "wkhtmltopdf"

// stdioMarker tells the engine to read from stdin or write to stdout.
const stdioMarker = "-"

// Invocation is a built engine command line. It is immutable.
type Invocation struct {
	args   []string
	quoted []string
}

// Args returns a copy of the tokens: executable, flags, input, output.
// Processes are spawned from Args directly, without a shell.
func (inv Invocation) Args() []string { return slices.Clone(inv.args) }

// String returns the command as one shell-escaped line. Every token is quoted
// on its own, so the line splits back into Args under POSIX shell rules.
func (inv Invocation) String() string { return strings.Join(inv.quoted, " ") }

// InputToken returns the token the engine reads its source from.
func (inv Invocation) InputToken() string {
	if len(inv.args) < 2 {
		return ""
	}
	return inv.args[len(inv.args)-2]
}

// OutputToken returns the token the engine writes its PDF to.
func (inv Invocation) OutputToken() string {
	if len(inv.args) == 0 {
		return ""
	}
	return inv.args[len(inv.args)-1]
}

// BuildCommand assembles an engine invocation.
//
// Token order is executable, options, "--quiet", input, output. The input is
// tempPath when set, "-" (stdin) for inline HTML, and the URL or file path
// otherwise. The output is outputPath, or "-" (stdout) when empty.
// Tokens that cannot be shell-quoted fail with ErrInvalidToken.
func BuildCommand(executable string, options []string, src Source, outputPath, tempPath string) (Invocation, error) {
	args := make([]string, 0, len(options)+4)
	args = append(args, executable)
	args = append(args, options...)
	args = append(args, "--quiet")

	switch {
	case tempPath != "":
		args = append(args, tempPath)
	case src.IsHTML():
		args = append(args, stdioMarker)
	default:
		args = append(args, src.String())
	}

	if outputPath != "" {
		args = append(args, outputPath)
	} else {
		args = append(args, stdioMarker)
	}

	quoted := make([]string, len(args))
	for i, tok := range args {
		q, err := syntax.Quote(tok, syntax.LangBash)
		if err != nil {
			return Invocation{}, fmt.Errorf("%w: token %d: %v", ErrInvalidToken, i, err)
		}
		quoted[i] = q
	}

	return Invocation{args: args, quoted: quoted}, nil
}

// ResolveExecutable returns the engine path to run.
//
// A bare name is looked up on PATH. A path must exist; when an absolute path
// is missing, its base name is looked up on PATH instead, so a configured
// default location still works on hosts that install the engine elsewhere.
func ResolveExecutable(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrExecutableNotFound)
	}

	if !fileutil.IsFilePath(path) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s not on PATH", ErrExecutableNotFound, path)
		}
		return found, nil
	}

	if fileutil.FileExists(path) {
		return path, nil
	}

	if filepath.IsAbs(path) {
		if found, err := exec.LookPath(filepath.Base(path)); err == nil {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, path)
}
