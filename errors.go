package html2pdf

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for library operations.
var (
	// ErrExecutableNotFound is a configuration error: the engine binary could
	// not be resolved when the Generator was created.
	ErrExecutableNotFound = errors.New("rendering engine executable not found")

	ErrImproperSource       = errors.New("improper source")
	ErrEmptySource          = errors.New("source cannot be empty")
	ErrGenerationTimeout    = errors.New("generation timed out")
	ErrGenerationIncomplete = errors.New("generation was not completed properly")
	ErrCommandFailed        = errors.New("command failed")
	ErrInvalidToken         = errors.New("invalid command token")
	ErrStylesheetRead       = errors.New("failed to read stylesheet")
	ErrOutputRead           = errors.New("failed to read output")
	ErrOutputWatch          = errors.New("failed to watch output")
)

// stderrTail bounds how much engine stderr an error message carries.
const stderrTail = 2048

// CommandFailedError reports an engine that exited unsuccessfully or produced
// no output. Invocation is the shell-escaped command line, so the error can be
// reproduced by pasting it into a shell. It may contain option values.
type CommandFailedError struct {
	Invocation string
	ExitCode   int // -1 when the process did not exit normally
	Stderr     string
}

func (e *CommandFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command failed: %s", e.Invocation)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	} else {
		b.WriteString(" (empty output)")
	}
	if s := tail(strings.TrimSpace(e.Stderr), stderrTail); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

// Unwrap returns ErrCommandFailed.
func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// IncompleteError reports output that lacks the trailing completion marker.
type IncompleteError struct {
	Target string // output path, or "stdout"
	Size   int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("generation failed: %s, generation was not completed properly (%d bytes, no trailing EOF marker)",
		e.Target, e.Size)
}

// Unwrap returns ErrGenerationIncomplete.
func (e *IncompleteError) Unwrap() error { return ErrGenerationIncomplete }

// TimeoutError reports a detached generation whose output never showed the
// completion marker before the deadline.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
	Elapsed time.Duration
	Err     error // underlying watch error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out: %s after %s (timeout %s)",
		e.Path, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

// Unwrap returns ErrGenerationTimeout and the underlying watch error.
func (e *TimeoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGenerationTimeout}
	}
	return []error{ErrGenerationTimeout, e.Err}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
