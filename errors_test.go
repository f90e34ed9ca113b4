package html2pdf

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-html2pdf/internal/watch"
)

// ---------------------------------------------------------------------------
// TestCommandFailedError - Message and unwrapping
// ---------------------------------------------------------------------------

func TestCommandFailedError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *CommandFailedError
		contains []string
		excludes []string
	}{
		{
			name:     "exit code and stderr",
			err:      &CommandFailedError{Invocation: "wkhtmltopdf --quiet - -", ExitCode: 1, Stderr: "  Exit with code 1 due to network error\n"},
			contains: []string{"wkhtmltopdf --quiet - -", "(exit 1)", ": Exit with code 1 due to network error"},
		},
		{
			name:     "empty output",
			err:      &CommandFailedError{Invocation: "wkhtmltopdf --quiet - -"},
			contains: []string{"(empty output)"},
			excludes: []string{"exit", ": "},
		},
		{
			name:     "abnormal exit",
			err:      &CommandFailedError{Invocation: "e", ExitCode: -1},
			contains: []string{"(exit -1)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(strings.TrimPrefix(msg, "command failed: "), bad) {
					t.Errorf("Error() = %q, should not contain %q", msg, bad)
				}
			}
			if !errors.Is(tt.err, ErrCommandFailed) {
				t.Error("should match ErrCommandFailed")
			}
		})
	}
}

func TestCommandFailedError_StderrTail(t *testing.T) {
	t.Parallel()

	stderr := strings.Repeat("x", 5000) + "LAST LINE"
	msg := (&CommandFailedError{Invocation: "e", ExitCode: 2, Stderr: stderr}).Error()

	if !strings.HasSuffix(msg, "LAST LINE") {
		t.Errorf("message should keep the end of stderr: ...%q", msg[len(msg)-40:])
	}
	if !strings.Contains(msg, ": ...") {
		t.Error("truncated stderr should be marked with an ellipsis")
	}
	if len(msg) > stderrTail+100 {
		t.Errorf("message length = %d, want stderr bounded to %d bytes", len(msg), stderrTail)
	}
}

// ---------------------------------------------------------------------------
// TestIncompleteError / TestTimeoutError
// ---------------------------------------------------------------------------

func TestIncompleteError(t *testing.T) {
	t.Parallel()

	err := &IncompleteError{Target: "/tmp/out.pdf", Size: 123}

	if !errors.Is(err, ErrGenerationIncomplete) {
		t.Error("should match ErrGenerationIncomplete")
	}
	for _, want := range []string{"/tmp/out.pdf", "123 bytes", "not completed properly"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, missing %q", err.Error(), want)
		}
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	t.Run("with watch error", func(t *testing.T) {
		t.Parallel()

		err := &TimeoutError{
			Path:    "/tmp/out.pdf",
			Timeout: 10 * time.Second,
			Elapsed: 10*time.Second + 123456*time.Microsecond,
			Err:     &watch.TimeoutError{Path: "/tmp/out.pdf"},
		}

		if !errors.Is(err, ErrGenerationTimeout) || !errors.Is(err, watch.ErrTimeout) {
			t.Error("should match ErrGenerationTimeout and watch.ErrTimeout")
		}
		for _, want := range []string{"/tmp/out.pdf", "after 10.123s", "timeout 10s"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("Error() = %q, missing %q", err.Error(), want)
			}
		}
	})

	t.Run("without watch error", func(t *testing.T) {
		t.Parallel()

		err := &TimeoutError{Path: "p"}
		if !errors.Is(err, ErrGenerationTimeout) {
			t.Error("should match ErrGenerationTimeout")
		}
		if errors.Is(err, watch.ErrTimeout) {
			t.Error("should not match watch.ErrTimeout without an underlying error")
		}
	})
}
