//go:build unix

package html2pdf

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// Mock engines are POSIX shell scripts. They receive the same arguments as
// wkhtmltopdf: options, --quiet, input, output. The scripts below rely on
//
//	for last; do :; done      # $last = output token
//
// and write "%%EOF" through printf, where "%%" prints a single '%'.

const (
	pdfBody     = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"
	pdfComplete = pdfBody + "%%EOF\n"
)

// printfPDF is the shell printf call emitting pdfComplete.
const printfPDF = `printf '%%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%%%EOF\n'`

// printfBody is the shell printf call emitting pdfBody.
const printfBody = `printf '%%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n'`

// writeEngine writes an executable script and returns its path.
func writeEngine(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine")
	script := "#!/bin/sh\nfor last; do :; done\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil { // #nosec G306 -- test engine must be executable
		t.Fatal(err)
	}
	return path
}

// pidRecorder returns a script line storing the engine pid and a function
// reading it back.
func pidRecorder(t *testing.T) (string, func() int) {
	t.Helper()
	pidFile := filepath.Join(t.TempDir(), "engine.pid")
	line := "echo $$ > " + pidFile
	return line, func() int {
		t.Helper()
		data, err := os.ReadFile(pidFile)
		if err != nil {
			t.Fatalf("engine never recorded its pid: %v", err)
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			t.Fatalf("bad pid file: %v", err)
		}
		return pid
	}
}

// assertGone fails when pid is still alive shortly after Generate returned.
func assertGone(t *testing.T, pid int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("engine pid %d still running after Generate returned", pid)
}

// newTestGenerator builds a Generator with short timings for mock engines.
func newTestGenerator(t *testing.T, engine string, opts ...Option) *Generator {
	t.Helper()
	base := []Option{
		WithExecutable(engine),
		WithSettleDelay(0),
		WithPollInterval(20 * time.Millisecond),
		WithKillGrace(500 * time.Millisecond),
		WithTimeout(5 * time.Second),
	}
	g, err := NewGenerator(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewGenerator() unexpected error: %v", err)
	}
	return g
}
