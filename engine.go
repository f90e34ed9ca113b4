package html2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-html2pdf/internal/process"
	"github.com/alnah/go-html2pdf/internal/watch"
)

// Strategy names, used in logs and metric labels.
const (
	strategyPipe     = "pipe"
	strategyDetached = "detached"
)

// completionPattern matches the line the engine writes last. It accepts
// exactly what IsComplete accepts: "EOF" then the line's newline, so an
// unterminated "%%EOF" tail never stops the engine before its final byte.
var completionPattern = regexp.MustCompile(`EOF\n$`)

// IsComplete reports whether out ends with the completion marker: the three
// bytes before the final byte are "EOF", as in a PDF ending with "%%EOF\n".
func IsComplete(out []byte) bool {
	n := len(out)
	return n >= 4 && string(out[n-4:n-1]) == "EOF"
}

// job is everything a strategy needs to run one invocation.
type job struct {
	inv          Invocation
	stdin        string // inline HTML for the pipe strategy
	outputPath   string // file target; required by the detached strategy
	timeout      time.Duration
	settleDelay  time.Duration
	pollInterval time.Duration
	killGrace    time.Duration
	log          zerolog.Logger
}

// execResult is what a strategy observed. It is validated by the Generator.
type execResult struct {
	output     []byte
	stderr     string
	exitErr    error // *exec.ExitError, or nil
	terminated bool  // we sent the termination signal, so exitErr is expected
	elapsed    time.Duration
	watchWait  time.Duration // time until the marker matched; zero otherwise
}

// strategy runs an invocation and collects its output.
type strategy interface {
	name() string
	run(ctx context.Context, j job) (*execResult, error)
}

var (
	_ strategy = pipeStrategy{}
	_ strategy = detachedStrategy{}
)

// pipeStrategy runs the engine to completion with stdin and stdout wired to
// pipes. The engine is trusted to exit on its own.
type pipeStrategy struct{}

func (pipeStrategy) name() string { return strategyPipe }

func (pipeStrategy) run(ctx context.Context, j job) (*execResult, error) {
	start := time.Now()
	args := j.inv.Args()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) // #nosec G204 -- tokens built by BuildCommand
	process.Detach(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = j.killGrace

	if j.stdin != "" {
		cmd.Stdin = strings.NewReader(j.stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := cancellation(ctx, err); ctxErr != nil {
		return nil, ctxErr
	}

	res := &execResult{stderr: stderr.String(), elapsed: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
	case errors.As(err, &exitErr):
		res.exitErr = err
	default:
		return nil, fmt.Errorf("running %s: %w", args[0], err)
	}

	res.output = stdout.Bytes()
	if j.outputPath != "" {
		data, err := os.ReadFile(j.outputPath)
		switch {
		case err == nil:
			res.output = data
		case res.exitErr != nil:
			// The exit status is the better diagnosis.
			res.output = nil
		default:
			return nil, fmt.Errorf("%w: %v", ErrOutputRead, err)
		}
	}

	return res, nil
}

// detachedStrategy runs the engine writing to a file, watches that file for
// the completion marker and stops the engine once it appears.
//
// Two signals race: the watcher resolving and the engine exiting. The
// watcher wins ties; when the engine exits first the watcher is cancelled and
// the file is judged on its content alone.
type detachedStrategy struct{}

func (detachedStrategy) name() string { return strategyDetached }

func (detachedStrategy) run(ctx context.Context, j job) (*execResult, error) {
	if j.outputPath == "" {
		return nil, fmt.Errorf("%w: detached generation needs a file target", ErrImproperSource)
	}

	start := time.Now()
	eng, err := startEngine(j)
	if err != nil {
		return nil, err
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	w := watch.New(j.outputPath, watch.Config{
		Delay:        j.settleDelay,
		Timeout:      j.timeout,
		PollInterval: j.pollInterval,
		Logger:       j.log,
	})

	var seen watch.Result
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- w.WatchFor(watchCtx, completionPattern, func(r watch.Result) {
			seen = r
			eng.interrupt()
		})
	}()

	var watchErr error
	select {
	case watchErr = <-watchDone:
		j.log.Debug().Str("watch", w.State().String()).Msg("watcher resolved first")
	case <-eng.done:
		j.log.Debug().Msg("engine exited before the marker was seen")
		cancelWatch()
		watchErr = <-watchDone
		if errors.Is(watchErr, context.Canceled) && ctx.Err() == nil {
			watchErr = nil
		}
	}

	eng.stop()

	res := &execResult{
		stderr:     eng.stderr.String(),
		exitErr:    eng.waitErr,
		terminated: eng.terminated.Load(),
		elapsed:    time.Since(start),
	}
	if seen.Matched {
		res.watchWait = seen.Elapsed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if watchErr != nil {
		var te *watch.TimeoutError
		if errors.As(watchErr, &te) {
			// The target was truncated before spawn, so a complete file here
			// was finished during the settle delay, before the watch began.
			if data, err := os.ReadFile(j.outputPath); err == nil && IsComplete(data) {
				j.log.Debug().Msg("marker written before the watch began, accepting output")
				res.output = data
				return res, nil
			}
			return nil, &TimeoutError{Path: j.outputPath, Timeout: j.timeout, Elapsed: te.Elapsed, Err: watchErr}
		}
		return nil, fmt.Errorf("%w: %w", ErrOutputWatch, watchErr)
	}

	data, err := os.ReadFile(j.outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputRead, err)
	}
	res.output = data

	return res, nil
}

// runningEngine owns a started engine process.
type runningEngine struct {
	pid        int
	done       chan struct{} // closed once Wait returned
	waitErr    error         // valid after done is closed
	stderr     bytes.Buffer  // valid after done is closed
	terminated atomic.Bool
	killGrace  time.Duration
	log        zerolog.Logger
}

func startEngine(j job) (*runningEngine, error) {
	args := j.inv.Args()

	cmd := exec.Command(args[0], args[1:]...) // #nosec G204 -- tokens built by BuildCommand
	process.Detach(cmd)
	cmd.WaitDelay = j.killGrace

	e := &runningEngine{
		done:      make(chan struct{}),
		killGrace: j.killGrace,
		log:       j.log,
	}
	cmd.Stderr = &e.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", args[0], err)
	}
	e.pid = cmd.Process.Pid
	j.log.Debug().Int("pid", e.pid).Msg("engine started")

	go func() {
		e.waitErr = cmd.Wait()
		close(e.done)
	}()

	return e, nil
}

func (e *runningEngine) exited() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// cancellation reports ctx's error when it explains a failed run. A run that
// succeeded keeps its result even if ctx ended right after.
func cancellation(ctx context.Context, runErr error) error {
	if runErr == nil {
		return nil
	}
	return ctx.Err()
}

// interrupt sends the termination signal once. Safe to call from the watcher
// goroutine.
//
// The exited check and the signal are not atomic with the Wait goroutine.
// The group id stays reserved until Wait reaps the leader, and the kernel does
// not reuse it straight away after that, so a stray signal to a recycled group
// is not a practical concern.
func (e *runningEngine) interrupt() {
	if e.exited() || !e.terminated.CompareAndSwap(false, true) {
		return
	}
	if err := process.Interrupt(e.pid); err != nil {
		e.log.Debug().Err(err).Int("pid", e.pid).Msg("interrupt failed")
	}
}

// stop returns once the engine has exited: it interrupts the engine, waits up
// to killGrace, then kills the whole process group.
func (e *runningEngine) stop() {
	if e.exited() {
		return
	}
	e.interrupt()

	t := time.NewTimer(e.killGrace)
	defer t.Stop()

	select {
	case <-e.done:
	case <-t.C:
		e.log.Debug().Int("pid", e.pid).Msg("engine ignored interrupt, killing process group")
		process.KillProcessGroup(e.pid)
		<-e.done
	}
}
