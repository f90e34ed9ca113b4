// Package watch detects, from outside the writing process, that a file has
// finished growing.
//
// A Watcher opens the file after an optional delay, seeks to its current end
// and scans only bytes appended afterwards for a pattern. It wakes on fsnotify
// write events and on a poll tick, so it never spins and still works on
// filesystems that do not deliver events. The poll tick also bounds how late a
// timeout is detected.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	// DefaultPollInterval is the fallback wake-up period.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultTimeout applies when Config.Timeout is zero.
	DefaultTimeout = 300 * time.Second

	// maxPendingLine caps the unterminated tail kept between reads. Binary
	// output can go megabytes without a newline; only the tail can hold a marker.
	maxPendingLine = 64 << 10

	readChunk = 32 << 10
)

// Sentinel errors for watch operations.
var (
	ErrTimeout        = errors.New("watch: timed out waiting for pattern")
	ErrFileRemoved    = errors.New("watch: file removed while watching")
	ErrFileTruncated  = errors.New("watch: file truncated while watching")
	ErrAlreadyStarted = errors.New("watch: WatchFor called more than once")
	ErrNilPattern     = errors.New("watch: nil pattern")
)

// TimeoutError reports a watch that reached its deadline without a match.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("watch: %s: no match after %s (timeout %s)",
		e.Path, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

// Unwrap returns ErrTimeout.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Config holds the parameters for a Watcher.
type Config struct {
	// Delay is waited before the file is opened, so the writer has time to
	// create it.
	Delay time.Duration

	// Timeout bounds the whole call, Delay included. Zero means DefaultTimeout.
	Timeout time.Duration

	// PollInterval is the fallback wake-up period. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Logger receives state transitions at debug level. The zero value logs nothing.
	Logger zerolog.Logger
}

// Result is passed to the callback when the watch resolves.
type Result struct {
	// Line is the matching line, or the last line seen on timeout,
	// without its line terminator.
	Line    string
	Matched bool
	Elapsed time.Duration
}

// Watcher watches one file for one pattern. WatchFor must be called exactly
// once; a second call returns ErrAlreadyStarted.
type Watcher struct {
	path    string
	cfg     Config
	log     zerolog.Logger
	state   atomic.Int32
	started atomic.Bool
}

// New creates a Watcher for path. Zero config durations take their defaults.
func New(path string, cfg Config) *Watcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Watcher{
		path: path,
		cfg:  cfg,
		log:  cfg.Logger.With().Str("component", "watch").Str("path", path).Logger(),
	}
}

// State returns the current phase. Safe for concurrent use.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// WatchFor blocks until a line appended to the file matches pattern, the
// timeout elapses, the file fails, or ctx is cancelled.
//
// On match fn is called with the line and WatchFor returns nil. On timeout fn
// is still called (Matched false) and a *TimeoutError is returned. fn is not
// called on failure or cancellation. The file handle is closed before
// WatchFor returns, whatever the outcome.
func (w *Watcher) WatchFor(ctx context.Context, pattern *regexp.Regexp, fn func(Result)) error {
	if pattern == nil {
		return ErrNilPattern
	}
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if fn == nil {
		fn = func(Result) {}
	}

	start := time.Now()
	w.transition(StateDelaying)

	if err := sleep(ctx, w.cfg.Delay); err != nil {
		w.transition(StateStopped)
		return err
	}

	s, err := openSession(w.path, w.log)
	if err != nil {
		w.transition(StateFailed)
		return err
	}
	defer s.close()

	w.transition(StateWatching)
	return w.loop(ctx, s, pattern, fn, start)
}

func (w *Watcher) loop(ctx context.Context, s *session, pattern *regexp.Regexp, fn func(Result), start time.Time) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if s.fsw != nil {
		events = s.fsw.Events
		errs = s.fsw.Errors
	}

	for {
		line, matched, err := s.scan(pattern)
		if err != nil {
			w.transition(StateFailed)
			return err
		}
		if matched {
			w.transition(StateMatched)
			fn(Result{Line: line, Matched: true, Elapsed: time.Since(start)})
			return nil
		}

		if elapsed := time.Since(start); elapsed > w.cfg.Timeout {
			w.transition(StateTimedOut)
			fn(Result{Line: s.lastLine, Matched: false, Elapsed: elapsed})
			return &TimeoutError{Path: w.path, Timeout: w.cfg.Timeout, Elapsed: elapsed}
		}

		select {
		case <-ctx.Done():
			w.transition(StateStopped)
			return ctx.Err()

		case _, ok := <-events:
			if !ok {
				// Event stream gone: keep going on the poll tick alone.
				events = nil
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Debug().Err(err).Msg("fsnotify error, relying on polling")

		case <-ticker.C:
		}
	}
}

func (w *Watcher) transition(to State) {
	from := State(w.state.Load())
	if !canTransition(from, to) {
		panic(fmt.Sprintf("watch: illegal transition %s -> %s", from, to))
	}
	w.state.Store(int32(to))
	w.log.Debug().Stringer("from", from).Stringer("to", to).Msg("state")
}

// session is the per-call state: open handle, read offset and pending bytes.
type session struct {
	path     string
	f        *os.File
	info     os.FileInfo
	offset   int64
	buf      []byte
	pending  []byte
	lastLine string
	fsw      *fsnotify.Watcher
}

func openSession(path string, log zerolog.Logger) (*session, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the engine's output target
	if err != nil {
		return nil, fmt.Errorf("watch: opening %s: %w", path, err)
	}

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("watch: seeking %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("watch: stat %s: %w", path, err)
	}

	s := &session{
		path:   path,
		f:      f,
		info:   info,
		offset: offset,
		buf:    make([]byte, readChunk),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug().Err(err).Msg("fsnotify unavailable, polling only")
		return s, nil
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		log.Debug().Err(err).Msg("fsnotify add failed, polling only")
		return s, nil
	}
	s.fsw = fsw

	return s, nil
}

func (s *session) close() {
	if s.fsw != nil {
		_ = s.fsw.Close()
	}
	_ = s.f.Close()
}

// scan reads every byte appended since the last call and tests each
// completed line, then the unterminated tail, against pattern.
func (s *session) scan(pattern *regexp.Regexp) (string, bool, error) {
	if err := s.checkFile(); err != nil {
		return "", false, err
	}

	for {
		n, err := s.f.Read(s.buf)
		if n > 0 {
			s.offset += int64(n)
			s.pending = append(s.pending, s.buf[:n]...)
			if line, ok := s.drainLines(pattern); ok {
				return line, true, nil
			}
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return "", false, fmt.Errorf("watch: reading %s: %w", s.path, err)
		}
	}

	if len(s.pending) > 0 {
		s.lastLine = trimEOL(s.pending)
		if pattern.Match(s.pending) {
			return s.lastLine, true, nil
		}
	}
	return "", false, nil
}

// drainLines consumes complete lines from pending, stopping at the first match.
func (s *session) drainLines(pattern *regexp.Regexp) (string, bool) {
	consumed := 0
	defer func() {
		s.pending = append(s.pending[:0], s.pending[consumed:]...)
		if len(s.pending) > maxPendingLine {
			s.pending = append(s.pending[:0], s.pending[len(s.pending)-maxPendingLine:]...)
		}
	}()

	for {
		i := bytes.IndexByte(s.pending[consumed:], '\n')
		if i < 0 {
			return "", false
		}
		line := s.pending[consumed : consumed+i+1]
		consumed += i + 1
		s.lastLine = trimEOL(line)
		if pattern.Match(line) {
			return s.lastLine, true
		}
	}
}

// checkFile fails when the watched path no longer names the opened file or
// the file shrank below what was already read.
func (s *session) checkFile() error {
	cur, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileRemoved, s.path)
	}
	if err != nil {
		return fmt.Errorf("watch: stat %s: %w", s.path, err)
	}
	if !os.SameFile(s.info, cur) {
		return fmt.Errorf("%w: %s was replaced", ErrFileRemoved, s.path)
	}
	if cur.Size() < s.offset {
		return fmt.Errorf("%w: %s (size %d, read offset %d)", ErrFileTruncated, s.path, cur.Size(), s.offset)
	}
	return nil
}

func trimEOL(b []byte) string {
	return strings.TrimRight(string(b), "\r\n")
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
