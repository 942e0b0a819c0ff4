// Package logging builds the charmbracelet logger shared by the kmerctx
// commands. Log output goes to stderr (and optionally a file), never to
// stdout, which is reserved for usage text.
package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options controls where the logger writes and at which level.
type Options struct {
	// Out is the primary destination; nil means os.Stderr.
	Out io.Writer
	// LogFile, when set, receives a copy of every line (opened for append).
	LogFile string
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Verbose forces debug level regardless of Level.
	Verbose bool
}

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
	now func() time.Time
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// put the partial line back for the next Write
			t.buf.WriteString(line)
			break
		}
		ts := t.now().Format(time.RFC3339)
		if _, err := io.WriteString(t.w, ts+" "+line); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// ParseLevel maps a config level name to a log level. ok is false for
// unknown names, in which case InfoLevel is returned.
func ParseLevel(s string) (level log.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	default:
		return log.InfoLevel, false
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger according to opts. The returned closer releases the
// log file, if one was opened; it is always safe to call.
func New(opts Options) (*log.Logger, io.Closer) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	fdOut, hasFd := out.(interface{ Fd() uintptr })

	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			// write to both stderr and file so running interactively still shows logs
			out = io.MultiWriter(out, f)
			closer = f
		} else {
			fileErr = err
		}
	}

	// expose the destination's Fd (if any) so charm.log can detect a TTY
	var w io.Writer = &timestampWriter{w: out, now: time.Now}
	if hasFd {
		w = &terminalWriter{w: w, fd: fdOut.Fd()}
	}
	logger := log.New(w)

	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		level, ok := ParseLevel(opts.Level)
		logger.SetLevel(level)
		if !ok {
			logger.Warn("unknown log_level in config, defaulting to info", "provided", opts.Level)
		}
	}
	if fileErr != nil {
		logger.Warn("log_file specified but could not be opened; logging to stderr only", "path", opts.LogFile, "err", fileErr)
	}
	return logger, closer
}
