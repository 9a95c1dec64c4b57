package linesock

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Queue owns a unix domain socket and the goroutine reading lines from it. See the package
// documentation for the lifecycle.
type Queue struct {
	path     string
	lines    *LineQueue
	listener *listener
	log      *slog.Logger

	closeOnce sync.Once
}

type options struct {
	stripMode     StripMode
	maxLineLength int
	logger        *slog.Logger
}

// Option configures a Queue.
type Option func(*options)

// WithStripANSI enables removal of ANSI control sequences (StripCSI) from every line.
func WithStripANSI(strip bool) Option {
	return func(o *options) {
		if strip {
			o.stripMode = StripCSI
		} else {
			o.stripMode = StripNone
		}
	}
}

// WithStripMode selects which escape sequences are removed from every line.
func WithStripMode(mode StripMode) Option {
	return func(o *options) {
		o.stripMode = mode
	}
}

// WithMaxLineLength ends the stream with ErrLineTooLong when more than n bytes are buffered
// without a newline. 0 (the default) means no limit: the buffer grows as long as the
// producer does not send a newline.
func WithMaxLineLength(n int) Option {
	return func(o *options) {
		o.maxLineLength = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a unix domain socket at path and starts accepting a single connection in the
// background. It returns ErrAddressInUse if anything already exists at path; nothing gets
// created in that case.
func New(path string, opts ...Option) (*Queue, error) {
	o := options{
		stripMode: StripNone,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := ParseStripMode(string(o.stripMode)); err != nil {
		return nil, err
	}
	if o.maxLineLength < 0 {
		return nil, fmt.Errorf("invalid max line length %d", o.maxLineLength)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve socket path: %w", err)
	}

	if _, err := os.Lstat(absPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAddressInUse, absPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to check socket path: %w", err)
	}

	ln, err := listenUnix(absPath)
	if err != nil {
		return nil, err
	}

	log := o.logger.With("socket", absPath)
	lines := NewLineQueue()
	l := newListener(ln, lines, NewReassembler(o.maxLineLength), o.stripMode.filter(), log)

	log.Info("Socket created", "stripMode", o.stripMode, "maxLineLength", o.maxLineLength)
	go l.run()

	return &Queue{
		path:     absPath,
		lines:    lines,
		listener: l,
		log:      log,
	}, nil
}

// GetNowait returns the next line. It returns ErrEmpty if no line is available; it never
// blocks and never reports that the stream has ended (see Done and Err).
func (q *Queue) GetNowait() (string, error) {
	return q.lines.PopNowait()
}

// Len returns the number of lines waiting to be read.
func (q *Queue) Len() int {
	return q.lines.Len()
}

// Path returns the absolute path of the socket.
func (q *Queue) Path() string {
	return q.path
}

// State returns the current state of the listener.
func (q *Queue) State() State {
	return q.listener.getState()
}

// Done returns a channel which is closed when the listener has stopped. Lines received
// before that can still be read with GetNowait.
func (q *Queue) Done() <-chan struct{} {
	return q.listener.done
}

// Err returns why the listener stopped, or nil while it is running. ErrPeerClosed means the
// producer finished normally.
func (q *Queue) Err() error {
	return q.listener.getErr()
}

// Close stops the listener and removes the socket file. It is safe to call more than once.
// Failing to remove the socket file is logged, not returned.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.listener.shutdown()

		if err := os.Remove(q.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			q.log.Warn("Failed to remove socket file", "error", err)
		} else if err == nil {
			q.log.Info("Socket file removed")
		}
	})
	return nil
}
