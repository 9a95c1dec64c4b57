package linesock

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"linesock/internal/peer"
)

// ChunkSize is the maximum number of bytes read from the connection at once.
const ChunkSize = 4096

// State is the lifecycle state of the socket listener.
type State int32

const (
	StateCreated State = iota
	StateBound
	StateListening  // waiting for the single connection
	StateAccepted   // connection accepted, no data read yet
	StateStreaming  // reading chunks
	StateTerminated // accept or read loop stopped, see Queue.Err
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBound:
		return "bound"
	case StateListening:
		return "listening"
	case StateAccepted:
		return "accepted"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// listener accepts one connection and moves its lines into the queue. The connection, the
// reassembler and the filter are only used by the goroutine running run.
type listener struct {
	ln     *net.UnixListener
	lines  *LineQueue
	reasm  *Reassembler
	filter func(string) string
	log    *slog.Logger

	state atomic.Int32
	done  chan struct{}

	mu     sync.Mutex // guards conn, closed and err
	conn   net.Conn
	closed bool
	err    error
}

func newListener(ln *net.UnixListener, lines *LineQueue, reasm *Reassembler, filter func(string) string, log *slog.Logger) *listener {
	l := &listener{
		ln:     ln,
		lines:  lines,
		reasm:  reasm,
		filter: filter,
		log:    log,
		done:   make(chan struct{}),
	}
	l.state.Store(int32(StateBound))
	return l
}

// run waits for the connection and streams it until it ends. It is started once, in its own
// goroutine.
func (l *listener) run() {
	defer close(l.done)

	l.state.Store(int32(StateListening))
	conn, err := l.ln.Accept()
	if err != nil {
		l.terminate(fmt.Errorf("accept failed: %w", err))
		return
	}

	// Exactly one connection is serviced, later peers are refused
	_ = l.ln.Close()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		_ = conn.Close()
		l.terminate(ErrClosed)
		return
	}
	l.conn = conn
	l.mu.Unlock()

	l.state.Store(int32(StateAccepted))
	if info, err := peer.Identify(conn); err == nil {
		l.log.Info("Connection accepted", "peer", info)
	} else {
		l.log.Info("Connection accepted", "peerError", err)
	}

	l.stream(conn)
}

// stream reads chunks until the connection fails or the peer closes it.
func (l *listener) stream(conn net.Conn) {
	buf := make([]byte, ChunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			l.state.Store(int32(StateStreaming))
			lines, feedErr := l.reasm.Feed(buf[:n])
			for _, line := range lines {
				if l.filter != nil {
					line = l.filter(line)
				}
				l.lines.Push(line)
			}
			if feedErr != nil {
				l.terminate(feedErr)
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrPeerClosed
			} else {
				err = fmt.Errorf("read failed: %w", err)
			}
			l.terminate(err)
			return
		}
	}
}

// terminate records why the listener stopped. A failure caused by shutdown is reported as
// ErrClosed.
func (l *listener) terminate(err error) {
	l.mu.Lock()
	if l.closed {
		err = ErrClosed
	}
	l.err = err
	if l.conn != nil {
		_ = l.conn.Close()
	}
	l.mu.Unlock()

	l.state.Store(int32(StateTerminated))

	switch {
	case errors.Is(err, ErrClosed), errors.Is(err, ErrPeerClosed):
		l.log.Info("Listener stopped", "reason", err, "pendingBytes", l.reasm.Pending())
	default:
		l.log.Warn("Listener stopped", "error", err, "pendingBytes", l.reasm.Pending())
	}
}

// shutdown unblocks accept or read and waits for run to return.
func (l *listener) shutdown() {
	l.mu.Lock()
	l.closed = true
	_ = l.ln.Close()
	if l.conn != nil {
		_ = l.conn.Close()
	}
	l.mu.Unlock()

	<-l.done
}

func (l *listener) getState() State {
	return State(l.state.Load())
}

func (l *listener) getErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
