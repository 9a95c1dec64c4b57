//go:build linux

package linesock

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenBacklog is the length of the pending connection queue. Only one peer is expected.
const listenBacklog = 1

// listenUnix creates, binds and listens on a unix stream socket at path.
// net.Listen always uses the system default backlog, so the socket is set up by hand and
// then converted into a *net.UnixListener.
func listenUnix(path string) (*net.UnixListener, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		if errors.Is(err, unix.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %s", ErrAddressInUse, path)
		}
		return nil, fmt.Errorf("failed to bind socket %s: %w", path, err)
	}

	if err := unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to listen on socket %s: %w", path, err)
	}

	// FileListener dups the descriptor, fd itself is closed by file.Close
	file := os.NewFile(uintptr(fd), path)
	defer func() { _ = file.Close() }()

	ln, err := net.FileListener(file)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to create listener for %s: %w", path, err)
	}
	return ln.(*net.UnixListener), nil
}
