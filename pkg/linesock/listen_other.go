//go:build !linux

package linesock

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// listenUnix creates, binds and listens on a unix stream socket at path. The backlog is the
// system default on this platform.
func listenUnix(path string) (*net.UnixListener, error) {
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %s", ErrAddressInUse, path)
		}
		return nil, fmt.Errorf("failed to listen on socket %s: %w", path, err)
	}
	// The socket file is removed by Queue.Close, which logs failures
	ln.SetUnlinkOnClose(false)
	return ln, nil
}
