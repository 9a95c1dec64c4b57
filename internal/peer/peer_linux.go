//go:build linux

package peer

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// credentials reads SO_PEERCRED from the connection.
func credentials(conn *net.UnixConn) (Info, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return Info{}, fmt.Errorf("failed to get raw connection: %w", err)
	}

	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return Info{}, fmt.Errorf("failed to access socket: %w", err)
	}
	if credErr != nil {
		return Info{}, fmt.Errorf("failed to read peer credentials: %w", credErr)
	}

	return Info{
		PID: cred.Pid,
		UID: cred.Uid,
		GID: cred.Gid,
	}, nil
}
