//go:build !linux

package peer

import "net"

func credentials(conn *net.UnixConn) (Info, error) {
	return Info{}, ErrUnsupported
}
