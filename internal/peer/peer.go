// Package peer identifies the process on the other end of a unix domain socket connection.
package peer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrUnsupported is returned on platforms without peer credentials.
var ErrUnsupported = errors.New("peer credentials not supported on this platform")

// Info describes the peer process of a connection
type Info struct {
	PID     int32
	UID     uint32
	GID     uint32
	Name    string // empty if the process could not be inspected
	Cmdline string
}

// LogValue implements slog.LogValuer
func (i Info) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("pid", int(i.PID)),
		slog.Int("uid", int(i.UID)),
	}
	if i.Name != "" {
		attrs = append(attrs, slog.String("name", i.Name))
	}
	if i.Cmdline != "" {
		attrs = append(attrs, slog.String("cmdline", i.Cmdline))
	}
	return slog.GroupValue(attrs...)
}

// Identify returns the credentials of the process connected through conn, completed with
// its name and command line. Name and command line are best-effort: the peer may already
// have exited, or belong to another user.
func Identify(conn net.Conn) (Info, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return Info{}, fmt.Errorf("not a unix connection: %T", conn)
	}

	info, err := credentials(unixConn)
	if err != nil {
		return Info{}, err
	}

	describe(&info)
	return info, nil
}

// describe fills name and command line from the process table.
func describe(info *Info) {
	p, err := process.NewProcess(info.PID)
	if err != nil {
		return
	}

	// Get name (may fail for short-lived processes)
	if name, err := p.Name(); err == nil {
		info.Name = name
	}

	if cmdline, err := p.Cmdline(); err == nil {
		info.Cmdline = cmdline
	}
}
