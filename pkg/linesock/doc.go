// Package linesock exposes a unix domain socket as a line-oriented queue that can be polled
// without blocking.
//
// # Overview
//
// A producing process connects to the socket and writes text in chunks of any size. The
// queue reassembles the chunks into newline-terminated lines and makes each completed line
// available through GetNowait.
//
// Goals:
//
//  1. Preserve exact line boundaries, no matter how the producer splits its writes
//  2. Never block the consumer
//  3. Optionally remove terminal escape sequences (colors, cursor movement)
//
// # Lifecycle
//
// New binds the socket and starts a goroutine which accepts exactly one connection. Lines
// are delivered in the order their terminating newline arrived. When the connection ends
// (peer closed, read error, invalid UTF-8) the goroutine stops. GetNowait keeps returning
// ErrEmpty after that; use Done and Err to tell an idle producer from a finished one.
//
// Close releases the socket and removes the socket file.
//
// # Example
//
//	q, err := linesock.New("/tmp/app.sock", linesock.WithStripANSI(true))
//	if err != nil {
//		return err
//	}
//	defer q.Close()
//
//	for {
//		line, err := q.GetNowait()
//		if errors.Is(err, linesock.ErrEmpty) {
//			time.Sleep(50 * time.Millisecond)
//			continue
//		}
//		fmt.Println(line)
//	}
//
// # Wire Format
//
// Raw UTF-8 text, lines separated by \n. There are no length prefixes and no
// acknowledgments. The trailing part of the stream which is not terminated by \n is never
// delivered.
package linesock
