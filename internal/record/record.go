// Package record appends received lines to a log file.
//
// Each line is written as
//
//	stream timestamp length: content\n
//
// where stream names the source (for example the socket file name), timestamp is UTC in
// the format 2006-01-02T15:04:05.000000000Z and length is the byte length of content.
// Content never contains a newline, so the format can be read with a line scanner.
package record

import (
	"fmt"
	"io"
	"os"
	"time"
)

// TimestampFormat is the layout of the timestamp field
const TimestampFormat = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded line
type Entry struct {
	Stream    string
	Timestamp time.Time
	Line      string
}

// Format formats an Entry, including the trailing newline
func Format(entry Entry) []byte {
	timestamp := entry.Timestamp.UTC().Format(TimestampFormat)
	out := fmt.Appendf(nil, "%s %s %d: ", entry.Stream, timestamp, len(entry.Line))
	out = append(out, entry.Line...)
	return append(out, '\n')
}

// Recorder writes entries from a single goroutine which owns the io.Writer
type Recorder struct {
	stream  string
	entries chan Entry
	done    chan struct{}
	err     error // first write error, read after done is closed
	closer  io.Closer
}

// New creates a Recorder writing to w. The internal goroutine runs until Close is called.
func New(w io.Writer, stream string) *Recorder {
	r := &Recorder{
		stream:  stream,
		entries: make(chan Entry, 100),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		for entry := range r.entries {
			if r.err != nil {
				continue
			}
			if _, err := w.Write(Format(entry)); err != nil {
				r.err = fmt.Errorf("failed to write record: %w", err)
			}
		}
	}()

	return r
}

// Open appends to the file at path, creating it if needed
func Open(path, stream string) (*Recorder, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	r := New(file, stream)
	r.closer = file
	return r, nil
}

// Record queues line for writing, stamped with the current time
func (r *Recorder) Record(line string) {
	r.entries <- Entry{
		Stream:    r.stream,
		Timestamp: time.Now().UTC(),
		Line:      line,
	}
}

// Close flushes pending entries and returns the first write error, if any
func (r *Recorder) Close() error {
	close(r.entries)
	<-r.done

	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			return fmt.Errorf("failed to close record file: %w", err)
		}
	}
	return r.err
}
