package linesock

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Reassembler turns a stream of chunks into complete lines. Bytes after the last newline are
// kept until a later chunk terminates them.
//
// Note: A Reassembler is owned by a single goroutine, so no synchronization is needed.
type Reassembler struct {
	pending       []byte
	maxLineLength int // 0 means unlimited
}

// NewReassembler creates a Reassembler. A maxLineLength of 0 disables the limit, and the
// pending buffer grows as long as the producer does not send a newline.
func NewReassembler(maxLineLength int) *Reassembler {
	return &Reassembler{maxLineLength: maxLineLength}
}

// Feed appends chunk to the pending buffer and returns every line completed by it, without
// the trailing newline.
//
// Lines are split on the byte '\n', which never occurs inside a multi-byte UTF-8 sequence,
// so characters split across two chunks are decoded correctly. A completed line which is
// not valid UTF-8 yields ErrDecode; the lines before it are still returned.
func (r *Reassembler) Feed(chunk []byte) ([]string, error) {
	r.pending = append(r.pending, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(r.pending, '\n')
		if idx < 0 {
			break
		}
		line := r.pending[:idx]
		r.pending = r.pending[idx+1:]
		if !utf8.Valid(line) {
			return lines, fmt.Errorf("%w: line %d of chunk", ErrDecode, len(lines)+1)
		}
		lines = append(lines, string(line))
	}

	if r.maxLineLength > 0 && len(r.pending) > r.maxLineLength {
		return lines, fmt.Errorf("%w: %d bytes pending, limit %d", ErrLineTooLong, len(r.pending), r.maxLineLength)
	}

	return lines, nil
}

// Pending returns the number of buffered bytes which are not yet terminated by a newline.
func (r *Reassembler) Pending() int {
	return len(r.pending)
}
