package linesock

import "sync"

// compactThreshold is the number of consumed slots after which the backing array is
// compacted while a consumer lags behind the producer.
const compactThreshold = 1024

// LineQueue is an unbounded FIFO of lines. It is safe for concurrent use by one producer
// and any number of consumers.
type LineQueue struct {
	mu    sync.Mutex
	lines []string
	head  int
}

// NewLineQueue creates an empty queue.
func NewLineQueue() *LineQueue {
	return &LineQueue{}
}

// Push appends line to the tail. It never blocks and never fails.
func (q *LineQueue) Push(line string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.lines = append(q.lines, line)
}

// PopNowait removes and returns the head of the queue. It returns ErrEmpty if the queue has
// no elements.
func (q *LineQueue) PopNowait() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.lines) {
		return "", ErrEmpty
	}
	line := q.lines[q.head]
	q.lines[q.head] = ""
	q.head++

	switch {
	case q.head == len(q.lines):
		// Reuse the backing array once everything has been consumed
		q.lines = q.lines[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.lines):
		q.lines = append([]string(nil), q.lines[q.head:]...)
		q.head = 0
	}
	return line, nil
}

// Len returns the number of queued lines.
func (q *LineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.lines) - q.head
}
