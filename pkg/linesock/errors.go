package linesock

import "errors"

var (
	// ErrAddressInUse is returned by New when something already exists at the socket path.
	ErrAddressInUse = errors.New("socket address already in use")

	// ErrEmpty is returned by GetNowait and PopNowait when no line is available.
	ErrEmpty = errors.New("queue is empty")

	// ErrDecode terminates the stream when a line is not valid UTF-8.
	ErrDecode = errors.New("invalid utf-8 in stream")

	// ErrLineTooLong terminates the stream when the pending buffer exceeds the configured
	// maximum line length.
	ErrLineTooLong = errors.New("line exceeds maximum length")

	// ErrPeerClosed is the termination reason when the producer closed its end.
	ErrPeerClosed = errors.New("peer closed connection")

	// ErrClosed is the termination reason when the queue was closed by its owner.
	ErrClosed = errors.New("queue closed")
)
