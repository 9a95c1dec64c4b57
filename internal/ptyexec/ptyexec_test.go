package ptyexec

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the copying goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_OutputWithoutCarriageReturn(t *testing.T) {
	var out syncBuffer
	result, err := Run(context.Background(), &out, []string{"sh", "-c", `printf 'hello\n\033[31mred\033[0m\n'`})
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)

	require.Equal(t, "hello\n\x1b[31mred\x1b[0m\n", out.String())
}

func TestRun_RunsOnTerminal(t *testing.T) {
	var out syncBuffer
	_, err := Run(context.Background(), &out, []string{"sh", "-c", "if [ -t 1 ]; then echo tty; else echo pipe; fi"})
	require.NoError(t, err)
	require.Equal(t, "tty\n", out.String())
}

func TestRun_ExitCode(t *testing.T) {
	var out syncBuffer
	result, err := Run(context.Background(), &out, []string{"sh", "-c", "exit 3"})
	require.NoError(t, err)
	require.Equal(t, 3, result.ExitCode)
}

func TestRun_CancelTerminates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out syncBuffer
	start := time.Now()
	result, err := Run(ctx, &out, []string{"sleep", "30"})
	require.NoError(t, err)
	require.Equal(t, "terminated", result.Signal)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_NoCommand(t *testing.T) {
	_, err := Run(context.Background(), &syncBuffer{}, nil)
	require.Error(t, err)
}

func TestRun_CommandNotFound(t *testing.T) {
	_, err := Run(context.Background(), &syncBuffer{}, []string{"/nonexistent/command"})
	require.Error(t, err)
}
