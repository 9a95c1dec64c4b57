package record

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	timestamp := time.Date(2025, 1, 7, 12, 34, 56, 789000000, time.UTC)
	entry := Entry{
		Stream:    "app.sock",
		Timestamp: timestamp,
		Line:      "Hello world",
	}

	require.Equal(t, "app.sock 2025-01-07T12:34:56.789000000Z 11: Hello world\n", string(Format(entry)))
}

func TestFormat_EmptyLineAndUnicode(t *testing.T) {
	timestamp := time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "s 2025-01-07T12:00:00.000000000Z 0: \n", string(Format(Entry{Stream: "s", Timestamp: timestamp})))
	// Length counts bytes, not characters
	require.Equal(t, "s 2025-01-07T12:00:00.000000000Z 6: grüß\n", string(Format(Entry{Stream: "s", Timestamp: timestamp, Line: "grüß"})))
}

func TestFormat_NonUTCTimestamp(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	timestamp := time.Date(2025, 1, 7, 13, 0, 0, 0, zone)

	require.True(t, strings.HasPrefix(string(Format(Entry{Stream: "s", Timestamp: timestamp})), "s 2025-01-07T12:00:00.000000000Z"))
}

func TestRecorder_WritesInOrder(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, "sock")

	for _, line := range []string{"one", "two", "three"} {
		r.Record(line)
	}
	require.NoError(t, r.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "sock "))
	require.True(t, strings.HasSuffix(lines[0], " 3: one"))
	require.True(t, strings.HasSuffix(lines[1], " 3: two"))
	require.True(t, strings.HasSuffix(lines[2], " 5: three"))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRecorder_ReportsWriteError(t *testing.T) {
	r := New(failingWriter{}, "sock")
	r.Record("lost")
	r.Record("also lost")

	err := r.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0600))

	r, err := Open(path, "sock")
	require.NoError(t, err)
	r.Record("new")
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "existing\nsock "))
	require.True(t, strings.HasSuffix(string(data), " 3: new\n"))
}
