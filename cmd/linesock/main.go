package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"linesock/internal/config"
	"linesock/internal/ptyexec"
	"linesock/internal/record"
	"linesock/internal/relay"
	"linesock/pkg/linesock"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	socketPath    string
	stripANSI     bool
	stripMode     string
	maxLineLength int
	pollInterval  time.Duration
	recordFile    string
	websocketAddr string
	exitOnEnd     bool
)

var rootCmd = &cobra.Command{
	Use:   "linesock",
	Short: "Read lines from a unix domain socket",
	Long: `linesock creates a unix domain socket, accepts a single connection and delivers
the text written to it line by line.

Settings can also be given as environment variables: LINESOCK_SOCKET,
LINESOCK_STRIP_MODE, LINESOCK_MAX_LINE_LENGTH, LINESOCK_POLL_INTERVAL and
LINESOCK_LOG_LEVEL. Flags take precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level, err := cfg.SlogLevel()
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		// Flag, else environment
		if !cmd.Flags().Changed("socket") {
			socketPath = cfg.Socket
		}
		if socketPath == "" {
			return fmt.Errorf("no socket path given. Use --socket or $%s_SOCKET", config.Prefix)
		}
		return nil
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Create the socket and print every received line",
	Long: `Create the socket, wait for a producer to connect and print each line it sends.

The queue is polled without blocking every --poll-interval. Lines can additionally
be appended to a file (--record) and forwarded to websocket clients connected to
ws://ADDR/lines (--websocket).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queueOptions(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return listen(ctx, os.Stdout, opts)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Copy stdin into the socket",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer func() { _ = conn.Close() }()

		if _, err := io.Copy(conn, os.Stdin); err != nil {
			return fmt.Errorf("failed to send: %w", err)
		}
		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec -- cmd [args...]",
	Short: "Run a command on a terminal and stream its output into the socket",
	Long: `Run a command on a pseudo terminal and write everything it prints into the socket.

Programs see a terminal, so they keep colors and progress output. Combine with
"listen --strip-mode all" to receive plain text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer func() { _ = conn.Close() }()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := ptyexec.Run(ctx, conn, args)
		if err != nil {
			return err
		}
		if result.Signal != "" {
			return fmt.Errorf("command terminated by signal %s", result.Signal)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("command exited with code %d", result.ExitCode)
		}
		return nil
	},
}

// queueOptions combines flags and environment into linesock options
func queueOptions(cmd *cobra.Command) ([]linesock.Option, error) {
	mode := cfg.StripMode
	if cmd.Flags().Changed("strip-mode") {
		mode = stripMode
	} else if stripANSI {
		mode = string(linesock.StripCSI)
	}
	parsed, err := linesock.ParseStripMode(mode)
	if err != nil {
		return nil, err
	}

	if !cmd.Flags().Changed("max-line-length") {
		maxLineLength = cfg.MaxLineLength
	}
	if !cmd.Flags().Changed("poll-interval") {
		pollInterval = cfg.PollInterval
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", pollInterval)
	}

	return []linesock.Option{
		linesock.WithStripMode(parsed),
		linesock.WithMaxLineLength(maxLineLength),
		linesock.WithLogger(slog.Default()),
	}, nil
}

// listen polls the queue and writes every line to out until ctx is done, or until the
// stream ended and all lines were printed (with --exit-on-end).
func listen(ctx context.Context, out io.Writer, opts []linesock.Option) error {
	q, err := linesock.New(socketPath, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = q.Close() }()

	var rec *record.Recorder
	if recordFile != "" {
		rec, err = record.Open(recordFile, filepath.Base(q.Path()))
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("Recording failed", "error", err, "file", recordFile)
			}
		}()
	}

	var hub *relay.Hub
	if websocketAddr != "" {
		hub = relay.NewHub(slog.Default())
		relayCtx, cancel := context.WithCancel(ctx)
		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			if err := relay.Serve(relayCtx, websocketAddr, hub); err != nil {
				slog.Error("Relay stopped", "error", err)
			}
		}()
		defer func() {
			cancel()
			<-relayDone
		}()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	drain := func() error {
		for {
			line, err := q.GetNowait()
			if errors.Is(err, linesock.ErrEmpty) {
				return nil
			}
			if _, err := fmt.Fprintln(out, line); err != nil {
				return fmt.Errorf("failed to write line: %w", err)
			}
			if rec != nil {
				rec.Record(line)
			}
			if hub != nil {
				hub.Broadcast(line)
			}
		}
	}

	for {
		// Done is checked before draining: all lines are pushed before Done is closed
		ended := false
		if exitOnEnd {
			select {
			case <-q.Done():
				ended = true
			default:
			}
		}

		if err := drain(); err != nil {
			return err
		}

		if ended {
			if err := q.Err(); !errors.Is(err, linesock.ErrPeerClosed) {
				return fmt.Errorf("stream ended: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "S", "", "Path of the unix domain socket (default: $LINESOCK_SOCKET)")

	listenCmd.Flags().BoolVar(&stripANSI, "strip-ansi", false, "Remove ANSI color and cursor sequences from lines (same as --strip-mode csi)")
	listenCmd.Flags().StringVar(&stripMode, "strip-mode", "none", "Escape sequences to remove: none, csi or all (default: $LINESOCK_STRIP_MODE)")
	listenCmd.Flags().IntVar(&maxLineLength, "max-line-length", 0, "End the stream if a line grows beyond this many bytes, 0 for no limit")
	listenCmd.Flags().DurationVar(&pollInterval, "poll-interval", 50*time.Millisecond, "How often to poll for new lines")
	listenCmd.Flags().StringVar(&recordFile, "record", "", "Append received lines to this file")
	listenCmd.Flags().StringVar(&websocketAddr, "websocket", "", "Serve received lines to websocket clients at ws://ADDR/lines")
	listenCmd.Flags().BoolVar(&exitOnEnd, "exit-on-end", true, "Exit after the producer disconnected and all lines were printed")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(execCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
