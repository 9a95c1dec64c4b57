// Package ptyexec runs a command on a pseudo terminal and copies its output to a writer.
//
// Programs which detect a terminal keep their colors and progress output, which is what
// the strip modes of linesock are for. The terminal is put into raw mode, so newlines
// arrive as \n and not as \r\n.
package ptyexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Result describes how the command ended
type Result struct {
	ExitCode int
	Signal   string // signal name if terminated by a signal
}

// Run starts args on a new pseudo terminal, copies everything it prints to out and waits for
// it to exit. Cancelling ctx terminates the command with SIGTERM, then SIGKILL.
func Run(ctx context.Context, out io.Writer, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, errors.New("no command given")
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open pty: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	// Raw mode disables the \n -> \r\n translation of the terminal
	if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
		_ = tty.Close()
		return Result{}, fmt.Errorf("failed to set raw mode: %w", err)
	}
	_ = pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80})

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		return Result{}, fmt.Errorf("failed to start command: %w", err)
	}
	// The child holds its own copy, reading ptmx returns EIO once it exits
	_ = tty.Close()
	slog.Info("Command started", "pid", cmd.Process.Pid, "args", args)

	copyDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(out, ptmx)
		copyDone <- err
	}()

	waitDone := make(chan error, 1)
	go func() {
		waitDone <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-waitDone:
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case waitErr = <-waitDone:
		case <-time.After(2 * time.Second):
			// Force kill if it doesn't exit
			_ = cmd.Process.Kill()
			waitErr = <-waitDone
		}
	}

	// Drain the remaining output
	var copyErr error
	select {
	case copyErr = <-copyDone:
	case <-time.After(2 * time.Second):
		// A background child may keep the terminal open
		_ = ptmx.Close()
		copyErr = <-copyDone
	}
	if copyErr != nil && !isPtyClosed(copyErr) {
		return exitResult(waitErr), fmt.Errorf("failed to copy output: %w", copyErr)
	}

	return exitResult(waitErr), nil
}

// isPtyClosed reports the errors which mean the terminal went away
func isPtyClosed(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}

// exitResult extracts exit code and signal from the error returned by cmd.Wait
func exitResult(err error) Result {
	if err == nil {
		return Result{}
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Result{ExitCode: 1}
	}
	result := Result{ExitCode: exitErr.ExitCode()}
	// Check if process was terminated by a signal
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		result.Signal = status.Signal().String()
	}
	return result
}
