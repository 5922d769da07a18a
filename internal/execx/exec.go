// Package execx provides process execution for backend commands.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultGrace is how long a cancelled process gets to exit after SIGINT
// before it is killed.
const DefaultGrace = 3 * time.Second

// CommandError reports a command that ran and exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return "exec " + strings.Join(e.Args, " ") + ": exit status " + strconv.Itoa(e.ExitCode)
	}
	return "exec " + strings.Join(e.Args, " ") + ": " + msg
}

// Executor runs external commands in a working directory.
type Executor interface {
	// RunDir executes a command in dir and returns its stdout.
	// A non-zero exit returns the stdout produced so far and a *CommandError.
	RunDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// RealExecutor calls actual commands.
type RealExecutor struct {
	// Grace is the SIGINT-to-SIGKILL escalation window on cancellation.
	// Zero means DefaultGrace.
	Grace time.Duration
}

// RunDir executes a command in dir. On context cancellation the process
// receives an interrupt first and is killed after the grace period.
func (e *RealExecutor) RunDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	grace := e.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = grace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctx.Err() != nil {
		return stdout.Bytes(), ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), &CommandError{
			Args:     append([]string{name}, args...),
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	// Spawn failure (binary missing, permission, ...).
	return stdout.Bytes(), &CommandError{
		Args:     append([]string{name}, args...),
		ExitCode: -1,
		Stderr:   err.Error(),
	}
}
