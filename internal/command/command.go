package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"matscribe/internal/services"
)

// Result captures the outcome of an external command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// Runner executes an external command. The indirection exists so stage
// handlers can substitute a fake in tests.
type Runner func(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)

// Run executes name with args, bounding its duration by timeout (<= 0 means
// the caller's context governs). Timeouts surface as services.ErrTimeout,
// missing binaries as services.ErrConfiguration, and non-zero exits as
// services.ErrExternalTool with a stderr tail in the message.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, services.Wrap(services.ErrTimeout, "", name, fmt.Sprintf("timed out after %s", result.Elapsed.Round(time.Second)), ctx.Err())
		}
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, services.Wrap(services.ErrExternalTool, "", name,
			fmt.Sprintf("exit status %d: %s", result.ExitCode, tail(result.Stderr, 400)), err)
	}

	if errors.Is(err, exec.ErrNotFound) {
		return result, services.Wrap(services.ErrConfiguration, "", name, "binary not found in PATH", err)
	}

	return result, services.Wrap(services.ErrExternalTool, "", name, "", err)
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
