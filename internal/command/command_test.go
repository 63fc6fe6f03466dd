package command_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"matscribe/internal/command"
	"matscribe/internal/services"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests rely on /bin/sh")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)
	res, err := command.Run(context.Background(), 0, "/bin/sh", "-c", "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Stdout != "out\n" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	requireShell(t)
	res, err := command.Run(context.Background(), 0, "/bin/sh", "-c", "echo broken 1>&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
}

func TestRunTimeout(t *testing.T) {
	requireShell(t)
	_, err := command.Run(context.Background(), 50*time.Millisecond, "/bin/sh", "-c", "sleep 5")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := command.Run(context.Background(), 0, "definitely-not-a-binary-1b2c3")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker for missing binary, got %v", err)
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := command.Run(ctx, 0, "/bin/sh", "-c", "sleep 5")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
