package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
}

func TestCLIRunCapturesOutputAndExitCode(t *testing.T) {
	t.Parallel()
	requireShell(t)

	cli := New(Options{Binary: "/bin/sh", GlobalArgs: []string{"-c"}})
	res, err := cli.Run(context.Background(), "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Success() {
		t.Fatal("non-zero exit must not be a success")
	}
	if res.Stdout != "out\n" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Fatalf("stderr = %q", res.Stderr)
	}
	if len(res.Args) != 2 || res.Args[0] != "-c" {
		t.Fatalf("args = %#v", res.Args)
	}
}

func TestCLIRunUsesDir(t *testing.T) {
	t.Parallel()
	requireShell(t)

	dir := t.TempDir()
	cli := New(Options{Binary: "/bin/sh", Dir: dir, GlobalArgs: []string{"-c"}})
	res, err := cli.Run(context.Background(), "pwd -P")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != want {
		t.Fatalf("pwd = %q, want %q", got, want)
	}
}

func TestCLIRunLaunchError(t *testing.T) {
	t.Parallel()

	cli := New(Options{Binary: filepath.Join(t.TempDir(), "missing-jj")})
	_, err := cli.Run(context.Background(), "log")
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if launchErr.Binary != cli.Binary() {
		t.Fatalf("binary = %q", launchErr.Binary)
	}
}

func TestCLIRunCancelled(t *testing.T) {
	t.Parallel()
	requireShell(t)

	cli := New(Options{Binary: "/bin/sh", GlobalArgs: []string{"-c"}})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := cli.Run(ctx, "exec sleep 5")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		t.Fatal("cancellation must not be reported as a launch error")
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("cancelled process kept running")
	}
}

func TestCLIRunTimeout(t *testing.T) {
	t.Parallel()
	requireShell(t)

	cli := New(Options{Binary: "/bin/sh", GlobalArgs: []string{"-c"}, Timeout: 20 * time.Millisecond})
	_, err := cli.Run(context.Background(), "exec sleep 5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestDefaultBinary(t *testing.T) {
	t.Parallel()

	if got := New(Options{}).Binary(); got != DefaultBinary {
		t.Fatalf("binary = %q, want %q", got, DefaultBinary)
	}
}
