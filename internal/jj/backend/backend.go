package backend

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Gateway runs external jj invocations.
//
// Implementations know the binary, the working directory and the global
// arguments prepended to every call. They do not interpret the output: a
// non-zero exit code is returned as a normal Result.
type Gateway interface {
	Dir() string
	Run(ctx context.Context, args ...string) (Result, error)
	Command(ctx context.Context, args ...string) *exec.Cmd
}

// Result is the captured outcome of a finished process.
type Result struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

func (r Result) Success() bool {
	return r.ExitCode == 0
}

// LaunchError reports a process that could not be started at all.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
