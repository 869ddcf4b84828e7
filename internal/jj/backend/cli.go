package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"time"
)

const DefaultBinary = "jj"

// waitDelay bounds how long Wait keeps reading pipes after the process was
// killed, in case it left children holding them open.
const waitDelay = time.Second

type Options struct {
	Binary     string
	Dir        string
	GlobalArgs []string
	// Timeout bounds every Run call. Zero disables the bound.
	Timeout time.Duration
}

type CLI struct {
	binary  string
	dir     string
	global  []string
	timeout time.Duration
}

func New(opts Options) *CLI {
	binary := opts.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	return &CLI{
		binary:  binary,
		dir:     opts.Dir,
		global:  slices.Clone(opts.GlobalArgs),
		timeout: opts.Timeout,
	}
}

func (c *CLI) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *CLI) Binary() string {
	return c.binary
}

func (c *CLI) argv(args []string) []string {
	out := make([]string, 0, len(c.global)+len(args))
	out = append(out, c.global...)
	return append(out, args...)
}

func (c *CLI) Command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.binary, c.argv(args)...)
	cmd.Dir = c.dir
	cmd.WaitDelay = waitDelay
	return cmd
}

func (c *CLI) Run(ctx context.Context, args ...string) (Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	cmd := c.Command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Args:    cmd.Args[1:],
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.ExitCode = -1
			return res, fmt.Errorf("%s %s: %w", c.binary, subcommand(args), ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, &LaunchError{Binary: c.binary, Err: err}
		}
		res.ExitCode = exitErr.ExitCode()
	}
	slog.Debug("jj invocation",
		slog.Any("args", res.Args),
		slog.Int("exit", res.ExitCode),
		slog.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func subcommand(args []string) string {
	for _, arg := range args {
		if arg != "" && arg[0] != '-' {
			return arg
		}
	}
	return ""
}
