package jj

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/thiagokokada/jjk-go/internal/diff"
	"github.com/thiagokokada/jjk-go/internal/graph"
	"github.com/thiagokokada/jjk-go/internal/jj/backend"
)

const DefaultTimeout = 2 * time.Minute

var baseArgs = []string{"--no-pager", "--color", "never"}

type Options struct {
	Binary  string
	Revset  string
	Timeout time.Duration
}

// Service runs the jj invocations the UI needs against one workspace. It
// holds no mutable state and is safe to use from concurrent tasks.
type Service struct {
	gw     backend.Gateway
	revset string
}

// Open resolves the workspace containing path and returns a Service rooted
// there. It fails when jj is missing, too old, or path is not inside a jj
// workspace.
func Open(ctx context.Context, path string, opts Options) (*Service, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := EnsureVersion(ctx, backend.New(backend.Options{Binary: opts.Binary, Timeout: opts.Timeout})); err != nil {
		return nil, err
	}
	probe := backend.New(backend.Options{
		Binary:     opts.Binary,
		Dir:        abs,
		GlobalArgs: baseArgs,
		Timeout:    opts.Timeout,
	})
	res, err := probe.Run(ctx, "root")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("open repository: %w", exitError([]string{"root"}, res))
	}
	root := strings.TrimSpace(res.Stdout)
	if root == "" {
		return nil, errors.New("open repository: jj root returned an empty path")
	}
	slog.Debug("jj workspace", slog.String("root", root))
	gw := backend.New(backend.Options{
		Binary:     opts.Binary,
		Dir:        root,
		GlobalArgs: append(append([]string{}, baseArgs...), "--repository", root),
		Timeout:    opts.Timeout,
	})
	return NewService(gw, opts), nil
}

func NewService(gw backend.Gateway, opts Options) *Service {
	return &Service{gw: gw, revset: opts.Revset}
}

func (s *Service) Root() string {
	return s.gw.Dir()
}

func (s *Service) Revset() string {
	return s.revset
}

func exitError(args []string, res backend.Result) *ExitError {
	return &ExitError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
}

func (s *Service) output(ctx context.Context, args ...string) (string, error) {
	res, err := s.gw.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", exitError(args, res)
	}
	return res.Stdout, nil
}

// Ingest runs jj log and parses its graph into a snapshot tagged with
// generation.
func (s *Service) Ingest(ctx context.Context, generation uint64) (*graph.Snapshot, error) {
	out, err := s.output(ctx, LogArgs(s.revset)...)
	if err != nil {
		return nil, err
	}
	snap, err := graph.Parse(strings.NewReader(out), decodeRecord, generation)
	if err != nil {
		return nil, err
	}
	if snap.Partial() {
		slog.Warn("partial graph", slog.Int("warnings", len(snap.Warnings())))
	}
	return snap, nil
}

// FileSummary lists the files touched by change.
func (s *Service) FileSummary(ctx context.Context, change string) ([]diff.FileChange, error) {
	out, err := s.output(ctx, "diff", "-r", change, "--summary")
	if err != nil {
		return nil, err
	}
	return ParseSummary(out)
}

// FileDiff loads the git-style diff of one file of change. Renamed and copied
// files also pass their old path so both sides are included.
func (s *Service) FileDiff(ctx context.Context, change string, file diff.FileChange) (*diff.FileDiff, error) {
	args := []string{"diff", "-r", change, "--git", "--", rootFile(file.Path)}
	if file.OldPath != "" && file.OldPath != file.Path {
		args = append(args, rootFile(file.OldPath))
	}
	out, err := s.output(ctx, args...)
	if err != nil {
		return nil, err
	}
	files, err := diff.ParseGit(out)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if files[i].Path == file.Path {
			return &files[i], nil
		}
	}
	if len(files) == 1 {
		return &files[0], nil
	}
	return &diff.FileDiff{Path: file.Path, OldPath: file.OldPath}, nil
}

// rootFile builds a fileset matching exactly path, relative to the workspace
// root.
func rootFile(path string) string {
	var b strings.Builder
	b.WriteString(`root-file:"`)
	for _, r := range path {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Run executes a non-interactive request step by step and stops at the
// first failing step.
func (s *Service) Run(ctx context.Context, req Request) (backend.Result, error) {
	steps, err := req.Steps()
	if err != nil {
		return backend.Result{}, err
	}
	var res backend.Result
	for _, args := range steps {
		res, err = s.gw.Run(ctx, args...)
		if err != nil {
			return res, err
		}
		if !res.Success() {
			return res, exitError(args, res)
		}
	}
	slog.Info("operation finished", slog.String("op", req.Op.String()), slog.String("target", req.Target))
	return res, nil
}

// Command builds the process for an interactive request. The caller hands
// it the terminal.
func (s *Service) Command(ctx context.Context, req Request) (*exec.Cmd, error) {
	if !req.Op.Interactive() {
		return nil, fmt.Errorf("%s is not interactive", req.Op)
	}
	steps, err := req.Steps()
	if err != nil {
		return nil, err
	}
	return s.gw.Command(ctx, steps[0]...), nil
}
