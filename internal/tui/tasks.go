package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thiagokokada/jjk-go/internal/diff"
	"github.com/thiagokokada/jjk-go/internal/graph"
	"github.com/thiagokokada/jjk-go/internal/jj"
)

// snapshotMsg carries the result of one ingestion. Token is the command
// whose refresh it is, or zero.
type snapshotMsg struct {
	gen     uint64
	snap    *graph.Snapshot
	opHeads []string
	err     error
	token   uint64
}

type filesMsg struct {
	key   diff.Key
	token uint64
	files []diff.FileChange
	err   error
}

type fileDiffMsg struct {
	key   diff.Key
	token uint64
	diff  *diff.FileDiff
	err   error
}

type commandDoneMsg struct {
	token uint64
	op    jj.Op
	err   error
}

type remotesMsg struct {
	remotes []jj.Remote
	err     error
}

func ingestCmd(ctx context.Context, svc Service, opHeads func() ([]string, error), gen, token uint64) tea.Cmd {
	return func() tea.Msg {
		snap, err := svc.Ingest(ctx, gen)
		// Read after ingesting: jj log may itself record a working-copy
		// snapshot operation.
		var heads []string
		if opHeads != nil {
			heads, _ = opHeads()
		}
		return snapshotMsg{gen: gen, snap: snap, opHeads: heads, err: err, token: token}
	}
}

func loadFilesCmd(svc Service, t diff.Ticket, rev string) tea.Cmd {
	return func() tea.Msg {
		files, err := svc.FileSummary(t.Ctx, rev)
		return filesMsg{key: t.Key, token: t.Token, files: files, err: err}
	}
}

func loadDiffCmd(svc Service, t diff.Ticket, rev string, file diff.FileChange) tea.Cmd {
	return func() tea.Msg {
		d, err := svc.FileDiff(t.Ctx, rev, file)
		return fileDiffMsg{key: t.Key, token: t.Token, diff: d, err: err}
	}
}

func runCmd(ctx context.Context, svc Service, token uint64, req jj.Request) tea.Cmd {
	return func() tea.Msg {
		_, err := svc.Run(ctx, req)
		return commandDoneMsg{token: token, op: req.Op, err: err}
	}
}

// execCmd hands the terminal to an interactive jj command. Its stderr is
// shown as usual and also kept for the error banner.
func execCmd(cmd *exec.Cmd, token uint64, op jj.Op) tea.Cmd {
	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = &jj.ExitError{Args: cmd.Args[1:], ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return commandDoneMsg{token: token, op: op, err: err}
	})
}

func remotesCmd(fetch func() ([]jj.Remote, error)) tea.Cmd {
	if fetch == nil {
		return nil
	}
	return func() tea.Msg {
		remotes, err := fetch()
		return remotesMsg{remotes: remotes, err: err}
	}
}
