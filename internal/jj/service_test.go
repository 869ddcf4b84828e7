package jj

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/thiagokokada/jjk-go/internal/diff"
	"github.com/thiagokokada/jjk-go/internal/jj/backend"
)

func record(fields ...string) string {
	out := ""
	for _, f := range fields {
		out += "\t" + f
	}
	return out
}

func TestDecodeRecord(t *testing.T) {
	t.Parallel()

	n, err := decodeRecord(record("kxqpmlnw", "1f2e3d4c", "Ada", "ada@example.com", "2024-05-01T10:00:00Z", "@e", "main dev@origin", "fix: tab\tin title")[1:])
	if err != nil {
		t.Fatalf("decodeRecord() error = %v", err)
	}
	if n.ChangeID != "kxqpmlnw" || n.CommitID != "1f2e3d4c" {
		t.Fatalf("ids = %q %q", n.ChangeID, n.CommitID)
	}
	if !n.WorkingCopy || !n.Empty || n.Immutable || n.Root {
		t.Fatalf("flags = %+v", n)
	}
	if diff := cmp.Diff([]string{"main", "dev@origin"}, n.Bookmarks); diff != "" {
		t.Fatalf("bookmarks mismatch (-want +got):\n%s", diff)
	}
	if n.Description != "fix: tab\tin title" {
		t.Fatalf("Description = %q", n.Description)
	}
	if n.Author.Name != "Ada" || n.Author.When.Year() != 2024 {
		t.Fatalf("Author = %+v", n.Author)
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record string
	}{
		{name: "too_few_fields", record: "abc\tdef"},
		{name: "empty_change", record: record("", "c", "n", "e", "", "", "", "d")[1:]},
		{name: "bad_time", record: record("a", "c", "n", "e", "yesterday", "", "", "d")[1:]},
		{name: "bad_flag", record: record("a", "c", "n", "e", "", "z", "", "d")[1:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := decodeRecord(tt.record); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIngest(t *testing.T) {
	t.Parallel()

	out := "@  " + record("ccc", "c3", "A", "a@x", "2024-01-01T00:00:00Z", "@", "", "top") + "\n" +
		"○  " + record("bbb", "c2", "A", "a@x", "2024-01-01T00:00:00Z", "", "main", "middle") + "\n" +
		"◆  " + record("aaa", "c1", "A", "a@x", "2024-01-01T00:00:00Z", "i", "", "base") + "\n" +
		"~\n"
	gw := &fakeGateway{dir: "/repo", runFunc: func(args []string) (backend.Result, error) {
		if args[0] != "log" {
			t.Errorf("unexpected args %v", args)
		}
		return backend.Result{Stdout: out}, nil
	}}
	svc := NewService(gw, Options{Revset: "::@"})
	snap, err := svc.Ingest(context.Background(), 7)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if snap.Generation() != 7 || snap.WorkingCopy() != "ccc" {
		t.Fatalf("generation=%d working=%q", snap.Generation(), snap.WorkingCopy())
	}
	if diff := cmp.Diff([]string{"ccc", "bbb", "aaa"}, snap.Order()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bbb"}, snap.Parents("ccc")); diff != "" {
		t.Fatalf("parents mismatch (-want +got):\n%s", diff)
	}
	n, _ := snap.Node("aaa")
	if !n.Immutable || !n.ElidedParents {
		t.Fatalf("aaa = %+v", n)
	}
	calls := gw.Calls()
	if len(calls) != 1 || !slices.Contains(gw.calls[0], "-r") || gw.calls[0][len(gw.calls[0])-1] != "::@" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestIngestNonZeroExit(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{runFunc: func([]string) (backend.Result, error) {
		return backend.Result{ExitCode: 1, Stderr: "Error: Revision `nope` doesn't exist\n"}, nil
	}}
	_, err := NewService(gw, Options{}).Ingest(context.Background(), 1)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Message() != "Error: Revision `nope` doesn't exist" {
		t.Fatalf("Message() = %q", exitErr.Message())
	}
}

func TestLogArgsDefaultRevset(t *testing.T) {
	t.Parallel()

	if slices.Contains(LogArgs(""), "-r") {
		t.Fatal("empty revset must keep jj's default")
	}
}

func TestFileDiff(t *testing.T) {
	t.Parallel()

	const out = "diff --git a/old.go b/new.go\n" +
		"rename from old.go\n" +
		"rename to new.go\n" +
		"--- a/old.go\n" +
		"+++ b/new.go\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-a\n" +
		"+b\n"
	var got []string
	gw := &fakeGateway{runFunc: func(args []string) (backend.Result, error) {
		got = args
		return backend.Result{Stdout: out}, nil
	}}
	fd, err := NewService(gw, Options{}).FileDiff(context.Background(), "kkk", diff.FileChange{Status: diff.StatusRenamed, Path: "new.go", OldPath: "old.go"})
	if err != nil {
		t.Fatalf("FileDiff() error = %v", err)
	}
	want := []string{"diff", "-r", "kkk", "--git", "--", `root-file:"new.go"`, `root-file:"old.go"`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if fd.Path != "new.go" || len(fd.Hunks) != 1 {
		t.Fatalf("FileDiff = %+v", fd)
	}
}

func TestFileDiffEmptyOutput(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{runFunc: func([]string) (backend.Result, error) {
		return backend.Result{}, nil
	}}
	fd, err := NewService(gw, Options{}).FileDiff(context.Background(), "kkk", diff.FileChange{Path: "mode-only"})
	if err != nil {
		t.Fatalf("FileDiff() error = %v", err)
	}
	if fd.Path != "mode-only" || len(fd.Hunks) != 0 || fd.Binary {
		t.Fatalf("FileDiff = %+v", fd)
	}
}

func TestRootFileQuoting(t *testing.T) {
	t.Parallel()

	if got := rootFile(`a "b"\c`); got != `root-file:"a \"b\"\\c"` {
		t.Fatalf("rootFile() = %s", got)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{runFunc: func(args []string) (backend.Result, error) {
		if args[0] == "git" {
			return backend.Result{ExitCode: 1, Stderr: "no remote"}, nil
		}
		return backend.Result{}, nil
	}}
	_, err := NewService(gw, Options{}).Run(context.Background(), Request{Op: OpPull, Target: "abc"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode != 1 {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if diff := cmp.Diff([]string{"git fetch"}, gw.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunLaunchError(t *testing.T) {
	t.Parallel()

	launch := &backend.LaunchError{Binary: "jj", Err: errors.New("not found")}
	gw := &fakeGateway{runFunc: func([]string) (backend.Result, error) {
		return backend.Result{}, launch
	}}
	_, err := NewService(gw, Options{}).Run(context.Background(), Request{Op: OpUndo})
	var got *backend.LaunchError
	if !errors.As(err, &got) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
}

func TestCommandRejectsNonInteractive(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeGateway{}, Options{})
	if _, err := svc.Command(context.Background(), Request{Op: OpAbandon, Target: "x"}); err == nil {
		t.Fatal("expected error for non-interactive op")
	}
	cmd, err := svc.Command(context.Background(), Request{Op: OpDescribe, Target: "x"})
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if diff := cmp.Diff([]string{"jj", "describe", "x"}, cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}
