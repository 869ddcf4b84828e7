package jj

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		req  Request
		want [][]string
	}{
		{req: Request{Op: OpFetch}, want: [][]string{{"git", "fetch"}}},
		{req: Request{Op: OpPull, Target: "k"}, want: [][]string{{"git", "fetch"}, {"rebase", "-b", "k", "-d", "trunk()"}}},
		{req: Request{Op: OpAbandon, Target: "k"}, want: [][]string{{"abandon", "k"}}},
		{req: Request{Op: OpSquash, Target: "k"}, want: [][]string{{"squash", "-r", "k"}}},
		{req: Request{Op: OpCommit}, want: [][]string{{"commit"}}},
		{req: Request{Op: OpEdit, Target: "k"}, want: [][]string{{"edit", "k"}}},
		{req: Request{Op: OpDescribe, Target: "k"}, want: [][]string{{"describe", "k"}}},
		{req: Request{Op: OpNew, Target: "k"}, want: [][]string{{"new", "k"}}},
		{req: Request{Op: OpUndo}, want: [][]string{{"undo"}}},
		{req: Request{Op: OpPush}, want: [][]string{{"git", "push"}}},
		{req: Request{Op: OpSetBookmark, Target: "k"}, want: [][]string{{"bookmark", "set", "main", "-r", "k"}}},
		{req: Request{Op: OpSetBookmark, Target: "k", Bookmark: "trunk"}, want: [][]string{{"bookmark", "set", "trunk", "-r", "k"}}},
		{req: Request{Op: OpEdit, Target: "k", IgnoreImmutable: true}, want: [][]string{{"--ignore-immutable", "edit", "k"}}},
	}
	for _, tt := range tests {
		t.Run(tt.req.Op.String(), func(t *testing.T) {
			t.Parallel()

			got, err := tt.req.Steps()
			if err != nil {
				t.Fatalf("Steps() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Steps() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestStepsMissingTarget(t *testing.T) {
	t.Parallel()

	for _, op := range Ops {
		_, err := Request{Op: op}.Steps()
		if op.NeedsTarget() != (err != nil) {
			t.Errorf("%s: NeedsTarget=%v err=%v", op, op.NeedsTarget(), err)
		}
	}
	if _, err := (Request{Op: Op(200)}).Steps(); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestOpsAreDistinct(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, op := range Ops {
		if seen[op.String()] {
			t.Fatalf("duplicate op name %s", op)
		}
		seen[op.String()] = true
		if op.Help() == "" {
			t.Fatalf("%s has no help", op)
		}
	}
}
