package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFoldToggleFile(t *testing.T) {
	t.Parallel()

	s := NewFoldState().With("c", Fold{Mode: FoldFiles})
	s = s.ToggleFile("c", "a.go")
	if got := s.Get("c"); got != (Fold{Mode: FoldDiff, Path: "a.go"}) {
		t.Fatalf("Get() = %+v", got)
	}
	s = s.ToggleFile("c", "b.go")
	if got := s.Get("c"); got != (Fold{Mode: FoldDiff, Path: "b.go"}) {
		t.Fatalf("switching file: Get() = %+v", got)
	}
	s = s.ToggleFile("c", "b.go")
	if got := s.Get("c"); got != (Fold{Mode: FoldFiles}) {
		t.Fatalf("closing diff: Get() = %+v", got)
	}
}

func TestFoldToggleDoesNotTouchSiblings(t *testing.T) {
	t.Parallel()

	s := NewFoldState().
		With("a", Fold{Mode: FoldFiles}).
		With("b", Fold{Mode: FoldDiff, Path: "x"})
	next := s.ToggleCommit("a")
	if next.Get("b") != s.Get("b") {
		t.Fatal("sibling fold changed")
	}
	if next.Get("a").Mode != FoldCollapsed {
		t.Fatalf("Get(a) = %+v", next.Get("a"))
	}
}

func TestFoldWithOpenDeletes(t *testing.T) {
	t.Parallel()

	s := NewFoldState().With("a", Fold{Mode: FoldCollapsed, Path: "ignored"})
	if s.Get("a").Path != "" {
		t.Fatal("path must only be kept for expanded-diff")
	}
	s = s.With("a", Fold{})
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestFoldRemap(t *testing.T) {
	t.Parallel()

	snap := linearABC(t)
	s := NewFoldState().
		With("A", Fold{Mode: FoldFiles}).
		With("gone", Fold{Mode: FoldCollapsed})
	if diff := cmp.Diff([]string{"A"}, s.Remap(snap).IDs()); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestRowKeyParent(t *testing.T) {
	t.Parallel()

	chain := []RowKey{LineKey("c", "p", 1, 2), HunkKey("c", "p", 1), FileKey("c", "p"), CommitKey("c")}
	for i := 0; i < len(chain)-1; i++ {
		got, ok := chain[i].Parent()
		if !ok || got != chain[i+1] {
			t.Fatalf("Parent(%+v) = %+v, %v", chain[i], got, ok)
		}
	}
	if _, ok := CommitKey("c").Parent(); ok {
		t.Fatal("commit key has no parent")
	}
	if got, _ := NoticeKey("c", "").Parent(); got != CommitKey("c") {
		t.Fatalf("notice parent = %+v", got)
	}
	if got, _ := NoticeKey("c", "p").Parent(); got != FileKey("c", "p") {
		t.Fatalf("file notice parent = %+v", got)
	}
}
