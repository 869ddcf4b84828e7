package graph

import (
	"slices"

	"github.com/thiagokokada/jjk-go/internal/diff"
)

type RowKind uint8

const (
	RowCommit RowKind = iota
	RowFile
	RowHunk
	RowLine
	RowNotice
)

// RowKey identifies a visible row by identifiers only. Hunk and Line are -1
// when they do not apply.
type RowKey struct {
	ID     string
	Path   string
	Hunk   int
	Line   int
	Notice bool
}

func CommitKey(id string) RowKey {
	return RowKey{ID: id, Hunk: -1, Line: -1}
}

func FileKey(id, path string) RowKey {
	return RowKey{ID: id, Path: path, Hunk: -1, Line: -1}
}

func HunkKey(id, path string, hunk int) RowKey {
	return RowKey{ID: id, Path: path, Hunk: hunk, Line: -1}
}

func LineKey(id, path string, hunk, line int) RowKey {
	return RowKey{ID: id, Path: path, Hunk: hunk, Line: line}
}

func NoticeKey(id, path string) RowKey {
	return RowKey{ID: id, Path: path, Hunk: -1, Line: -1, Notice: true}
}

// Parent returns the key of the row this one is nested under.
func (k RowKey) Parent() (RowKey, bool) {
	switch {
	case k.Notice:
		if k.Path != "" {
			return FileKey(k.ID, k.Path), true
		}
		return CommitKey(k.ID), true
	case k.Line >= 0:
		return HunkKey(k.ID, k.Path, k.Hunk), true
	case k.Hunk >= 0:
		return FileKey(k.ID, k.Path), true
	case k.Path != "":
		return CommitKey(k.ID), true
	default:
		return RowKey{}, false
	}
}

func (k RowKey) IsCommit() bool {
	return k.Path == "" && k.Hunk < 0 && k.Line < 0 && !k.Notice
}

type Row struct {
	Kind RowKind
	Key  RowKey
	Node *Node
	// Fold is the fold of the owning commit.
	Fold Fold
	File diff.FileChange
	Hunk *diff.Hunk
	Line *diff.Line
	Text string
	Err  error
	// Hidden counts the descendants hidden by a collapsed commit.
	Hidden int
	// Leader is line art drawn above the row: the graph lines that precede
	// the first commit.
	Leader []string
	// Trailer is line art drawn below the row.
	Trailer []string
}

func (r Row) Height() int {
	return 1 + len(r.Leader) + len(r.Trailer)
}

// Contents is read-only access to lazily loaded change contents.
type Contents interface {
	Files(change string) ([]diff.FileChange, diff.LoadState, error)
	Diff(change, path string) (*diff.FileDiff, diff.LoadState, error)
}

// VisibleOrder lists the rows to draw, in the observed top-to-bottom order of
// the snapshot. Each commit is followed by its files when expanded, and the
// expanded file by its hunks and their lines. It has no side effects: the same
// snapshot, folds and contents always produce the same rows.
func VisibleOrder(s *Snapshot, folds FoldState, contents Contents) []Row {
	if s == nil {
		return nil
	}
	hidden := Hidden(s, folds)
	rows := make([]Row, 0, s.Len())
	for _, id := range s.order {
		if hidden[id] {
			continue
		}
		n := s.nodes[id]
		fold := folds.Get(id)
		commit := Row{Kind: RowCommit, Key: CommitKey(id), Node: n, Fold: fold}
		if fold.Mode == FoldCollapsed {
			commit.Hidden = hiddenBelow(s, hidden, id)
		}
		rows = append(rows, commit)
		if fold.ShowsFiles() {
			rows = appendFiles(rows, n, fold, contents)
		}
		if len(n.Edges) > 0 {
			rows[len(rows)-1].Trailer = n.Edges
		}
	}
	if len(rows) > 0 && len(s.preamble) > 0 {
		rows[0].Leader = slices.Clone(s.preamble)
	}
	return rows
}

func appendFiles(rows []Row, n *Node, fold Fold, contents Contents) []Row {
	var (
		files []diff.FileChange
		state diff.LoadState
		err   error
	)
	if contents != nil {
		files, state, err = contents.Files(n.ID)
	}
	switch state {
	case diff.StateLoaded:
	case diff.StateFailed:
		return append(rows, noticeRow(n, fold, "", "", err))
	default:
		return append(rows, noticeRow(n, fold, "", "loading files…", nil))
	}
	if len(files) == 0 {
		return append(rows, noticeRow(n, fold, "", "(no changes)", nil))
	}
	for _, f := range files {
		rows = append(rows, Row{Kind: RowFile, Key: FileKey(n.ID, f.Path), Node: n, Fold: fold, File: f})
		if fold.Mode == FoldDiff && fold.Path == f.Path {
			rows = appendDiff(rows, n, fold, f, contents)
		}
	}
	return rows
}

func appendDiff(rows []Row, n *Node, fold Fold, f diff.FileChange, contents Contents) []Row {
	d, state, err := contents.Diff(n.ID, f.Path)
	switch state {
	case diff.StateLoaded:
	case diff.StateFailed:
		return append(rows, noticeRow(n, fold, f.Path, "", err))
	default:
		return append(rows, noticeRow(n, fold, f.Path, "loading diff…", nil))
	}
	if d == nil || d.Binary {
		return append(rows, noticeRow(n, fold, f.Path, "(binary file)", nil))
	}
	if len(d.Hunks) == 0 {
		return append(rows, noticeRow(n, fold, f.Path, "(no textual changes)", nil))
	}
	for hi := range d.Hunks {
		h := &d.Hunks[hi]
		rows = append(rows, Row{Kind: RowHunk, Key: HunkKey(n.ID, f.Path, hi), Node: n, Fold: fold, File: f, Hunk: h})
		for li := range h.Lines {
			rows = append(rows, Row{
				Kind: RowLine,
				Key:  LineKey(n.ID, f.Path, hi, li),
				Node: n,
				Fold: fold,
				File: f,
				Hunk: h,
				Line: &h.Lines[li],
			})
		}
	}
	return rows
}

func noticeRow(n *Node, fold Fold, path, text string, err error) Row {
	if err != nil {
		text = err.Error()
	}
	return Row{Kind: RowNotice, Key: NoticeKey(n.ID, path), Node: n, Fold: fold, Text: text, Err: err}
}

// Hidden returns the set of nodes hidden by collapsed ancestors: a node is
// hidden when it has parents in the snapshot and every one of them is
// collapsed or hidden itself.
func Hidden(s *Snapshot, folds FoldState) map[string]bool {
	hidden := make(map[string]bool)
	if folds.Len() == 0 {
		return hidden
	}
	memo := make(map[string]bool, s.Len())
	visiting := make(map[string]bool)
	var visit func(id string) bool
	visit = func(id string) bool {
		if v, ok := memo[id]; ok {
			return v
		}
		if visiting[id] {
			return false
		}
		visiting[id] = true
		n := s.nodes[id]
		result := false
		inSnapshot := 0
		for _, p := range n.Parents {
			if _, ok := s.nodes[p]; !ok {
				continue
			}
			inSnapshot++
			if folds.Get(p).Mode != FoldCollapsed && !visit(p) {
				inSnapshot = -1
				break
			}
		}
		result = inSnapshot > 0
		delete(visiting, id)
		memo[id] = result
		return result
	}
	for _, id := range s.order {
		if visit(id) {
			hidden[id] = true
		}
	}
	return hidden
}

func hiddenBelow(s *Snapshot, hidden map[string]bool, id string) int {
	seen := map[string]bool{}
	queue := s.children[id]
	count := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] || !hidden[cur] {
			continue
		}
		seen[cur] = true
		count++
		queue = append(queue, s.children[cur]...)
	}
	return count
}
