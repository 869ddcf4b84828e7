// Package nav holds the cursor, scroll and fold state of the log view and
// the pure transitions over the visible rows.
package nav

import (
	"github.com/thiagokokada/jjk-go/internal/graph"
)

// Navigator is owned by the interaction loop and is not safe for concurrent
// use.
type Navigator struct {
	snap  *graph.Snapshot
	folds graph.FoldState
	rows  []graph.Row
	index map[graph.RowKey]int

	cursor int
	key    graph.RowKey
	offset int
	height int
}

func New() *Navigator {
	return &Navigator{folds: graph.NewFoldState(), height: 1}
}

func (n *Navigator) Snapshot() *graph.Snapshot { return n.snap }

func (n *Navigator) Folds() graph.FoldState { return n.folds }

func (n *Navigator) SetFolds(f graph.FoldState) { n.folds = f }

func (n *Navigator) Rows() []graph.Row { return n.rows }

func (n *Navigator) Cursor() int { return n.cursor }

func (n *Navigator) Key() graph.RowKey { return n.key }

func (n *Navigator) Offset() int { return n.offset }

func (n *Navigator) Height() int { return n.height }

// CursorRow returns the highlighted row.
func (n *Navigator) CursorRow() (graph.Row, bool) {
	if n.cursor < 0 || n.cursor >= len(n.rows) {
		return graph.Row{}, false
	}
	return n.rows[n.cursor], true
}

// SetHeight sets the number of screen lines available to rows.
func (n *Navigator) SetHeight(h int) {
	n.height = max(h, 1)
	n.clampOffset()
	n.ensureVisible()
}

// Resync installs rows computed from snap and the current folds, and puts
// the cursor back on the entity it pointed to. When that entity is gone the
// cursor falls back to its enclosing row, then to the nearest surviving
// visible ancestor commit, then to the first root, then to the first row.
func (n *Navigator) Resync(snap *graph.Snapshot, rows []graph.Row) {
	old := n.snap
	n.snap = snap
	n.rows = rows
	n.index = make(map[graph.RowKey]int, len(rows))
	for i, r := range rows {
		n.index[r.Key] = i
	}
	if len(rows) == 0 {
		n.cursor, n.offset = 0, 0
		return
	}
	n.cursor = n.relocate(old)
	n.key = rows[n.cursor].Key
	n.clampOffset()
	n.ensureVisible()
}

func (n *Navigator) relocate(old *graph.Snapshot) int {
	if n.key.ID == "" {
		if wc := n.snap.WorkingCopy(); wc != "" {
			if i, ok := n.index[graph.CommitKey(wc)]; ok {
				return i
			}
		}
		return 0
	}
	for k, ok := n.key, true; ok; k, ok = k.Parent() {
		if i, found := n.index[k]; found {
			return i
		}
	}
	src := n.snap
	if !src.Has(n.key.ID) && old != nil {
		src = old
	}
	for _, id := range src.Ancestors(n.key.ID) {
		if i, ok := n.index[graph.CommitKey(id)]; ok {
			return i
		}
	}
	for _, id := range n.snap.Roots() {
		if i, ok := n.index[graph.CommitKey(id)]; ok {
			return i
		}
	}
	return 0
}

// Select moves the cursor to row i.
func (n *Navigator) Select(i int) {
	if len(n.rows) == 0 {
		return
	}
	n.cursor = min(max(i, 0), len(n.rows)-1)
	n.key = n.rows[n.cursor].Key
	n.ensureVisible()
}

func (n *Navigator) selectKey(k graph.RowKey) bool {
	i, ok := n.index[k]
	if ok {
		n.Select(i)
	}
	return ok
}

func (n *Navigator) Up() { n.Select(n.cursor - 1) }

func (n *Navigator) Down() { n.Select(n.cursor + 1) }

func (n *Navigator) Home() { n.Select(0) }

func (n *Navigator) End() { n.Select(len(n.rows) - 1) }

// PageUp moves the cursor up by one viewport worth of lines.
func (n *Navigator) PageUp() {
	i, lines := n.cursor, 0
	for i > 0 && lines+n.rows[i-1].Height() <= n.height {
		i--
		lines += n.rows[i].Height()
	}
	n.Select(i)
}

// PageDown moves the cursor down by one viewport worth of lines.
func (n *Navigator) PageDown() {
	i, lines := n.cursor, 0
	for i < len(n.rows)-1 && lines+n.rows[i].Height() <= n.height {
		lines += n.rows[i].Height()
		i++
	}
	n.Select(i)
}

// Left moves to the previous sibling at the cursor's level.
func (n *Navigator) Left() { n.sibling(-1) }

// Right moves to the next sibling at the cursor's level.
func (n *Navigator) Right() { n.sibling(1) }

func (n *Navigator) sibling(dir int) {
	cur, ok := n.CursorRow()
	if !ok {
		return
	}
	if cur.Kind == graph.RowCommit {
		n.commitSibling(cur.Key.ID, dir)
		return
	}
	parent, _ := cur.Key.Parent()
	for i := n.cursor + dir; i >= 0 && i < len(n.rows); i += dir {
		r := n.rows[i]
		if r.Key == parent || r.Kind == graph.RowCommit {
			return
		}
		if p, _ := r.Key.Parent(); r.Kind == cur.Kind && p == parent {
			n.Select(i)
			return
		}
	}
}

func (n *Navigator) commitSibling(id string, dir int) {
	sibs := n.snap.Siblings(id)
	pos := -1
	for i, s := range sibs {
		if s == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	for i := pos + dir; i >= 0 && i < len(sibs); i += dir {
		if n.selectKey(graph.CommitKey(sibs[i])) {
			return
		}
	}
}

// Parent moves from a commit to its nearest visible ancestor, first parent
// first. From a nested row it moves to the owning commit.
func (n *Navigator) Parent() {
	cur, ok := n.CursorRow()
	if !ok {
		return
	}
	if cur.Kind != graph.RowCommit {
		n.selectKey(graph.CommitKey(cur.Key.ID))
		return
	}
	for _, id := range n.snap.Ancestors(cur.Key.ID) {
		if n.selectKey(graph.CommitKey(id)) {
			return
		}
	}
}

// WorkingCopy moves to the working-copy commit, or to its nearest visible
// ancestor when it is folded away.
func (n *Navigator) WorkingCopy() {
	if n.snap == nil {
		return
	}
	wc := n.snap.WorkingCopy()
	if wc == "" || n.selectKey(graph.CommitKey(wc)) {
		return
	}
	for _, id := range n.snap.Ancestors(wc) {
		if n.selectKey(graph.CommitKey(id)) {
			return
		}
	}
}

// Toggle changes the fold under the cursor and returns the ID whose fold
// changed. Hunk, line and notice rows act on their file row, and the cursor
// moves there. The caller recomputes the rows and calls Resync.
func (n *Navigator) Toggle() (string, bool) {
	cur, ok := n.CursorRow()
	if !ok {
		return "", false
	}
	id := cur.Key.ID
	if cur.Key.Path == "" {
		n.folds = n.folds.ToggleCommit(id)
		n.key = graph.CommitKey(id)
		return id, true
	}
	n.folds = n.folds.ToggleFile(id, cur.Key.Path)
	n.key = graph.FileKey(id, cur.Key.Path)
	return id, true
}

// Scroll moves the viewport by delta rows without moving the cursor, unless
// the cursor would leave the viewport; it is then clamped into it.
func (n *Navigator) Scroll(delta int) {
	if len(n.rows) == 0 {
		return
	}
	n.offset += delta
	n.clampOffset()
	last := n.lastVisible()
	switch {
	case n.cursor < n.offset:
		n.cursor = n.offset
	case n.cursor > last:
		n.cursor = last
	default:
		return
	}
	n.key = n.rows[n.cursor].Key
}

// RowAt maps screen line y of the viewport to a row index, summing row
// heights from the scroll offset the same way the view draws them.
func (n *Navigator) RowAt(y int) (int, bool) {
	if y < 0 {
		return 0, false
	}
	line := 0
	for i := n.offset; i < len(n.rows); i++ {
		line += n.rows[i].Height()
		if y < line {
			return i, true
		}
		if line >= n.height {
			break
		}
	}
	return 0, false
}

// Visible returns the index range [from, to) of rows drawn in the viewport.
func (n *Navigator) Visible() (from, to int) {
	if len(n.rows) == 0 {
		return 0, 0
	}
	return n.offset, n.lastVisible() + 1
}

// lastVisible is the last row whose first line fits the viewport.
func (n *Navigator) lastVisible() int {
	line := 0
	last := n.offset
	for i := n.offset; i < len(n.rows); i++ {
		if line >= n.height {
			break
		}
		last = i
		line += n.rows[i].Height()
	}
	return last
}

// maxOffset is the smallest offset that still fills the viewport with the
// last rows.
func (n *Navigator) maxOffset() int {
	line := 0
	for i := len(n.rows) - 1; i >= 0; i-- {
		line += n.rows[i].Height()
		if line > n.height {
			return min(i+1, len(n.rows)-1)
		}
	}
	return 0
}

func (n *Navigator) clampOffset() {
	n.offset = min(max(n.offset, 0), max(n.maxOffset(), 0))
}

// ensureVisible scrolls so the cursor row is fully drawn.
func (n *Navigator) ensureVisible() {
	if len(n.rows) == 0 {
		return
	}
	if n.cursor < n.offset {
		n.offset = n.cursor
		return
	}
	for n.offset < n.cursor {
		lines := 0
		for i := n.offset; i <= n.cursor; i++ {
			lines += n.rows[i].Height()
		}
		if lines <= n.height {
			return
		}
		n.offset++
	}
}
