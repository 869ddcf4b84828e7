package graph

import (
	"maps"
	"slices"
)

type FoldMode uint8

const (
	// FoldOpen is the implicit state of a commit without an entry: the row is
	// shown and its files are not.
	FoldOpen FoldMode = iota
	// FoldCollapsed hides the files and every descendant reachable only
	// through collapsed commits.
	FoldCollapsed
	FoldFiles
	FoldDiff
)

func (m FoldMode) String() string {
	switch m {
	case FoldCollapsed:
		return "collapsed"
	case FoldFiles:
		return "expanded-files"
	case FoldDiff:
		return "expanded-diff"
	default:
		return "open"
	}
}

type Fold struct {
	Mode FoldMode
	// Path is the expanded file when Mode is FoldDiff.
	Path string
}

func (f Fold) ShowsFiles() bool {
	return f.Mode == FoldFiles || f.Mode == FoldDiff
}

// FoldState maps node IDs to their fold. It is a value: every change returns
// a new FoldState and leaves the receiver untouched.
type FoldState struct {
	entries map[string]Fold
}

func NewFoldState() FoldState {
	return FoldState{}
}

func (s FoldState) Get(id string) Fold {
	return s.entries[id]
}

func (s FoldState) Len() int {
	return len(s.entries)
}

// IDs returns the IDs with an entry, sorted.
func (s FoldState) IDs() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

func (s FoldState) With(id string, f Fold) FoldState {
	next := maps.Clone(s.entries)
	if next == nil {
		next = make(map[string]Fold)
	}
	if f.Mode == FoldOpen {
		delete(next, id)
	} else {
		if f.Mode != FoldDiff {
			f.Path = ""
		}
		next[id] = f
	}
	return FoldState{entries: next}
}

// ToggleCommit cycles a commit row: collapsed or open → expanded-files →
// collapsed. Expanded-diff counts as expanded.
func (s FoldState) ToggleCommit(id string) FoldState {
	if s.Get(id).ShowsFiles() {
		return s.With(id, Fold{Mode: FoldCollapsed})
	}
	return s.With(id, Fold{Mode: FoldFiles})
}

// ToggleFile cycles a file row: expanded-files → expanded-diff(path) →
// expanded-files. Toggling another file while a diff is shown switches the
// diff to that file.
func (s FoldState) ToggleFile(id, path string) FoldState {
	cur := s.Get(id)
	if cur.Mode == FoldDiff && cur.Path == path {
		return s.With(id, Fold{Mode: FoldFiles})
	}
	return s.With(id, Fold{Mode: FoldDiff, Path: path})
}

// Remap keeps the entries whose ID still exists in snap.
func (s FoldState) Remap(snap *Snapshot) FoldState {
	next := make(map[string]Fold, len(s.entries))
	for id, f := range s.entries {
		if snap.Has(id) {
			next[id] = f
		}
	}
	return FoldState{entries: next}
}

func (s FoldState) Equal(other FoldState) bool {
	return maps.Equal(s.entries, other.entries)
}
