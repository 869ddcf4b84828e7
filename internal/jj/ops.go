package jj

import "fmt"

// Op is a mutating jj operation the user can trigger.
type Op uint8

const (
	OpFetch Op = iota
	OpPull
	OpAbandon
	OpSquash
	OpCommit
	OpEdit
	OpDescribe
	OpNew
	OpUndo
	OpPush
	OpSetBookmark
)

// Ops lists every operation in help order.
var Ops = []Op{
	OpFetch, OpPull, OpAbandon, OpSquash, OpCommit, OpEdit,
	OpDescribe, OpNew, OpUndo, OpPush, OpSetBookmark,
}

const DefaultBookmark = "main"

func (o Op) String() string {
	switch o {
	case OpFetch:
		return "fetch-remote"
	case OpPull:
		return "pull-remote"
	case OpAbandon:
		return "abandon-change"
	case OpSquash:
		return "squash-change"
	case OpCommit:
		return "commit-working-copy"
	case OpEdit:
		return "edit-change"
	case OpDescribe:
		return "describe-change"
	case OpNew:
		return "new-change"
	case OpUndo:
		return "undo"
	case OpPush:
		return "push"
	case OpSetBookmark:
		return "set-bookmark"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Help is the short description used by the help overlay.
func (o Op) Help() string {
	switch o {
	case OpFetch:
		return "git fetch"
	case OpPull:
		return "fetch and rebase onto trunk"
	case OpAbandon:
		return "abandon change"
	case OpSquash:
		return "squash into parent"
	case OpCommit:
		return "commit working copy"
	case OpEdit:
		return "edit change"
	case OpDescribe:
		return "describe change"
	case OpNew:
		return "new change on top"
	case OpUndo:
		return "undo last operation"
	case OpPush:
		return "git push"
	case OpSetBookmark:
		return "move bookmark here"
	default:
		return o.String()
	}
}

// Interactive operations open $EDITOR and need the terminal.
func (o Op) Interactive() bool {
	switch o {
	case OpSquash, OpCommit, OpDescribe:
		return true
	default:
		return false
	}
}

// NeedsTarget reports whether the operation acts on the selected change.
func (o Op) NeedsTarget() bool {
	switch o {
	case OpPull, OpAbandon, OpSquash, OpEdit, OpDescribe, OpNew, OpSetBookmark:
		return true
	default:
		return false
	}
}

// Request is one dispatch of an operation.
type Request struct {
	Op Op
	// Target is the revision the operation acts on; see graph.Node.Target.
	Target          string
	Bookmark        string
	IgnoreImmutable bool
}

// Steps returns the argument vectors to run, in order. Every step must
// succeed before the next one runs.
func (r Request) Steps() ([][]string, error) {
	if r.Op.NeedsTarget() && r.Target == "" {
		return nil, fmt.Errorf("%s: no change selected", r.Op)
	}
	var steps [][]string
	switch r.Op {
	case OpFetch:
		steps = [][]string{{"git", "fetch"}}
	case OpPull:
		steps = [][]string{
			{"git", "fetch"},
			{"rebase", "-b", r.Target, "-d", "trunk()"},
		}
	case OpAbandon:
		steps = [][]string{{"abandon", r.Target}}
	case OpSquash:
		steps = [][]string{{"squash", "-r", r.Target}}
	case OpCommit:
		steps = [][]string{{"commit"}}
	case OpEdit:
		steps = [][]string{{"edit", r.Target}}
	case OpDescribe:
		steps = [][]string{{"describe", r.Target}}
	case OpNew:
		steps = [][]string{{"new", r.Target}}
	case OpUndo:
		steps = [][]string{{"undo"}}
	case OpPush:
		steps = [][]string{{"git", "push"}}
	case OpSetBookmark:
		name := r.Bookmark
		if name == "" {
			name = DefaultBookmark
		}
		steps = [][]string{{"bookmark", "set", name, "-r", r.Target}}
	default:
		return nil, fmt.Errorf("unknown operation %s", r.Op)
	}
	if r.IgnoreImmutable {
		for i, step := range steps {
			steps[i] = append([]string{"--ignore-immutable"}, step...)
		}
	}
	return steps, nil
}
