package diff

import "fmt"

type Status uint8

const (
	StatusModified Status = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusCopied
)

func (s Status) Letter() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusCopied:
		return "C"
	default:
		return "M"
	}
}

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusCopied:
		return "copied"
	default:
		return "modified"
	}
}

// FileChange is one entry of a change's file summary. OldPath is only set for
// renames and copies.
type FileChange struct {
	Status  Status
	Path    string
	OldPath string
}

func (f FileChange) Display() string {
	if f.OldPath != "" && f.OldPath != f.Path {
		return fmt.Sprintf("%s => %s", f.OldPath, f.Path)
	}
	return f.Path
}

type LineKind uint8

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

func (k LineKind) Prefix() string {
	switch k {
	case LineAdded:
		return "+"
	case LineRemoved:
		return "-"
	default:
		return " "
	}
}

// Span is a half-open rune range inside Line.Text.
type Span struct {
	Start int
	End   int
}

type Line struct {
	Kind LineKind
	Text string
	// OldNo and NewNo are 1-based; zero means the line has no number on that side.
	OldNo int
	NewNo int
	Spans []Span
	// NoNewline marks the last line of a file without a trailing newline.
	NoNewline bool
}

type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Section  string
	Lines    []Line
}

func (h Hunk) Header() string {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
	if h.Section != "" {
		header += " " + h.Section
	}
	return header
}

// FileDiff is the parsed diff of a single file.
type FileDiff struct {
	Path    string
	OldPath string
	Binary  bool
	Hunks   []Hunk
}
