package jj

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/jjk-go/internal/diff"
)

// ParseSummary parses "jj diff --summary" output: one "<letter> <path>" line
// per file. Renames and copies are printed as "pre{old => new}post".
func ParseSummary(out string) ([]diff.FileChange, error) {
	var files []diff.FileChange
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		letter, path, ok := strings.Cut(line, " ")
		if !ok || path == "" {
			return nil, fmt.Errorf("unexpected summary line %q", line)
		}
		var fc diff.FileChange
		switch letter {
		case "M":
			fc.Status = diff.StatusModified
		case "A":
			fc.Status = diff.StatusAdded
		case "D":
			fc.Status = diff.StatusDeleted
		case "R":
			fc.Status = diff.StatusRenamed
		case "C":
			fc.Status = diff.StatusCopied
		default:
			return nil, fmt.Errorf("unexpected summary status %q in %q", letter, line)
		}
		fc.Path = path
		if fc.Status == diff.StatusRenamed || fc.Status == diff.StatusCopied {
			fc.OldPath, fc.Path = splitRename(path)
		}
		files = append(files, fc)
	}
	return files, nil
}

// splitRename expands "src/{a => b}/x.go" into "src/a/x.go" and "src/b/x.go".
// Empty sides collapse the doubled separator ("{ => sub}/x" → "x", "sub/x").
func splitRename(s string) (oldPath, newPath string) {
	open := strings.IndexByte(s, '{')
	closing := strings.LastIndexByte(s, '}')
	if open < 0 || closing < open {
		if before, after, ok := strings.Cut(s, " => "); ok {
			return before, after
		}
		return s, s
	}
	inner := s[open+1 : closing]
	before, after, ok := strings.Cut(inner, " => ")
	if !ok {
		return s, s
	}
	prefix, suffix := s[:open], s[closing+1:]
	return joinRename(prefix, before, suffix), joinRename(prefix, after, suffix)
}

func joinRename(prefix, middle, suffix string) string {
	if middle == "" {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(suffix, "/") {
			suffix = suffix[1:]
		} else if prefix == "" {
			suffix = strings.TrimPrefix(suffix, "/")
		}
	}
	return prefix + middle + suffix
}
