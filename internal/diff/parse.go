package diff

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

const noNewlineMarker = `\ No newline at end of file`

// ParseGit parses git-format diff text into one FileDiff per "diff --git"
// section. Intraline spans are computed for every hunk.
func ParseGit(text string) ([]FileDiff, error) {
	var (
		files []FileDiff
		cur   *FileDiff
		hunk  *Hunk
		oldNo int
		newNo int
	)
	flushHunk := func() {
		if cur != nil && hunk != nil {
			AddIntraline(hunk)
			cur.Hunks = append(cur.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		line := sc.Text()
		lineNo++
		if strings.HasPrefix(line, "diff --git ") {
			flushFile()
			oldPath, newPath := parseGitDiffPaths(line)
			cur = &FileDiff{Path: newPath}
			if oldPath != newPath {
				cur.OldPath = oldPath
			}
			continue
		}
		if cur == nil {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			flushHunk()
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			hunk = &h
			oldNo, newNo = h.OldStart, h.NewStart
			continue
		}
		if hunk == nil {
			switch {
			case strings.HasPrefix(line, "rename from "):
				cur.OldPath = strings.TrimPrefix(line, "rename from ")
			case strings.HasPrefix(line, "rename to "):
				cur.Path = strings.TrimPrefix(line, "rename to ")
			case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
				cur.Binary = true
			}
			continue
		}
		if line == noNewlineMarker {
			if n := len(hunk.Lines); n > 0 {
				hunk.Lines[n-1].NoNewline = true
			}
			continue
		}
		var l Line
		switch {
		case strings.HasPrefix(line, "+"):
			l = Line{Kind: LineAdded, Text: line[1:], NewNo: newNo}
			newNo++
		case strings.HasPrefix(line, "-"):
			l = Line{Kind: LineRemoved, Text: line[1:], OldNo: oldNo}
			oldNo++
		case strings.HasPrefix(line, " "), line == "":
			text := line
			if text != "" {
				text = text[1:]
			}
			l = Line{Kind: LineContext, Text: text, OldNo: oldNo, NewNo: newNo}
			oldNo++
			newNo++
		default:
			// Extended header lines after the last hunk belong to no hunk.
			flushHunk()
			continue
		}
		hunk.Lines = append(hunk.Lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan diff: %w", err)
	}
	flushFile()
	return files, nil
}

func parseHunkHeader(line string) (Hunk, error) {
	rest := strings.TrimPrefix(line, "@@")
	end := strings.Index(rest, "@@")
	if end < 0 {
		return Hunk{}, fmt.Errorf("malformed hunk header %q", line)
	}
	ranges := strings.Fields(rest[:end])
	if len(ranges) != 2 || !strings.HasPrefix(ranges[0], "-") || !strings.HasPrefix(ranges[1], "+") {
		return Hunk{}, fmt.Errorf("malformed hunk header %q", line)
	}
	var h Hunk
	var err error
	if h.OldStart, h.OldLines, err = parseRange(ranges[0][1:]); err != nil {
		return Hunk{}, fmt.Errorf("hunk header %q: %w", line, err)
	}
	if h.NewStart, h.NewLines, err = parseRange(ranges[1][1:]); err != nil {
		return Hunk{}, fmt.Errorf("hunk header %q: %w", line, err)
	}
	h.Section = strings.TrimSpace(rest[end+2:])
	return h, nil
}

func parseRange(s string) (start, count int, err error) {
	startStr, countStr, hasCount := strings.Cut(s, ",")
	start, err = strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, err
	}
	count = 1
	if hasCount {
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return 0, 0, err
		}
	}
	return start, count, nil
}

func parseGitDiffPaths(line string) (oldPath, newPath string) {
	const prefix = "diff --git "
	tokens := diffLineTokens(strings.TrimSpace(line[len(prefix):]))
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		p := normalizeDiffPath(tokens[0])
		return p, p
	default:
		return normalizeDiffPath(tokens[0]), normalizeDiffPath(tokens[1])
	}
}

func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		if s[0] == '"' {
			var buf strings.Builder
			escaped := false
			i := 1
			for ; i < len(s); i++ {
				ch := s[i]
				if escaped {
					buf.WriteByte(ch)
					escaped = false
					continue
				}
				if ch == '\\' {
					escaped = true
					continue
				}
				if ch == '"' {
					i++
					break
				}
				buf.WriteByte(ch)
			}
			tokens = append(tokens, buf.String())
			s = s[i:]
			continue
		}
		j := strings.IndexAny(s, " \t")
		if j < 0 {
			j = len(s)
		}
		tokens = append(tokens, s[:j])
		s = s[j:]
	}
	return tokens
}

func normalizeDiffPath(token string) string {
	if token == "/dev/null" {
		return token
	}
	if strings.HasPrefix(token, "a/") || strings.HasPrefix(token, "b/") {
		return token[2:]
	}
	return token
}
