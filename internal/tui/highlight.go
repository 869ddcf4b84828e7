package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
	"github.com/thiagokokada/jjk-go/internal/diff"
)

// segment is a run of text drawn with one syntax colour.
type segment struct {
	text  string
	color string
}

// highlighter colours diff lines with chroma. Lexers are cached per path
// because matching by filename is comparatively slow.
type highlighter struct {
	enabled bool
	style   *chroma.Style
	lexers  map[string]chroma.Lexer
}

func newHighlighter(enabled bool, p colorPalette) *highlighter {
	return &highlighter{
		enabled: enabled,
		style:   styleForPalette(p),
		lexers:  make(map[string]chroma.Lexer),
	}
}

func (h *highlighter) lexer(path string) chroma.Lexer {
	if l, ok := h.lexers[path]; ok {
		return l
	}
	l := lexerForPath(path)
	h.lexers[path] = l
	return l
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if entry.Colour.IsSet() {
		col := entry.Colour.String()
		col = strings.TrimPrefix(strings.ToLower(col), "#")
		return "#" + col
	}
	return ""
}

func (h *highlighter) segments(path, code string) []segment {
	if !h.enabled || h.style == nil {
		return []segment{{text: code}}
	}
	lexer := h.lexer(path)
	if lexer == nil {
		return []segment{{text: code}}
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []segment{{text: code}}
	}
	var out []segment
	for _, token := range iterator.Tokens() {
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}
		out = append(out, segment{text: value, color: colorFromEntry(h.style.Get(token.Type))})
	}
	return out
}

// renderLine draws one diff line: syntax colours from chroma, base for text
// without one, and emph over the intraline spans.
func (h *highlighter) renderLine(path string, line *diff.Line, base, emph lipgloss.Style) string {
	text := line.Text
	var b strings.Builder
	pos := 0
	spans := line.Spans
	for _, seg := range h.segments(path, text) {
		style := base
		if seg.color != "" {
			style = style.Foreground(lipgloss.Color(seg.color))
		}
		runes := []rune(seg.text)
		start := 0
		for start < len(runes) {
			abs := pos + start
			inSpan, boundary := spanAt(spans, abs)
			end := min(len(runes), boundary-pos)
			if end <= start {
				end = len(runes)
			}
			piece := expandTabs(string(runes[start:end]))
			if inSpan {
				b.WriteString(emph.Inherit(style).Render(piece))
			} else {
				b.WriteString(style.Render(piece))
			}
			start = end
		}
		pos += len(runes)
	}
	return b.String()
}

// spanAt reports whether rune offset pos lies in one of spans and the offset
// where that answer next changes.
func spanAt(spans []diff.Span, pos int) (bool, int) {
	next := int(^uint(0) >> 1)
	for _, s := range spans {
		if pos >= s.Start && pos < s.End {
			return true, s.End
		}
		if s.Start > pos && s.Start < next {
			next = s.Start
		}
	}
	return false, next
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
