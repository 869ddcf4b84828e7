package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/thiagokokada/jjk-go/internal/diff"
)

func TestLexerForPath(t *testing.T) {
	if lexerForPath("main.go") == nil {
		t.Fatal("expected a lexer for .go files")
	}
	if lexerForPath("no-such-extension.zzzz") != nil {
		t.Fatal("expected no lexer for unknown files")
	}
}

func TestRenderLinePlainText(t *testing.T) {
	h := newHighlighter(false, lightPalette)
	line := &diff.Line{Kind: diff.LineAdded, Text: "\tx := 1", Spans: []diff.Span{{Start: 1, End: 2}}}
	got := h.renderLine("main.go", line, lipgloss.NewStyle(), lipgloss.NewStyle())
	if want := "    x := 1"; got != want {
		t.Fatalf("renderLine() = %q, want %q", got, want)
	}
}

func TestRenderLineKeepsTextWithSyntax(t *testing.T) {
	h := newHighlighter(true, darkPalette)
	line := &diff.Line{Kind: diff.LineRemoved, Text: "func main() {}", Spans: []diff.Span{{Start: 5, End: 9}}}
	got := h.renderLine("main.go", line, lipgloss.NewStyle(), lipgloss.NewStyle().Bold(true))
	if stripped := ansi.Strip(got); stripped != line.Text {
		t.Fatalf("rendered text = %q, want %q", stripped, line.Text)
	}
}

func TestSpanAt(t *testing.T) {
	spans := []diff.Span{{Start: 2, End: 4}, {Start: 7, End: 8}}
	tests := []struct {
		pos      int
		inSpan   bool
		boundary int
	}{
		{pos: 0, inSpan: false, boundary: 2},
		{pos: 2, inSpan: true, boundary: 4},
		{pos: 5, inSpan: false, boundary: 7},
		{pos: 7, inSpan: true, boundary: 8},
	}
	for _, tt := range tests {
		in, b := spanAt(spans, tt.pos)
		if in != tt.inSpan || b != tt.boundary {
			t.Fatalf("spanAt(%d) = %v, %d; want %v, %d", tt.pos, in, b, tt.inSpan, tt.boundary)
		}
	}
	if in, _ := spanAt(spans, 9); in {
		t.Fatal("position past every span reported inside one")
	}
}
