package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/thiagokokada/jjk-go/internal/config"
	"github.com/thiagokokada/jjk-go/internal/diff"
	"github.com/thiagokokada/jjk-go/internal/graph"
	"github.com/thiagokokada/jjk-go/internal/jj"
)

const timeLayout = "2006-01-02 15:04"

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	body := m.bodyView()
	if m.showHelp {
		body = m.helpView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.statusView())
}

func (m *Model) line(s string) string {
	return ansi.Truncate(s, m.width, "…")
}

func (m *Model) headerView() string {
	parts := []string{config.AppName, m.svc.Root()}
	for _, r := range m.remotes {
		if len(r.URLs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.URLs[0]))
		}
	}
	if m.ignoreImmutable {
		parts = append(parts, "--ignore-immutable")
	}
	if p, ok := m.dispatch.Pending(); ok {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", m.spinner.View(), p.Op, m.dispatch.State()))
	} else if m.ingesting {
		parts = append(parts, m.spinner.View()+" loading")
	}
	header := " " + strings.Join(parts, " · ")
	return m.styles.header.Width(m.width).MaxWidth(m.width).Render(header)
}

func (m *Model) statusView() string {
	var text string
	style := m.styles.status
	switch {
	case m.dispatch.Err() != nil:
		text, style = "error: "+errorMessage(m.dispatch.Err())+" (esc to dismiss)", m.styles.errorBar
	case m.refreshErr != nil:
		text, style = "refresh failed: "+errorMessage(m.refreshErr)+" (esc to dismiss)", m.styles.errorBar
	case m.notice != "":
		text = m.notice
	case m.nav.Snapshot() != nil && m.nav.Snapshot().Partial():
		text, style = fmt.Sprintf("warning: %d log lines could not be parsed", len(m.nav.Snapshot().Warnings())), m.styles.warning
	default:
		return m.line(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return style.Width(m.width).MaxWidth(m.width).Render(text)
}

// errorMessage flattens err to a single banner line, preferring what jj
// printed on stderr.
func errorMessage(err error) string {
	msg := err.Error()
	var exitErr *jj.ExitError
	if errors.As(err, &exitErr) {
		msg = exitErr.Message()
	}
	return strings.Join(strings.Fields(msg), " ")
}

func (m *Model) helpView() string {
	box := m.styles.helpBox.Render(m.help.FullHelpView(m.keys.FullHelp()))
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) bodyView() string {
	height := m.bodyHeight()
	lines := make([]string, 0, height)
	snap := m.nav.Snapshot()
	switch {
	case snap == nil:
		lines = append(lines, m.styles.muted.Render(" loading…"))
	case snap.Len() == 0:
		lines = append(lines, m.styles.muted.Render(" no revisions"))
	default:
		rows := m.nav.Rows()
		for i := m.nav.Offset(); i < len(rows) && len(lines) < height; i++ {
			lines = append(lines, m.rowLines(rows[i], i == m.nav.Cursor())...)
		}
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

// painter renders text with a row style, adding the selection background
// when the row is under the cursor.
type painter struct {
	selected bool
	bg       lipgloss.TerminalColor
}

func (p painter) style(s lipgloss.Style) lipgloss.Style {
	if p.selected {
		return s.Background(p.bg)
	}
	return s
}

func (p painter) paint(s lipgloss.Style, text string) string {
	return p.style(s).Render(text)
}

func (m *Model) rowLines(row graph.Row, selected bool) []string {
	p := painter{selected: selected, bg: m.styles.selected.GetBackground()}
	var text string
	switch row.Kind {
	case graph.RowCommit:
		text = m.commitLine(row, p)
	case graph.RowFile:
		text = m.fileLine(row, p)
	case graph.RowHunk:
		text = p.paint(m.styles.muted, row.Node.Indent+"    ") + p.paint(m.styles.hunk, row.Hunk.Header())
	case graph.RowLine:
		text = m.diffLine(row, p)
	case graph.RowNotice:
		text = m.noticeLine(row, p)
	}
	if selected {
		if pad := m.width - lipgloss.Width(text); pad > 0 {
			text += p.paint(lipgloss.NewStyle(), strings.Repeat(" ", pad))
		}
	}
	out := make([]string, 0, row.Height())
	for _, l := range row.Leader {
		out = append(out, m.line(m.styles.muted.Render(l)))
	}
	out = append(out, m.line(text))
	for _, t := range row.Trailer {
		out = append(out, m.line(m.styles.muted.Render(t)))
	}
	return out
}

func foldMarker(f graph.Fold) string {
	switch f.Mode {
	case graph.FoldCollapsed:
		return "▸"
	case graph.FoldFiles, graph.FoldDiff:
		return "▾"
	default:
		return " "
	}
}

func (m *Model) commitLine(row graph.Row, p painter) string {
	n := row.Node
	plain := lipgloss.NewStyle()
	var b strings.Builder
	b.WriteString(p.paint(m.styles.muted, n.Graph))
	b.WriteString(p.paint(plain, " "+foldMarker(row.Fold)+" "))
	idStyle := m.styles.changeID
	switch {
	case n.WorkingCopy:
		idStyle = m.styles.working
	case n.Immutable:
		idStyle = m.styles.immutable
	}
	b.WriteString(p.paint(idStyle, n.ChangeID))
	if n.Divergent {
		b.WriteString(p.paint(m.styles.conflict, "??"))
	}
	if n.Author.Email != "" {
		b.WriteString(p.paint(m.styles.muted, " "+n.Author.Email))
	}
	if !n.Author.When.IsZero() {
		b.WriteString(p.paint(m.styles.muted, " "+n.Author.When.Local().Format(timeLayout)))
	}
	for _, bm := range n.Bookmarks {
		b.WriteString(p.paint(m.styles.bookmark, " "+bm))
	}
	if n.CommitID != "" {
		b.WriteString(p.paint(m.styles.commitID, " "+n.CommitID))
	}
	if n.Conflict {
		b.WriteString(p.paint(m.styles.conflict, " conflict"))
	}
	if n.Empty {
		b.WriteString(p.paint(m.styles.working, " (empty)"))
	}
	desc := n.Description
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		desc = desc[:i]
	}
	if desc == "" && !n.Root {
		b.WriteString(p.paint(m.styles.muted, " (no description set)"))
	} else if desc != "" {
		b.WriteString(p.paint(plain, " "+desc))
	}
	if row.Hidden > 0 {
		b.WriteString(p.paint(m.styles.muted, fmt.Sprintf(" [+%d hidden]", row.Hidden)))
	}
	return b.String()
}

func (m *Model) fileLine(row graph.Row, p painter) string {
	marker := " "
	if row.Fold.Mode == graph.FoldDiff && row.Fold.Path == row.File.Path {
		marker = "▾"
	}
	style := lipgloss.NewStyle()
	switch row.File.Status {
	case diff.StatusAdded, diff.StatusCopied:
		style = m.styles.added
	case diff.StatusDeleted:
		style = m.styles.removed
	}
	return p.paint(m.styles.muted, row.Node.Indent+"  "+marker+" ") +
		p.paint(style, row.File.Status.Letter()+" "+row.File.Display())
}

func (m *Model) diffLine(row graph.Row, p painter) string {
	line := row.Line
	base := lipgloss.NewStyle()
	emph := lipgloss.NewStyle()
	switch line.Kind {
	case diff.LineAdded:
		base, emph = m.styles.added, m.styles.emphAdd
	case diff.LineRemoved:
		base, emph = m.styles.removed, m.styles.emphDel
	}
	base = p.style(base)
	text := p.paint(m.styles.muted, row.Node.Indent+"    ") +
		base.Render(line.Kind.Prefix()) +
		m.hl.renderLine(row.File.Path, line, base, emph)
	if line.NoNewline {
		text += p.paint(m.styles.muted, " (no newline at end of file)")
	}
	return text
}

func (m *Model) noticeLine(row graph.Row, p painter) string {
	indent := "  "
	if row.Key.Path != "" {
		indent = "    "
	}
	style := m.styles.muted
	if row.Err != nil {
		style = m.styles.errorText
	}
	return p.paint(m.styles.muted, row.Node.Indent+indent) + p.paint(style, row.Text)
}
