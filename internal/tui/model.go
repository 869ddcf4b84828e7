// Package tui is the interactive terminal front-end: a bubbletea model over
// the jj log graph, its folds and the command dispatcher.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/thiagokokada/jjk-go/internal/config"
	"github.com/thiagokokada/jjk-go/internal/diff"
	"github.com/thiagokokada/jjk-go/internal/dispatch"
	"github.com/thiagokokada/jjk-go/internal/graph"
	"github.com/thiagokokada/jjk-go/internal/jj"
	"github.com/thiagokokada/jjk-go/internal/jj/backend"
	"github.com/thiagokokada/jjk-go/internal/tui/nav"
)

const (
	headerHeight = 1
	statusHeight = 1
	wheelStep    = 3
)

// Service is the subset of *jj.Service the model drives.
type Service interface {
	Root() string
	Ingest(ctx context.Context, generation uint64) (*graph.Snapshot, error)
	FileSummary(ctx context.Context, change string) ([]diff.FileChange, error)
	FileDiff(ctx context.Context, change string, file diff.FileChange) (*diff.FileDiff, error)
	Run(ctx context.Context, req jj.Request) (backend.Result, error)
	Command(ctx context.Context, req jj.Request) (*exec.Cmd, error)
}

type Options struct {
	Bookmark        string
	IgnoreImmutable bool
	Keys            config.Keybindings
	Theme           ThemePreference
	Syntax          bool
	Mouse           bool
	// OpHeads reads the repository operation heads; reloads requested by the
	// watcher are skipped while they are unchanged. Nil disables the check.
	OpHeads func() ([]string, error)
	Remotes func() ([]jj.Remote, error)
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    Service
	opts   Options

	nav      *nav.Navigator
	loader   *diff.Loader
	dispatch *dispatch.Dispatcher

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	styles  Styles
	hl      *highlighter

	width           int
	height          int
	showHelp        bool
	ignoreImmutable bool

	// gen is the generation of the latest requested ingestion; snapshots of
	// any other generation are discarded.
	gen          uint64
	cancelIngest context.CancelFunc
	ingesting    bool
	ingested     bool
	opHeads      []string
	remotes      []jj.Remote

	refreshErr error
	notice     string
}

func New(svc Service, opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	palette := paletteForPreference(opts.Theme)
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return &Model{
		ctx:             ctx,
		cancel:          cancel,
		svc:             svc,
		opts:            opts,
		nav:             nav.New(),
		loader:          diff.NewLoader(),
		dispatch:        dispatch.New(),
		keys:            newKeyMap(opts.Keys),
		help:            help.New(),
		spinner:         sp,
		styles:          createStyles(palette),
		hl:              newHighlighter(opts.Syntax, palette),
		ignoreImmutable: opts.IgnoreImmutable,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startIngest(0), remotesCmd(m.opts.Remotes))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.nav.SetHeight(m.bodyHeight())
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case snapshotMsg:
		return m, m.applySnapshot(msg)
	case filesMsg:
		if m.loader.Complete(msg.key, msg.token, diff.Entry{Files: msg.files, Err: msg.err}) {
			m.refreshRows()
			return m, m.ensureLoads()
		}
	case fileDiffMsg:
		if m.loader.Complete(msg.key, msg.token, diff.Entry{Diff: msg.diff, Err: msg.err}) {
			m.refreshRows()
		}
	case commandDoneMsg:
		return m, m.commandDone(msg)
	case reloadMsg:
		return m, m.reload()
	case remotesMsg:
		if msg.err != nil {
			slog.Debug("remotes unavailable", slog.Any("error", msg.err))
			return m, nil
		}
		m.remotes = msg.remotes
	}
	return m, nil
}

func (m *Model) bodyHeight() int {
	return max(m.height-headerHeight-statusHeight, 1)
}

func (m *Model) busy() bool {
	return m.ingesting || m.dispatch.Busy()
}

func (m *Model) shutdown() {
	if m.cancelIngest != nil {
		m.cancelIngest()
	}
	m.cancel()
}

func (m *Model) startIngest(token uint64) tea.Cmd {
	if m.cancelIngest != nil {
		m.cancelIngest()
	}
	m.gen++
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelIngest = cancel
	m.ingesting = true
	slog.Debug("ingest", slog.Uint64("generation", m.gen), slog.Uint64("token", token))
	return tea.Batch(ingestCmd(ctx, m.svc, m.opts.OpHeads, m.gen, token), m.spinner.Tick)
}

func (m *Model) applySnapshot(msg snapshotMsg) tea.Cmd {
	if msg.gen != m.gen {
		slog.Debug("discarding stale snapshot", slog.Uint64("generation", msg.gen), slog.Uint64("latest", m.gen))
		return nil
	}
	m.ingesting = false
	if m.cancelIngest != nil {
		m.cancelIngest()
		m.cancelIngest = nil
	}
	if msg.token != 0 {
		m.dispatch.RefreshDone(msg.token, msg.err)
	}
	if msg.err != nil {
		slog.Error("ingest failed", slog.Any("error", msg.err))
		if msg.token == 0 {
			m.refreshErr = msg.err
		}
		return nil
	}
	m.refreshErr = nil
	m.opHeads = msg.opHeads
	folds := m.nav.Folds()
	if !m.ingested {
		m.ingested = true
		if wc := msg.snap.WorkingCopy(); wc != "" {
			folds = folds.With(wc, graph.Fold{Mode: graph.FoldFiles})
		}
	}
	m.nav.SetFolds(folds.Remap(msg.snap))
	m.loader.Reset(msg.snap.Generation())
	m.nav.Resync(msg.snap, graph.VisibleOrder(msg.snap, m.nav.Folds(), m.loader))
	return m.ensureLoads()
}

func (m *Model) refreshRows() {
	snap := m.nav.Snapshot()
	if snap == nil {
		return
	}
	m.nav.Resync(snap, graph.VisibleOrder(snap, m.nav.Folds(), m.loader))
}

// ensureLoads starts the loads every expanded entry needs and that are
// neither cached nor in flight. Failed loads are not retried here.
func (m *Model) ensureLoads() tea.Cmd {
	snap := m.nav.Snapshot()
	if snap == nil {
		return nil
	}
	folds := m.nav.Folds()
	hidden := graph.Hidden(snap, folds)
	var cmds []tea.Cmd
	for _, id := range folds.IDs() {
		f := folds.Get(id)
		n, ok := snap.Node(id)
		if !ok || !f.ShowsFiles() || hidden[id] {
			continue
		}
		if t, start := m.loader.Begin(m.ctx, id, ""); start {
			cmds = append(cmds, loadFilesCmd(m.svc, t, n.Target()))
			continue
		}
		if f.Mode != graph.FoldDiff {
			continue
		}
		files, state, _ := m.loader.Files(id)
		if state != diff.StateLoaded {
			continue
		}
		i := slices.IndexFunc(files, func(fc diff.FileChange) bool { return fc.Path == f.Path })
		if i < 0 {
			continue
		}
		if t, start := m.loader.Begin(m.ctx, id, f.Path); start {
			cmds = append(cmds, loadDiffCmd(m.svc, t, n.Target(), files[i]))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Dismiss) {
			m.showHelp = false
		}
		return nil
	}
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Up):
		m.nav.Up()
	case key.Matches(msg, m.keys.Down):
		m.nav.Down()
	case key.Matches(msg, m.keys.Left):
		m.nav.Left()
	case key.Matches(msg, m.keys.Right):
		m.nav.Right()
	case key.Matches(msg, m.keys.Parent):
		m.nav.Parent()
	case key.Matches(msg, m.keys.WorkingCopy):
		m.nav.WorkingCopy()
	case key.Matches(msg, m.keys.PageUp):
		m.nav.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.nav.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.nav.Home()
	case key.Matches(msg, m.keys.End):
		m.nav.End()
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle()
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.Dismiss):
		return m.dismiss()
	case key.Matches(msg, m.keys.IgnoreImmutable):
		m.ignoreImmutable = !m.ignoreImmutable
		m.notice = fmt.Sprintf("--ignore-immutable %s", onOff(m.ignoreImmutable))
	default:
		if op, ok := m.keys.opFor(msg); ok {
			return m.runOp(op)
		}
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !m.opts.Mouse || m.showHelp || msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.nav.Scroll(-wheelStep)
	case tea.MouseButtonWheelDown:
		m.nav.Scroll(wheelStep)
	case tea.MouseButtonLeft, tea.MouseButtonRight:
		i, ok := m.nav.RowAt(msg.Y - headerHeight)
		if !ok {
			return nil
		}
		again := i == m.nav.Cursor()
		m.nav.Select(i)
		if again || msg.Button == tea.MouseButtonRight {
			return m.toggle()
		}
	}
	return nil
}

func (m *Model) toggle() tea.Cmd {
	before := m.nav.Folds()
	id, ok := m.nav.Toggle()
	if !ok {
		return nil
	}
	m.cancelObsolete(id, before.Get(id), m.nav.Folds().Get(id))
	m.pruneLoads()
	m.refreshRows()
	return m.ensureLoads()
}

// cancelObsolete stops loads whose content a fold change no longer shows.
func (m *Model) cancelObsolete(id string, before, after graph.Fold) {
	if before.ShowsFiles() && !after.ShowsFiles() {
		m.loader.Cancel(id, "")
	}
	if before.Mode == graph.FoldDiff && (after.Mode != graph.FoldDiff || after.Path != before.Path) {
		m.loader.Cancel(id, before.Path)
	}
}

// pruneLoads cancels in-flight loads whose content is no longer on screen,
// including those of expanded commits hidden under a collapsed ancestor.
func (m *Model) pruneLoads() {
	snap := m.nav.Snapshot()
	if snap == nil {
		return
	}
	folds := m.nav.Folds()
	hidden := graph.Hidden(snap, folds)
	m.loader.Retain(func(change, path string) bool {
		f := folds.Get(change)
		switch {
		case hidden[change]:
			return false
		case path == "":
			return f.ShowsFiles()
		default:
			return f.Mode == graph.FoldDiff && f.Path == path
		}
	})
}

func (m *Model) dismiss() tea.Cmd {
	if m.dispatch.Err() != nil || m.refreshErr != nil {
		m.dispatch.Dismiss()
		m.refreshErr = nil
		return nil
	}
	m.nav.SetFolds(graph.NewFoldState())
	m.loader.Retain(func(string, string) bool { return false })
	m.refreshRows()
	return nil
}

func (m *Model) refresh() tea.Cmd {
	if m.dispatch.Busy() {
		m.notice = "refresh: " + dispatch.ErrBusy.Error()
		return nil
	}
	return m.startIngest(0)
}

// reload handles a change noticed by the watcher.
func (m *Model) reload() tea.Cmd {
	if m.dispatch.Busy() {
		slog.Debug("reload skipped: command in flight")
		return nil
	}
	if m.opts.OpHeads != nil {
		heads, err := m.opts.OpHeads()
		if err == nil && slices.Equal(heads, m.opHeads) {
			slog.Debug("reload skipped: op heads unchanged")
			return nil
		}
	}
	return m.startIngest(0)
}

func (m *Model) runOp(op jj.Op) tea.Cmd {
	var target, id string
	if op.NeedsTarget() {
		row, ok := m.nav.CursorRow()
		if !ok || row.Node == nil {
			m.notice = fmt.Sprintf("%s: no change selected", op)
			return nil
		}
		target, id = row.Node.Target(), row.Node.ID
	}
	p, err := m.dispatch.Begin(op, id)
	if err != nil {
		m.notice = fmt.Sprintf("%s rejected: %v", op, err)
		return nil
	}
	req := jj.Request{
		Op:              op,
		Target:          target,
		Bookmark:        m.opts.Bookmark,
		IgnoreImmutable: m.ignoreImmutable,
	}
	slog.Info("dispatch",
		slog.String("op", op.String()),
		slog.String("target", target),
		slog.Uint64("token", p.Token),
	)
	if op.Interactive() {
		cmd, err := m.svc.Command(m.ctx, req)
		if err != nil {
			return func() tea.Msg { return commandDoneMsg{token: p.Token, op: op, err: err} }
		}
		return execCmd(cmd, p.Token, op)
	}
	return tea.Batch(runCmd(m.ctx, m.svc, p.Token, req), m.spinner.Tick)
}

func (m *Model) commandDone(msg commandDoneMsg) tea.Cmd {
	if !m.dispatch.Resolve(msg.token, msg.err) {
		if msg.err != nil {
			slog.Error("command failed", slog.String("op", msg.op.String()), slog.Any("error", msg.err))
		}
		return nil
	}
	return m.startIngest(msg.token)
}
