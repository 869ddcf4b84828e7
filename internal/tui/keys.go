package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/thiagokokada/jjk-go/internal/config"
	"github.com/thiagokokada/jjk-go/internal/jj"
)

type shortcut struct {
	action      string
	category    string
	description string
}

var shortcuts = []shortcut{
	{action: "up", category: "Navigation", description: "previous row"},
	{action: "down", category: "Navigation", description: "next row"},
	{action: "left", category: "Navigation", description: "previous sibling"},
	{action: "right", category: "Navigation", description: "next sibling"},
	{action: "parent", category: "Navigation", description: "parent commit"},
	{action: "working_copy", category: "Navigation", description: "working copy"},
	{action: "page_up", category: "Navigation", description: "page up"},
	{action: "page_down", category: "Navigation", description: "page down"},
	{action: "home", category: "Navigation", description: "first row"},
	{action: "end", category: "Navigation", description: "last row"},
	{action: "toggle", category: "View", description: "fold / unfold"},
	{action: "refresh", category: "View", description: "reload log"},
	{action: "dismiss", category: "View", description: "dismiss error / reset folds"},
	{action: "ignore_immutable", category: "View", description: "toggle --ignore-immutable"},
	{action: "help", category: "View", description: "toggle help"},
	{action: "quit", category: "View", description: "quit"},
}

var opActions = map[jj.Op]string{
	jj.OpFetch:       "fetch",
	jj.OpPull:        "pull",
	jj.OpAbandon:     "abandon",
	jj.OpSquash:      "squash",
	jj.OpCommit:      "commit",
	jj.OpEdit:        "edit",
	jj.OpDescribe:    "describe",
	jj.OpNew:         "new",
	jj.OpUndo:        "undo",
	jj.OpPush:        "push",
	jj.OpSetBookmark: "set_bookmark",
}

type keyMap struct {
	Up, Down, Left, Right key.Binding
	Parent, WorkingCopy   key.Binding
	PageUp, PageDown      key.Binding
	Home, End             key.Binding
	Toggle, Refresh       key.Binding
	Dismiss               key.Binding
	IgnoreImmutable       key.Binding
	Help, Quit            key.Binding

	ops     map[jj.Op]key.Binding
	grouped [][]key.Binding
}

func binding(keys []string, description string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(keys, "/"), description))
}

func newKeyMap(bindings config.Keybindings) keyMap {
	bindings = config.MergeKeybindings(bindings)
	byAction := make(map[string]key.Binding, len(shortcuts))
	groups := map[string][]key.Binding{}
	var order []string
	for _, sc := range shortcuts {
		b := binding(bindings[sc.action], sc.description)
		byAction[sc.action] = b
		if _, ok := groups[sc.category]; !ok {
			order = append(order, sc.category)
		}
		groups[sc.category] = append(groups[sc.category], b)
	}
	km := keyMap{
		Up:              byAction["up"],
		Down:            byAction["down"],
		Left:            byAction["left"],
		Right:           byAction["right"],
		Parent:          byAction["parent"],
		WorkingCopy:     byAction["working_copy"],
		PageUp:          byAction["page_up"],
		PageDown:        byAction["page_down"],
		Home:            byAction["home"],
		End:             byAction["end"],
		Toggle:          byAction["toggle"],
		Refresh:         byAction["refresh"],
		Dismiss:         byAction["dismiss"],
		IgnoreImmutable: byAction["ignore_immutable"],
		Help:            byAction["help"],
		Quit:            byAction["quit"],
		ops:             make(map[jj.Op]key.Binding, len(opActions)),
	}
	var opGroup []key.Binding
	for _, op := range jj.Ops {
		b := binding(bindings[opActions[op]], op.Help())
		km.ops[op] = b
		opGroup = append(opGroup, b)
	}
	for _, cat := range order {
		km.grouped = append(km.grouped, groups[cat])
	}
	km.grouped = append(km.grouped, opGroup)
	return km
}

// opFor returns the operation bound to msg, if any.
func (k keyMap) opFor(msg fmt.Stringer) (jj.Op, bool) {
	for _, op := range jj.Ops {
		if key.Matches(msg, k.ops[op]) {
			return op, true
		}
	}
	return 0, false
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return k.grouped
}
