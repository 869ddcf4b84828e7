package graph

import (
	"slices"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Node is one commit of a Snapshot. Nodes are shared by every reader of the
// snapshot and must be treated as read-only.
type Node struct {
	// ID is the snapshot key: the change ID, suffixed with "/N" for the
	// second and later copies of a divergent change.
	ID          string
	ChangeID    string
	CommitID    string
	Description string
	Author      Signature
	Bookmarks   []string
	Parents     []string

	WorkingCopy bool
	Immutable   bool
	Conflict    bool
	Empty       bool
	Root        bool
	Divergent   bool
	// ElidedParents is set when at least one parent edge leads through
	// revisions outside the revset.
	ElidedParents bool

	Glyph string
	// Graph is the line-art prefix of the node line, glyph included.
	Graph string
	// Edges are the graph-only lines drawn between this node and the next.
	Edges []string
	// Indent is the line art continuing down the left of rows nested under
	// this node.
	Indent string
	Line   int
}

// Target is the revision argument that addresses this node unambiguously.
func (n *Node) Target() string {
	if n.Divergent && n.CommitID != "" {
		return n.CommitID
	}
	return n.ChangeID
}

type Warning struct {
	Line   int
	Text   string
	Reason string
}

// Snapshot is an immutable commit DAG keyed by node ID.
type Snapshot struct {
	generation uint64
	order      []string
	index      map[string]int
	nodes      map[string]*Node
	children   map[string][]string
	roots      []string
	working    string
	preamble   []string
	warnings   []Warning
}

func newSnapshot(generation uint64, nodes []*Node, preamble []string, warnings []Warning) *Snapshot {
	s := &Snapshot{
		generation: generation,
		order:      make([]string, 0, len(nodes)),
		index:      make(map[string]int, len(nodes)),
		nodes:      make(map[string]*Node, len(nodes)),
		children:   make(map[string][]string),
		preamble:   preamble,
		warnings:   warnings,
	}
	for i, n := range nodes {
		s.order = append(s.order, n.ID)
		s.index[n.ID] = i
		s.nodes[n.ID] = n
		if n.WorkingCopy && s.working == "" {
			s.working = n.ID
		}
	}
	for _, n := range nodes {
		if len(n.Parents) == 0 {
			s.roots = append(s.roots, n.ID)
		}
		for _, p := range n.Parents {
			s.children[p] = append(s.children[p], n.ID)
		}
	}
	return s
}

// Empty returns a snapshot without nodes.
func Empty(generation uint64) *Snapshot {
	return newSnapshot(generation, nil, nil, nil)
}

func (s *Snapshot) Generation() uint64 { return s.generation }

func (s *Snapshot) Len() int { return len(s.order) }

func (s *Snapshot) Order() []string { return slices.Clone(s.order) }

func (s *Snapshot) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Snapshot) Has(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Index returns the observed top-to-bottom position of id, or -1.
func (s *Snapshot) Index(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

func (s *Snapshot) Parents(id string) []string {
	if n, ok := s.nodes[id]; ok {
		return slices.Clone(n.Parents)
	}
	return nil
}

func (s *Snapshot) Children(id string) []string {
	return slices.Clone(s.children[id])
}

func (s *Snapshot) Roots() []string { return slices.Clone(s.roots) }

func (s *Snapshot) WorkingCopy() string { return s.working }

// Partial reports whether some lines of the log could not be parsed.
func (s *Snapshot) Partial() bool { return len(s.warnings) > 0 }

func (s *Snapshot) Warnings() []Warning { return slices.Clone(s.warnings) }

// Ancestors lists the ancestors of id breadth-first, first parent first.
// id itself is not included.
func (s *Snapshot) Ancestors(id string) []string {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	queue := slices.Clone(n.Parents)
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		if p, ok := s.nodes[cur]; ok {
			queue = append(queue, p.Parents...)
		}
	}
	return out
}

// Siblings returns the children of the first parent of id in observed order,
// id included. A parentless node's siblings are the roots.
func (s *Snapshot) Siblings(id string) []string {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	if len(n.Parents) == 0 {
		return s.Roots()
	}
	return s.Children(n.Parents[0])
}
