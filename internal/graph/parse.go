package graph

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// RecordSeparator splits the line-art prefix of a node line from its record.
const RecordSeparator = '\t'

// RecordDecoder turns the record part of a node line into a Node. Only the
// record fields need to be filled; graph fields are set by Parse.
type RecordDecoder func(record string) (Node, error)

// ParseError is returned when the log output contained no parsable commit.
type ParseError struct {
	Warnings []Warning
}

func (e *ParseError) Error() string {
	if len(e.Warnings) == 0 {
		return "parse log: no commits found"
	}
	first := e.Warnings[0]
	return fmt.Sprintf("parse log: no commits parsed, %d malformed lines (line %d: %s)",
		len(e.Warnings), first.Line, first.Reason)
}

type rowKind uint8

const (
	rowBlank rowKind = iota
	rowNode
	rowEdge
	rowInfo
	rowMalformed
)

type row struct {
	kind  rowKind
	line  int
	raw   string
	cells []rune
	// col is the node column for node rows and malformed node lines, -1
	// otherwise.
	col    int
	node   *Node
	text   string
	reason string
}

// Parse reads jj log output and rebuilds the commit DAG from its line art.
//
// The first pass classifies every line. The second pass walks the rows top to
// bottom and tracks, per column, the children whose edge runs down that
// column; a node consumes the edges of its column and starts its own.
// Lines that cannot be understood are reported as warnings and the snapshot
// is marked partial instead of failing the whole parse.
func Parse(r io.Reader, decode RecordDecoder, generation uint64) (*Snapshot, error) {
	rows, err := tokenize(r, decode)
	if err != nil {
		return nil, err
	}
	res := newResolver()
	var (
		nodes    []*Node
		preamble []string
		warnings []Warning
		last     *Node
		seen     = map[string]int{}
	)
	appendArt := func(s string) {
		if last != nil {
			last.Edges = append(last.Edges, s)
		} else {
			preamble = append(preamble, s)
		}
	}
	for _, rw := range rows {
		switch rw.kind {
		case rowBlank:
			continue
		case rowNode:
			n := rw.node
			n.ID = n.ChangeID
			if k := seen[n.ChangeID]; k > 0 {
				n.ID = fmt.Sprintf("%s/%d", n.ChangeID, k)
			}
			seen[n.ChangeID]++
			res.node(rw.cells, rw.col, n.ID)
			nodes = append(nodes, n)
			last = n
		case rowEdge:
			if !res.edge(rw.cells) {
				warnings = append(warnings, Warning{Line: rw.line, Text: rw.raw, Reason: "merge link without a source column"})
				slog.Debug("unresolved merge link", slog.Int("line", rw.line))
			}
			appendArt(rw.raw)
		case rowInfo:
			res.info(rw.cells)
			appendArt(rw.raw)
		case rowMalformed:
			warnings = append(warnings, Warning{Line: rw.line, Text: rw.raw, Reason: rw.reason})
			slog.Debug("malformed log line",
				slog.Int("line", rw.line),
				slog.String("reason", rw.reason),
			)
			res.fresh = -1
			if rw.col >= 0 {
				res.drop(rw.col)
				appendArt(string(rw.cells))
			}
		}
	}
	if len(nodes) == 0 && len(warnings) > 0 {
		return nil, &ParseError{Warnings: warnings}
	}
	for _, n := range nodes {
		n.Parents = res.parentsOf(n.ID)
		n.ElidedParents = res.elided[n.ID]
		n.Indent = indentFor(n)
	}
	return newSnapshot(generation, nodes, preamble, warnings), nil
}

func tokenize(r io.Reader, decode RecordDecoder) ([]row, error) {
	var rows []row
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		rows = append(rows, classify(lineNo, strings.TrimRight(sc.Text(), "\r"), decode))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return rows, nil
}

func classify(lineNo int, line string, decode RecordDecoder) row {
	rw := row{line: lineNo, raw: line, col: -1}
	if strings.TrimSpace(line) == "" {
		rw.kind = rowBlank
		return rw
	}
	if prefix, record, ok := strings.Cut(line, string(RecordSeparator)); ok {
		rw.cells = []rune(prefix)
		col, glyph, ok := nodeColumn(rw.cells)
		if !ok {
			rw.kind = rowMalformed
			rw.reason = "node line without a node glyph"
			return rw
		}
		rw.col = col
		n, err := decode(record)
		if err != nil {
			rw.kind = rowMalformed
			rw.reason = err.Error()
			return rw
		}
		n.Glyph = string(glyph)
		n.Graph = strings.TrimRight(prefix, " ")
		n.Line = lineNo
		rw.kind = rowNode
		rw.node = &n
		return rw
	}
	cells := []rune(line)
	for i, r := range cells {
		if isGraphRune(r) {
			continue
		}
		rw.cells = cells[:i]
		rw.text = strings.TrimSpace(string(cells[i:]))
		if slices.Contains(rw.cells, elidedGlyph) {
			rw.kind = rowInfo
			return rw
		}
		rw.kind = rowMalformed
		rw.reason = fmt.Sprintf("unexpected %q in graph line", r)
		return rw
	}
	rw.kind = rowEdge
	rw.cells = cells
	return rw
}

// nodeColumn finds the node glyph: the first cell that is neither blank nor a
// vertical line. It must sit on a column boundary. Node lines never carry
// horizontal runs, so glyphs such as the root's "┴" are accepted here.
func nodeColumn(cells []rune) (int, rune, bool) {
	for i, r := range cells {
		if r == blankGlyph || isVertical(r) {
			continue
		}
		if i%2 != 0 {
			return 0, 0, false
		}
		return i / 2, r, true
	}
	return 0, 0, false
}

type edge struct {
	child string
	slot  int
}

type slotParent struct {
	slot   int
	parent string
}

type resolver struct {
	pending [][]edge
	// fresh is the column whose edge the previous line's node started, or -1.
	fresh   int
	slots   map[string]int
	parents map[string][]slotParent
	elided  map[string]bool
}

func newResolver() *resolver {
	return &resolver{
		fresh:   -1,
		slots:   make(map[string]int),
		parents: make(map[string][]slotParent),
		elided:  make(map[string]bool),
	}
}

func (r *resolver) grow(n int) {
	for len(r.pending) < n {
		r.pending = append(r.pending, nil)
	}
}

func (r *resolver) nextSlot(child string) int {
	s := r.slots[child]
	r.slots[child] = s + 1
	return s
}

func (r *resolver) drop(col int) {
	if col < len(r.pending) {
		r.pending[col] = nil
	}
}

func (r *resolver) elide(edges []edge) {
	for _, e := range edges {
		r.elided[e.child] = true
	}
}

// carry applies the cell of a column outside any horizontal run.
func (r *resolver) carry(next [][]edge, cells []rune, col int) {
	switch c := cellAt(cells, col); {
	case isVertical(c), c == '─':
		next[col] = append(next[col], r.pending[col]...)
	case c == elidedGlyph:
		r.elide(r.pending[col])
	}
}

func (r *resolver) node(cells []rune, col int, id string) {
	r.grow(max(col+1, (len(cells)+1)/2))
	for _, e := range r.pending[col] {
		r.parents[e.child] = append(r.parents[e.child], slotParent{slot: e.slot, parent: id})
	}
	next := make([][]edge, len(r.pending))
	for c := range r.pending {
		if c != col {
			r.carry(next, cells, c)
		}
	}
	next[col] = []edge{{child: id, slot: r.nextSlot(id)}}
	r.pending = next
	r.fresh = col
}

func (r *resolver) info(cells []rune) {
	r.fresh = -1
	r.grow((len(cells) + 1) / 2)
	next := make([][]edge, len(r.pending))
	for c := range r.pending {
		if cellAt(cells, c) == elidedGlyph {
			r.elide(r.pending[c])
			next[c] = append(next[c], r.pending[c]...)
			continue
		}
		r.carry(next, cells, c)
	}
	r.pending = next
}

type endpoint struct {
	col  int
	arms arms
}

// edge applies a graph-only line. It reports false when a horizontal run
// could not be attributed to a source column.
func (r *resolver) edge(cells []rune) bool {
	fresh := r.fresh
	r.fresh = -1
	r.grow((len(cells) + 1) / 2)
	next := make([][]edge, len(r.pending))
	handled := make([]bool, len(r.pending))
	ok := true

	for i := 0; i < len(cells); {
		if i+1 >= len(cells) || !glyphArms(cells[i]).has(armRight) || !glyphArms(cells[i+1]).has(armLeft) {
			i++
			continue
		}
		j := i + 1
		for j+1 < len(cells) && glyphArms(cells[j]).has(armRight) && glyphArms(cells[j+1]).has(armLeft) {
			j++
		}
		var eps []endpoint
		for p := i; p <= j; p++ {
			if p%2 != 0 {
				continue
			}
			col := p / 2
			handled[col] = true
			if cells[p] == '─' {
				r.carry(next, cells, col)
				continue
			}
			eps = append(eps, endpoint{col: col, arms: glyphArms(cells[p])})
		}
		if !r.merge(next, eps, fresh) {
			ok = false
		}
		i = j + 1
	}
	for c := range r.pending {
		if !handled[c] {
			r.carry(next, cells, c)
		}
	}
	r.pending = next
	return ok
}

// merge applies one horizontal run. Continuing endpoints keep their edges,
// terminating endpoints hand theirs to the nearest continuing (or, failing
// that, starting) endpoint, and starting endpoints receive a new parent slot
// for every edge of the nearest continuing endpoint. A run made only of
// continuing endpoints links the node just drawn in column fresh into the
// other columns; it reports false when fresh is not one of them.
func (r *resolver) merge(next [][]edge, eps []endpoint, fresh int) bool {
	var cont, term, start []int
	for _, ep := range eps {
		up, down := ep.arms.has(armUp), ep.arms.has(armDown)
		switch {
		case up && down:
			cont = append(cont, ep.col)
		case up:
			term = append(term, ep.col)
		case down:
			start = append(start, ep.col)
		}
	}
	for _, c := range cont {
		next[c] = append(next[c], r.pending[c]...)
	}
	if len(cont) >= 2 && len(term) == 0 && len(start) == 0 {
		if !slices.Contains(cont, fresh) {
			return false
		}
		for _, c := range cont {
			if c == fresh {
				continue
			}
			for _, e := range r.pending[fresh] {
				next[c] = append(next[c], edge{child: e.child, slot: r.nextSlot(e.child)})
			}
		}
		return true
	}
	for _, c := range term {
		target, ok := nearest(cont, c)
		if !ok {
			target, ok = nearest(start, c)
		}
		if ok {
			next[target] = append(next[target], r.pending[c]...)
		}
	}
	for _, s := range start {
		src, ok := nearest(cont, s)
		if !ok {
			continue
		}
		for _, e := range r.pending[src] {
			next[s] = append(next[s], edge{child: e.child, slot: r.nextSlot(e.child)})
		}
	}
	return true
}

func nearest(cols []int, c int) (int, bool) {
	best, bestDist := 0, -1
	for _, x := range cols {
		d := x - c
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = x, d
		}
	}
	return best, bestDist >= 0
}

func (r *resolver) parentsOf(id string) []string {
	sps := r.parents[id]
	if len(sps) == 0 {
		return nil
	}
	slices.SortStableFunc(sps, func(a, b slotParent) int { return cmp.Compare(a.slot, b.slot) })
	out := make([]string, 0, len(sps))
	for _, sp := range sps {
		if !slices.Contains(out, sp.parent) {
			out = append(out, sp.parent)
		}
	}
	return out
}

// indentFor derives the line art drawn to the left of rows nested under n:
// every column that continues below the node line.
func indentFor(n *Node) string {
	var cells []rune
	if len(n.Edges) > 0 {
		for _, r := range []rune(n.Edges[0]) {
			if glyphArms(r).has(armUp) || r == elidedGlyph {
				cells = append(cells, '│')
			} else {
				cells = append(cells, blankGlyph)
			}
		}
	} else {
		continues := len(n.Parents) > 0 || n.ElidedParents
		for _, r := range []rune(n.Graph) {
			switch {
			case isVertical(r):
				cells = append(cells, '│')
			case string(r) == n.Glyph && continues:
				cells = append(cells, '│')
			default:
				cells = append(cells, blankGlyph)
			}
		}
	}
	return strings.TrimRight(string(cells), " ")
}
