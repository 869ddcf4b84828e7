package graph

type arms uint8

const (
	armUp arms = 1 << iota
	armDown
	armLeft
	armRight
)

// edgeGlyphs covers the curved and square line-art styles plus the ASCII
// vertical bar.
var edgeGlyphs = map[rune]arms{
	'│': armUp | armDown,
	'|': armUp | armDown,
	'├': armUp | armDown | armRight,
	'┤': armUp | armDown | armLeft,
	'┼': armUp | armDown | armLeft | armRight,
	'╮': armLeft | armDown,
	'┐': armLeft | armDown,
	'╭': armRight | armDown,
	'┌': armRight | armDown,
	'╯': armLeft | armUp,
	'┘': armLeft | armUp,
	'╰': armRight | armUp,
	'└': armRight | armUp,
	'┬': armLeft | armRight | armDown,
	'┴': armLeft | armRight | armUp,
	'─': armLeft | armRight,
}

const (
	elidedGlyph = '~'
	blankGlyph  = ' '
)

func glyphArms(r rune) arms {
	return edgeGlyphs[r]
}

func (a arms) has(b arms) bool {
	return a&b == b
}

func isVertical(r rune) bool {
	return r == '│' || r == '|'
}

// isGraphRune reports whether r can appear in the line-art part of a
// graph-only line.
func isGraphRune(r rune) bool {
	if r == blankGlyph || r == elidedGlyph {
		return true
	}
	_, ok := edgeGlyphs[r]
	return ok
}

func cellAt(cells []rune, col int) rune {
	i := col * 2
	if i < 0 || i >= len(cells) {
		return blankGlyph
	}
	return cells[i]
}
