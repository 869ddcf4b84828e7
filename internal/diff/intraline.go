package diff

import (
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// minIntralineRatio skips pairs that share too little to make spans useful.
const minIntralineRatio = 0.3

// AddIntraline pairs each run of removed lines with the added lines that
// follow it and records the differing word spans on both sides.
func AddIntraline(h *Hunk) {
	lines := h.Lines
	for i := 0; i < len(lines); {
		if lines[i].Kind != LineRemoved {
			i++
			continue
		}
		delStart := i
		for i < len(lines) && lines[i].Kind == LineRemoved {
			i++
		}
		addStart := i
		for i < len(lines) && lines[i].Kind == LineAdded {
			i++
		}
		dels := addStart - delStart
		adds := i - addStart
		for k := 0; k < min(dels, adds); k++ {
			oldSpans, newSpans := IntralineSpans(lines[delStart+k].Text, lines[addStart+k].Text)
			lines[delStart+k].Spans = oldSpans
			lines[addStart+k].Spans = newSpans
		}
	}
}

// IntralineSpans returns the rune spans that differ between a and b.
func IntralineSpans(a, b string) (aSpans, bSpans []Span) {
	if a == b {
		return nil, nil
	}
	aTok, aOff := wordTokens(a)
	bTok, bOff := wordTokens(b)
	m := difflib.NewMatcher(aTok, bTok)
	if m.Ratio() < minIntralineRatio {
		return nil, nil
	}
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			aSpans = appendSpan(aSpans, aOff[op.I1], aOff[op.I2])
			bSpans = appendSpan(bSpans, bOff[op.J1], bOff[op.J2])
		case 'd':
			aSpans = appendSpan(aSpans, aOff[op.I1], aOff[op.I2])
		case 'i':
			bSpans = appendSpan(bSpans, bOff[op.J1], bOff[op.J2])
		}
	}
	return aSpans, bSpans
}

func appendSpan(spans []Span, start, end int) []Span {
	if start >= end {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].End == start {
		spans[n-1].End = end
		return spans
	}
	return append(spans, Span{Start: start, End: end})
}

// wordTokens splits s into runs of word characters, runs of spaces and single
// punctuation runes. offsets holds the rune offset of every token plus the
// total length.
func wordTokens(s string) (tokens []string, offsets []int) {
	runes := []rune(s)
	class := func(r rune) int {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return 1
		case unicode.IsSpace(r):
			return 2
		default:
			return 0
		}
	}
	for i := 0; i < len(runes); {
		start := i
		c := class(runes[i])
		i++
		if c != 0 {
			for i < len(runes) && class(runes[i]) == c {
				i++
			}
		}
		tokens = append(tokens, string(runes[start:i]))
		offsets = append(offsets, start)
	}
	offsets = append(offsets, len(runes))
	return tokens, offsets
}
