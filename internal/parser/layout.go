package parser

import (
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// isSym reports whether t is the reserved or user operator s.
func isSym(t token.Token, s string) bool {
	return (t.Kind == token.VarSym || t.Kind == token.ConSym) && t.Text == s
}

// bracketDelta returns the nesting change a token contributes: +1 for
// an opening bracket, -1 for a closing one, 0 otherwise.
func bracketDelta(t token.Token) int {
	if t.Kind != token.Punct {
		return 0
	}
	switch t.Text {
	case "(", "[", "{":
		return 1
	case ")", "]", "}":
		return -1
	}
	return 0
}

// indexTop returns the index of the first token at bracket depth zero
// satisfying match, or -1.
func indexTop(toks []token.Token, match func(token.Token) bool) int {
	depth := 0
	for i, t := range toks {
		if depth == 0 && match(t) {
			return i
		}
		depth += bracketDelta(t)
	}
	return -1
}

func symMatch(s string) func(token.Token) bool {
	return func(t token.Token) bool { return isSym(t, s) }
}

func kwMatch(word string) func(token.Token) bool {
	return func(t token.Token) bool { return t.IsKeyword(word) }
}

func commaMatch(t token.Token) bool { return t.Is(token.Punct, ",") }

// matchingClose returns the index of the bracket closing toks[open],
// or -1 when the run ends first.
func matchingClose(toks []token.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		depth += bracketDelta(toks[i])
		if depth == 0 {
			return i
		}
	}
	return -1
}

// spanOf covers a token run from first offset to last end.
func spanOf(toks []token.Token) token.Span {
	if len(toks) == 0 {
		return token.Span{}
	}
	first, last := toks[0].Span, toks[len(toks)-1].Span
	return token.Span{Offset: first.Offset, End: last.End, Line: first.Line, Col: first.Col}
}

// layoutCtx is one entry of the explicit indentation-context stack:
// the source column that opens a block and the layout depth its item
// lines carry.
type layoutCtx struct {
	col   int
	depth int
}

// computeLayout assigns Depth and Cont to every line by threading an
// indentation-context stack over the block. The first line is the
// declaration head at depth zero. A line deeper than the innermost
// context continues the statement above it unless a layout keyword
// just opened a block there; a leading where sits one level below the
// context that owns it.
func computeLayout(lines []*cst.Line) {
	if len(lines) == 0 {
		return
	}
	stack := []layoutCtx{{col: lines[0].FirstToken().Span.Col, depth: 0}}
	pending := -1 // depth for a block opened by a line-trailing layout keyword
	brackets := 0
	for i, ln := range lines {
		col := ln.FirstToken().Span.Col
		if i == 0 {
			ln.Depth = 0
		} else {
			for len(stack) > 1 && col < stack[len(stack)-1].col {
				stack = stack[:len(stack)-1]
			}
			top := stack[len(stack)-1]
			switch {
			case pending >= 0 && col > top.col:
				stack = append(stack, layoutCtx{col: col, depth: pending})
				ln.Depth = pending
			case col == top.col:
				ln.Depth = top.depth
			case ln.FirstToken().IsKeyword("where"):
				ln.Depth = top.depth + 1
			default:
				ln.Depth = top.depth
				ln.Cont = true
			}
		}
		pending = -1

		// Scan for layout openers. Openers inside explicit brackets do
		// not change the stack: bracketed code suspends layout and its
		// lines keep their relative shape as continuations.
		lineDepth := ln.Depth
		for j, t := range ln.Tokens {
			if brackets == 0 && t.Layout {
				next := lineDepth + 1
				// A where trailing an equation opens two levels down:
				// the where itself would sit one level in. After a
				// class, instance or GADT head it opens one.
				if t.IsKeyword("where") && j > 0 && !declHead(ln.Tokens[0]) {
					next = lineDepth + 2
				}
				if j == len(ln.Tokens)-1 {
					pending = next
				} else {
					stack = append(stack, layoutCtx{col: ln.Tokens[j+1].Span.Col, depth: next})
					lineDepth = next
				}
			}
			if d := bracketDelta(t); d != 0 {
				brackets += d
				if brackets < 0 {
					brackets = 0
				}
			}
		}
	}
}

// declHead reports whether a token opens a declaration whose where
// block indents a single level.
func declHead(t token.Token) bool {
	return t.IsKeyword("class") || t.IsKeyword("instance") ||
		t.IsKeyword("data") || t.IsKeyword("newtype") || t.IsKeyword("module")
}

// segment is one piece of a separator-delimited token run, plus the
// comments recovered around its boundaries.
type segment struct {
	toks  []token.Token
	lead  token.Trivia
	trail *token.TriviaPiece
}

// splitTop splits toks at top-level separators (bracket depth zero).
// Separator and boundary trivia is redistributed so nothing is lost
// under reordering: end-of-line comments stick to the segment on
// their left, own-line comments and blank lines to the one on their
// right. Interior line comments are pulled to the nearest boundary;
// interior block comments stay put for verbatim re-emission.
func splitTop(toks []token.Token, isSep func(token.Token) bool) []segment {
	var segs []segment
	cur := segment{}
	depth := 0
	flush := func() {
		if len(cur.toks) > 0 || len(cur.lead) > 0 || cur.trail != nil {
			segs = append(segs, cur)
		}
		cur = segment{}
	}
	for i, t := range toks {
		if depth == 0 && isSep(t) {
			lead, eol := boundaryComments(t.Leading)
			if eol != nil {
				if cur.trail == nil {
					cur.trail = eol
				} else {
					lead = append(lead, *eol)
				}
			}
			flush()
			cur.lead = lead
			depth += bracketDelta(t)
			continue
		}
		if len(cur.toks) == 0 {
			// Segment start: every comment and blank line belongs to
			// the boundary, not the token.
			lead, eol := boundaryComments(t.Leading)
			cur.lead = append(cur.lead, lead...)
			if eol != nil {
				if i > 0 && len(segs) > 0 && segs[len(segs)-1].trail == nil {
					segs[len(segs)-1].trail = eol
				} else {
					cur.lead = append(cur.lead, *eol)
				}
			}
			t.Leading = nil
		} else {
			t.Leading = pullLineComments(t.Leading, &cur)
		}
		cur.toks = append(cur.toks, t)
		depth += bracketDelta(t)
	}
	flush()
	return segs
}

// boundaryComments partitions trivia at a segment boundary: the
// returned trivia keeps own-line comments and blank spacing, eol is
// the end-of-line comment concluded by the boundary, if any.
func boundaryComments(tr token.Trivia) (token.Trivia, *token.TriviaPiece) {
	var (
		lead token.Trivia
		eol  *token.TriviaPiece
	)
	for _, p := range tr {
		switch {
		case p.IsComment() && !p.OwnLine && eol == nil:
			c := p
			eol = &c
		default:
			lead = append(lead, p)
		}
	}
	return lead, eol
}

// pullLineComments removes line comments from an interior token's
// trivia, attaching them to the surrounding segment so a re-joined
// one-line rendering cannot swallow the rest of the line.
func pullLineComments(tr token.Trivia, cur *segment) token.Trivia {
	keep := tr[:0:0]
	for _, p := range tr {
		if p.Kind != token.TriviaLineComment {
			keep = append(keep, p)
			continue
		}
		if !p.OwnLine && cur.trail == nil {
			c := p
			cur.trail = &c
		} else {
			cur.lead = append(cur.lead, p)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return keep
}

// segText renders a segment's tokens as a single line of text.
func segText(s segment) string {
	return cst.JoinTokens(s.toks)
}

// multiLineRun reports whether a token run spans multiple lines.
func multiLineRun(toks []token.Token) bool {
	if len(toks) < 2 {
		return false
	}
	return toks[len(toks)-1].Span.Line > toks[0].Span.Line
}
