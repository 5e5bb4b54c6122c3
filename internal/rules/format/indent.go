// Package format contains the individual formatting passes.
package format

import (
	"unicode/utf8"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// Indent re-derives every block line's indentation from its layout
// depth: one unit per nesting level, a two-unit hang for continuation
// lines, one unit for guard lines. A where trailing an equation moves
// onto its own line one level in, its bindings one deeper. Class and
// instance heads keep where on the head line.
type Indent struct{}

// Name returns the config key for this pass.
func (*Indent) Name() string { return "indent" }

// Apply normalizes indentation in every layout block.
func (*Indent) Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic) {
	out := mod.Clone()
	for _, d := range out.Decls {
		switch d := d.(type) {
		case *cst.FuncBind:
			reindent(d.Body, cfg.Format.IndentWidth)
		case *cst.BlockDecl:
			reindent(d.Body, cfg.Format.IndentWidth)
		case *cst.RawDecl:
			reindent(d.Body, cfg.Format.IndentWidth)
		}
	}
	return out, nil
}

// indentCtx is one open layout context: the depth its item lines carry
// and the output column they are placed at.
type indentCtx struct {
	depth int
	col   int
}

// reindent walks the block in order, assigning each line its output
// column and tracking the column every layout opener establishes. A
// block opened at the end of a line indents one unit past its opener's
// line; a block opened mid-line keeps its items aligned under the
// first one, which re-parses to the same shape.
func reindent(b *cst.Block, iw int) {
	if b == nil || len(b.Lines) == 0 {
		return
	}
	b.Lines = splitWhere(b.Lines)

	stack := []indentCtx{{depth: 0, col: 0}}
	brackets := 0
	for _, ln := range b.Lines {
		for len(stack) > 1 && stack[len(stack)-1].depth > ln.Depth {
			stack = stack[:len(stack)-1]
		}
		top := stack[len(stack)-1]
		base := top.col
		if top.depth != ln.Depth {
			// No context owns this depth (a where line, or a block
			// whose opener the parser could not track). Fall back to
			// the canonical column, kept inside the enclosing context.
			base = ln.Depth * iw
			if c := top.col + iw; base < c {
				base = c
			}
		}
		switch {
		case ln.Cont && isGuard(ln.FirstToken()):
			ln.Indent = base + iw
		case ln.Cont:
			ln.Indent = base + 2*iw
		default:
			ln.Indent = base
		}

		// Scan for layout openers at their rendered positions.
		depth := ln.Depth
		for j, t := range ln.Tokens {
			if brackets == 0 && t.Layout {
				next := depth + 1
				floor := stack[len(stack)-1].col
				if ln.Indent > floor {
					floor = ln.Indent
				}
				if j == len(ln.Tokens)-1 {
					col := next * iw
					if col <= floor {
						col = floor + iw
					}
					stack = append(stack, indentCtx{depth: next, col: col})
				} else {
					stack = append(stack, indentCtx{depth: next, col: startCol(ln, j+1)})
					depth = next
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

// startCol returns the output column the k-th token of the line will
// land on.
func startCol(ln *cst.Line, k int) int {
	prefix := cst.JoinTokens(ln.Tokens[:k+1])
	return ln.Indent + utf8.RuneCountInString(prefix) - utf8.RuneCountInString(ln.Tokens[k].Text)
}

func isGuard(t token.Token) bool {
	return t.Kind == token.VarSym && t.Text == "|"
}

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

// splitWhere gives a where that trails an equation its own line. Lines
// opened by class, instance, data or module keep it inline; so does a
// where inside explicit brackets, where layout is suspended.
func splitWhere(lines []*cst.Line) []*cst.Line {
	out := make([]*cst.Line, 0, len(lines))
	brackets := 0
	for _, ln := range lines {
		cur := ln
		for cur != nil {
			j := trailingWhere(cur.Tokens, brackets)
			if j < 0 || isBlockHead(cur.Tokens[0]) {
				break
			}
			head := &cst.Line{Tokens: cur.Tokens[:j], Depth: cur.Depth, Cont: cur.Cont}
			out = append(out, head)
			brackets = advanceBrackets(head.Tokens, brackets)
			out = append(out, &cst.Line{Tokens: cur.Tokens[j : j+1], Depth: cur.Depth + 1})
			if j+1 == len(cur.Tokens) {
				cur = nil
				break
			}
			cur = &cst.Line{Tokens: cur.Tokens[j+1:], Depth: cur.Depth + 2}
		}
		if cur != nil {
			out = append(out, cur)
			brackets = advanceBrackets(cur.Tokens, brackets)
		}
	}
	return out
}

// trailingWhere returns the index of a layout where preceded by other
// tokens on its line, outside explicit brackets, or -1.
func trailingWhere(toks []token.Token, brackets int) int {
	depth := brackets
	for i, t := range toks {
		if depth == 0 && i > 0 && t.Layout && t.IsKeyword("where") {
			return i
		}
		depth += bracketDelta(t)
		if depth < 0 {
			depth = 0
		}
	}
	return -1
}

func advanceBrackets(toks []token.Token, depth int) int {
	for _, t := range toks {
		depth += bracketDelta(t)
		if depth < 0 {
			depth = 0
		}
	}
	return depth
}

// isBlockHead reports whether the token opens a declaration whose
// where belongs on the head line.
func isBlockHead(t token.Token) bool {
	return t.IsKeyword("class") || t.IsKeyword("instance") ||
		t.IsKeyword("data") || t.IsKeyword("newtype") || t.IsKeyword("module")
}
