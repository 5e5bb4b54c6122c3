// Package cst defines the concrete syntax tree for Haskell source
// files. Nodes own their children exclusively and keep enough verbatim
// text and trivia that an unmodified tree reconstructs its input.
// Rule passes never mutate nodes in place; they clone on write.
package cst

import (
	"strings"

	"github.com/donaldgifford/hsfmt/internal/token"
)

// Module is the root node for one source file.
type Module struct {
	// Pragmas is the file-level pragma block (OPTIONS_GHC, LANGUAGE)
	// appearing before the module header.
	Pragmas []*Pragma
	// Head is nil when the file has no module header.
	Head *ModuleHead
	// Imports groups import declarations; groups were separated by
	// blank lines in the source.
	Imports []*ImportGroup
	Decls   []Decl
	// Trailing holds comments and blank lines after the last
	// declaration (the EOF token's trivia).
	Trailing token.Trivia
}

// Clone returns a deep copy of the module.
func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	out := &Module{
		Head:     m.Head.Clone(),
		Trailing: m.Trailing.Clone(),
	}
	for _, p := range m.Pragmas {
		out.Pragmas = append(out.Pragmas, p.Clone())
	}
	for _, g := range m.Imports {
		out.Imports = append(out.Imports, g.Clone())
	}
	for _, d := range m.Decls {
		out.Decls = append(out.Decls, d.CloneDecl())
	}
	return out
}

// ModuleHead is the module declaration: name, optional export list,
// terminated by the where keyword.
type ModuleHead struct {
	Leading  token.Trivia
	Name     string
	NameSpan token.Span
	// Exports is nil when the header has no explicit export list.
	Exports  *ExportList
	Trailing *token.TriviaPiece
	Span     token.Span
}

// Clone returns a deep copy of the header.
func (h *ModuleHead) Clone() *ModuleHead {
	if h == nil {
		return nil
	}
	out := *h
	out.Leading = h.Leading.Clone()
	out.Exports = h.Exports.Clone()
	out.Trailing = clonePiece(h.Trailing)
	return &out
}

func clonePiece(p *token.TriviaPiece) *token.TriviaPiece {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ExportList is the parenthesized export list of a module header.
type ExportList struct {
	Items []*ListItem
	// MultiLine records that the source wrote the list across lines;
	// the one-line tie-break keeps such lists multi-line when they
	// hold more than one item.
	MultiLine bool
	// OneLine is the alignment pass's rendering decision. Transient:
	// computed each run, consumed by the renderer.
	OneLine bool
	// Closing carries comments that sit just before the closing paren.
	Closing token.Trivia
	Span    token.Span
}

// Clone returns a deep copy of the list.
func (e *ExportList) Clone() *ExportList {
	if e == nil {
		return nil
	}
	out := *e
	out.Items = cloneItems(e.Items)
	out.Closing = e.Closing.Clone()
	return &out
}

// ListItem is one entry of an export or import list, kept verbatim
// (foo, Foo(..), module X, (<+>)). Section comments ride in Leading;
// an end-of-line comment after the item rides in Trailing.
type ListItem struct {
	Leading  token.Trivia
	Text     string
	Span     token.Span
	Trailing *token.TriviaPiece
}

// Clone returns a copy of the item.
func (it *ListItem) Clone() *ListItem {
	if it == nil {
		return nil
	}
	out := *it
	out.Leading = it.Leading.Clone()
	out.Trailing = clonePiece(it.Trailing)
	return &out
}

func cloneItems(items []*ListItem) []*ListItem {
	if items == nil {
		return nil
	}
	out := make([]*ListItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// ImportGroup is a run of import declarations with no blank line
// between them. The ordering pass rebuilds groups from scratch.
type ImportGroup struct {
	Decls []*ImportDecl
}

// Clone returns a deep copy of the group.
func (g *ImportGroup) Clone() *ImportGroup {
	if g == nil {
		return nil
	}
	out := &ImportGroup{Decls: make([]*ImportDecl, len(g.Decls))}
	for i, d := range g.Decls {
		out.Decls[i] = d.Clone()
	}
	return out
}

// ImportDecl is a single import declaration. Raw is the fallback for
// forms the reader does not model (package-qualified imports); when
// set, the declaration re-emits verbatim and sorts by its raw text.
type ImportDecl struct {
	Leading   token.Trivia
	Module    string
	Qualified bool
	// Alias is the name after "as", empty when absent.
	Alias  string
	Hiding bool
	// HasList distinguishes "import X ()" from "import X".
	HasList bool
	Items   []*ListItem
	// MultiLine and OneLine mirror ExportList semantics.
	MultiLine bool
	OneLine   bool
	Closing   token.Trivia
	Raw       string
	Trailing  *token.TriviaPiece
	Span      token.Span
}

// Clone returns a deep copy of the declaration.
func (d *ImportDecl) Clone() *ImportDecl {
	if d == nil {
		return nil
	}
	out := *d
	out.Leading = d.Leading.Clone()
	out.Items = cloneItems(d.Items)
	out.Closing = d.Closing.Clone()
	out.Trailing = clonePiece(d.Trailing)
	return &out
}

// Pragma is a {-# ... #-} pragma. Raw keeps the exact source text for
// pragmas the renderer does not reshape (multi-line RULES and the
// like); single-line pragmas are rebuilt from Tool and Body.
type Pragma struct {
	Leading  token.Trivia
	Tool     string
	Body     string
	Raw      string
	Trailing *token.TriviaPiece
	Span     token.Span
	// PadTo is the alignment pass's column request: pad Body so the
	// closing delimiter of a LANGUAGE block lines up. Transient.
	PadTo int
}

// Clone returns a copy of the pragma.
func (p *Pragma) Clone() *Pragma {
	if p == nil {
		return nil
	}
	out := *p
	out.Leading = p.Leading.Clone()
	out.Trailing = clonePiece(p.Trailing)
	return &out
}

// FilePragmaTools lists the pragma tools that belong to the file
// header block; everything else is a declaration-level pragma.
var FilePragmaTools = map[string]bool{
	"LANGUAGE":        true,
	"OPTIONS_GHC":     true,
	"OPTIONS_HADDOCK": true,
}

// JoinTokens reconstructs source text for a token run, preserving the
// original spacing between tokens on the same line and collapsing line
// seams to a single space. Interior block comments are kept inline;
// callers must not pass runs holding interior line comments.
func JoinTokens(toks []token.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			if comments := interiorComments(t.Leading); len(comments) > 0 {
				// The span gap covers the comment text; re-emit the
				// comments with single-space separators instead.
				for _, c := range comments {
					b.WriteString(" ")
					b.WriteString(c.Text)
				}
				b.WriteString(" ")
			} else {
				b.WriteString(strings.Repeat(" ", gap(toks[i-1], t)))
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func interiorComments(tr token.Trivia) []token.TriviaPiece {
	var out []token.TriviaPiece
	for _, p := range tr {
		if p.Kind == token.TriviaBlockComment {
			out = append(out, p)
		}
	}
	return out
}

// gap returns the space count between two adjacent tokens for
// re-emission: the original distance when they shared a line, else one.
func gap(prev, cur token.Token) int {
	if prev.Span.Line == cur.Span.Line {
		g := cur.Span.Col - prev.EndCol()
		if g < 0 {
			g = 0
		}
		return g
	}
	return 1
}

// HasInteriorLineComment reports whether any token after the first
// carries a line comment in its leading trivia. Constructs with such
// comments cannot be reflowed safely and fall back to raw layout.
func HasInteriorLineComment(toks []token.Token) bool {
	if len(toks) < 2 {
		return false
	}
	for _, t := range toks[1:] {
		for _, p := range t.Leading {
			if p.Kind == token.TriviaLineComment {
				return true
			}
		}
	}
	return false
}
