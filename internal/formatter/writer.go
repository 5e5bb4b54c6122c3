// Package formatter renders a module tree back into source text and
// hosts the pass engine that shapes the tree first. The writer is
// mechanical: passes decide layout by setting fields on the tree
// (one-line flags, alignment widths, line indents) and the writer
// obeys them, so rendering the same tree twice yields the same bytes.
package formatter

import (
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// Write serializes a module tree. Trivia is re-attached as it goes: an
// end-of-line comment gets exactly two spaces before it, own-line
// comments keep their blank-line spacing. No output line carries
// trailing whitespace and the text ends with exactly one newline.
// Lines over the length limit are emitted in full, each with a
// LongLine advisory; the writer never truncates.
func Write(mod *cst.Module, cfg *config.Config) (string, []diag.Diagnostic) {
	w := &writer{cfg: cfg}
	w.module(mod)
	return w.finish()
}

type writer struct {
	cfg   *config.Config
	lines []string
	cur   strings.Builder
	// span locates the construct being emitted, for diagnostics.
	span  token.Span
	diags []diag.Diagnostic
}

func (w *writer) module(mod *cst.Module) {
	for _, pr := range mod.Pragmas {
		w.span = pr.Span
		w.leading(pr.Leading, 0)
		w.verbatim(pragmaText(pr))
		w.trailing(pr.Trailing)
		w.newline()
	}
	if mod.Head != nil {
		w.head(mod.Head)
	}
	for _, g := range mod.Imports {
		for _, d := range g.Decls {
			w.importDecl(d)
		}
	}
	for _, d := range mod.Decls {
		w.decl(d)
	}
	w.leading(mod.Trailing, 0)
}

// text appends to the current line.
func (w *writer) text(s string) { w.cur.WriteString(s) }

func (w *writer) indent(n int) {
	for i := 0; i < n; i++ {
		w.cur.WriteByte(' ')
	}
}

// newline flushes the current line, stripping trailing whitespace and
// flagging lines over the configured limit.
func (w *writer) newline() {
	s := strings.TrimRight(w.cur.String(), " \t")
	w.cur.Reset()
	if n := utf8.RuneCountInString(s); n > w.cfg.Format.MaxLineLength {
		w.diags = append(w.diags, diag.New(diag.KindLongLine, diag.SeverityAdvisory, w.span,
			"render", "line is %d columns long (limit %d)", n, w.cfg.Format.MaxLineLength))
	}
	w.lines = append(w.lines, s)
}

func (w *writer) blank() { w.lines = append(w.lines, "") }

// atStart reports that nothing has been emitted yet. The first line of
// the file has no preceding newline, which shifts blank-line counting
// by one.
func (w *writer) atStart() bool { return len(w.lines) == 0 && w.cur.Len() == 0 }

// verbatim emits text that may span lines, such as a multi-line block
// comment or an unmodeled pragma.
func (w *writer) verbatim(s string) {
	for i, part := range strings.Split(s, "\n") {
		if i > 0 {
			w.newline()
		}
		w.text(part)
	}
}

// leading emits a trivia run: comments at the given indentation with
// their blank-line spacing preserved. Must be called at a line
// boundary.
func (w *writer) leading(tr token.Trivia, indent int) {
	carry := 1
	if w.atStart() {
		carry = 0
	}
	nl := 0
	for _, p := range tr {
		if p.Kind == token.TriviaWhitespace {
			nl += strings.Count(p.Text, "\n")
			continue
		}
		if !p.IsComment() {
			continue
		}
		for i := nl - carry; i > 0; i-- {
			w.blank()
		}
		w.indent(indent)
		w.verbatim(p.Text)
		w.newline()
		nl, carry = 0, 1
	}
	for i := nl - carry; i > 0; i-- {
		w.blank()
	}
}

// trailing emits an end-of-line comment after the current line's text.
func (w *writer) trailing(p *token.TriviaPiece) {
	if p != nil {
		w.text("  " + p.Text)
	}
}

// pragmaText rebuilds a pragma, padding single-line bodies so a block
// of pragmas closes in the same column.
func pragmaText(pr *cst.Pragma) string {
	if pr.Raw != "" {
		return pr.Raw
	}
	s := "{-# " + pr.Tool
	if pr.Body != "" {
		s += " " + pr.Body
	}
	if pad := pr.PadTo - utf8.RuneCountInString(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s + " #-}"
}

func (w *writer) head(h *cst.ModuleHead) {
	w.span = h.Span
	w.leading(h.Leading, 0)
	w.text("module " + h.Name)
	switch {
	case h.Exports == nil:
		w.text(" where")
		w.trailing(h.Trailing)
	case h.Exports.OneLine || !h.Exports.MultiLine:
		w.text(" (" + itemsOneLine(h.Exports.Items) + ") where")
		w.trailing(h.Trailing)
	default:
		w.trailing(h.Trailing)
		iw := w.cfg.Format.IndentWidth
		w.itemsMulti(h.Exports.Items, h.Exports.Closing, iw)
		w.indent(iw)
		w.text(") where")
	}
	w.newline()
}

// itemsOneLine joins list items with comma-space, keeping any inline
// block comments that preceded an item.
func itemsOneLine(items []*cst.ListItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = inlineComments(it.Leading) + it.Text
	}
	return strings.Join(parts, ", ")
}

func inlineComments(tr token.Trivia) string {
	var b strings.Builder
	for _, p := range tr {
		if p.Kind == token.TriviaBlockComment && !p.OwnLine {
			b.WriteString(p.Text)
			b.WriteString(" ")
		}
	}
	return b.String()
}

// itemsMulti emits a comma-leading list body: the opening bracket
// shares a line with the first item, every following item leads with
// its comma. The caller emits the closing bracket line.
func (w *writer) itemsMulti(items []*cst.ListItem, closing token.Trivia, indent int) {
	for i, it := range items {
		lead, inline := splitInline(it.Leading)
		w.trailingFromLead(&lead)
		w.newline()
		w.leading(lead, indent+2)
		w.indent(indent)
		if i == 0 {
			w.text("( ")
		} else {
			w.text(", ")
		}
		w.text(inline + it.Text)
		w.trailing(it.Trailing)
	}
	w.newline()
	w.leading(closing, indent+2)
}

// splitInline separates the block comments that shared a line with the
// item from the rest of its leading trivia.
func splitInline(tr token.Trivia) (token.Trivia, string) {
	var (
		lead token.Trivia
		b    strings.Builder
	)
	for _, p := range tr {
		if p.Kind == token.TriviaBlockComment && !p.OwnLine {
			b.WriteString(p.Text)
			b.WriteString(" ")
			continue
		}
		lead = append(lead, p)
	}
	return lead, b.String()
}

// trailingFromLead peels an end-of-line comment off the head of a
// trivia run and appends it to the current, still unflushed line.
func (w *writer) trailingFromLead(tr *token.Trivia) {
	run := *tr
	for i, p := range run {
		if p.Kind == token.TriviaWhitespace && !strings.Contains(p.Text, "\n") {
			continue
		}
		if p.IsComment() && !p.OwnLine {
			w.trailing(&run[i])
			rest := append(token.Trivia{}, run[:i]...)
			*tr = append(rest, run[i+1:]...)
		}
		break
	}
}

func (w *writer) importDecl(d *cst.ImportDecl) {
	w.span = d.Span
	w.leading(d.Leading, 0)
	if d.Raw != "" {
		w.verbatim(d.Raw)
		w.trailing(d.Trailing)
		w.newline()
		return
	}
	w.text("import ")
	if d.Qualified {
		w.text("qualified ")
	}
	w.text(d.Module)
	if d.Alias != "" {
		w.text(" as " + d.Alias)
	}
	if d.Hiding {
		w.text(" hiding")
	}
	switch {
	case !d.HasList:
		w.trailing(d.Trailing)
	case d.OneLine || !d.MultiLine:
		w.text(" (" + itemsOneLine(d.Items) + ")")
		w.trailing(d.Trailing)
	default:
		w.trailing(d.Trailing)
		iw := w.cfg.Format.IndentWidth
		w.itemsMulti(d.Items, d.Closing, iw)
		w.indent(iw)
		w.text(")")
	}
	w.newline()
}

func (w *writer) decl(d cst.Decl) {
	w.span = d.Span()
	switch d := d.(type) {
	case *cst.TypeSig:
		w.typeSig(d)
	case *cst.DataDecl:
		w.dataDecl(d)
	case *cst.PragmaDecl:
		w.leading(d.Leading(), 0)
		w.verbatim(pragmaText(d.Pragma))
		w.trailing(d.Trailing())
		w.newline()
	case *cst.FuncBind:
		w.blockDecl(d, d.Body)
	case *cst.BlockDecl:
		w.blockDecl(d, d.Body)
	case *cst.RawDecl:
		w.blockDecl(d, d.Body)
	}
}

func (w *writer) typeSig(d *cst.TypeSig) {
	w.leading(d.Leading(), 0)
	name := strings.Join(d.Names, ", ")
	if d.IsOperator {
		name = "(" + name + ")"
	}
	if d.OneLine || !d.MultiLine {
		w.text(name)
		for _, seg := range d.Segments {
			w.text(" " + seg.Sep + " " + inlineComments(seg.Leading) + seg.Text)
		}
		w.trailing(d.Trailing())
		w.newline()
		return
	}
	pad := utf8.RuneCountInString(name) + 1
	for i, seg := range d.Segments {
		if i > 0 {
			w.newline()
		}
		lead, inline := splitInline(seg.Leading)
		w.leading(lead, pad)
		if i == 0 {
			w.text(name + " ")
		} else {
			w.indent(pad)
		}
		w.text(seg.Sep + " " + inline + seg.Text)
		w.trailing(seg.Trailing)
	}
	w.trailing(d.Trailing())
	w.newline()
}

func (w *writer) dataDecl(d *cst.DataDecl) {
	w.leading(d.Leading(), 0)
	head := d.Keyword
	if d.Context != "" {
		head += " " + d.Context + " =>"
	}
	head += " " + d.Name
	if len(d.TyVars) > 0 {
		head += " " + strings.Join(d.TyVars, " ")
	}

	if d.OneLine || !d.MultiLine {
		w.text(head)
		if len(d.Constructors) > 0 {
			cons := make([]string, len(d.Constructors))
			for i, c := range d.Constructors {
				cons[i] = inlineComments(c.Leading) + constructorText(c, 0)
			}
			w.text(" = " + strings.Join(cons, " | "))
		}
		for _, dc := range d.Deriving {
			w.text(" " + derivingText(dc, 0))
		}
		w.trailing(d.Trailing())
		w.newline()
		return
	}

	iw := w.cfg.Format.IndentWidth
	w.text(head)
	if rec := singleRecord(d); rec != nil {
		w.text(" = " + rec.Name)
		w.trailing(rec.Trailing)
		for i, f := range rec.Fields {
			w.fieldLine(f, i == 0, iw, d.FieldNameWidth)
		}
		w.newline()
		w.leading(rec.Closing, iw+2)
		w.indent(iw)
		w.text("}")
	} else {
		for i, c := range d.Constructors {
			lead, inline := splitInline(c.Leading)
			w.trailingFromLead(&lead)
			w.newline()
			w.leading(lead, iw+2)
			w.indent(iw)
			if i == 0 {
				w.text("= ")
			} else {
				w.text("| ")
			}
			w.text(inline + constructorText(c, d.FieldNameWidth))
			w.trailing(c.Trailing)
		}
	}
	for _, dc := range d.Deriving {
		w.newline()
		w.leading(dc.Leading, iw)
		w.indent(iw)
		w.text(derivingText(dc, d.StrategyWidth))
		w.trailing(dc.Trailing)
	}
	w.trailing(d.Trailing())
	w.newline()
}

// singleRecord returns the constructor when the declaration is a lone
// record constructor, the only form that gets the open field block.
func singleRecord(d *cst.DataDecl) *cst.Constructor {
	if len(d.Constructors) == 1 && len(d.Constructors[0].Fields) > 0 {
		return d.Constructors[0]
	}
	return nil
}

// fieldLine emits one record field, padding the name run to width so
// the :: markers of the block line up.
func (w *writer) fieldLine(f *cst.RecordField, first bool, indent, width int) {
	lead, inline := splitInline(f.Leading)
	w.trailingFromLead(&lead)
	w.newline()
	w.leading(lead, indent+2)
	w.indent(indent)
	if first {
		w.text("{ ")
	} else {
		w.text(", ")
	}
	name := inline + strings.Join(f.Names, ", ")
	w.text(name)
	if pad := width - utf8.RuneCountInString(name); pad > 0 {
		w.indent(pad)
	}
	w.text(" :: " + fieldType(f))
	w.trailing(f.Trailing)
}

func fieldType(f *cst.RecordField) string {
	s := f.Type
	if f.Strict {
		s = "!" + s
	}
	if f.Unpack {
		s = "{-# UNPACK #-} " + s
	}
	return s
}

// constructorText renders one alternative inline. Record fields in
// this form stay on the constructor's line.
func constructorText(c *cst.Constructor, fieldWidth int) string {
	if c.Name == "" {
		return c.Args
	}
	s := c.Name
	if len(c.Fields) > 0 {
		parts := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			name := inlineComments(f.Leading) + strings.Join(f.Names, ", ")
			if pad := fieldWidth - utf8.RuneCountInString(name); pad > 0 {
				name += strings.Repeat(" ", pad)
			}
			parts[i] = name + " :: " + fieldType(f)
		}
		return s + " { " + strings.Join(parts, ", ") + " }"
	}
	if c.Args != "" {
		s += " " + c.Args
	}
	return s
}

func derivingText(dc *cst.DerivingClause, strategyWidth int) string {
	s := "deriving"
	if dc.Strategy != "" {
		s += " " + dc.Strategy
		if pad := strategyWidth - utf8.RuneCountInString(dc.Strategy); pad > 0 {
			s += strings.Repeat(" ", pad)
		}
	}
	s += " (" + strings.Join(dc.Classes, ", ") + ")"
	if dc.Via != "" {
		s += " via " + dc.Via
	}
	return s
}

// blockDecl emits a declaration kept as layout lines: function
// equations, class and instance bodies, raw declarations.
func (w *writer) blockDecl(d cst.Decl, b *cst.Block) {
	if b == nil || len(b.Lines) == 0 {
		return
	}
	w.leading(d.Leading(), b.Lines[0].Indent)
	for i, ln := range b.Lines {
		w.span = ln.FirstToken().Span
		if i > 0 {
			lead := ln.FirstToken().Leading.Clone()
			w.trailingFromLead(&lead)
			w.newline()
			w.leading(lead, ln.Indent)
		}
		w.indent(ln.Indent)
		w.text(renderLine(ln))
	}
	w.span = d.Span()
	w.trailing(d.Trailing())
	w.newline()
}

// renderLine joins a line's tokens, inserting the do-binder padding
// when the alignment pass asked for it.
func renderLine(ln *cst.Line) string {
	k := -1
	if ln.ArrowPad > 0 {
		k = arrowIndex(ln.Tokens)
	}
	if k <= 0 {
		return cst.JoinTokens(ln.Tokens)
	}
	left := cst.JoinTokens(ln.Tokens[:k])
	pad := ln.ArrowPad - utf8.RuneCountInString(left)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + cst.JoinTokens(ln.Tokens[k:])
}

// arrowIndex finds the top-level <- of a do binding line.
func arrowIndex(toks []token.Token) int {
	depth := 0
	for i, t := range toks {
		if depth == 0 && t.Kind == token.VarSym && t.Text == "<-" {
			return i
		}
		if t.Kind == token.Punct {
			switch t.Text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
		}
	}
	return -1
}

func (w *writer) finish() (string, []diag.Diagnostic) {
	if w.cur.Len() > 0 {
		w.newline()
	}
	out := w.lines
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "", w.diags
	}
	return strings.Join(out, "\n") + "\n", w.diags
}
