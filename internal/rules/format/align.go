package format

import (
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/hsfmt/internal/config"
	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// Align decides between one-line and multi-line layout for lists,
// signatures and data declarations, and computes the shared columns
// the writer pads to: record field names, do-binder arrows, operator
// chain continuations.
//
// One line wins whenever the construct fits the line-length limit,
// unless the source already spelled it multi-line with more than one
// item.
type Align struct{}

// Name returns the config key for this pass.
func (*Align) Name() string { return "align" }

// Apply computes layout decisions for the whole module.
func (*Align) Apply(mod *cst.Module, cfg *config.Config) (*cst.Module, []diag.Diagnostic) {
	out := mod.Clone()
	f := &cfg.Format
	if out.Head != nil && out.Head.Exports != nil && f.Align.Exports {
		alignExportList(out.Head, f)
	}
	for _, g := range out.Imports {
		for _, d := range g.Decls {
			alignImportList(d, f)
		}
	}
	for _, d := range out.Decls {
		switch d := d.(type) {
		case *cst.TypeSig:
			if f.Align.TypeSignatures {
				alignTypeSig(d, f)
			}
		case *cst.DataDecl:
			alignDataDecl(d, f)
		case *cst.FuncBind:
			alignBlock(d.Body, f)
		case *cst.BlockDecl:
			alignBlock(d.Body, f)
		case *cst.RawDecl:
			alignBlock(d.Body, f)
		}
	}
	return out, nil
}

func alignExportList(h *cst.ModuleHead, f *config.FormatConfig) {
	e := h.Exports
	one, ok := onelineItems(e.Items)
	if !ok || e.Closing.HasComment() {
		return
	}
	width := utf8.RuneCountInString("module " + h.Name + " (" + one + ") where")
	fits := width <= f.MaxLineLength
	if e.MultiLine {
		if fits && len(e.Items) == 1 {
			e.OneLine = true
		}
		return
	}
	if !fits {
		e.MultiLine = true
		e.OneLine = false
	}
}

func alignImportList(d *cst.ImportDecl, f *config.FormatConfig) {
	if d.Raw != "" || !d.HasList {
		return
	}
	one, ok := onelineItems(d.Items)
	if !ok || d.Closing.HasComment() {
		return
	}
	head := "import "
	if d.Qualified {
		head += "qualified "
	}
	head += d.Module
	if d.Alias != "" {
		head += " as " + d.Alias
	}
	if d.Hiding {
		head += " hiding"
	}
	width := utf8.RuneCountInString(head + " (" + one + ")")
	fits := width <= f.MaxLineLength
	if d.MultiLine {
		if fits && len(d.Items) == 1 {
			d.OneLine = true
		}
		return
	}
	if !fits {
		d.MultiLine = true
		d.OneLine = false
	}
}

func alignTypeSig(d *cst.TypeSig, f *config.FormatConfig) {
	one, ok := onelineSig(d)
	if !ok {
		return
	}
	fits := utf8.RuneCountInString(one) <= f.MaxLineLength
	if d.MultiLine {
		if fits && len(d.Segments) == 1 {
			d.OneLine = true
		}
		return
	}
	if !fits && len(d.Segments) > 1 {
		d.MultiLine = true
		d.OneLine = false
	}
}

func alignDataDecl(d *cst.DataDecl, f *config.FormatConfig) {
	if f.Align.Constructors {
		decideDataShape(d, f)
	}
	if f.Align.RecordFields && d.MultiLine && !d.OneLine {
		if rec := singleRecordCon(d); rec != nil {
			d.FieldNameWidth = fieldNameWidth(rec.Fields)
		}
	}
}

func decideDataShape(d *cst.DataDecl, f *config.FormatConfig) {
	one, ok := onelineData(d)
	if !ok {
		return
	}
	fits := utf8.RuneCountInString(one) <= f.MaxLineLength
	items := len(d.Constructors)
	if rec := singleRecordCon(d); rec != nil {
		items = len(rec.Fields)
	}
	if d.MultiLine {
		if fits && items == 1 {
			d.OneLine = true
		}
		return
	}
	if !fits {
		d.MultiLine = true
		d.OneLine = false
	}
}

func singleRecordCon(d *cst.DataDecl) *cst.Constructor {
	if len(d.Constructors) == 1 && len(d.Constructors[0].Fields) > 0 {
		return d.Constructors[0]
	}
	return nil
}

func fieldNameWidth(fields []*cst.RecordField) int {
	width := 0
	for _, f := range fields {
		prefix, ok := inlinePrefix(f.Leading)
		if !ok {
			prefix = ""
		}
		if w := utf8.RuneCountInString(prefix + strings.Join(f.Names, ", ")); w > width {
			width = w
		}
	}
	return width
}

// onelineItems renders a list body the way the writer would on one
// line. The second result is false when a comment pins the list to
// multi-line form.
func onelineItems(items []*cst.ListItem) (string, bool) {
	parts := make([]string, len(items))
	for i, it := range items {
		if it.Trailing != nil {
			return "", false
		}
		prefix, ok := inlinePrefix(it.Leading)
		if !ok {
			return "", false
		}
		parts[i] = prefix + it.Text
	}
	return strings.Join(parts, ", "), true
}

func onelineSig(d *cst.TypeSig) (string, bool) {
	name := strings.Join(d.Names, ", ")
	if d.IsOperator {
		name = "(" + name + ")"
	}
	var b strings.Builder
	b.WriteString(name)
	for _, seg := range d.Segments {
		if seg.Trailing != nil {
			return "", false
		}
		prefix, ok := inlinePrefix(seg.Leading)
		if !ok {
			return "", false
		}
		b.WriteString(" " + seg.Sep + " " + prefix + seg.Text)
	}
	return b.String(), true
}

func onelineData(d *cst.DataDecl) (string, bool) {
	var b strings.Builder
	b.WriteString(d.Keyword)
	if d.Context != "" {
		b.WriteString(" " + d.Context + " =>")
	}
	b.WriteString(" " + d.Name)
	for _, tv := range d.TyVars {
		b.WriteString(" " + tv)
	}
	if len(d.Constructors) > 0 {
		parts := make([]string, len(d.Constructors))
		for i, c := range d.Constructors {
			s, ok := onelineCon(c)
			if !ok {
				return "", false
			}
			parts[i] = s
		}
		b.WriteString(" = " + strings.Join(parts, " | "))
	}
	for _, dc := range d.Deriving {
		s, ok := onelineDeriving(dc)
		if !ok {
			return "", false
		}
		b.WriteString(" " + s)
	}
	return b.String(), true
}

func onelineCon(c *cst.Constructor) (string, bool) {
	prefix, ok := inlinePrefix(c.Leading)
	if !ok || c.Trailing != nil || c.Closing.HasComment() {
		return "", false
	}
	if c.Name == "" {
		return prefix + c.Args, true
	}
	s := prefix + c.Name
	if len(c.Fields) > 0 {
		parts := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			fp, ok := inlinePrefix(f.Leading)
			if !ok || f.Trailing != nil {
				return "", false
			}
			parts[i] = fp + strings.Join(f.Names, ", ") + " :: " + fieldTypeText(f)
		}
		return s + " { " + strings.Join(parts, ", ") + " }", true
	}
	if c.Args != "" {
		s += " " + c.Args
	}
	return s, true
}

func onelineDeriving(dc *cst.DerivingClause) (string, bool) {
	if _, ok := inlinePrefix(dc.Leading); !ok || dc.Trailing != nil {
		return "", false
	}
	s := "deriving"
	if dc.Strategy != "" {
		s += " " + dc.Strategy
	}
	s += " (" + strings.Join(dc.Classes, ", ") + ")"
	if dc.Via != "" {
		s += " via " + dc.Via
	}
	return s, true
}

func fieldTypeText(f *cst.RecordField) string {
	s := f.Type
	if f.Strict {
		s = "!" + s
	}
	if f.Unpack {
		s = "{-# UNPACK #-} " + s
	}
	return s
}

// inlinePrefix renders the block comments that can ride along on one
// line. It fails when the trivia holds a line comment or an own-line
// comment, which cannot.
func inlinePrefix(tr token.Trivia) (string, bool) {
	var b strings.Builder
	for _, p := range tr {
		if !p.IsComment() {
			continue
		}
		if p.Kind == token.TriviaLineComment || p.OwnLine {
			return "", false
		}
		b.WriteString(p.Text + " ")
	}
	return b.String(), true
}

func alignBlock(b *cst.Block, f *config.FormatConfig) {
	if b == nil {
		return
	}
	if f.Align.DoBindings {
		alignDoBindings(b.Lines)
	}
	if f.Align.OperatorChains {
		alignOperatorChains(b.Lines)
	}
}

// alignDoBindings pads the binder side of consecutive do bindings so
// their arrows share a column. Lone bindings keep their spacing.
func alignDoBindings(lines []*cst.Line) {
	i := 0
	for i < len(lines) {
		if lines[i].Cont || binderIndex(lines[i]) <= 0 {
			i++
			continue
		}
		start := i
		i++
		for i < len(lines) && joinsGroup(lines[start], lines[i]) && binderIndex(lines[i]) > 0 {
			i++
		}
		group := lines[start:i]
		if len(group) < 2 {
			continue
		}
		pad := 0
		for _, ln := range group {
			k := binderIndex(ln)
			if w := utf8.RuneCountInString(cst.JoinTokens(ln.Tokens[:k])) + 1; w > pad {
				pad = w
			}
		}
		for _, ln := range group {
			ln.ArrowPad = pad
		}
	}
}

// joinsGroup reports whether ln extends an alignment group opened at
// head: same depth, no blank line or comment in between.
func joinsGroup(head, ln *cst.Line) bool {
	if ln.Cont || ln.Depth != head.Depth {
		return false
	}
	lead := ln.FirstToken().Leading
	return lead.BlankLinesBefore() == 0 && !lead.HasComment()
}

// binderIndex returns the index of the line's top-level <-, or -1.
// Lines that open a nested layout block are excluded; padding them
// would shift the block's items between runs.
func binderIndex(ln *cst.Line) int {
	depth := 0
	k := -1
	for i, t := range ln.Tokens {
		if t.Layout {
			return -1
		}
		if depth == 0 && k < 0 && t.Kind == token.VarSym && t.Text == "<-" {
			k = i
		}
		depth += bracketDelta(t)
		if depth < 0 {
			depth = 0
		}
	}
	if k == 0 {
		return -1
	}
	return k
}

var chainOps = map[string]bool{
	"<$>": true, "<*>": true, "<$": true, "$>": true, "<**>": true,
	">>=": true, "=<<": true, ">=>": true, "<=<": true, "<|>": true,
}

// alignOperatorChains places chain continuation lines so their leading
// operator sits under the first chain operator of the line above.
func alignOperatorChains(lines []*cst.Line) {
	for i := 0; i < len(lines); i++ {
		head := lines[i]
		k := chainIndex(head)
		if k < 1 {
			continue
		}
		col := startCol(head, k)
		j := i + 1
		for j < len(lines) && chainsOn(head, lines[j]) {
			lines[j].Indent = col
			j++
		}
		i = j - 1
	}
}

func chainIndex(ln *cst.Line) int {
	if ln.Cont {
		return -1
	}
	depth := 0
	for i, t := range ln.Tokens {
		if depth == 0 && i > 0 && t.Kind == token.VarSym && chainOps[t.Text] {
			return i
		}
		depth += bracketDelta(t)
		if depth < 0 {
			depth = 0
		}
	}
	return -1
}

func chainsOn(head, ln *cst.Line) bool {
	if !ln.Cont || ln.Depth != head.Depth {
		return false
	}
	first := ln.FirstToken()
	if first.Kind != token.VarSym || !chainOps[first.Text] {
		return false
	}
	for _, t := range ln.Tokens {
		// A nested block hangs off this line; moving it would strand
		// the block's items.
		if t.Layout {
			return false
		}
	}
	lead := first.Leading
	return lead.BlankLinesBefore() == 0 && !lead.HasComment()
}
