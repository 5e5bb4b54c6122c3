// Package parser builds the concrete syntax tree for Haskell source
// text. It recovers module structure (pragmas, header, imports,
// declarations) and layout depth for declaration bodies; it never
// enforces style, only shape. Unconventional but legal layout is
// represented structurally and left for the rule engine to judge.
package parser

import (
	"strings"

	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/lexer"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// Parse converts Haskell source text into a CST. The diagnostics are
// findings made during structure recovery (a missing export list and
// the like). The error is non-nil only for the fatal class: invalid
// encoding, unterminated pragma or comment, unbalanced brackets; no
// partial tree is returned then.
func Parse(src string) (*cst.Module, []diag.Diagnostic, error) {
	toks, lexDiags := lexer.Scan(src)
	if fatal := lexer.FatalDiag(lexDiags); fatal != nil {
		return nil, lexDiags, fatalError(*fatal)
	}
	p := &state{diags: lexDiags}
	mod, err := p.run(toks)
	if err != nil {
		return nil, p.diags, err
	}
	diag.Sort(p.diags)
	return mod, p.diags, nil
}

// fatalError rebuilds the typed error for a fatal-class diagnostic.
func fatalError(d diag.Diagnostic) error {
	if d.Kind == diag.KindEncodingError {
		return &diag.EncodingError{Offset: d.Span.Offset}
	}
	return &diag.ParseError{Span: d.Span, Msg: d.Message}
}

// construct is one top-level item: the run of source lines from a
// column-one token up to the next, holding its continuation lines.
type construct [][]token.Token

func (c construct) first() token.Token { return c[0][0] }

func (c construct) flatten() []token.Token {
	var out []token.Token
	for _, ln := range c {
		out = append(out, ln...)
	}
	return out
}

func (c construct) span() token.Span {
	return spanOf(c.flatten())
}

// state tracks parser progress across constructs.
type state struct {
	diags []diag.Diagnostic
	eof   token.Token
}

func (p *state) report(kind diag.Kind, sev diag.Severity, span token.Span, format string, args ...any) {
	p.diags = append(p.diags, diag.New(kind, sev, span, "", format, args...))
}

func (p *state) run(toks []token.Token) (*cst.Module, error) {
	if err := checkBrackets(toks); err != nil {
		return nil, err
	}
	body := toks
	if n := len(toks); n > 0 && toks[n-1].Kind == token.EOF {
		p.eof = toks[n-1]
		body = toks[:n-1]
	}
	cs := splitConstructs(groupLines(body))

	mod := &cst.Module{}
	i := 0

	// 1. File-level pragma block.
	for i < len(cs) {
		prs := tryFilePragmas(cs[i])
		if prs == nil {
			break
		}
		mod.Pragmas = append(mod.Pragmas, prs...)
		i++
	}

	// 2. Module header.
	if i < len(cs) && cs[i].first().IsKeyword("module") {
		mod.Head = p.parseHead(cs[i])
		i++
	}

	// 3. Import block, split into groups at blank lines.
	for ; i < len(cs); i++ {
		if !cs[i].first().IsKeyword("import") {
			break
		}
		imp := p.parseImport(cs[i])
		mod.Imports = appendImport(mod.Imports, imp)
	}

	// 4. Everything else is a declaration.
	for ; i < len(cs); i++ {
		mod.Decls = append(mod.Decls, p.parseDecl(cs[i]))
	}

	mod.Trailing = p.eof.Leading.Clone()
	moveTrailingComments(mod)

	if mod.Head != nil && mod.Head.Exports == nil {
		p.report(diag.KindMissingExportList, diag.SeverityWarning, mod.Head.Span,
			"module %s has no explicit export list", mod.Head.Name)
	}
	return mod, nil
}

// groupLines groups tokens by the source line they start on.
func groupLines(toks []token.Token) [][]token.Token {
	var (
		lines [][]token.Token
		cur   []token.Token
		line  = -1
	)
	for _, t := range toks {
		if t.Span.Line != line {
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
			cur = nil
			line = t.Span.Line
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// splitConstructs groups lines into top-level constructs. A line whose
// first token sits in column one opens a new construct unless an
// explicit bracket is still open, in which case layout is suspended
// and the line continues the current construct.
func splitConstructs(lines [][]token.Token) []construct {
	var (
		out      []construct
		brackets int
	)
	for _, ln := range lines {
		if len(out) == 0 || (ln[0].Span.Col == 1 && brackets == 0) {
			out = append(out, construct{ln})
		} else {
			out[len(out)-1] = append(out[len(out)-1], ln)
		}
		for _, t := range ln {
			if d := bracketDelta(t); d != 0 {
				brackets += d
				if brackets < 0 {
					brackets = 0
				}
			}
		}
	}
	return out
}

var bracketPairs = map[string]string{"(": ")", "[": "]", "{": "}"}

// checkBrackets verifies that explicit brackets balance over the whole
// file. Layout recovery cannot proceed past a mismatch, so this is a
// fatal parse error rather than a diagnostic.
func checkBrackets(toks []token.Token) error {
	var open []token.Token
	for _, t := range toks {
		switch bracketDelta(t) {
		case 1:
			open = append(open, t)
		case -1:
			if len(open) == 0 {
				return &diag.ParseError{
					Span:     t.Span,
					Expected: "matching opening bracket",
					Msg:      "unmatched '" + t.Text + "'",
				}
			}
			top := open[len(open)-1]
			if bracketPairs[top.Text] != t.Text {
				return &diag.ParseError{
					Span:     t.Span,
					Expected: "'" + bracketPairs[top.Text] + "'",
					Msg:      "mismatched '" + t.Text + "' closing '" + top.Text + "'",
				}
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		top := open[len(open)-1]
		return &diag.ParseError{
			Span:     top.Span,
			Expected: "'" + bracketPairs[top.Text] + "'",
			Msg:      "unclosed '" + top.Text + "'",
		}
	}
	return nil
}

// tryFilePragmas recognizes a construct made entirely of file-header
// pragmas (LANGUAGE, OPTIONS_GHC). Returns nil when the construct is
// anything else.
func tryFilePragmas(c construct) []*cst.Pragma {
	var out []*cst.Pragma
	for _, ln := range c {
		for _, t := range ln {
			if t.Kind != token.Pragma {
				return nil
			}
			pr := parsePragmaToken(t)
			if !cst.FilePragmaTools[pr.Tool] {
				return nil
			}
			out = append(out, pr)
		}
	}
	return out
}

// parsePragmaToken splits a pragma token into tool and body. The
// original text is kept when the pragma spans lines; such pragmas
// re-emit verbatim.
func parsePragmaToken(t token.Token) *cst.Pragma {
	inner := strings.TrimPrefix(t.Text, "{-#")
	inner = strings.TrimSuffix(inner, "#-}")
	pr := &cst.Pragma{Leading: t.Leading.Clone(), Span: t.Span}
	fields := strings.Fields(inner)
	if len(fields) > 0 {
		pr.Tool = strings.ToUpper(fields[0])
		pr.Body = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(inner), fields[0]))
	}
	if strings.Contains(t.Text, "\n") {
		pr.Raw = t.Text
	}
	return pr
}

// parseHead reads the module header: name, optional export list,
// terminating where.
func (p *state) parseHead(c construct) *cst.ModuleHead {
	flat := c.flatten()
	head := &cst.ModuleHead{
		Leading: flat[0].Leading.Clone(),
		Span:    spanOf(flat),
	}
	if len(flat) > 1 && flat[1].Kind == token.ConID {
		head.Name = flat[1].Text
		head.NameSpan = flat[1].Span
	}
	if open := indexTop(flat, func(t token.Token) bool { return t.Is(token.Punct, "(") }); open >= 0 {
		if end := matchingClose(flat, open); end > open {
			head.Exports = p.parseExportList(flat[open : end+1])
		}
	}
	return head
}

func (p *state) parseExportList(toks []token.Token) *cst.ExportList {
	list := &cst.ExportList{
		MultiLine: multiLineRun(toks),
		Span:      spanOf(toks),
	}
	list.Items = listItems(toks[1 : len(toks)-1])
	list.Closing = closingTrivia(list.Items, toks[len(toks)-1])
	return list
}

// closingTrivia collects comments riding on a list's closing bracket.
// An end-of-line comment there belongs to the last item; own-line
// comments stay with the bracket.
func closingTrivia(items []*cst.ListItem, close token.Token) token.Trivia {
	lead, eol := boundaryComments(close.Leading)
	if eol != nil {
		if n := len(items); n > 0 && items[n-1].Trailing == nil {
			items[n-1].Trailing = eol
		} else {
			lead = append(lead, *eol)
		}
	}
	if !lead.HasComment() {
		return nil
	}
	return lead
}

// listItems converts the inside of a bracketed, comma-separated list
// into verbatim items with their comments attached.
func listItems(toks []token.Token) []*cst.ListItem {
	var items []*cst.ListItem
	for _, seg := range splitTop(toks, commaMatch) {
		if len(seg.toks) == 0 && len(seg.lead) == 0 && seg.trail == nil {
			continue
		}
		it := &cst.ListItem{
			Leading:  seg.lead,
			Text:     segText(seg),
			Span:     spanOf(seg.toks),
			Trailing: seg.trail,
		}
		// A comma-trailing comment (foo,  -- c) rides into the next
		// segment's lead; hand it back to the item it annotates.
		if n := len(items); n > 0 && items[n-1].Trailing == nil {
			if eol := takeLeadingEOL(&it.Leading); eol != nil {
				items[n-1].Trailing = eol
			}
		}
		items = append(items, it)
	}
	return items
}

// takeLeadingEOL removes and returns an end-of-line comment sitting at
// the head of a trivia run, before any newline.
func takeLeadingEOL(tr *token.Trivia) *token.TriviaPiece {
	for i, p := range *tr {
		if p.Kind == token.TriviaWhitespace && !strings.Contains(p.Text, "\n") {
			continue
		}
		if p.IsComment() && !p.OwnLine {
			out := p
			rest := append(token.Trivia{}, (*tr)[:i]...)
			*tr = append(rest, (*tr)[i+1:]...)
			return &out
		}
		break
	}
	return nil
}

// parseImport reads one import declaration. Shapes the reader does not
// model fall back to a verbatim raw import.
func (p *state) parseImport(c construct) *cst.ImportDecl {
	flat := c.flatten()
	d := &cst.ImportDecl{
		Leading: flat[0].Leading.Clone(),
		Span:    spanOf(flat),
	}
	raw := func() *cst.ImportDecl {
		d.Raw = rawText(flat)
		return d
	}

	// Comments between the head tokens have nowhere to reattach once
	// the declaration is rebuilt from fields.
	limit := len(flat)
	if open := indexTop(flat, func(t token.Token) bool { return t.Is(token.Punct, "(") }); open >= 0 {
		limit = open + 1
	}
	for i := 1; i < limit; i++ {
		if flat[i].Leading.HasComment() {
			return raw()
		}
	}

	i := 1
	if i < len(flat) && flat[i].Is(token.VarID, "qualified") {
		d.Qualified = true
		i++
	}
	if i >= len(flat) || flat[i].Kind != token.ConID {
		return raw()
	}
	d.Module = flat[i].Text
	i++
	if i < len(flat) && flat[i].Is(token.VarID, "as") {
		if i+1 >= len(flat) || flat[i+1].Kind != token.ConID {
			return raw()
		}
		d.Alias = flat[i+1].Text
		i += 2
	}
	if i < len(flat) && flat[i].Is(token.VarID, "hiding") {
		d.Hiding = true
		i++
	}
	if i < len(flat) {
		if !flat[i].Is(token.Punct, "(") {
			return raw()
		}
		end := matchingClose(flat, i)
		if end != len(flat)-1 {
			return raw()
		}
		d.HasList = true
		d.Items = listItems(flat[i+1 : end])
		d.Closing = closingTrivia(d.Items, flat[end])
		d.MultiLine = multiLineRun(flat[i : end+1])
	} else if d.Hiding {
		return raw()
	}
	return d
}

// appendImport adds an import to the group list, starting a new group
// when the declaration had a blank line above it.
func appendImport(groups []*cst.ImportGroup, d *cst.ImportDecl) []*cst.ImportGroup {
	if len(groups) == 0 || d.Leading.BlankLinesBefore() > 0 {
		return append(groups, &cst.ImportGroup{Decls: []*cst.ImportDecl{d}})
	}
	last := groups[len(groups)-1]
	last.Decls = append(last.Decls, d)
	return groups
}

// stripLeading returns a copy of toks with the first token's trivia
// cleared, for verbatim joins where the trivia is owned elsewhere.
func stripLeading(toks []token.Token) []token.Token {
	out := append([]token.Token(nil), toks...)
	if len(out) > 0 {
		out[0].Leading = nil
	}
	return out
}

// rawText reconstructs the exact source of a token run, interior
// trivia included. The first token's leading trivia is owned by the
// construct and excluded.
func rawText(toks []token.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			b.WriteString(t.Leading.Text())
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// moveTrailingComments walks the module in render order and moves each
// construct's concluding end-of-line comment off the next construct's
// leading trivia, so comments travel with the code they annotate when
// passes reorder imports or pragmas.
func moveTrailingComments(mod *cst.Module) {
	var setPrev func(*token.TriviaPiece)
	shift := func(lead token.Trivia, set func(*token.TriviaPiece)) token.Trivia {
		if setPrev != nil {
			if eol, rest := takeEOLComment(lead); eol != nil {
				setPrev(eol)
				lead = rest
			}
		}
		setPrev = set
		return lead
	}

	for _, pr := range mod.Pragmas {
		pr := pr // the closure outlives the iteration; per-iteration capture needed under go <1.22
		pr.Leading = shift(pr.Leading, func(p *token.TriviaPiece) { pr.Trailing = p })
	}
	if h := mod.Head; h != nil {
		h.Leading = shift(h.Leading, func(p *token.TriviaPiece) { h.Trailing = p })
	}
	for _, g := range mod.Imports {
		for _, d := range g.Decls {
			d := d // the closure outlives the iteration; per-iteration capture needed under go <1.22
			d.Leading = shift(d.Leading, func(p *token.TriviaPiece) { d.Trailing = p })
		}
	}
	for _, d := range mod.Decls {
		d.SetLeading(shift(d.Leading(), d.SetTrailing))
	}
	if setPrev != nil {
		if eol, rest := takeEOLComment(mod.Trailing); eol != nil {
			setPrev(eol)
			mod.Trailing = rest
		}
	}
}

// takeEOLComment extracts a leading end-of-line comment: same-line
// whitespace, then a comment that did not start its own line. The
// remaining trivia keeps the newline run so blank-line counts survive.
func takeEOLComment(tr token.Trivia) (*token.TriviaPiece, token.Trivia) {
	i := 0
	for i < len(tr) && tr[i].Kind == token.TriviaWhitespace && !strings.Contains(tr[i].Text, "\n") {
		i++
	}
	if i >= len(tr) || !tr[i].IsComment() || tr[i].OwnLine {
		return nil, tr
	}
	c := tr[i]
	rest := append(append(token.Trivia{}, tr[:i]...), tr[i+1:]...)
	if len(rest) == 0 {
		rest = nil
	}
	return &c, rest
}
