package parser

import (
	"strings"

	"github.com/donaldgifford/hsfmt/internal/cst"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// reservedSyms are operators the grammar owns; a binding whose second
// token is one of these is not an infix operator definition.
var reservedSyms = map[string]bool{
	"=": true, "|": true, "@": true, "~": true, "\\": true,
	"->": true, "<-": true, "=>": true, "::": true,
}

// parseDecl classifies one top-level construct.
func (p *state) parseDecl(c construct) cst.Decl {
	flat := c.flatten()
	base := cst.Base{Trivia: flat[0].Leading.Clone(), Loc: spanOf(flat)}
	ft := c.first()

	switch {
	case ft.Kind == token.Pragma:
		if d := tryPragmaDecl(c, base); d != nil {
			return d
		}
		return rawDecl(c, base)

	case ft.IsKeyword("data") || ft.IsKeyword("newtype"):
		if d := tryDataDecl(c, base); d != nil {
			return d
		}
		return rawDecl(c, base)

	case ft.IsKeyword("class") || ft.IsKeyword("instance"):
		return blockDecl(c, base, ft.Text)

	case ft.Kind == token.Keyword:
		// type synonyms and families, foreign imports, fixity
		// declarations, defaults: re-indented but not reshaped.
		return rawDecl(c, base)

	case ft.Kind == token.VarID, ft.Kind == token.ConID, ft.Is(token.Punct, "("), ft.Is(token.Punct, "["):
		if sigBeforeBind(flat) {
			if d := tryTypeSig(c, base); d != nil {
				return d
			}
			return rawDecl(c, base)
		}
		return funcBind(c, base)

	default:
		return rawDecl(c, base)
	}
}

// sigBeforeBind reports whether the construct reads as a type
// signature: a top-level :: before any top-level = or guard.
func sigBeforeBind(flat []token.Token) bool {
	depth := 0
	for _, t := range flat {
		if depth == 0 {
			if isSym(t, "::") {
				return true
			}
			if isSym(t, "=") || isSym(t, "|") {
				return false
			}
		}
		depth += bracketDelta(t)
	}
	return false
}

// tryTypeSig parses `names :: type`, splitting the type at top-level
// separators for the alignment pass.
func tryTypeSig(c construct, base cst.Base) *cst.TypeSig {
	flat := c.flatten()
	sig := &cst.TypeSig{Base: base, MultiLine: len(c) > 1}

	i := 0
names:
	for i < len(flat) {
		t := flat[i]
		if i > 0 && t.Leading.HasComment() {
			// A comment inside the name list has no slot to live in.
			return nil
		}
		switch {
		case t.Kind == token.VarID:
			sig.Names = append(sig.Names, t.Text)
			if sig.NameSpan.End == 0 {
				sig.NameSpan = t.Span
			}
			i++
		case t.Is(token.Punct, "(") && i+2 < len(flat) &&
			(flat[i+1].Kind == token.VarSym || flat[i+1].Kind == token.ConSym) &&
			flat[i+2].Is(token.Punct, ")") &&
			!flat[i+1].Leading.HasComment() && !flat[i+2].Leading.HasComment():
			sig.Names = append(sig.Names, flat[i+1].Text)
			sig.IsOperator = true
			if sig.NameSpan.End == 0 {
				sig.NameSpan = flat[i+1].Span
			}
			i += 3
		case t.Is(token.Punct, ","):
			i++
		case isSym(t, "::"):
			i++
			break names
		default:
			return nil
		}
	}
	if len(sig.Names) == 0 || i >= len(flat) {
		return nil
	}
	sig.Segments = typeSegments(flat[i:])
	return sig
}

// typeSegments splits a type's tokens at top-level -> and =>
// boundaries. The first segment is introduced by ::.
func typeSegments(toks []token.Token) []cst.TypeSegment {
	isArrow := func(t token.Token) bool { return isSym(t, "->") || isSym(t, "=>") }

	var segs []cst.TypeSegment
	sep := "::"
	cur := segment{}
	depth := 0
	for i, t := range toks {
		if depth == 0 && isArrow(t) {
			lead, eol := boundaryComments(t.Leading)
			if eol != nil && cur.trail == nil {
				cur.trail = eol
			} else if eol != nil {
				lead = append(lead, *eol)
			}
			segs = append(segs, cst.TypeSegment{Sep: sep, Text: segText(cur), Leading: cur.lead, Trailing: cur.trail})
			sep = t.Text
			cur = segment{lead: lead}
			continue
		}
		if i == 0 || len(cur.toks) == 0 {
			lead, eol := boundaryComments(t.Leading)
			cur.lead = append(cur.lead, lead...)
			if eol != nil && cur.trail == nil {
				cur.trail = eol
			} else if eol != nil {
				cur.lead = append(cur.lead, *eol)
			}
			t.Leading = nil
		} else {
			t.Leading = pullLineComments(t.Leading, &cur)
		}
		cur.toks = append(cur.toks, t)
		depth += bracketDelta(t)
	}
	segs = append(segs, cst.TypeSegment{Sep: sep, Text: segText(cur), Leading: cur.lead, Trailing: cur.trail})
	return segs
}

// tryDataDecl parses data and newtype declarations down to their
// constructors and deriving clauses. GADT syntax (a where in the
// head) is out of structural scope and falls back to raw layout.
func tryDataDecl(c construct, base cst.Base) *cst.DataDecl {
	flat := c.flatten()
	if indexTop(flat, kwMatch("where")) >= 0 {
		return nil
	}

	d := &cst.DataDecl{Base: base, Keyword: flat[0].Text, MultiLine: len(c) > 1}

	eq := indexTop(flat, symMatch("="))
	firstDeriv := indexTop(flat, kwMatch("deriving"))

	headEnd := len(flat)
	if eq >= 0 {
		headEnd = eq
	} else if firstDeriv >= 0 {
		headEnd = firstDeriv
	}
	// Comments in the head (or on the = itself) have no slot in the
	// structured form.
	guardEnd := headEnd
	if eq >= 0 {
		guardEnd = eq + 1
	}
	for _, t := range flat[1:guardEnd] {
		if t.Leading.HasComment() {
			return nil
		}
	}
	head := flat[1:headEnd]
	if a := indexTop(head, symMatch("=>")); a >= 0 {
		d.Context = cst.JoinTokens(stripLeading(head[:a]))
		head = head[a+1:]
	}
	if len(head) == 0 || head[0].Kind != token.ConID {
		return nil
	}
	d.Name = head[0].Text
	d.NameSpan = head[0].Span
	tyvars, ok := parseTyVars(head[1:])
	if !ok {
		return nil
	}
	d.TyVars = tyvars

	if eq >= 0 {
		conEnd := len(flat)
		if firstDeriv > eq {
			conEnd = firstDeriv
		}
		region := flat[eq+1 : conEnd]
		if indexTop(region, symMatch("|")) < 0 {
			// Single alternative. Keep the tokens pristine so record
			// fields hold on to their own comments.
			seg := segment{}
			if len(region) > 0 {
				seg.lead = region[0].Leading.Clone()
				region = stripLeading(region)
			}
			seg.toks = region
			con := parseConstructor(seg)
			if con == nil {
				return nil
			}
			d.Constructors = []*cst.Constructor{con}
		} else {
			for _, seg := range splitTop(stripLeading(region), symMatch("|")) {
				con := parseConstructor(seg)
				if con == nil {
					return nil
				}
				d.Constructors = append(d.Constructors, con)
			}
		}
	}

	clauses, ok := parseDerivingClauses(flat, d)
	if !ok {
		return nil
	}
	d.Deriving = clauses
	return d
}

// parseTyVars accepts plain type variables and parenthesized kinded
// ones, verbatim.
func parseTyVars(toks []token.Token) ([]string, bool) {
	var out []string
	for i := 0; i < len(toks); {
		t := toks[i]
		switch {
		case t.Kind == token.VarID:
			out = append(out, t.Text)
			i++
		case t.Is(token.Punct, "("):
			end := matchingClose(toks, i)
			if end < 0 {
				return nil, false
			}
			out = append(out, cst.JoinTokens(stripLeading(toks[i:end+1])))
			i = end + 1
		default:
			return nil, false
		}
	}
	return out, true
}

// parseConstructor reads one alternative: a named constructor with
// record fields or positional arguments, or an infix form kept
// verbatim under an empty name.
func parseConstructor(seg segment) *cst.Constructor {
	toks := seg.toks
	con := &cst.Constructor{Leading: seg.lead, Trailing: seg.trail, Span: spanOf(toks)}
	if len(toks) == 0 {
		return nil
	}
	if toks[0].Kind != token.ConID || (len(toks) > 1 && indexTop(toks, func(t token.Token) bool { return t.Kind == token.ConSym }) > 0) {
		// Infix constructor (Int :+: Bool) or other shape: verbatim.
		if cst.HasInteriorLineComment(toks) {
			return nil
		}
		con.Args = cst.JoinTokens(toks)
		return con
	}
	con.Name = toks[0].Text
	rest := toks[1:]
	if len(rest) == 0 {
		return con
	}
	if rest[0].Is(token.Punct, "{") {
		end := matchingClose(rest, 0)
		if end != len(rest)-1 {
			return nil
		}
		lead, eol := boundaryComments(rest[0].Leading)
		if eol != nil && con.Trailing == nil {
			con.Trailing = eol
		} else if eol != nil {
			lead = append(lead, *eol)
		}
		con.Fields = parseRecordFields(rest[1:end])
		if con.Fields == nil {
			return nil
		}
		if lead.HasComment() {
			con.Fields[0].Leading = append(lead, con.Fields[0].Leading...)
		}
		closeLead, closeEOL := boundaryComments(rest[end].Leading)
		if closeEOL != nil {
			if last := con.Fields[len(con.Fields)-1]; last.Trailing == nil {
				last.Trailing = closeEOL
			} else {
				closeLead = append(closeLead, *closeEOL)
			}
		}
		if closeLead.HasComment() {
			con.Closing = closeLead
		}
		return con
	}
	if rest[0].Leading.HasComment() || cst.HasInteriorLineComment(rest) {
		return nil
	}
	con.Args = cst.JoinTokens(rest)
	return con
}

// parseRecordFields splits record syntax into fields. Pieces without
// a :: share the following piece's type (a, b :: Int).
func parseRecordFields(toks []token.Token) []*cst.RecordField {
	var (
		fields  []*cst.RecordField
		carried []string
		lead    token.Trivia
	)
	for _, seg := range splitTop(toks, commaMatch) {
		cc := indexTop(seg.toks, symMatch("::"))
		if cc < 0 {
			// Name-only piece: its names and comments carry forward.
			for _, t := range seg.toks {
				if t.Kind != token.VarID || t.Leading.HasComment() {
					return nil
				}
				carried = append(carried, t.Text)
			}
			lead = append(lead, seg.lead...)
			continue
		}
		f := &cst.RecordField{
			Leading:  append(lead, seg.lead...),
			Span:     spanOf(seg.toks),
			Trailing: seg.trail,
		}
		lead = nil
		f.Names = carried
		carried = nil
		for _, t := range seg.toks[:cc] {
			if t.Kind != token.VarID || t.Leading.HasComment() {
				return nil
			}
			f.Names = append(f.Names, t.Text)
		}
		if seg.toks[cc].Leading.HasComment() {
			return nil
		}
		ty := seg.toks[cc+1:]
		if len(ty) > 0 && ty[0].Kind == token.Pragma && strings.Contains(strings.ToUpper(ty[0].Text), "UNPACK") {
			if ty[0].Leading.HasComment() {
				return nil
			}
			f.Unpack = true
			ty = ty[1:]
		}
		if len(ty) > 0 && isSym(ty[0], "!") {
			if ty[0].Leading.HasComment() {
				return nil
			}
			f.Strict = true
			ty = ty[1:]
		}
		if len(ty) == 0 || ty[0].Leading.HasComment() {
			return nil
		}
		if n := len(fields); n > 0 && fields[n-1].Trailing == nil {
			if eol := takeLeadingEOL(&f.Leading); eol != nil {
				fields[n-1].Trailing = eol
			}
		}
		f.Type = cst.JoinTokens(stripLeading(ty))
		fields = append(fields, f)
	}
	if carried != nil || len(fields) == 0 {
		return nil
	}
	return fields
}

// parseDerivingClauses reads every top-level deriving clause after the
// constructors. A false result means a clause held comments neither
// the structured nor the verbatim form can keep.
func parseDerivingClauses(flat []token.Token, d *cst.DataDecl) ([]*cst.DerivingClause, bool) {
	var (
		clauses []*cst.DerivingClause
		idxs    []int
	)
	depth := 0
	for i, t := range flat {
		if depth == 0 && t.IsKeyword("deriving") {
			idxs = append(idxs, i)
		}
		depth += bracketDelta(t)
	}
	for n, idx := range idxs {
		end := len(flat)
		if n+1 < len(idxs) {
			end = idxs[n+1]
		}
		lead, eol := boundaryComments(flat[idx].Leading)
		if eol != nil {
			attachDataTrail(d, clauses, eol)
		}
		body := flat[idx+1 : end]
		dc := parseDerivingClause(body, lead)
		if dc == nil {
			if len(body) > 0 && (body[0].Leading.HasComment() || cst.HasInteriorLineComment(body)) {
				return nil, false
			}
			dc = &cst.DerivingClause{
				Leading: lead,
				Classes: []string{cst.JoinTokens(stripLeading(body))},
				Span:    spanOf(flat[idx:end]),
			}
		}
		clauses = append(clauses, dc)
	}
	return clauses, true
}

// attachDataTrail hangs an end-of-line comment on the construct that
// ended the line: the previous clause, else the last constructor.
func attachDataTrail(d *cst.DataDecl, clauses []*cst.DerivingClause, eol *token.TriviaPiece) {
	if n := len(clauses); n > 0 {
		if clauses[n-1].Trailing == nil {
			clauses[n-1].Trailing = eol
		}
		return
	}
	if n := len(d.Constructors); n > 0 && d.Constructors[n-1].Trailing == nil {
		d.Constructors[n-1].Trailing = eol
	}
}

func parseDerivingClause(toks []token.Token, lead token.Trivia) *cst.DerivingClause {
	if len(toks) == 0 {
		return &cst.DerivingClause{Leading: lead}
	}
	if toks[0].Leading.HasComment() || cst.HasInteriorLineComment(toks) {
		return nil
	}
	dc := &cst.DerivingClause{Leading: lead, Span: spanOf(toks)}
	i := 0
	if toks[i].Is(token.VarID, "stock") || toks[i].Is(token.VarID, "anyclass") || toks[i].IsKeyword("newtype") {
		dc.Strategy = toks[i].Text
		i++
	}
	if i >= len(toks) || (i > 0 && toks[i].Leading.HasComment()) {
		return nil
	}
	switch {
	case toks[i].Is(token.Punct, "("):
		end := matchingClose(toks, i)
		if end < 0 || toks[end].Leading.HasComment() {
			return nil
		}
		for _, seg := range splitTop(stripLeading(toks[i+1:end]), commaMatch) {
			if seg.lead.HasComment() {
				return nil
			}
			if len(seg.toks) == 0 {
				continue
			}
			dc.Classes = append(dc.Classes, segText(seg))
		}
		i = end + 1
	case toks[i].Kind == token.ConID:
		dc.Classes = []string{toks[i].Text}
		i++
	default:
		return nil
	}
	if i < len(toks) {
		if !toks[i].Is(token.VarID, "via") || i+1 >= len(toks) || toks[i+1].Leading.HasComment() {
			return nil
		}
		dc.Via = cst.JoinTokens(stripLeading(toks[i+1:]))
	}
	return dc
}

// funcBind wraps a function equation or pattern binding with its
// layout block.
func funcBind(c construct, base cst.Base) *cst.FuncBind {
	flat := c.flatten()
	d := &cst.FuncBind{Base: base, Body: buildBlock(c)}

	ft := flat[0]
	switch {
	case ft.Kind == token.VarID && len(flat) > 1 && flat[1].Kind == token.VarSym && !reservedSyms[flat[1].Text]:
		d.Name = flat[1].Text
		d.NameSpan = flat[1].Span
		d.IsOperator = true
		d.Infix = true
	case ft.Kind == token.VarID && len(flat) > 2 && flat[1].Is(token.Punct, "`") && flat[2].Kind == token.VarID:
		d.Name = flat[2].Text
		d.NameSpan = flat[2].Span
		d.Infix = true
	case ft.Kind == token.VarID:
		d.Name = ft.Text
		d.NameSpan = ft.Span
	case ft.Is(token.Punct, "(") && len(flat) > 2 &&
		(flat[1].Kind == token.VarSym || flat[1].Kind == token.ConSym) &&
		flat[2].Is(token.Punct, ")"):
		d.Name = flat[1].Text
		d.NameSpan = flat[1].Span
		d.IsOperator = true
	}
	return d
}

// blockDecl wraps a class or instance declaration. The head line is
// the block's first line.
func blockDecl(c construct, base cst.Base, keyword string) *cst.BlockDecl {
	flat := c.flatten()
	d := &cst.BlockDecl{Base: base, Keyword: keyword, Body: buildBlock(c)}

	head := flat
	if w := indexTop(flat, kwMatch("where")); w >= 0 {
		head = flat[:w]
	}
	if a := indexTop(head, symMatch("=>")); a >= 0 {
		head = head[a+1:]
	}
	for _, t := range head {
		if t.Kind == token.ConID {
			d.Name = t.Text
			d.NameSpan = t.Span
			break
		}
	}
	return d
}

// tryPragmaDecl reads a declaration-level pragma construct.
func tryPragmaDecl(c construct, base cst.Base) *cst.PragmaDecl {
	flat := c.flatten()
	if len(flat) != 1 {
		return nil
	}
	pr := parsePragmaToken(flat[0])
	pr.Leading = nil
	return &cst.PragmaDecl{Base: base, Pragma: pr, Target: pragmaTarget(pr.Body)}
}

// pragmaTarget extracts the binder a declaration pragma names, if the
// body starts with one (INLINE foo, SPECIALIZE bar :: ...).
func pragmaTarget(body string) string {
	for _, f := range strings.Fields(body) {
		if strings.HasPrefix(f, "[") || strings.HasPrefix(f, "~") {
			continue // phase control like [2] or [~1]
		}
		f = strings.TrimSuffix(strings.TrimPrefix(f, "("), ")")
		if f == "" {
			return ""
		}
		r := rune(f[0])
		if r == '_' || (r >= 'a' && r <= 'z') {
			return f
		}
		return ""
	}
	return ""
}

// rawDecl keeps a construct's lines verbatim, re-indented only.
func rawDecl(c construct, base cst.Base) *cst.RawDecl {
	return &cst.RawDecl{Base: base, Body: buildBlock(c)}
}

// buildBlock copies a construct's lines and assigns layout depth. The
// first token's trivia is owned by the declaration, not the line.
func buildBlock(c construct) *cst.Block {
	b := &cst.Block{}
	for _, ln := range c {
		toks := append([]token.Token(nil), ln...)
		b.Lines = append(b.Lines, &cst.Line{Tokens: toks, Indent: ln[0].Span.Col - 1})
	}
	b.Lines[0].Tokens[0].Leading = nil
	computeLayout(b.Lines)
	return b
}
