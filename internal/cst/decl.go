package cst

import "github.com/donaldgifford/hsfmt/internal/token"

// Decl is a top-level declaration. Concrete declarations embed Base
// for the shared trivia and span bookkeeping.
type Decl interface {
	Leading() token.Trivia
	SetLeading(token.Trivia)
	Trailing() *token.TriviaPiece
	SetTrailing(*token.TriviaPiece)
	Span() token.Span
	CloneDecl() Decl
}

// Base carries the fields every declaration shares. Trail holds the
// end-of-line comment after the declaration's last token, moved off
// the next construct so it travels with this one under reordering.
type Base struct {
	Trivia token.Trivia
	Trail  *token.TriviaPiece
	Loc    token.Span
}

// Leading returns the comments and blank lines before the declaration.
func (b *Base) Leading() token.Trivia { return b.Trivia }

// SetLeading replaces the leading trivia.
func (b *Base) SetLeading(tr token.Trivia) { b.Trivia = tr }

// Span returns the source span of the whole declaration.
func (b *Base) Span() token.Span { return b.Loc }

// Trailing returns the end-of-line comment after the declaration.
func (b *Base) Trailing() *token.TriviaPiece { return b.Trail }

// SetTrailing replaces the end-of-line comment.
func (b *Base) SetTrailing(p *token.TriviaPiece) { b.Trail = p }

func (b Base) clone() Base {
	b.Trivia = b.Trivia.Clone()
	b.Trail = clonePiece(b.Trail)
	return b
}

// TypeSig is a type signature: one or more names, then the type split
// at its top-level separators.
type TypeSig struct {
	Base
	Names      []string
	NameSpan   token.Span
	IsOperator bool
	Segments   []TypeSegment
	// MultiLine records the source layout for the one-line tie-break.
	MultiLine bool
	// OneLine is the alignment pass's rendering decision. Transient.
	OneLine bool
}

// TypeSegment is one piece of a signature's type. Sep is the separator
// that introduces the segment when rendered across lines: "::" for the
// first, then "=>" or "->". Leading carries full-line comments before
// the segment, Trailing its end-of-line comment.
type TypeSegment struct {
	Sep      string
	Text     string
	Leading  token.Trivia
	Trailing *token.TriviaPiece
}

// CloneDecl returns a deep copy.
func (d *TypeSig) CloneDecl() Decl {
	out := *d
	out.Base = d.Base.clone()
	out.Names = append([]string(nil), d.Names...)
	out.Segments = make([]TypeSegment, len(d.Segments))
	for i, s := range d.Segments {
		s.Leading = s.Leading.Clone()
		s.Trailing = clonePiece(s.Trailing)
		out.Segments[i] = s
	}
	return &out
}

// DataDecl is a data or newtype declaration parsed down to its
// constructors and deriving clauses.
type DataDecl struct {
	Base
	// Keyword is "data" or "newtype".
	Keyword  string
	Name     string
	NameSpan token.Span
	TyVars   []string
	// Context is the verbatim constraint before =>, empty when absent.
	Context      string
	Constructors []*Constructor
	Deriving     []*DerivingClause
	MultiLine    bool
	OneLine      bool
	// FieldNameWidth and StrategyWidth are alignment pass products:
	// the padded width of record field names within the declaration
	// and of deriving strategy keywords. Transient.
	FieldNameWidth int
	StrategyWidth  int
}

// CloneDecl returns a deep copy.
func (d *DataDecl) CloneDecl() Decl {
	out := *d
	out.Base = d.Base.clone()
	out.TyVars = append([]string(nil), d.TyVars...)
	out.Constructors = make([]*Constructor, len(d.Constructors))
	for i, c := range d.Constructors {
		out.Constructors[i] = c.Clone()
	}
	out.Deriving = make([]*DerivingClause, len(d.Deriving))
	for i, dc := range d.Deriving {
		out.Deriving[i] = dc.Clone()
	}
	return &out
}

// Constructor is one alternative of a data declaration. Fields is set
// for record syntax; Args keeps positional arguments verbatim.
type Constructor struct {
	Leading token.Trivia
	Name    string
	Span    token.Span
	Fields  []*RecordField
	Args    string
	// Closing carries comments that sit just before the closing brace
	// of a record constructor.
	Closing  token.Trivia
	Trailing *token.TriviaPiece
}

// Clone returns a deep copy.
func (c *Constructor) Clone() *Constructor {
	out := *c
	out.Leading = c.Leading.Clone()
	out.Fields = make([]*RecordField, len(c.Fields))
	for i, f := range c.Fields {
		out.Fields[i] = f.Clone()
	}
	out.Closing = c.Closing.Clone()
	out.Trailing = clonePiece(c.Trailing)
	return &out
}

// RecordField is one field of a record constructor.
type RecordField struct {
	Leading token.Trivia
	Names   []string
	Span    token.Span
	// Strict marks a bang annotation, Unpack an {-# UNPACK #-} before it.
	Strict   bool
	Unpack   bool
	Type     string
	Trailing *token.TriviaPiece
}

// Clone returns a deep copy.
func (f *RecordField) Clone() *RecordField {
	out := *f
	out.Leading = f.Leading.Clone()
	out.Names = append([]string(nil), f.Names...)
	out.Trailing = clonePiece(f.Trailing)
	return &out
}

// DerivingClause is one deriving clause of a data declaration.
type DerivingClause struct {
	Leading token.Trivia
	// Strategy is "", "stock", "newtype" or "anyclass". Via carries
	// the via target verbatim and implies its own rendering form.
	Strategy string
	Via      string
	Classes  []string
	Span     token.Span
	Trailing *token.TriviaPiece
}

// Clone returns a deep copy.
func (dc *DerivingClause) Clone() *DerivingClause {
	out := *dc
	out.Leading = dc.Leading.Clone()
	out.Classes = append([]string(nil), dc.Classes...)
	out.Trailing = clonePiece(dc.Trailing)
	return &out
}

// FuncBind is one function equation or pattern binding, including any
// where block that follows it. Body holds the equation's source lines;
// the first line starts at the binder.
type FuncBind struct {
	Base
	Name       string
	NameSpan   token.Span
	IsOperator bool
	// Infix marks operator definitions written in infix position
	// (x <+> y = ...), where the binder is not the first token.
	Infix bool
	Body  *Block
}

// CloneDecl returns a deep copy.
func (d *FuncBind) CloneDecl() Decl {
	out := *d
	out.Base = d.Base.clone()
	out.Body = d.Body.Clone()
	return &out
}

// BlockDecl is a class or instance declaration: a head line and the
// layout block under its where.
type BlockDecl struct {
	Base
	// Keyword is "class" or "instance".
	Keyword string
	// Name is the class or instance head's principal constructor name.
	Name     string
	NameSpan token.Span
	Body     *Block
}

// CloneDecl returns a deep copy.
func (d *BlockDecl) CloneDecl() Decl {
	out := *d
	out.Base = d.Base.clone()
	out.Body = d.Body.Clone()
	return &out
}

// PragmaDecl is a declaration-level pragma (INLINE, SPECIALIZE and
// friends). Target is the binder it names, empty when none is parsed.
type PragmaDecl struct {
	Base
	Pragma *Pragma
	Target string
}

// CloneDecl returns a deep copy.
func (d *PragmaDecl) CloneDecl() Decl {
	out := *d
	out.Base = d.Base.clone()
	out.Pragma = d.Pragma.Clone()
	return &out
}

// RawDecl is a declaration the parser does not model structurally:
// GADTs, type and type family declarations, foreign imports, fixity
// declarations, Template Haskell splices. Its lines are re-indented
// but otherwise left alone.
type RawDecl struct {
	Base
	Body *Block
}

// CloneDecl returns a deep copy.
func (d *RawDecl) CloneDecl() Decl {
	out := *d
	out.Base = d.Base.clone()
	out.Body = d.Body.Clone()
	return &out
}

// Block is a run of layout lines belonging to one declaration.
type Block struct {
	Lines []*Line
}

// Clone returns a deep copy.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	out := &Block{Lines: make([]*Line, len(b.Lines))}
	for i, ln := range b.Lines {
		out.Lines[i] = ln.Clone()
	}
	return out
}

// Span returns the span from the first to the last token of the block.
func (b *Block) Span() token.Span {
	if b == nil || len(b.Lines) == 0 {
		return token.Span{}
	}
	first := b.Lines[0].Tokens[0].Span
	last := b.Lines[len(b.Lines)-1]
	end := last.Tokens[len(last.Tokens)-1].Span
	return token.Span{Offset: first.Offset, End: end.End, Line: first.Line, Col: first.Col}
}

// Line is one source line of a block: its tokens plus the layout
// position assigned by the indentation pass.
type Line struct {
	Tokens []token.Token
	// Indent is the line's indentation in columns (zero-based): the
	// source indentation after parsing, the output indentation once
	// the indentation pass has run.
	Indent int
	// Depth is the layout depth; the declaration head line is depth
	// zero. Cont marks a continuation of the statement begun on an
	// earlier line, which hangs two extra units.
	Depth int
	Cont  bool
	// ArrowPad pads the tokens before a top-level <- binder to the
	// given width so binders in a do block align. Transient.
	ArrowPad int
}

// Clone returns a deep copy.
func (ln *Line) Clone() *Line {
	out := *ln
	out.Tokens = make([]token.Token, len(ln.Tokens))
	for i, t := range ln.Tokens {
		t.Leading = t.Leading.Clone()
		out.Tokens[i] = t
	}
	return &out
}

// FirstToken returns the line's first token.
func (ln *Line) FirstToken() token.Token { return ln.Tokens[0] }

// LastToken returns the line's last token.
func (ln *Line) LastToken() token.Token { return ln.Tokens[len(ln.Tokens)-1] }
