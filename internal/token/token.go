// Package token defines the lexical tokens, source spans, and attached
// trivia produced by the lexer for Haskell source text.
package token

import "strings"

// Kind classifies a lexical token.
type Kind int

const (
	// EOF marks the end of input. Its trivia holds file-trailing comments
	// and blank lines.
	EOF Kind = iota
	// VarID is a variable identifier (lowercase or _ initial), possibly
	// qualified (Data.Map.insert).
	VarID
	// ConID is a constructor or type identifier (uppercase initial),
	// possibly qualified (Data.Map.Map).
	ConID
	// VarSym is a symbolic operator (<$>, ++, .), possibly qualified.
	VarSym
	// ConSym is a symbolic operator starting with : (constructor operator).
	ConSym
	// Keyword is a reserved word (module, where, data, let, ...).
	Keyword
	// IntLit is an integer literal, including hex/octal/binary forms.
	IntLit
	// FloatLit is a floating point literal.
	FloatLit
	// StringLit is a double-quoted string literal.
	StringLit
	// CharLit is a single-quoted character literal.
	CharLit
	// Punct is a single punctuation character: ( ) [ ] { } , ; ` '
	Punct
	// Pragma is a whole {-# ... #-} pragma, kept as one token.
	Pragma
	// Illegal is a byte sequence the lexer could not classify.
	Illegal
)

// String returns a short name for the kind, used in diagnostics and tests.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case VarID:
		return "VarID"
	case ConID:
		return "ConID"
	case VarSym:
		return "VarSym"
	case ConSym:
		return "ConSym"
	case Keyword:
		return "Keyword"
	case IntLit:
		return "IntLit"
	case FloatLit:
		return "FloatLit"
	case StringLit:
		return "StringLit"
	case CharLit:
		return "CharLit"
	case Punct:
		return "Punct"
	case Pragma:
		return "Pragma"
	case Illegal:
		return "Illegal"
	}
	return "Unknown"
}

// Span locates a region of source text. Offsets are byte positions,
// Line and Col are 1-based; Col counts bytes from the line start.
type Span struct {
	Offset int // inclusive start
	End    int // exclusive end
	Line   int
	Col    int
}

// Width returns the byte width of the span.
func (s Span) Width() int { return s.End - s.Offset }

// Token is a single lexical token with its leading trivia. Tokens are
// immutable once produced by the lexer.
type Token struct {
	Kind    Kind
	Text    string
	Span    Span
	Leading Trivia
	// Layout is set on keywords that open a layout block (where, let,
	// do, of). The structural reader uses it to track nesting.
	Layout bool
}

// Is reports whether the token has the given kind and exact text.
func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && t.Text == text
}

// IsKeyword reports whether the token is the given reserved word.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Keyword && t.Text == word
}

// EndCol returns the 1-based column just past the token on its line.
// Only meaningful for single-line tokens.
func (t Token) EndCol() int { return t.Span.Col + len(t.Text) }

// TriviaKind classifies a piece of leading trivia.
type TriviaKind int

const (
	// TriviaWhitespace is a raw run of spaces, tabs, and newlines.
	TriviaWhitespace TriviaKind = iota
	// TriviaLineComment is a -- comment running to end of line.
	TriviaLineComment
	// TriviaBlockComment is a {- ... -} comment, possibly nested and
	// possibly spanning lines.
	TriviaBlockComment
)

// TriviaPiece is one comment or whitespace run. Text holds the exact
// source bytes so an unmodified token stream reconstructs the input.
type TriviaPiece struct {
	Kind TriviaKind
	Text string
	Span Span
	// OwnLine is set on comments that start a line; a cleared flag means
	// the comment trailed code on the same line (end-of-line comment).
	OwnLine bool
}

// IsComment reports whether the piece is a line or block comment.
func (p TriviaPiece) IsComment() bool {
	return p.Kind == TriviaLineComment || p.Kind == TriviaBlockComment
}

// Trivia is the ordered leading trivia of a token: the comments and
// whitespace between the previous token and this one.
type Trivia []TriviaPiece

// Text reconstructs the exact source bytes of the trivia run.
func (tr Trivia) Text() string {
	var b strings.Builder
	for _, p := range tr {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Comments returns only the comment pieces, in source order.
func (tr Trivia) Comments() []TriviaPiece {
	var out []TriviaPiece
	for _, p := range tr {
		if p.IsComment() {
			out = append(out, p)
		}
	}
	return out
}

// BlankLinesBefore counts the blank source lines immediately preceding
// the owning token, stopping at the nearest comment. Two tokens on
// consecutive lines have zero blank lines between them.
func (tr Trivia) BlankLinesBefore() int {
	newlines := 0
	for i := len(tr) - 1; i >= 0; i-- {
		p := tr[i]
		if p.IsComment() {
			break
		}
		newlines += strings.Count(p.Text, "\n")
	}
	if newlines <= 1 {
		return 0
	}
	return newlines - 1
}

// HasComment reports whether any piece is a comment.
func (tr Trivia) HasComment() bool {
	for _, p := range tr {
		if p.IsComment() {
			return true
		}
	}
	return false
}

// Clone returns a copy of the trivia sequence. Pieces are value types,
// so a shallow copy of the slice is a full copy.
func (tr Trivia) Clone() Trivia {
	if tr == nil {
		return nil
	}
	out := make(Trivia, len(tr))
	copy(out, tr)
	return out
}

// WithBlankLines returns a copy of the trivia whose trailing whitespace
// encodes exactly n blank lines before the owning token. Comments are
// preserved; only the final whitespace run is replaced.
func (tr Trivia) WithBlankLines(n int) Trivia {
	out := tr.Clone()
	// Drop trailing whitespace pieces.
	for len(out) > 0 && !out[len(out)-1].IsComment() {
		out = out[:len(out)-1]
	}
	out = append(out, TriviaPiece{
		Kind: TriviaWhitespace,
		Text: strings.Repeat("\n", n+1),
	})
	return out
}
