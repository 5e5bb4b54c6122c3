// Package lexer converts raw Haskell source text into a token sequence
// with attached trivia. Scanning is total: malformed input produces
// diagnostics, never a panic or partial loss of bytes.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/donaldgifford/hsfmt/internal/diag"
	"github.com/donaldgifford/hsfmt/internal/token"
)

// Reserved words per the language report. qualified/as/hiding are
// contextual and lex as plain identifiers.
var keywords = map[string]bool{
	"case": true, "class": true, "data": true, "default": true,
	"deriving": true, "do": true, "else": true, "foreign": true,
	"if": true, "import": true, "in": true, "infix": true,
	"infixl": true, "infixr": true, "instance": true, "let": true,
	"module": true, "newtype": true, "of": true, "then": true,
	"type": true, "where": true,
}

// Keywords that open a layout block.
var layoutKeywords = map[string]bool{
	"where": true, "let": true, "do": true, "of": true,
}

// Scan tokenizes src. It never fails: problems are reported as
// diagnostics (invalid UTF-8 and unterminated comments/pragmas/strings
// carry error severity, which the structural reader treats as fatal for
// this input). The returned slice is safe to re-walk freely; no scanner
// state outlives the call.
func Scan(src string) ([]token.Token, []diag.Diagnostic) {
	if idx := firstInvalidUTF8(src); idx >= 0 {
		return nil, []diag.Diagnostic{(&diag.EncodingError{Offset: idx}).Diagnostic()}
	}

	l := &lexer{src: src, line: 1, col: 1}
	l.run()
	return l.tokens, l.diags
}

// FatalDiag returns the first error-severity diagnostic, or nil. The
// structural reader uses it to decide whether a scan is usable.
func FatalDiag(ds []diag.Diagnostic) *diag.Diagnostic {
	for i := range ds {
		if ds[i].Severity == diag.SeverityError {
			return &ds[i]
		}
	}
	return nil
}

// lexer tracks scanning state for one input. A fresh lexer is built per
// Scan call, so re-tokenizing is always safe.
type lexer struct {
	src  string
	off  int
	line int // 1-based
	col  int // 1-based, bytes

	tokens  []token.Token
	pending token.Trivia
	diags   []diag.Diagnostic

	// lastContentLine is the line holding the most recent token or
	// comment; used to mark comments that trail code on their line.
	lastContentLine int
}

func (l *lexer) run() {
	for {
		l.scanWhitespace()
		if l.off >= len(l.src) {
			l.emit(token.EOF, "", l.markSpan(l.off))
			return
		}

		start := l.mark()
		c := l.src[l.off]

		switch {
		case c == '-' && l.isLineComment():
			l.scanLineComment(start)

		case c == '{' && l.peekAt(1) == '-':
			if l.peekAt(2) == '#' {
				l.scanPragma(start)
			} else {
				l.scanBlockComment(start)
			}

		case c == '"':
			l.scanString(start)

		case c == '\'':
			l.scanTick(start)

		case c >= '0' && c <= '9':
			l.scanNumber(start)

		case isIdentStart(rune(c)) || c >= utf8.RuneSelf && isIdentStartRune(l.peekRune()):
			l.scanIdent(start)

		case isSymbolChar(rune(c)):
			l.scanOperator(start)

		case isPunct(c):
			l.advance(1)
			l.emit(token.Punct, string(c), l.spanFrom(start))

		default:
			r, w := utf8.DecodeRuneInString(l.src[l.off:])
			if unicode.IsSymbol(r) || unicode.IsPunct(r) {
				l.scanOperator(start)
				continue
			}
			l.advance(w)
			l.emit(token.Illegal, string(r), l.spanFrom(start))
		}
	}
}

// mark captures the current position for span construction.
type mark struct {
	off, line, col int
}

func (l *lexer) mark() mark { return mark{l.off, l.line, l.col} }

func (l *lexer) markSpan(end int) token.Span {
	return token.Span{Offset: l.off, End: end, Line: l.line, Col: l.col}
}

func (l *lexer) spanFrom(m mark) token.Span {
	return token.Span{Offset: m.off, End: l.off, Line: m.line, Col: m.col}
}

// advance consumes n bytes, updating line and column counters.
func (l *lexer) advance(n int) {
	for i := 0; i < n && l.off < len(l.src); i++ {
		if l.src[l.off] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.off++
	}
}

func (l *lexer) peekAt(n int) byte {
	if l.off+n < len(l.src) {
		return l.src[l.off+n]
	}
	return 0
}

func (l *lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) emit(kind token.Kind, text string, span token.Span) {
	tok := token.Token{Kind: kind, Text: text, Span: span, Leading: l.pending}
	if kind == token.Keyword && layoutKeywords[text] {
		tok.Layout = true
	}
	l.pending = nil
	l.tokens = append(l.tokens, tok)
	l.lastContentLine = l.line
}

func (l *lexer) pushTrivia(kind token.TriviaKind, m mark, ownLine bool) {
	l.pending = append(l.pending, token.TriviaPiece{
		Kind:    kind,
		Text:    l.src[m.off:l.off],
		Span:    l.spanFrom(m),
		OwnLine: ownLine,
	})
	if kind != token.TriviaWhitespace {
		l.lastContentLine = l.line
	}
}

func (l *lexer) errorf(m mark, format string, args ...any) {
	l.diags = append(l.diags, diag.New(diag.KindParseError, diag.SeverityError, l.spanFrom(m), "lexer", format, args...))
}

func (l *lexer) scanWhitespace() {
	m := l.mark()
	for l.off < len(l.src) {
		switch l.src[l.off] {
		case ' ', '\t', '\r', '\n':
			l.advance(1)
		default:
			if l.off > m.off {
				l.pushTrivia(token.TriviaWhitespace, m, false)
			}
			return
		}
	}
	if l.off > m.off {
		l.pushTrivia(token.TriviaWhitespace, m, false)
	}
}

// isLineComment reports whether the dash run at the cursor starts a
// comment. Two or more dashes followed by a non-symbol character (or
// end of line) are a comment; otherwise the run is an operator like -->.
func (l *lexer) isLineComment() bool {
	n := 0
	for l.peekAt(n) == '-' {
		n++
	}
	if n < 2 {
		return false
	}
	next := l.peekAt(n)
	if next == 0 || next == '\n' {
		return true
	}
	return !isSymbolChar(rune(next))
}

func (l *lexer) scanLineComment(m mark) {
	ownLine := m.line > l.lastContentLine
	for l.off < len(l.src) && l.src[l.off] != '\n' {
		l.advance(1)
	}
	l.pushTrivia(token.TriviaLineComment, m, ownLine)
}

func (l *lexer) scanBlockComment(m mark) {
	ownLine := m.line > l.lastContentLine
	depth := 0
	for l.off < len(l.src) {
		if l.src[l.off] == '{' && l.peekAt(1) == '-' {
			depth++
			l.advance(2)
			continue
		}
		if l.src[l.off] == '-' && l.peekAt(1) == '}' {
			l.advance(2)
			depth--
			if depth == 0 {
				l.pushTrivia(token.TriviaBlockComment, m, ownLine)
				return
			}
			continue
		}
		l.advance(1)
	}
	l.errorf(m, "unterminated block comment")
	l.pushTrivia(token.TriviaBlockComment, m, ownLine)
}

// scanPragma consumes a whole {-# ... #-} pragma as a single token.
func (l *lexer) scanPragma(m mark) {
	l.advance(3) // {-#
	for l.off < len(l.src) {
		if l.src[l.off] == '#' && l.peekAt(1) == '-' && l.peekAt(2) == '}' {
			l.advance(3)
			l.emit(token.Pragma, l.src[m.off:l.off], l.spanFrom(m))
			return
		}
		l.advance(1)
	}
	l.errorf(m, "unterminated pragma")
	l.emit(token.Pragma, l.src[m.off:l.off], l.spanFrom(m))
}

func (l *lexer) scanString(m mark) {
	l.advance(1) // opening quote
	for l.off < len(l.src) {
		switch l.src[l.off] {
		case '\\':
			l.advance(2) // escape or gap start; scanning resumes after it
		case '"':
			l.advance(1)
			l.emit(token.StringLit, l.src[m.off:l.off], l.spanFrom(m))
			return
		case '\n':
			l.errorf(m, "unterminated string literal")
			l.emit(token.StringLit, l.src[m.off:l.off], l.spanFrom(m))
			return
		default:
			l.advance(1)
		}
	}
	l.errorf(m, "unterminated string literal")
	l.emit(token.StringLit, l.src[m.off:l.off], l.spanFrom(m))
}

// scanTick handles ' which is either a character literal ('a', '\n') or
// a bare tick (promoted constructors, Template Haskell name quotes).
func (l *lexer) scanTick(m mark) {
	rest := l.src[l.off:]
	if n := charLitLen(rest); n > 0 {
		l.advance(n)
		l.emit(token.CharLit, l.src[m.off:l.off], l.spanFrom(m))
		return
	}
	l.advance(1)
	l.emit(token.Punct, "'", l.spanFrom(m))
}

// charLitLen returns the byte length of a character literal at the
// start of s, or 0 if s does not begin one.
func charLitLen(s string) int {
	if len(s) < 3 || s[0] != '\'' {
		return 0
	}
	i := 1
	if s[i] == '\\' {
		i++
		// Escape body: one char, then any alphanumerics (\x41, \NUL).
		if i >= len(s) {
			return 0
		}
		i++
		for i < len(s) && isAlnum(s[i]) {
			i++
		}
	} else {
		r, w := utf8.DecodeRuneInString(s[i:])
		if r == '\'' || r == '\n' {
			return 0
		}
		i += w
	}
	if i < len(s) && s[i] == '\'' {
		return i + 1
	}
	return 0
}

func (l *lexer) scanNumber(m mark) {
	kind := token.IntLit
	if l.src[l.off] == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X' || l.peekAt(1) == 'o' || l.peekAt(1) == 'O' || l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance(2)
		l.consumeDigits(isAlnum)
	} else {
		l.consumeDigits(isDigitByte)
		if l.off < len(l.src) && l.src[l.off] == '.' && isDigitByte(l.peekAt(1)) {
			kind = token.FloatLit
			l.advance(1)
			l.consumeDigits(isDigitByte)
		}
		if l.off < len(l.src) && (l.src[l.off] == 'e' || l.src[l.off] == 'E') {
			next := l.peekAt(1)
			if isDigitByte(next) || ((next == '+' || next == '-') && isDigitByte(l.peekAt(2))) {
				kind = token.FloatLit
				l.advance(1)
				if l.src[l.off] == '+' || l.src[l.off] == '-' {
					l.advance(1)
				}
				l.consumeDigits(isDigitByte)
			}
		}
	}
	l.emit(kind, l.src[m.off:l.off], l.spanFrom(m))
}

func (l *lexer) consumeDigits(ok func(byte) bool) {
	for l.off < len(l.src) && (ok(l.src[l.off]) || l.src[l.off] == '_') {
		l.advance(1)
	}
}

// scanIdent scans an identifier, following module qualification:
// Data.Map.insert is one VarID token, Data.Map.! one VarSym token.
func (l *lexer) scanIdent(m mark) {
	upper := l.scanIdentSegment()
	for upper && l.off < len(l.src) && l.src[l.off] == '.' {
		next := rune(l.peekAt(1))
		if next >= utf8.RuneSelf {
			next, _ = utf8.DecodeRuneInString(l.src[l.off+1:])
		}
		switch {
		case isIdentStartRune(next):
			l.advance(1)
			upper = l.scanIdentSegment()
		case isSymbolChar(next):
			l.advance(1)
			symStart := l.off
			for l.off < len(l.src) && isSymbolChar(rune(l.src[l.off])) {
				l.advance(1)
			}
			kind := token.VarSym
			if l.src[symStart] == ':' {
				kind = token.ConSym
			}
			l.emit(kind, l.src[m.off:l.off], l.spanFrom(m))
			return
		default:
			// Plain conid; the dot lexes as the next token.
			l.emitIdent(m, true)
			return
		}
	}
	l.emitIdent(m, upper)
}

// scanIdentSegment consumes one identifier segment and reports whether
// it starts with an uppercase letter.
func (l *lexer) scanIdentSegment() bool {
	r, w := utf8.DecodeRuneInString(l.src[l.off:])
	upper := unicode.IsUpper(r)
	l.advance(w)
	for l.off < len(l.src) {
		r, w = utf8.DecodeRuneInString(l.src[l.off:])
		if !isIdentRune(r) {
			break
		}
		l.advance(w)
	}
	return upper
}

func (l *lexer) emitIdent(m mark, upper bool) {
	text := l.src[m.off:l.off]
	switch {
	case !strings.Contains(text, ".") && keywords[text]:
		l.emit(token.Keyword, text, l.spanFrom(m))
	case upper:
		l.emit(token.ConID, text, l.spanFrom(m))
	default:
		l.emit(token.VarID, text, l.spanFrom(m))
	}
}

func (l *lexer) scanOperator(m mark) {
	for l.off < len(l.src) {
		r, w := utf8.DecodeRuneInString(l.src[l.off:])
		if !isSymbolChar(r) && !(r >= utf8.RuneSelf && unicode.IsSymbol(r)) {
			break
		}
		l.advance(w)
	}
	text := l.src[m.off:l.off]
	kind := token.VarSym
	if text != "" && text[0] == ':' {
		kind = token.ConSym
	}
	l.emit(kind, text, l.spanFrom(m))
}

func firstInvalidUTF8(s string) int {
	if utf8.ValidString(s) {
		return -1
	}
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && w == 1 {
			return i
		}
		i += w
	}
	return -1
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isSymbolChar(r rune) bool {
	switch r {
	case '!', '#', '$', '%', '&', '*', '+', '.', '/', '<', '=', '>', '?',
		'@', '\\', '^', '|', '-', '~', ':':
		return true
	}
	return false
}

func isPunct(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', ',', ';', '`':
		return true
	}
	return false
}

func isAlnum(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }
